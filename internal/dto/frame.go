package dto

// ── frames ──

// CreateFrameRequest new frame; an empty numbering draws the next sequential code
type CreateFrameRequest struct {
	Numbering   string `json:"numbering"     binding:"omitempty,max=20"`
	Color       string `json:"color"         binding:"omitempty,max=50"`
	FrameType   string `json:"frame_type"    binding:"omitempty,max=50"`
	Brand       string `json:"brand"         binding:"omitempty,max=100"`
	FrameSizeID string `json:"frame_size_id" binding:"omitempty,uuid"`
	Status      string `json:"status"        binding:"omitempty,frame_status"`
}

// UpdateFrameRequest partial frame update
type UpdateFrameRequest struct {
	Numbering   *string `json:"numbering"     binding:"omitempty,min=1,max=20"`
	Color       *string `json:"color"         binding:"omitempty,max=50"`
	FrameType   *string `json:"frame_type"    binding:"omitempty,max=50"`
	Brand       *string `json:"brand"         binding:"omitempty,max=100"`
	FrameSizeID *string `json:"frame_size_id" binding:"omitempty,uuid"`
	Status      *string `json:"status"        binding:"omitempty,frame_status"`
}

// FrameListRequest frame list filters
type FrameListRequest struct {
	PaginationRequest
	Status      string `form:"status"        binding:"omitempty,frame_status"`
	FrameSizeID string `form:"frame_size_id" binding:"omitempty,uuid"`
	Search      string `form:"search"        binding:"omitempty,max=20"`
}

// FrameResponse frame
type FrameResponse struct {
	ID          string `json:"id"`
	Numbering   string `json:"numbering"`
	Color       string `json:"color,omitempty"`
	FrameType   string `json:"frame_type,omitempty"`
	Brand       string `json:"brand,omitempty"`
	FrameSizeID string `json:"frame_size_id,omitempty"`
	SizeName    string `json:"size_name,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ── sizes ──

// CreateFrameSizeRequest new size reference
type CreateFrameSizeRequest struct {
	Name        string `json:"name"        binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"omitempty,max=200"`
}

// UpdateFrameSizeRequest partial size update
type UpdateFrameSizeRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=1,max=50"`
	Description *string `json:"description" binding:"omitempty,max=200"`
}

// FrameSizeResponse size reference
type FrameSizeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ── assignment ──

// AssignFrameRequest binds one frame to one student
type AssignFrameRequest struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Notes     string `json:"notes"      binding:"omitempty,max=2000"`
}

// ReleaseFrameRequest returns a frame to the pool
type ReleaseFrameRequest struct {
	Notes string `json:"notes" binding:"omitempty,max=2000"`
}

// AssignmentResponse one committed assignment
type AssignmentResponse struct {
	FrameID    string `json:"frame_id"`
	Numbering  string `json:"numbering"`
	StudentID  string `json:"student_id"`
	HistoryID  string `json:"history_id"`
	AssignedAt string `json:"assigned_at"`
}

// FrameReleaseResponse one committed release
type FrameReleaseResponse struct {
	FrameID    string `json:"frame_id"`
	Numbering  string `json:"numbering"`
	StudentID  string `json:"student_id,omitempty"`
	ReleasedAt string `json:"released_at"`
}

// ValidateNumberingsRequest numbering codes to resolve
type ValidateNumberingsRequest struct {
	Numberings []string `json:"numberings" binding:"required,min=1,max=500"`
}

// NumberingValidationResponse outcome for one code: a frame when valid, a reason otherwise
type NumberingValidationResponse struct {
	Numbering string         `json:"numbering"`
	Valid     bool           `json:"valid"`
	Reason    string         `json:"reason,omitempty"`
	Frame     *FrameResponse `json:"frame,omitempty"`
}

// BatchAssignItem one student of a batch and the numbering chosen for them
type BatchAssignItem struct {
	StudentID string `json:"student_id" binding:"required,uuid"`
	Numbering string `json:"numbering"`
}

// BatchAssignRequest assigns one frame to each listed student
type BatchAssignRequest struct {
	Items []BatchAssignItem `json:"items" binding:"required,min=1,max=500,dive"`
	Notes string            `json:"notes" binding:"omitempty,max=2000"`
}

// BatchAssignResponse assignments committed by a batch
type BatchAssignResponse struct {
	Assigned []AssignmentResponse `json:"assigned"`
	Atomic   bool                 `json:"atomic"`
}

// AutoAssignRequest batch items whose empty numberings should be proposed
type AutoAssignRequest struct {
	Items []BatchAssignItem `json:"items" binding:"required,min=1,max=500,dive"`
}

// AutoAssignResponse proposed pairing; Unmatched lists students left without a frame
type AutoAssignResponse struct {
	Items     []BatchAssignItem `json:"items"`
	Unmatched []string          `json:"unmatched,omitempty"`
}

// FrameHistoryResponse one frame history row
type FrameHistoryResponse struct {
	ID        string `json:"id"`
	FrameID   string `json:"frame_id"`
	Numbering string `json:"numbering,omitempty"`
	StudentID string `json:"student_id,omitempty"`
	Status    string `json:"status"`
	Notes     string `json:"notes,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ── import ──

// FrameImportRowError problem found on one spreadsheet row (1-based, header is row 1)
type FrameImportRowError struct {
	Row       int    `json:"row"`
	Numbering string `json:"numbering,omitempty"`
	Reason    string `json:"reason"`
}

// FrameImportResponse import outcome; nothing is written when Errors is non-empty
type FrameImportResponse struct {
	Created      int                   `json:"created"`
	SizesCreated []string              `json:"sizes_created,omitempty"`
	Errors       []FrameImportRowError `json:"errors,omitempty"`
}
