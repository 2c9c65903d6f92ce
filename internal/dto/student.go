package dto

// ── student registry ──

// CreateStudentRequest new student; school, municipality and company come from the class
type CreateStudentRequest struct {
	ClassID      string `json:"class_id"      binding:"required,uuid"`
	ProjectID    string `json:"project_id"    binding:"required,uuid"`
	FullName     string `json:"full_name"     binding:"required,min=2,max=200"`
	Sex          string `json:"sex"           binding:"required,oneof=M F"`
	BirthDate    string `json:"birth_date"    binding:"omitempty,datetime=2006-01-02"`
	GuardianName string `json:"guardian_name" binding:"omitempty,max=200"`
}

// UpdateStudentRequest partial student update; phase changes go through ChangePhase
type UpdateStudentRequest struct {
	ClassID      *string `json:"class_id"      binding:"omitempty,uuid"`
	ProjectID    *string `json:"project_id"    binding:"omitempty,uuid"`
	FullName     *string `json:"full_name"     binding:"omitempty,min=2,max=200"`
	Sex          *string `json:"sex"           binding:"omitempty,oneof=M F"`
	BirthDate    *string `json:"birth_date"    binding:"omitempty,datetime=2006-01-02"`
	GuardianName *string `json:"guardian_name" binding:"omitempty,max=200"`
}

// StudentListRequest student list filters
type StudentListRequest struct {
	PaginationRequest
	ClassID        string `form:"class_id"        binding:"omitempty,uuid"`
	SchoolID       string `form:"school_id"       binding:"omitempty,uuid"`
	MunicipalityID string `form:"municipality_id" binding:"omitempty,uuid"`
	ProjectID      string `form:"project_id"      binding:"omitempty,uuid"`
	CompanyID      string `form:"company_id"      binding:"omitempty,uuid"`
	Phase          string `form:"phase"           binding:"omitempty,phase"`
	Active         *bool  `form:"active"`
	Search         string `form:"search"          binding:"omitempty,max=100"`
}

// StudentResponse student
type StudentResponse struct {
	ID                 string `json:"id"`
	ClassID            string `json:"class_id"`
	SchoolID           string `json:"school_id"`
	MunicipalityID     string `json:"municipality_id"`
	ProjectID          string `json:"project_id"`
	CompanyID          string `json:"company_id"`
	FullName           string `json:"full_name"`
	Sex                string `json:"sex"`
	BirthDate          string `json:"birth_date,omitempty"`
	GuardianName       string `json:"guardian_name,omitempty"`
	Phase              string `json:"phase"`
	PhaseStatus        string `json:"phase_status"`
	InterruptionReason string `json:"interruption_reason,omitempty"`
	IsActive           bool   `json:"is_active"`
	DeactivatedAt      string `json:"deactivated_at,omitempty"`
	DeactivatedBy      string `json:"deactivated_by,omitempty"`
	DeactivationReason string `json:"deactivation_reason,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
}

// ── phase machine ──

// ChangePhaseRequest sets a student's phase and status
type ChangePhaseRequest struct {
	Phase              string `json:"phase"               binding:"required,phase"`
	Status             string `json:"status"              binding:"omitempty,phase_status"`
	Notes              string `json:"notes"               binding:"omitempty,max=2000"`
	InterruptionReason string `json:"interruption_reason" binding:"omitempty,max=2000"`
	ReleaseFrame       bool   `json:"release_frame"`
}

// ChangePhaseResponse result of a phase change
type ChangePhaseResponse struct {
	Student               StudentResponse       `json:"student"`
	History               PhaseHistoryResponse  `json:"history"`
	FrameReleaseSuggested bool                  `json:"frame_release_suggested"`
	ReleasedFrame         *FrameReleaseResponse `json:"released_frame,omitempty"`
}

// BatchChangePhaseRequest applies one phase change to several students
type BatchChangePhaseRequest struct {
	StudentIDs []string `json:"student_ids" binding:"required,min=1,max=500,dive,uuid"`
	ChangePhaseRequest
}

// BatchChangePhaseResponse ids changed before completion or the first failure
type BatchChangePhaseResponse struct {
	Processed []string `json:"processed"`
	FailedID  string   `json:"failed_id,omitempty"`
}

// DeactivateStudentRequest deactivation ("desligamento")
type DeactivateStudentRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=2000"`
}

// PhaseHistoryResponse one history row
type PhaseHistoryResponse struct {
	ID                 string `json:"id"`
	StudentID          string `json:"student_id"`
	Phase              string `json:"phase"`
	Status             string `json:"status"`
	Notes              string `json:"notes,omitempty"`
	InterruptionReason string `json:"interruption_reason,omitempty"`
	ActorID            string `json:"actor_id,omitempty"`
	CreatedAt          string `json:"created_at"`
}
