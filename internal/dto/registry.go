package dto

// ── company ──

// CreateCompanyRequest new company
type CreateCompanyRequest struct {
	LegalName string `json:"legal_name" binding:"required,min=2,max=200"`
	TradeName string `json:"trade_name" binding:"omitempty,max=200"`
	TaxID     string `json:"tax_id"     binding:"required,cnpj"`
	Status    string `json:"status"     binding:"omitempty,record_status"`
}

// UpdateCompanyRequest partial company update
type UpdateCompanyRequest struct {
	LegalName *string `json:"legal_name" binding:"omitempty,min=2,max=200"`
	TradeName *string `json:"trade_name" binding:"omitempty,max=200"`
	TaxID     *string `json:"tax_id"     binding:"omitempty,cnpj"`
	Status    *string `json:"status"     binding:"omitempty,record_status"`
}

// CompanyListRequest company list filters
type CompanyListRequest struct {
	PaginationRequest
	Status string `form:"status"  binding:"omitempty,record_status"`
	Search string `form:"search"  binding:"omitempty,max=100"`
}

// CompanyResponse company
type CompanyResponse struct {
	ID        string `json:"id"`
	LegalName string `json:"legal_name"`
	TradeName string `json:"trade_name,omitempty"`
	TaxID     string `json:"tax_id"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ── project ──

// CreateProjectRequest new project
type CreateProjectRequest struct {
	CompanyID       string   `json:"company_id"       binding:"required,uuid"`
	Name            string   `json:"name"             binding:"required,min=2,max=200"`
	Description     string   `json:"description"      binding:"omitempty,max=2000"`
	Cycle           string   `json:"cycle"            binding:"omitempty,max=20"`
	Status          string   `json:"status"           binding:"omitempty,record_status"`
	MunicipalityIDs []string `json:"municipality_ids" binding:"omitempty,dive,uuid"`
}

// UpdateProjectRequest partial project update
type UpdateProjectRequest struct {
	Name        *string `json:"name"        binding:"omitempty,min=2,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	Cycle       *string `json:"cycle"       binding:"omitempty,max=20"`
	Status      *string `json:"status"      binding:"omitempty,record_status"`
}

// SetProjectMunicipalitiesRequest replaces the municipality links of a project
type SetProjectMunicipalitiesRequest struct {
	MunicipalityIDs []string `json:"municipality_ids" binding:"dive,uuid"`
}

// ProjectListRequest project list filters
type ProjectListRequest struct {
	PaginationRequest
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
	Status    string `form:"status"     binding:"omitempty,record_status"`
}

// ProjectResponse project
type ProjectResponse struct {
	ID             string                 `json:"id"`
	CompanyID      string                 `json:"company_id"`
	CompanyName    string                 `json:"company_name,omitempty"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Cycle          string                 `json:"cycle,omitempty"`
	Status         string                 `json:"status"`
	Municipalities []MunicipalityResponse `json:"municipalities,omitempty"`
	CreatedAt      string                 `json:"created_at"`
	UpdatedAt      string                 `json:"updated_at"`
}

// ── municipality ──

// CreateMunicipalityRequest new municipality
type CreateMunicipalityRequest struct {
	Name      string `json:"name"       binding:"required,min=2,max=150"`
	StateCode string `json:"state_code" binding:"required,uf"`
}

// UpdateMunicipalityRequest partial municipality update
type UpdateMunicipalityRequest struct {
	Name      *string `json:"name"       binding:"omitempty,min=2,max=150"`
	StateCode *string `json:"state_code" binding:"omitempty,uf"`
}

// MunicipalityListRequest municipality list filters
type MunicipalityListRequest struct {
	ProjectID string `form:"project_id" binding:"omitempty,uuid"`
	StateCode string `form:"state_code" binding:"omitempty,uf"`
}

// MunicipalityResponse municipality
type MunicipalityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	StateCode string `json:"state_code"`
}

// ── school ──

// CreateSchoolRequest new school
type CreateSchoolRequest struct {
	Name           string   `json:"name"            binding:"required,min=2,max=200"`
	MunicipalityID string   `json:"municipality_id" binding:"required,uuid"`
	CompanyID      string   `json:"company_id"      binding:"required,uuid"`
	ProjectIDs     []string `json:"project_ids"     binding:"omitempty,dive,uuid"`
}

// UpdateSchoolRequest partial school update; ProjectIDs replaces the links when set
type UpdateSchoolRequest struct {
	Name           *string   `json:"name"            binding:"omitempty,min=2,max=200"`
	MunicipalityID *string   `json:"municipality_id" binding:"omitempty,uuid"`
	ProjectIDs     *[]string `json:"project_ids"     binding:"omitempty,dive,uuid"`
}

// SchoolListRequest school list filters
type SchoolListRequest struct {
	PaginationRequest
	MunicipalityID string `form:"municipality_id" binding:"omitempty,uuid"`
	CompanyID      string `form:"company_id"      binding:"omitempty,uuid"`
	ProjectID      string `form:"project_id"      binding:"omitempty,uuid"`
	Search         string `form:"search"          binding:"omitempty,max=100"`
}

// SchoolResponse school
type SchoolResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	MunicipalityID   string   `json:"municipality_id"`
	MunicipalityName string   `json:"municipality_name,omitempty"`
	CompanyID        string   `json:"company_id"`
	ProjectIDs       []string `json:"project_ids"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

// ── class ──

// CreateClassRequest new class
type CreateClassRequest struct {
	SchoolID   string `json:"school_id"   binding:"required,uuid"`
	Name       string `json:"name"        binding:"required,min=1,max=100"`
	Grade      string `json:"grade"       binding:"omitempty,max=50"`
	Shift      string `json:"shift"       binding:"required,shift"`
	SchoolYear int    `json:"school_year" binding:"required,min=2000,max=2100"`
	Status     string `json:"status"      binding:"omitempty,oneof=active inactive"`
}

// UpdateClassRequest partial class update
type UpdateClassRequest struct {
	Name       *string `json:"name"        binding:"omitempty,min=1,max=100"`
	Grade      *string `json:"grade"       binding:"omitempty,max=50"`
	Shift      *string `json:"shift"       binding:"omitempty,shift"`
	SchoolYear *int    `json:"school_year" binding:"omitempty,min=2000,max=2100"`
	Status     *string `json:"status"      binding:"omitempty,oneof=active inactive"`
}

// ClassListRequest class list filters
type ClassListRequest struct {
	SchoolID   string `form:"school_id"   binding:"omitempty,uuid"`
	SchoolYear int    `form:"school_year" binding:"omitempty,min=2000,max=2100"`
	Status     string `form:"status"      binding:"omitempty,oneof=active inactive"`
}

// ClassResponse class
type ClassResponse struct {
	ID         string `json:"id"`
	SchoolID   string `json:"school_id"`
	Name       string `json:"name"`
	Grade      string `json:"grade,omitempty"`
	Shift      string `json:"shift"`
	SchoolYear int    `json:"school_year"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}
