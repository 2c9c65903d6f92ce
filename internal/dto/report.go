package dto

// ReportFilterRequest optional filter set of every report
type ReportFilterRequest struct {
	From            string   `form:"from"             binding:"omitempty,datetime=2006-01-02"`
	To              string   `form:"to"               binding:"omitempty,datetime=2006-01-02"`
	Phases          []string `form:"phases"           binding:"omitempty,dive,phase"`
	SchoolID        string   `form:"school_id"        binding:"omitempty,uuid"`
	MunicipalityID  string   `form:"municipality_id"  binding:"omitempty,uuid"`
	CompanyID       string   `form:"company_id"       binding:"omitempty,uuid"`
	ProjectID       string   `form:"project_id"       binding:"omitempty,uuid"`
	Sex             string   `form:"sex"              binding:"omitempty,oneof=M F"`
	IncludeInactive bool     `form:"include_inactive"`
}

// PhaseCount students in one phase
type PhaseCount struct {
	Phase      string  `json:"phase"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// LabelCount count under a fixed label (sex, age bracket, status, size)
type LabelCount struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// EntityCount count per registry entity
type EntityCount struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DashboardResponse student rollups
type DashboardResponse struct {
	Total          int           `json:"total"`
	Inactive       int           `json:"inactive"`
	ByPhase        []PhaseCount  `json:"by_phase"`
	BySex          []LabelCount  `json:"by_sex"`
	ByAgeBracket   []LabelCount  `json:"by_age_bracket"`
	BySchool       []EntityCount `json:"by_school"`
	ByMunicipality []EntityCount `json:"by_municipality"`
	ByCompany      []EntityCount `json:"by_company"`
	CompletionRate float64       `json:"completion_rate"`
	AverageAge     float64       `json:"average_age"`
	WithBirthDate  int           `json:"with_birth_date"`
}

// InventorySummaryResponse frame rollups
type InventorySummaryResponse struct {
	Total    int          `json:"total"`
	ByStatus []LabelCount `json:"by_status"`
	BySize   []LabelCount `json:"by_size"`
}
