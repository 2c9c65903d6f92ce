package model

// Company sponsor of projects (companies)
type Company struct {
	CompanyID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"company_id"`
	LegalName string `gorm:"type:varchar(200);not null"                     json:"legal_name"`
	TradeName string `gorm:"type:varchar(200);not null;default:''"          json:"trade_name"`
	TaxID     string `gorm:"type:varchar(14);not null;uniqueIndex"          json:"tax_id"`
	Status    string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel
}

// TableName table name
func (Company) TableName() string { return "companies" }

// Project outreach cycle sponsored by a company (projects)
type Project struct {
	ProjectID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"project_id"`
	CompanyID   string `gorm:"type:uuid;not null;index"                       json:"company_id"`
	Name        string `gorm:"type:varchar(200);not null"                     json:"name"`
	Description string `gorm:"type:text;not null;default:''"                  json:"description"`
	Cycle       string `gorm:"type:varchar(20);not null;default:''"           json:"cycle"`
	Status      string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel

	Company        *Company       `gorm:"foreignKey:CompanyID;references:CompanyID" json:"company,omitempty"`
	Municipalities []Municipality `gorm:"many2many:project_municipalities;foreignKey:ProjectID;joinForeignKey:ProjectID;references:MunicipalityID;joinReferences:MunicipalityID" json:"municipalities,omitempty"`
}

// TableName table name
func (Project) TableName() string { return "projects" }

// Municipality municipalities table
type Municipality struct {
	MunicipalityID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"municipality_id"`
	Name           string `gorm:"type:varchar(150);not null"                     json:"name"`
	StateCode      string `gorm:"type:char(2);not null"                          json:"state_code"`
	BaseModel
}

// TableName table name
func (Municipality) TableName() string { return "municipalities" }

// School schools table
type School struct {
	SchoolID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"school_id"`
	Name           string `gorm:"type:varchar(200);not null"                     json:"name"`
	MunicipalityID string `gorm:"type:uuid;not null;index"                       json:"municipality_id"`
	CompanyID      string `gorm:"type:uuid;not null;index"                       json:"company_id"`
	BaseModel

	Municipality *Municipality `gorm:"foreignKey:MunicipalityID;references:MunicipalityID" json:"municipality,omitempty"`
	Projects     []Project     `gorm:"many2many:project_schools;foreignKey:SchoolID;joinForeignKey:SchoolID;references:ProjectID;joinReferences:ProjectID" json:"projects,omitempty"`
}

// TableName table name
func (School) TableName() string { return "schools" }

// Class shifts
const (
	ShiftMorning   = "morning"
	ShiftAfternoon = "afternoon"
	ShiftFull      = "full"
	ShiftNight     = "night"
)

// ValidShift reports whether s is a class shift
func ValidShift(s string) bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftFull, ShiftNight:
		return true
	}
	return false
}

// Class a school class ("turma"), classes table
type Class struct {
	ClassID    string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"class_id"`
	SchoolID   string `gorm:"type:uuid;not null;index"                       json:"school_id"`
	Name       string `gorm:"type:varchar(100);not null"                     json:"name"`
	Grade      string `gorm:"type:varchar(50);not null;default:''"           json:"grade"`
	Shift      string `gorm:"type:varchar(20);not null"                      json:"shift"`
	SchoolYear int    `gorm:"not null"                                       json:"school_year"`
	Status     string `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	BaseModel

	School *School `gorm:"foreignKey:SchoolID;references:SchoolID" json:"school,omitempty"`
}

// TableName table name
func (Class) TableName() string { return "classes" }
