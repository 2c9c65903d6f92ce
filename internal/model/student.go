package model

import (
	"time"

	"gorm.io/datatypes"
)

// Phase pipeline stage a student occupies
type Phase string

// Pipeline order: screening → consultation → production → delivered
const (
	PhaseScreening    Phase = "screening"
	PhaseConsultation Phase = "consultation"
	PhaseProduction   Phase = "production"
	PhaseDelivered    Phase = "delivered"
)

// Phases in pipeline order
var Phases = []Phase{PhaseScreening, PhaseConsultation, PhaseProduction, PhaseDelivered}

// Valid reports whether p is one of the four phases
func (p Phase) Valid() bool {
	switch p {
	case PhaseScreening, PhaseConsultation, PhaseProduction, PhaseDelivered:
		return true
	}
	return false
}

// Rank position in the pipeline, -1 when invalid
func (p Phase) Rank() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// InFrameWindow frames are assigned while a student is in consultation or production
func (p Phase) InFrameWindow() bool {
	return p == PhaseConsultation || p == PhaseProduction
}

// LeavesFrameWindowBackwards reports whether moving from → to regresses a
// student out of the consultation/production window, the case where a held
// frame should go back to the pool.
func LeavesFrameWindowBackwards(from, to Phase) bool {
	return from.InFrameWindow() && !to.InFrameWindow() && to.Rank() < from.Rank()
}

// PhaseStatus progress inside the current phase
type PhaseStatus string

const (
	PhaseStatusPending     PhaseStatus = "pending"
	PhaseStatusInProgress  PhaseStatus = "in_progress"
	PhaseStatusCompleted   PhaseStatus = "completed"
	PhaseStatusInterrupted PhaseStatus = "interrupted"

	// PhaseStatusDeactivated only appears in history rows
	PhaseStatusDeactivated PhaseStatus = "deactivated"
	// PhaseStatusReactivated only appears in history rows
	PhaseStatusReactivated PhaseStatus = "reactivated"
)

// Valid reports whether s may be stored on a student
func (s PhaseStatus) Valid() bool {
	switch s {
	case PhaseStatusPending, PhaseStatusInProgress, PhaseStatusCompleted, PhaseStatusInterrupted:
		return true
	}
	return false
}

// Student sex
const (
	SexMale   = "M"
	SexFemale = "F"
)

// Student students table
type Student struct {
	StudentID          string          `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	ClassID            string          `gorm:"type:uuid;not null;index"                       json:"class_id"`
	SchoolID           string          `gorm:"type:uuid;not null;index"                       json:"school_id"`
	MunicipalityID     string          `gorm:"type:uuid;not null"                             json:"municipality_id"`
	ProjectID          string          `gorm:"type:uuid;not null"                             json:"project_id"`
	CompanyID          string          `gorm:"type:uuid;not null"                             json:"company_id"`
	FullName           string          `gorm:"type:varchar(200);not null"                     json:"full_name"`
	Sex                string          `gorm:"type:char(1);not null"                          json:"sex"`
	BirthDate          *datatypes.Date `gorm:"type:date"                                     json:"birth_date,omitempty"`
	GuardianName       string          `gorm:"type:varchar(200);not null;default:''"          json:"guardian_name"`
	Phase              Phase           `gorm:"type:varchar(20);not null;default:'screening'"  json:"phase"`
	PhaseStatus        PhaseStatus     `gorm:"type:varchar(20);not null;default:'pending'"    json:"phase_status"`
	InterruptionReason string          `gorm:"type:text;not null;default:''"                  json:"interruption_reason,omitempty"`
	IsActive           bool            `gorm:"not null;default:true"                          json:"is_active"`
	DeactivatedAt      *time.Time      `json:"deactivated_at,omitempty"`
	DeactivatedBy      *string         `gorm:"type:uuid"                                      json:"deactivated_by,omitempty"`
	DeactivationReason string          `gorm:"type:text;not null;default:''"                  json:"deactivation_reason,omitempty"`
	BaseModel

	Class        *Class        `gorm:"foreignKey:ClassID;references:ClassID"               json:"class,omitempty"`
	School       *School       `gorm:"foreignKey:SchoolID;references:SchoolID"             json:"school,omitempty"`
	Municipality *Municipality `gorm:"foreignKey:MunicipalityID;references:MunicipalityID" json:"municipality,omitempty"`
	Company      *Company      `gorm:"foreignKey:CompanyID;references:CompanyID"           json:"company,omitempty"`
}

// TableName table name
func (Student) TableName() string { return "students" }

// AgeAt full years of age at t; ok is false without a birth date
func (s *Student) AgeAt(t time.Time) (int, bool) {
	if s.BirthDate == nil {
		return 0, false
	}
	b := time.Time(*s.BirthDate)
	age := t.Year() - b.Year()
	if t.Month() < b.Month() || (t.Month() == b.Month() && t.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

// PhaseHistory append-only audit of phase changes (phase_histories)
type PhaseHistory struct {
	PhaseHistoryID     string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"phase_history_id"`
	StudentID          string         `gorm:"type:uuid;not null;index"                       json:"student_id"`
	Phase              Phase          `gorm:"type:varchar(20);not null"                      json:"phase"`
	Status             PhaseStatus    `gorm:"type:varchar(20);not null"                      json:"status"`
	Notes              string         `gorm:"type:text;not null;default:''"                  json:"notes,omitempty"`
	InterruptionReason string         `gorm:"type:text;not null;default:''"                  json:"interruption_reason,omitempty"`
	ActorID            *string        `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	Metadata           datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata,omitempty"`
	CreatedAt          time.Time      `gorm:"not null"                                       json:"created_at"`
}

// TableName table name
func (PhaseHistory) TableName() string { return "phase_histories" }
