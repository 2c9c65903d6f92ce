package model

import "time"

// BaseModel audit columns embedded by every registry model
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// Stamp sets the creating and updating actor
func (b *BaseModel) Stamp(actorID string) {
	if actorID == "" {
		return
	}
	if b.CreatedBy == nil {
		b.CreatedBy = &actorID
	}
	b.UpdatedBy = &actorID
}

// Record lifecycle status shared by companies and projects
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusFinished = "finished"
)

// ValidRecordStatus reports whether s is a company/project status
func ValidRecordStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusFinished:
		return true
	}
	return false
}
