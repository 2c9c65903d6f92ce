package model

import "time"

// FrameStatus inventory status of a frame
type FrameStatus string

const (
	FrameAvailable FrameStatus = "available"
	FrameUsed      FrameStatus = "used"
	FrameLost      FrameStatus = "lost"
	FrameDamaged   FrameStatus = "damaged"
)

// Valid reports whether s is a frame status
func (s FrameStatus) Valid() bool {
	switch s {
	case FrameAvailable, FrameUsed, FrameLost, FrameDamaged:
		return true
	}
	return false
}

// FrameStatuses every status, in display order
var FrameStatuses = []FrameStatus{FrameAvailable, FrameUsed, FrameLost, FrameDamaged}

// FrameSize size reference for frames, frame_sizes table
type FrameSize struct {
	FrameSizeID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"frame_size_id"`
	Name        string `gorm:"type:varchar(50);not null;uniqueIndex"          json:"name"`
	Description string `gorm:"type:varchar(200);not null;default:''"          json:"description"`
	BaseModel
}

// TableName table name
func (FrameSize) TableName() string { return "frame_sizes" }

// Frame a physical eyewear frame, frames table
type Frame struct {
	FrameID     string      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"frame_id"`
	Numbering   string      `gorm:"type:varchar(20);not null;uniqueIndex"          json:"numbering"`
	Color       string      `gorm:"type:varchar(50);not null;default:''"           json:"color"`
	FrameType   string      `gorm:"type:varchar(50);not null;default:''"           json:"frame_type"`
	Brand       string      `gorm:"type:varchar(100);not null;default:''"          json:"brand"`
	FrameSizeID *string     `gorm:"type:uuid"                                      json:"frame_size_id,omitempty"`
	Status      FrameStatus `gorm:"type:varchar(20);not null;default:'available'"  json:"status"`
	BaseModel

	Size *FrameSize `gorm:"foreignKey:FrameSizeID;references:FrameSizeID" json:"size,omitempty"`
}

// TableName table name
func (Frame) TableName() string { return "frames" }

// FrameHistoryStatus kind of frame history entry
type FrameHistoryStatus string

const (
	FrameHistoryAssigned FrameHistoryStatus = "assigned"
	FrameHistoryReleased FrameHistoryStatus = "released"
)

// FrameHistory append-only assignment log, frame_histories table
type FrameHistory struct {
	FrameHistoryID string             `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"frame_history_id"`
	FrameID        string             `gorm:"type:uuid;not null;index"                       json:"frame_id"`
	StudentID      *string            `gorm:"type:uuid;index"                                json:"student_id,omitempty"`
	Status         FrameHistoryStatus `gorm:"type:varchar(20);not null"                      json:"status"`
	Notes          string             `gorm:"type:text;not null;default:''"                  json:"notes,omitempty"`
	ActorID        *string            `gorm:"type:uuid"                                      json:"actor_id,omitempty"`
	CreatedAt      time.Time          `gorm:"not null"                                       json:"created_at"`

	Frame *Frame `gorm:"foreignKey:FrameID;references:FrameID" json:"frame,omitempty"`
}

// TableName table name
func (FrameHistory) TableName() string { return "frame_histories" }
