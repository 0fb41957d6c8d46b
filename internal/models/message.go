package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MessageTypeMessage  = "message"
	MessageTypeTask     = "task"
	MessageTypeRequest  = "request"
	MessageTypeResponse = "response"

	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidMessageType reports membership in the closed type set.
func ValidMessageType(t string) bool {
	switch t {
	case MessageTypeMessage, MessageTypeTask, MessageTypeRequest, MessageTypeResponse:
		return true
	}
	return false
}

func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Message is a directed inbox entry owned by the recipient; the sender
// keeps no copy.
type Message struct {
	ID       string `gorm:"primaryKey;type:text" json:"id"`
	FromID   string `gorm:"column:from_id;type:text;not null" json:"from"`
	FromName string `gorm:"type:text" json:"from_name"`
	ToID     string `gorm:"column:to_id;type:text;not null;index" json:"to"`

	Type     string `gorm:"type:varchar(10);not null;index" json:"type"`
	Priority string `gorm:"type:varchar(10);not null" json:"priority"`
	Subject  string `gorm:"type:text" json:"subject"`
	Body     string `gorm:"type:text" json:"body"`

	Data datatypes.JSON `gorm:"type:jsonb" json:"data,omitempty"`

	Read      bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time `gorm:"type:timestamptz" json:"read_at,omitempty"`
	CreatedAt time.Time  `gorm:"type:timestamptz;not null;index" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
