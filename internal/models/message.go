package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MessageSender identifies which side of a case thread authored a message.
type MessageSender string

const (
	SenderReporter       MessageSender = "REPORTER"
	SenderComplianceTeam MessageSender = "COMPLIANCE_TEAM"
	// SenderUnknown marks a live event whose frame could not be decoded.
	SenderUnknown MessageSender = "UNKNOWN"
)

// Opposite returns the other party's role. Used when attributing live events
// that carry no role tag of their own.
func (s MessageSender) Opposite() MessageSender {
	if s == SenderReporter {
		return SenderComplianceTeam
	}
	return SenderReporter
}

// ConversationMessage is one append-only entry in a report's thread.
// Ordering is by CreatedAt (epoch seconds), ties broken by arrival order.
type ConversationMessage struct {
	ID       string `gorm:"primaryKey" json:"id"`
	ReportID string `gorm:"index;not null" json:"reportId"`

	Sender      MessageSender  `gorm:"type:text;not null" json:"sender"`
	Message     string         `gorm:"type:text;not null" json:"message"`
	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments"`

	ReadOrUnRead bool  `json:"readOrUnRead"`
	CreatedAt    int64 `json:"createdAt"`
}

// BeforeCreate assigns a UUID when the message has no ID yet.
func (m *ConversationMessage) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}
