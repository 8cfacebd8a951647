package models

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// ReportStatus is the lifecycle state of a whistleblower report. The backend
// is the sole authority on which transitions are legal; clients only carry
// the enumeration.
type ReportStatus string

const (
	StatusNew        ReportStatus = "NEW"
	StatusReceived   ReportStatus = "RECEIVED"
	StatusInProgress ReportStatus = "IN_PROGRESS"
	StatusClosed     ReportStatus = "CLOSED"
	StatusCanceled   ReportStatus = "CANCELED"
)

// AllStatuses lists every report status in lifecycle order.
var AllStatuses = []ReportStatus{
	StatusNew, StatusReceived, StatusInProgress, StatusClosed, StatusCanceled,
}

// ParseReportStatus matches a status string ignoring case.
func ParseReportStatus(s string) (ReportStatus, error) {
	for _, st := range AllStatuses {
		if strings.EqualFold(s, string(st)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown report status %q", s)
}

// Report represents a whistleblower report. It is created once by an
// anonymous submission and afterwards only its status is mutated, by
// compliance staff. Timestamps are seconds since epoch.
type Report struct {
	// ReportID is the public identifier (UUID) shown to compliance staff.
	ReportID string `gorm:"primaryKey" json:"reportId"`
	// SecretKey is the reporter's only credential for this report. It is
	// stripped from staff-facing responses.
	SecretKey string `gorm:"uniqueIndex" json:"secretKey,omitempty"`
	// TenantID links the report to the owning organization.
	TenantID string `gorm:"index" json:"tenantId"`

	Subject string `gorm:"type:text;not null" json:"subject"`
	// Message is the initial report body; it heads the conversation thread.
	Message     string         `gorm:"type:text;not null" json:"message"`
	Attachments pq.StringArray `gorm:"type:text[]" json:"attachments"`

	Status ReportStatus `gorm:"type:text;not null" json:"status"`
	// ReadOrUnRead tracks whether staff have opened the report.
	ReadOrUnRead bool `json:"readOrUnRead"`

	CreatedAt  int64 `json:"createdAt"`
	ReceivedAt int64 `json:"receivedAt,omitempty"`
	// DeadlineAt is the legal response deadline, createdAt + 7 days.
	DeadlineAt int64 `json:"deadlineAt,omitempty"`
	UpdatedAt  int64 `json:"updatedAt,omitempty"`
}

// Conversation pairs a report with its follow-up messages as returned by the
// conversation endpoints. Messages arrive in creation-time ascending order.
type Conversation struct {
	Report   Report                `json:"report"`
	Messages []ConversationMessage `json:"messages"`
}
