package models_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ankit76350/whistleblower/internal/models"
)

func TestParseReportStatus(t *testing.T) {
	tests := []struct {
		in      string
		want    models.ReportStatus
		wantErr bool
	}{
		{in: "NEW", want: models.StatusNew},
		{in: "in_progress", want: models.StatusInProgress},
		{in: "Closed", want: models.StatusClosed},
		{in: "canceled", want: models.StatusCanceled},
		{in: "received", want: models.StatusReceived},
		{in: "REOPENED", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := models.ParseReportStatus(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSenderOpposite(t *testing.T) {
	assert.Equal(t, models.SenderComplianceTeam, models.SenderReporter.Opposite())
	assert.Equal(t, models.SenderReporter, models.SenderComplianceTeam.Opposite())
}

func TestAttachmentRefName(t *testing.T) {
	key := models.NewAttachmentKey("evidence.pdf")

	prefix, name, found := func() (string, string, bool) {
		s := string(key)
		for i := range s {
			if s[i] == '_' {
				return s[:i], s[i+1:], true
			}
		}
		return "", "", false
	}()

	assert.True(t, found, "key must contain a separator")
	assert.Equal(t, "evidence.pdf", name)
	_, err := uuid.Parse(prefix)
	assert.NoError(t, err, "key prefix must be a UUID")

	assert.Equal(t, "evidence.pdf", key.Name())
}

func TestAttachmentRefNameKeepsUnderscores(t *testing.T) {
	// Only the first separator splits; filenames with underscores survive.
	key := models.AttachmentRef("123e4567-e89b-12d3-a456-426614174000_my_notes_v2.txt")
	assert.Equal(t, "my_notes_v2.txt", key.Name())
}

func TestAttachmentRefNameWithoutPrefix(t *testing.T) {
	assert.Equal(t, "plain.txt", models.AttachmentRef("plain.txt").Name())
}

func TestMessageBeforeCreateGeneratesUUID(t *testing.T) {
	msg := &models.ConversationMessage{ReportID: "r1", Sender: models.SenderReporter, Message: "hi"}
	assert.NoError(t, msg.BeforeCreate(nil))
	assert.NotEmpty(t, msg.ID)
	_, err := uuid.Parse(msg.ID)
	assert.NoError(t, err)
}

func TestTenantBeforeCreatePreservesExistingID(t *testing.T) {
	existing := uuid.New().String()
	tenant := &models.Tenant{TenantID: existing, Email: "legal@example.com"}
	assert.NoError(t, tenant.BeforeCreate(nil))
	assert.Equal(t, existing, tenant.TenantID)
}
