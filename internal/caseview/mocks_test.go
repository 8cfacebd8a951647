package caseview_test

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/ankit76350/whistleblower/internal/api"
	"github.com/ankit76350/whistleblower/internal/caseview"
	"github.com/ankit76350/whistleblower/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) FetchThreadBySecret(ctx context.Context, secretKey string) (*models.Conversation, error) {
	args := m.Called(ctx, secretKey)
	conv, _ := args.Get(0).(*models.Conversation)
	return conv, args.Error(1)
}

func (m *MockTransport) FetchThreadAsStaff(ctx context.Context, tenantID, reportID string) (*models.Conversation, error) {
	args := m.Called(ctx, tenantID, reportID)
	conv, _ := args.Get(0).(*models.Conversation)
	return conv, args.Error(1)
}

func (m *MockTransport) PostReply(ctx context.Context, reportID string, sender models.MessageSender, body string, uploads []api.Upload) (*models.ConversationMessage, error) {
	args := m.Called(ctx, reportID, sender, body, uploads)
	msg, _ := args.Get(0).(*models.ConversationMessage)
	return msg, args.Error(1)
}

func (m *MockTransport) SetStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error) {
	args := m.Called(ctx, reportID, status)
	report, _ := args.Get(0).(*models.Report)
	return report, args.Error(1)
}

// fakeLive is a scripted LiveChannel; events are pushed into Feed by tests.
type fakeLive struct {
	Feed chan models.LiveEvent

	mu     sync.Mutex
	sends  []string
	closed bool
}

func newFakeLive() *fakeLive {
	return &fakeLive{Feed: make(chan models.LiveEvent, 16)}
}

func (f *fakeLive) Events() <-chan models.LiveEvent { return f.Feed }

func (f *fakeLive) IsLive() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.closed
}

func (f *fakeLive) Send(body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, body)
}

func (f *fakeLive) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.Feed)
	}
}

func (f *fakeLive) Sends() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func dialerFor(ch caseview.LiveChannel, err error) caseview.LiveDialer {
	return func(ctx context.Context, endpoint, reportID string, role models.MessageSender) (caseview.LiveChannel, error) {
		if err != nil {
			return nil, err
		}
		return ch, nil
	}
}
