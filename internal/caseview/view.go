// Package caseview is the per-role view-model of one case thread. It owns
// the poll loop, the live connection and the reconciler, and exposes the
// rendered thread plus the reply and status operations.
package caseview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/ankit76350/whistleblower/internal/api"
	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/models"
	"github.com/ankit76350/whistleblower/internal/session"
	"github.com/ankit76350/whistleblower/internal/thread"
)

// State is the coarse presentation state of the view.
type State int

const (
	StateLoading State = iota
	StateReady
	// StateSessionExpired means the durable fetch failed. It is shown
	// instead of an empty thread so a transient failure never implies the
	// report has no history.
	StateSessionExpired
)

// ErrReplyPending reports that a reply submission is already in flight; the
// submit control stays disabled until it resolves.
var ErrReplyPending = errors.New("a reply is already pending")

// Transport is the slice of the API client the view needs. *api.Client
// satisfies it.
type Transport interface {
	FetchThreadBySecret(ctx context.Context, secretKey string) (*models.Conversation, error)
	FetchThreadAsStaff(ctx context.Context, tenantID, reportID string) (*models.Conversation, error)
	PostReply(ctx context.Context, reportID string, sender models.MessageSender, body string, uploads []api.Upload) (*models.ConversationMessage, error)
	SetStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error)
}

// LiveChannel is the live connection surface. *livefeed.Conn satisfies it.
type LiveChannel interface {
	Events() <-chan models.LiveEvent
	IsLive() bool
	Send(body string)
	Close()
}

// LiveDialer opens a live channel for a report thread.
type LiveDialer func(ctx context.Context, endpoint, reportID string, role models.MessageSender) (LiveChannel, error)

// Params configures a case view.
type Params struct {
	Transport  Transport
	Dial       LiveDialer
	WSEndpoint string

	// Role is the local role the view is opened with.
	Role models.MessageSender

	// SecretKey grants reporter access. TenantID+ReportID grant staff
	// access instead.
	SecretKey string
	TenantID  string
	ReportID  string

	PollInterval time.Duration
}

// View is a live case thread for one report.
type View struct {
	transport  Transport
	dial       LiveDialer
	wsEndpoint string
	role       models.MessageSender
	secretKey  string
	tenantID   string

	rec *thread.Reconciler

	mu           sync.Mutex
	reportID     string
	report       *models.Report
	state        State
	replyPending bool
	live         LiveChannel
	dialed       bool

	cancel context.CancelFunc
	done   chan struct{}
}

// ResolveReporterKey applies the routing precondition for reporter views: a
// key handed off via navigation wins, otherwise the session store is
// consulted. session.ErrNoSecretKey means redirect to key entry; no request
// may be issued.
func ResolveReporterKey(navKey string, store *session.Store) (string, error) {
	if navKey != "" {
		return navKey, nil
	}
	return store.SecretKey()
}

// Open builds the view, performs the initial fetch, connects the live
// channel and starts the poll loop. A reporter view without a secret key is
// rejected with session.ErrNoSecretKey before any network activity.
func Open(ctx context.Context, p Params) (*View, error) {
	if p.Role == models.SenderReporter && p.SecretKey == "" {
		return nil, session.ErrNoSecretKey
	}
	if p.PollInterval <= 0 {
		p.PollInterval = config.PollInterval
	}

	v := &View{
		transport:  p.Transport,
		dial:       p.Dial,
		wsEndpoint: p.WSEndpoint,
		role:       p.Role,
		secretKey:  p.SecretKey,
		tenantID:   p.TenantID,
		reportID:   p.ReportID,
		rec:        thread.NewReconciler(p.Role),
		state:      StateLoading,
		done:       make(chan struct{}),
	}

	v.fetchOnce(ctx)

	loopCtx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel
	go v.pollLoop(loopCtx, p.PollInterval)
	return v, nil
}

// fetchOnce refreshes the durable thread. The durable list is replaced
// wholesale, so racing ticks resolve to whichever response lands last.
func (v *View) fetchOnce(ctx context.Context) {
	var (
		conv *models.Conversation
		err  error
	)
	if v.role == models.SenderReporter {
		conv, err = v.transport.FetchThreadBySecret(ctx, v.secretKey)
	} else {
		conv, err = v.transport.FetchThreadAsStaff(ctx, v.tenantID, v.currentReportID())
	}
	if err != nil {
		log.Warnf("thread fetch failed: %v", err)
		v.setState(StateSessionExpired)
		return
	}

	v.rec.SetDurable(conv.Report, conv.Messages)

	v.mu.Lock()
	v.report = &conv.Report
	v.reportID = conv.Report.ReportID
	v.state = StateReady
	v.mu.Unlock()

	v.connectLive(ctx)
}

// connectLive dials the gateway once the report identity is known. A dial
// failure leaves the view in Offline mode; polling keeps the thread usable.
func (v *View) connectLive(ctx context.Context) {
	v.mu.Lock()
	if v.dialed || v.dial == nil || v.reportID == "" {
		v.mu.Unlock()
		return
	}
	v.dialed = true
	reportID := v.reportID
	v.mu.Unlock()

	ch, err := v.dial(ctx, v.wsEndpoint, reportID, v.role)
	if err != nil {
		log.WithField("reportId", reportID).Warnf("live channel unavailable: %v", err)
		return
	}

	v.mu.Lock()
	v.live = ch
	v.mu.Unlock()

	go func() {
		for ev := range ch.Events() {
			v.rec.AppendLive(ev)
		}
	}()
}

func (v *View) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(v.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Fire and forget; a slow response may race the next
			// tick, which is fine under wholesale replacement.
			go v.fetchOnce(ctx)
		}
	}
}

// SendReply persists a reply and, when the body text is non-empty, announces
// it over the live channel so the remote party sees it before their next
// poll tick. There is no ordering guarantee between the two.
func (v *View) SendReply(ctx context.Context, body string, uploads []api.Upload) (*models.ConversationMessage, error) {
	v.mu.Lock()
	if v.replyPending {
		v.mu.Unlock()
		return nil, ErrReplyPending
	}
	v.replyPending = true
	reportID := v.reportID
	live := v.live
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.replyPending = false
		v.mu.Unlock()
	}()

	msg, err := v.transport.PostReply(ctx, reportID, v.role, body, uploads)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(body) != "" && live != nil {
		live.Send(body)
	}

	go v.fetchOnce(ctx)
	return msg, nil
}

// SetStatus requests a status change (staff views only) and refreshes the
// thread on success.
func (v *View) SetStatus(ctx context.Context, status models.ReportStatus) (*models.Report, error) {
	report, err := v.transport.SetStatus(ctx, v.currentReportID(), status)
	if err != nil {
		return nil, err
	}
	go v.fetchOnce(ctx)
	return report, nil
}

// Entries renders the reconciled thread.
func (v *View) Entries() []thread.Entry { return v.rec.Render() }

// Report returns the last fetched report, or nil before the first success.
func (v *View) Report() *models.Report {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.report
}

// State returns the presentation state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// IsLive reports whether the live channel is up; false renders as Offline.
func (v *View) IsLive() bool {
	v.mu.Lock()
	live := v.live
	v.mu.Unlock()
	return live != nil && live.IsLive()
}

// ReplyPending reports whether a reply submission is in flight.
func (v *View) ReplyPending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.replyPending
}

// Close stops the poll loop and closes the live channel. In-flight requests
// are not aborted; their results are discarded with the view.
func (v *View) Close() {
	v.cancel()
	<-v.done

	v.mu.Lock()
	live := v.live
	v.live = nil
	v.mu.Unlock()
	if live != nil {
		live.Close()
	}
}

func (v *View) currentReportID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reportID
}

func (v *View) setState(s State) {
	v.mu.Lock()
	v.state = s
	v.mu.Unlock()
}
