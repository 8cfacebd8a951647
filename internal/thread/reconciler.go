// Package thread merges the message sources of a case view (the initial
// report body, the polled durable conversation, and transient live events)
// into one ordered, de-duplicated sequence for display.
package thread

import (
	"sync"
	"time"

	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/models"
)

// Entry is one rendered row of a case thread.
type Entry struct {
	// ID is the durable message identifier, empty for the initial report
	// body and for live entries.
	ID          string
	Sender      models.MessageSender
	Message     string
	Attachments []models.AttachmentRef
	CreatedAt   int64
	// Live marks a provisional entry that has no durable copy yet.
	Live bool
}

// TimeLabel renders the entry timestamp. Live events carry no real timestamp,
// so they are labeled "just now" instead.
func (e Entry) TimeLabel() string {
	if e.Live {
		return "just now"
	}
	return time.Unix(e.CreatedAt, 0).Format("02 Jan 2006 15:04")
}

// Reconciler holds the merge state for one case view. The durable list is
// replaced wholesale on every poll; live events accumulate in arrival order
// and are filtered only at render time.
type Reconciler struct {
	mu        sync.Mutex
	localRole models.MessageSender

	report  *models.Report
	durable []models.ConversationMessage
	live    []models.LiveEvent

	now func() time.Time
}

// NewReconciler creates a reconciler for a view opened with the given local
// role. The local role is only a fallback for attributing unlabeled remote
// events; it never overrides a role the event itself carries.
func NewReconciler(localRole models.MessageSender) *Reconciler {
	return &Reconciler{localRole: localRole, now: time.Now}
}

// SetDurable replaces the durable thread with the latest fetch result.
// Overlapping poll ticks resolve by last writer wins; nothing is merged
// field-by-field.
func (r *Reconciler) SetDurable(report models.Report, messages []models.ConversationMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.report = &report
	r.durable = messages
}

// AppendLive records a live event. The buffer is never pruned here; the
// de-duplication filter runs at render time.
func (r *Reconciler) AppendLive(ev models.LiveEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.live = append(r.live, ev)
}

// Render produces the display sequence: the initial report body, then durable
// messages in fetched (creation-time) order, then surviving live events in
// arrival order.
//
// A live event is suppressed when some durable message has exactly the same
// body text and a timestamp within the dedup window of now. Live events carry
// no durable identifier, so this is heuristic collision suppression: two
// independent messages with identical text inside the window would collapse
// incorrectly.
func (r *Reconciler) Render() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.report == nil {
		return nil
	}
	now := r.now().Unix()
	window := int64(config.DedupWindow / time.Second)

	entries := make([]Entry, 0, 1+len(r.durable)+len(r.live))
	entries = append(entries, Entry{
		Sender:      models.SenderReporter,
		Message:     r.report.Message,
		Attachments: refs(r.report.Attachments),
		CreatedAt:   r.report.CreatedAt,
	})
	for _, m := range r.durable {
		entries = append(entries, Entry{
			ID:          m.ID,
			Sender:      m.Sender,
			Message:     m.Message,
			Attachments: refs(m.Attachments),
			CreatedAt:   m.CreatedAt,
		})
	}

	for _, ev := range r.live {
		if r.hasDurableTwin(ev, now, window) {
			continue
		}
		entries = append(entries, Entry{
			Sender:    r.attribute(ev),
			Message:   ev.Message,
			CreatedAt: ev.CreatedAt,
			Live:      true,
		})
	}
	return entries
}

func (r *Reconciler) hasDurableTwin(ev models.LiveEvent, now, window int64) bool {
	recent := func(ts int64) bool {
		d := now - ts
		if d < 0 {
			d = -d
		}
		return d <= window
	}
	if r.report.Message == ev.Message && recent(r.report.CreatedAt) {
		return true
	}
	for _, m := range r.durable {
		if m.Message == ev.Message && recent(m.CreatedAt) {
			return true
		}
	}
	return false
}

// attribute resolves the sender of a live event: an explicit sender wins,
// then the role tag on the event, then the non-local role. Best effort only.
func (r *Reconciler) attribute(ev models.LiveEvent) models.MessageSender {
	if ev.Sender != "" {
		return ev.Sender
	}
	if ev.UserType != "" {
		return models.MessageSender(ev.UserType)
	}
	return r.localRole.Opposite()
}

func refs(keys []string) []models.AttachmentRef {
	if len(keys) == 0 {
		return nil
	}
	out := make([]models.AttachmentRef, len(keys))
	for i, k := range keys {
		out[i] = models.AttachmentRef(k)
	}
	return out
}
