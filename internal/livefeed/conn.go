// Package livefeed maintains the single WebSocket connection a case view
// opens against the live gateway. One connection per view; no automatic
// reconnect; a caller that wants one redials when its inputs change.
package livefeed

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/models"
)

// Conn is one live connection scoped to a single report thread.
type Conn struct {
	ws       *websocket.Conn
	reportID string
	userType models.MessageSender

	events chan models.LiveEvent

	mu   sync.Mutex
	live bool

	now func() time.Time
}

// Dial opens the gateway connection for a report. The reportId and userType
// travel as query parameters. A dial failure is not fatal to the case view;
// the thread stays usable via polling and the view shows Offline.
func Dial(ctx context.Context, endpoint, reportID string, userType models.MessageSender) (*Conn, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("reportId", reportID)
	q.Set("userType", string(userType))
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		ws:       ws,
		reportID: reportID,
		userType: userType,
		events:   make(chan models.LiveEvent, 256),
		live:     true,
		now:      time.Now,
	}
	go c.readPump()
	return c, nil
}

// Events yields decoded live events in arrival order. The channel closes when
// the connection ends.
func (c *Conn) Events() <-chan models.LiveEvent { return c.events }

// IsLive reports whether the socket is currently open.
func (c *Conn) IsLive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// Send announces a freshly persisted message to the other party. When the
// socket is not open the frame is dropped with a warning; it is never queued
// or retried; the durable copy reaches the peer on their next poll tick.
func (c *Conn) Send(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.live {
		log.WithField("reportId", c.reportID).Warn("live channel not connected, dropping send")
		return
	}

	frame := models.LiveFrame{
		Action:   models.ActionSendMessage,
		ReportID: c.reportID,
		Message:  body,
		UserType: string(c.userType),
	}
	data, err := json.Marshal(frame)
	if err != nil {
		log.Errorf("encoding live frame: %v", err)
		return
	}

	c.ws.SetWriteDeadline(c.now().Add(config.WriteWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.WithField("reportId", c.reportID).Warnf("live send failed: %v", err)
		c.live = false
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *Conn) Close() {
	c.mu.Lock()
	c.live = false
	c.mu.Unlock()
	c.ws.Close()
}

func (c *Conn) readPump() {
	defer func() {
		c.mu.Lock()
		c.live = false
		c.mu.Unlock()
		c.ws.Close()
		close(c.events)
	}()

	// The gateway drives keepalive pings; gorilla answers them during
	// ReadMessage, so the loop only has to read frames.
	c.ws.SetReadLimit(config.MaxMessageSize)

	for {
		_, raw, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithField("reportId", c.reportID).Warnf("live channel closed: %v", err)
			}
			return
		}
		c.deliver(c.decode(raw))
	}
}

// decode turns a frame into a live event. The gateway may broadcast either a
// JSON event or bare message text; undecodable frames are wrapped best-effort
// with sender UNKNOWN. The client stamps "now" on events without a timestamp.
func (c *Conn) decode(raw []byte) models.LiveEvent {
	var ev models.LiveEvent
	if err := json.Unmarshal(raw, &ev); err != nil || ev.Message == "" {
		ev = models.LiveEvent{Message: string(raw), Sender: models.SenderUnknown}
	}
	if ev.CreatedAt == 0 {
		ev.CreatedAt = c.now().Unix()
	}
	return ev
}

func (c *Conn) deliver(ev models.LiveEvent) {
	select {
	case c.events <- ev:
	default:
		log.WithField("reportId", c.reportID).Warn("live event buffer full, dropping event")
	}
}
