package devserver

import (
	"encoding/json"
	"time"

	"github.com/apex/log"
	"github.com/gorilla/websocket"

	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/models"
)

// broadcast is the envelope live events travel in between gateway instances.
type broadcast struct {
	ReportID string           `json:"reportId"`
	Event    models.LiveEvent `json:"event"`
}

// Hub routes live frames between every connection open on a report. Incoming
// frames go out through Redis pub/sub; the pub/sub listener performs the
// local delivery, so all instances behave the same whether or not the sender
// is connected to them.
type Hub struct {
	Clients map[*WSClient]struct{}

	RegisterCh   chan *WSClient
	UnregisterCh chan *WSClient
	IncomingCh   chan models.LiveFrame
	PubSubCh     chan broadcast

	Storage Storage
}

// NewHub creates a hub over the given storage.
func NewHub(s Storage) *Hub {
	return &Hub{
		Clients:      make(map[*WSClient]struct{}),
		RegisterCh:   make(chan *WSClient),
		UnregisterCh: make(chan *WSClient),
		IncomingCh:   make(chan models.LiveFrame),
		PubSubCh:     make(chan broadcast),
		Storage:      s,
	}
}

// Run is the hub dispatcher; it owns the client set.
func (h *Hub) Run() {
	h.startPubSubListener()

	for {
		select {
		case c := <-h.RegisterCh:
			h.Clients[c] = struct{}{}
			log.WithField("reportId", c.ReportID).Info("live client connected")

		case c := <-h.UnregisterCh:
			if _, ok := h.Clients[c]; ok {
				delete(h.Clients, c)
				close(c.Send)
				log.WithField("reportId", c.ReportID).Info("live client disconnected")
			}

		case frame := <-h.IncomingCh:
			if frame.Action != models.ActionSendMessage {
				log.Warnf("ignoring unknown live action %q", frame.Action)
				continue
			}
			ev := models.LiveEvent{
				Message:   frame.Message,
				UserType:  frame.UserType,
				CreatedAt: time.Now().Unix(),
			}
			if err := h.Storage.PublishEvent(frame.ReportID, ev); err != nil {
				log.Errorf("publishing live event: %v", err)
			}

		case b := <-h.PubSubCh:
			h.deliver(b)
		}
	}
}

func (h *Hub) deliver(b broadcast) {
	for c := range h.Clients {
		if c.ReportID != b.ReportID {
			continue
		}
		select {
		case c.Send <- b.Event:
		default:
			// Slow client; drop it rather than blocking the hub.
			delete(h.Clients, c)
			close(c.Send)
		}
	}
}

func (h *Hub) startPubSubListener() {
	pubsub := h.Storage.SubscribeEvents()
	if pubsub == nil {
		// No broker configured (tests); events are fed straight into
		// PubSubCh instead.
		return
	}
	go func() {
		defer pubsub.Close()
		for msg := range pubsub.Channel() {
			var b broadcast
			if err := json.Unmarshal([]byte(msg.Payload), &b); err != nil {
				log.Errorf("unmarshalling pub/sub event: %v", err)
				continue
			}
			h.PubSubCh <- b
		}
	}()
}

// WSClient is one gateway connection, scoped to a single report.
type WSClient struct {
	ReportID string
	UserType string
	Conn     *websocket.Conn
	Hub      *Hub
	Send     chan models.LiveEvent
}

// Run starts the client's read and write pumps.
func (c *WSClient) Run() {
	go c.writePump()
	go c.readPump()
}

func (c *WSClient) readPump() {
	defer func() {
		c.Hub.UnregisterCh <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(config.PongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warnf("live read error: %v", err)
			}
			break
		}

		var frame models.LiveFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Warnf("dropping undecodable live frame: %v", err)
			continue
		}
		// The connection's own scope wins over whatever the frame claims.
		frame.ReportID = c.ReportID
		if frame.UserType == "" {
			frame.UserType = c.UserType
		}
		c.Hub.IncomingCh <- frame
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				log.Errorf("encoding live event: %v", err)
				continue
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
