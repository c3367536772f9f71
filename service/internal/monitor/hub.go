// internal/monitor/hub.go
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventType names the messages sent to monitor clients.
type EventType string

const (
	EventRunStart     EventType = "run_start"
	EventEpisodeClose EventType = "episode_close"
	EventBlockSummary EventType = "block_summary"
	EventRunFinish    EventType = "run_finish"
)

// Event is one message of the live feed.
type Event struct {
	Type    EventType   `json:"type"`
	RunID   uuid.UUID   `json:"runId"`
	Payload interface{} `json:"payload,omitempty"`
	Time    int64       `json:"time"`
}

// writeTimeout bounds a single write to a slow client.
const writeTimeout = 2 * time.Second

// Hub fans events out to every connected websocket client. Clients must
// present a token signed with the hub's secret.
type Hub struct {
	secret []byte
	log    *logrus.Entry

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns a hub that accepts tokens signed with secret.
func NewHub(secret []byte, log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		secret:  secret,
		log:     log.WithField("component", "monitor"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP authenticates the request, upgrades it and keeps the client
// registered until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	claims, err := VerifyToken(h.secret, tokenFromRequest(r))
	if err != nil {
		h.log.WithError(err).WithField("remote", r.RemoteAddr).Warn("Rejected monitor client.")
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("Websocket accept failed.")
		return
	}
	log := h.log.WithField("subject", claims.Subject)

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	log.Info("Monitor client connected.")

	// Clients only listen; CloseRead discards their frames and ends ctx
	// when the connection goes away.
	ctx := c.CloseRead(r.Context())
	<-ctx.Done()

	h.remove(c)
	c.Close(websocket.StatusNormalClosure, "")
	log.Info("Monitor client disconnected.")
}

// Broadcast sends ev to every client. Clients that fail the write are dropped.
func (h *Hub) Broadcast(ev Event) {
	if ev.Time == 0 {
		ev.Time = time.Now().UnixMilli()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).WithField("type", ev.Type).Error("Cannot encode monitor event.")
		return
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := c.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.log.WithError(err).Debug("Dropping monitor client after failed write.")
			h.remove(c)
			c.Close(websocket.StatusPolicyViolation, "write failed")
		}
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.clients
	h.clients = make(map[*websocket.Conn]struct{})
	h.mu.Unlock()
	for c := range conns {
		c.Close(websocket.StatusGoingAway, "run finished")
	}
}

func (h *Hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}
