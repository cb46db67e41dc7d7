// Package observe streams rendered frames to websocket subscribers.
package observe

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"sandfall/internal/world"
)

const writeWait = 2 * time.Second

// ErrClosed is returned when serving on a closed hub.
var ErrClosed = errors.New("observe: hub closed")

type subscriber struct {
	id   uint64
	conn *websocket.Conn
	mu   sync.Mutex
}

// WriteMessage sends a message under the subscriber's lock and write deadline.
func (s *subscriber) WriteMessage(messageType int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(messageType, data)
}

// Hub fans frames out to every connected subscriber. Subscribers only
// receive; anything they send is discarded.
type Hub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu     sync.Mutex
	subs   map[uint64]*subscriber
	nextID uint64
	closed bool
}

// NewHub returns an empty hub. A nil logger discards output.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger: logger,
		subs:   make(map[uint64]*subscriber),
	}
}

// ServeHTTP upgrades the request and registers the connection until it
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ErrClosed.Error()))
		_ = conn.Close()
		return
	}
	h.nextID++
	s := &subscriber{id: h.nextID, conn: conn}
	h.subs[s.id] = s
	h.mu.Unlock()
	h.logger.Info("subscriber connected", "id", s.id, "remote", r.RemoteAddr)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(s, "read closed")
}

func (h *Hub) drop(s *subscriber, reason string) {
	h.mu.Lock()
	_, ok := h.subs[s.id]
	delete(h.subs, s.id)
	h.mu.Unlock()
	if ok {
		_ = s.conn.Close()
		h.logger.Info("subscriber dropped", "id", s.id, "reason", reason)
	}
}

// Len returns the number of connected subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast encodes v once and sends it to every subscriber. Subscribers
// whose write fails are dropped. It returns the number of deliveries.
func (h *Hub) Broadcast(tick uint64, v world.RenderView) int {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()
	if len(subs) == 0 {
		return 0
	}
	data := EncodeFrame(tick, v)
	sent := 0
	for _, s := range subs {
		if err := s.WriteMessage(websocket.BinaryMessage, data); err != nil {
			h.drop(s, err.Error())
			continue
		}
		sent++
	}
	return sent
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	subs := h.subs
	h.subs = make(map[uint64]*subscriber)
	h.mu.Unlock()
	var errs []error
	for _, s := range subs {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = s.WriteMessage(websocket.CloseMessage, msg)
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
