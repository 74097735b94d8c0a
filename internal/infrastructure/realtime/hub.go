package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
	"streamcast/pkg/validation"

	"go.uber.org/zap"
)

// Hub owns room membership and event fan-out. One mutex guards connections
// and rooms; registry mutations and the matching broadcast enqueues happen
// under it, so every room's members observe events in the order the registry
// mutation completed. Delivery into a client's send buffer is non-blocking:
// a client that cannot keep up is dropped rather than stalling its room.
//
// Known relaxation: a connection whose join completes immediately after a
// chat broadcast was enqueued will not receive that message. There is no
// causal ordering across a join racing a broadcast.
type Hub struct {
	registry ports.PresenceRegistry
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger

	mu    sync.Mutex
	conns map[domain.ConnectionID]*Client
	rooms map[domain.StreamPath]map[*Client]struct{}
}

func NewHub(registry ports.PresenceRegistry, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) *Hub {
	return &Hub{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
		conns:    make(map[domain.ConnectionID]*Client),
		rooms:    make(map[domain.StreamPath]map[*Client]struct{}),
	}
}

// register adds a freshly upgraded connection to the global set.
func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.conns[c.id] = c
	h.mu.Unlock()

	h.metrics.RecordViewerConnected()
	h.logger.Infow("viewer connected",
		"connection_id", c.id,
		"authenticated", c.principal.Authenticated,
		"display_name", c.principal.DisplayName,
	)
}

// unregister is the disconnect finalizer: it leaves the watched room,
// rebroadcasts the updated viewer count to the remaining members and frees
// the connection. Safe to call more than once.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, known := h.conns[c.id]; !known {
		h.mu.Unlock()
		return
	}
	delete(h.conns, c.id)

	if c.path != "" {
		count := h.registry.Leave(c.path, c.id)
		h.removeFromRoom(c.path, c)
		h.broadcastToRoomLocked(c.path, newViewerCountMessage(c.path, count))
		h.metrics.RecordViewerCount(c.path, count)
		c.path = ""
	}
	// No delivery can reach this client once it is out of the maps, so the
	// send channel can be closed here to let the write pump drain and exit.
	close(c.send)
	h.mu.Unlock()

	h.metrics.RecordViewerDisconnected()
	h.logger.Infow("viewer disconnected", "connection_id", c.id)
}

// Watch moves the connection onto path: an atomic leave+join in the registry,
// a room switch in the hub, and viewerCount broadcasts to both affected rooms.
func (h *Hub) Watch(c *Client, rawPath string) {
	if err := validation.ValidateStreamPath(rawPath); err != nil {
		h.logger.Debugw("watch request ignored",
			"connection_id", c.id,
			"stream_path", rawPath,
			"error", err,
		)
		return
	}
	path := domain.StreamPath(rawPath)

	h.mu.Lock()
	defer h.mu.Unlock()

	old := c.path
	if old == path {
		return
	}

	fromCount, toCount := h.registry.MoveConnection(old, path, c.id)
	if old != "" {
		h.removeFromRoom(old, c)
		h.broadcastToRoomLocked(old, newViewerCountMessage(old, fromCount))
		h.metrics.RecordViewerCount(old, fromCount)
	}

	room, ok := h.rooms[path]
	if !ok {
		room = make(map[*Client]struct{})
		h.rooms[path] = room
	}
	room[c] = struct{}{}
	c.path = path

	h.broadcastToRoomLocked(path, newViewerCountMessage(path, toCount))
	h.metrics.RecordViewerCount(path, toCount)
}

// Chat fans a message out to the members of the sender's room only. Messages
// from connections that are not watching anything are ignored.
func (h *Hub) Chat(c *Client, payload ChatPayload) {
	if err := validation.ValidateChatContent(payload.Content); err != nil {
		h.logger.Debugw("chat message ignored", "connection_id", c.id, "error", err)
		return
	}
	if c.limiter != nil && !c.limiter.Allow() {
		h.logger.Debugw("chat message rate limited", "connection_id", c.id)
		return
	}

	username := c.principal.DisplayName
	if !c.principal.Authenticated && payload.Username != "" {
		username = payload.Username
	}

	msg := domain.ChatMessage{
		Username:        username,
		Content:         payload.Content,
		Time:            time.Now(),
		IsAuthenticated: c.principal.Authenticated,
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if c.path == "" {
		h.logger.Debugw("chat while not watching ignored", "connection_id", c.id)
		return
	}

	h.broadcastToRoomLocked(c.path, newChatBroadcastMessage(c.path, msg))
	h.metrics.RecordChatMessage()
}

// BroadcastStreamStart implements ports.Broadcaster. Lifecycle events go to
// every connection so lobby viewers see streams come and go.
func (h *Hub) BroadcastStreamStart(path domain.StreamPath, streamer domain.StreamerProfile) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastAllLocked(newStreamStartMessage(path, streamer))
}

// BroadcastStreamEnd implements ports.Broadcaster.
func (h *Hub) BroadcastStreamEnd(path domain.StreamPath) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastAllLocked(newStreamEndMessage(path))
}

// ConnectionCount reports the number of registered connections.
func (h *Hub) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// removeFromRoom requires h.mu held.
func (h *Hub) removeFromRoom(path domain.StreamPath, c *Client) {
	room, ok := h.rooms[path]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, path)
	}
}

// broadcastToRoomLocked requires h.mu held.
func (h *Hub) broadcastToRoomLocked(path domain.StreamPath, v interface{}) {
	room, ok := h.rooms[path]
	if !ok {
		return
	}

	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorw("failed to marshal broadcast", "error", err)
		return
	}

	for member := range room {
		h.deliverLocked(member, data)
	}
}

// broadcastAllLocked requires h.mu held.
func (h *Hub) broadcastAllLocked(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Errorw("failed to marshal broadcast", "error", err)
		return
	}

	for _, member := range h.conns {
		h.deliverLocked(member, data)
	}
}

// deliverLocked enqueues without blocking. A full send buffer means the
// client stopped draining; it gets closed so the room never stalls.
func (h *Hub) deliverLocked(c *Client, data []byte) {
	select {
	case c.send <- data:
	default:
		h.metrics.RecordEventDropped()
		h.logger.Warnw("dropping slow viewer connection", "connection_id", c.id)
		go c.close()
	}
}
