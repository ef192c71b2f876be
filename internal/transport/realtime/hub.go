package realtime

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Frame is the JSON message exchanged over a realtime connection.
type Frame struct {
	Event string          `json:"event"`
	Room  string          `json:"room,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
	From  string          `json:"from,omitempty"`
}

const (
	// EventJoin subscribes the connection to a room.
	EventJoin = "join"
	// EventLeave unsubscribes the connection from a room.
	EventLeave = "leave"
	// EventEmit broadcasts data to every member of a room.
	EventEmit = "emit"
)

// Hub tracks connections and their room memberships. Fan-out never blocks:
// a member whose send queue is full is dropped from the hub rather than
// stalling the broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	logger  *zap.Logger
	gauge   prometheus.Gauge
}

// NewHub constructs a Hub. The gauge may be nil.
func NewHub(logger *zap.Logger, gauge prometheus.Gauge) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
		gauge:   gauge,
	}
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.Inc()
	}
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	for room, members := range h.rooms {
		if _, ok := members[client]; ok {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	h.mu.Unlock()

	client.closeOnce.Do(func() { close(client.done) })
	if h.gauge != nil {
		h.gauge.Dec()
	}
}

// Join subscribes the client to a room.
func (h *Hub) Join(client *Client, room string) {
	if room == "" {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
}

// Leave unsubscribes the client from a room.
func (h *Hub) Leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// Emit broadcasts a frame to every member of the room. The sender receives
// its own frame too. Members with full queues are disconnected.
func (h *Hub) Emit(from *Client, room string, data json.RawMessage) {
	frame := Frame{
		Event: EventEmit,
		Room:  room,
		Data:  data,
	}
	if from != nil {
		frame.From = from.userID
	}

	payload, err := json.Marshal(frame)
	if err != nil {
		h.logger.Warn("marshal emit frame failed", zap.Error(err))
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for member := range h.rooms[room] {
		members = append(members, member)
	}
	h.mu.RUnlock()

	var stalled []*Client
	for _, member := range members {
		select {
		case member.send <- payload:
		default:
			stalled = append(stalled, member)
		}
	}

	for _, member := range stalled {
		h.logger.Warn("dropping slow realtime consumer",
			zap.String("user_id", member.userID),
			zap.String("room", room),
		)
		h.unregister(member)
		member.conn.Close()
	}
}

// RoomSize reports the current number of members in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) dispatch(client *Client, frame Frame) {
	switch frame.Event {
	case EventJoin:
		h.Join(client, frame.Room)
	case EventLeave:
		h.Leave(client, frame.Room)
	case EventEmit:
		h.Emit(client, frame.Room, frame.Data)
	default:
		h.logger.Debug("ignoring unknown realtime event",
			zap.String("event", frame.Event),
			zap.String("user_id", client.userID),
		)
	}
}
