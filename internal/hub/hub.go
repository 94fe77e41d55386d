package hub

import (
	"encoding/json"
	"sync"

	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

// Hub is the process-wide room registry. It is the only structure mutated
// concurrently by connection and message flows; every access goes through mu.
type Hub struct {
	clients map[string]*Client            // sessionID -> client
	rooms   map[string]map[string]*Client // roomID -> sessionID -> client
	roomOf  map[string]string             // sessionID -> roomID
	mu      sync.RWMutex

	onSlow func(*Client)
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		roomOf:  make(map[string]string),
	}
}

// OnSlowConsumer sets a callback run for every client dropped because its
// send buffer was full. Set it before serving connections.
func (h *Hub) OnSlowConsumer(fn func(*Client)) {
	h.mu.Lock()
	h.onSlow = fn
	h.mu.Unlock()
}

func (h *Hub) dropSlow(client *Client, roomID string) {
	l := log.L()
	l.Warn().Str(log.FieldSessionID, client.ID).Str(log.FieldRoomID, roomID).Msg("send buffer full, dropping client")

	h.mu.RLock()
	fn := h.onSlow
	h.mu.RUnlock()
	if fn != nil {
		fn(client)
	}
	client.Close()
}

// Register adds a connected client. It is not a member of any room yet.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldSessionID, client.ID).Msg("client registered")
}

// Unregister removes the client from its room and from the hub and closes
// its send channel. It returns the room the client was in. Calling it more
// than once is a no-op.
func (h *Hub) Unregister(client *Client) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[client.ID]; !ok || existing != client {
		return "", false
	}

	roomID := h.leaveLocked(client.ID)
	delete(h.clients, client.ID)
	close(client.Send)

	l := log.L()
	l.Debug().Str(log.FieldSessionID, client.ID).Str(log.FieldRoomID, roomID).Msg("client unregistered")
	return roomID, true
}

// Join binds the client to roomID, leaving any previous room. It returns
// the previous room, which equals roomID on a repeated join.
func (h *Hub) Join(client *Client, roomID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID]; !ok {
		h.clients[client.ID] = client
	}

	previous := h.roomOf[client.ID]
	if previous == roomID {
		return previous
	}
	if previous != "" {
		h.leaveLocked(client.ID)
	}

	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[client.ID] = client
	h.roomOf[client.ID] = roomID

	l := log.L()
	l.Info().Str(log.FieldSessionID, client.ID).Str(log.FieldRoomID, roomID).Msg("client joined room")
	return previous
}

// Leave removes the client from its room and returns that room.
func (h *Hub) Leave(client *Client) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	roomID := h.leaveLocked(client.ID)
	if roomID != "" {
		l := log.L()
		l.Info().Str(log.FieldSessionID, client.ID).Str(log.FieldRoomID, roomID).Msg("client left room")
	}
	return roomID
}

func (h *Hub) leaveLocked(sessionID string) string {
	roomID, ok := h.roomOf[sessionID]
	if !ok {
		return ""
	}
	delete(h.roomOf, sessionID)

	if members, ok := h.rooms[roomID]; ok {
		delete(members, sessionID)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	return roomID
}

// RoomOf returns the room a session is bound to, or "".
func (h *Hub) RoomOf(sessionID string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.roomOf[sessionID]
}

// Members returns the session ids currently in roomID.
func (h *Hub) Members(roomID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	members := h.rooms[roomID]
	ids := make([]string, 0, len(members))
	for id := range members {
		ids = append(ids, id)
	}
	return ids
}

func (h *Hub) Count(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast marshals message once and delivers it to every member of
// roomID except exclude. It returns the number of clients it reached.
func (h *Hub) Broadcast(roomID string, message interface{}, exclude string) (int, error) {
	data, err := json.Marshal(message)
	if err != nil {
		return 0, err
	}
	return h.BroadcastRaw(roomID, data, exclude), nil
}

// BroadcastRaw sends raw bytes to all clients in a room. Clients whose send
// buffer is full are disconnected instead of blocking the broadcaster.
func (h *Hub) BroadcastRaw(roomID string, data []byte, exclude string) int {
	var slow []*Client
	delivered := 0

	h.mu.RLock()
	for sessionID, client := range h.rooms[roomID] {
		if sessionID == exclude {
			continue
		}
		select {
		case client.Send <- data:
			delivered++
		default:
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range slow {
		h.dropSlow(client, roomID)
	}
	return delivered
}

// SendTo delivers message to a single registered client.
func (h *Hub) SendTo(client *Client, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.RLock()
	registered := h.clients[client.ID] == client
	sent := false
	if registered {
		select {
		case client.Send <- data:
			sent = true
		default:
		}
	}
	h.mu.RUnlock()

	if !registered {
		return ErrClientGone
	}
	if !sent {
		h.dropSlow(client, h.RoomOf(client.ID))
		return ErrSendBufferFull
	}
	return nil
}

// CloseAll closes every registered connection. Their read pumps then run
// the normal disconnect path.
func (h *Hub) CloseAll() int {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
	return len(clients)
}
