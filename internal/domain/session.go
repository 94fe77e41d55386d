package domain

import (
	"sync"
	"time"
)

// Session is the state of one live connection.
type Session struct {
	ID              string
	HandshakeUserID string
	ConnectedAt     time.Time

	mu       sync.RWMutex
	userID   string
	username string
	roomID   string
}

func NewSession(id string) *Session {
	return &Session{
		ID:          id,
		ConnectedAt: time.Now().UTC(),
	}
}

// Bind records the room and the identity presented on join, returning the
// room the session was in before.
func (s *Session) Bind(roomID, userID, username string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.roomID
	s.roomID = roomID
	s.userID = userID
	s.username = username
	return previous
}

// Unbind clears the room, returning the room left.
func (s *Session) Unbind() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.roomID
	s.roomID = ""
	return previous
}

func (s *Session) RoomID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roomID
}

func (s *Session) IsInRoom() bool {
	return s.RoomID() != ""
}

// Identity returns the user id and username presented on the last join.
func (s *Session) Identity() (string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID, s.username
}
