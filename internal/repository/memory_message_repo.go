package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

var errClosed = errors.New("repository closed")

// MemoryMessageRepository keeps messages in process memory. Contents are
// lost on restart.
type MemoryMessageRepository struct {
	mu     sync.RWMutex
	rooms  map[string][]domain.Message
	closed bool
}

func NewMemoryMessageRepository() *MemoryMessageRepository {
	return &MemoryMessageRepository{rooms: make(map[string][]domain.Message)}
}

func (r *MemoryMessageRepository) Append(ctx context.Context, msg *domain.Message) error {
	if err := ctx.Err(); err != nil {
		return storageErr("append", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return storageErr("append", errClosed)
	}
	r.rooms[msg.RoomID] = insertOrdered(r.rooms[msg.RoomID], *msg)
	return nil
}

// insertOrdered keeps a room ordered by timestamp. Pipelines finish out of
// order, so a late append may belong before the tail.
func insertOrdered(msgs []domain.Message, msg domain.Message) []domain.Message {
	i := len(msgs)
	for i > 0 && after(msgs[i-1], msg) {
		i--
	}
	msgs = append(msgs, domain.Message{})
	copy(msgs[i+1:], msgs[i:])
	msgs[i] = msg
	return msgs
}

func after(a, b domain.Message) bool {
	if a.Timestamp.Equal(b.Timestamp) {
		return a.MessageID > b.MessageID
	}
	return a.Timestamp.After(b.Timestamp)
}

func (r *MemoryMessageRepository) Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, storageErr("recent", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return nil, storageErr("recent", errClosed)
	}

	all := r.rooms[roomID]
	if limit <= 0 {
		return []domain.Message{}, nil
	}
	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := make([]domain.Message, len(all))
	copy(out, all)
	return out, nil
}

func (r *MemoryMessageRepository) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}
