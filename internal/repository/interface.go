package repository

import (
	"context"
	"fmt"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

// MessageRepository is the History Store: an append log per room.
type MessageRepository interface {
	// Append stores msg. Identical messages are stored again.
	Append(ctx context.Context, msg *domain.Message) error

	// Recent returns up to limit of the newest messages of roomID, oldest first.
	Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error)

	Close() error
}

// StorageError reports a failed repository operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
