package kafka

import (
	"context"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
)

// MessagePublisher emits completed (moderated) messages downstream.
type MessagePublisher interface {
	Publish(ctx context.Context, msg *domain.Message) error
	Close() error
}

// NoopPublisher is used when the event stream is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, *domain.Message) error { return nil }

func (NoopPublisher) Close() error { return nil }
