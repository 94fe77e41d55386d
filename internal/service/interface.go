package service

import (
	"context"

	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/hub"
)

// ChatService drives connection lifecycle events and the message pipeline.
type ChatService interface {
	HandleConnect(ctx context.Context, client *hub.Client) error
	HandleJoinRoom(ctx context.Context, client *hub.Client, msg *domain.JoinRoomMessage) error
	HandleSendMessage(ctx context.Context, client *hub.Client, msg *domain.SendMessageMessage) error
	HandleLeaveRoom(ctx context.Context, client *hub.Client) error
	HandleDisconnect(ctx context.Context, client *hub.Client) error
	// Wait blocks until every in-flight message pipeline has finished.
	Wait()
}

// HistoryService fronts the History Store with an optional cache.
type HistoryService interface {
	Append(ctx context.Context, msg *domain.Message) error
	// Recent returns up to limit of the newest messages of roomID, oldest first.
	Recent(ctx context.Context, roomID string, limit int) ([]domain.Message, error)
}
