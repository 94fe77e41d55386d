package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/audit"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/hub"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/kafka"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/metrics"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/moderation"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/id"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
)

const (
	statusConnected = "Connected to chat server"
	persistTimeout  = 10 * time.Second
	publishTimeout  = 5 * time.Second
)

type chatService struct {
	hub          *hub.Hub
	moderator    moderation.Moderator
	history      HistoryService
	publisher    kafka.MessagePublisher
	ids          id.Generator
	metrics      *metrics.Metrics
	historyLimit int

	inflight sync.WaitGroup
}

func NewChatService(
	h *hub.Hub,
	moderator moderation.Moderator,
	history HistoryService,
	publisher kafka.MessagePublisher,
	ids id.Generator,
	m *metrics.Metrics,
	historyLimit int,
) ChatService {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &chatService{
		hub:          h,
		moderator:    moderator,
		history:      history,
		publisher:    publisher,
		ids:          ids,
		metrics:      m,
		historyLimit: historyLimit,
	}
}

func (s *chatService) HandleConnect(ctx context.Context, c *hub.Client) error {
	s.hub.Register(c)
	s.metrics.SetConnections(s.hub.ClientCount())

	return c.SendMessage(&domain.StatusMessage{
		Type:    domain.MsgTypeStatus,
		Message: statusConnected,
	})
}

func (s *chatService) HandleJoinRoom(ctx context.Context, c *hub.Client, msg *domain.JoinRoomMessage) error {
	roomID := strings.TrimSpace(msg.Room)
	if roomID == "" || msg.UserID == "" || msg.Username == "" {
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "room, userId and username are required"))
	}

	s.checkIdentity(ctx, c, msg.UserID)

	prevUserID, prevUsername := c.Session.Identity()
	previous := s.hub.Join(c, roomID)
	c.Session.Bind(roomID, msg.UserID, msg.Username)
	s.metrics.SetRooms(s.hub.RoomCount())

	if previous != roomID {
		if previous != "" {
			s.broadcast(ctx, previous, domain.NewMembershipMessage(domain.MsgTypeUserLeft, prevUserID, prevUsername), "")
			audit.LogRoom(ctx, audit.ActionLeaveRoom, prevUserID, previous, "left room on rejoin")
		}
		s.broadcast(ctx, roomID, domain.NewMembershipMessage(domain.MsgTypeUserJoined, msg.UserID, msg.Username), c.ID)
		audit.LogRoom(ctx, audit.ActionJoinRoom, msg.UserID, roomID, "joined room")
	}

	messages, err := s.history.Recent(ctx, roomID, s.historyLimit)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to load chat history")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeHistoryUnavailable, "Chat history is unavailable"))
	}

	return c.SendMessage(domain.NewChatHistoryMessage(messages))
}

// checkIdentity records when a verified handshake identity disagrees with
// the identity claimed in a payload. The payload identity is still used.
func (s *chatService) checkIdentity(ctx context.Context, c *hub.Client, claimed string) {
	verified := c.Session.HandshakeUserID
	if verified == "" || verified == claimed {
		return
	}
	audit.LogWithDetail(ctx, audit.ActionIdentityMismatch, claimed,
		fmt.Sprintf("handshake_user_id=%s", verified), "payload identity differs from handshake identity")
}

func (s *chatService) HandleSendMessage(ctx context.Context, c *hub.Client, msg *domain.SendMessageMessage) error {
	roomID := c.Session.RoomID()
	if roomID == "" {
		s.metrics.MessageRejected("not_in_room")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeNotInRoom, domain.ErrNotInRoom.Error()))
	}
	if strings.TrimSpace(msg.Message) == "" {
		s.metrics.MessageRejected("empty")
		return c.SendMessage(domain.NewErrorMessage(domain.ErrCodeEmptyMessage, domain.ErrEmptyMessage.Error()))
	}

	userID, username := msg.UserID, msg.Username
	if userID == "" || username == "" {
		joinedID, joinedName := c.Session.Identity()
		if userID == "" {
			userID = joinedID
		}
		if username == "" {
			username = joinedName
		}
	}
	s.checkIdentity(ctx, c, userID)

	m := domain.Message{
		RoomID:   roomID,
		UserID:   userID,
		Username: username,
		Text:     msg.Message,
	}

	// The pipeline outlives the connection: a sender that disconnects still
	// gets its message stored and delivered to the room.
	pctx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	go s.runPipeline(pctx, m)
	return nil
}

func (s *chatService) runPipeline(ctx context.Context, m domain.Message) {
	defer s.inflight.Done()
	defer func() {
		if r := recover(); r != nil {
			l := log.Ctx(ctx)
			l.Error().Interface("panic", r).Str(log.FieldRoomID, m.RoomID).Msg("message pipeline panic")
		}
	}()

	m = s.stamp(ctx, m)
	ctx = log.WithStr(ctx, log.FieldMessageID, m.MessageID)

	start := time.Now()
	verdict := s.moderator.Classify(ctx, m.Text)
	s.metrics.ObserveModeration(time.Since(start))
	m = m.WithVerdict(verdict)

	s.persist(ctx, &m)
	s.publish(ctx, &m)

	s.broadcast(ctx, m.RoomID, domain.NewReceiveMessage(&m), "")
	s.metrics.MessageBroadcast(string(m.ModerationStatus))

	l := log.Ctx(ctx)
	l.Debug().
		Str(log.FieldRoomID, m.RoomID).
		Str(log.FieldUserID, m.UserID).
		Str(log.FieldModerationStatus, string(m.ModerationStatus)).
		Str(log.FieldModerationReason, m.ModerationReason).
		Msg("message delivered")
	audit.LogRoom(ctx, audit.ActionSendMessage, m.UserID, m.RoomID, "message sent")
}

func (s *chatService) stamp(ctx context.Context, m domain.Message) domain.Message {
	m.Timestamp = time.Now().UTC()

	msgID, err := s.ids.Generate()
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to generate message id, using uuid")
		msgID = uuid.NewString()
	}
	m.MessageID = msgID
	return m
}

func (s *chatService) persist(ctx context.Context, m *domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	if err := s.history.Append(ctx, m); err != nil {
		s.metrics.PersistFailed()
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, m.RoomID).Msg("failed to persist message")
	}
}

func (s *chatService) publish(ctx context.Context, m *domain.Message) {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.publisher.Publish(ctx, m); err != nil {
		s.metrics.PublishFailed()
		l := log.Ctx(ctx)
		l.Warn().Err(err).Str(log.FieldRoomID, m.RoomID).Msg("failed to publish message")
	}
}

func (s *chatService) broadcast(ctx context.Context, roomID string, message interface{}, exclude string) {
	if _, err := s.hub.Broadcast(roomID, message, exclude); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to broadcast")
	}
}

func (s *chatService) HandleLeaveRoom(ctx context.Context, c *hub.Client) error {
	roomID := s.hub.Leave(c)
	c.Session.Unbind()
	if roomID == "" {
		return nil
	}
	s.metrics.SetRooms(s.hub.RoomCount())

	userID, username := c.Session.Identity()
	s.broadcast(ctx, roomID, domain.NewMembershipMessage(domain.MsgTypeUserLeft, userID, username), "")
	audit.LogRoom(ctx, audit.ActionLeaveRoom, userID, roomID, "left room")
	return nil
}

func (s *chatService) HandleDisconnect(ctx context.Context, c *hub.Client) error {
	roomID, ok := s.hub.Unregister(c)
	if !ok {
		return nil
	}
	c.Session.Unbind()
	s.metrics.SetConnections(s.hub.ClientCount())
	s.metrics.SetRooms(s.hub.RoomCount())

	userID, username := c.Session.Identity()
	if roomID != "" {
		s.broadcast(ctx, roomID, domain.NewMembershipMessage(domain.MsgTypeUserLeft, userID, username), "")
	}
	audit.LogRoom(ctx, audit.ActionDisconnect, userID, roomID, "client disconnected")
	return nil
}

func (s *chatService) Wait() {
	s.inflight.Wait()
}
