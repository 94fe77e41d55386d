package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/audit"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/config"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/hub"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/service"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/jwt"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub      *hub.Hub
	service  service.ChatService
	wsCfg    config.WebSocketConfig
	verifier *jwt.Verifier
}

// NewWSHandler creates a WSHandler. With a nil verifier the handshake is
// not authenticated.
func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig, verifier *jwt.Verifier) *WSHandler {
	return &WSHandler{
		hub:      h,
		service:  svc,
		wsCfg:    wsCfg,
		verifier: verifier,
	}
}

// HandleWebSocket upgrades the request and serves the connection until it
// closes.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := hub.NewClient(uuid.New().String(), h.hub, conn, h.wsCfg)
	client.Session.HandshakeUserID = middleware.GetUserID(c)

	ctx = log.WithStr(ctx, log.FieldSessionID, client.ID)
	audit.Log(ctx, audit.ActionConnect, client.Session.HandshakeUserID, "client connected")

	if err := h.service.HandleConnect(ctx, client); err != nil {
		l := log.Ctx(ctx)
		l.Warn().Err(err).Msg("failed to greet client")
	}

	go client.WritePump()
	client.ReadPump(
		func(c *hub.Client, message []byte) { h.handleMessage(ctx, c, message) },
		func(c *hub.Client) {
			if err := h.service.HandleDisconnect(ctx, c); err != nil {
				l := log.Ctx(ctx)
				l.Warn().Err(err).Msg("disconnect handling failed")
			}
		},
	)
}

func (h *WSHandler) handleMessage(ctx context.Context, client *hub.Client, message []byte) {
	var base domain.BaseMessage
	if err := json.Unmarshal(message, &base); err != nil {
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid message format"))
		return
	}

	l := log.Ctx(ctx)

	switch base.Type {
	case domain.MsgTypeJoinRoom:
		var msg domain.JoinRoomMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid join_room message"))
			return
		}
		if err := h.service.HandleJoinRoom(ctx, client, &msg); err != nil {
			l.Warn().Err(err).Str(log.FieldRoomID, msg.Room).Msg("join room failed")
		}

	case domain.MsgTypeSendMessage:
		var msg domain.SendMessageMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Invalid send_message message"))
			return
		}
		if err := h.service.HandleSendMessage(ctx, client, &msg); err != nil {
			l.Warn().Err(err).Msg("send message failed")
		}

	case domain.MsgTypeLeaveRoom:
		if err := h.service.HandleLeaveRoom(ctx, client); err != nil {
			l.Warn().Err(err).Msg("leave room failed")
		}

	case domain.MsgTypePing:
		client.SendMessage(&domain.BaseMessage{Type: domain.MsgTypePong})

	default:
		client.SendMessage(domain.NewErrorMessage(domain.ErrCodeBadRequest, "Unknown message type"))
	}
}

func (h *WSHandler) RegisterRoutes(r *gin.Engine) {
	if h.verifier != nil {
		r.GET("/chat/ws", middleware.NewAuthMiddleware(h.verifier).RequireAuth(), h.HandleWebSocket)
		return
	}
	r.GET("/chat/ws", h.HandleWebSocket)
}
