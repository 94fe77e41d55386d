package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/domain"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/hub"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/metrics"
	"github.com/weiawesome/wes-io-live/moderated-chat/internal/service"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/log"
	"github.com/weiawesome/wes-io-live/moderated-chat/pkg/response"
)

type HTTPHandler struct {
	historyService service.HistoryService
	hub            *hub.Hub
	metrics        *metrics.Metrics
	defaultLimit   int
}

func NewHTTPHandler(historyService service.HistoryService, h *hub.Hub, m *metrics.Metrics, defaultLimit int) *HTTPHandler {
	return &HTTPHandler{
		historyService: historyService,
		hub:            h,
		metrics:        m,
		defaultLimit:   service.ClampLimit(defaultLimit),
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/rooms/:room_id/messages", h.GetMessages)
	}

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c, "route not found")
	})
	r.GET("/", h.Index)
	r.GET("/health", h.HealthCheck)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("room_id")
	if roomID == "" {
		response.BadRequest(c, "room_id is required")
		return
	}

	limit := h.defaultLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = service.ClampLimit(parsedLimit)
	}

	messages, err := h.historyService.Recent(c.Request.Context(), roomID, limit)
	if err != nil {
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldRoomID, roomID).Msg("failed to get chat history")
		response.InternalError(c, "failed to get chat history")
		return
	}

	response.Success(c, domain.NewHistoryPage(roomID, messages))
}

func (h *HTTPHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "moderated-chat",
		"websocket": "/chat/ws",
	})
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": h.hub.ClientCount(),
		"rooms":       h.hub.RoomCount(),
	})
}
