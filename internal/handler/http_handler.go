package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/repository"
	"github.com/weiawesome/asg-rev/internal/service"
	"github.com/weiawesome/asg-rev/pkg/log"
	"github.com/weiawesome/asg-rev/pkg/middleware"
	"github.com/weiawesome/asg-rev/pkg/response"
)

type HTTPHandler struct {
	historyService service.HistoryService
}

func NewHTTPHandler(historyService service.HistoryService) *HTTPHandler {
	return &HTTPHandler{
		historyService: historyService,
	}
}

func (h *HTTPHandler) RegisterRoutes(r *gin.Engine, auth *middleware.AuthMiddleware) {
	api := r.Group("/api/workspaces/:workspace_pk/categories/:category_pk/channels/:channel_pk/chat")
	api.Use(auth.RequireAuth())
	{
		api.GET("/", h.GetMessages)
		api.GET("/online/", h.GetOnlineUsers)
	}

	r.GET("/health", h.HealthCheck)
}

func identityFrom(c *gin.Context) domain.Identity {
	return domain.Identity{
		UserID:   middleware.GetUserID(c),
		Email:    middleware.GetEmail(c),
		Username: middleware.GetUsername(c),
	}
}

func (h *HTTPHandler) GetMessages(c *gin.Context) {
	channelID := c.Param("channel_pk")

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	page, err := h.historyService.ListMessages(c.Request.Context(), identityFrom(c), channelID, c.Query("cursor"), limit)
	if err != nil {
		h.handleError(c, err, "failed to get chat history")
		return
	}

	response.Paginated(c, page.Messages, page.NextCursor, page.HasMore)
}

func (h *HTTPHandler) GetOnlineUsers(c *gin.Context) {
	key := domain.RoomKey{
		WorkspaceID: c.Param("workspace_pk"),
		CategoryID:  c.Param("category_pk"),
		ChannelID:   c.Param("channel_pk"),
	}

	users, err := h.historyService.OnlineUsers(c.Request.Context(), identityFrom(c), key)
	if err != nil {
		h.handleError(c, err, "failed to get online users")
		return
	}

	response.Success(c, gin.H{
		"room":  key.String(),
		"users": users,
	})
}

func (h *HTTPHandler) handleError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrChannelNotFound):
		response.NotFound(c, "channel not found")
	case errors.Is(err, service.ErrNotAMember):
		response.Forbidden(c, "user is not a member of this channel")
	default:
		l := log.Ctx(c.Request.Context())
		l.Error().Err(err).Str(log.FieldChannelID, c.Param("channel_pk")).Msg(message)
		response.InternalError(c, message)
	}
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}
