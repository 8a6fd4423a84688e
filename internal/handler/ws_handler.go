package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/weiawesome/asg-rev/internal/config"
	"github.com/weiawesome/asg-rev/internal/domain"
	"github.com/weiawesome/asg-rev/internal/hub"
	"github.com/weiawesome/asg-rev/internal/service"
	"github.com/weiawesome/asg-rev/pkg/log"
	"github.com/weiawesome/asg-rev/pkg/middleware"
	"github.com/weiawesome/asg-rev/pkg/response"
)

// ProtocolQueryKey selects the frame protocol for a connection.
const ProtocolQueryKey = "protocol"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSHandler struct {
	hub             *hub.Hub
	service         service.ChatService
	wsCfg           config.WebSocketConfig
	defaultProtocol string
}

func NewWSHandler(h *hub.Hub, svc service.ChatService, wsCfg config.WebSocketConfig, defaultProtocol string) *WSHandler {
	if defaultProtocol == "" {
		defaultProtocol = config.ProtocolLegacy
	}
	return &WSHandler{
		hub:             h,
		service:         svc,
		wsCfg:           wsCfg,
		defaultProtocol: defaultProtocol,
	}
}

func (h *WSHandler) RegisterRoutes(r gin.IRouter, auth *middleware.AuthMiddleware) {
	r.GET("/ws/chat/:room_name/", auth.OptionalAuth(), h.HandleWebSocket)
}

// denyStatus maps a connect denial to the handshake response status.
func denyStatus(reason domain.DenyReason) int {
	switch reason {
	case domain.DenyAuthenticationRequired:
		return http.StatusUnauthorized
	case domain.DenyChannelNotFound:
		return http.StatusNotFound
	case domain.DenyInvalidRoomFormat, domain.DenyInvalidProtocol:
		return http.StatusBadRequest
	case domain.DenyConnectionFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusForbidden
	}
}

func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	identity := domain.Identity{
		UserID:   middleware.GetUserID(c),
		Email:    middleware.GetEmail(c),
		Username: middleware.GetUsername(c),
	}
	protocol := c.DefaultQuery(ProtocolQueryKey, h.defaultProtocol)
	roomName := c.Param("room_name")

	clientID := uuid.New().String()
	parent := log.Ctx(c.Request.Context())
	logger := parent.With().
		Str(log.FieldClientID, clientID).
		Str(log.FieldRoomKey, roomName).
		Str(log.FieldUserID, identity.UserID).
		Logger()
	ctx := log.WithLogger(c.Request.Context(), logger)

	client := hub.NewClient(clientID, domain.NewSession(clientID, identity, protocol), h.wsCfg)

	if err := h.service.Connect(ctx, client, roomName); err != nil {
		de, ok := domain.AsDenyError(err)
		if !ok {
			de = domain.NewDenyError(domain.DenyConnectionFailed, "Connection failed: "+err.Error())
		}
		logger.Info().Str("reason", string(de.Reason)).Msg("chat connection denied")
		response.Reject(c, denyStatus(de.Reason), string(de.Reason), de.Detail)
		return
	}

	// Connection outlives the request; frame handling must not be cancelled
	// with it.
	connCtx := context.WithoutCancel(ctx)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("websocket upgrade failed")
		h.service.HandleDisconnect(connCtx, client)
		h.hub.Unregister(client)
		return
	}

	client.Attach(conn)
	client.Session.Accept()
	h.hub.Register(client)
	logger.Info().Str("protocol", protocol).Msg("chat connection accepted")

	go client.WritePump()
	client.ReadPump(
		func(cl *hub.Client, frame []byte) {
			h.service.HandleFrame(connCtx, cl, frame)
		},
		func(cl *hub.Client) {
			h.service.HandleDisconnect(connCtx, cl)
			h.hub.Unregister(cl)
		},
	)
}
