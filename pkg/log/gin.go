package log

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const headerRequestID = "X-Request-ID"

// GinMiddleware returns a Gin middleware that:
//  1. Generates or reads a request ID from X-Request-ID header.
//  2. Creates a child logger with request metadata and injects it into context.
//  3. Sets the X-Request-ID response header.
//  4. Logs the completed request with status, latency, and actor info.
//
// A websocket handler holds the request until the socket closes, so an
// upgraded request is logged as "websocket closed" and its latency is the
// lifetime of the connection.
func GinMiddleware(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.GetHeader(headerRequestID)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		child := logger.With().
			Str(FieldRequestID, reqID).
			Str(FieldMethod, c.Request.Method).
			Str(FieldPath, c.Request.URL.Path).
			Str(FieldClientIP, c.ClientIP()).
			Logger()

		c.Header(headerRequestID, reqID)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), child))

		c.Next()

		status := c.Writer.Status()
		// The upgrade response goes out on the hijacked connection, so the
		// writer still reports 200 for an accepted websocket.
		upgraded := c.IsWebsocket() && status == http.StatusOK
		if upgraded {
			status = http.StatusSwitchingProtocols
		}
		evt := child.Info().
			Int(FieldStatus, status).
			Float64(FieldLatency, float64(time.Since(start).Milliseconds()))

		// Read actor info set by auth middleware after c.Next().
		if userID := c.GetString(FieldUserID); userID != "" {
			evt = evt.Str(FieldUserID, userID)
		}
		if username := c.GetString(FieldUsername); username != "" {
			evt = evt.Str(FieldUsername, username)
		}

		if upgraded {
			evt.Msg("websocket closed")
			return
		}
		evt.Msg("request completed")
	}
}
