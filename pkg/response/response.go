package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success sends a successful response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized sends a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// Forbidden sends a 403 error response.
func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "FORBIDDEN", message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// Rejection is the flat body sent when a websocket handshake is refused
// before the upgrade. Chat clients read error and code at the top level, so
// it does not use the Response envelope.
type Rejection struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Reject aborts the request with a Rejection body.
func Reject(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, Rejection{
		Error: message,
		Code:  code,
	})
}

// Page is the envelope for cursor-paginated lists.
type Page struct {
	Items      interface{} `json:"items"`
	NextCursor string      `json:"next_cursor"`
	HasMore    bool        `json:"has_more"`
}

// Paginated sends a 200 response wrapping items in a Page.
func Paginated(c *gin.Context, items interface{}, nextCursor string, hasMore bool) {
	Success(c, Page{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
