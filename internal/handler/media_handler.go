package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/weiawesome/asg-rev/pkg/storage"
)

// MediaHandler serves attachments written to local storage.
type MediaHandler struct {
	prefix string
	root   string
}

func NewMediaHandler(prefix string, local *storage.LocalStorage) *MediaHandler {
	if prefix == "" {
		prefix = "/media"
	}
	return &MediaHandler{prefix: prefix, root: local.BasePath()}
}

func (h *MediaHandler) RegisterRoutes(r *gin.Engine) {
	r.Static(h.prefix, h.root)
}
