package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/vimeograb-go/internal/app"
	"github.com/yourusername/vimeograb-go/internal/infrastructure"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	sessionMgr *app.SessionManager
	toolchain  *infrastructure.Toolchain
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(sessionMgr *app.SessionManager, toolchain *infrastructure.Toolchain) *HealthHandler {
	return &HealthHandler{
		sessionMgr: sessionMgr,
		toolchain:  toolchain,
	}
}

// HealthResponse represents a health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Operation struct {
		Active bool `json:"active"`
	} `json:"operation"`
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}
	response.Operation.Active = h.sessionMgr.Active()

	c.JSON(http.StatusOK, response)
}

// Ready handles GET /ready. The service is only useful when the extraction
// tool can actually be launched.
func (h *HealthHandler) Ready(c *gin.Context) {
	if !h.toolchain.CheckYTDLP(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "yt-dlp not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"ffmpeg": h.toolchain.CheckFFmpeg(c.Request.Context()),
	})
}
