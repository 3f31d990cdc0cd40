package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/app"
	"github.com/yourusername/vimeograb-go/internal/domain"
)

// InfoHandler handles video information requests
type InfoHandler struct {
	sessionMgr *app.SessionManager
	logger     *zap.Logger
}

// NewInfoHandler creates a new info handler
func NewInfoHandler(sessionMgr *app.SessionManager, logger *zap.Logger) *InfoHandler {
	return &InfoHandler{
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

// FetchInfoRequest represents a request to fetch video information
type FetchInfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// FetchInfo handles POST /api/v1/info. This is a blocking call: the
// extraction tool runs, possibly several times while credentials are
// negotiated, before the response is written.
func (h *InfoHandler) FetchInfo(c *gin.Context) {
	var req FetchInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.sessionMgr.FetchInfo(req.URL)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedURL):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrOperationInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrLoginRequired):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrToolMissing):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			h.logger.Error("Failed to fetch video info", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
