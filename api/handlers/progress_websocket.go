package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/app"
	"github.com/yourusername/vimeograb-go/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Server binds to localhost only
	},
}

// ProgressWebSocketHandler streams download progress events to clients
type ProgressWebSocketHandler struct {
	sessionMgr *app.SessionManager
	logger     *zap.Logger
}

// NewProgressWebSocketHandler creates a new WebSocket handler
func NewProgressWebSocketHandler(sessionMgr *app.SessionManager, logger *zap.Logger) *ProgressWebSocketHandler {
	return &ProgressWebSocketHandler{
		sessionMgr: sessionMgr,
		logger:     logger,
	}
}

// HandleWebSocket handles GET /api/v1/downloads/:id/progress. Events for the
// download are forwarded until a terminal event arrives or the client goes
// away.
func (h *ProgressWebSocketHandler) HandleWebSocket(c *gin.Context) {
	downloadID := c.Param("id")

	if _, err := h.sessionMgr.GetDownload(downloadID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	h.logger.Info("WebSocket client connected",
		zap.String("download_id", downloadID),
		zap.String("remote_addr", c.Request.RemoteAddr))

	// Bus callbacks run on the publisher's goroutine; hand events over a
	// buffered channel so a slow client cannot stall the download worker.
	// Progress updates may be dropped when the client lags, but the terminal
	// event gets its own slot and is always delivered.
	eventChan := make(chan app.DownloadEvent, 64)
	terminalChan := make(chan app.DownloadEvent, 1)
	forward := func(event app.DownloadEvent) {
		if event.Type != "progress" {
			select {
			case terminalChan <- event:
			default:
			}
			return
		}
		select {
		case eventChan <- event:
		default:
		}
	}

	if err := h.sessionMgr.SubscribeDownload(downloadID, forward); err != nil {
		h.logger.Error("Failed to subscribe to download events", zap.Error(err))
		return
	}
	defer h.sessionMgr.UnsubscribeDownload(downloadID, forward)

	// The download may already have finished, or finish between the lookup
	// above and the subscription. The record is written before the terminal
	// event is published, so re-checking it here guarantees the client sees
	// the outcome either way.
	if download, err := h.sessionMgr.GetDownload(downloadID); err == nil && download.IsTerminal() {
		if err := conn.WriteJSON(terminalEventFor(download)); err != nil {
			h.logger.Debug("Failed to send stored outcome", zap.Error(err))
		}
		return
	}

	// Read messages from client (for ping/pong and close detection)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event := <-terminalChan:
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("Failed to send terminal event", zap.Error(err))
			}
			// Nothing more will arrive.
			return

		case event := <-eventChan:
			if err := conn.WriteJSON(event); err != nil {
				h.logger.Debug("Failed to send progress event", zap.Error(err))
				return
			}

		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-done:
			return
		}
	}
}

// terminalEventFor rebuilds the terminal event from a stored download record
func terminalEventFor(d *domain.Download) app.DownloadEvent {
	event := app.DownloadEvent{DownloadID: d.ID}
	switch d.Status {
	case domain.StatusCompleted:
		event.Type = "completed"
		event.FilePath = d.FilePath
	case domain.StatusCancelled:
		event.Type = "cancelled"
	default:
		event.Type = "failed"
		event.Error = d.ErrorMessage
	}
	return event
}
