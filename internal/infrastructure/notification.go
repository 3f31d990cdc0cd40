package infrastructure

import (
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

// NotificationService sends desktop notifications for terminal download states
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		return nil
	}

	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification %q with title %q`, message, title)
		return n.run("osascript", "-e", script)
	case "notify-send":
		return n.run("notify-send", title, message)
	default:
		n.logger.Warn("unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

func (n *NotificationService) run(name string, args ...string) error {
	if err := exec.Command(name, args...).Run(); err != nil {
		n.logger.Debug("notification delivery failed",
			zap.String("method", name),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyDownloadCompleted sends a notification with the final file path
func (n *NotificationService) NotifyDownloadCompleted(title, filePath string) {
	n.Send("Download Complete", fmt.Sprintf("%s\nSaved to: %s", truncateString(title, 40), filePath))
}

// NotifyDownloadFailed sends a notification when a download fails
func (n *NotificationService) NotifyDownloadFailed(title string) {
	n.Send("Download Failed", truncateString(title, 40))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(s[:maxLen]) + "..."
}
