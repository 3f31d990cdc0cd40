package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/domain"
	"github.com/yourusername/vimeograb-go/internal/infrastructure"
	"github.com/yourusername/vimeograb-go/pkg/logger"
)

// DownloadEvent is published on the event bus for each progress update and
// once more when the download reaches a terminal state.
type DownloadEvent struct {
	DownloadID string           `json:"download_id"`
	Type       string           `json:"type"` // progress, completed, failed, cancelled
	Progress   *domain.Progress `json:"progress,omitempty"`
	FilePath   string           `json:"file_path,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// FetchResult is what an information fetch hands back to callers
type FetchResult struct {
	SessionID        string                 `json:"session_id"`
	Title            string                 `json:"title"`
	Duration         float64                `json:"duration"`
	AuthSource       string                 `json:"auth_source,omitempty"`
	TransportRelaxed bool                   `json:"transport_relaxed"`
	Qualities        []domain.QualityOption `json:"qualities"`
}

type sessionState struct {
	session *domain.FetchSession
	info    *domain.VideoInfo
}

// SessionManager owns the single in-flight operation: either an information
// fetch or a download, never both. The background worker reports back only
// through the event bus and the repository; cancellation is cooperative via
// the stored context.
type SessionManager struct {
	fetcher    domain.InfoFetcher
	downloader domain.VideoDownloader
	repo       domain.DownloadRepository
	notifier   *infrastructure.NotificationService
	config     *domain.DownloadConfig
	bus        EventBus.Bus
	events     *logger.MultiLogger
	logger     *zap.Logger

	mu       sync.Mutex
	inFlight bool
	cancel   context.CancelFunc
	sessions map[string]*sessionState
}

// NewSessionManager creates a session manager
func NewSessionManager(
	fetcher domain.InfoFetcher,
	downloader domain.VideoDownloader,
	repo domain.DownloadRepository,
	notifier *infrastructure.NotificationService,
	config *domain.DownloadConfig,
	events *logger.MultiLogger,
	log *zap.Logger,
) *SessionManager {
	return &SessionManager{
		fetcher:    fetcher,
		downloader: downloader,
		repo:       repo,
		notifier:   notifier,
		config:     config,
		bus:        EventBus.New(),
		events:     events,
		logger:     log,
		sessions:   make(map[string]*sessionState),
	}
}

// logSessionEvent records a lifecycle event in the session category file
func (m *SessionManager) logSessionEvent(event string, fields ...zap.Field) {
	if m.events != nil {
		m.events.LogSessionEvent(event, fields...)
	}
}

// logAppError records a failure in the error category file
func (m *SessionManager) logAppError(msg string, fields ...zap.Field) {
	if m.events != nil {
		m.events.LogAppError(msg, fields...)
	}
}

// beginOperation claims the in-flight slot and returns the operation context
func (m *SessionManager) beginOperation() (context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return nil, domain.ErrOperationInFlight
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.inFlight = true
	m.cancel = cancel
	return ctx, nil
}

func (m *SessionManager) endOperation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.inFlight = false
}

// Active reports whether an operation is in flight
func (m *SessionManager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inFlight
}

// Cancel requests cancellation of the in-flight operation
func (m *SessionManager) Cancel() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inFlight || m.cancel == nil {
		return fmt.Errorf("no operation in progress")
	}
	m.cancel()
	return nil
}

// FetchInfo runs the information fetch for a URL, creating a session whose
// negotiated auth/transport flags the later download reuses
func (m *SessionManager) FetchInfo(url string) (*FetchResult, error) {
	if err := domain.ValidateURL(url); err != nil {
		return nil, err
	}

	ctx, err := m.beginOperation()
	if err != nil {
		return nil, err
	}
	defer m.endOperation()

	session := domain.NewFetchSession(url)
	m.logger.Info("fetching video information",
		zap.String("session_id", session.ID),
		zap.String("url", url))
	m.logSessionEvent("fetch started",
		zap.String("session_id", session.ID),
		zap.String("url", url))

	info, err := m.fetcher.FetchInfo(ctx, session)
	if err != nil {
		m.logAppError("information fetch failed",
			zap.String("session_id", session.ID),
			zap.String("url", url),
			zap.Error(err))
		return nil, err
	}

	m.logSessionEvent("fetch completed",
		zap.String("session_id", session.ID),
		zap.String("title", info.Title),
		zap.String("auth_source", session.AuthSource()),
		zap.Bool("transport_relaxed", session.TransportRelaxed()))

	m.mu.Lock()
	m.sessions[session.ID] = &sessionState{session: session, info: info}
	m.mu.Unlock()

	return &FetchResult{
		SessionID:        session.ID,
		Title:            info.Title,
		Duration:         info.Duration,
		AuthSource:       session.AuthSource(),
		TransportRelaxed: session.TransportRelaxed(),
		Qualities:        info.QualityOptions(),
	}, nil
}

// StartDownload launches the download for a previously fetched session in a
// background worker and returns the queued record immediately
func (m *SessionManager) StartDownload(sessionID, quality, directory string) (*domain.Download, error) {
	m.mu.Lock()
	state, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("unknown session: %s", sessionID)
	}

	if directory == "" {
		directory = m.config.DefaultDir
	}
	if info, err := os.Stat(directory); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid download directory: %s", directory)
	}
	if quality == "" {
		quality = "best"
	}

	ctx, err := m.beginOperation()
	if err != nil {
		return nil, err
	}

	download := domain.NewDownload(state.session, state.info.Title, quality, directory)
	if err := m.repo.Create(download); err != nil {
		m.endOperation()
		return nil, fmt.Errorf("failed to record download: %w", err)
	}

	go m.runDownload(ctx, state, download)

	return download, nil
}

func (m *SessionManager) runDownload(ctx context.Context, state *sessionState, download *domain.Download) {
	defer m.endOperation()

	download.MarkProcessing()
	m.updateRecord(download)

	m.logger.Info("download started",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("quality", download.Quality),
		zap.String("auth_source", download.AuthSource))
	m.logSessionEvent("download started",
		zap.String("id", download.ID),
		zap.String("url", download.URL),
		zap.String("quality", download.Quality))

	onProgress := func(p domain.Progress) {
		m.publish(DownloadEvent{
			DownloadID: download.ID,
			Type:       "progress",
			Progress:   &p,
		})
	}

	filePath, err := m.downloader.DownloadVideo(ctx, state.session, download.Quality, download.Directory, onProgress)

	switch {
	case errors.Is(err, domain.ErrCancelled):
		download.MarkCancelled()
		m.updateRecord(download)
		m.logger.Info("download cancelled", zap.String("id", download.ID))
		m.logSessionEvent("download cancelled", zap.String("id", download.ID))
		m.publish(DownloadEvent{DownloadID: download.ID, Type: "cancelled"})

	case err != nil:
		download.MarkFailed(err)
		var failure *domain.DownloadFailedError
		if errors.As(err, &failure) {
			download.OutputTail = failure.Tail
		}
		m.updateRecord(download)
		m.logger.Error("download failed",
			zap.String("id", download.ID),
			zap.Error(err))
		m.logSessionEvent("download failed", zap.String("id", download.ID))
		m.logAppError("download failed",
			zap.String("id", download.ID),
			zap.String("url", download.URL),
			zap.Error(err))
		m.publish(DownloadEvent{DownloadID: download.ID, Type: "failed", Error: err.Error()})
		if m.notifier != nil {
			m.notifier.NotifyDownloadFailed(download.Title)
		}

	default:
		download.MarkCompleted(filePath)
		m.updateRecord(download)
		m.logger.Info("download completed",
			zap.String("id", download.ID),
			zap.String("file", filePath))
		m.logSessionEvent("download completed",
			zap.String("id", download.ID),
			zap.String("file", filePath))
		m.publish(DownloadEvent{DownloadID: download.ID, Type: "completed", FilePath: filePath})
		if m.notifier != nil {
			m.notifier.NotifyDownloadCompleted(download.Title, filePath)
		}
	}
}

func (m *SessionManager) updateRecord(download *domain.Download) {
	if err := m.repo.Update(download); err != nil {
		m.logger.Error("failed to update download record",
			zap.String("id", download.ID),
			zap.Error(err))
	}
}

func (m *SessionManager) publish(event DownloadEvent) {
	m.bus.Publish(downloadTopic(event.DownloadID), event)
}

// SubscribeDownload registers a callback for one download's events
func (m *SessionManager) SubscribeDownload(downloadID string, fn func(DownloadEvent)) error {
	return m.bus.Subscribe(downloadTopic(downloadID), fn)
}

// UnsubscribeDownload removes a previously registered callback
func (m *SessionManager) UnsubscribeDownload(downloadID string, fn func(DownloadEvent)) error {
	return m.bus.Unsubscribe(downloadTopic(downloadID), fn)
}

// GetDownload retrieves a download record by ID
func (m *SessionManager) GetDownload(id string) (*domain.Download, error) {
	return m.repo.FindByID(id)
}

// ListDownloads lists download records with optional filters
func (m *SessionManager) ListDownloads(filters map[string]interface{}) ([]*domain.Download, error) {
	return m.repo.FindAll(filters)
}

// DeleteDownload removes a download record from history
func (m *SessionManager) DeleteDownload(id string) error {
	return m.repo.Delete(id)
}

// GetStats returns download statistics
func (m *SessionManager) GetStats() (*domain.DownloadStats, error) {
	return m.repo.GetStats()
}

func downloadTopic(id string) string {
	return "download:" + id
}
