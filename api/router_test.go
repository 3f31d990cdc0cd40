package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/app"
	"github.com/yourusername/vimeograb-go/internal/domain"
	"github.com/yourusername/vimeograb-go/internal/infrastructure"
)

type stubFetcher struct {
	err error
}

func (s *stubFetcher) FetchInfo(ctx context.Context, session *domain.FetchSession) (*domain.VideoInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	session.SetAuth([]string{"--cookies-from-browser", "chrome"}, "browser:chrome")
	return &domain.VideoInfo{
		ID:       "12345",
		Title:    "Test Video",
		Duration: 42.5,
		Formats: []domain.VideoFormat{
			{FormatID: "hls-1080", Height: 1080, VCodec: "avc1"},
		},
	}, nil
}

type stubDownloader struct{}

func (s *stubDownloader) DownloadVideo(ctx context.Context, session *domain.FetchSession, quality, destDir string, onProgress domain.ProgressHandler) (string, error) {
	return filepath.Join(destDir, "Test Video.mp4"), nil
}

type failingDownloader struct {
	err error
}

func (s *failingDownloader) DownloadVideo(ctx context.Context, session *domain.FetchSession, quality, destDir string, onProgress domain.ProgressHandler) (string, error) {
	return "", s.err
}

// floodingDownloader blocks until released, then reports far more progress
// updates than any client buffer holds before failing.
type floodingDownloader struct {
	release chan struct{}
}

func (s *floodingDownloader) DownloadVideo(ctx context.Context, session *domain.FetchSession, quality, destDir string, onProgress domain.ProgressHandler) (string, error) {
	<-s.release
	for i := 0; i < 500; i++ {
		onProgress(domain.Progress{Phase: domain.PhaseTransfer, Percent: float64(i % 100)})
	}
	return "", &domain.DownloadFailedError{Tail: "ERROR: HTTP Error 403: Forbidden"}
}

func newTestRouter(t *testing.T, fetcher domain.InfoFetcher) (*gin.Engine, *app.SessionManager) {
	return newTestRouterWith(t, fetcher, &stubDownloader{})
}

func newTestRouterWith(t *testing.T, fetcher domain.InfoFetcher, downloader domain.VideoDownloader) (*gin.Engine, *app.SessionManager) {
	t.Helper()

	repo, err := infrastructure.NewSQLiteDownloadRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	mgr := app.NewSessionManager(
		fetcher,
		downloader,
		repo,
		nil,
		&domain.DownloadConfig{DefaultDir: t.TempDir(), TailLines: 200},
		nil,
		zap.NewNop(),
	)

	toolchain := infrastructure.NewToolchain(&domain.ToolsConfig{
		YTDLPBinary:  "definitely-not-installed-yt-dlp",
		FFmpegBinary: "definitely-not-installed-ffmpeg",
	})

	return SetupRouter(mgr, toolchain, zap.NewNop(), t.TempDir()), mgr
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(data)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestReadyEndpoint_ToolMissing(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestInfoEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{
		"url": "https://vimeo.com/12345",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Test Video", resp["title"])
	assert.Equal(t, "browser:chrome", resp["auth_source"])
	assert.NotEmpty(t, resp["session_id"])

	qualities, ok := resp["qualities"].([]interface{})
	require.True(t, ok)
	assert.Len(t, qualities, 3) // best, 1080, worst
}

func TestInfoEndpoint_MissingURL(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfoEndpoint_UnsupportedURL(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{
		"url": "https://example.com/watch?v=1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInfoEndpoint_LoginRequired(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{err: domain.ErrLoginRequired})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{
		"url": "https://vimeo.com/12345",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestDownloadEndpoint_UnknownSession(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/downloads", map[string]string{
		"session_id": "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadFlow(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	// Fetch info to establish a session
	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{
		"url": "https://vimeo.com/12345",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	sessionID := info["session_id"].(string)

	// Start the download
	rec = doJSON(t, router, http.MethodPost, "/api/v1/downloads", map[string]string{
		"session_id": sessionID,
		"quality":    "1080",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	downloadID := created["id"].(string)
	assert.Equal(t, "browser:chrome", created["auth_source"])

	// Record is retrievable
	rec = doJSON(t, router, http.MethodGet, "/api/v1/downloads/"+downloadID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// And listed
	rec = doJSON(t, router, http.MethodGet, "/api/v1/downloads", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var list []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestGetDownload_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/downloads/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelDownload_NotFound(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodPost, "/api/v1/downloads/missing/cancel", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/logs/categories", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/logs/session", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/logs/nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// startDownloadOver runs the info + download requests against a live server
// and returns the new download's ID.
func startDownloadOver(t *testing.T, router *gin.Engine) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/v1/info", map[string]string{
		"url": "https://vimeo.com/12345",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))

	rec = doJSON(t, router, http.MethodPost, "/api/v1/downloads", map[string]string{
		"session_id": info["session_id"].(string),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created["id"].(string)
}

func dialProgress(t *testing.T, srv *httptest.Server, downloadID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/downloads/" + downloadID + "/progress"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	return conn
}

type progressEvent struct {
	Type     string `json:"type"`
	FilePath string `json:"file_path"`
	Error    string `json:"error"`
}

func TestProgressSocket_DeliversOutcomeForFinishedDownload(t *testing.T) {
	router, mgr := newTestRouterWith(t, &stubFetcher{}, &failingDownloader{
		err: &domain.DownloadFailedError{Tail: "ERROR: HTTP Error 403: Forbidden"},
	})
	srv := httptest.NewServer(router)
	defer srv.Close()

	downloadID := startDownloadOver(t, router)

	// Let the download finish before any client connects
	require.Eventually(t, func() bool {
		d, err := mgr.GetDownload(downloadID)
		return err == nil && d.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	conn := dialProgress(t, srv, downloadID)

	var event progressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "failed", event.Type)
	assert.Contains(t, event.Error, "403")
}

func TestProgressSocket_DeliversOutcomeForCompletedDownload(t *testing.T) {
	router, mgr := newTestRouterWith(t, &stubFetcher{}, &stubDownloader{})
	srv := httptest.NewServer(router)
	defer srv.Close()

	downloadID := startDownloadOver(t, router)

	require.Eventually(t, func() bool {
		d, err := mgr.GetDownload(downloadID)
		return err == nil && d.IsTerminal()
	}, 5*time.Second, 10*time.Millisecond)

	conn := dialProgress(t, srv, downloadID)

	var event progressEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "completed", event.Type)
	assert.Contains(t, event.FilePath, "Test Video.mp4")
}

func TestProgressSocket_TerminalEventSurvivesProgressFlood(t *testing.T) {
	downloader := &floodingDownloader{release: make(chan struct{})}
	router, _ := newTestRouterWith(t, &stubFetcher{}, downloader)
	srv := httptest.NewServer(router)
	defer srv.Close()

	downloadID := startDownloadOver(t, router)

	conn := dialProgress(t, srv, downloadID)
	close(downloader.release)

	// The client reads slower than events arrive; dropped progress updates
	// are fine but the terminal event must come through.
	for {
		var event progressEvent
		require.NoError(t, conn.ReadJSON(&event))
		if event.Type == "progress" {
			continue
		}
		assert.Equal(t, "failed", event.Type)
		assert.Contains(t, event.Error, "403")
		return
	}
}

func TestStatsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, &stubFetcher{})

	rec := doJSON(t, router, http.MethodGet, "/api/v1/downloads/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, float64(0), stats["total"])
}
