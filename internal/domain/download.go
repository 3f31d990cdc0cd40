package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadStatus represents the current status of a download
type DownloadStatus string

const (
	StatusQueued     DownloadStatus = "queued"
	StatusProcessing DownloadStatus = "processing"
	StatusCompleted  DownloadStatus = "completed"
	StatusFailed     DownloadStatus = "failed"
	StatusCancelled  DownloadStatus = "cancelled"
)

// Download represents one download task and its recorded outcome
type Download struct {
	ID        string         `json:"id" gorm:"primaryKey"`
	SessionID string         `json:"session_id" gorm:"index"`
	URL       string         `json:"url" gorm:"not null"`
	Title     string         `json:"title,omitempty"`
	Quality   string         `json:"quality"`
	Status    DownloadStatus `json:"status" gorm:"not null;index"`
	// AuthSource and TransportRelaxed record the flags negotiated during the
	// information fetch and reused for this download.
	AuthSource       string     `json:"auth_source,omitempty"`
	TransportRelaxed bool       `json:"transport_relaxed"`
	Directory        string     `json:"directory"`
	FilePath         string     `json:"file_path,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
	OutputTail       string     `json:"output_tail,omitempty" gorm:"type:text"`
	CreatedAt        time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// NewDownload creates a download task for a negotiated session
func NewDownload(session *FetchSession, title, quality, directory string) *Download {
	return &Download{
		ID:               uuid.New().String(),
		SessionID:        session.ID,
		URL:              session.URL,
		Title:            title,
		Quality:          quality,
		Status:           StatusQueued,
		AuthSource:       session.AuthSource(),
		TransportRelaxed: session.TransportRelaxed(),
		Directory:        directory,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// MarkProcessing marks the download as processing
func (d *Download) MarkProcessing() {
	d.Status = StatusProcessing
	now := time.Now()
	d.StartedAt = &now
	d.UpdatedAt = now
}

// MarkCompleted marks the download as completed. On success the recorded
// file path is the only result reference; no partial output is kept.
func (d *Download) MarkCompleted(filePath string) {
	d.Status = StatusCompleted
	d.FilePath = filePath
	now := time.Now()
	d.CompletedAt = &now
	d.UpdatedAt = now
}

// MarkFailed marks the download as failed with a descriptive message
func (d *Download) MarkFailed(err error) {
	d.Status = StatusFailed
	d.ErrorMessage = err.Error()
	d.FilePath = ""
	d.UpdatedAt = time.Now()
}

// MarkCancelled marks the download as cancelled. Cancellation is a distinct
// terminal state, never a failure.
func (d *Download) MarkCancelled() {
	d.Status = StatusCancelled
	d.FilePath = ""
	d.UpdatedAt = time.Now()
}

// IsTerminal checks if the download is in a terminal state
func (d *Download) IsTerminal() bool {
	switch d.Status {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// IsProcessing checks if the download is currently processing
func (d *Download) IsProcessing() bool {
	return d.Status == StatusProcessing
}
