package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDownload_CarriesSessionFlags(t *testing.T) {
	session := NewFetchSession("https://vimeo.com/12345")
	session.SetAuth([]string{"--cookies-from-browser", "edge"}, "browser:edge")
	session.SetTransportArgs([]string{"--no-check-certificate"})

	d := NewDownload(session, "Test Video", "1080", "/tmp/out")

	assert.NotEmpty(t, d.ID)
	assert.Equal(t, session.ID, d.SessionID)
	assert.Equal(t, "https://vimeo.com/12345", d.URL)
	assert.Equal(t, "browser:edge", d.AuthSource)
	assert.True(t, d.TransportRelaxed)
	assert.Equal(t, StatusQueued, d.Status)
	assert.False(t, d.IsTerminal())
}

func TestDownloadLifecycle(t *testing.T) {
	session := NewFetchSession("https://vimeo.com/12345")
	d := NewDownload(session, "Test", "best", "/tmp")

	d.MarkProcessing()
	assert.Equal(t, StatusProcessing, d.Status)
	assert.True(t, d.IsProcessing())
	require.NotNil(t, d.StartedAt)

	d.MarkCompleted("/tmp/Test.mp4")
	assert.Equal(t, StatusCompleted, d.Status)
	assert.Equal(t, "/tmp/Test.mp4", d.FilePath)
	assert.True(t, d.IsTerminal())
	require.NotNil(t, d.CompletedAt)
}

func TestMarkFailed_ClearsFilePath(t *testing.T) {
	session := NewFetchSession("https://vimeo.com/12345")
	d := NewDownload(session, "Test", "best", "/tmp")
	d.FilePath = "/tmp/partial.mp4"

	d.MarkFailed(errors.New("network error"))

	assert.Equal(t, StatusFailed, d.Status)
	assert.Equal(t, "network error", d.ErrorMessage)
	assert.Empty(t, d.FilePath)
	assert.True(t, d.IsTerminal())
}

func TestMarkCancelled_IsNotFailure(t *testing.T) {
	session := NewFetchSession("https://vimeo.com/12345")
	d := NewDownload(session, "Test", "best", "/tmp")

	d.MarkCancelled()

	assert.Equal(t, StatusCancelled, d.Status)
	assert.Empty(t, d.ErrorMessage)
	assert.True(t, d.IsTerminal())
}
