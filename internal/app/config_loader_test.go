package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 200, config.Download.TailLines)
	assert.Equal(t, 60*time.Second, config.Download.InfoTimeout)
	assert.Equal(t, "yt-dlp", config.Tools.YTDLPBinary)
	assert.Equal(t, "info", config.Logging.Level)

	// Paths are expanded, not left with $HOME placeholders
	assert.NotContains(t, config.Download.DefaultDir, "$HOME")
	assert.NotContains(t, config.Auth.CookieFile, "$HOME")
}

func TestLoadConfig_FromFile(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	content := `
server:
  host: 127.0.0.1
  port: 9090
download:
  default_dir: /tmp/videos
  tail_lines: 50
tools:
  ytdlp_binary: /opt/yt-dlp/yt-dlp
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

	config, err := LoadConfig(configFile)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", config.Server.Host)
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "/tmp/videos", config.Download.DefaultDir)
	assert.Equal(t, 50, config.Download.TailLines)
	assert.Equal(t, "/opt/yt-dlp/yt-dlp", config.Tools.YTDLPBinary)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadConfig_EnvOverridesPort(t *testing.T) {
	t.Setenv("VIMEOGRAB_SERVER_PORT", "9191")

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 9191, config.Server.Port)
}

func TestLoadConfig_InvalidPort(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("server:\n  port: 99999\n"), 0644))

	_, err := LoadConfig(configFile)
	assert.Error(t, err)
}

func TestLoadConfig_InvalidTailLines(t *testing.T) {
	dir := t.TempDir()
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("download:\n  tail_lines: 0\n"), 0644))

	_, err := LoadConfig(configFile)
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Downloads"), expandPath("~/Downloads"))
	assert.Equal(t, home+"/logs", expandPath("$HOME/logs"))
	assert.Equal(t, "/absolute/path", expandPath("/absolute/path"))
}
