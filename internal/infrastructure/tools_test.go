package infrastructure

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

func TestToolchain_ResolvePrefersToolsDir(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "yt-dlp")
	require.NoError(t, os.WriteFile(binary, []byte("#!/bin/sh\n"), 0755))

	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "yt-dlp", Dir: dir})
	assert.Equal(t, binary, tc.YTDLPPath())
}

func TestToolchain_ResolveFallsBackToName(t *testing.T) {
	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "yt-dlp", Dir: t.TempDir()})
	assert.Equal(t, "yt-dlp", tc.YTDLPPath())
}

func TestToolchain_ResolveKeepsAbsolutePath(t *testing.T) {
	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "/opt/tools/yt-dlp", Dir: t.TempDir()})
	assert.Equal(t, "/opt/tools/yt-dlp", tc.YTDLPPath())
}

func TestToolchain_EnvironStripsInjectionVars(t *testing.T) {
	t.Setenv("YT_DLP_ARGS", "--proxy http://evil")
	t.Setenv("YTDLP_ARGS", "--no-check-certificate")
	t.Setenv("YOUTUBE_DL_OPTIONS", "--something")

	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "yt-dlp"})

	for _, kv := range tc.Environ() {
		assert.False(t, strings.HasPrefix(kv, "YT_DLP_ARGS="))
		assert.False(t, strings.HasPrefix(kv, "YTDLP_ARGS="))
		assert.False(t, strings.HasPrefix(kv, "YOUTUBE_DL_OPTIONS="))
	}
}

func TestToolchain_EnvironPrependsToolsDirToPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", "/usr/bin:/bin")

	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "yt-dlp", Dir: dir})

	var pathValue string
	for _, kv := range tc.Environ() {
		if strings.HasPrefix(kv, "PATH=") {
			pathValue = strings.TrimPrefix(kv, "PATH=")
		}
	}
	require.NotEmpty(t, pathValue)
	assert.True(t, strings.HasPrefix(pathValue, dir+string(os.PathListSeparator)))
}

func TestToolchain_EnvironDoesNotDuplicatePathEntry(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir+string(os.PathListSeparator)+"/usr/bin")

	tc := NewToolchain(&domain.ToolsConfig{YTDLPBinary: "yt-dlp", Dir: dir})

	for _, kv := range tc.Environ() {
		if strings.HasPrefix(kv, "PATH=") {
			value := strings.TrimPrefix(kv, "PATH=")
			assert.Equal(t, 1, strings.Count(value, dir))
		}
	}
}
