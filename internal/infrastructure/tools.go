package infrastructure

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

// Environment variables that inject extra arguments into the extraction
// tool. Stripped so invocations stay reproducible.
var strippedEnvVars = []string{"YT_DLP_ARGS", "YTDLP_ARGS", "YOUTUBE_DL_OPTIONS"}

// Toolchain resolves the external extraction and media tools
type Toolchain struct {
	config *domain.ToolsConfig
}

// NewToolchain creates a toolchain from configuration
func NewToolchain(config *domain.ToolsConfig) *Toolchain {
	return &Toolchain{config: config}
}

// YTDLPPath returns the extraction tool executable: the configured absolute
// path, a copy in the tools dir, or the bare name for PATH lookup.
func (t *Toolchain) YTDLPPath() string {
	return t.resolve(t.config.YTDLPBinary)
}

// FFmpegPath returns the media tool executable, or an empty string when it
// cannot be found anywhere.
func (t *Toolchain) FFmpegPath() string {
	resolved := t.resolve(t.config.FFmpegBinary)
	if filepath.IsAbs(resolved) {
		return resolved
	}
	if found, err := exec.LookPath(resolved); err == nil {
		return found
	}
	return ""
}

// FFmpegDir returns the directory passed as --ffmpeg-location, empty when
// ffmpeg is not available.
func (t *Toolchain) FFmpegDir() string {
	if path := t.FFmpegPath(); path != "" {
		return filepath.Dir(path)
	}
	return ""
}

func (t *Toolchain) resolve(binary string) string {
	if binary == "" {
		return binary
	}
	if filepath.IsAbs(binary) {
		return binary
	}
	if t.config.Dir != "" {
		candidate := filepath.Join(t.config.Dir, binary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		if info, err := os.Stat(candidate + ".exe"); err == nil && !info.IsDir() {
			return candidate + ".exe"
		}
	}
	return binary
}

// Environ returns the subprocess environment: the tools dir prepended to
// PATH and argument-injecting variables removed.
func (t *Toolchain) Environ() []string {
	env := os.Environ()
	out := make([]string, 0, len(env))
	for _, kv := range env {
		key := kv
		if idx := strings.IndexByte(kv, '='); idx >= 0 {
			key = kv[:idx]
		}
		if isStrippedEnvVar(key) {
			continue
		}
		if t.config.Dir != "" && strings.EqualFold(key, "PATH") {
			value := kv[len(key)+1:]
			if !containsPathEntry(value, t.config.Dir) {
				kv = key + "=" + t.config.Dir + string(os.PathListSeparator) + value
			}
		}
		out = append(out, kv)
	}
	return out
}

func isStrippedEnvVar(key string) bool {
	for _, name := range strippedEnvVars {
		if key == name {
			return true
		}
	}
	return false
}

func containsPathEntry(pathValue, dir string) bool {
	for _, entry := range strings.Split(pathValue, string(os.PathListSeparator)) {
		if entry == dir {
			return true
		}
	}
	return false
}

// CheckYTDLP verifies the extraction tool responds to --version
func (t *Toolchain) CheckYTDLP(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, t.YTDLPPath(), "--version")
	cmd.Env = t.Environ()
	return cmd.Run() == nil
}

// CheckFFmpeg verifies the media tool responds to -version
func (t *Toolchain) CheckFFmpeg(ctx context.Context) bool {
	path := t.FFmpegPath()
	if path == "" {
		return false
	}
	cmd := exec.CommandContext(ctx, path, "-version")
	cmd.Env = t.Environ()
	return cmd.Run() == nil
}
