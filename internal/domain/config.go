package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Download     DownloadConfig     `mapstructure:"download"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	// DefaultDir is where videos land when the caller does not pick a directory.
	DefaultDir string `mapstructure:"default_dir"`
	// LogsDir holds raw tool output and categorized event logs.
	LogsDir string `mapstructure:"logs_dir"`
	// DatabasePath is the sqlite file for download history.
	DatabasePath string `mapstructure:"database_path"`
	// TailLines caps how many trailing output lines are kept per invocation.
	TailLines int `mapstructure:"tail_lines"`
	// InfoTimeout bounds a single metadata invocation.
	InfoTimeout time.Duration `mapstructure:"info_timeout"`
}

// ToolsConfig locates the external extraction and media tools
type ToolsConfig struct {
	// YTDLPBinary is the yt-dlp executable name or absolute path.
	YTDLPBinary string `mapstructure:"ytdlp_binary"`
	// FFmpegBinary is the ffmpeg executable name or absolute path.
	FFmpegBinary string `mapstructure:"ffmpeg_binary"`
	// Dir is an optional directory searched before PATH, and prepended to
	// the subprocess PATH so yt-dlp finds a co-located ffmpeg.
	Dir string `mapstructure:"dir"`
}

// AuthConfig contains credential sources for gated videos
type AuthConfig struct {
	// CookieFile is a Netscape cookie file tried before browser stores.
	CookieFile string `mapstructure:"cookie_file"`
}

// NotificationConfig contains desktop notification configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			DefaultDir:   "$HOME/Downloads",
			LogsDir:      "$HOME/.vimeograb/logs",
			DatabasePath: "$HOME/.vimeograb/history.db",
			TailLines:    200,
			InfoTimeout:  60 * time.Second,
		},
		Tools: ToolsConfig{
			YTDLPBinary:  "yt-dlp",
			FFmpegBinary: "ffmpeg",
			Dir:          "",
		},
		Auth: AuthConfig{
			CookieFile: "$HOME/.vimeo_cookies.txt",
		},
		Notification: NotificationConfig{
			Enabled: true,
			Method:  "notify-send",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
