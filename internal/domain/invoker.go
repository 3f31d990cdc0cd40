package domain

import "context"

// ToolResult is the outcome of one extraction-tool invocation
type ToolResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Succeeded reports whether the invocation exited cleanly
func (r *ToolResult) Succeeded() bool {
	return r != nil && r.ExitCode == 0
}

// CombinedOutput returns stderr followed by stdout, the text the failure
// heuristics are matched against
func (r *ToolResult) CombinedOutput() string {
	if r == nil {
		return ""
	}
	return r.Stderr + "\n" + r.Stdout
}

// LineHandler receives one trimmed output line from a streaming invocation
type LineHandler func(line string)

// ToolRunner executes the external extraction tool. Run buffers output for
// metadata fetches; Stream delivers combined stdout/stderr line by line for
// downloads. Both terminate the subprocess and return ErrCancelled when the
// context is cancelled.
type ToolRunner interface {
	Run(ctx context.Context, args []string) (*ToolResult, error)
	Stream(ctx context.Context, args []string, onLine LineHandler) (*ToolResult, error)
}

// AuthCandidate is one option for supplying login credentials: the argument
// fragment passed to the tool and a human-readable source label.
type AuthCandidate struct {
	Args   []string
	Source string
}

// ProgressPhase distinguishes the network transfer from the local remux step
type ProgressPhase string

const (
	PhaseTransfer ProgressPhase = "transfer"
	PhaseMerging  ProgressPhase = "merging"
)

// Progress is one progress update from a streaming download
type Progress struct {
	Phase   ProgressPhase `json:"phase"`
	Percent float64       `json:"percent"`
	Speed   string        `json:"speed,omitempty"`
	ETA     string        `json:"eta,omitempty"`
}

// ProgressHandler receives progress updates from the invoker
type ProgressHandler func(p Progress)

// InfoFetcher resolves a URL into structured video metadata, negotiating
// transport overrides and credential candidates as needed
type InfoFetcher interface {
	FetchInfo(ctx context.Context, session *FetchSession) (*VideoInfo, error)
}

// VideoDownloader performs the download using flags established on the
// session, returning the final output file path
type VideoDownloader interface {
	DownloadVideo(ctx context.Context, session *FetchSession, quality, destDir string, onProgress ProgressHandler) (string, error)
}
