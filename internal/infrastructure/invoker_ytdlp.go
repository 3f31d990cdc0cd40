package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

var noCheckCertificateArgs = []string{"--no-check-certificate"}

const loginRequiredExplanation = "This Vimeo link requires you to be logged in.\n\n" +
	"Please sign in to Vimeo in Microsoft Edge or Google Chrome on this machine, then try again."

const chromeCookieHint = "Chrome cookie access failed. This usually happens when Chrome " +
	"(or Chrome background processes) has the Cookies database locked.\n" +
	"Close all Chrome windows, then in Chrome go to Settings -> System and disable " +
	"'Continue running background apps when Google Chrome is closed', then try again."

// YTDLPInvoker drives the external extraction tool: it builds argument
// lists, classifies failures from captured output and retries with
// progressively different argument sets until one attempt succeeds or the
// candidates are exhausted.
type YTDLPInvoker struct {
	runner    domain.ToolRunner
	toolchain *Toolchain
	config    *domain.DownloadConfig
	auth      *domain.AuthConfig
	logger    *zap.Logger

	// candidates is swappable in tests.
	candidates func() []domain.AuthCandidate
}

// NewYTDLPInvoker creates an invoker for the configured tool and credentials
func NewYTDLPInvoker(
	runner domain.ToolRunner,
	toolchain *Toolchain,
	downloadConfig *domain.DownloadConfig,
	authConfig *domain.AuthConfig,
	logger *zap.Logger,
) *YTDLPInvoker {
	inv := &YTDLPInvoker{
		runner:    runner,
		toolchain: toolchain,
		config:    downloadConfig,
		auth:      authConfig,
		logger:    logger,
	}
	inv.candidates = func() []domain.AuthCandidate {
		return AuthCandidates(authConfig.CookieFile)
	}
	return inv
}

// FetchInfo resolves a URL into structured video metadata. Transient
// TLS/certificate failures get one relaxed-verification retry; login-gated
// videos get the ordered credential candidates. Flags that worked are
// recorded on the session for the later download.
func (inv *YTDLPInvoker) FetchInfo(ctx context.Context, session *domain.FetchSession) (*domain.VideoInfo, error) {
	if err := domain.ValidateURL(session.URL); err != nil {
		return nil, err
	}

	runInfo := func(authArgs, transportArgs []string) (*domain.ToolResult, error) {
		args := []string{"--ignore-config"}
		args = append(args, authArgs...)
		args = append(args, transportArgs...)
		args = append(args, "--dump-json", session.URL)

		infoCtx := ctx
		cancel := context.CancelFunc(func() {})
		if inv.config.InfoTimeout > 0 {
			infoCtx, cancel = context.WithTimeout(ctx, inv.config.InfoTimeout)
		}
		res, err := inv.runner.Run(infoCtx, args)
		cancel()
		if errors.Is(err, domain.ErrCancelled) && ctx.Err() == nil {
			return nil, fmt.Errorf("information fetch timed out after %s", inv.config.InfoTimeout)
		}
		return res, err
	}

	var transportArgs []string

	res, err := runInfo(nil, nil)
	if err != nil {
		return nil, err
	}

	if !res.Succeeded() && IsSSLRelatedError(res.CombinedOutput()) {
		retry, err := runInfo(nil, noCheckCertificateArgs)
		if err != nil {
			return nil, err
		}
		if retry.Succeeded() {
			transportArgs = noCheckCertificateArgs
		}
		res = retry
	}

	loginRequired := !res.Succeeded() && IsLoginRequiredError(res.CombinedOutput())
	cookieCopyFailed := false
	var authArgs []string
	authSource := ""

	if loginRequired {
		last := res
		for _, candidate := range inv.candidates() {
			attemptTransport := transportArgs

			last, err = runInfo(candidate.Args, attemptTransport)
			if err != nil {
				return nil, err
			}

			if IsChromeCookieCopyError(last.CombinedOutput()) {
				cookieCopyFailed = true
			}

			// A candidate may hit its own certificate failure; give it the
			// override once when none is established yet.
			if !last.Succeeded() && len(attemptTransport) == 0 && IsSSLRelatedError(last.CombinedOutput()) {
				attemptTransport = noCheckCertificateArgs
				last, err = runInfo(candidate.Args, attemptTransport)
				if err != nil {
					return nil, err
				}
			}

			if last.Succeeded() {
				authArgs = candidate.Args
				authSource = candidate.Source
				transportArgs = attemptTransport
				inv.logger.Info("credential source selected", zap.String("source", authSource))
				res = last
				break
			}
		}
		if !res.Succeeded() {
			res = last
		}
	}

	if !res.Succeeded() {
		return nil, inv.infoFailure(res, loginRequired, cookieCopyFailed)
	}

	if authSource != "" {
		session.SetAuth(authArgs, authSource)
	}
	session.SetTransportArgs(transportArgs)

	info, err := parseVideoInfo(res.Stdout)
	if err != nil {
		return nil, err
	}
	return info, nil
}

// infoFailure builds the composite diagnostic for a terminal fetch failure
func (inv *YTDLPInvoker) infoFailure(res *domain.ToolResult, loginRequired, cookieCopyFailed bool) error {
	details := strings.TrimSpace(res.Stderr)
	if details == "" {
		details = strings.TrimSpace(res.Stdout)
	}
	details = lastLines(details, DiagnosticTailLines)
	if details != "" {
		inv.logger.Warn("information fetch failed", zap.String("details", details))
	}

	if loginRequired {
		details = loginRequiredExplanation + "\n\n" + details
	}
	if cookieCopyFailed {
		details = details + "\n\n" + chromeCookieHint
	}

	if loginRequired {
		return fmt.Errorf("%w: failed to get video information:\n\n%s", domain.ErrLoginRequired, details)
	}
	return fmt.Errorf("failed to get video information:\n\n%s", details)
}

// DownloadVideo runs the streaming download with the session's negotiated
// flags. A non-zero exit whose output tail matches the SSL heuristic is
// retried exactly once with relaxed certificate verification; authentication
// is assumed resolved by the preceding fetch and is not retried here.
func (inv *YTDLPInvoker) DownloadVideo(
	ctx context.Context,
	session *domain.FetchSession,
	quality, destDir string,
	onProgress domain.ProgressHandler,
) (string, error) {
	if onProgress == nil {
		onProgress = func(domain.Progress) {}
	}

	authArgs := session.AuthArgs()
	transportArgs := session.TransportArgs()

	runOnce := func(extraArgs []string) (int, string, *OutputTail, error) {
		tailCap := inv.config.TailLines
		if tailCap <= 0 {
			tailCap = 200
		}
		tail := NewOutputTail(tailCap)

		args := []string{"--ignore-config"}
		args = append(args, authArgs...)
		args = append(args, transportArgs...)
		args = append(args, "--newline", "--progress-template", ProgressTemplate)
		if ffmpegDir := inv.toolchain.FFmpegDir(); ffmpegDir != "" {
			args = append(args, "--ffmpeg-location", ffmpegDir)
		}
		args = append(args, extraArgs...)
		args = append(args, "--format", FormatSelector(quality))
		args = append(args, "--paths", destDir)
		args = append(args, "--output", "%(title)s.%(ext)s")
		args = append(args, session.URL)

		rawLog := inv.openRawLog(session.ID, args)
		defer rawLog.close()

		downloadedFile := ""
		inTransfer := true

		res, err := inv.runner.Stream(ctx, args, func(line string) {
			tail.Append(line)
			rawLog.writeLine(line)

			if IsMergePhaseLine(line) {
				if inTransfer {
					inTransfer = false
					onProgress(domain.Progress{Phase: domain.PhaseMerging, Percent: 100})
				}
				if path, ok := ParseMergeDestination(line); ok {
					downloadedFile = path
				}
				return
			}

			if !inTransfer {
				return
			}
			if percent, speed, eta, ok := ParseProgressLine(line); ok {
				if percent >= 0 {
					onProgress(domain.Progress{
						Phase:   domain.PhaseTransfer,
						Percent: percent,
						Speed:   speed,
						ETA:     eta,
					})
				}
			} else if path, ok := ParseDestination(line); ok {
				downloadedFile = path
			}
		})
		if err != nil {
			rawLog.finish(false, err.Error())
			return 0, "", tail, err
		}

		if downloadedFile == "" {
			downloadedFile = destDir
		}
		rawLog.finish(res.ExitCode == 0, fmt.Sprintf("exit code %d", res.ExitCode))
		return res.ExitCode, downloadedFile, tail, nil
	}

	exitCode, downloadedFile, tail, err := runOnce(nil)
	if err != nil {
		return "", err
	}

	// Only the recent lines count for classification; an early certificate
	// complaint that scrolled out of the diagnostic window does not justify
	// rerunning the whole download.
	if exitCode != 0 && IsSSLRelatedError(tail.Last(DiagnosticTailLines)) {
		inv.logger.Info("retrying download with relaxed certificate checks")
		exitCode, downloadedFile, tail, err = runOnce(noCheckCertificateArgs)
		if err != nil {
			return "", err
		}
	}

	if exitCode == 0 {
		return downloadedFile, nil
	}

	details := tail.Last(DiagnosticTailLines)
	if details != "" {
		inv.logger.Warn("download failed", zap.String("details", details))
	}
	return "", &domain.DownloadFailedError{Tail: details}
}

// parseVideoInfo decodes the first JSON object from --dump-json output
func parseVideoInfo(stdout string) (*domain.VideoInfo, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stdout)))
	var info domain.VideoInfo
	if err := dec.Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to parse video metadata: %w", err)
	}
	return &info, nil
}

// lastLines keeps only the trailing limit lines of text
func lastLines(text string, limit int) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}
	return strings.Join(lines, "\n")
}

// rawLog appends raw tool output to a dated log file, with a command header
// and a SUCCESS/FAILED footer per invocation. A nil file disables logging.
type rawLog struct {
	file *os.File
}

func (inv *YTDLPInvoker) openRawLog(sessionID string, args []string) *rawLog {
	if inv.config.LogsDir == "" {
		return &rawLog{}
	}
	if err := os.MkdirAll(inv.config.LogsDir, 0755); err != nil {
		inv.logger.Warn("failed to create logs directory", zap.Error(err))
		return &rawLog{}
	}
	path := filepath.Join(inv.config.LogsDir, "download-"+time.Now().Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		inv.logger.Warn("failed to open raw download log", zap.Error(err))
		return &rawLog{}
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(file, "\n=== [%s] Session: %s ===\n", timestamp, sessionID)
	fmt.Fprintf(file, "$ %s\n", RenderCommandLine(inv.toolchain.YTDLPPath(), args...))
	return &rawLog{file: file}
}

func (l *rawLog) writeLine(line string) {
	if l.file != nil {
		fmt.Fprintln(l.file, line)
	}
}

func (l *rawLog) finish(success bool, message string) {
	if l.file == nil {
		return
	}
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(l.file, "[%s] %s: %s\n=== END ===\n\n", timestamp, status, message)
}

func (l *rawLog) close() {
	if l.file != nil {
		l.file.Close()
		l.file = nil
	}
}
