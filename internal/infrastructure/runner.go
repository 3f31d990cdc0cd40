package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/vimeograb-go/internal/domain"
)

// ExecToolRunner runs the extraction tool as a subprocess. Cancellation
// terminates the subprocess and surfaces domain.ErrCancelled; a missing
// binary surfaces domain.ErrToolMissing. Neither leaves a zombie process.
type ExecToolRunner struct {
	toolchain *Toolchain
	logger    *zap.Logger
}

// NewExecToolRunner creates a runner backed by the resolved toolchain
func NewExecToolRunner(toolchain *Toolchain, logger *zap.Logger) *ExecToolRunner {
	return &ExecToolRunner{
		toolchain: toolchain,
		logger:    logger,
	}
}

// Run executes one buffered invocation and captures stdout/stderr separately
func (r *ExecToolRunner) Run(ctx context.Context, args []string) (*domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCancelled
	}

	binary := r.toolchain.YTDLPPath()
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = r.toolchain.Environ()

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running extraction tool", zap.String("cmd", RenderCommandLine(binary, args...)))

	err := cmd.Run()
	if ctx.Err() != nil {
		return nil, domain.ErrCancelled
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &domain.ToolResult{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}, nil
		}
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrToolMissing, binary)
		}
		return nil, fmt.Errorf("failed to run %s: %w", binary, err)
	}

	return &domain.ToolResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// Stream executes one invocation with stderr folded into stdout, delivering
// each trimmed line to onLine as it arrives
func (r *ExecToolRunner) Stream(ctx context.Context, args []string, onLine domain.LineHandler) (*domain.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.ErrCancelled
	}

	binary := r.toolchain.YTDLPPath()
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = r.toolchain.Environ()

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	r.logger.Debug("streaming extraction tool", zap.String("cmd", RenderCommandLine(binary, args...)))

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrToolMissing, binary)
		}
		return nil, fmt.Errorf("failed to start %s: %w", binary, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			if onLine != nil {
				onLine(strings.TrimSpace(scanner.Text()))
			}
		}
	}()

	waitErr := cmd.Wait()
	pw.Close()
	<-done
	pr.Close()

	if ctx.Err() != nil {
		return nil, domain.ErrCancelled
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return &domain.ToolResult{ExitCode: exitErr.ExitCode()}, nil
		}
		return nil, fmt.Errorf("%s failed: %w", binary, waitErr)
	}

	return &domain.ToolResult{ExitCode: 0}, nil
}
