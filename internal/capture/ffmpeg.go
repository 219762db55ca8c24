package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// DefaultBinary is used when no capture tool path is configured.
const DefaultBinary = "ffmpeg"

// stopGrace is how long ffmpeg gets to finalize the file after an interrupt.
const stopGrace = 5 * time.Second

// Request describes one capture of a stream into a file.
type Request struct {
	URL string
	// Cutoff is the HH:MM:SS value passed to -to.
	Cutoff string
	Output string
	// Log receives the combined stdout/stderr of the tool.
	Log io.Writer
}

// Result is what is known about a finished capture process.
type Result struct {
	ExitCode int
	Elapsed  time.Duration
}

// Tool captures a stream into a file and blocks until the capture ends.
type Tool interface {
	Capture(ctx context.Context, req Request) (Result, error)
}

// FFmpeg runs the ffmpeg binary as the capture tool.
type FFmpeg struct {
	Binary string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// NewFFmpeg returns an FFmpeg tool for the given binary path.
func NewFFmpeg(binary string) *FFmpeg {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultBinary
	}
	return &FFmpeg{Binary: binary}
}

// Args builds the ffmpeg argument list for a request.
func (f *FFmpeg) Args(req Request) []string {
	return []string{
		"-loglevel", "warning",
		"-y",
		"-i", req.URL,
		"-to", req.Cutoff,
		req.Output,
	}
}

// Capture starts ffmpeg and waits for it to exit. A non-zero exit status is
// reported in Result, not as an error; only failing to run the binary is.
func (f *FFmpeg) Capture(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, fmt.Errorf("capture request has no input URL")
	}
	if req.Output == "" {
		return Result{}, fmt.Errorf("capture request has no output path")
	}

	args := f.Args(req)
	cmd := exec.CommandContext(ctx, f.Binary, args...)
	// SIGINT lets ffmpeg write the trailer before exiting
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = stopGrace

	logWriter := req.Log
	if logWriter == nil {
		logWriter = io.Discard
	}
	cmd.Stdout = logWriter
	cmd.Stderr = logWriter

	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Debug("Starting FFmpeg capture", "command", f.Binary+" "+strings.Join(args, " "))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("failed to start %s: %w", f.Binary, err)
	}

	err := cmd.Wait()
	res := Result{Elapsed: time.Since(start)}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		}
		return res, fmt.Errorf("waiting for %s: %w", f.Binary, err)
	}
	return res, nil
}
