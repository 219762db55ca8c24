// Package runner records every configured channel concurrently and collects
// a per-channel outcome.
package runner

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/audiolibrelab/broadcastrec/internal/config"
)

// ChannelRecorder records a single channel.
type ChannelRecorder interface {
	Record(ctx context.Context, ch config.Channel) (bool, error)
}

// Results maps a channel name to whether it was recorded.
type Results map[string]bool

// Succeeded returns the number of channels that were recorded.
func (r Results) Succeeded() int {
	n := 0
	for _, ok := range r {
		if ok {
			n++
		}
	}
	return n
}

// Runner starts one worker per channel and waits for all of them.
type Runner struct {
	recorder ChannelRecorder
	logger   *slog.Logger
}

// New creates a Runner.
func New(recorder ChannelRecorder, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{recorder: recorder, logger: logger}
}

// Run records all channels and returns once every worker has finished. A
// failing channel is logged and recorded as false; it never stops the
// others, and neither does a panic. Channel names are assumed unique.
func (r *Runner) Run(ctx context.Context, channels []config.Channel) Results {
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)
	logger.Info("Starting recorders", "channels", len(channels))
	started := time.Now()

	var (
		mu      sync.Mutex
		results = make(Results, len(channels))
	)
	record := func(name string, ok bool) {
		mu.Lock()
		defer mu.Unlock()
		results[name] = ok
	}

	// A plain Group: the derived context of WithContext would cancel
	// sibling channels on the first error.
	var g errgroup.Group
	for _, ch := range channels {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					logger.Error("Recording panicked", "channel", ch.Name, "panic", p, "stack", string(debug.Stack()))
					record(ch.Name, false)
				}
			}()
			ok, err := r.recorder.Record(ctx, ch)
			if err != nil {
				logger.Error("Recording failed", "channel", ch.Name, "error", err)
				ok = false
			}
			record(ch.Name, ok)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("All recorders finished",
		"results", map[string]bool(results),
		"recorded", results.Succeeded(),
		"total", len(results),
		"elapsed", time.Since(started).Round(time.Second))
	return results
}
