// Package service wires configuration, directory client, resolver, recorder
// and runner into the operations exposed by the CLI.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/audiolibrelab/broadcastrec/internal/capture"
	"github.com/audiolibrelab/broadcastrec/internal/config"
	"github.com/audiolibrelab/broadcastrec/internal/metrics"
	"github.com/audiolibrelab/broadcastrec/internal/radiobrowser"
	"github.com/audiolibrelab/broadcastrec/internal/recorder"
	"github.com/audiolibrelab/broadcastrec/internal/resolve"
	"github.com/audiolibrelab/broadcastrec/internal/runner"
	"github.com/audiolibrelab/broadcastrec/internal/schedule"
	"github.com/audiolibrelab/broadcastrec/internal/server"
)

// Service represents the operations of broadcastrec
type Service interface {
	// Run records every configured channel and blocks until all are done.
	Run(ctx context.Context) runner.Results
	// Resolve looks up a configured channel without recording it.
	Resolve(ctx context.Context, channelName string) (radiobrowser.Station, error)
	// Plan describes what Run would do with each channel at now.
	Plan(now time.Time) []ChannelPlan
	GetConfig() *config.Config
}

// RecordingService is the default Service.
type RecordingService struct {
	cfg       *config.Config
	logger    *slog.Logger
	directory resolve.Directory
	tool      capture.Tool
	clock     schedule.Clock
	resolver  *resolve.Resolver
	metrics   *metrics.Metrics
}

// Option customizes a RecordingService.
type Option func(*RecordingService)

// WithTool replaces the ffmpeg capture tool.
func WithTool(tool capture.Tool) Option {
	return func(s *RecordingService) { s.tool = tool }
}

// WithDirectory replaces the radio-browser client. A nil directory disables
// lookups.
func WithDirectory(d resolve.Directory) Option {
	return func(s *RecordingService) { s.directory = d }
}

// WithClock replaces the wall clock used for waiting and durations.
func WithClock(c schedule.Clock) Option {
	return func(s *RecordingService) { s.clock = c }
}

// New creates a service from a loaded configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *RecordingService {
	if logger == nil {
		logger = slog.Default()
	}
	ffmpeg := capture.NewFFmpeg(cfg.Options.FFmpeg)
	ffmpeg.Logger = logger
	s := &RecordingService{
		cfg:     cfg,
		logger:  logger,
		tool:    ffmpeg,
		clock:   schedule.SystemClock,
		metrics: metrics.New(),
	}
	if cfg.Options.Directory.Enabled {
		s.directory = radiobrowser.NewClient(cfg.Options.Directory.URL, radiobrowser.Options{
			Timeout:   cfg.Options.Directory.Timeout,
			UserAgent: cfg.Options.Directory.UserAgent,
		})
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = resolve.New(s.directory, logger)
	return s
}

// GetConfig returns the configuration the service was built with.
func (s *RecordingService) GetConfig() *config.Config {
	return s.cfg
}

// Metrics returns the recording metrics of this service.
func (s *RecordingService) Metrics() *metrics.Metrics {
	return s.metrics
}

// Run records all channels. When a listen address is configured the status
// server runs alongside and is stopped once every channel has finished.
func (s *RecordingService) Run(ctx context.Context) runner.Results {
	names := make([]string, 0, len(s.cfg.Channels))
	for _, ch := range s.cfg.Channels {
		names = append(names, ch.Name)
	}
	board := server.NewBoard(names...)

	rec := recorder.New(recorder.Options{
		Collar:  s.cfg.Options.Collar(),
		SaveDir: s.cfg.Options.SaveDir,
		LogDir:  s.cfg.Options.LogDir,
	}, recorder.Deps{
		Waiter:   &schedule.Waiter{Clock: s.clock, Interval: schedule.DefaultInterval},
		Resolver: s.resolver,
		Tool:     s.tool,
		Clock:    s.clock,
		Logger:   s.logger,
		Observer: recorder.Observers(board, s.metrics),
	})

	serverDone := make(chan struct{})
	serverCtx, stopServer := context.WithCancel(ctx)
	defer func() {
		stopServer()
		<-serverDone
	}()

	if s.cfg.Options.Listen != "" {
		srv := server.New(s.cfg.Options.Listen, board, s.metrics.Handler(), s.logger)
		go func() {
			defer close(serverDone)
			if err := srv.Run(serverCtx); err != nil {
				s.logger.Error("Status server failed, recording continues", "error", err)
			}
		}()
	} else {
		close(serverDone)
	}

	return runner.New(rec, s.logger).Run(ctx, s.cfg.Channels)
}

// Resolve resolves a configured channel by name.
func (s *RecordingService) Resolve(ctx context.Context, channelName string) (radiobrowser.Station, error) {
	ch, ok := s.cfg.FindChannel(channelName)
	if !ok {
		return radiobrowser.Station{}, fmt.Errorf("channel %q is not configured", channelName)
	}
	station, _, err := s.resolver.Resolve(ctx, ch)
	if err != nil {
		return radiobrowser.Station{}, err
	}
	return station, nil
}
