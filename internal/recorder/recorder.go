// Package recorder runs the wait, resolve and record lifecycle of a single
// channel.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/audiolibrelab/broadcastrec/internal/capture"
	"github.com/audiolibrelab/broadcastrec/internal/config"
	"github.com/audiolibrelab/broadcastrec/internal/radiobrowser"
	"github.com/audiolibrelab/broadcastrec/internal/resolve"
	"github.com/audiolibrelab/broadcastrec/internal/schedule"
)

// ErrLateSchedule is returned when the stop time plus collar has already
// passed once the stream is resolved.
var ErrLateSchedule = errors.New("requested duration is < 0 seconds, running late")

// Waiter blocks until an instant has passed.
type Waiter interface {
	Wait(ctx context.Context, until time.Time) error
}

// Resolver turns a channel into a station record and stream URL.
type Resolver interface {
	Resolve(ctx context.Context, ch config.Channel) (radiobrowser.Station, string, error)
}

// Options are the per-run settings shared by all channels.
type Options struct {
	Collar  time.Duration
	SaveDir string
	LogDir  string
}

// Deps are the collaborators of a Recorder. Waiter, Resolver and Tool are
// required.
type Deps struct {
	Waiter   Waiter
	Resolver Resolver
	Tool     capture.Tool
	Clock    schedule.Clock
	Logger   *slog.Logger
	Observer Observer
}

// Recorder records channels. It holds no per-channel state, so one Recorder
// serves all channels of a run concurrently.
type Recorder struct {
	opts     Options
	waiter   Waiter
	resolver Resolver
	tool     capture.Tool
	clock    schedule.Clock
	logger   *slog.Logger
	observer Observer
}

// New creates a Recorder.
func New(opts Options, deps Deps) *Recorder {
	if deps.Clock == nil {
		deps.Clock = schedule.SystemClock
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Recorder{
		opts:     opts,
		waiter:   deps.Waiter,
		resolver: deps.Resolver,
		tool:     deps.Tool,
		clock:    deps.Clock,
		logger:   deps.Logger,
		observer: deps.Observer,
	}
}

// Record runs the full lifecycle for ch and reports whether a recording was
// made. Skipped channels, resolution failures and late schedules yield false
// with a nil error; any other failure is returned.
func (r *Recorder) Record(ctx context.Context, ch config.Channel) (bool, error) {
	log := r.logger.With("channel", ch.Name)
	r.emit(ch.Name, StateIdle, nil, nil)

	if !ch.Scheduled() {
		log.Info("No start/stop, ignoring")
		r.emit(ch.Name, StateSkipped, nil, nil)
		return false, nil
	}

	until := ch.Start.Add(-r.opts.Collar)
	log.Info("Waiting", "until", until)
	r.emit(ch.Name, StateWaiting, nil, nil)
	if err := r.waiter.Wait(ctx, until); err != nil {
		return r.fail(ch.Name, nil, fmt.Errorf("waiting for %s: %w", until, err))
	}

	r.emit(ch.Name, StateResolving, nil, nil)
	station, url, err := r.resolver.Resolve(ctx, ch)
	if err != nil {
		if errors.Is(err, resolve.ErrResolverUnavailable) || errors.Is(err, resolve.ErrNoStationFound) {
			log.Error("Could not resolve stream", "error", err)
			r.emit(ch.Name, StateFailed, nil, err)
			return false, nil
		}
		return r.fail(ch.Name, nil, err)
	}
	log.Info("Selected the broadcast", "uuid", station.StationUUID, "url", url)

	now := r.clock.Now()
	duration := int((ch.Stop.Sub(now) + r.opts.Collar).Seconds())
	if duration < 0 {
		log.Error("Requested duration is < 0 seconds. Are we running late?", "stop", *ch.Stop, "duration", duration)
		r.emit(ch.Name, StateFailed, nil, ErrLateSchedule)
		return false, nil
	}

	job := NewJob(ch.Name, now, duration, r.opts.SaveDir, r.opts.LogDir)
	if err := writeMetadata(job.MetadataFile, station); err != nil {
		return r.fail(ch.Name, job, err)
	}

	logFile, err := os.Create(job.LogFile)
	if err != nil {
		return r.fail(ch.Name, job, fmt.Errorf("failed to create capture log: %w", err))
	}
	defer logFile.Close()

	log.Info("Starting saving", "file", job.AudioFile, "duration", job.Cutoff, "job", job.Name)
	r.emit(ch.Name, StateRecording, job, nil)

	res, err := r.tool.Capture(ctx, capture.Request{
		URL:    url,
		Cutoff: job.Cutoff,
		Output: job.AudioFile,
		Log:    logFile,
	})
	if err != nil {
		return r.fail(ch.Name, job, err)
	}
	if res.ExitCode != 0 {
		log.Warn("Capture tool exited with non-zero status", "exit_code", res.ExitCode, "log", job.LogFile)
	}

	log.Info("Done!", "elapsed", res.Elapsed.Round(time.Second))
	r.emit(ch.Name, StateDone, job, nil)
	return true, nil
}

func (r *Recorder) fail(channel string, job *Job, err error) (bool, error) {
	r.emit(channel, StateFailed, job, err)
	return false, err
}

func (r *Recorder) emit(channel string, state State, job *Job, err error) {
	if r.observer == nil {
		return
	}
	r.observer.Observe(Event{
		Channel: channel,
		State:   state,
		Job:     job,
		Err:     err,
		At:      r.clock.Now(),
	})
}
