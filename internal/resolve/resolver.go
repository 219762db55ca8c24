// Package resolve turns a configured channel into a playable stream URL.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/audiolibrelab/broadcastrec/internal/config"
	"github.com/audiolibrelab/broadcastrec/internal/radiobrowser"
)

var (
	// ErrResolverUnavailable means the channel needs a directory lookup but
	// no directory is configured.
	ErrResolverUnavailable = errors.New("station directory disabled")
	// ErrNoStationFound means the directory returned no candidates.
	ErrNoStationFound = errors.New("no stations found")
)

// Directory is the subset of the station directory the resolver needs.
type Directory interface {
	StationByUUID(ctx context.Context, uuid string) ([]radiobrowser.Station, error)
	SearchByName(ctx context.Context, name string) ([]radiobrowser.Station, error)
}

// Resolver resolves channels either from their explicit URL or through a
// Directory. A nil directory disables lookups.
type Resolver struct {
	directory Directory
	logger    *slog.Logger
}

// New creates a resolver. directory may be nil.
func New(directory Directory, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{directory: directory, logger: logger}
}

// Resolve returns the station record and the stream URL to record.
//
// When several stations match, the last one in the directory's order is
// taken. The search is ordered by votes, so which station wins depends on
// the direction the directory sorts in.
func (r *Resolver) Resolve(ctx context.Context, ch config.Channel) (radiobrowser.Station, string, error) {
	if ch.URL != "" {
		return radiobrowser.StationFromURL(ch.URL), ch.URL, nil
	}

	if r.directory == nil {
		return radiobrowser.Station{}, "", fmt.Errorf(
			"%w: no url is configured for %q, set one or enable directory lookups", ErrResolverUnavailable, ch.Name)
	}

	var (
		candidates []radiobrowser.Station
		err        error
	)
	if ch.UUID != "" {
		candidates, err = r.directory.StationByUUID(ctx, ch.UUID)
	} else {
		candidates, err = r.directory.SearchByName(ctx, ch.Name)
	}
	if err != nil {
		return radiobrowser.Station{}, "", fmt.Errorf("station lookup for %q failed: %w", ch.Name, err)
	}

	r.logger.Info("Found stations", "channel", ch.Name, "count", len(candidates))
	switch {
	case len(candidates) == 0:
		return radiobrowser.Station{}, "", fmt.Errorf("%w for %q, not recording", ErrNoStationFound, ch.Name)
	case len(candidates) > 1:
		r.logger.Warn("Multiple stations available, taking the last one returned by the directory",
			"channel", ch.Name, "count", len(candidates))
	}

	station := candidates[len(candidates)-1]
	return station, station.URL, nil
}
