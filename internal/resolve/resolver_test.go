package resolve

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiolibrelab/broadcastrec/internal/config"
	"github.com/audiolibrelab/broadcastrec/internal/radiobrowser"
)

type fakeDirectory struct {
	byUUID   []radiobrowser.Station
	byName   []radiobrowser.Station
	err      error
	uuidHits []string
	nameHits []string
}

func (f *fakeDirectory) StationByUUID(_ context.Context, uuid string) ([]radiobrowser.Station, error) {
	f.uuidHits = append(f.uuidHits, uuid)
	return f.byUUID, f.err
}

func (f *fakeDirectory) SearchByName(_ context.Context, name string) ([]radiobrowser.Station, error) {
	f.nameHits = append(f.nameHits, name)
	return f.byName, f.err
}

func (f *fakeDirectory) calls() int { return len(f.uuidHits) + len(f.nameHits) }

func TestResolve_ExplicitURLSkipsDirectory(t *testing.T) {
	dir := &fakeDirectory{}
	r := New(dir, nil)

	station, url, err := r.Resolve(context.Background(), config.Channel{
		Name: "Jazz", URL: "http://radio.example/jazz.mp3", UUID: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://radio.example/jazz.mp3", url)
	assert.Equal(t, "http://radio.example/jazz.mp3", station.URL)
	assert.JSONEq(t, `{"url":"http://radio.example/jazz.mp3"}`, string(station.Raw))
	assert.Zero(t, dir.calls())
}

func TestResolve_ExplicitURLWorksWithoutDirectory(t *testing.T) {
	_, url, err := New(nil, nil).Resolve(context.Background(), config.Channel{Name: "x", URL: "http://a/b"})
	require.NoError(t, err)
	assert.Equal(t, "http://a/b", url)
}

func TestResolve_NoDirectory(t *testing.T) {
	_, _, err := New(nil, nil).Resolve(context.Background(), config.Channel{Name: "Jazz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResolverUnavailable)
	assert.Contains(t, err.Error(), "no url is configured")
	assert.Contains(t, err.Error(), "station directory disabled")
	assert.NotEqual(t, ErrResolverUnavailable.Error(), radiobrowser.ErrUnavailable.Error())
}

func TestResolve_NoStationFound(t *testing.T) {
	dir := &fakeDirectory{}
	_, _, err := New(dir, nil).Resolve(context.Background(), config.Channel{Name: "Nowhere FM"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoStationFound)
	assert.Equal(t, []string{"Nowhere FM"}, dir.nameHits)
}

func TestResolve_ByUUID(t *testing.T) {
	dir := &fakeDirectory{byUUID: []radiobrowser.Station{
		{StationUUID: "u-1", Name: "Jazz", URL: "http://jazz/stream"},
	}}

	station, url, err := New(dir, nil).Resolve(context.Background(), config.Channel{Name: "Jazz", UUID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, "http://jazz/stream", url)
	assert.Equal(t, "u-1", station.StationUUID)
	assert.Equal(t, []string{"u-1"}, dir.uuidHits)
	assert.Empty(t, dir.nameHits)
}

// The last element of the directory's list is taken, whatever its votes.
// Changing this is a behavior change and must update this test.
func TestResolve_MultipleCandidatesTakesLast(t *testing.T) {
	dir := &fakeDirectory{byName: []radiobrowser.Station{
		{StationUUID: "most", URL: "http://most/stream", Votes: 900},
		{StationUUID: "mid", URL: "http://mid/stream", Votes: 50},
		{StationUUID: "least", URL: "http://least/stream", Votes: 3},
	}}
	r := New(dir, nil)
	ch := config.Channel{Name: "Jazz"}

	for i := 0; i < 3; i++ {
		station, url, err := r.Resolve(context.Background(), ch)
		require.NoError(t, err)
		assert.Equal(t, "least", station.StationUUID)
		assert.Equal(t, "http://least/stream", url)
	}
}

func TestResolve_DirectoryErrorIsNotRecoverableKind(t *testing.T) {
	dir := &fakeDirectory{err: radiobrowser.ErrUnavailable}
	_, _, err := New(dir, nil).Resolve(context.Background(), config.Channel{Name: "Jazz"})
	require.Error(t, err)
	assert.ErrorIs(t, err, radiobrowser.ErrUnavailable)
	assert.False(t, errors.Is(err, ErrNoStationFound))
	assert.False(t, errors.Is(err, ErrResolverUnavailable))
}
