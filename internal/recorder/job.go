package recorder

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/audiolibrelab/broadcastrec/internal/capture"
)

// Job is one recording attempt. Its files share the job name as stem.
type Job struct {
	Name         string    `json:"name"`
	AudioFile    string    `json:"audio_file"`
	MetadataFile string    `json:"metadata_file"`
	LogFile      string    `json:"log_file"`
	Duration     int       `json:"duration_seconds"`
	Cutoff       string    `json:"cutoff"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewJob derives the job name and file paths from the channel name, the
// capture start time and the duration in seconds.
func NewJob(channelName string, now time.Time, duration int, saveDir, logDir string) *Job {
	name := fmt.Sprintf("%s_%s_%d", cleanName(channelName), now.UTC().Format("20060102T150405"), duration)
	return &Job{
		Name:         name,
		AudioFile:    filepath.Join(saveDir, name+".wav"),
		MetadataFile: filepath.Join(logDir, name+".json"),
		LogFile:      filepath.Join(logDir, name+".log"),
		Duration:     duration,
		Cutoff:       capture.FormatDuration(duration),
		CreatedAt:    now,
	}
}

// cleanName replaces spaces with hyphens and drops path separators.
func cleanName(name string) string {
	var result strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch r {
		case '/', '\\':
			continue
		case ' ':
			result.WriteRune('-')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
