package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func createTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	configFile := createTempConfig(t, `
options:
  collar_seconds: 120
  save_dir: /tmp/rec
channels:
  - name: Radio Swiss Jazz
    start: 2026-10-17T20:00:00+02:00
    stop: 2026-10-17T22:00:00+02:00
  - name: My stream
    url: http://example.org/stream.mp3
    start: "2026-10-17 20:00:00+02:00"
    stop: "2026-10-17 21:00:00+02:00"
  - name: By uuid
    uuid: 9617a958-0601-11e8-ae97-52543be04c81
`)

	cfg, err := Load(NewViper(), configFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if cfg.Options.CollarSeconds != 120 {
		t.Errorf("Expected collar 120, got %d", cfg.Options.CollarSeconds)
	}
	if cfg.Options.SaveDir != "/tmp/rec" {
		t.Errorf("Expected save_dir '/tmp/rec', got %s", cfg.Options.SaveDir)
	}
	// untouched options keep their defaults
	if cfg.Options.LogDir != "logs" {
		t.Errorf("Expected default log_dir 'logs', got %s", cfg.Options.LogDir)
	}
	if !cfg.Options.Directory.Enabled {
		t.Errorf("Expected directory enabled by default")
	}
	if cfg.Options.Directory.Timeout != 10*time.Second {
		t.Errorf("Expected directory timeout 10s, got %v", cfg.Options.Directory.Timeout)
	}

	if len(cfg.Channels) != 3 {
		t.Fatalf("Expected 3 channels, got %d", len(cfg.Channels))
	}

	jazz := cfg.Channels[0]
	if !jazz.Scheduled() {
		t.Fatalf("Expected first channel to be scheduled: %+v", jazz)
	}
	wantStart := time.Date(2026, 10, 17, 18, 0, 0, 0, time.UTC)
	if !jazz.Start.Equal(wantStart) {
		t.Errorf("Expected start %v, got %v", wantStart, jazz.Start)
	}
	if got := jazz.Stop.Sub(*jazz.Start); got != 2*time.Hour {
		t.Errorf("Expected a 2h window, got %v", got)
	}

	stream := cfg.Channels[1]
	if stream.URL != "http://example.org/stream.mp3" {
		t.Errorf("Expected explicit URL, got %s", stream.URL)
	}
	if !stream.Scheduled() || stream.Stop.Sub(*stream.Start) != time.Hour {
		t.Errorf("Expected a 1h window from space-separated timestamps, got %+v", stream)
	}

	byUUID := cfg.Channels[2]
	if byUUID.UUID != "9617a958-0601-11e8-ae97-52543be04c81" {
		t.Errorf("Expected uuid to be loaded, got %s", byUUID.UUID)
	}
	if byUUID.Scheduled() {
		t.Errorf("Expected channel without start/stop to be inert")
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("BROADCASTREC_COLLAR_SECONDS", "30")
	t.Setenv("BROADCASTREC_DIRECTORY_ENABLED", "false")

	configFile := createTempConfig(t, `
options:
  collar_seconds: 120
channels:
  - name: test
`)

	cfg, err := Load(NewViper(), configFile)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if cfg.Options.CollarSeconds != 30 {
		t.Errorf("Expected collar 30 from env, got %d", cfg.Options.CollarSeconds)
	}
	if cfg.Options.Directory.Enabled {
		t.Errorf("Expected directory disabled from env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}

	_, err = Load(NewViper(), "")
	if err == nil || !strings.Contains(err.Error(), "no config file") {
		t.Errorf("Expected 'no config file' error, got: %v", err)
	}
}

func TestLoad_InvalidTimestamp(t *testing.T) {
	configFile := createTempConfig(t, `
channels:
  - name: test
    start: "tomorrow evening"
    stop: 2026-10-17T22:00:00Z
`)

	_, err := Load(NewViper(), configFile)
	if err == nil {
		t.Fatal("Expected error for invalid timestamp")
	}
	if !strings.Contains(err.Error(), "invalid timestamp") {
		t.Errorf("Expected 'invalid timestamp' error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	start := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	valid := Options{CollarSeconds: 600, SaveDir: "recordings", LogDir: "logs"}

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{Options: valid, Channels: []Channel{{Name: "a", Start: &start, Stop: &stop}, {Name: "b"}}},
		},
		{
			name:    "no channels",
			cfg:     Config{Options: valid},
			wantErr: "channels cannot be empty",
		},
		{
			name:    "missing name",
			cfg:     Config{Options: valid, Channels: []Channel{{URL: "http://x"}}},
			wantErr: "'name' is required",
		},
		{
			name:    "duplicate name",
			cfg:     Config{Options: valid, Channels: []Channel{{Name: "a"}, {Name: "a"}}},
			wantErr: "duplicate name",
		},
		{
			name:    "stop before start",
			cfg:     Config{Options: valid, Channels: []Channel{{Name: "a", Start: &stop, Stop: &start}}},
			wantErr: "must be after",
		},
		{
			name:    "negative collar",
			cfg:     Config{Options: Options{CollarSeconds: -1, SaveDir: "r", LogDir: "l"}, Channels: []Channel{{Name: "a"}}},
			wantErr: "collar_seconds",
		},
		{
			name:    "empty save dir",
			cfg:     Config{Options: Options{LogDir: "l"}, Channels: []Channel{{Name: "a"}}},
			wantErr: "save_dir",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&tt.cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestApplyDebug(t *testing.T) {
	start := time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	cfg := &Config{
		Options: Options{CollarSeconds: 600},
		Channels: []Channel{
			{Name: "scheduled", Start: &start, Stop: &stop},
			{Name: "inert"},
		},
	}

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cfg.ApplyDebug(now)

	if cfg.Options.CollarSeconds != 0 {
		t.Errorf("Expected collar 0 in debug mode, got %d", cfg.Options.CollarSeconds)
	}
	ch := cfg.Channels[0]
	if !ch.Start.Equal(now) || !ch.Stop.Equal(now.Add(10*time.Second)) {
		t.Errorf("Expected window [now, now+10s], got [%v, %v]", ch.Start, ch.Stop)
	}
	// the original window values are not aliased
	if !start.Equal(time.Date(2026, 10, 17, 20, 0, 0, 0, time.UTC)) {
		t.Errorf("ApplyDebug modified the original start value")
	}
	if cfg.Channels[1].Scheduled() {
		t.Errorf("Expected inert channel to stay inert in debug mode")
	}
}

func TestParseTimestamp_NaiveIsLocal(t *testing.T) {
	got, err := ParseTimestamp("2026-10-17 20:00:00")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	want := time.Date(2026, 10, 17, 20, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Options: Options{
		SaveDir: filepath.Join(root, "recordings"),
		LogDir:  filepath.Join(root, "nested", "logs"),
	}}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, dir := range []string{cfg.Options.SaveDir, cfg.Options.LogDir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("Expected directory %s to exist", dir)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BROADCASTREC_TEST_ENVFILE=loaded\n"), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BROADCASTREC_TEST_ENVFILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if got := os.Getenv("BROADCASTREC_TEST_ENVFILE"); got != "loaded" {
		t.Errorf("Expected env var from file, got %q", got)
	}
	if err := LoadEnvFile(""); err != nil {
		t.Errorf("Expected empty path to be a no-op, got: %v", err)
	}
}
