package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding options,
// e.g. BROADCASTREC_COLLAR_SECONDS.
const EnvPrefix = "BROADCASTREC"

// Debug mode records every scheduled channel for this long, starting now.
const DebugRecordingLength = 10 * time.Second

type Config struct {
	Options  Options   `mapstructure:"options" yaml:"options"`
	Channels []Channel `mapstructure:"channels" yaml:"channels"`
}

type Options struct {
	CollarSeconds int             `mapstructure:"collar_seconds" yaml:"collar_seconds"`
	SaveDir       string          `mapstructure:"save_dir" yaml:"save_dir"`
	LogDir        string          `mapstructure:"log_dir" yaml:"log_dir"`
	FFmpeg        string          `mapstructure:"ffmpeg" yaml:"ffmpeg"`
	Debug         bool            `mapstructure:"debug" yaml:"debug"`
	Listen        string          `mapstructure:"listen" yaml:"listen,omitempty"`
	Directory     DirectoryConfig `mapstructure:"directory" yaml:"directory"`
}

type DirectoryConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	URL       string        `mapstructure:"url" yaml:"url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Channel is one station to record. A channel without both Start and Stop
// is never recorded.
type Channel struct {
	Name  string     `mapstructure:"name" yaml:"name"`
	URL   string     `mapstructure:"url" yaml:"url,omitempty"`
	UUID  string     `mapstructure:"uuid" yaml:"uuid,omitempty"`
	Start *time.Time `mapstructure:"start" yaml:"start,omitempty"`
	Stop  *time.Time `mapstructure:"stop" yaml:"stop,omitempty"`
}

// Scheduled reports whether the channel has a complete recording window.
func (c Channel) Scheduled() bool {
	return c.Start != nil && c.Stop != nil
}

// Collar returns the safety margin as a duration.
func (o Options) Collar() time.Duration {
	return time.Duration(o.CollarSeconds) * time.Second
}

var defaults = map[string]any{
	"options.collar_seconds":       600,
	"options.save_dir":             "recordings",
	"options.log_dir":              "logs",
	"options.ffmpeg":               "ffmpeg",
	"options.debug":                false,
	"options.listen":               "",
	"options.directory.enabled":    true,
	"options.directory.url":        "https://all.api.radio-browser.info",
	"options.directory.user_agent": "broadcastrec/dev",
	"options.directory.timeout":    "10s",
}

// NewViper returns a viper instance carrying the option defaults and the
// environment binding. Callers bind their flags onto it before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	// viper upper-cases before replacing: BROADCASTREC_OPTIONS.DIRECTORY.URL -> BROADCASTREC_DIRECTORY_URL
	v.SetEnvKeyReplacer(strings.NewReplacer("OPTIONS.", "", ".", "_"))
	v.AutomaticEnv()
	return v
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables already set are left alone.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("error loading env file %s: %w", path, err)
	}
	return nil
}

// Load reads configFile into v and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile == "" {
		return nil, fmt.Errorf("no config file specified, use --config flag")
	}
	if v == nil {
		v = NewViper()
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	var cfg Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		timestampHook,
	))
	if err := v.Unmarshal(&cfg, hooks); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Options.SaveDir = expandPath(cfg.Options.SaveDir)
	cfg.Options.LogDir = expandPath(cfg.Options.LogDir)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// ApplyDebug rewrites every scheduled channel to record from now for
// DebugRecordingLength and drops the collar.
func (c *Config) ApplyDebug(now time.Time) {
	c.Options.CollarSeconds = 0
	for i := range c.Channels {
		if !c.Channels[i].Scheduled() {
			continue
		}
		start := now
		stop := now.Add(DebugRecordingLength)
		c.Channels[i].Start = &start
		c.Channels[i].Stop = &stop
	}
}

// EnsureDirectories creates the recording and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Options.SaveDir, c.Options.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// FindChannel returns the channel with the given name.
func (c *Config) FindChannel(name string) (Channel, bool) {
	for _, ch := range c.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// Validate checks the structural rules of a configuration.
func Validate(cfg *Config) error {
	if cfg.Options.CollarSeconds < 0 {
		return fmt.Errorf("options.collar_seconds must be >= 0, got: %d", cfg.Options.CollarSeconds)
	}
	if strings.TrimSpace(cfg.Options.SaveDir) == "" {
		return fmt.Errorf("options.save_dir is required")
	}
	if strings.TrimSpace(cfg.Options.LogDir) == "" {
		return fmt.Errorf("options.log_dir is required")
	}
	if len(cfg.Channels) == 0 {
		return fmt.Errorf("channels cannot be empty")
	}

	seen := make(map[string]bool)
	for i, ch := range cfg.Channels {
		prefix := fmt.Sprintf("channels[%d]", i)
		if strings.TrimSpace(ch.Name) == "" {
			return fmt.Errorf("%s: 'name' is required", prefix)
		}
		if seen[ch.Name] {
			return fmt.Errorf("%s: duplicate name '%s'", prefix, ch.Name)
		}
		seen[ch.Name] = true

		if ch.Scheduled() && !ch.Stop.After(*ch.Start) {
			return fmt.Errorf("%s '%s': 'stop' (%s) must be after 'start' (%s)",
				prefix, ch.Name, ch.Stop.Format(time.RFC3339), ch.Start.Format(time.RFC3339))
		}
	}
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// Layouts accepted for start/stop. Layouts without a zone are read in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

func timestampHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != timeType || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseTimestamp(data.(string))
}

// ParseTimestamp parses a schedule instant.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q (expected e.g. 2006-01-02T15:04:05+02:00)", s)
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
