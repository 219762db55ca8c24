package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/audiolibrelab/broadcastrec/internal/config"
)

var (
	cfg          *config.Config
	cfgFile      string
	envFile      string
	noDirectory  bool
	verboseLevel int
)

// flagKeys maps persistent flags onto configuration keys. A flag set on the
// command line wins over the environment and the config file.
var flagKeys = map[string]string{
	"collar-seconds": "options.collar_seconds",
	"save-dir":       "options.save_dir",
	"log-dir":        "options.log_dir",
	"ffmpeg":         "options.ffmpeg",
	"debug":          "options.debug",
	"listen":         "options.listen",
	"directory-url":  "options.directory.url",
}

var rootCmd = &cobra.Command{
	Use:   "broadcastrec",
	Short: "Record scheduled internet radio broadcasts",
	Long: `broadcastrec records internet radio streams during configured time windows.

Every channel in the config file is handled concurrently: broadcastrec waits
until the channel's start time minus a safety collar, resolves the stream URL
(directly or through the radio-browser.info directory) and lets ffmpeg capture
it until the stop time plus collar.

Without a subcommand it acts as 'broadcastrec run'.`,
	Args: cobra.NoArgs,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if err := config.LoadEnvFile(envFile); err != nil {
			return err
		}

		v := config.NewViper()
		if err := bindFlags(v, cmd.Flags()); err != nil {
			return err
		}

		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if noDirectory {
			cfg.Options.Directory.Enabled = false
		}
		if cfg.Options.Debug {
			slog.Warn("Debug mode: scheduled channels record for a few seconds starting now",
				"length", config.DebugRecordingLength)
			cfg.ApplyDebug(time.Now())
		}

		slog.Info("Options", "file", cfgFile, "options", cfg.Options)
		for _, ch := range cfg.Channels {
			slog.Info("Channel", "name", ch.Name, "url", ch.URL, "uuid", ch.UUID, "start", ch.Start, "stop", ch.Stop)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "config.yaml", "config file")
	pf.StringVar(&envFile, "env-file", "", "dotenv file loaded before the config")
	pf.String("ffmpeg", "ffmpeg", "ffmpeg binary")
	pf.Int("collar-seconds", 600, "seconds recorded before start and after stop")
	pf.String("save-dir", "recordings", "directory for audio files")
	pf.String("log-dir", "logs", "directory for station metadata and ffmpeg logs")
	pf.Bool("debug", false, "record every scheduled channel for 10s starting now, without collar")
	pf.BoolVar(&noDirectory, "no-directory", false, "disable radio-browser lookups, only channels with a url are recorded")
	pf.String("directory-url", "", "radio-browser API base URL")
	pf.String("listen", "", "status server address, e.g. :8080 (disabled when empty)")
	pf.IntVarP(&verboseLevel, "verbose", "v", 0, "verbose level: 0=info, 1=debug")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(channelsCmd)
	rootCmd.AddCommand(configCmd)
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		// unset flags must not shadow env and file values with their defaults
		if !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// setupLogging configures slog based on the verbose level
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))
}
