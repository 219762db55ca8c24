package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/broadcastrec/internal/service"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Record all configured channels",
	Long: `Start one recorder per configured channel and wait until every one of
them has finished. Channels without start and stop are ignored. Ctrl+C stops
waiting recorders and lets running ffmpeg processes finalize their files.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc := service.New(cfg, slog.Default())
		results := svc.Run(ctx)

		if ctx.Err() != nil {
			slog.Warn("Interrupted, some channels were not recorded")
		}
		slog.Info("Finished", "recorded", results.Succeeded(), "channels", len(results))
		return nil
	},
}
