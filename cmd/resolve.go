package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/broadcastrec/internal/service"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [channel-name]",
	Short: "Resolve a configured channel to its station record",
	Long: `Look up a configured channel the same way a run would and print the
station record as JSON. Nothing is recorded.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, slog.Default())
		station, err := svc.Resolve(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %q: %w", args[0], err)
		}

		out, err := json.MarshalIndent(station, "", "  ")
		if err != nil {
			return fmt.Errorf("error marshaling station: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}
