package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/audiolibrelab/broadcastrec/internal/service"
)

const planTimeLayout = "2006-01-02 15:04:05 MST"

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List configured channels and their schedule",
	Long: `List every configured channel with the instant its recorder starts
waiting for, its recording window (collar included) and whether a run started
now would record it (pending), ignore it (inert) or find it too late (late).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := service.New(cfg, slog.Default())
		plans := svc.Plan(time.Now())
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Channels (%d), collar %s\n", len(plans), cfg.Options.Collar())
		for i, p := range plans {
			fmt.Fprintf(out, "  %d. %s [%s] via %s\n", i+1, p.Name, p.Status, p.Source)
			if p.Status == service.PlanInert {
				continue
			}
			fmt.Fprintf(out, "     wait until: %s\n", p.WaitUntil.Local().Format(planTimeLayout))
			fmt.Fprintf(out, "     record to:  %s\n", p.RecordUntil.Local().Format(planTimeLayout))
		}
		return nil
	},
}
