package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/output"
	"github.com/tanq16/dltime/internal/scheduler"
	"github.com/tanq16/dltime/internal/units"
)

func newBatchCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch [YAML_FILE] [--workers N]",
		Short: "Estimate download times for every file listed in a YAML file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			batch, err := scheduler.LoadBatchFile(args[0])
			if err != nil {
				exitWithError("Cannot load batch file", err)
			}
			d := newDispatcher(prometheus.NewRegistry())

			speed := batch.BytesPerSecond()
			if speed == 0 {
				output.PrintInfo("No speed in batch file, running a speed test first...")
				inv, err := invokeCommand(d, dispatch.CmdSpeedTest, nil)
				if err != nil {
					exitWithError("Speed test failed", err)
				}
				speed = inv.Result.(float64)
				output.PrintField("Measured Speed", fmt.Sprintf("%s (%s)", units.FormatSpeed(speed), units.FormatMbps(speed)))
			}

			var reporter scheduler.Reporter
			var mgr *output.Manager
			if output.IsTerminal() {
				mgr = output.NewManager(os.Stdout)
				reporter = mgr
				mgr.StartDisplay()
			}
			results := scheduler.Run(context.Background(), d, batch.BuildJobs(), speed, workers, reporter)
			if mgr != nil {
				mgr.StopDisplay()
				mgr.ShowSummary()
			}

			failed := 0
			rows := make([][]string, 0, len(results))
			for _, job := range results {
				errText := ""
				if job.Err != nil {
					errText = job.Err.Error()
					failed++
				}
				rows = append(rows, []string{job.Name, units.FormatSize(job.Bytes), job.Time.String(), job.Finish, errText})
			}
			fmt.Println(output.RenderTable([]string{"File", "Size", "Download Time", "Finish", "Error"}, rows, 4))
			if failed > 0 {
				output.PrintError(fmt.Sprintf("%d of %d estimates failed", failed, len(results)))
				os.Exit(1)
			}
			output.PrintSuccess(fmt.Sprintf("Estimated %d files at %s", len(results), units.FormatSpeed(speed)))
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of estimates to run in parallel")
	return cmd
}
