package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/output"
	"github.com/tanq16/dltime/internal/probe"
	"github.com/tanq16/dltime/internal/units"
)

func newSpeedTestCmd() *cobra.Command {
	var payloadBytes int64

	cmd := &cobra.Command{
		Use:     "speedtest [--bytes N]",
		Aliases: []string{"st"},
		Short:   "Measure download throughput against the benchmark endpoint",
		Args:    cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			probeConfig := cfg.ProbeConfig()
			if payloadBytes > 0 {
				probeConfig.PayloadBytes = payloadBytes
			}
			prober := probe.New(probeConfig)

			var mgr *output.Manager
			taskID := 0
			if output.IsTerminal() {
				mgr = output.NewManager(os.Stdout)
				taskID = mgr.Register("speed test")
				host := probeConfig.URL
				if parsed, err := url.Parse(probeConfig.URL); err == nil {
					host = parsed.Host
				}
				mgr.SetMessage(taskID, fmt.Sprintf("Downloading %s from %s", units.FormatBytes(uint64(prober.PayloadBytes())), host))
				prober.SetProgressFunc(func(read, total int64) {
					mgr.SetProgress(taskID, read, total)
				})
				mgr.StartDisplay()
			}

			res := <-prober.Start(context.Background())
			if mgr != nil {
				if res.Err != nil {
					mgr.ReportError(taskID, res.Err)
				} else {
					mgr.Complete(taskID, fmt.Sprintf("Measured %s", units.FormatSpeed(res.Speed)))
				}
				mgr.StopDisplay()
			}
			if res.Err != nil {
				exitWithError("Speed test failed", res.Err)
			}

			output.PrintField("Download Speed", fmt.Sprintf("%.0f B/s", res.Speed))
			output.PrintField("Human", units.FormatSpeed(res.Speed))
			output.PrintField("Megabits", units.FormatMbps(res.Speed))
		},
	}

	cmd.Flags().Int64VarP(&payloadBytes, "bytes", "b", 0, "Payload size in bytes (defaults to probe.payload_bytes)")
	return cmd
}
