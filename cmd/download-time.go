package cmd

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/output"
	"github.com/tanq16/dltime/internal/units"
)

func newDownloadTimeCmd() *cobra.Command {
	var sizeUnit string
	var speedUnit string

	cmd := &cobra.Command{
		Use:     "download-time [SIZE] [SPEED] [--size-unit UNIT] [--speed-unit UNIT]",
		Aliases: []string{"dt"},
		Short:   "Estimate how long a download takes and when it finishes",
		Args:    cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			size, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				exitWithError("Invalid file size", err)
			}
			speed, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				exitWithError("Invalid download speed", err)
			}
			sizeBytes, err := units.ToBytes(size, sizeUnit)
			if err != nil {
				exitWithError("Invalid file size", err)
			}
			speedBps, err := units.ToBytesPerSecond(speed, speedUnit)
			if err != nil {
				exitWithError("Invalid download speed", err)
			}

			d := newDispatcher(prometheus.NewRegistry())
			inv, err := invokeCommand(d, dispatch.CmdDownloadTime, dispatch.DownloadTimeArgs{FileSize: &sizeBytes, DownloadSpeed: &speedBps})
			if err != nil {
				exitWithError("Cannot estimate download time", err)
			}
			downloadTime := inv.Result.(estimate.DownloadTime)
			seconds := downloadTime.TotalSeconds()
			inv, err = invokeCommand(d, dispatch.CmdFinishTime, dispatch.FinishTimeArgs{DownloadTime: &seconds})
			if err != nil {
				exitWithError("Cannot project finish time", err)
			}

			output.PrintField("Download Time", downloadTime.String())
			output.PrintField("Finish Time", inv.Result.(string))
			output.PrintDetail(fmt.Sprintf("Based on a %s file and an internet speed of %s (%s)",
				units.FormatSize(sizeBytes), units.FormatSpeed(speedBps), units.FormatMbps(speedBps)))
		},
	}

	cmd.Flags().StringVarP(&sizeUnit, "size-unit", "s", "b", "File size unit (b, kb, mb, gb, tb)")
	cmd.Flags().StringVarP(&speedUnit, "speed-unit", "u", "bps", "Speed unit (bps, kbps, kbs, mbps, mbs, gbps, gbs)")
	return cmd
}
