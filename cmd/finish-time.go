package cmd

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/output"
)

func newFinishTimeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "finish-time [SECONDS]",
		Aliases: []string{"ft"},
		Short:   "Project the wall-clock time after SECONDS (use -- for negative values)",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			seconds, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				exitWithError("Invalid number of seconds", err)
			}
			d := newDispatcher(prometheus.NewRegistry())
			inv, err := invokeCommand(d, dispatch.CmdFinishTime, dispatch.FinishTimeArgs{DownloadTime: &seconds})
			if err != nil {
				exitWithError("Cannot project finish time", err)
			}
			output.PrintField("Finish Time", inv.Result.(string))
		},
	}
}
