package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/output"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			data, err := cfg.YAML()
			if err != nil {
				exitWithError("Cannot render config", err)
			}
			output.PrintHeader("# effective dltime configuration")
			fmt.Print(string(data))
		},
	}
}
