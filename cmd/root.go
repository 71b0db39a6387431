package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/config"
	"github.com/tanq16/dltime/internal/utils"
)

var (
	cfgFile string
	debug   bool
	cfg     *config.Config
)

var DltimeVersion = "dev"

var rootCmd = &cobra.Command{
	Use:     "dltime",
	Short:   "dltime estimates download times and measures internet speed",
	Version: DltimeVersion,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		utils.InitLogger(debug || cfg.Log.Debug)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file (optional)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newDownloadTimeCmd())
	rootCmd.AddCommand(newFinishTimeCmd())
	rootCmd.AddCommand(newSpeedTestCmd())
	rootCmd.AddCommand(newInvokeCmd())
	rootCmd.AddCommand(newBatchCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
}
