package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/output"
	"github.com/tanq16/dltime/internal/server"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve [--addr HOST:PORT]",
		Short: "Serve the command table over HTTP for the GUI front-end",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			d := newDispatcher(reg)
			handler := server.NewRouter(d, server.Options{
				Version:        DltimeVersion,
				Gatherer:       reg,
				AllowedOrigins: cfg.Server.AllowedOrigins,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			output.PrintInfo("Serving commands on http://" + addr)
			if err := server.New(addr, handler).Run(ctx); err != nil {
				exitWithError("Server stopped", err)
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (defaults to server.addr)")
	return cmd
}
