package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/estimate"
	"github.com/tanq16/dltime/internal/output"
	"github.com/tanq16/dltime/internal/probe"
)

// newDispatcher builds the command table from the loaded config.
func newDispatcher(reg prometheus.Registerer) *dispatch.Dispatcher {
	loc, err := cfg.Location()
	if err != nil {
		exitWithError("Invalid display timezone", err)
	}
	d := dispatch.NewDispatcher(dispatch.NewMetrics(reg))
	dispatch.RegisterCommands(d, estimate.NewProjector(loc), probe.New(cfg.ProbeConfig()))
	return d
}

// argsEncoder is implemented by the dispatch argument types.
type argsEncoder interface {
	Encode() (json.RawMessage, error)
}

// invokeCommand runs name with args; a nil args sends no arguments.
func invokeCommand(d *dispatch.Dispatcher, name string, args argsEncoder) (dispatch.Invocation, error) {
	var raw json.RawMessage
	if args != nil {
		encoded, err := args.Encode()
		if err != nil {
			return dispatch.Invocation{Command: name}, err
		}
		raw = encoded
	}
	return d.Invoke(context.Background(), name, raw)
}

func exitWithError(message string, err error) {
	output.PrintError(fmt.Sprintf("%s: %v", message, err))
	os.Exit(1)
}
