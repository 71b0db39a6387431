package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/tanq16/dltime/internal/dispatch"
	"github.com/tanq16/dltime/internal/server"
)

func newInvokeCmd() *cobra.Command {
	var listOnly bool

	cmd := &cobra.Command{
		Use:   "invoke [COMMAND] [JSON_ARGS]",
		Short: "Invoke a front-end command by name and print the JSON reply",
		Args:  cobra.RangeArgs(0, 2),
		Run: func(cmd *cobra.Command, args []string) {
			d := newDispatcher(prometheus.NewRegistry())
			if listOnly || len(args) == 0 {
				for _, name := range d.Commands() {
					fmt.Println(name)
				}
				return
			}
			var raw json.RawMessage
			if len(args) == 2 {
				raw = json.RawMessage(args[1])
			}
			inv, err := d.Invoke(cmd.Context(), args[0], raw)
			encoded, marshalErr := encodeReply(inv, err)
			if marshalErr != nil {
				exitWithError("Cannot encode reply", marshalErr)
			}
			fmt.Println(string(encoded))
			if err != nil {
				os.Exit(1)
			}
		},
	}

	cmd.Flags().BoolVarP(&listOnly, "list", "l", false, "List registered commands")
	return cmd
}

func encodeReply(inv dispatch.Invocation, err error) ([]byte, error) {
	reply := server.InvokeReply{ID: inv.ID, Command: inv.Command, Result: inv.Result}
	if err != nil {
		reply.Error = err.Error()
		reply.Kind = dispatch.ErrorKind(err)
	}
	return json.MarshalIndent(reply, "", "  ")
}
