package cmd

import (
	"context"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/spf13/cobra"
)

var checkpointRestore = &cobra.Command{
	Use:   "restore CHECKPOINT",
	Short: "Restore the values of a checkpoint",
	Long: `Restore the values saved in a checkpoint and print them as JSON, one variable per line.

The checkpoint is verified before any value is decoded.`,
	Example: `% stele checkpoint restore latest --var-prefix saved_
saved_count = 42
saved_label = "counter"`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint restore", err)
		}(time.Now())

		dir, err := resolveCheckpoint(args[0])
		if err != nil {
			wrapFatalln("resolve checkpoint", err)
			return
		}
		values := make(map[string]interface{})
		names, err := checkpoint.Restore(context.Background(), dir, values, steleFlags.checkpoint.VarPrefix, checkpointOptions()...)
		if err != nil {
			wrapFatalln("restore checkpoint", err)
			return
		}

		for _, name := range names {
			b, erm := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(values[name])
			if erm != nil {
				err = erm
				wrapFatalln("serialize "+name, err)
				return
			}
			logStdOut("%s = %s\n", name, string(b))
		}
	},
}

func init() {
	addVarPrefixFlag(checkpointRestore)
	checkpointCmd.AddCommand(checkpointRestore)
}
