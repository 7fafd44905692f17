package cmd

import (
	"time"

	"github.com/gosuri/uitable"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/spf13/cobra"
)

const shortIDLength = 16

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

var checkpointList = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints",
	Long:  `List the checkpoints stored under the snapshot root, most recent first.`,
	Example: `% stele checkpoint list
ID                  TIMESTAMP                        NAME    EXECUTION                             CALLER
3f5a2c1b9e8d7f6a    2024-01-02T03:04:05.123456789Z   final   execution-20240102T030405-1a2b3c4d    main.go:42 (main.count)`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint list", err)
		}(time.Now())

		summaries, err := checkpoint.List(checkpointOptions()...)
		if err != nil {
			wrapFatalln("list checkpoints", err)
			return
		}

		if steleFlags.core.Template != "" {
			t, ert := outputTemplate("list line", "")
			if ert != nil {
				err = ert
				wrapFatalln("invalid template", err)
				return
			}
			for _, summary := range summaries {
				if err = applyTemplate(t, summary); err != nil {
					wrapFatalln("executing template", err)
					return
				}
			}
			return
		}

		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("ID", "TIMESTAMP", "NAME", "EXECUTION", "CALLER")
		for _, summary := range summaries {
			md := summary.Metadata
			table.AddRow(shortID(summary.ID), md.Timestamp.Format(time.RFC3339Nano), md.CheckpointName, md.ExecutionID, md.Caller.String())
		}
		logStdOut("%s\n", table.String())
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointList)
}
