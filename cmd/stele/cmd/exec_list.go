package cmd

import (
	"strconv"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/cobra"
)

type execEntry struct {
	model.ExecStatus
	Meta *model.ExecMeta
}

var listCmd = &cobra.Command{
	Use:     "ls",
	Short:   "List executions",
	Long:    `List all executions with their observed status, sorted by id.`,
	Aliases: []string{"list"},
	Example: `% stele ls
EXEC ID                                 STATE    PID   CREATED                    COMMAND
execution-20240102T030405-1a2b3c4d      RUNNING  4242  2024-01-02T03:04:05.123Z   stele-counter --target 100`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "ls", err)
		}(time.Now())

		e, err := newEngine()
		if err != nil {
			wrapFatalln("create engine", err)
			return
		}
		statuses, err := e.List()
		if err != nil {
			wrapFatalln("list executions", err)
			return
		}

		entries := make([]execEntry, 0, len(statuses))
		for _, st := range statuses {
			meta, erm := e.Meta(st.ExecID)
			if erm != nil {
				err = erm
				wrapFatalln("read execution meta", err)
				return
			}
			entries = append(entries, execEntry{ExecStatus: st, Meta: meta})
		}

		if steleFlags.core.Template != "" {
			t, ert := outputTemplate("list line", "")
			if ert != nil {
				err = ert
				wrapFatalln("invalid template", err)
				return
			}
			for _, entry := range entries {
				if err = applyTemplate(t, entry); err != nil {
					wrapFatalln("executing template", err)
					return
				}
			}
			return
		}

		table := uitable.New()
		table.MaxColWidth = 60
		table.AddRow("EXEC ID", "STATE", "PID", "CREATED", "COMMAND")
		for _, entry := range entries {
			pid := ""
			if entry.PID > 0 {
				pid = strconv.Itoa(entry.PID)
			}
			table.AddRow(entry.ExecID, stateString(entry.State), pid, entry.Meta.CreatedAt, strings.Join(entry.Meta.Command, " "))
		}
		logStdOut("%s\n", table.String())
	},
}

func init() {
	addTemplateFlag(listCmd)
	rootCmd.AddCommand(listCmd)
}
