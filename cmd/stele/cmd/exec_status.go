package cmd

import (
	"time"

	"github.com/fatih/color"
	"github.com/oneconcern/stele/pkg/model"
	"github.com/spf13/cobra"
)

func stateString(state model.ExecState) string {
	switch state {
	case model.StateRunning:
		return color.GreenString(string(state))
	case model.StatePaused:
		return color.YellowString(string(state))
	case model.StateFailed, model.StateKilled:
		return color.RedString(string(state))
	default:
		return color.HiBlackString(string(state))
	}
}

var statusCmd = &cobra.Command{
	Use:   "status EXEC_ID",
	Short: "Show the status of an execution",
	Long: `Show the status of an execution, as observed from its process: RUNNING, PAUSED or STOPPED.

A process which has exited, including a zombie process, is STOPPED.`,
	Example: `% stele status execution-20240102T030405-1a2b3c4d
execution-20240102T030405-1a2b3c4d RUNNING 4242`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "status", err)
		}(time.Now())

		e, err := newEngine()
		if err != nil {
			wrapFatalln("create engine", err)
			return
		}
		st, err := e.Status(args[0])
		if err != nil {
			wrapFatalln("get status", err)
			return
		}
		t, err := outputTemplate("status", `{{.ExecID}} {{.State}} {{.PID}}`)
		if err != nil {
			wrapFatalln("invalid template", err)
			return
		}
		if err = applyTemplate(t, st); err != nil {
			wrapFatalln("executing template", err)
		}
	},
}

func init() {
	addTemplateFlag(statusCmd)
	rootCmd.AddCommand(statusCmd)
}
