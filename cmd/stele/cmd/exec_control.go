package cmd

import (
	"time"

	"github.com/fatih/color"
	"github.com/oneconcern/stele/pkg/engine"
	"github.com/spf13/cobra"
)

// controlCommand builds a command signaling the process of an execution
func controlCommand(use, short, long, done string, action func(*engine.Engine, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " EXEC_ID",
		Short: short,
		Long:  long,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			var err error
			defer func(t0 time.Time) {
				cliUsage(t0, use, err)
			}(time.Now())

			e, err := newEngine()
			if err != nil {
				wrapFatalln("create engine", err)
				return
			}
			if err = action(e, args[0]); err != nil {
				wrapFatalln(use+" execution "+args[0], err)
				return
			}
			logStdOut("%s %s\n", args[0], color.YellowString(done))
		},
	}
}

var pauseCmd = controlCommand("pause", "Pause an execution",
	`Suspend the process of an execution with SIGSTOP.

Pausing an execution which is not running is recorded as PAUSE_SKIPPED in its audit log.
On systems without POSIX signals, the pause is skipped.`,
	"paused",
	func(e *engine.Engine, execID string) error { return e.Pause(execID) },
)

var resumeCmd = controlCommand("resume", "Resume a paused execution",
	`Continue the process of a paused execution with SIGCONT.

A process which is gone cannot be restarted: resuming it fails.`,
	"resumed",
	func(e *engine.Engine, execID string) error { return e.Resume(execID) },
)

var killCmd = controlCommand("kill", "Kill an execution",
	`Kill the process of an execution with SIGKILL. The kill is recorded in the audit log even when the process is already gone.`,
	"killed",
	func(e *engine.Engine, execID string) error { return e.Kill(execID) },
)

func init() {
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(killCmd)
}
