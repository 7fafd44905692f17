package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	daemonizer "github.com/jacobsa/daemonize"
	"github.com/oneconcern/stele/pkg/engine"
	"github.com/oneconcern/stele/pkg/ids"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// daemonArgs rewrites the arguments of the run command for the daemonized process:
// the daemon runs in the foreground, waits for the execution and knows its id in advance.
func daemonArgs(args []string, execID string) []string {
	daemonize := "--" + addDaemonizeFlag(nil)
	execIDFlag := "--" + addExecIDFlag(nil)

	foregroundArgs := make([]string, 0, len(args)+2)
	hasID := false
	i := 0
	for ; i < len(args) && args[i] != "--"; i++ {
		arg := args[i]
		if arg == daemonize || strings.HasPrefix(arg, daemonize+"=") {
			continue
		}
		if arg == execIDFlag || strings.HasPrefix(arg, execIDFlag+"=") {
			hasID = true
		}
		foregroundArgs = append(foregroundArgs, arg)
	}
	if !hasID {
		foregroundArgs = append(foregroundArgs, execIDFlag+"="+execID)
	}
	foregroundArgs = append(foregroundArgs, "--wait")
	return append(foregroundArgs, args[i:]...)
}

// runDaemonized starts a daemon supervising the execution, and returns as soon as the execution has started.
//
// Go doesn't fork(): the daemon is the selfsame binary exec()ed without --daemonize. The daemon
// signals back the outcome of the start with daemonizer.SignalOutcome.
func runDaemonized() {
	path, err := os.Executable()
	if err != nil {
		wrapFatalln("os.Executable", err)
		return
	}
	if steleFlags.exec.ID == "" {
		steleFlags.exec.ID = ids.NewExecutionID()
	}

	foregroundArgs := daemonArgs(os.Args[1:], steleFlags.exec.ID)
	if err = daemonizer.Run(path, foregroundArgs, os.Environ(), os.Stdout); err != nil {
		wrapFatalln("daemonize.Run", err)
		return
	}
	logStdOut("%s\n", steleFlags.exec.ID)
}

// in between runDaemonized() and SignalOutcome(), call this function instead of logFatalln() or similar
// in case of errors
func onDaemonError(err error) {
	if errSig := daemonizer.SignalOutcome(err); errSig != nil {
		logFatalln(fmt.Errorf("error SignalOutcome: %v, cause: %v", errSig, err))
		return
	}
	logFatalln(err)
}

var runCmd = &cobra.Command{
	Use:   "run [flags] -- COMMAND [ARGS...]",
	Short: "Run a command as a durable execution",
	Long: `Run a command as a supervised process and print the id of the new execution.

The process is started in its own process group, with its output appended to stdout.log and stderr.log
in the execution directory. It receives STELE_EXEC_ID, STELE_EXEC_DIR and STELE_CHECKPOINT_INTERVAL in its environment.

By default the command returns as soon as the process is started. Use --wait to wait for its completion,
or --daemonize to let a background process wait for it and record its exit.`,
	Example: `% stele run --checkpoint-interval 5 --meta owner=ops -- stele-counter --target 100
execution-20240102T030405-1a2b3c4d`,
	Args: cobra.MinimumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		if !cmd.Flags().Changed(checkpointIntervalFlag) && cliConfig != nil {
			steleFlags.exec.CheckpointInterval = cliConfig.CheckpointInterval
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "run", err)
		}(time.Now())

		// cf. comments on runDaemonized
		if steleFlags.exec.Daemonize {
			runDaemonized()
			return
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		e, err := newEngine()
		if err != nil {
			onDaemonError(err)
			return
		}
		if steleFlags.exec.CheckpointInterval < 0 {
			err = fmt.Errorf("--%s must not be negative", checkpointIntervalFlag)
			onDaemonError(err)
			return
		}

		execID, err := e.Run(ctx, engine.RunSpec{
			Command:            args,
			ExecID:             steleFlags.exec.ID,
			Metadata:           steleFlags.exec.Metadata,
			Env:                steleFlags.exec.Env,
			Dir:                steleFlags.exec.Dir,
			CheckpointInterval: time.Duration(steleFlags.exec.CheckpointInterval * float64(time.Second)),
		})
		if err != nil {
			onDaemonError(err)
			return
		}
		if err = daemonizer.SignalOutcome(nil); err != nil {
			wrapFatalln("send event from possibly daemonized process", err)
			return
		}
		logStdOut("%s\n", execID)

		if !steleFlags.exec.Wait {
			return
		}
		stop := serveMetrics(steleFlags.exec.MetricsAddr)
		defer stop()

		code, err := e.Wait(ctx, execID)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("stopped waiting, the execution keeps running", zap.String("exec_id", execID))
				return
			}
			wrapFatalln("wait for execution", err)
			return
		}
		if code != 0 {
			wrapFatalWithCodef(code, "execution %s exited with code %d", execID, code)
		}
	},
}

func init() {
	addExecIDFlag(runCmd)
	addMetadataFlag(runCmd)
	addEnvFlag(runCmd)
	addWorkDirFlag(runCmd)
	addCheckpointIntervalFlag(runCmd)
	addDaemonizeFlag(runCmd)
	addWaitFlag(runCmd)
	addMetricsAddrFlag(runCmd)
	rootCmd.AddCommand(runCmd)
}
