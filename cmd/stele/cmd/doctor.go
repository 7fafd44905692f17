package cmd

import (
	"context"
	"time"

	"github.com/fatih/color"
	"github.com/oneconcern/stele/pkg/invariants"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the core invariants of this installation",
	Long: `Check the configuration, the executions and the checkpoints of this installation against the core invariants:

  commit-log-append-only  every audit log is a well-formed list of records
  ids-immutable           every execution keeps the id it was created with
  snapshot-consistency    every checkpoint verifies
  clock-monotonic         audit timestamps never go backwards
  config-version-set      the configuration carries a version
  storage-path-set        the configuration carries a storage path

The command fails when an invariant is violated.`,
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "doctor", err)
		}(time.Now())

		cfg := *currentConfig()
		cfg.StoragePath = steleFlags.core.ExecRoot
		cfg.SnapshotRoot = steleFlags.core.SnapshotRoot

		if err = cfg.Validate(); err != nil {
			logStdOut("%s config: %v\n", color.RedString("✗"), err)
		}

		state, err := invariants.Collect(context.Background(), &cfg, logger)
		if err != nil {
			wrapFatalln("collect state", err)
			return
		}
		violated := make(map[string]bool)
		for _, name := range invariants.Check(state) {
			violated[name] = true
		}

		for _, name := range invariants.Core() {
			if violated[name] {
				logStdOut("%s %s\n", color.RedString("✗"), name)
				continue
			}
			logStdOut("%s %s\n", color.GreenString("✓"), name)
		}
		if len(violated) > 0 {
			wrapFatalWithCodef(1, "%d invariant(s) violated", len(violated))
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
