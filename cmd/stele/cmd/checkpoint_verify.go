package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/spf13/cobra"
)

var checkpointVerify = &cobra.Command{
	Use:   "verify CHECKPOINT",
	Short: "Verify the integrity of a checkpoint",
	Long: `Verify the checksum of a checkpoint and the digest of every value it holds.

The command fails when the checkpoint is corrupted.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint verify", err)
		}(time.Now())

		dir, err := resolveCheckpoint(args[0])
		if err != nil {
			wrapFatalln("resolve checkpoint", err)
			return
		}
		if err = checkpoint.Verify(context.Background(), dir, checkpointOptions()...); err != nil {
			wrapFatalln("verify checkpoint "+filepath.Base(dir), err)
			return
		}
		logStdOut("%s %s\n", filepath.Base(dir), color.GreenString("OK"))
	},
}

func init() {
	checkpointCmd.AddCommand(checkpointVerify)
}
