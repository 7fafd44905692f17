package cmd

import (
	"context"
	"path/filepath"
	"time"

	"github.com/oneconcern/stele/pkg/checkpoint"
	"github.com/oneconcern/stele/pkg/storage/remote"
	"github.com/spf13/cobra"
)

var checkpointPush = &cobra.Command{
	Use:   "push CHECKPOINT",
	Short: "Push a checkpoint to remote stores",
	Long: `Copy a checkpoint to one or several remote stores, after verifying it.

Remote stores already holding the checkpoint are skipped.`,
	Example: `% stele checkpoint push latest --remote s3://my-bucket/checkpoints,/mnt/backup`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint push", err)
		}(time.Now())

		dir, err := resolveCheckpoint(args[0])
		if err != nil {
			wrapFatalln("resolve checkpoint", err)
			return
		}
		stores, err := openRemotes(steleFlags.checkpoint.Remote)
		if err != nil {
			wrapFatalln("open remote stores", err)
			return
		}
		if err = checkpoint.Push(context.Background(), dir, stores, checkpointOptions()...); err != nil {
			wrapFatalln("push checkpoint", err)
			return
		}
		logStdOut("pushed %s\n", filepath.Base(dir))
	},
}

var checkpointPull = &cobra.Command{
	Use:   "pull CHECKPOINT_ID",
	Short: "Pull a checkpoint from a remote store",
	Long: `Fetch a checkpoint from a remote store into the snapshot root.

The fetched checkpoint is verified before it is moved into place. Pulling a checkpoint present locally does nothing.`,
	Example: `% stele checkpoint pull 3f5a2c1b9e8d7f6a... --remote s3://my-bucket/checkpoints`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		defer func(t0 time.Time) {
			cliUsage(t0, "checkpoint pull", err)
		}(time.Now())

		if steleFlags.checkpoint.Remote == "" {
			err = errNoRemote
			wrapFatalln("open remote store", err)
			return
		}
		store, err := remote.Open(steleFlags.checkpoint.Remote, remote.Logger(logger))
		if err != nil {
			wrapFatalln("open remote store", err)
			return
		}
		dir, err := checkpoint.Pull(context.Background(), args[0], store, checkpointOptions()...)
		if err != nil {
			wrapFatalln("pull checkpoint", err)
			return
		}
		logStdOut("%s\n", dir)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{checkpointPush, checkpointPull} {
		addRemoteFlag(cmd)
		addArchivePrefixFlag(cmd)
	}
	addTolerateFailureFlag(checkpointPush)
	checkpointCmd.AddCommand(checkpointPush)
	checkpointCmd.AddCommand(checkpointPull)
}
