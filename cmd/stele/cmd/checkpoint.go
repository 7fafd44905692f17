package cmd

import (
	"github.com/spf13/cobra"
)

// checkpointCmd represents the checkpoint related commands
var checkpointCmd = &cobra.Command{
	Use:     "checkpoint",
	Aliases: []string{"ckpt"},
	Short:   "Commands to manage checkpoints",
	Long: `Commands to manage checkpoints.

A checkpoint is a point in time, read-only snapshot of named values, identified by the hash of its content.
Commands accept a checkpoint id, the path to a checkpoint directory, or "latest".`,
}

func init() {
	addTemplateFlag(checkpointCmd)
	rootCmd.AddCommand(checkpointCmd)
}
