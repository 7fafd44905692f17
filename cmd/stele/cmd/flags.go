package cmd

import (
	"github.com/oneconcern/stele/pkg/config"
	"github.com/spf13/cobra"
)

type flagsT struct {
	root struct {
		logLevel string
	}
	core struct {
		Template     string
		ExecRoot     string
		SnapshotRoot string
	}
	exec struct {
		ID                 string
		Metadata           map[string]string
		Env                []string
		Dir                string
		CheckpointInterval float64
		Daemonize          bool
		Wait               bool
		MetricsAddr        string
		Follow             bool
	}
	checkpoint struct {
		Remote         string
		ArchivePrefix  string
		VarPrefix      string
		TolerateFailed bool
	}
	config struct {
		Output string
	}
}

var steleFlags = flagsT{}

func addLogLevel(cmd *cobra.Command) string {
	loglevel := "loglevel"
	cmd.PersistentFlags().StringVar(&steleFlags.root.logLevel, loglevel, "", "The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug (defaults to info)")
	return loglevel
}

func addExecRootFlag(cmd *cobra.Command) string {
	c := "exec-root"
	cmd.PersistentFlags().StringVar(&steleFlags.core.ExecRoot, c, "", `The directory tracking executions (defaults to ".stele")`)
	return c
}

func addSnapshotRootFlag(cmd *cobra.Command) string {
	c := "snapshot-root"
	cmd.PersistentFlags().StringVar(&steleFlags.core.SnapshotRoot, c, "", `The directory holding checkpoints (defaults to "snapshots")`)
	return c
}

func addTemplateFlag(cmd *cobra.Command) string {
	c := "format"
	cmd.PersistentFlags().StringVar(&steleFlags.core.Template, c, "", `Pretty-print stele objects using a Go template. Use '{{ printf "%#v" . }}' to explore available fields`)
	return c
}

func addExecIDFlag(cmd *cobra.Command) string {
	c := "exec-id"
	if cmd != nil {
		cmd.Flags().StringVar(&steleFlags.exec.ID, c, "", "The id of the execution (defaults to a new execution id)")
	}
	return c
}

func addMetadataFlag(cmd *cobra.Command) string {
	c := "meta"
	cmd.Flags().StringToStringVar(&steleFlags.exec.Metadata, c, nil, "Metadata recorded with the execution, as key=value pairs")
	return c
}

func addEnvFlag(cmd *cobra.Command) string {
	c := "env"
	cmd.Flags().StringArrayVar(&steleFlags.exec.Env, c, nil, "Additional environment variables for the process, as KEY=value")
	return c
}

func addWorkDirFlag(cmd *cobra.Command) string {
	c := "dir"
	cmd.Flags().StringVar(&steleFlags.exec.Dir, c, "", "The working directory of the process (defaults to the current directory)")
	return c
}

const checkpointIntervalFlag = "checkpoint-interval"

func addCheckpointIntervalFlag(cmd *cobra.Command) string {
	cmd.Flags().Float64Var(&steleFlags.exec.CheckpointInterval, checkpointIntervalFlag, 0,
		"The interval in seconds between checkpoints taken by the process. Zero disables periodic checkpoints")
	return checkpointIntervalFlag
}

func addDaemonizeFlag(cmd *cobra.Command) string {
	daemonize := "daemonize"
	if cmd != nil {
		cmd.Flags().BoolVar(&steleFlags.exec.Daemonize, daemonize, false, "Whether to supervise the execution from a daemonized process")
	}
	return daemonize
}

func addWaitFlag(cmd *cobra.Command) string {
	c := "wait"
	cmd.Flags().BoolVar(&steleFlags.exec.Wait, c, false, "Wait for the process to complete and exit with its exit code")
	return c
}

func addMetricsAddrFlag(cmd *cobra.Command) string {
	c := "metrics-addr"
	cmd.Flags().StringVar(&steleFlags.exec.MetricsAddr, c, "", "Serve prometheus metrics on this address while waiting, e.g. :9090")
	return c
}

func addFollowFlag(cmd *cobra.Command) string {
	c := "follow"
	cmd.Flags().BoolVar(&steleFlags.exec.Follow, c, false, "Poll for new audit records until the execution stops")
	return c
}

func addRemoteFlag(cmd *cobra.Command) string {
	c := "remote"
	cmd.Flags().StringVar(&steleFlags.checkpoint.Remote, c, "",
		"The location of a remote store: s3://bucket/prefix or a local directory (defaults to the configured remote). "+
			"Push accepts a comma-separated list of locations")
	return c
}

func addArchivePrefixFlag(cmd *cobra.Command) string {
	c := "prefix"
	cmd.Flags().StringVar(&steleFlags.checkpoint.ArchivePrefix, c, "", "A prefix for keys in the remote store")
	return c
}

func addTolerateFailureFlag(cmd *cobra.Command) string {
	c := "tolerate-failure"
	cmd.Flags().BoolVar(&steleFlags.checkpoint.TolerateFailed, c, false, "When pushing to several remotes, only the first one is required to succeed")
	return c
}

func addVarPrefixFlag(cmd *cobra.Command) string {
	c := "var-prefix"
	cmd.Flags().StringVar(&steleFlags.checkpoint.VarPrefix, c, "", "A prefix added to the names of restored variables")
	return c
}

func addConfigOutputFlag(cmd *cobra.Command) string {
	c := "output"
	cmd.Flags().StringVar(&steleFlags.config.Output, c, "", "Where to write the config file (defaults to $HOME/.stele/stele.yaml)")
	return c
}

/** parameters struct from other formats */

// apply config file + env vars to structure used to parse cli flags
func (flags *flagsT) setDefaultsFromConfig(c *config.Config) {
	if flags.root.logLevel == "" {
		flags.root.logLevel = c.LogLevel
	}
	if flags.core.ExecRoot == "" {
		flags.core.ExecRoot = c.StoragePath
	}
	if flags.core.SnapshotRoot == "" {
		flags.core.SnapshotRoot = c.SnapshotRoot
	}
	if flags.checkpoint.Remote == "" {
		flags.checkpoint.Remote = c.Remote
	}
}
