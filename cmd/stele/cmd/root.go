package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/oneconcern/stele/pkg/config"
	"github.com/oneconcern/stele/pkg/dlogger"
	"github.com/oneconcern/stele/pkg/metrics"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "stele",
	Short: "stele checkpoints values and runs durable executions",
	Long: `stele captures checkpoints of named values together with a record of where and how
they were taken, and supervises long running processes.

A checkpoint is an immutable directory named after the hash of its content:

  snapshots/<checkpoint_id>/{manifest.json,metadata.json,objects.bin,objects.idx,checksum.sha256}

An execution is a supervised process with its own state, pid and audit log:

  .stele/<exec_id>/{meta.json,pid,audit.log,stdout.log,stderr.log}
`,
	SilenceUsage: true,
}

var (
	cliConfig *config.Config
	logger    = zap.NewNop()
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	log.SetFlags(0)
	cobra.OnInitialize(initConfig)

	addLogLevel(rootCmd)
	addExecRootFlag(rootCmd)
	addSnapshotRootFlag(rootCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	var (
		err  error
		used string
	)
	cliConfig, used, err = config.Load()
	if err != nil {
		wrapFatalln("load config", err)
		return
	}
	steleFlags.setDefaultsFromConfig(cliConfig)

	logger, err = dlogger.GetLogger(steleFlags.root.logLevel)
	if err != nil {
		wrapFatalln("failed to set log level", err)
		return
	}
	if used != "" {
		logger.Debug("using config file", zap.String("path", used))
	}
	metrics.Init(metrics.WithProcessCollectors(true))
}
