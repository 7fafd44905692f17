package cmd

import (
	"github.com/oneconcern/stele/pkg/config"
	"github.com/spf13/cobra"
)

var configCreate = &cobra.Command{
	Use:   "create",
	Short: "Create a config",
	Long: `Create a config file from the current settings. The config file is placed in $HOME/.stele/stele.yaml,
unless --output is specified.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := currentConfig()
		cfg.LogLevel = steleFlags.root.logLevel
		cfg.StoragePath = steleFlags.core.ExecRoot
		cfg.SnapshotRoot = steleFlags.core.SnapshotRoot
		if steleFlags.checkpoint.Remote != "" {
			cfg.Remote = steleFlags.checkpoint.Remote
		}
		if err := cfg.Validate(); err != nil {
			wrapFatalln("invalid config", err)
			return
		}

		output := steleFlags.config.Output
		if output == "" {
			var err error
			if output, err = config.DefaultPath(); err != nil {
				wrapFatalln("could not get home directory for user", err)
				return
			}
		}
		if err := cfg.Write(output); err != nil {
			wrapFatalln("write config file", err)
			return
		}
		logStdOut("config written to %s\n", output)
	},
}

func init() {
	addConfigOutputFlag(configCreate)
	addRemoteFlag(configCreate)
	configCmd.AddCommand(configCreate)
}
