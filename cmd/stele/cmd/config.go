package cmd

import (
	"github.com/spf13/cobra"
)

// configCmd represents the config related commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Commands to manage a config",
	Long: `Commands to manage the stele CLI config.

Configuration for stele is the common set of settings that are needed for most commands and do not change across runs,
analogous to "git config ...". Settings are resolved from STELE_* environment variables, then from the config file,
then from defaults. The config file is $STELE_CONFIG when set, otherwise stele.yaml searched in the current directory,
$HOME/.stele then /etc/stele.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
