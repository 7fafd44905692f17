package cmd

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var configShow = &cobra.Command{
	Use:   "show",
	Short: "Show the config",
	Long:  `Show the settings in effect, as YAML, and whether they are valid.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := currentConfig()
		b, err := cfg.Marshal()
		if err != nil {
			wrapFatalln("serialize config", err)
			return
		}
		logStdOut("%s", string(b))
		if err = cfg.Validate(); err != nil {
			logStdOut("# %s\n", color.RedString(err.Error()))
		}
	},
}

func init() {
	configCmd.AddCommand(configShow)
}
