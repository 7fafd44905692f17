package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var completionShells = []string{"bash", "zsh", "fish"}

var completionCmd = &cobra.Command{
	Use:   "completion SHELL",
	Short: "generate completions for the stele command",
	Long: `Generate completions for your shell

	For bash add the following line to your ~/.bashrc

		eval "$(stele completion bash)"

	For zsh generate a file:

		stele completion zsh > /usr/local/share/zsh/site-functions/_stele

	For fish:

		stele completion fish > ~/.config/fish/completions/stele.fish
	`,
	ValidArgs: completionShells,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	Run: func(cmd *cobra.Command, args []string) {
		var err error
		switch args[0] {
		case "bash":
			err = rootCmd.GenBashCompletion(os.Stdout)
		case "zsh":
			err = rootCmd.GenZshCompletion(os.Stdout)
		case "fish":
			err = rootCmd.GenFishCompletion(os.Stdout, true)
		}
		if err != nil {
			wrapFatalln("failed to generate "+args[0]+" completion", err)
		}
	},
}

func init() {
	completionCmd.Hidden = true
	rootCmd.AddCommand(completionCmd)
}
