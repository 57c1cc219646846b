package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion script",
	Long: `Generate a shell completion script for relay, including descriptions of
every subcommand and flag.

To load completions:

Bash:
  $ source <(relay completion bash)
  # To load permanently:
  $ relay completion bash > /etc/bash_completion.d/relay

Zsh:
  $ relay completion zsh > "${fpath[1]}/_relay"
  $ compinit

Fish:
  $ relay completion fish | source
  # To load permanently:
  $ relay completion fish > ~/.config/fish/completions/relay.fish

PowerShell:
  PS> relay completion powershell | Out-String | Invoke-Expression
  # To load permanently, add to your PowerShell profile
`,
	ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
	Args:      cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, out := cmd.Root(), cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return root.GenBashCompletionV2(out, true)
		case "zsh":
			return root.GenZshCompletion(out)
		case "fish":
			return root.GenFishCompletion(out, true)
		case "powershell":
			return root.GenPowerShellCompletionWithDesc(out)
		default:
			return fmt.Errorf("unsupported shell: %s", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
