package main

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bundleparty.

To load completions:

Bash:
  $ source <(bundleparty completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ bundleparty completion bash > /etc/bash_completion.d/bundleparty
  # macOS:
  $ bundleparty completion bash > $(brew --prefix)/etc/bash_completion.d/bundleparty

Zsh:
  $ bundleparty completion zsh > "${fpath[1]}/_bundleparty"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ bundleparty completion fish > ~/.config/fish/completions/bundleparty.fish

PowerShell:
  PS> bundleparty completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		// Completion scripts do not need the bundle configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
