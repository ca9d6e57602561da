package cli

import (
	"github.com/spf13/cobra"
)

// completionCommand generates shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for graphview.

To load completions:

Bash:
  $ source <(graphview completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ graphview completion bash > /etc/bash_completion.d/graphview
  # macOS:
  $ graphview completion bash > $(brew --prefix)/etc/bash_completion.d/graphview

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ graphview completion zsh > "${fpath[1]}/_graphview"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ graphview completion fish | source

  # To load completions for each session, execute once:
  $ graphview completion fish > ~/.config/fish/completions/graphview.fish

PowerShell:
  PS> graphview completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> graphview completion powershell > graphview.ps1
  # and source this file from your PowerShell profile.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(stdout)
			case "zsh":
				return cmd.Root().GenZshCompletion(stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(stdout)
			}
			return nil
		},
	}

	return cmd
}
