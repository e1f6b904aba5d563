package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
)

var completionShells = []string{"bash", "zsh", "fish", "powershell"}

// NewCompletionCommand creates the completion command. Besides command and
// flag names, the scripts complete --region with the known Opsgenie regions.
func NewCompletionCommand(_ *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for ogsetup and write it to stdout.

  bash:        source <(ogsetup completion bash)
  zsh:         ogsetup completion zsh > "${fpath[1]}/_ogsetup"
  fish:        ogsetup completion fish | source
  powershell:  ogsetup completion powershell | Out-String | Invoke-Expression

Start a new shell after installing the script.`,
		DisableFlagsInUseLine: true,
		ValidArgs:             completionShells,
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			default:
				return root.GenBashCompletionV2(out, true)
			}
		},
	}
}
