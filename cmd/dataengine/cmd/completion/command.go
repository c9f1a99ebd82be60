// Package completion implements the completion command.
package completion

import (
	"github.com/spf13/cobra"
)

// Supported shells.
const (
	ShellBash       = "bash"
	ShellZsh        = "zsh"
	ShellFish       = "fish"
	ShellPowerShell = "powershell"
)

// NewCommand creates the completion command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(dataengine completion bash)

Zsh:

  $ dataengine completion zsh > "${fpath[1]}/_dataengine"

Fish:

  $ dataengine completion fish | source

PowerShell:

  PS> dataengine completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{ShellBash, ShellZsh, ShellFish, ShellPowerShell},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case ShellBash:
				return cmd.Root().GenBashCompletionV2(out, true)
			case ShellZsh:
				return cmd.Root().GenZshCompletion(out)
			case ShellFish:
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
