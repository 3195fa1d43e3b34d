package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bumper/pkg/pipeline"
)

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for bumper.

Bash:
  $ source <(bumper completion bash)

Zsh:
  $ bumper completion zsh > "${fpath[1]}/_bumper"

Fish:
  $ bumper completion fish > ~/.config/fish/completions/bumper.fish

PowerShell:
  PS> bumper completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(os.Stdout, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(os.Stdout)
			case "fish":
				return cmd.Root().GenFishCompletion(os.Stdout, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(os.Stdout)
			}
			return nil
		},
	}
}

// completeManifest suggests JSON files for the manifest argument.
func completeManifest(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{"json"}, cobra.ShellCompDirectiveFilterFileExt
}

// completeSection suggests values for --only.
func completeSection(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return pipeline.Sections, cobra.ShellCompDirectiveNoFileComp
}
