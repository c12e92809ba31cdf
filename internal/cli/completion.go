package cli

import (
	"github.com/spf13/cobra"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for kdlgen.

Bash:
  $ source <(kdlgen completion bash)

Zsh:
  $ kdlgen completion zsh > "${fpath[1]}/_kdlgen"

Fish:
  $ kdlgen completion fish > ~/.config/fish/completions/kdlgen.fish

PowerShell:
  PS> kdlgen completion powershell | Out-String | Invoke-Expression

Flag values such as --from, --map-format and --field-naming are completed
as well.
`,
		// completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}

			return nil
		},
	}

	return cmd
}

var flagValues = map[string][]string{
	"log-level":    {"debug", "info", "warn", "error"},
	"log-format":   {"text", "json"},
	"map-format":   {"infer", "tuple", "struct"},
	"field-naming": {"as-is", "kebab", "snake", "camel", "lower-camel"},
	"from":         {"auto", "yaml", "json", "toml", "msgpack"},
}

// registerFlagCompletions completes the named flags of cmd from a closed
// set of values.
func registerFlagCompletions(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		values := flagValues[name]

		_ = cmd.RegisterFlagCompletionFunc(name,
			func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
				return values, cobra.ShellCompDirectiveNoFileComp
			})
	}
}
