package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
)

const configHeader = `# ogsetup configuration
#
# splunkd.token may be left empty: ogsetup then uses SPLUNK_TOKEN or the
# session cached by 'ogsetup login'.
`

// defaultConfig renders the default definition as YAML.
func defaultConfig() ([]byte, error) {
	body, err := yaml.Marshal(config.Defaults())
	if err != nil {
		return nil, fmt.Errorf("rendering default configuration: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}

func NewInitCommand(cfg *config.Config) *cobra.Command {
	var (
		printOnly bool
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an ogsetup.yaml with the default settings",
		Long:  "Write the default configuration to the --config path, or print it with --print.",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := defaultConfig()
			if err != nil {
				return err
			}

			if printOnly {
				_, err := cmd.OutOrStdout().Write(content)
				return err
			}

			path := cfg.Path
			if path == "" {
				path = config.DefaultPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				return dserrors.UserError{
					Message:    fmt.Sprintf("%s already exists", path),
					Suggestion: "Remove it first or pass --force to overwrite",
				}
			}

			if err := os.WriteFile(path, content, 0600); err != nil {
				return dserrors.UserError{
					Message:    "Failed to write configuration file",
					Details:    err.Error(),
					Suggestion: "Check that the directory exists and is writable",
					Err:        err,
				}
			}

			cfg.Logger.Info("Created %s", path)
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Next: run 'ogsetup login' and then 'ogsetup setup'")
			return nil
		},
	}

	cmd.Flags().BoolVar(&printOnly, "print", false, "Print the configuration instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
