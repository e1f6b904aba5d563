package commands

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/secure"
	"github.com/systmms/ogsetup/internal/setup"
	"github.com/systmms/ogsetup/internal/validation"
)

// EnvAPIKey is read when --api-key is not given.
const EnvAPIKey = "OPSGENIE_API_KEY"

func NewSetupCommand(cfg *config.Config) *cobra.Command {
	var (
		opts   splunkdOptions
		apiKey string
		region string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the Opsgenie app in Splunk",
		Long: `Store the Opsgenie API key in splunkd and mark the app as configured.

The API key is stored in storage/passwords under the realm of the chosen
region (us or eu). Copies stored under the other region are removed. The app
is then flagged as configured and reloaded.

Missing values are prompted for unless --non-interactive is set. The API key
may also be passed in OPSGENIE_API_KEY.

Examples:
  ogsetup setup                                   # Prompt for key and region
  ogsetup setup --region eu --api-key "$KEY"      # Non-interactive
  ogsetup setup --url https://splunk:8089 --insecure`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg, &opts)
			if err != nil {
				return err
			}

			if apiKey == "" {
				apiKey = os.Getenv(EnvAPIKey)
			}
			if !cfg.NonInteractive {
				if err := promptSetupInputs(&apiKey, &region); err != nil {
					return err
				}
			}

			sealed := secure.SealString(apiKey)
			apiKey = ""
			defer sealed.Destroy()

			client, err := connect(cfg, def)
			if err != nil {
				return err
			}

			orchestrator := setup.NewOrchestrator(client, client, settingsFor(def), cfg.Logger).
				WithObserver(func(from, to setup.State) {
					switch to {
					case setup.StatePersisting:
						cfg.Logger.Info("Storing API key in realm %s", region)
					case setup.StateReloading:
						cfg.Logger.Info("Reloading app %s", def.Splunkd.App)
					}
					if to.Terminal() {
						cfg.Logger.Debug("Setup finished after %s: %s", from, to)
					}
				})

			var result setup.Result
			if err := sealed.Reveal(func(key string) error {
				result = orchestrator.Run(cmd.Context(), setup.Input{Credential: key, Region: region})
				return nil
			}); err != nil {
				return err
			}

			if result.OK() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ %s Opsgenie app %q is configured for region %s\n", result.Messages[0], def.Splunkd.App, region)
				return nil
			}

			for _, msg := range result.Messages {
				cfg.Logger.Error("%s", msg)
			}
			return setupError(result)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Opsgenie API key (prompted when omitted)")
	cmd.Flags().StringVar(&region, "region", "", "Opsgenie region: us or eu")

	_ = cmd.RegisterFlagCompletionFunc("region", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return validation.Realms(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func promptSetupInputs(apiKey, region *string) error {
	if *apiKey == "" {
		if err := survey.AskOne(&survey.Password{
			Message: "Opsgenie API key:",
		}, apiKey); err != nil {
			return fmt.Errorf("reading API key: %w", err)
		}
	}
	if *region == "" {
		if err := survey.AskOne(&survey.Select{
			Message: "Opsgenie region:",
			Options: validation.Realms(),
			Default: string(validation.RegionUS),
		}, region); err != nil {
			return fmt.Errorf("reading region: %w", err)
		}
	}
	return nil
}

// setupError turns a failed run into the error the command exits with.
func setupError(result setup.Result) error {
	var violations validation.Violations
	if errors.As(result.Err, &violations) {
		return dserrors.UserError{
			Message:    "Invalid setup input",
			Details:    strings.Join(result.Messages, "; "),
			Suggestion: "The API key is the UUID shown on the Opsgenie Splunk integration page; the region is us or eu",
			Err:        result.Err,
		}
	}
	return dserrors.StoreFailure("setup", result.Err)
}
