package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	"github.com/systmms/ogsetup/internal/credentials"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/setup"
	"github.com/systmms/ogsetup/internal/splunkd"
	"github.com/systmms/ogsetup/internal/validation"
)

// splunkdOptions are the per-command flags that override the splunkd section
// of ogsetup.yaml.
type splunkdOptions struct {
	url      string
	app      string
	owner    string
	token    string
	insecure bool
}

func (o *splunkdOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.url, "url", "", "splunkd management URL (overrides splunkd.url)")
	cmd.Flags().StringVar(&o.app, "app", "", "App namespace (overrides splunkd.app)")
	cmd.Flags().StringVar(&o.owner, "owner", "", "Namespace owner (overrides splunkd.owner)")
	cmd.Flags().StringVar(&o.token, "token", "", "splunkd bearer token (overrides splunkd.token and SPLUNK_TOKEN)")
	cmd.Flags().BoolVar(&o.insecure, "insecure", false, "Skip TLS certificate verification")
}

func (o *splunkdOptions) apply(def *config.Definition) {
	if o.url != "" {
		def.Splunkd.URL = o.url
	}
	if o.app != "" {
		def.Splunkd.App = o.app
	}
	if o.owner != "" {
		def.Splunkd.Owner = o.owner
	}
	if o.token != "" {
		def.Splunkd.Token = o.token
	}
	if o.insecure {
		def.Splunkd.InsecureSkipVerify = true
	}
}

// loadDefinition loads ogsetup.yaml and applies flag overrides.
func loadDefinition(cfg *config.Config, opts *splunkdOptions) (*config.Definition, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	def, err := cfg.GetDefinition()
	if err != nil {
		return nil, err
	}
	if opts != nil {
		opts.apply(def)
	}
	return def, nil
}

// connect builds an authenticated splunkd client for def.
func connect(cfg *config.Config, def *config.Definition) (*splunkd.Client, error) {
	auth, err := credentials.NewResolver().Resolve(def.Splunkd.URL, def.Splunkd.Token)
	if err != nil {
		return nil, dserrors.UserError{
			Message:    "Failed to read the cached splunkd session",
			Details:    err.Error(),
			Suggestion: "Pass --token or set SPLUNK_TOKEN",
			Err:        err,
		}
	}
	if auth.Source == credentials.SourceNone {
		return nil, dserrors.UserError{
			Message:    "No splunkd credentials available",
			Suggestion: "Run 'ogsetup login', pass --token or set SPLUNK_TOKEN",
		}
	}
	cfg.Logger.Debug("Using splunkd credentials from %s", auth.Source)

	return splunkd.New(splunkd.Config{
		BaseURL:            def.Splunkd.URL,
		Owner:              def.Splunkd.Owner,
		App:                def.Splunkd.App,
		Token:              auth.Token,
		SessionKey:         auth.SessionKey,
		InsecureSkipVerify: def.Splunkd.InsecureSkipVerify,
		Timeout:            def.Splunkd.Timeout(),
	}, cfg.Logger), nil
}

// settingsFor maps the configuration onto orchestrator settings.
func settingsFor(def *config.Definition) setup.Settings {
	return setup.Settings{
		App:                def.Splunkd.App,
		ConfFile:           def.Setup.ConfFile,
		Stanza:             def.Setup.Stanza,
		Property:           def.Setup.Property,
		CredentialUsername: def.Setup.CredentialUsername,
		Realms:             validation.Realms(),
		Timeout:            def.Splunkd.Timeout(),
	}
}
