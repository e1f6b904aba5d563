package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/logging"
	"github.com/systmms/ogsetup/internal/splunkd"
	"github.com/systmms/ogsetup/internal/validation"
	"github.com/systmms/ogsetup/pkg/store"
)

// appStatus is what 'ogsetup status' reports.
type appStatus struct {
	Server     splunkd.ServerInfo
	Configured bool
	Realms     []string
	// MaskedKey is the first stored key, masked.
	MaskedKey string
}

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var opts splunkdOptions

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether the Opsgenie app is configured",
		Long: `Report the configuration flag of the Opsgenie app and the realms the API
key is stored under. The API key itself is never printed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg, &opts)
			if err != nil {
				return err
			}
			client, err := connect(cfg, def)
			if err != nil {
				return err
			}

			status, err := readStatus(cmd.Context(), client, def)
			if err != nil {
				return dserrors.StoreFailure("status", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintf(w, "splunkd:\t%s (%s %s)\n", def.Splunkd.URL, status.Server.ServerName, status.Server.Version)
			_, _ = fmt.Fprintf(w, "app:\t%s\n", def.Splunkd.App)
			_, _ = fmt.Fprintf(w, "configured:\t%t\t(%s.conf [%s] %s)\n", status.Configured, def.Setup.ConfFile, def.Setup.Stanza, def.Setup.Property)
			switch len(status.Realms) {
			case 0:
				_, _ = fmt.Fprintf(w, "%s:\tnot stored\n", def.Setup.CredentialUsername)
			default:
				_, _ = fmt.Fprintf(w, "%s:\tstored in realm %s\t(%s)\n", def.Setup.CredentialUsername, strings.Join(status.Realms, ", "), status.MaskedKey)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(status.Realms) > 1 {
				cfg.Logger.Warn("API key is stored in more than one realm; run 'ogsetup setup' to fix")
			}
			return nil
		},
	}

	opts.register(cmd)
	return cmd
}

func readStatus(ctx context.Context, client *splunkd.Client, def *config.Definition) (appStatus, error) {
	var status appStatus

	info, err := client.ServerInfo(ctx)
	if err != nil {
		return status, err
	}
	status.Server = info

	sections, err := client.ListSections(ctx, def.Setup.ConfFile)
	switch {
	case store.IsNotFound(err):
		// No conf file yet means never configured.
	case err != nil:
		return status, err
	default:
		if section, ok := store.FindSection(sections, def.Setup.Stanza); ok {
			status.Configured = section.Properties[def.Setup.Property] == "true" || section.Properties[def.Setup.Property] == "1"
		}
	}

	for _, realm := range validation.Realms() {
		secrets, err := client.ListSecrets(ctx, realm)
		if err != nil {
			return status, err
		}
		if secret, ok := store.FindSecret(secrets, def.Setup.CredentialUsername); ok {
			status.Realms = append(status.Realms, realm)
			if status.MaskedKey == "" {
				status.MaskedKey = logging.Mask(secret.Value)
			}
		}
	}
	return status, nil
}
