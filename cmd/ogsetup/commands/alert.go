package commands

import (
	"errors"
	"io"
	"net"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/opsgenie"
	"github.com/systmms/ogsetup/internal/splunkd"
	"github.com/systmms/ogsetup/internal/validation"
)

// Exit codes of the alert action, as Splunk's alert framework reports them.
const (
	ExitUnsupportedMode = 1
	ExitDeliveryFailed  = 2
	ExitUnexpected      = 3
)

func NewAlertCommand(cfg *config.Config) *cobra.Command {
	var execute bool

	cmd := &cobra.Command{
		Use:   "alert --execute",
		Short: "Run the Opsgenie custom alert action",
		Long: `Send a Splunk alert to Opsgenie. This is the entry point Splunk's custom
alert action framework invokes with --execute and the alert payload on stdin.

The API key is read from splunkd storage/passwords using the session key in
the payload, and the payload is posted to the Opsgenie Splunk integration of
the region the key is stored under. Delivery is attempted once.

Exit codes: 1 unsupported mode, 2 delivery failed, 3 unexpected error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !execute {
				cfg.Logger.Error("Unsupported execution mode (expected --execute flag)")
				return dserrors.CommandError{Command: "alert", ExitCode: ExitUnsupportedMode, Message: "unsupported execution mode (expected --execute flag)"}
			}

			def, err := loadDefinition(cfg, nil)
			if err != nil {
				return unexpected(cfg, err)
			}

			raw, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return unexpected(cfg, err)
			}
			payload, err := opsgenie.ParsePayload(raw)
			if err != nil {
				return unexpected(cfg, err)
			}

			client := splunkd.New(alertSplunkdConfig(def, payload), cfg.Logger)
			deliverer := opsgenie.NewDeliverer(
				client,
				opsgenie.New(def.Opsgenie.Endpoints, def.Splunkd.Timeout(), cfg.Logger),
				validation.Realms(),
				def.Setup.CredentialUsername,
				cfg.Logger,
			)

			if err := deliverer.Deliver(cmd.Context(), payload.SearchName, raw); err != nil {
				if errors.Is(err, opsgenie.ErrDeliveryFailed) {
					cfg.Logger.Error("Failed to post data to Opsgenie for search=%s: %v", payload.SearchName, err)
					return dserrors.CommandError{Command: "alert", ExitCode: ExitDeliveryFailed, Err: err}
				}
				return unexpected(cfg, err)
			}

			cfg.Logger.Info("Data posted to Opsgenie successfully for search=%s", payload.SearchName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&execute, "execute", false, "Execute the alert action (payload on stdin)")
	return cmd
}

func unexpected(cfg *config.Config, err error) error {
	cfg.Logger.Error("Unexpected error: %v", err)
	return dserrors.CommandError{Command: "alert", ExitCode: ExitUnexpected, Err: err}
}

// alertSplunkdConfig targets the splunkd that ran the alert, authenticated
// with the session key it passed.
func alertSplunkdConfig(def *config.Definition, payload opsgenie.Payload) splunkd.Config {
	base := def.Splunkd.URL
	if payload.ServerURI != "" {
		base = payload.ServerURI
	}

	return splunkd.Config{
		BaseURL:    base,
		Owner:      def.Splunkd.Owner,
		App:        def.Splunkd.App,
		SessionKey: payload.SessionKey,
		// The local management port serves splunkd's self-signed certificate.
		InsecureSkipVerify: def.Splunkd.InsecureSkipVerify || isLoopback(base),
		Timeout:            def.Splunkd.Timeout(),
	}
}

func isLoopback(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := u.Hostname()
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
