package commands

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	"github.com/systmms/ogsetup/internal/credentials"
	dserrors "github.com/systmms/ogsetup/internal/errors"
	"github.com/systmms/ogsetup/internal/secure"
	"github.com/systmms/ogsetup/internal/splunkd"
	"github.com/systmms/ogsetup/pkg/store"
)

// EnvPassword is read when --password is not given.
const EnvPassword = "SPLUNK_PASSWORD"

func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		opts     splunkdOptions
		username string
		password string
		logout   bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to splunkd and cache the session",
		Long: `Authenticate to splunkd with a username and password and store the
session key in the OS keyring (service "ogsetup"), keyed by the splunkd URL.

Later commands use the cached session when neither --token nor SPLUNK_TOKEN
is set.

Examples:
  ogsetup login --username admin          # Prompt for the password
  ogsetup login --url https://splunk:8089
  ogsetup login --logout                  # Forget the cached session`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg, &opts)
			if err != nil {
				return err
			}
			sessions := credentials.NewSessions()

			if logout {
				if err := sessions.Forget(def.Splunkd.URL); err != nil {
					return err
				}
				cfg.Logger.Info("Forgot the session for %s", def.Splunkd.URL)
				return nil
			}

			if username == "" {
				username = def.Splunkd.Username
			}
			if password == "" {
				password = os.Getenv(EnvPassword)
			}
			if !cfg.NonInteractive {
				if err := promptLogin(&username, &password); err != nil {
					return err
				}
			}
			if username == "" || password == "" {
				return dserrors.UserError{
					Message:    "Username and password are required",
					Suggestion: "Pass --username and set SPLUNK_PASSWORD, or run without --non-interactive",
				}
			}

			sealed := secure.SealString(password)
			password = ""
			defer sealed.Destroy()

			anon := splunkd.New(splunkd.Config{
				BaseURL:            def.Splunkd.URL,
				InsecureSkipVerify: def.Splunkd.InsecureSkipVerify,
				Timeout:            def.Splunkd.Timeout(),
			}, cfg.Logger)

			var sessionKey string
			err = sealed.Reveal(func(pw string) error {
				var loginErr error
				sessionKey, loginErr = anon.Login(cmd.Context(), username, pw)
				return loginErr
			})
			if err != nil {
				if store.IsUnauthorized(err) {
					return dserrors.UserError{
						Message:    fmt.Sprintf("splunkd rejected the credentials for %s", username),
						Suggestion: "Check the username and password",
						Err:        err,
					}
				}
				return dserrors.StoreFailure("login", err)
			}

			authed := splunkd.New(splunkd.Config{
				BaseURL:            def.Splunkd.URL,
				SessionKey:         sessionKey,
				InsecureSkipVerify: def.Splunkd.InsecureSkipVerify,
				Timeout:            def.Splunkd.Timeout(),
			}, cfg.Logger)
			info, err := authed.ServerInfo(cmd.Context())
			if err != nil {
				return dserrors.StoreFailure("login", err)
			}

			if err := sessions.Save(def.Splunkd.URL, sessionKey); err != nil {
				return dserrors.UserError{
					Message:    "Logged in but could not cache the session",
					Details:    err.Error(),
					Suggestion: "Use --token or SPLUNK_TOKEN instead on headless systems",
					Err:        err,
				}
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged in to %s (splunk %s) as %s\n", info.ServerName, info.Version, username)
			return nil
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVarP(&username, "username", "u", "", "splunkd username (default splunkd.username)")
	cmd.Flags().StringVar(&password, "password", "", "splunkd password (prefer SPLUNK_PASSWORD or the prompt)")
	cmd.Flags().BoolVar(&logout, "logout", false, "Remove the cached session")
	return cmd
}

func promptLogin(username, password *string) error {
	if *username == "" {
		if err := survey.AskOne(&survey.Input{
			Message: "splunkd username:",
			Default: "admin",
		}, username); err != nil {
			return fmt.Errorf("reading username: %w", err)
		}
	}
	if *password == "" {
		if err := survey.AskOne(&survey.Password{
			Message: "splunkd password:",
		}, password); err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
	}
	return nil
}
