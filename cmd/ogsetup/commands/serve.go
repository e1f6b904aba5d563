package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/systmms/ogsetup/internal/config"
	"github.com/systmms/ogsetup/internal/setup"
	"github.com/systmms/ogsetup/internal/web"
)

func NewServeCommand(cfg *config.Config) *cobra.Command {
	var (
		opts splunkdOptions
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the setup form over HTTP",
		Long: `Serve the Opsgenie setup form.

  GET  /         the form
  POST /setup    submit api_key and region (409 while a submission is running)
  GET  /metrics  Prometheus metrics
  GET  /health   liveness

The server stops on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(cfg, &opts)
			if err != nil {
				return err
			}
			if addr != "" {
				def.Serve.Addr = addr
			}

			client, err := connect(cfg, def)
			if err != nil {
				return err
			}

			orchestrator := setup.NewOrchestrator(client, client, settingsFor(def), cfg.Logger)
			server := web.NewServer(orchestrator, cfg.Logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg.Logger.Info("Serving setup form on http://%s", def.Serve.Addr)
			return server.ListenAndServe(ctx, def.Serve.Addr)
		},
	}

	opts.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides serve.addr)")
	return cmd
}
