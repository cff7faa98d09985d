package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/farm-guru/farmguru-go/internal/chemreco"
	"github.com/farm-guru/farmguru-go/internal/logging"
	"github.com/farm-guru/farmguru-go/internal/market"
	"github.com/farm-guru/farmguru-go/internal/policy"
	"github.com/farm-guru/farmguru-go/internal/server"
	"github.com/farm-guru/farmguru-go/internal/tracing"
	"github.com/farm-guru/farmguru-go/internal/weather"
)

// NewServeCmd constructs the `farmguru serve` command, which starts the HTTP
// advisory API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the Farm-Guru HTTP API server",
		Long: `Start the Farm-Guru HTTP server on localhost.

The server exposes the advisory REST API: query answering, image upload,
chemical recommendations, policy matching, market prices, and weather.
Without a model backend (MODEL_PROVIDER unset) answers come from the
deterministic fallback path and the API still works end to end.

Examples:
  farmguru serve
  farmguru serve --port 9090
  MODEL_PROVIDER=ollama farmguru serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			p, err := buildPipeline(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer p.close()

			var pingers []server.Pinger
			if p.remote != nil {
				pingers = append(pingers, server.NewQdrantPinger(p.remote.Client()))
			}
			if p.generator != nil {
				pingers = append(pingers, server.NewGeneratorPinger(p.generator, os.Getenv("MODEL_PROVIDER")))
			}

			// One combined probe at startup; /api/ready keeps reporting
			// per-dependency state while the server runs.
			if len(pingers) > 0 {
				if err := server.NewMultiPinger(pingers...).Ping(ctx); err != nil {
					log.Warn("dependency not reachable at startup", slog.Any("error", err))
				}
			}

			externalCfg := market.Config{DataGovAPIKey: os.Getenv("DATA_GOV_API_KEY")}

			srv, err := server.New(server.Deps{
				Assistant: p.assistant,
				Store:     p.store,
				ChemReco:  chemreco.New(p.retriever, p.store),
				Policy:    policy.NewMatcher(p.store),
				Market:    market.NewService(externalCfg),
				Weather: weather.NewService(weather.Config{
					DataGovAPIKey:     os.Getenv("DATA_GOV_API_KEY"),
					OpenWeatherAPIKey: os.Getenv("OPENWEATHER_API_KEY"),
				}),
				Library: p.library,
			}, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("FARMGURU_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
