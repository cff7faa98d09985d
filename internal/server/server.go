// Package server implements the HTTP server that exposes the Farm-Guru
// advisory API: query answering, image upload, chemical recommendations,
// policy matching, market prices, and weather.
// The server is started by the `farmguru serve` CLI command.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/farm-guru/farmguru-go/internal/logging"
)

// New constructs a Server from the provided collaborators and config.
func New(deps Deps, cfg *Config) (*Server, error) {
	if deps.Assistant == nil {
		return nil, fmt.Errorf("server: assistant must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		// WriteTimeout covers generation-backed answers, which can be slow.
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.New()
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		deps:    deps,
		cfg:     cfg,
		log:     cfg.Logger,
		pingers: cfg.Pingers,
		metrics: newServerMetrics(cfg.MetricsRegistry),
	}

	if cfg.APIKey == "" {
		s.log.Warn("server: FARMGURU_API_KEY not set, authentication disabled")
	}

	rl, stopRL := newRateLimiter(cfg.RateLimit, cfg.RateBurst, s.log)
	s.stopRL = stopRL

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/query", s.handleQuery)
	mux.HandleFunc("GET /api/query/history", s.handleHistory)
	mux.HandleFunc("POST /api/upload-image", s.handleUpload)
	mux.HandleFunc("POST /api/chem-reco", s.handleChemReco)
	mux.HandleFunc("GET /api/chem-reco/crops", s.handleChemRecoCrops)
	mux.HandleFunc("GET /api/chem-reco/symptoms", s.handleChemRecoSymptoms)
	mux.HandleFunc("POST /api/policy-match", s.handlePolicyMatch)
	mux.HandleFunc("GET /api/policy/schemes", s.handlePolicySchemes)
	mux.HandleFunc("GET /api/policy/states", s.handlePolicyStates)
	mux.HandleFunc("GET /api/market", s.handleMarket)
	mux.HandleFunc("GET /api/market/commodities", s.handleMarketCommodities)
	mux.HandleFunc("GET /api/market/mandis", s.handleMarketMandis)
	mux.HandleFunc("GET /api/weather", s.handleWeather)
	mux.HandleFunc("POST /api/reload", s.handleReload)

	// Protected API chain: logging → auth → rate limit → metrics.
	var api http.Handler = mux
	api = s.instrument(api)
	api = rl.middleware(api)
	api = authMiddleware(cfg.APIKey, api)

	root := http.NewServeMux()
	root.Handle("/api/", api)
	// Health, readiness, and metrics stay outside auth so orchestrators and
	// scrapers can reach them without credentials.
	root.Handle("GET /api/health", http.HandlerFunc(s.handleHealth))
	root.Handle("GET /api/ready", http.HandlerFunc(s.handleReady))
	root.Handle("GET /metrics", promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{}))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, s.recover(root)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("farmguru server listening", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		s.stopRL()
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.stopRL()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}
