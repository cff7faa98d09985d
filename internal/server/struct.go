package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/farm-guru/farmguru-go/internal/chemreco"
	"github.com/farm-guru/farmguru-go/internal/knowledge"
	"github.com/farm-guru/farmguru-go/internal/market"
	"github.com/farm-guru/farmguru-go/internal/policy"
	"github.com/farm-guru/farmguru-go/internal/store"
	"github.com/farm-guru/farmguru-go/internal/synthesis"
	"github.com/farm-guru/farmguru-go/internal/weather"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// MetricsRegistry receives the server's Prometheus metrics. If nil,
	// prometheus.DefaultRegisterer is used.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer serves GET /metrics. If nil, prometheus.DefaultGatherer
	// is used.
	MetricsGatherer prometheus.Gatherer
}

// answerer is the interface handleQuery calls to produce an answer.
// *assistant.Assistant satisfies it; tests inject a fake.
type answerer interface {
	// AnswerQuery answers a farmer query, resolving imageID to image
	// context and persisting the result best-effort.
	AnswerQuery(ctx context.Context, userID, text, imageID string) synthesis.Answer
}

// Deps bundles the collaborators a Server exposes over HTTP. Assistant is
// required; everything else is optional and disables its routes' extra
// behavior gracefully when nil.
type Deps struct {
	// Assistant answers POST /api/query.
	Assistant answerer
	// Store backs query history and image uploads. Nil disables persistence
	// but not the routes.
	Store store.Store
	// ChemReco serves POST /api/chem-reco.
	ChemReco *chemreco.Engine
	// Policy serves POST /api/policy-match.
	Policy *policy.Matcher
	// Market serves GET /api/market.
	Market *market.Service
	// Weather serves GET /api/weather.
	Weather *weather.Service
	// Library is the reloadable knowledge snapshot behind POST /api/reload.
	Library *knowledge.Library
}

// Server is the HTTP server that exposes the Farm-Guru API.
type Server struct {
	// deps holds the domain collaborators behind the API routes.
	deps Deps
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds all Prometheus metrics owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// queryRequest is the JSON body for POST /api/query.
type queryRequest struct {
	// Text is the farmer's natural language question.
	Text string `json:"text"`
	// Lang is the query language hint (default "en").
	Lang string `json:"lang,omitempty"`
	// UserID identifies the asking user, optional.
	UserID string `json:"user_id,omitempty"`
	// ImageID references a previously uploaded image, optional.
	ImageID string `json:"image_id,omitempty"`
}

// historyResponse is the JSON response for GET /api/query/history.
type historyResponse struct {
	// Queries are the persisted queries, newest first.
	Queries []store.QueryRecord `json:"queries"`
	// Total is len(Queries).
	Total int `json:"total"`
}

// uploadResponse is the JSON response for POST /api/upload-image.
type uploadResponse struct {
	// ImageID is the stored record ID, referenced by later queries.
	ImageID string `json:"image_id"`
	// Filename is the original upload filename.
	Filename string `json:"filename"`
	// Label is the analyzer's classification of the image.
	Label string `json:"label"`
	// Confidence is the analyzer's confidence in the label.
	Confidence float64 `json:"confidence"`
}

// reloadResponse is the JSON response for POST /api/reload.
type reloadResponse struct {
	// Status is "reloaded" on success.
	Status string `json:"status"`
	// Documents is the corpus size after the reload.
	Documents int `json:"documents"`
}
