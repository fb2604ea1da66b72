package chi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-inspector/metrics"
	"github.com/marcelsud/webhook-inspector/synthesis"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/capture"
	"github.com/rs/zerolog"
)

const DefaultRequestTimeout = 30 * time.Second

// Dependencies are the services the router exposes
type Dependencies struct {
	Webhooks   webhook.UseCase
	Synthesis  synthesis.UseCase
	Normalizer *capture.Normalizer
	Stats      metrics.Collector // optional
	Metrics    http.Handler      // optional, served on /metrics
	Logger     zerolog.Logger

	// RequestTimeout bounds the API routes; generation is bounded by the engine
	RequestTimeout time.Duration
}

// Handlers sets up the inspector API and the capture endpoint
func Handlers(ctx context.Context, deps Dependencies) *chi.Mux {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	// Anything under /capture is recorded, whatever the method
	capt := captureWebhook(deps.Webhooks, deps.Normalizer, deps.Logger)
	r.Handle("/capture", capt)
	r.Handle("/capture/*", capt)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(timeout))

			r.Method(http.MethodGet, "/webhooks", listWebhooks(deps.Webhooks, deps.Logger))
			r.Method(http.MethodGet, "/webhooks/{id}", getWebhook(deps.Webhooks, deps.Logger))
			r.Method(http.MethodDelete, "/webhooks/{id}", deleteWebhook(deps.Webhooks, deps.Logger))
			if deps.Stats != nil {
				r.Method(http.MethodGet, "/stats", getStats(deps.Stats, deps.Logger))
			}
		})

		r.Method(http.MethodPost, "/generate", generateHandler(deps.Synthesis, deps.Logger))
	})

	return r
}
