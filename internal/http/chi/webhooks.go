package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/marcelsud/webhook-inspector/metrics"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/capture"
	"github.com/rs/zerolog"
)

/* HTTP layer DTOs for the inspector API
 * Separate from domain entities to avoid leaking internal structure
 */

// webhookSummary is one row of the feed
type webhookSummary struct {
	ID        string    `json:"id"`
	Method    string    `json:"method"`
	Pathname  string    `json:"pathname"`
	CreatedAt time.Time `json:"createdAt"`
}

type listResponse struct {
	Webhooks   []webhookSummary `json:"webhooks"`
	NextCursor string           `json:"nextCursor,omitempty"`
}

// webhookResponse is the full captured request
type webhookResponse struct {
	ID            string            `json:"id"`
	Method        string            `json:"method"`
	Pathname      string            `json:"pathname"`
	IP            string            `json:"ip"`
	StatusCode    int               `json:"statusCode"`
	ContentType   *string           `json:"contentType"`
	ContentLength *int              `json:"contentLength"`
	QueryParams   map[string]string `json:"queryParams"`
	Headers       map[string]string `json:"headers"`
	Body          *string           `json:"body"`
	CreatedAt     time.Time         `json:"createdAt"`
}

type captureResponse struct {
	ID string `json:"id"`
}

func toResponse(wh webhook.Webhook) webhookResponse {
	return webhookResponse{
		ID:            wh.ID,
		Method:        wh.Method,
		Pathname:      wh.Pathname,
		IP:            wh.IP,
		StatusCode:    wh.StatusCode,
		ContentType:   wh.ContentType,
		ContentLength: wh.ContentLength,
		QueryParams:   wh.QueryParams,
		Headers:       wh.Headers,
		Body:          wh.Body,
		CreatedAt:     wh.CreatedAt,
	}
}

// captureWebhook handles any method on /capture/*
func captureWebhook(webhookService webhook.UseCase, normalizer *capture.Normalizer, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wh, err := normalizer.Normalize(r)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		saved, err := webhookService.Capture(r.Context(), wh)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, normalizer.StatusCode(), captureResponse{ID: saved.ID})
	})
}

// listWebhooks handles GET /api/webhooks?cursor=&limit=
func listWebhooks(webhookService webhook.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, logger, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidRequest))
				return
			}
			limit = n
		}

		page, err := webhookService.List(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeError(w, logger, err)
			return
		}

		resp := listResponse{
			Webhooks:   make([]webhookSummary, 0, len(page.Webhooks)),
			NextCursor: page.NextCursor,
		}
		for _, wh := range page.Webhooks {
			resp.Webhooks = append(resp.Webhooks, webhookSummary{
				ID:        wh.ID,
				Method:    wh.Method,
				Pathname:  wh.Pathname,
				CreatedAt: wh.CreatedAt,
			})
		}

		writeJSON(w, http.StatusOK, resp)
	})
}

// getWebhook handles GET /api/webhooks/{id}
func getWebhook(webhookService webhook.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wh, err := webhookService.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, toResponse(wh))
	})
}

// deleteWebhook handles DELETE /api/webhooks/{id}
func deleteWebhook(webhookService webhook.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := webhookService.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
			writeError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// getStats handles GET /api/stats
func getStats(collector metrics.Collector, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snapshot, err := collector.Collect(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	})
}
