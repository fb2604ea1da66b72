package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marcelsud/webhook-inspector/synthesis"
	"github.com/marcelsud/webhook-inspector/templates"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/rs/zerolog"
)

// ErrInvalidRequest is returned for malformed query strings and bodies
var ErrInvalidRequest = errors.New("invalid request")

type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

/* classify maps domain errors to a status and a stable code
 * Order matters: upstream kinds are checked before ErrSynthesisFailed
 */
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, webhook.ErrInvalidCursor),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, synthesis.ErrTooManySamples),
		errors.Is(err, templates.ErrUnknownTemplate):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, webhook.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, webhook.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, synthesis.ErrEmptySelection):
		return http.StatusUnprocessableEntity, "empty_selection"
	case errors.Is(err, synthesis.ErrNoValidSamples):
		return http.StatusUnprocessableEntity, "no_valid_samples"
	case errors.Is(err, synthesis.ErrTooManyRequests):
		return http.StatusTooManyRequests, "too_many_requests"
	case errors.Is(err, synthesis.ErrUpstreamTimeout):
		return http.StatusGatewayTimeout, "upstream_timeout"
	case errors.Is(err, synthesis.ErrUpstreamError), errors.Is(err, synthesis.ErrSynthesisFailed):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status, code := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
		message = http.StatusText(status)
	}

	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
