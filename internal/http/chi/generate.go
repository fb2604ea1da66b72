package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/marcelsud/webhook-inspector/synthesis"
	"github.com/marcelsud/webhook-inspector/webhook/schema"
	"github.com/rs/zerolog"
)

const maxGenerateBody = 1 << 20

var validate = validator.New()

type generateRequest struct {
	WebhookIDs []string `json:"webhookIds" validate:"dive,required,max=128"`
	Language   string   `json:"language" validate:"omitempty,max=64"`
}

type generateResponse struct {
	Code         string             `json:"code"`
	Language     string             `json:"language"`
	SampleIDs    []string           `json:"sampleIds"`
	Schema       *schema.Descriptor `json:"schema,omitempty"`
	Unstructured bool               `json:"unstructured"`
}

// generateHandler handles POST /api/generate
func generateHandler(synthesisService synthesis.UseCase, logger zerolog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxGenerateBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, logger, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}

		if err := validate.Struct(req); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				err = fmt.Errorf("%s failed on %s", verrs[0].Namespace(), verrs[0].Tag())
			}
			writeError(w, logger, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}

		artifact, err := synthesisService.Synthesize(r.Context(), req.WebhookIDs, synthesis.Options{
			Language: req.Language,
		})
		if err != nil {
			writeError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, generateResponse{
			Code:         artifact.Code,
			Language:     artifact.Language,
			SampleIDs:    artifact.SampleIDs,
			Schema:       artifact.Schema,
			Unstructured: artifact.Unstructured,
		})
	})
}
