package webhook

import (
	"errors"

	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

var (
	// ErrNotFound is returned when no webhook has the requested id
	ErrNotFound = errors.New("webhook not found")

	// ErrInvalidCursor is returned for pagination tokens the server did not issue
	ErrInvalidCursor = cursor.ErrInvalid

	// ErrPayloadTooLarge is returned when a captured body exceeds the configured cap
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidWebhook is returned when a record breaks a stored-record invariant
	ErrInvalidWebhook = errors.New("invalid webhook")
)
