package webhook

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

/* Webhook represents one captured inbound HTTP request
 * Uses value semantics as it represents data, not behavior
 * Immutable once stored: the only mutation is deletion
 */
type Webhook struct {
	ID            string
	CreatedAt     time.Time
	Method        string
	Pathname      string
	IP            string
	StatusCode    int
	ContentType   *string
	ContentLength *int
	QueryParams   map[string]string // nil when the request had no query string
	Headers       map[string]string // lower-cased keys, repeated values joined with ", "
	Body          *string
}

// Key returns the position of the webhook in the feed order
func (w Webhook) Key() cursor.Key {
	return cursor.Key{CreatedAt: w.CreatedAt, ID: w.ID}
}

// Validate checks the invariants every stored webhook must satisfy
func (w Webhook) Validate() error {
	if w.ID == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidWebhook)
	}
	if w.CreatedAt.IsZero() {
		return fmt.Errorf("%w: created_at cannot be zero", ErrInvalidWebhook)
	}
	if w.Method == "" {
		return fmt.Errorf("%w: method cannot be empty", ErrInvalidWebhook)
	}
	if (w.Body == nil) != (w.ContentLength == nil) {
		return fmt.Errorf("%w: content_length must be set iff body is set", ErrInvalidWebhook)
	}
	if w.Body != nil && *w.ContentLength != len(*w.Body) {
		return fmt.Errorf("%w: content_length %d does not match body length %d", ErrInvalidWebhook, *w.ContentLength, len(*w.Body))
	}
	return nil
}

// NewID returns a sortable unique identifier.
// UUIDv7: 48-bit unix milliseconds followed by random bits, decided locally
// by each writer.
func NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generating webhook id: %w", err)
	}
	return id.String(), nil
}

// Timestamp normalizes t to the precision every store keeps
func Timestamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
