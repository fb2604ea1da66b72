package webhook

import (
	"context"

	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

/* Small, focused interfaces following "The Go Way"
 * Interfaces abstract behavior, not things
 * Written for users of the API, not just for testing
 */

// Reader provides read operations for webhooks
type Reader interface {
	Get(ctx context.Context, id string) (Webhook, error)
	/* GetMany returns the webhooks found, in the order of ids,
	 * and the ids that do not exist
	 */
	GetMany(ctx context.Context, ids []string) ([]Webhook, []string, error)
	/* List returns up to limit webhooks ordered by (created_at desc, id desc)
	 * When after is set only webhooks strictly after that key are returned
	 */
	List(ctx context.Context, after *cursor.Key, limit int) ([]Webhook, error)
	Count(ctx context.Context) (int64, error)
}

// Writer provides write operations for webhooks
type Writer interface {
	Insert(ctx context.Context, webhook Webhook) (string, error)
	/* Delete removes a webhook
	 * Returns ErrNotFound when the id does not exist, also on a repeated delete
	 */
	Delete(ctx context.Context, id string) error
}

/* Interface composition - combining small interfaces into larger ones
 * This is preferred over large monolithic interfaces
 */
type Repository interface {
	Reader
	Writer
	Close(ctx context.Context) error
}
