package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

/* In-process implementation of webhook.Repository
 * Keeps records sorted in feed order (created_at desc, id desc)
 * Used for local runs without infrastructure and in tests
 */

type Repository struct {
	mu      sync.RWMutex
	byID    map[string]webhook.Webhook
	ordered []cursor.Key
}

// NewRepository creates an empty in-memory repository
func NewRepository() *Repository {
	return &Repository{
		byID: make(map[string]webhook.Webhook),
	}
}

// Insert stores a webhook; ids must be unique
func (r *Repository) Insert(ctx context.Context, wh webhook.Webhook) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[wh.ID]; ok {
		return "", fmt.Errorf("inserting webhook: duplicate id %s", wh.ID)
	}

	key := wh.Key()
	i := sort.Search(len(r.ordered), func(i int) bool {
		return r.ordered[i].After(key)
	})
	r.ordered = append(r.ordered, cursor.Key{})
	copy(r.ordered[i+1:], r.ordered[i:])
	r.ordered[i] = key

	r.byID[wh.ID] = clone(wh)
	return wh.ID, nil
}

// Get returns a webhook by id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wh, ok := r.byID[id]
	if !ok {
		return webhook.Webhook{}, webhook.ErrNotFound
	}
	return clone(wh), nil
}

// GetMany returns the webhooks found in the order of ids and the missing ids
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]webhook.Webhook, []string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found := make([]webhook.Webhook, 0, len(ids))
	var missing []string
	for _, id := range ids {
		wh, ok := r.byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		found = append(found, clone(wh))
	}
	return found, missing, nil
}

// List returns up to limit webhooks strictly after the given key
func (r *Repository) List(ctx context.Context, after *cursor.Key, limit int) ([]webhook.Webhook, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	start := 0
	if after != nil {
		start = sort.Search(len(r.ordered), func(i int) bool {
			return r.ordered[i].After(*after)
		})
	}

	end := start + limit
	if end > len(r.ordered) {
		end = len(r.ordered)
	}

	out := make([]webhook.Webhook, 0, end-start)
	for _, key := range r.ordered[start:end] {
		out = append(out, clone(r.byID[key.ID]))
	}
	return out, nil
}

// Count returns the number of stored webhooks
func (r *Repository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

// Delete removes a webhook
func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	wh, ok := r.byID[id]
	if !ok {
		return webhook.ErrNotFound
	}
	delete(r.byID, id)

	key := wh.Key()
	i := sort.Search(len(r.ordered), func(i int) bool {
		return !key.After(r.ordered[i])
	})
	if i < len(r.ordered) && r.ordered[i].ID == id {
		r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
	}
	return nil
}

// Close is a no-op
func (r *Repository) Close(ctx context.Context) error {
	return nil
}

func clone(wh webhook.Webhook) webhook.Webhook {
	if wh.Headers != nil {
		headers := make(map[string]string, len(wh.Headers))
		for k, v := range wh.Headers {
			headers[k] = v
		}
		wh.Headers = headers
	}
	if wh.QueryParams != nil {
		params := make(map[string]string, len(wh.QueryParams))
		for k, v := range wh.QueryParams {
			params[k] = v
		}
		wh.QueryParams = params
	}
	return wh
}
