package metrics

import (
	"context"
	"fmt"
	"time"
)

// Snapshot represents the current state of the webhook store.
type Snapshot struct {
	// Stored is the number of captured webhooks currently kept
	Stored int64 `json:"stored"`

	// Timestamp when the snapshot was collected
	Timestamp time.Time `json:"timestamp"`
}

// Collector defines the interface for collecting store state.
type Collector interface {
	Collect(ctx context.Context) (Snapshot, error)
}

// Counter is the part of a webhook store the collector needs
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// StoreCollector implements Collector on top of a webhook store
type StoreCollector struct {
	store Counter
	now   func() time.Time
}

// NewStoreCollector creates a new store backed collector
func NewStoreCollector(store Counter) *StoreCollector {
	return &StoreCollector{store: store, now: time.Now}
}

// Collect gathers the snapshot from the store
func (c *StoreCollector) Collect(ctx context.Context) (Snapshot, error) {
	stored, err := c.store.Count(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("counting webhooks: %w", err)
	}

	return Snapshot{
		Stored:    stored,
		Timestamp: c.now().UTC(),
	}, nil
}
