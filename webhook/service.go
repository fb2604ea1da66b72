package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook/cursor"
	"github.com/rs/zerolog"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Page is one slice of the webhook feed
type Page struct {
	Webhooks   []Webhook
	NextCursor string // empty when there is nothing beyond this page
}

// UseCase defines the business operations for captured webhooks
type UseCase interface {
	Capture(ctx context.Context, wh Webhook) (Webhook, error)
	Get(ctx context.Context, id string) (Webhook, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, token string, limit int) (Page, error)
}

// Recorder receives capture and delete events for metrics
type Recorder interface {
	WebhookCaptured(ctx context.Context, method string)
	WebhookDeleted(ctx context.Context)
}

type Service struct {
	Repo     Repository
	Cursors  *cursor.Codec
	Logger   zerolog.Logger
	Recorder Recorder

	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

// Option customizes a Service
type Option func(*Service)

// WithPageSize sets the default and maximum page sizes of List
func WithPageSize(defaultSize, maxSize int) Option {
	return func(s *Service) {
		if maxSize > 0 {
			s.maxPageSize = maxSize
		}
		if defaultSize > 0 {
			s.defaultPageSize = defaultSize
		}
		if s.defaultPageSize > s.maxPageSize {
			s.defaultPageSize = s.maxPageSize
		}
	}
}

// WithLogger sets the service logger
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.Logger = logger }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.Recorder = r }
}

// WithClock overrides the capture clock
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new webhook service with dependency injection
func NewService(repo Repository, cursors *cursor.Codec, opts ...Option) *Service {
	s := &Service{
		Repo:            repo,
		Cursors:         cursors,
		Logger:          zerolog.Nop(),
		Recorder:        nopRecorder{},
		defaultPageSize: DefaultPageSize,
		maxPageSize:     MaxPageSize,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture assigns id and capture time to a normalized request and stores it
func (s *Service) Capture(ctx context.Context, wh Webhook) (Webhook, error) {
	id, err := NewID()
	if err != nil {
		return Webhook{}, err
	}
	wh.ID = id
	wh.CreatedAt = Timestamp(s.now())

	if err := wh.Validate(); err != nil {
		return Webhook{}, fmt.Errorf("validating webhook: %w", err)
	}

	if _, err := s.Repo.Insert(ctx, wh); err != nil {
		return Webhook{}, fmt.Errorf("storing webhook: %w", err)
	}

	s.Recorder.WebhookCaptured(ctx, wh.Method)
	s.Logger.Debug().
		Str("webhook_id", wh.ID).
		Str("method", wh.Method).
		Str("pathname", wh.Pathname).
		Msg("webhook captured")

	return wh, nil
}

// Get returns a single webhook
func (s *Service) Get(ctx context.Context, id string) (Webhook, error) {
	wh, err := s.Repo.Get(ctx, id)
	if err != nil {
		return Webhook{}, fmt.Errorf("getting webhook: %w", err)
	}
	return wh, nil
}

// Delete removes a webhook; deleting an unknown id reports ErrNotFound
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}
	s.Recorder.WebhookDeleted(ctx)
	return nil
}

// List returns the page after token.
// A malformed token fails with ErrInvalidCursor instead of restarting the feed.
func (s *Service) List(ctx context.Context, token string, limit int) (Page, error) {
	var after *cursor.Key
	if token != "" {
		key, err := s.Cursors.Decode(token)
		if err != nil {
			return Page{}, fmt.Errorf("decoding cursor: %w", err)
		}
		after = &key
	}

	limit = s.clamp(limit)

	// one extra row tells whether another page exists
	webhooks, err := s.Repo.List(ctx, after, limit+1)
	if err != nil {
		return Page{}, fmt.Errorf("listing webhooks: %w", err)
	}

	page := Page{Webhooks: webhooks}
	if len(webhooks) > limit {
		page.Webhooks = webhooks[:limit]
		page.NextCursor = s.Cursors.Encode(page.Webhooks[limit-1].Key())
	}
	if page.Webhooks == nil {
		page.Webhooks = []Webhook{}
	}

	return page, nil
}

func (s *Service) clamp(limit int) int {
	switch {
	case limit <= 0:
		return s.defaultPageSize
	case limit > s.maxPageSize:
		return s.maxPageSize
	default:
		return limit
	}
}

type nopRecorder struct{}

func (nopRecorder) WebhookCaptured(context.Context, string) {}
func (nopRecorder) WebhookDeleted(context.Context) {}
