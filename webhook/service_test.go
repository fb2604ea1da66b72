package webhook_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
	"github.com/marcelsud/webhook-inspector/webhook/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCodec(t *testing.T) *cursor.Codec {
	t.Helper()
	c, err := cursor.NewCodec([]byte("test-secret-test-secret-test-sec"))
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCapture(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 6789, time.UTC)

	t.Run("success - assigns id and capture time", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t), webhook.WithClock(func() time.Time { return fixed }))

		body := `{"event":"order.created"}`
		in := webhook.Webhook{
			Method:        "POST",
			Pathname:      "/stripe",
			IP:            "10.0.0.1",
			StatusCode:    200,
			ContentType:   strPtr("application/json"),
			ContentLength: intPtr(len(body)),
			Headers:       map[string]string{"content-type": "application/json"},
			Body:          &body,
		}

		repo.On("Insert", ctx, webhook.MatchWebhook(func(wh webhook.Webhook) bool {
			return wh.ID != "" &&
				wh.CreatedAt.Equal(fixed.Truncate(time.Microsecond)) &&
				wh.Method == "POST" &&
				*wh.Body == body
		})).Return("ignored", nil)

		saved, err := service.Capture(ctx, in)

		require.NoError(t, err)
		assert.NotEmpty(t, saved.ID)
		assert.Equal(t, fixed.Truncate(time.Microsecond), saved.CreatedAt)
		assert.Equal(t, len(body), *saved.ContentLength)
	})

	t.Run("ids sort with capture order", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("Insert", ctx, mock.Anything).Return("", nil)

		first, err := service.Capture(ctx, webhook.Webhook{Method: "GET"})
		require.NoError(t, err)
		second, err := service.Capture(ctx, webhook.Webhook{Method: "GET"})
		require.NoError(t, err)

		assert.Less(t, first.ID, second.ID)
		assert.True(t, first.Key().After(second.Key()))
	})

	t.Run("invalid - content length does not match body", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))

		_, err := service.Capture(ctx, webhook.Webhook{
			Method:        "POST",
			Body:          strPtr("abc"),
			ContentLength: intPtr(10),
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, webhook.ErrInvalidWebhook)
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("Insert", ctx, mock.Anything).Return("", errors.New("connection refused"))

		_, err := service.Capture(ctx, webhook.Webhook{Method: "GET"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "storing webhook")
	})
}

func TestGetAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("get - not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("Get", ctx, "missing").Return(webhook.Webhook{}, webhook.ErrNotFound)

		_, err := service.Get(ctx, "missing")

		assert.ErrorIs(t, err, webhook.ErrNotFound)
	})

	t.Run("delete - success", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("Delete", ctx, "wh-1").Return(nil)

		require.NoError(t, service.Delete(ctx, "wh-1"))
	})

	t.Run("delete - repeated delete reports not found", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("Delete", ctx, "wh-1").Return(nil).Once()
		repo.On("Delete", ctx, "wh-1").Return(webhook.ErrNotFound).Once()

		require.NoError(t, service.Delete(ctx, "wh-1"))
		assert.ErrorIs(t, service.Delete(ctx, "wh-1"), webhook.ErrNotFound)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	records := func(n int) []webhook.Webhook {
		out := make([]webhook.Webhook, n)
		for i := range out {
			out[i] = webhook.Webhook{
				ID:        string(rune('z' - i)),
				CreatedAt: base.Add(-time.Duration(i) * time.Second),
				Method:    "POST",
			}
		}
		return out
	}

	t.Run("first page with more results", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		codec := newCodec(t)
		service := webhook.NewService(repo, codec)

		all := records(3)
		repo.On("List", ctx, (*cursor.Key)(nil), 3).Return(all, nil)

		page, err := service.List(ctx, "", 2)

		require.NoError(t, err)
		assert.Len(t, page.Webhooks, 2)
		require.NotEmpty(t, page.NextCursor)

		key, err := codec.Decode(page.NextCursor)
		require.NoError(t, err)
		assert.Equal(t, all[1].ID, key.ID)
		assert.True(t, all[1].CreatedAt.Equal(key.CreatedAt))
	})

	t.Run("last page has no cursor", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("List", ctx, (*cursor.Key)(nil), 6).Return(records(2), nil)

		page, err := service.List(ctx, "", 5)

		require.NoError(t, err)
		assert.Len(t, page.Webhooks, 2)
		assert.Empty(t, page.NextCursor)
	})

	t.Run("empty store returns an empty slice", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))
		repo.On("List", ctx, (*cursor.Key)(nil), webhook.DefaultPageSize+1).Return(nil, nil)

		page, err := service.List(ctx, "", 0)

		require.NoError(t, err)
		assert.NotNil(t, page.Webhooks)
		assert.Empty(t, page.Webhooks)
	})

	t.Run("cursor is passed to the store", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		codec := newCodec(t)
		service := webhook.NewService(repo, codec)
		key := cursor.Key{CreatedAt: base, ID: "m"}

		repo.On("List", ctx, mock.MatchedBy(func(k *cursor.Key) bool {
			return k != nil && k.ID == "m" && k.CreatedAt.Equal(base)
		}), 11).Return(records(1), nil)

		_, err := service.List(ctx, codec.Encode(key), 10)

		require.NoError(t, err)
	})

	t.Run("limit is clamped to the configured maximum", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t), webhook.WithPageSize(10, 50))
		repo.On("List", ctx, (*cursor.Key)(nil), 51).Return(records(1), nil)

		_, err := service.List(ctx, "", 1000)

		require.NoError(t, err)
	})

	t.Run("malformed cursor fails without touching the store", func(t *testing.T) {
		repo := mocks.NewRepository(t)
		service := webhook.NewService(repo, newCodec(t))

		_, err := service.List(ctx, "bm90LWEtY3Vyc29y", 10)

		require.Error(t, err)
		assert.ErrorIs(t, err, webhook.ErrInvalidCursor)
		repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})
}
