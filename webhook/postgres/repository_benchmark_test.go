//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
)

/*
Benchmarks for the PostgreSQL repository

Run with: go test -tags=integration -bench=. -benchmem ./webhook/postgres/

Each benchmark starts its own container. Timing starts after setup
(b.ResetTimer) so container startup is not measured.
*/

func benchWebhook(b *testing.B) webhook.Webhook {
	b.Helper()
	id, err := webhook.NewID()
	if err != nil {
		b.Fatalf("NewID failed: %v", err)
	}
	body := `{"event":"order.created","amount":42}`
	length := len(body)
	contentType := "application/json"
	return webhook.Webhook{
		ID:            id,
		CreatedAt:     webhook.Timestamp(time.Now()),
		Method:        "POST",
		Pathname:      "/bench",
		IP:            "127.0.0.1",
		StatusCode:    200,
		ContentType:   &contentType,
		ContentLength: &length,
		Headers:       map[string]string{"content-type": contentType},
		Body:          &body,
	}
}

func BenchmarkInsert_Postgres(b *testing.B) {
	ctx := context.Background()
	repo, cleanup := SetupPostgresRepository(b, ctx)
	defer cleanup()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		wh := benchWebhook(b)
		b.StartTimer()
		if _, err := repo.Insert(ctx, wh); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}
}

func BenchmarkList_Postgres(b *testing.B) {
	ctx := context.Background()
	repo, cleanup := SetupPostgresRepository(b, ctx)
	defer cleanup()

	for i := 0; i < 500; i++ {
		if _, err := repo.Insert(ctx, benchWebhook(b)); err != nil {
			b.Fatalf("Insert failed: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := repo.List(ctx, nil, webhook.DefaultPageSize+1); err != nil {
			b.Fatalf("List failed: %v", err)
		}
	}
}
