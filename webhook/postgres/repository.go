package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
)

/*
PostgreSQL implementation of webhook.Repository

- The repository owns its connection pool; it is built by the caller and
  passed down, never stored in a package variable
- Pagination is keyset based on (created_at, id), served by a composite index
- Every captured field is stored as BYTEA: method, path, ip and content type
  may carry bytes that TEXT rejects (invalid UTF-8, NUL), and the header and
  query maps are JSON from webhook.MarshalFields
*/

type Repository struct {
	DB *sql.DB
}

// PoolConfig bounds the connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DefaultPoolConfig is used by NewRepository (25, 5, 5 min)
var DefaultPoolConfig = PoolConfig{
	MaxOpenConns:    25,
	MaxIdleConns:    5,
	ConnMaxLifetime: 5 * time.Minute,
}

const columns = `id, created_at, method, pathname, ip, status_code, content_type, content_length, query_params, headers, body`

// NewRepository opens a PostgreSQL repository with the default pool
func NewRepository(ctx context.Context, connectionString string) (*Repository, error) {
	return NewRepositoryWithPoolConfig(ctx, connectionString, DefaultPoolConfig)
}

// NewRepositoryWithPoolConfig opens a PostgreSQL repository with a custom pool
func NewRepositoryWithPoolConfig(ctx context.Context, connectionString string, pool PoolConfig) (*Repository, error) {
	db, err := sql.Open("pgx", connectionString)
	if err != nil {
		return nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Repository{DB: db}, nil
}

// Insert stores a webhook and returns its id
func (r *Repository) Insert(ctx context.Context, wh webhook.Webhook) (string, error) {
	query := `
		INSERT INTO webhooks (id, created_at, method, pathname, ip, status_code, content_type, content_length, query_params, headers, body)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	headers, err := webhook.MarshalFields(wh.Headers)
	if err != nil {
		return "", fmt.Errorf("marshaling headers: %w", err)
	}

	var params any
	if wh.QueryParams != nil {
		raw, err := webhook.MarshalFields(wh.QueryParams)
		if err != nil {
			return "", fmt.Errorf("marshaling query params: %w", err)
		}
		params = raw
	}

	var body any
	if wh.Body != nil {
		body = []byte(*wh.Body)
	}

	_, err = r.DB.ExecContext(ctx, query,
		wh.ID,
		wh.CreatedAt,
		rawBytes(wh.Method),
		rawBytes(wh.Pathname),
		rawBytes(wh.IP),
		wh.StatusCode,
		nullableBytes(wh.ContentType),
		nullableInt(wh.ContentLength),
		params,
		headers,
		body,
	)
	if err != nil {
		return "", fmt.Errorf("inserting webhook: %w", err)
	}

	return wh.ID, nil
}

// Get returns a webhook by id
func (r *Repository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	query := "SELECT " + columns + " FROM webhooks WHERE id = $1"

	wh, err := scanWebhook(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return webhook.Webhook{}, webhook.ErrNotFound
	}
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("selecting webhook: %w", err)
	}

	return wh, nil
}

// GetMany returns the webhooks found in the order of ids and the missing ids
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]webhook.Webhook, []string, error) {
	if len(ids) == 0 {
		return []webhook.Webhook{}, nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := "SELECT " + columns + " FROM webhooks WHERE id IN (" + strings.Join(placeholders, ", ") + ")"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("selecting webhooks: %w", err)
	}
	defer rows.Close()

	byID := make(map[string]webhook.Webhook, len(ids))
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("scanning webhook: %w", err)
		}
		byID[wh.ID] = wh
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterating webhooks: %w", err)
	}

	found := make([]webhook.Webhook, 0, len(byID))
	var missing []string
	for _, id := range ids {
		wh, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		found = append(found, wh)
	}

	return found, missing, nil
}

// List returns up to limit webhooks ordered by (created_at desc, id desc)
func (r *Repository) List(ctx context.Context, after *cursor.Key, limit int) ([]webhook.Webhook, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if after == nil {
		query := "SELECT " + columns + " FROM webhooks ORDER BY created_at DESC, id DESC LIMIT $1"
		rows, err = r.DB.QueryContext(ctx, query, limit)
	} else {
		query := "SELECT " + columns + " FROM webhooks WHERE (created_at, id) < ($1, $2) ORDER BY created_at DESC, id DESC LIMIT $3"
		rows, err = r.DB.QueryContext(ctx, query, after.CreatedAt, after.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("listing webhooks: %w", err)
	}
	defer rows.Close()

	webhooks := make([]webhook.Webhook, 0, limit)
	for rows.Next() {
		wh, err := scanWebhook(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning webhook: %w", err)
		}
		webhooks = append(webhooks, wh)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating webhooks: %w", err)
	}

	return webhooks, nil
}

// Count returns the number of stored webhooks
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM webhooks").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting webhooks: %w", err)
	}
	return count, nil
}

// Delete removes a webhook by id
func (r *Repository) Delete(ctx context.Context, id string) error {
	result, err := r.DB.ExecContext(ctx, "DELETE FROM webhooks WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rows == 0 {
		return webhook.ErrNotFound
	}

	return nil
}

// Close closes the connection pool
func (r *Repository) Close(ctx context.Context) error {
	if r.DB != nil {
		return r.DB.Close()
	}
	return nil
}

// CreateTable creates the webhooks table and its feed index
func (r *Repository) CreateTable(ctx context.Context) error {
	// "C" collation keeps id ordering byte-wise, matching the other stores
	statements := []string{
		`CREATE TABLE IF NOT EXISTS webhooks (
			id TEXT COLLATE "C" PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL,
			method BYTEA NOT NULL,
			pathname BYTEA NOT NULL,
			ip BYTEA NOT NULL,
			status_code INTEGER NOT NULL,
			content_type BYTEA,
			content_length INTEGER,
			query_params BYTEA,
			headers BYTEA NOT NULL,
			body BYTEA,
			CHECK ((body IS NULL) = (content_length IS NULL))
		)`,
		`CREATE INDEX IF NOT EXISTS webhooks_feed_idx ON webhooks (created_at DESC, id DESC)`,
	}

	for _, stmt := range statements {
		if _, err := r.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating table: %w", err)
		}
	}

	return nil
}

// DropTable removes the webhooks table (useful for tests)
func (r *Repository) DropTable(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, "DROP TABLE IF EXISTS webhooks CASCADE"); err != nil {
		return fmt.Errorf("dropping table: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanWebhook(s scanner) (webhook.Webhook, error) {
	var (
		wh            webhook.Webhook
		method        []byte
		pathname      []byte
		ip            []byte
		contentType   []byte
		contentLength sql.NullInt64
		params        []byte
		headers       []byte
		body          []byte
	)

	err := s.Scan(
		&wh.ID,
		&wh.CreatedAt,
		&method,
		&pathname,
		&ip,
		&wh.StatusCode,
		&contentType,
		&contentLength,
		&params,
		&headers,
		&body,
	)
	if err != nil {
		return webhook.Webhook{}, err
	}

	wh.CreatedAt = wh.CreatedAt.UTC()
	wh.Method = string(method)
	wh.Pathname = string(pathname)
	wh.IP = string(ip)

	if contentType != nil {
		ct := string(contentType)
		wh.ContentType = &ct
	}
	if contentLength.Valid {
		n := int(contentLength.Int64)
		wh.ContentLength = &n
	}
	if params != nil {
		if wh.QueryParams, err = webhook.UnmarshalFields(params); err != nil {
			return webhook.Webhook{}, fmt.Errorf("unmarshaling query params: %w", err)
		}
	}
	if wh.Headers, err = webhook.UnmarshalFields(headers); err != nil {
		return webhook.Webhook{}, fmt.Errorf("unmarshaling headers: %w", err)
	}
	if body != nil {
		b := string(body)
		wh.Body = &b
	}

	return wh, nil
}

// rawBytes never returns nil, so an empty string is not sent as NULL
func rawBytes(s string) []byte {
	b := make([]byte, len(s))
	copy(b, s)
	return b
}

func nullableBytes(s *string) any {
	if s == nil {
		return nil
	}
	return rawBytes(*s)
}

func nullableInt(n *int) any {
	if n == nil {
		return nil
	}
	return *n
}
