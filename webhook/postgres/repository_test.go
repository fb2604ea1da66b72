//go:build !integration

package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
Unit tests for the PostgreSQL repository

sqlmock simulates the database, no container needed.
Run with: go test ./webhook/postgres/...
*/

var columnNames = []string{"id", "created_at", "method", "pathname", "ip", "status_code", "content_type", "content_length", "query_params", "headers", "body"}

func newMock(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Repository{DB: db}, mock
}

func TestRepository_Insert_Unit(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()

	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)
	body := `{"a":1}`
	length := len(body)
	ct := "application/json"

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhooks")).
		WithArgs("wh-1", created, []byte("POST"), []byte("/hook"), []byte("10.0.0.1"), 200, []byte(ct), length,
			[]byte(`{"page":"2"}`), []byte(`{"content-type":"application/json"}`), []byte(body)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Insert(ctx, webhook.Webhook{
		ID:            "wh-1",
		CreatedAt:     created,
		Method:        "POST",
		Pathname:      "/hook",
		IP:            "10.0.0.1",
		StatusCode:    200,
		ContentType:   &ct,
		ContentLength: &length,
		QueryParams:   map[string]string{"page": "2"},
		Headers:       map[string]string{"content-type": "application/json"},
		Body:          &body,
	})

	require.NoError(t, err)
	assert.Equal(t, "wh-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Insert_NullColumns_Unit(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhooks")).
		WithArgs("wh-2", created, []byte("GET"), []byte("/"), []byte("::1"), 200, nil, nil, nil, []byte(`{}`), nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := repo.Insert(ctx, webhook.Webhook{
		ID:         "wh-2",
		CreatedAt:  created,
		Method:     "GET",
		Pathname:   "/",
		IP:         "::1",
		StatusCode: 200,
		Headers:    map[string]string{},
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_RawBytes_Unit(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	in := webhook.Webhook{
		ID:          "wh-raw",
		CreatedAt:   created,
		Method:      "POST",
		Pathname:    "/\xff\x00/caf\xc3",
		IP:          "10.0.0.1",
		StatusCode:  200,
		QueryParams: map[string]string{"k\xfe": "a\x00b\\x41"},
		Headers:     map[string]string{"x-sig": "\xff\xfe"},
	}

	storedHeaders, err := webhook.MarshalFields(in.Headers)
	require.NoError(t, err)
	storedParams, err := webhook.MarshalFields(in.QueryParams)
	require.NoError(t, err)
	assert.Equal(t, `{"x-sig":"\\xff\\xfe"}`, string(storedHeaders))

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO webhooks")).
		WithArgs("wh-raw", created, []byte("POST"), []byte(in.Pathname), []byte("10.0.0.1"), 200, nil, nil,
			storedParams, storedHeaders, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	_, err = repo.Insert(ctx, in)
	require.NoError(t, err)

	rows := sqlmock.NewRows(columnNames).AddRow(
		"wh-raw", created, []byte("POST"), []byte(in.Pathname), []byte("10.0.0.1"), 200, nil, nil,
		storedParams, storedHeaders, nil,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM webhooks WHERE id = $1")).
		WithArgs("wh-raw").
		WillReturnRows(rows)

	got, err := repo.Get(ctx, "wh-raw")

	require.NoError(t, err)
	assert.Equal(t, in, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Get_Unit(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(columnNames).AddRow(
			"wh-1", created, "POST", "/hook", "10.0.0.1", 200, "text/plain", 5,
			nil, []byte(`{"user-agent":"curl"}`), []byte("hello"),
		)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT " + columns + " FROM webhooks WHERE id = $1")).
			WithArgs("wh-1").
			WillReturnRows(rows)

		wh, err := repo.Get(ctx, "wh-1")

		require.NoError(t, err)
		assert.Equal(t, "wh-1", wh.ID)
		assert.Equal(t, "text/plain", *wh.ContentType)
		assert.Equal(t, 5, *wh.ContentLength)
		assert.Equal(t, "hello", *wh.Body)
		assert.Nil(t, wh.QueryParams)
		assert.Equal(t, "curl", wh.Headers["user-agent"])
		require.NoError(t, wh.Validate())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM webhooks WHERE id = $1")).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Get(ctx, "missing")

		assert.ErrorIs(t, err, webhook.ErrNotFound)
	})
}

func TestRepository_List_Unit(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	t.Run("first page", func(t *testing.T) {
		repo, mock := newMock(t)
		rows := sqlmock.NewRows(columnNames).
			AddRow("b", created, "GET", "/", "::1", 200, nil, nil, nil, []byte(`{}`), nil).
			AddRow("a", created, "GET", "/", "::1", 200, nil, nil, nil, []byte(`{}`), nil)
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC, id DESC LIMIT $1")).
			WithArgs(3).
			WillReturnRows(rows)

		list, err := repo.List(ctx, nil, 3)

		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "b", list[0].ID)
	})

	t.Run("after cursor", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE (created_at, id) < ($1, $2) ORDER BY created_at DESC, id DESC LIMIT $3")).
			WithArgs(created, "b", 3).
			WillReturnRows(sqlmock.NewRows(columnNames))

		list, err := repo.List(ctx, &cursor.Key{CreatedAt: created, ID: "b"}, 3)

		require.NoError(t, err)
		assert.Empty(t, list)
	})
}

func TestRepository_GetMany_Unit(t *testing.T) {
	repo, mock := newMock(t)
	ctx := context.Background()
	created := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	rows := sqlmock.NewRows(columnNames).
		AddRow("a", created, "GET", "/", "::1", 200, nil, nil, nil, []byte(`{}`), nil).
		AddRow("c", created, "GET", "/", "::1", 200, nil, nil, nil, []byte(`{}`), nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM webhooks WHERE id IN ($1, $2, $3)")).
		WithArgs("c", "b", "a").
		WillReturnRows(rows)

	found, missing, err := repo.GetMany(ctx, []string{"c", "b", "a"})

	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "c", found[0].ID)
	assert.Equal(t, "a", found[1].ID)
	assert.Equal(t, []string{"b"}, missing)
}

func TestRepository_Delete_Unit(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM webhooks WHERE id = $1")).
			WithArgs("wh-1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Delete(ctx, "wh-1"))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMock(t)
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM webhooks WHERE id = $1")).
			WithArgs("wh-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, "wh-1"), webhook.ErrNotFound)
	})
}

func TestRepository_Count_Unit(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM webhooks")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
}
