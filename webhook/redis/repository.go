package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/webhook-inspector/webhook"
	"github.com/marcelsud/webhook-inspector/webhook/cursor"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of webhook.Repository
 * Uses one Redis Hash per webhook for the record itself
 * Uses one Sorted Set as the feed index: every member has score 0 and is
 * "{created_at micros, zero padded}|{id}", so lexicographic order is the
 * (created_at, id) order and ZREVRANGEBYLEX pages the feed newest first
 */

const (
	hashPrefix = "webhook"        // Hash naming: webhook:{webhook_id}
	indexKey   = "webhooks:index" // Sorted set holding the feed order
)

type Repository struct {
	client *redis.Client
}

// NewRepository creates a new Redis repository
func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}

	return &Repository{
		client: client,
	}, nil
}

// Insert stores the webhook hash and its index entry atomically
func (r *Repository) Insert(ctx context.Context, wh webhook.Webhook) (string, error) {
	fields, err := toHash(wh)
	if err != nil {
		return "", err
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, hashKey(wh.ID), fields)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: 0, Member: indexMember(wh.Key())})
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("storing webhook: %w", err)
	}

	return wh.ID, nil
}

// Get retrieves a webhook by ID from its hash
func (r *Repository) Get(ctx context.Context, id string) (webhook.Webhook, error) {
	data, err := r.client.HGetAll(ctx, hashKey(id)).Result()
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("getting webhook: %w", err)
	}
	if len(data) == 0 {
		return webhook.Webhook{}, webhook.ErrNotFound
	}

	return fromHash(data)
}

// GetMany reads all hashes in one pipeline
func (r *Repository) GetMany(ctx context.Context, ids []string) ([]webhook.Webhook, []string, error) {
	return r.fetch(ctx, ids)
}

// List pages the feed index newest first
func (r *Repository) List(ctx context.Context, after *cursor.Key, limit int) ([]webhook.Webhook, error) {
	max := "+"
	if after != nil {
		max = "(" + indexMember(*after)
	}

	members, err := r.client.ZRevRangeByLex(ctx, indexKey, &redis.ZRangeBy{
		Max:   max,
		Min:   "-",
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("reading feed index: %w", err)
	}

	ids := make([]string, 0, len(members))
	for _, m := range members {
		_, id, ok := strings.Cut(m, "|")
		if !ok {
			return nil, fmt.Errorf("malformed index member %q", m)
		}
		ids = append(ids, id)
	}

	// a record deleted between the two reads is skipped
	found, _, err := r.fetch(ctx, ids)
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Count returns the size of the feed index
func (r *Repository) Count(ctx context.Context) (int64, error) {
	n, err := r.client.ZCard(ctx, indexKey).Result()
	if err != nil {
		return 0, fmt.Errorf("counting webhooks: %w", err)
	}
	return n, nil
}

// Delete removes the hash and the index entry
func (r *Repository) Delete(ctx context.Context, id string) error {
	created, err := r.client.HGet(ctx, hashKey(id), "created_at").Result()
	if errors.Is(err, redis.Nil) {
		return webhook.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading webhook: %w", err)
	}

	micros, err := strconv.ParseInt(created, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing created_at: %w", err)
	}
	key := cursor.Key{CreatedAt: time.UnixMicro(micros).UTC(), ID: id}

	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, hashKey(id))
		pipe.ZRem(ctx, indexKey, indexMember(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting webhook: %w", err)
	}

	// a concurrent delete won the race
	if del.Val() == 0 {
		return webhook.ErrNotFound
	}

	return nil
}

// Close closes the Redis connection
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func (r *Repository) fetch(ctx context.Context, ids []string) ([]webhook.Webhook, []string, error) {
	if len(ids) == 0 {
		return []webhook.Webhook{}, nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, hashKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("getting webhooks: %w", err)
	}

	found := make([]webhook.Webhook, 0, len(ids))
	var missing []string
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			missing = append(missing, ids[i])
			continue
		}
		wh, err := fromHash(data)
		if err != nil {
			return nil, nil, err
		}
		found = append(found, wh)
	}

	return found, missing, nil
}

// Helper functions

func hashKey(id string) string {
	return fmt.Sprintf("%s:%s", hashPrefix, id)
}

func indexMember(key cursor.Key) string {
	return fmt.Sprintf("%020d|%s", key.CreatedAt.UnixMicro(), key.ID)
}

func toHash(wh webhook.Webhook) (map[string]interface{}, error) {
	headersJSON, err := webhook.MarshalFields(wh.Headers)
	if err != nil {
		return nil, fmt.Errorf("marshaling headers: %w", err)
	}

	fields := map[string]interface{}{
		"id":          wh.ID,
		"created_at":  wh.CreatedAt.UnixMicro(),
		"method":      wh.Method,
		"pathname":    wh.Pathname,
		"ip":          wh.IP,
		"status_code": wh.StatusCode,
		"headers":     string(headersJSON),
	}

	// optional fields are left out of the hash when absent
	if wh.ContentType != nil {
		fields["content_type"] = *wh.ContentType
	}
	if wh.Body != nil {
		fields["body"] = *wh.Body
		fields["content_length"] = *wh.ContentLength
	}
	if wh.QueryParams != nil {
		paramsJSON, err := webhook.MarshalFields(wh.QueryParams)
		if err != nil {
			return nil, fmt.Errorf("marshaling query params: %w", err)
		}
		fields["query_params"] = string(paramsJSON)
	}

	return fields, nil
}

func fromHash(data map[string]string) (webhook.Webhook, error) {
	wh := webhook.Webhook{
		ID:         data["id"],
		CreatedAt:  time.UnixMicro(parseInt64(data["created_at"])).UTC(),
		Method:     data["method"],
		Pathname:   data["pathname"],
		IP:         data["ip"],
		StatusCode: int(parseInt64(data["status_code"])),
	}

	headers, err := webhook.UnmarshalFields([]byte(data["headers"]))
	if err != nil {
		return webhook.Webhook{}, fmt.Errorf("unmarshaling headers: %w", err)
	}
	wh.Headers = headers

	if v, ok := data["content_type"]; ok {
		wh.ContentType = &v
	}
	if v, ok := data["body"]; ok {
		n := int(parseInt64(data["content_length"]))
		wh.Body = &v
		wh.ContentLength = &n
	}
	if v, ok := data["query_params"]; ok {
		params, err := webhook.UnmarshalFields([]byte(v))
		if err != nil {
			return webhook.Webhook{}, fmt.Errorf("unmarshaling query params: %w", err)
		}
		wh.QueryParams = params
	}

	return wh, nil
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
