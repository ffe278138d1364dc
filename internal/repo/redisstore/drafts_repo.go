package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/regportal/internal/wizard"
	"github.com/redis/go-redis/v9"
)

const draftPrefix = "regportal:draft:"

// DraftsRepo stores one JSON draft per (user, event) under a key that
// expires with the session. Every write refreshes the TTL.
type DraftsRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewDraftsRepo(c *Client, ttl time.Duration) *DraftsRepo {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &DraftsRepo{rdb: c.redisdb, ttl: ttl}
}

func draftKey(key wizard.DraftKey) string {
	return draftPrefix + key.String()
}

func (r *DraftsRepo) Get(ctx context.Context, key wizard.DraftKey) (wizard.Draft, error) {
	raw, err := r.rdb.Get(ctx, draftKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return wizard.Draft{}, wizard.ErrDraftNotFound
	}
	if err != nil {
		return wizard.Draft{}, fmt.Errorf("redis get draft: %w", err)
	}

	var d wizard.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		// a draft we cannot read is as good as gone
		_ = r.rdb.Del(ctx, draftKey(key)).Err()
		return wizard.Draft{}, wizard.ErrDraftNotFound
	}
	return d, nil
}

func (r *DraftsRepo) Put(ctx context.Context, key wizard.DraftKey, d wizard.Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := r.rdb.Set(ctx, draftKey(key), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set draft: %w", err)
	}
	return nil
}

func (r *DraftsRepo) Delete(ctx context.Context, key wizard.DraftKey) error {
	if err := r.rdb.Del(ctx, draftKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del draft: %w", err)
	}
	return nil
}
