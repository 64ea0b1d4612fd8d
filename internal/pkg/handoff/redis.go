package handoff

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type kv interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type redisStore struct {
	client    kv
	keyPrefix string
	ttl       time.Duration
}

var keyTemplate = "%s:signed:%s"

func NewRedisStore(client kv, keyPrefix string, ttl time.Duration) Store {
	return &redisStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
	}
}

func (r *redisStore) Name() string {
	return "redis"
}

func (r *redisStore) key(id string) string {
	return fmt.Sprintf(keyTemplate, r.keyPrefix, id)
}

func (r *redisStore) Deliver(ctx context.Context, p *SignedPayload) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("could not marshal payload: %w", err)
	}

	if err := r.client.Set(ctx, r.key(p.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("could not store payload %s: %w", p.ID, err)
	}

	return nil
}

func (r *redisStore) Get(ctx context.Context, id string) (*SignedPayload, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("could not read payload %s: %w", id, err)
	}

	var p SignedPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("could not unmarshal payload %s: %w", id, err)
	}

	return &p, nil
}
