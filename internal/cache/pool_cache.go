//go:generate go run go.uber.org/mock/mockgen -source=pool_cache.go -destination=../mocks/mock_pool_cache.go -package=mocks

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"partyroom/internal/model"
)

const poolKey = "pool:questions"

// PoolCache holds a snapshot of the whole question pool.
// GetPool returns (nil, nil) on a miss.
type PoolCache interface {
	GetPool(ctx context.Context) ([]model.Question, error)
	SetPool(ctx context.Context, questions []model.Question) error
	Invalidate(ctx context.Context) error
}

type poolCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPoolCache creates a new pool cache
func NewPoolCache(client *redis.Client, ttl time.Duration) PoolCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &poolCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *poolCache) GetPool(ctx context.Context) ([]model.Question, error) {
	data, err := c.client.Get(ctx, poolKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, err
	}
	return questions, nil
}

func (c *poolCache) SetPool(ctx context.Context, questions []model.Question) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, poolKey, data, c.ttl).Err()
}

func (c *poolCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, poolKey).Err()
}
