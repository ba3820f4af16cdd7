package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"partyroom/internal/model"
	"partyroom/internal/repository"
)

const sessionKeyPattern = "session:*"

type sessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionStore keeps sessions in Redis as JSON documents. Each write
// refreshes the TTL, so abandoned rooms expire on their own.
func NewSessionStore(client *redis.Client, ttl time.Duration) repository.SessionRepo {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionStore{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionStore) key(code string) string {
	return fmt.Sprintf("session:%s", code)
}

func (c *sessionStore) Create(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	ok, err := c.client.SetNX(ctx, c.key(session.Code), data, c.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrCodeTaken
	}
	return nil
}

func (c *sessionStore) GetByCode(ctx context.Context, code string) (*model.Session, error) {
	data, err := c.client.Get(ctx, c.key(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session model.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *sessionStore) Update(ctx context.Context, session *model.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(session.Code), data, c.ttl).Err()
}

func (c *sessionStore) Delete(ctx context.Context, code string) error {
	return c.client.Del(ctx, c.key(code)).Err()
}

func (c *sessionStore) keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, sessionKeyPattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	return keys, iter.Err()
}

func (c *sessionStore) List(ctx context.Context) ([]*model.Session, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return nil, err
	}

	sessions := make([]*model.Session, 0, len(keys))
	for _, key := range keys {
		data, err := c.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue // expired between SCAN and GET
		}
		if err != nil {
			return nil, err
		}
		var s model.Session
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		sessions = append(sessions, &s)
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Code < sessions[j].Code })
	return sessions, nil
}

func (c *sessionStore) DeleteAll(ctx context.Context) (int64, error) {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	return c.client.Del(ctx, keys...).Result()
}
