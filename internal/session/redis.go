package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const redisOpTimeout = 2 * time.Second

// redisStore implements Store on a Redis key-value service. One key per
// user, value is the JSON-encoded session.
type redisStore struct {
	client *redis.Client
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr string) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return &redisStore{client: client}, nil
}

func sessionKey(userID int64) string {
	return "session:" + strconv.FormatInt(userID, 10)
}

// Get returns the stored session, degrading to the default one on any read
// or decode error.
func (r *redisStore) Get(userID int64) Session {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, sessionKey(userID)).Bytes()
	if err == redis.Nil {
		return Default()
	}
	if err != nil {
		log.Warnf("Redis read failed for user %d, using default session: %v", userID, err)
		return Default()
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		log.Warnf("Corrupt session record for user %d, using default session: %v", userID, err)
		return Default()
	}
	return s
}

func (r *redisStore) Set(userID int64, s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Set(ctx, sessionKey(userID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (r *redisStore) Clear(userID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, sessionKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
