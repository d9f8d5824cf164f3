package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "tsync:session:"

// RedisKey is the key a video's session is stored under.
func RedisKey(videoID string) string { return redisKeyPrefix + videoID }

// redisStore keeps each session as a JSON string value.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps sessions forever
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, addr, password string, db int, ttl time.Duration) (SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &redisStore{client: client, ttl: ttl}, nil
}

func (r *redisStore) Save(ctx context.Context, s *Session) error {
	if err := checkVideoID(s.VideoID); err != nil {
		return err
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	if err := r.client.Set(ctx, RedisKey(s.VideoID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

func (r *redisStore) Load(ctx context.Context, videoID string) (*Session, error) {
	if err := checkVideoID(videoID); err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, RedisKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", videoID, err)
	}
	return &s, nil
}

func (r *redisStore) Delete(ctx context.Context, videoID string) error {
	if err := checkVideoID(videoID); err != nil {
		return err
	}
	if err := r.client.Del(ctx, RedisKey(videoID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List walks the keyspace with SCAN so large databases are not blocked.
func (r *redisStore) List(ctx context.Context) ([]*Session, error) {
	var out []*Session
	iter := r.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Bytes()
		if err != nil {
			continue // expired between SCAN and GET
		}
		var s Session
		if err := json.Unmarshal(data, &s); err != nil {
			continue
		}
		out = append(out, &s)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sortRecent(out)
	return out, nil
}

func (r *redisStore) Close() error { return r.client.Close() }
