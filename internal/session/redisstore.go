package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisMaxRetries = 8

// RedisStore keeps each session as a JSON document and guards updates with WATCH/MULTI.
type RedisStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	owned  bool
	prefix string
}

// NewRedisStore dials redisURL and verifies the connection. ttl 0 keeps keys forever.
func NewRedisStore(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	rdb, err := OpenRedis(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	s := NewRedisStoreFromClient(rdb, ttl)
	s.owned = true
	return s, nil
}

// NewRedisStoreFromClient uses an existing client. Close does not close it.
func NewRedisStoreFromClient(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, prefix: "chessx:session:"}
}

// OpenRedis parses a redis:// or rediss:// URL, connects and pings.
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for redis store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Username: u.User.Username(), Password: pass, DB: db}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + strings.TrimSpace(id) }

func (s *RedisStore) Load(ctx context.Context, id string) (*Session, error) {
	raw, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var out Session
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &out, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn UpdateFunc) (*Session, error) {
	key := s.key(id)
	var result *Session
	txf := func(tx *redis.Tx) error {
		var cur *Session
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			cur = &Session{}
			if jerr := json.Unmarshal(raw, cur); jerr != nil {
				return fmt.Errorf("decode session %s: %w", id, jerr)
			}
		}
		next, err := fn(cur.Clone())
		if err != nil {
			return err
		}
		if next == nil {
			result = cur
			return nil
		}
		newRaw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		pipe := tx.TxPipeline()
		pipe.Set(ctx, key, newRaw, s.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
		result = next
		return nil
	}

	for attempt := 0; attempt < redisMaxRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
	}
	return nil, ErrConflict
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil || !s.owned {
		return nil
	}
	return s.rdb.Close()
}
