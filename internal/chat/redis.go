package chat

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLog stores messages as JSON entries of one capped list.
type RedisLog struct {
	rdb      *redis.Client
	key      string
	capacity int64
	now      func() time.Time
}

func NewRedisLog(rdb *redis.Client, capacity int) *RedisLog {
	if capacity <= 0 {
		capacity = 500
	}
	return &RedisLog{rdb: rdb, key: "chessx:chat", capacity: int64(capacity), now: time.Now}
}

func (l *RedisLog) Append(ctx context.Context, text string) (Message, error) {
	m, err := newMessage(text, l.now())
	if err != nil {
		return Message{}, err
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return Message{}, err
	}
	pipe := l.rdb.TxPipeline()
	pipe.RPush(ctx, l.key, raw)
	pipe.LTrim(ctx, l.key, -l.capacity, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return Message{}, err
	}
	return m, nil
}

func (l *RedisLog) List(ctx context.Context, limit int) ([]Message, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	raws, err := l.rdb.LRange(ctx, l.key, start, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Message, 0, len(raws))
	for _, r := range raws {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (l *RedisLog) Clear(ctx context.Context) error {
	return l.rdb.Del(ctx, l.key).Err()
}
