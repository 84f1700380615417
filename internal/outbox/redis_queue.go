package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// blockTimeout сколько BRPOP ждёт до повторной проверки контекста.
const blockTimeout = 5 * time.Second

// RedisQueue очередь на списке Redis: LPUSH на запись, BRPOP на чтение.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue подключается по REDIS_URL (redis://...) или по адресу host:port.
func NewRedisQueue(ctx context.Context, redisURL, key string) (*RedisQueue, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		opts = &redis.Options{Addr: redisURL}
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("outbox: redis ping: %w", err)
	}
	return NewRedisQueueWithClient(client, key), nil
}

func NewRedisQueueWithClient(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Enqueue(ctx context.Context, task Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("outbox: marshal task: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, raw).Err(); err != nil {
		return fmt.Errorf("outbox: lpush: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (Task, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Task{}, err
		}

		res, err := q.client.BRPop(ctx, blockTimeout, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return Task{}, ctx.Err()
			}
			return Task{}, fmt.Errorf("outbox: brpop: %w", err)
		}

		// BRPOP возвращает пару [key, value].
		if len(res) != 2 {
			continue
		}
		var task Task
		if err := json.Unmarshal([]byte(res[1]), &task); err != nil {
			return Task{}, fmt.Errorf("outbox: unmarshal task: %w", err)
		}
		return task, nil
	}
}

// Ping проверяет соединение с Redis.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
