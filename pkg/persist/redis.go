package persist

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "jestr:"

// RedisSink stores snapshots in Redis, for shells that share state between
// processes (e.g. the web client's server-side renderer).
type RedisSink struct {
	client *redis.Client
}

func OpenRedis(ctx context.Context, uri string) (*RedisSink, error) {
	// Get Redis options
	rdbOpts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, err
	}

	// Create Redis client
	client := redis.NewClient(rdbOpts)

	// Ping Redis
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisSink(client), nil
}

func NewRedisSink(client *redis.Client) *RedisSink {
	return &RedisSink{client: client}
}

func (r *RedisSink) Save(ctx context.Context, key string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+key, data, 0).Err()
}

func (r *RedisSink) Load(ctx context.Context, key string, v any) (bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err == redis.Nil {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, decode(data, v)
}

func (r *RedisSink) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (r *RedisSink) Close() error {
	return r.client.Close()
}
