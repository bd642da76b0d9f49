package redis_client

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	_instances = sync.Map{}
)

// GetRedisClient 同一個 address 共用一個 client
func GetRedisClient(address string, options ...Option) (*redis.Client, error) {
	client, ok := _instances.Load(address)
	if !ok {
		var err error
		client, err = createRedisClient(address, options...)
		if err != nil {
			return nil, err
		}
		client, _ = _instances.LoadOrStore(address, client)
	}

	return client.(*redis.Client), nil
}

// Connect 取得 client 並確認連線
func Connect(ctx context.Context, address string, options ...Option) (*redis.Client, error) {
	client, err := GetRedisClient(address, options...)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis %s: %w", address, err)
	}
	return client, nil
}

// Release 關閉並移除快取的 client
func Release(address string) error {
	client, ok := _instances.LoadAndDelete(address)
	if !ok {
		return nil
	}
	return client.(*redis.Client).Close()
}

func createRedisClient(address string, options ...Option) (*redis.Client, error) {
	if address == "" {
		return nil, fmt.Errorf("redis address is empty")
	}
	opts := &redis.Options{
		Addr: address,
	}

	for _, option := range options {
		option(opts)
	}

	return redis.NewClient(opts), nil
}

type Option func(*redis.Options)

func WithPassword(password string) Option {
	return func(o *redis.Options) {
		o.Password = password
	}
}

func WithDB(db int) Option {
	return func(o *redis.Options) {
		o.DB = db
	}
}

func WithPoolSize(poolSize int) Option {
	return func(o *redis.Options) {
		o.PoolSize = poolSize
	}
}
