package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"risewith9-sales-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// Buffer configuration
const (
	MaxBatchSize    = 50
	FlushTimeout    = 60 * time.Second
	CleanupInterval = 5 * time.Minute
)

// RedisCache implements Cache backed by Redis. Access codes, builder
// sessions and tour sessions are stored here so multiple API instances
// share them.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed cache around an existing client.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get retrieves a value by key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	return data, err
}

// Set stores a value with the given TTL.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value by key.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Exists checks if a key exists.
func (c *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.client.Exists(ctx, key).Result()
	return n > 0, err
}

// GetOrSet retrieves a value or computes and stores it if missing.
func (c *RedisCache) GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error) {
	if value, err := c.Get(ctx, key); err == nil {
		return value, nil
	}

	value, err := fn()
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		return nil, err
	}
	return value, nil
}

// Clear removes all entries from the current Redis database.
func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

var _ Cache = (*RedisCache)(nil)

// FlushFunc is called to persist buffered visit events to the database.
type FlushFunc func(ctx context.Context, items []*model.BufferedVisit) error

// RedisVisitBuffer collects tour visit events in a Redis list and flushes
// them to the visit repository in batches (write-behind). Tour traffic is
// bursty; batching keeps the visit store off the hot path.
type RedisVisitBuffer struct {
	client      *redis.Client
	flushFunc   FlushFunc
	flushTicker *time.Ticker
	stopFlush   chan struct{}
	stopOnce    sync.Once
	key         string
}

// RedisBufferConfig holds configuration for the visit buffer.
type RedisBufferConfig struct {
	Addr          string
	Password      string
	DB            int
	FlushInterval time.Duration
	Key           string
}

// NewRedisVisitBuffer creates a Redis-backed visit buffer.
func NewRedisVisitBuffer(cfg RedisBufferConfig, flushFunc FlushFunc) (*RedisVisitBuffer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	key := cfg.Key
	if key == "" {
		key = "risewith9:tour:visits"
	}

	b := &RedisVisitBuffer{
		client:      client,
		flushFunc:   flushFunc,
		flushTicker: time.NewTicker(cfg.FlushInterval),
		stopFlush:   make(chan struct{}),
		key:         key,
	}

	go b.backgroundFlush()

	log.Printf("[RedisVisitBuffer] Started - DB:%d, key:%s, flush:%v, batch:%d",
		cfg.DB, key, cfg.FlushInterval, MaxBatchSize)
	return b, nil
}

// Add buffers a visit event in Redis.
func (b *RedisVisitBuffer) Add(ctx context.Context, event *model.BufferedVisit) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.RPush(ctx, b.key, jsonData).Err()
}

// Count returns the number of pending events.
func (b *RedisVisitBuffer) Count(ctx context.Context) (int64, error) {
	return b.client.LLen(ctx, b.key).Result()
}

// FlushBatch writes up to MaxBatchSize events to the database. Events that
// fail to persist are pushed back onto the buffer.
func (b *RedisVisitBuffer) FlushBatch(ctx context.Context) (int, error) {
	raw, err := b.client.LPopCount(ctx, b.key, MaxBatchSize).Result()
	if err == redis.Nil || len(raw) == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	items := make([]*model.BufferedVisit, 0, len(raw))
	for _, data := range raw {
		var v model.BufferedVisit
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			log.Printf("[RedisVisitBuffer] Dropping undecodable event: %v", err)
			continue
		}
		items = append(items, &v)
	}

	if len(items) == 0 {
		return 0, nil
	}

	if err := b.flushFunc(ctx, items); err != nil {
		log.Printf("[RedisVisitBuffer] Flush error, requeueing %d events: %v", len(raw), err)
		pipe := b.client.Pipeline()
		for _, data := range raw {
			pipe.RPush(ctx, b.key, data)
		}
		pipe.Exec(ctx)
		return 0, err
	}

	log.Printf("[RedisVisitBuffer] Flushed %d events", len(items))
	return len(items), nil
}

// Flush writes all buffered events to the database.
func (b *RedisVisitBuffer) Flush(ctx context.Context) error {
	for {
		flushed, err := b.FlushBatch(ctx)
		if err != nil {
			return err
		}
		if flushed == 0 {
			return nil
		}
	}
}

func (b *RedisVisitBuffer) backgroundFlush() {
	for {
		select {
		case <-b.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
			if _, err := b.FlushBatch(ctx); err != nil {
				log.Printf("[RedisVisitBuffer] Background flush error: %v", err)
			}
			cancel()
		case <-b.stopFlush:
			log.Printf("[RedisVisitBuffer] Shutdown: flushing remaining events...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			if err := b.Flush(ctx); err != nil {
				log.Printf("[RedisVisitBuffer] Shutdown flush error: %v", err)
			}
			cancel()
			log.Printf("[RedisVisitBuffer] Shutdown flush complete")
			return
		}
	}
}

// Close stops the buffer and performs a final flush.
func (b *RedisVisitBuffer) Close() error {
	b.stopOnce.Do(func() {
		b.flushTicker.Stop()
		close(b.stopFlush)
	})
	return b.client.Close()
}
