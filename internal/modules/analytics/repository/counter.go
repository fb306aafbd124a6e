package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DownloadCounter tracks how often each model's weights were fetched.
// Repeat downloads by the same user within the dedupe window count once.
type DownloadCounter interface {
	Increment(ctx context.Context, modelID, userID int64) error
	Counts(ctx context.Context) (map[int64]int64, error)
}

const (
	downloadsHashKey = "model:downloads"
	dedupeWindow     = time.Hour
)

type redisDownloadCounter struct {
	rdb *redis.Client
}

func NewRedisDownloadCounter(rdb *redis.Client) DownloadCounter {
	return &redisDownloadCounter{rdb: rdb}
}

func (c *redisDownloadCounter) Increment(ctx context.Context, modelID, userID int64) error {
	userKey := fmt.Sprintf("model:user_download:%d:%d", modelID, userID)

	fresh, err := c.rdb.SetNX(ctx, userKey, "downloaded", dedupeWindow).Result()
	if err != nil {
		return fmt.Errorf("failed to check user download: %w", err)
	}
	if !fresh {
		return nil
	}

	if err := c.rdb.HIncrBy(ctx, downloadsHashKey, strconv.FormatInt(modelID, 10), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment downloads: %w", err)
	}
	return nil
}

func (c *redisDownloadCounter) Counts(ctx context.Context) (map[int64]int64, error) {
	raw, err := c.rdb.HGetAll(ctx, downloadsHashKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read downloads: %w", err)
	}

	out := make(map[int64]int64, len(raw))
	for k, v := range raw {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[id] = n
	}
	return out, nil
}

type memoryDownloadCounter struct {
	mu     sync.Mutex
	counts map[int64]int64
	seen   map[[2]int64]time.Time
	now    func() time.Time
}

func NewMemoryDownloadCounter() DownloadCounter {
	return &memoryDownloadCounter{
		counts: make(map[int64]int64),
		seen:   make(map[[2]int64]time.Time),
		now:    time.Now,
	}
}

func (c *memoryDownloadCounter) Increment(_ context.Context, modelID, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := [2]int64{modelID, userID}
	now := c.now()
	if last, ok := c.seen[key]; ok && now.Sub(last) < dedupeWindow {
		return nil
	}
	c.seen[key] = now
	c.counts[modelID]++
	return nil
}

func (c *memoryDownloadCounter) Counts(_ context.Context) (map[int64]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int64]int64, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out, nil
}
