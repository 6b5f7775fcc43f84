package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	dom "taskhub/internal/domain"

	"github.com/redis/go-redis/v9"
)

const (
	keyListPrefix = "task:list:"
	// keyListGen sits outside keyListPrefix so InvalidateAll's scan never deletes it.
	keyListGen = "task:list-gen"
)

// TaskCache caches list-view results in Redis, one key per principal, view, filters and sort.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// Generation returns the current list generation. Every InvalidateAll bumps it,
// so a load that read an older generation can only fill a key nobody asks for.
func (c *TaskCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, keyListGen).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// ListKey identifies the cached result of q at generation gen. Now is excluded;
// overdue results may lag by up to the TTL.
func ListKey(q dom.TaskQuery, gen int64) string {
	order := "asc"
	if q.Descending {
		order = "desc"
	}
	return keyListPrefix + strings.Join([]string{
		strconv.FormatInt(gen, 10), q.PrincipalID, string(q.View), string(q.Status), string(q.Priority), order,
	}, ":")
}

// GetList returns the cached list for q at gen, or nil on a miss.
func (c *TaskCache) GetList(ctx context.Context, q dom.TaskQuery, gen int64) ([]dom.Task, error) {
	b, err := c.rdb.Get(ctx, ListKey(q, gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := []dom.Task{}
	if err := json.Unmarshal(b, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetList stores the list for q at gen.
func (c *TaskCache) SetList(ctx context.Context, q dom.TaskQuery, gen int64, list []dom.Task) error {
	b, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, ListKey(q, gen), b, c.ttl).Err()
}

// InvalidateAll starts a new generation and removes every list key. Any task
// write can change any principal's views.
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	if err := c.rdb.Incr(ctx, keyListGen).Err(); err != nil {
		return err
	}
	iter := c.rdb.Scan(ctx, 0, keyListPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}
