package feed

import (
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

// seenKey is the Redis set holding report ids already ingested.
const seenKey = "conflictmap:seen_ids"

// SeenCache is a Redis-backed set of already-ingested report ids. It fronts
// the store's id list so repeated scrape cycles don't re-query the full
// reports table. Optional: a nil *SeenCache is a valid no-op cache.
type SeenCache struct {
	pool *redis.Pool
}

// NewSeenCache connects a seen-id cache to the given Redis address.
func NewSeenCache(addr string) *SeenCache {
	return &SeenCache{
		pool: &redis.Pool{
			MaxIdle:     3,
			IdleTimeout: 240 * time.Second,
			Dial: func() (redis.Conn, error) {
				return redis.Dial("tcp", addr,
					redis.DialConnectTimeout(5*time.Second),
					redis.DialReadTimeout(5*time.Second),
					redis.DialWriteTimeout(5*time.Second))
			},
		},
	}
}

// Contains reports whether the id has already been ingested.
func (c *SeenCache) Contains(id string) (bool, error) {
	if c == nil {
		return false, nil
	}
	conn := c.pool.Get()
	defer conn.Close()

	seen, err := redis.Bool(conn.Do("SISMEMBER", seenKey, id))
	if err != nil {
		return false, fmt.Errorf("seen cache lookup: %w", err)
	}
	return seen, nil
}

// Add marks ids as ingested.
func (c *SeenCache) Add(ids ...string) error {
	if c == nil || len(ids) == 0 {
		return nil
	}
	conn := c.pool.Get()
	defer conn.Close()

	args := make([]interface{}, 0, len(ids)+1)
	args = append(args, seenKey)
	for _, id := range ids {
		args = append(args, id)
	}
	if _, err := conn.Do("SADD", args...); err != nil {
		return fmt.Errorf("seen cache add: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *SeenCache) Close() error {
	if c == nil {
		return nil
	}
	return c.pool.Close()
}
