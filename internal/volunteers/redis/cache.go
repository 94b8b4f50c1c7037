package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-volunteers/internal/logger"
	"ms-volunteers/internal/models"
)

const searchKeyPrefix = "volunteer_search:"

// Cache holds search-as-you-type results for their short useful life.
// Every volunteer mutation invalidates the whole search keyspace, so a
// stale hit can only outlive a write by the scan below.
type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

func searchKey(query string) string {
	return searchKeyPrefix + strings.ToLower(strings.TrimSpace(query))
}

// Get returns the cached result set for query, if present.
func (c *Cache) Get(ctx context.Context, query string) ([]models.Volunteer, bool) {
	payload, err := c.Client.Get(ctx, searchKey(query)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("REDIS", fmt.Sprintf("Search cache read failed: %v", err))
		}
		return nil, false
	}

	var records []models.Volunteer
	if err := json.Unmarshal(payload, &records); err != nil {
		if c.Logger != nil {
			c.Logger.Warn("REDIS", fmt.Sprintf("Dropping corrupt search cache entry: %v", err))
		}
		c.Client.Del(ctx, searchKey(query))
		return nil, false
	}
	return records, true
}

// Set stores a result set under the query with the configured TTL.
// Cache failures are logged and swallowed; search still works off the
// database.
func (c *Cache) Set(ctx context.Context, query string, records []models.Volunteer) {
	payload, err := json.Marshal(records)
	if err != nil {
		if c.Logger != nil {
			c.Logger.Warn("REDIS", fmt.Sprintf("Failed to marshal search results: %v", err))
		}
		return
	}

	if err := c.Client.Set(ctx, searchKey(query), payload, c.TTL).Err(); err != nil && c.Logger != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Search cache write failed: %v", err))
	}
}

// InvalidateAll drops every cached search result. Called after any
// volunteer mutation.
func (c *Cache) InvalidateAll(ctx context.Context) {
	iter := c.Client.Scan(ctx, 0, searchKeyPrefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		if c.Logger != nil {
			c.Logger.Warn("REDIS", fmt.Sprintf("Search cache scan failed: %v", err))
		}
		return
	}
	if len(keys) == 0 {
		return
	}

	if err := c.Client.Del(ctx, keys...).Err(); err != nil && c.Logger != nil {
		c.Logger.Warn("REDIS", fmt.Sprintf("Search cache invalidation failed: %v", err))
	}
}
