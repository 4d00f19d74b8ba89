package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "invoicely:pdf"

// Cache keeps finished PDFs in Redis and collapses concurrent builds of the
// same key into one.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
	group  singleflight.Group
}

// NewCache instantiates the cache. A nil client disables storage but keeps
// the build deduplication. Redis failures never fail a build; they are logged.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// Key composes a cache key; callers pass something that changes whenever the
// document content does (id, revision, locale).
func Key(parts ...string) string {
	return cacheKeyPrefix + ":" + strings.Join(parts, ":")
}

// Fetch returns the cached document for key or builds, stores and returns it.
// The boolean reports whether the result came from Redis.
func (c *Cache) Fetch(ctx context.Context, key string, build func(context.Context) (Document, error)) (Document, bool, error) {
	if build == nil {
		return Document{}, false, errors.New("export: build func required")
	}
	if c == nil {
		doc, err := build(ctx)
		return doc, false, err
	}
	doc, ok, err := c.Get(ctx, key)
	if err != nil {
		c.logger.Warn("pdf cache read", slog.String("key", key), slog.Any("error", err))
	} else if ok {
		return doc, true, nil
	}

	// The shared build outlives any single waiter; the capturer's own timeout bounds it.
	buildCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		doc, err := build(buildCtx)
		if err != nil {
			return Document{}, err
		}
		if err := c.Put(buildCtx, key, doc); err != nil {
			c.logger.Warn("pdf cache write", slog.String("key", key), slog.Any("error", err))
		}
		return doc, nil
	})
	select {
	case <-ctx.Done():
		return Document{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Document{}, false, res.Err
		}
		return res.Val.(Document), false, nil
	}
}

// Get reads a cached document.
func (c *Cache) Get(ctx context.Context, key string) (Document, bool, error) {
	if c == nil || c.client == nil {
		return Document{}, false, nil
	}
	fields, err := c.client.HGetAll(ctx, key).Result()
	if err != nil {
		return Document{}, false, fmt.Errorf("export: cache get: %w", err)
	}
	data, ok := fields["data"]
	if !ok || data == "" {
		return Document{}, false, nil
	}
	pages, err := strconv.Atoi(fields["pages"])
	if err != nil {
		return Document{}, false, nil
	}
	return Document{Data: []byte(data), Pages: pages}, true, nil
}

// Put stores a document with the configured TTL.
func (c *Cache) Put(ctx context.Context, key string, doc Document) error {
	if c == nil || c.client == nil {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "data", doc.Data, "pages", doc.Pages)
		if c.ttl > 0 {
			pipe.Expire(ctx, key, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("export: cache put: %w", err)
	}
	return nil
}
