// Package rendercache stores rendered artifacts in Redis under a hash of the request payload and
// collapses concurrent renders of the same payload into one.
package rendercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const keyPrefix = "quote_render:"

// RenderFunc produces the artifact on a cache miss.
type RenderFunc func(ctx context.Context) (document.Artifact, error)

// Cache wraps Redis based artifact caching. A nil client disables storage but keeps the
// in-process dedupe of concurrent renders.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	variant string
	logger  *slog.Logger
	group   singleflight.Group
}

// New instantiates the cache. variant identifies engine settings that change the output, such as
// currency or footer text, so artifacts rendered under different settings never collide.
func New(client *redis.Client, ttl time.Duration, variant string, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, ttl: ttl, variant: variant, logger: logger}
}

type entry struct {
	Data        []byte `json:"data"`
	PageCount   int    `json:"page_count"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Checksum    string `json:"checksum"`
	Truncated   bool   `json:"truncated"`
}

// Key hashes the request payload together with the variant.
func (c *Cache) Key(req quotation.Request) (string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("rendercache: marshal request: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(c.variant))
	h.Write([]byte{0})
	h.Write(raw)
	return keyPrefix + hex.EncodeToString(h.Sum(nil)), nil
}

// Fetch returns the cached artifact for req or renders and stores it. The boolean reports a hit.
// Failing renders are never cached.
func (c *Cache) Fetch(ctx context.Context, req quotation.Request, render RenderFunc) (document.Artifact, bool, error) {
	if render == nil {
		return document.Artifact{}, false, errors.New("rendercache: render func required")
	}
	key, err := c.Key(req)
	if err != nil {
		return document.Artifact{}, false, err
	}
	if artifact, ok := c.lookup(ctx, key); ok {
		return artifact, true, nil
	}

	// The render is shared by every caller waiting on key, so it must outlive the first one.
	shared := context.WithoutCancel(ctx)
	resultChan := c.group.DoChan(key, func() (interface{}, error) {
		artifact, err := render(shared)
		if err != nil {
			return document.Artifact{}, err
		}
		c.store(shared, key, artifact)
		return artifact, nil
	})
	select {
	case <-ctx.Done():
		return document.Artifact{}, false, ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return document.Artifact{}, false, res.Err
		}
		return res.Val.(document.Artifact), false, nil
	}
}

func (c *Cache) lookup(ctx context.Context, key string) (document.Artifact, bool) {
	if c.client == nil {
		return document.Artifact{}, false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "render cache read failed", slog.Any("error", err))
		}
		return document.Artifact{}, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || len(e.Data) == 0 {
		return document.Artifact{}, false
	}
	return document.Artifact{
		Data:        e.Data,
		PageCount:   e.PageCount,
		Filename:    e.Filename,
		ContentType: e.ContentType,
		Checksum:    e.Checksum,
		Truncated:   e.Truncated,
	}, true
}

func (c *Cache) store(ctx context.Context, key string, a document.Artifact) {
	if c.client == nil {
		return
	}
	raw, err := json.Marshal(entry{
		Data:        a.Data,
		PageCount:   a.PageCount,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		Checksum:    a.Checksum,
		Truncated:   a.Truncated,
	})
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "render cache write failed", slog.Any("error", err))
	}
}
