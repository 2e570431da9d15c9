// Package cache provides multi-layer caching for public tour documents:
// L1 in-memory (short TTL) backed by L2 Redis. Redis is optional; without it
// the cache degrades to L1 only. Entries are invalidated per tour id on
// every mutation of the tour graph.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tesseract-hub/tour-service/internal/models"
)

const (
	// L1 cache (in-memory) TTL
	L1CacheTTL = 1 * time.Minute

	// L2 cache (Redis) TTL
	L2CacheTTL = 15 * time.Minute

	// Redis key prefix for tour documents
	TourDocKeyPrefix = "tour:doc:"

	// Redis key prefix for slug -> tour id mapping
	SlugKeyPrefix = "tour:slug:"
)

type l1Entry struct {
	data      interface{}
	expiresAt time.Time
}

// TourCache caches assembled public tour documents.
type TourCache struct {
	l1Cache sync.Map

	redisClient  *redis.Client
	redisEnabled bool
}

// NewTourCache creates a new tour cache. redisClient may be nil.
func NewTourCache(redisClient *redis.Client) *TourCache {
	c := &TourCache{
		redisClient:  redisClient,
		redisEnabled: redisClient != nil,
	}
	go c.cleanupL1()
	return c
}

// GetDocument retrieves a cached tour document by tour id.
func (c *TourCache) GetDocument(ctx context.Context, tourID uuid.UUID) (*models.TourDocument, bool) {
	key := TourDocKeyPrefix + tourID.String()

	if entry, ok := c.l1Cache.Load(key); ok {
		e := entry.(l1Entry)
		if time.Now().Before(e.expiresAt) {
			if doc, ok := e.data.(*models.TourDocument); ok {
				return doc, true
			}
		}
		c.l1Cache.Delete(key)
	}

	if c.redisEnabled {
		raw, err := c.redisClient.Get(ctx, key).Bytes()
		if err == nil {
			var doc models.TourDocument
			if json.Unmarshal(raw, &doc) == nil {
				c.setL1(key, &doc)
				return &doc, true
			}
		}
	}

	return nil, false
}

// SetDocument stores a tour document in both layers.
func (c *TourCache) SetDocument(ctx context.Context, doc *models.TourDocument) {
	key := TourDocKeyPrefix + doc.ID.String()
	c.setL1(key, doc)
	c.setL1(SlugKeyPrefix+doc.Slug, doc.ID)

	if c.redisEnabled {
		if raw, err := json.Marshal(doc); err == nil {
			c.redisClient.Set(ctx, key, raw, L2CacheTTL)
		}
		c.redisClient.Set(ctx, SlugKeyPrefix+doc.Slug, doc.ID.String(), L2CacheTTL)
	}
}

// ResolveSlug returns the cached tour id for a slug, if known.
func (c *TourCache) ResolveSlug(ctx context.Context, slug string) (uuid.UUID, bool) {
	key := SlugKeyPrefix + slug

	if entry, ok := c.l1Cache.Load(key); ok {
		e := entry.(l1Entry)
		if time.Now().Before(e.expiresAt) {
			if id, ok := e.data.(uuid.UUID); ok {
				return id, true
			}
		}
		c.l1Cache.Delete(key)
	}

	if c.redisEnabled {
		raw, err := c.redisClient.Get(ctx, key).Result()
		if err == nil {
			if id, err := uuid.Parse(raw); err == nil {
				c.l1Cache.Store(key, l1Entry{data: id, expiresAt: time.Now().Add(L1CacheTTL)})
				return id, true
			}
		}
	}

	return uuid.Nil, false
}

// Invalidate drops the cached document for one tour in both layers.
func (c *TourCache) Invalidate(ctx context.Context, tourID uuid.UUID, slug string) {
	docKey := TourDocKeyPrefix + tourID.String()
	c.l1Cache.Delete(docKey)
	if slug != "" {
		c.l1Cache.Delete(SlugKeyPrefix + slug)
	}

	if c.redisEnabled {
		keys := []string{docKey}
		if slug != "" {
			keys = append(keys, SlugKeyPrefix+slug)
		}
		c.redisClient.Del(ctx, keys...)
	}
}

func (c *TourCache) setL1(key string, data interface{}) {
	c.l1Cache.Store(key, l1Entry{data: data, expiresAt: time.Now().Add(L1CacheTTL)})
}

// cleanupL1 periodically evicts expired L1 entries.
func (c *TourCache) cleanupL1() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		c.l1Cache.Range(func(key, value interface{}) bool {
			if entry, ok := value.(l1Entry); ok && now.After(entry.expiresAt) {
				c.l1Cache.Delete(key)
			}
			return true
		})
	}
}
