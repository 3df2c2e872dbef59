package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/webdiner/webdiner/app/models"
	"github.com/webdiner/webdiner/app/services"
	"github.com/webdiner/webdiner/pkg/cache"
	"github.com/webdiner/webdiner/pkg/logger"
)

// CachedCatalog is a read-through Redis layer over a Catalog. Single and
// active-list lookups are cached for ttl; batch lookups used by reports
// always hit the database. A cache outage only costs latency.
//
// Entries are not invalidated by writes made outside this type. A vendor
// or item changed directly in the database keeps its cached state for up
// to ttl (CACHE_TTL) unless Flush is called; the seed command does so.
type CachedCatalog struct {
	next  services.Catalog
	store *cache.Store
	ttl   time.Duration
}

func NewCachedCatalog(next services.Catalog, store *cache.Store, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{next: next, store: store, ttl: ttl}
}

const catalogPrefix = "catalog:"

var _ services.Catalog = (*CachedCatalog)(nil)

func (c *CachedCatalog) Vendor(ctx context.Context, id uint) (*models.Vendor, error) {
	return cached(ctx, c, fmt.Sprintf(catalogPrefix+"vendor:%d", id), func() (*models.Vendor, error) {
		return c.next.Vendor(ctx, id)
	})
}

func (c *CachedCatalog) Item(ctx context.Context, id uint) (*models.MenuItem, error) {
	return cached(ctx, c, fmt.Sprintf(catalogPrefix+"item:%d", id), func() (*models.MenuItem, error) {
		return c.next.Item(ctx, id)
	})
}

func (c *CachedCatalog) VendorsByID(ctx context.Context, ids []uint) (map[uint]models.Vendor, error) {
	return c.next.VendorsByID(ctx, ids)
}

func (c *CachedCatalog) ItemsByID(ctx context.Context, ids []uint) (map[uint]models.MenuItem, error) {
	return c.next.ItemsByID(ctx, ids)
}

func (c *CachedCatalog) ActiveVendors(ctx context.Context) ([]models.Vendor, error) {
	rows, err := cached(ctx, c, catalogPrefix+"vendors:active", func() (*[]models.Vendor, error) {
		v, err := c.next.ActiveVendors(ctx)
		return &v, err
	})
	if err != nil || rows == nil {
		return nil, err
	}
	return *rows, nil
}

func (c *CachedCatalog) ActiveItems(ctx context.Context, vendorID uint) ([]models.MenuItem, error) {
	rows, err := cached(ctx, c, fmt.Sprintf(catalogPrefix+"vendor:%d:items", vendorID), func() (*[]models.MenuItem, error) {
		v, err := c.next.ActiveItems(ctx, vendorID)
		return &v, err
	})
	if err != nil || rows == nil {
		return nil, err
	}
	return *rows, nil
}

// Forget drops cached entries for a vendor and, optionally, some items.
func (c *CachedCatalog) Forget(ctx context.Context, vendorID uint, itemIDs ...uint) error {
	keys := []string{
		catalogPrefix + "vendors:active",
		fmt.Sprintf(catalogPrefix+"vendor:%d", vendorID),
		fmt.Sprintf(catalogPrefix+"vendor:%d:items", vendorID),
	}
	for _, id := range itemIDs {
		keys = append(keys, fmt.Sprintf(catalogPrefix+"item:%d", id))
	}
	return c.store.Del(ctx, keys...)
}

// Flush drops every cached catalog entry and reports how many went.
func (c *CachedCatalog) Flush(ctx context.Context) (int, error) {
	return c.store.DelPrefix(ctx, catalogPrefix)
}

// cached serves key from Redis or loads it. Misses (nil) are not stored.
func cached[T any](ctx context.Context, c *CachedCatalog, key string, load func() (*T, error)) (*T, error) {
	var hit T
	if c.store.Get(ctx, key, &hit) {
		return &hit, nil
	}
	v, err := load()
	if err != nil || v == nil {
		return v, err
	}
	if err := c.store.Set(ctx, key, v, c.ttl); err != nil {
		logger.WithCtx(ctx).Warn("catalog cache write failed", "key", key, "error", err)
	}
	return v, nil
}
