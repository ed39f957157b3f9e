package railcache

import (
	"context"
	"time"

	"github.com/railcache/railcache/pkg/keys"
)

// Default TTLs for the trainset façade. List entries are deliberately
// short-lived: point invalidation cannot track every filter combination a
// trainset appears in, so list caches trade freshness for simplicity.
const (
	DefaultTrainsetDataTTL = 5 * time.Minute
	DefaultTrainsetListTTL = 1 * time.Minute
)

// TrainsetCache caches per-trainset records and filtered trainset listings.
// It owns the "trainset" key namespace.
type TrainsetCache struct {
	svc     *Service
	dataTTL time.Duration
	listTTL time.Duration
}

// TrainsetOption is a functional option for TrainsetCache configuration
type TrainsetOption func(*TrainsetCache)

// WithTrainsetDataTTL sets the default TTL for per-trainset records
func WithTrainsetDataTTL(d time.Duration) TrainsetOption {
	return func(c *TrainsetCache) {
		c.dataTTL = d
	}
}

// WithTrainsetListTTL sets the default TTL for filtered listings
func WithTrainsetListTTL(d time.Duration) TrainsetOption {
	return func(c *TrainsetCache) {
		c.listTTL = d
	}
}

// NewTrainsetCache creates the trainset façade over a cache service
func NewTrainsetCache(svc *Service, opts ...TrainsetOption) *TrainsetCache {
	c := &TrainsetCache{
		svc:     svc,
		dataTTL: DefaultTrainsetDataTTL,
		listTTL: DefaultTrainsetListTTL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetTrainsetData returns the cached record for a trainset
func (c *TrainsetCache) GetTrainsetData(ctx context.Context, id string) (*TrainsetData, bool) {
	var data TrainsetData
	if !c.svc.Get(ctx, keys.Trainset(id), &data) {
		return nil, false
	}
	return &data, true
}

// SetTrainsetData caches the record for a trainset. A zero TTL selects the
// façade default.
func (c *TrainsetCache) SetTrainsetData(ctx context.Context, id string, data *TrainsetData, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.dataTTL
	}
	c.svc.Set(ctx, keys.Trainset(id), data, ttl)
}

// GetTrainsetList returns the cached listing for a filter combination.
// Filters are canonicalized before key derivation, so equivalent filter
// maps hit the same entry and distinct filters never collide.
func (c *TrainsetCache) GetTrainsetList(ctx context.Context, filters map[string]string) (*TrainsetList, bool) {
	var list TrainsetList
	if !c.svc.Get(ctx, keys.TrainsetList(keys.FilterSignature(filters)), &list) {
		return nil, false
	}
	return &list, true
}

// SetTrainsetList caches a filtered listing. A zero TTL selects the façade
// default.
func (c *TrainsetCache) SetTrainsetList(ctx context.Context, filters map[string]string, list *TrainsetList, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.listTTL
	}
	c.svc.Set(ctx, keys.TrainsetList(keys.FilterSignature(filters)), list, ttl)
}

// InvalidateTrainset removes the per-trainset entry. External write paths
// must call this after any store mutation of the trainset. List entries are
// left untouched and age out on their own TTL; callers that change list
// membership rely on that coarse-invalidation contract.
func (c *TrainsetCache) InvalidateTrainset(ctx context.Context, id string) {
	c.svc.Delete(ctx, keys.Trainset(id))
}
