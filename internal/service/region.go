package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/vibe-gaming/storefront-router/internal/domain"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

const (
	refreshKey = "refresh"
	warmKey    = "warm"
)

type regionSnapshot struct {
	regions   domain.RegionMap
	updatedAt time.Time
}

type regionService struct {
	source   RegionSource
	store    RegionStore
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group
	snapshot atomic.Pointer[regionSnapshot]
}

// newRegionService builds the process region cache. store may be nil.
func newRegionService(source RegionSource, store RegionStore, ttl time.Duration) *regionService {
	return &regionService{
		source: source,
		store:  store,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Map returns the region map, refreshing it first when it is empty or older
// than the ttl. Concurrent callers share a single refresh. A failed refresh
// is returned as is, the caller decides how to degrade.
func (s *regionService) Map(ctx context.Context, cacheID string) (domain.RegionMap, error) {
	if snap, ok := s.fresh(); ok {
		return snap.regions, nil
	}

	v, err, _ := s.group.Do(refreshKey, func() (interface{}, error) {
		if snap, ok := s.fresh(); ok {
			return snap.regions, nil
		}
		return s.refresh(context.WithoutCancel(ctx), cacheID)
	})
	if err != nil {
		return domain.RegionMap{}, err
	}

	return v.(domain.RegionMap), nil
}

func (s *regionService) Snapshot() (domain.RegionMap, time.Time, bool) {
	snap := s.snapshot.Load()
	if snap == nil {
		return domain.RegionMap{}, time.Time{}, false
	}
	return snap.regions, snap.updatedAt, true
}

func (s *regionService) Invalidate() {
	s.snapshot.Store(nil)
}

// Revalidate drops the shared entries recorded under tag, then the local map.
func (s *regionService) Revalidate(ctx context.Context, tag string) (int, error) {
	var removed int
	if s.store != nil {
		n, err := s.store.InvalidateTag(ctx, tag)
		if err != nil {
			return 0, err
		}
		removed = n
	}
	s.Invalidate()
	return removed, nil
}

// Warm fetches straight from the backend, bypassing the shared store, and
// refreshes both the store and the local map.
func (s *regionService) Warm(ctx context.Context) error {
	_, err, _ := s.group.Do(warmKey, func() (interface{}, error) {
		regions, err := s.source.ListRegions(ctx)
		if err != nil {
			return nil, err
		}
		list := domain.RegionList{Regions: regions, FetchedAt: s.now()}
		s.share(ctx, list)
		return s.install(list), nil
	})
	return err
}

func (s *regionService) fresh() (*regionSnapshot, bool) {
	snap := s.snapshot.Load()
	if snap == nil || snap.regions.Len() == 0 {
		return nil, false
	}
	if !s.within(snap.updatedAt) {
		return nil, false
	}
	return snap, true
}

func (s *regionService) refresh(ctx context.Context, cacheID string) (domain.RegionMap, error) {
	if s.store != nil {
		list, ok, err := s.store.Get(ctx)
		if err != nil {
			logger.Warn("shared region store read failed", zap.Error(err))
		}
		if ok && s.within(list.FetchedAt) {
			return s.install(list), nil
		}
	}

	regions, err := s.source.ListRegions(ctx)
	if err != nil {
		return domain.RegionMap{}, err
	}

	list := domain.RegionList{Regions: regions, FetchedAt: s.now()}
	s.share(ctx, list, CacheTag(cacheID))

	return s.install(list), nil
}

// within reports whether data fetched at fetchedAt is still inside the refresh window.
func (s *regionService) within(fetchedAt time.Time) bool {
	return s.now().Sub(fetchedAt) <= s.ttl
}

func (s *regionService) share(ctx context.Context, list domain.RegionList, tags ...string) {
	if s.store == nil {
		return
	}
	if err := s.store.Set(ctx, list, s.ttl, append(tags, SharedTag)...); err != nil {
		logger.Warn("shared region store write failed", zap.Error(err))
	}
}

// install swaps in a map built from list. The snapshot keeps the time the
// list was fetched, which may be earlier than now when it came from the store.
func (s *regionService) install(list domain.RegionList) domain.RegionMap {
	m := domain.NewRegionMap(list.Regions)
	updatedAt := list.FetchedAt
	if now := s.now(); updatedAt.After(now) {
		updatedAt = now
	}
	s.snapshot.Store(&regionSnapshot{regions: m, updatedAt: updatedAt})
	logger.Debug("region map rebuilt", zap.Int("countries", m.Len()))
	return m
}
