package service

import (
	"context"
	"time"

	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/domain"
)

type Services struct {
	Regions Regions
}

type Deps struct {
	Config       *config.Config
	RegionSource RegionSource
	RegionStore  RegionStore
}

func NewServices(deps Deps) *Services {
	return &Services{
		Regions: newRegionService(deps.RegionSource, deps.RegionStore, deps.Config.Routing.RefreshInterval),
	}
}

// RegionSource is the commerce backend region listing.
type RegionSource interface {
	ListRegions(ctx context.Context) ([]domain.Region, error)
}

// RegionStore is a region list shared between replicas.
type RegionStore interface {
	Get(ctx context.Context) (domain.RegionList, bool, error)
	Set(ctx context.Context, list domain.RegionList, ttl time.Duration, tags ...string) error
	InvalidateTag(ctx context.Context, tag string) (int, error)
}

type Regions interface {
	Map(ctx context.Context, cacheID string) (domain.RegionMap, error)
	Snapshot() (domain.RegionMap, time.Time, bool)
	Invalidate()
	Revalidate(ctx context.Context, tag string) (int, error)
	Warm(ctx context.Context) error
}
