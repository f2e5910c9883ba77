package worker

import (
	"context"
	"fmt"

	"github.com/vibe-gaming/storefront-router/internal/service"
)

type regionWarmer struct {
	services *service.Services
}

func newRegionWarmer(services *service.Services) RegionWarmer {
	return &regionWarmer{
		services: services,
	}
}

// WarmRegions refetches the region list from the backend so the shared store
// and this replica's map are fresh before requests need them.
func (w *regionWarmer) WarmRegions(ctx context.Context) error {
	if err := w.services.Regions.Warm(ctx); err != nil {
		return fmt.Errorf("warm region cache failed: %w", err)
	}
	return nil
}
