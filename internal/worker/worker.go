package worker

import (
	"context"

	"github.com/vibe-gaming/storefront-router/internal/service"
)

type Workers struct {
	RegionWarmer RegionWarmer
}

type Deps struct {
	Services *service.Services
}

type RegionWarmer interface {
	WarmRegions(ctx context.Context) error
}

func NewWorkers(deps Deps) *Workers {
	return &Workers{
		RegionWarmer: newRegionWarmer(deps.Services),
	}
}
