package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibe-gaming/storefront-router/internal/queue/task"
	"github.com/vibe-gaming/storefront-router/internal/worker"
	"github.com/vibe-gaming/storefront-router/pkg/logger"
)

type warmRegionsProcessor struct {
	workers *worker.Workers
}

func NewWarmRegionsProcessor(workers *worker.Workers) *warmRegionsProcessor {
	return &warmRegionsProcessor{
		workers: workers,
	}
}

func (p *warmRegionsProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.WarmRegions
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &data); err != nil {
			return fmt.Errorf("process warm regions task json unmarshal failed: %w", err)
		}
	}

	if err := p.workers.RegionWarmer.WarmRegions(ctx); err != nil {
		return fmt.Errorf("warm regions failed: %w", err)
	}

	logger.Debug("regions warmed", zap.String("reason", data.Reason))

	return nil
}
