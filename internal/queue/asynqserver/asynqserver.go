package asynqserver

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/vibe-gaming/storefront-router/internal/cache"
	"github.com/vibe-gaming/storefront-router/internal/config"
	"github.com/vibe-gaming/storefront-router/internal/queue/processor"
	"github.com/vibe-gaming/storefront-router/internal/queue/task"
	"github.com/vibe-gaming/storefront-router/internal/worker"
)

func New(cfg *config.Config, workers *worker.Workers) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(workers)
	concurrency := cfg.Queue.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	srv := asynq.NewServer(
		RedisOptions(cfg.Cache),
		asynq.Config{
			Concurrency: concurrency,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler registers the periodic region warm task.
func NewScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg.Cache), &asynq.SchedulerOpts{
		Location: time.UTC,
		LogLevel: asynq.ErrorLevel,
	})

	t, err := task.NewWarmRegionsTask("schedule")
	if err != nil {
		return nil, err
	}

	if _, err := scheduler.Register(CronSpec(cfg.Queue.WarmInterval), t); err != nil {
		return nil, fmt.Errorf("register warm regions task failed: %w", err)
	}

	return scheduler, nil
}

// CronSpec turns an interval into an asynq @every spec. Sub-minute intervals are raised to a minute.
func CronSpec(interval time.Duration) string {
	if interval < time.Minute {
		interval = time.Minute
	}
	return "@every " + interval.String()
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
	}
	return opts
}

func getQueues(workers *worker.Workers) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.WarmRegionsTaskName, processor.NewWarmRegionsProcessor(workers))
	queues := map[string]int{
		task.WarmRegionsQueueName: 1,
	}
	return mux, queues
}
