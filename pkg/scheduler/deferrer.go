// Package scheduler stores delayed step dispatches and delivers them, and
// any due reminders, from a periodic poller.
package scheduler

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dukex/caseflow/pkg/integrations/redisqueue"
	"github.com/dukex/caseflow/pkg/workflow"
	redis "github.com/redis/go-redis/v9"
)

const DefaultDeferredKey = "caseflow:deferred_steps"

// RedisDeferrer keeps deferred steps in a Redis sorted set scored by due time.
type RedisDeferrer struct {
	set    *redisqueue.DueSet
	logger *slog.Logger
}

func NewRedisDeferrer(client redis.UniversalClient, logger *slog.Logger) *RedisDeferrer {
	return &RedisDeferrer{
		set:    redisqueue.NewDueSet(client, DefaultDeferredKey),
		logger: logger.With("module", "redis_deferrer"),
	}
}

func (d *RedisDeferrer) Defer(ctx context.Context, step workflow.DeferredStep) error {
	return d.set.Add(ctx, step, step.DueAt)
}

// Due claims up to limit deferred steps due at now.
func (d *RedisDeferrer) Due(ctx context.Context, now time.Time, limit int64) ([]workflow.DeferredStep, error) {
	members, err := d.set.Claim(ctx, now, limit)

	steps := make([]workflow.DeferredStep, 0, len(members))

	for _, member := range members {
		var step workflow.DeferredStep
		if decodeErr := json.Unmarshal(member, &step); decodeErr != nil || step.Step == nil {
			d.logger.ErrorContext(ctx, "Dropping undecodable deferred step", "error", decodeErr)

			continue
		}

		steps = append(steps, step)
	}

	return steps, err
}
