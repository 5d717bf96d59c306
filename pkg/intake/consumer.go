// Package intake reads triggering events pushed by other systems onto a Redis
// list.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/caseflow/pkg/models"
	"github.com/go-playground/validator/v10"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultQueue = "caseflow:events"
	popTimeout   = time.Second
	errorBackoff = time.Second
)

var ErrQueueRequired = errors.New("intake queue name is required")

// Handler receives every valid event popped from the queue.
type Handler func(ctx context.Context, event models.TriggeringEvent) error

type Consumer struct {
	client   redis.UniversalClient
	queue    string
	handler  Handler
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewConsumer(client redis.UniversalClient, queue string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if queue == "" {
		return nil, ErrQueueRequired
	}

	return &Consumer{
		client:   client,
		queue:    queue,
		handler:  handler,
		validate: models.NewValidator(),
		logger:   logger.With("module", "redis_intake", "queue", queue),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}, nil
}

func (c *Consumer) Start(ctx context.Context) {
	c.logger.InfoContext(ctx, "Starting intake consumer")

	c.wg.Add(1)

	go c.consume(ctx)
}

func (c *Consumer) consume(ctx context.Context) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopCh:
			c.logger.InfoContext(ctx, "Intake consumer stopped")

			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping intake consumer")

			return
		default:
			if err := c.processMessage(ctx); err != nil {
				c.logger.ErrorContext(ctx, "Error processing intake message", "error", err)

				select {
				case <-time.After(errorBackoff):
				case <-c.stopCh:
				case <-ctx.Done():
				}
			}
		}
	}
}

func (c *Consumer) processMessage(ctx context.Context) error {
	result, err := c.client.BLPop(ctx, popTimeout, c.queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil
		}

		return fmt.Errorf("failed to pop message from queue: %w", err)
	}

	if len(result) < 2 {
		return nil
	}

	event, err := c.decode([]byte(result[1]))
	if err != nil {
		c.logger.WarnContext(ctx, "Dropping invalid intake message", "error", err, "message", result[1])

		return nil
	}

	if err := c.handler(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle intake event",
			"tenant_id", event.TenantID, "event_kind", event.Kind, "error", err)
	}

	return nil
}

func (c *Consumer) decode(message []byte) (models.TriggeringEvent, error) {
	var event models.TriggeringEvent
	if err := json.Unmarshal(message, &event); err != nil {
		return event, fmt.Errorf("invalid json: %w", err)
	}

	if err := c.validate.Struct(event); err != nil {
		return event, err
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = c.now().UTC()
	}

	return event, nil
}

func (c *Consumer) Stop(ctx context.Context) {
	c.stopOnce.Do(func() {
		c.logger.InfoContext(ctx, "Stopping intake consumer")

		close(c.stopCh)
	})

	c.wg.Wait()
}
