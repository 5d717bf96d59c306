package eventbus

import (
	"context"

	"github.com/dukex/caseflow/pkg/events"
	"github.com/dukex/caseflow/pkg/models"
)

// RunPublisher announces finished workflow runs on the bus, keyed by workflow id.
type RunPublisher struct {
	bus EventPublisher
}

func NewRunPublisher(bus EventPublisher) *RunPublisher {
	return &RunPublisher{bus: bus}
}

func (p *RunPublisher) PublishRunCompleted(ctx context.Context, run *models.RunResult) error {
	return p.bus.Publish(ctx, run.WorkflowID, events.NewWorkflowRunCompleted(run))
}

// PublishEvent forwards a domain event to the worker, keyed by tenant.
func PublishEvent(ctx context.Context, bus EventPublisher, event models.TriggeringEvent) error {
	return bus.Publish(ctx, event.TenantID, events.NewEventReceived(event))
}
