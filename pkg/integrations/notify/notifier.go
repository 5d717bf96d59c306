// Package notify turns notification actions into notification.requested
// events and delivers them on the consuming side.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/eventbus"
	"github.com/dukex/caseflow/pkg/events"
)

// Notifier publishes notification requests keyed by tenant.
type Notifier struct {
	bus eventbus.EventPublisher
}

func NewNotifier(bus eventbus.EventPublisher) *Notifier {
	return &Notifier{bus: bus}
}

func (n *Notifier) SendNotification(ctx context.Context, channel actions.Channel, tenantID string, config map[string]any) error {
	return n.publish(ctx, tenantID, events.NotificationChannel(channel), config)
}

func (n *Notifier) NotifyTeam(ctx context.Context, tenantID string, config map[string]any) error {
	return n.publish(ctx, tenantID, events.NotificationTeam, config)
}

func (n *Notifier) publish(ctx context.Context, tenantID string, channel events.NotificationChannel, config map[string]any) error {
	err := n.bus.Publish(ctx, tenantID, events.NewNotificationRequested(tenantID, channel, config))
	if err != nil {
		return fmt.Errorf("failed to request %s notification: %w", channel, err)
	}

	return nil
}

// Delivery consumes notification requests. Without a provider configured
// the request is written to the log.
type Delivery struct {
	logger *slog.Logger
}

func NewDelivery(logger *slog.Logger) *Delivery {
	return &Delivery{logger: logger.With("module", "notification_delivery")}
}

// Handle is an eventbus.EventHandler for notification.requested.
func (d *Delivery) Handle(ctx context.Context, event any) error {
	request, ok := event.(*events.NotificationRequested)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	recipient, ok := request.Config["to"]
	if !ok {
		recipient = request.Config["recipient"]
	}

	d.logger.InfoContext(ctx, "Notification requested",
		"notification_id", request.ID,
		"tenant_id", request.TenantID,
		"channel", request.Channel,
		"recipient", recipient,
		"subject", request.Config["subject"],
	)

	return nil
}
