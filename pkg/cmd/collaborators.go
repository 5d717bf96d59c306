// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/caseflow/pkg/actions"
	"github.com/dukex/caseflow/pkg/eventbus"
	"github.com/dukex/caseflow/pkg/integrations/notify"
	"github.com/dukex/caseflow/pkg/integrations/redisqueue"
	"github.com/dukex/caseflow/pkg/integrations/webhook"
	"github.com/dukex/caseflow/pkg/persistence"
)

// NewCollaborators wires the action collaborators. queue may be nil, leaving
// reminders and AI analysis unavailable.
func NewCollaborators(
	logger *slog.Logger,
	store persistence.Persistence,
	bus eventbus.EventPublisher,
	queue *redisqueue.Queue,
) actions.Collaborators {
	records := store.Records()

	collaborators := actions.Collaborators{
		Notifier:  notify.NewNotifier(bus),
		Tasks:     records,
		Entities:  records,
		Assigner:  records,
		Documents: records,
		Webhooks:  webhook.NewSender(logger),
	}

	if queue != nil {
		collaborators.Reminders = queue
		collaborators.Jobs = queue
	}

	return collaborators
}
