package models

import "slices"

// ActionKind identifies the side effect a step performs.
type ActionKind string

const (
	ActionSendEmail        ActionKind = "send_email"
	ActionSendSMS          ActionKind = "send_sms"
	ActionCreateTask       ActionKind = "create_task"
	ActionUpdateStatus     ActionKind = "update_status"
	ActionAssignUser       ActionKind = "assign_user"
	ActionCreateDocument   ActionKind = "create_document"
	ActionScheduleReminder ActionKind = "schedule_reminder"
	ActionNotifyTeam       ActionKind = "notify_team"
	ActionRunAIAnalysis    ActionKind = "run_ai_analysis"
	ActionWebhook          ActionKind = "webhook"
)

// ActionKinds lists every supported action.
var ActionKinds = []ActionKind{
	ActionSendEmail,
	ActionSendSMS,
	ActionCreateTask,
	ActionUpdateStatus,
	ActionAssignUser,
	ActionCreateDocument,
	ActionScheduleReminder,
	ActionNotifyTeam,
	ActionRunAIAnalysis,
	ActionWebhook,
}

func (k ActionKind) IsValid() bool {
	return slices.Contains(ActionKinds, k)
}
