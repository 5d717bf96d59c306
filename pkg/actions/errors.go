package actions

import (
	"errors"
	"fmt"

	"github.com/dukex/caseflow/pkg/models"
)

var (
	ErrCollaboratorMissing = errors.New("collaborator not configured")
	ErrInvalidConfig       = errors.New("invalid action configuration")
)

// ActionError is returned when the collaborator behind a step's action fails.
type ActionError struct {
	StepID string
	Action models.ActionKind
	Err    error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s of step %s failed: %v", e.Action, e.StepID, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func (e *ActionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsActionError reports whether err carries an *ActionError.
func IsActionError(err error) bool {
	var actionErr *ActionError

	return errors.As(err, &actionErr)
}
