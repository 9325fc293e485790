package services

import (
	"fmt"
	"strings"

	"github.com/JohnEstano/Graduate-School-System-sub002/models"
)

// GuardViolationError is returned when a transition is attempted from a
// state the state machine does not allow it from. The request is left
// untouched.
type GuardViolationError struct {
	Action  string
	Current models.WorkflowState
}

func (e *GuardViolationError) Error() string {
	return fmt.Sprintf("cannot %s a request in state %q", e.Action, e.Current)
}

// ValidationError carries every missing or malformed field at once so the
// caller can show all gaps in a single round trip.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// ConflictError blocks a schedule commit; Conflicts holds the full detail
// for each detected double-booking.
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	if len(e.Conflicts) == 1 {
		return "scheduling conflict: " + e.Conflicts[0].Message
	}
	return fmt.Sprintf("%d scheduling conflicts detected", len(e.Conflicts))
}

// RoutingError means no eligible coordinator could be resolved for a
// program; the adviser approval that needed it is refused.
type RoutingError struct {
	Program string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("no active coordinator found for program %q", e.Program)
}
