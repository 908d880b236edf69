package types

import "fmt"

// ConflictError reports a technician double-booking: moving the task to
// Date would overlap BlockingID's time slot. The move is aborted and the
// collection left untouched; the caller picks another slot or technician.
type ConflictError struct {
	TaskID       string `json:"taskId"`
	TechnicianID string `json:"technicianId"`
	Date         string `json:"date"`
	BlockingID   string `json:"blockingId"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("technician %s already has task %s scheduled on %s in this slot", e.TechnicianID, e.BlockingID, e.Date)
}

// NotFoundError reports an operation against an id the collection does
// not contain. Reported rather than silently ignored, so callers can tell
// a typo from a no-op.
type NotFoundError struct {
	ID string `json:"id"`
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

// ValidationError reports malformed date/time/duration fields. It is
// recoverable: the synchronizer coerces the task back to pending instead
// of dropping it.
type ValidationError struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("task %s failed validation: %s", e.TaskID, e.Reason)
}
