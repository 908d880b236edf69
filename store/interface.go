package store

import (
	"time"

	"github.com/fieldwork/dispatch/models"
)

// TaskStore is the contract for the authoritative task collection. It
// owns identity (ids are assigned from a monotonic counter that survives
// restarts and is never reused, even after deletes) and the audit
// timestamps. Mutations are atomic with respect to reads: no caller ever
// observes a collection mid-mutation.
type TaskStore interface {
	// Initialize configures the store (file path, data format, or other
	// backend-specific settings) and loads any persisted state. It must be
	// called before any other operation.
	Initialize(config map[string]string) error

	// CreateTask assigns the next sequential id (formatted TASK-NNN),
	// stamps CreatedAt/UpdatedAt, validates, and appends the task.
	CreateTask(task models.Task) (models.Task, error)

	// GetTask retrieves a task by id. Returns *types.NotFoundError when
	// the id is unknown.
	GetTask(id string) (models.Task, error)

	// UpdateTask merges the given field updates into the task and
	// refreshes UpdatedAt. The updates map uses the JSON field names.
	UpdateTask(id string, updates map[string]interface{}) (models.Task, error)

	// CoerceStatus forces the task's status without re-validating its
	// other fields. This is the recovery path for tasks whose time
	// fields no longer validate (restored backups, externally written
	// data files): a full UpdateTask would re-reject exactly the fields
	// that triggered the coercion.
	CoerceStatus(id string, status models.TaskStatus) (models.Task, error)

	// DeleteTask removes the task with the given id.
	DeleteTask(id string) error

	// DeleteAllTasks wipes the collection. The id counter is kept, so ids
	// are still never reused.
	DeleteAllTasks() error

	// MoveTask reassigns the task's date. When the task is assigned to a
	// technician, the move is first checked against that technician's
	// other tasks on the target date; an overlap fails the whole
	// operation with *types.ConflictError and leaves the collection
	// unchanged.
	MoveTask(id string, newDate string) (models.Task, error)

	// MarkTaskDone sets the task to completed with full progress.
	MarkTaskDone(id string) (models.Task, error)

	// ListTasks retrieves tasks, optionally filtered and sorted.
	ListTasks(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error)

	// TasksByDate returns the tasks scheduled on an exact date.
	TasksByDate(date string) ([]models.Task, error)

	// TasksByDateRange returns the tasks whose date falls within
	// [start, end], inclusive on both ends.
	TasksByDateRange(start, end time.Time) ([]models.Task, error)

	// TechnicianTasks returns a technician's tasks for one date.
	TechnicianTasks(technicianID, date string) ([]models.Task, error)

	// LastUpdate returns when the collection last changed. Persisted, so
	// it survives restarts.
	LastUpdate() (time.Time, error)

	// Backup copies the current data to the destination path.
	Backup(destinationPath string) error

	// Restore replaces the current data with the backup at sourcePath.
	Restore(sourcePath string) error

	// Close releases file locks or database handles.
	Close() error
}
