// Package scheduler is the application core behind the CLI and the
// board: a task repository paired with a technician roster, keeping the
// calendar and statistics projections synchronized after every mutation.
package scheduler

import (
	"fmt"
	"time"

	"github.com/fieldwork/dispatch/internal/projection"
	"github.com/fieldwork/dispatch/internal/schedule"
	"github.com/fieldwork/dispatch/internal/seed"
	"github.com/fieldwork/dispatch/internal/stats"
	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/store"
)

// Scheduler coordinates the authoritative store with its derived
// projections. Every mutating call runs a full resync before returning,
// so Events and Stats are never stale relative to a completed mutation.
type Scheduler struct {
	store   store.TaskStore
	members []models.TeamMember
	sync    *projection.Synchronizer
	clock   func() time.Time
}

// New wires a scheduler over an initialized store and roster.
func New(s store.TaskStore, members []models.TeamMember) *Scheduler {
	return &Scheduler{
		store:   s,
		members: members,
		sync:    projection.NewSynchronizer(),
		clock:   time.Now,
	}
}

// Bootstrap prepares the scheduler for use: when seedIfEmpty is set and
// the store holds no tasks, the demo data set is loaded first. Always
// ends with a resync so projections reflect whatever is on disk.
func (sch *Scheduler) Bootstrap(seedIfEmpty bool) error {
	tasks, err := sch.store.ListTasks(nil, nil)
	if err != nil {
		return fmt.Errorf("failed to read tasks during bootstrap: %w", err)
	}
	if seedIfEmpty && len(tasks) == 0 {
		if _, err := seed.Populate(sch.store, sch.clock()); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}
	_, err = sch.Resync()
	return err
}

// Resync rebuilds both projections from the current store contents.
func (sch *Scheduler) Resync() (projection.Result, error) {
	tasks, err := sch.store.ListTasks(nil, nil)
	if err != nil {
		return projection.Result{}, fmt.Errorf("failed to read tasks for resync: %w", err)
	}
	return sch.sync.Sync(tasks, sch.members, sch.clock(), sch.store)
}

// Create adds a task and resyncs.
func (sch *Scheduler) Create(task models.Task) (models.Task, error) {
	created, err := sch.store.CreateTask(task)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := sch.Resync(); err != nil {
		return created, err
	}
	return created, nil
}

// Get retrieves a task by id. Read-only, no resync.
func (sch *Scheduler) Get(id string) (models.Task, error) {
	return sch.store.GetTask(id)
}

// Update merges field updates into a task and resyncs.
func (sch *Scheduler) Update(id string, updates map[string]interface{}) (models.Task, error) {
	updated, err := sch.store.UpdateTask(id, updates)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := sch.Resync(); err != nil {
		return updated, err
	}
	return updated, nil
}

// Delete removes a task and resyncs.
func (sch *Scheduler) Delete(id string) error {
	if err := sch.store.DeleteTask(id); err != nil {
		return err
	}
	_, err := sch.Resync()
	return err
}

// Move reschedules a task to a new date, surfacing *types.ConflictError
// when the technician is already booked, then resyncs.
func (sch *Scheduler) Move(id, newDate string) (models.Task, error) {
	moved, err := sch.store.MoveTask(id, newDate)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := sch.Resync(); err != nil {
		return moved, err
	}
	return moved, nil
}

// Done marks a task completed and resyncs.
func (sch *Scheduler) Done(id string) (models.Task, error) {
	done, err := sch.store.MarkTaskDone(id)
	if err != nil {
		return models.Task{}, err
	}
	if _, err := sch.Resync(); err != nil {
		return done, err
	}
	return done, nil
}

// List retrieves tasks from the store, filtered and sorted.
func (sch *Scheduler) List(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error) {
	return sch.store.ListTasks(filterFn, sortFn)
}

// DaySchedule returns one date's tasks in calendar order.
func (sch *Scheduler) DaySchedule(date string) ([]models.Task, error) {
	tasks, err := sch.store.TasksByDate(date)
	if err != nil {
		return nil, err
	}
	return schedule.SortByTime(tasks), nil
}

// Events returns the last published calendar projection.
func (sch *Scheduler) Events() []projection.Event {
	return sch.sync.Events()
}

// Stats returns the last published statistics snapshot.
func (sch *Scheduler) Stats() stats.Snapshot {
	return sch.sync.Stats()
}

// Week returns per-day summaries for the current week.
func (sch *Scheduler) Week() ([]stats.DaySummary, error) {
	tasks, err := sch.store.ListTasks(nil, nil)
	if err != nil {
		return nil, err
	}
	return stats.WeekData(tasks, sch.clock()), nil
}

// Members returns the technician roster.
func (sch *Scheduler) Members() []models.TeamMember {
	return sch.members
}

// LastSync returns the monotonic change marker of the projections.
func (sch *Scheduler) LastSync() time.Time {
	return sch.sync.LastSync()
}

// Subscribe returns a channel notified after each resync.
func (sch *Scheduler) Subscribe() <-chan time.Time {
	return sch.sync.Subscribe()
}

// Close releases the underlying store.
func (sch *Scheduler) Close() error {
	return sch.store.Close()
}
