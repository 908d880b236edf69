// Package projection keeps the two derived views, the calendar event
// list and the dashboard statistics snapshot, consistent with the
// authoritative task collection. The repository calls Sync after every
// mutation; consumers read the last published copies without blocking
// writers.
package projection

import (
	"sync"
	"time"

	"github.com/fieldwork/dispatch/internal/stats"
	"github.com/fieldwork/dispatch/models"
)

// StatusCoercer is the one slice of the repository the synchronizer
// needs: the ability to push a task back to pending when its time fields
// no longer validate. An unschedulable task cannot stay "in progress".
// This must not be a full merging update, which re-validates the whole
// struct and would reject the very task being healed.
type StatusCoercer interface {
	CoerceStatus(id string, status models.TaskStatus) (models.Task, error)
}

// Result reports what a sync pass did.
type Result struct {
	Coerced []string // ids forced back to pending
	Events  int
}

// Synchronizer owns the derived projections. All reads go through the
// mutex-guarded last-published copies, so a reader never observes a
// half-rebuilt projection.
type Synchronizer struct {
	mu       sync.RWMutex
	events   []Event
	snapshot stats.Snapshot
	lastSync time.Time
	subs     []chan time.Time
}

// NewSynchronizer returns a Synchronizer with empty projections.
func NewSynchronizer() *Synchronizer {
	return &Synchronizer{}
}

// Sync rebuilds both projections from the given collection. Tasks whose
// time fields fail validation are coerced to pending through the
// repository (and locally, so this pass's projections already see the
// corrected status). Running Sync twice without an intervening mutation
// yields identical projections.
func (s *Synchronizer) Sync(tasks []models.Task, members []models.TeamMember, now time.Time, coercer StatusCoercer) (Result, error) {
	var result Result

	for i, t := range tasks {
		if err := t.ValidateSchedule(); err == nil {
			continue
		}
		if t.Status == models.StatusPending {
			continue
		}
		if coercer != nil {
			if _, err := coercer.CoerceStatus(t.ID, models.StatusPending); err != nil {
				return result, err
			}
		}
		tasks[i].Status = models.StatusPending
		result.Coerced = append(result.Coerced, t.ID)
	}

	events := BuildEvents(tasks)
	snapshot := stats.Compute(tasks, members, now)
	result.Events = len(events)

	s.mu.Lock()
	s.events = events
	s.snapshot = snapshot
	if now.After(s.lastSync) {
		s.lastSync = now
	} else {
		// Clock went backwards or two syncs share an instant; the marker
		// still has to move forward for pollers to notice.
		s.lastSync = s.lastSync.Add(time.Nanosecond)
	}
	marker := s.lastSync
	subs := make([]chan time.Time, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- marker:
		default: // slow subscriber, skip; it will catch up on the next poll
		}
	}

	return result, nil
}

// Events returns a copy of the last published calendar projection.
func (s *Synchronizer) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Stats returns the last published statistics snapshot.
func (s *Synchronizer) Stats() stats.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// LastSync returns the monotonic last-update marker. Consumers poll it to
// know when to re-render from fresh projections.
func (s *Synchronizer) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}

// Subscribe registers a channel that receives the new marker after each
// sync. The channel is buffered; a subscriber that falls behind misses
// intermediate markers, not the fact that something changed.
func (s *Synchronizer) Subscribe() <-chan time.Time {
	ch := make(chan time.Time, 1)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}
