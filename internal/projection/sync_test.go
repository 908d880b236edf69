package projection

import (
	"reflect"
	"testing"
	"time"

	"github.com/fieldwork/dispatch/models"
)

var now = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

// coercerFunc adapts a function to the StatusCoercer interface.
type coercerFunc func(id string, status models.TaskStatus) (models.Task, error)

func (f coercerFunc) CoerceStatus(id string, status models.TaskStatus) (models.Task, error) {
	return f(id, status)
}

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: "TASK-001", Title: "Late slot", Date: "2024-03-15", StartTime: "14:00", Duration: 60,
			Status: models.StatusPending, Priority: models.PriorityLow},
		{ID: "TASK-002", Title: "Early slot", Date: "2024-03-15", StartTime: "08:00", Duration: 30,
			Status: models.StatusInProgress, Priority: models.PriorityMedium},
		{ID: "TASK-003", Title: "Same clock, higher priority", Date: "2024-03-15", StartTime: "14:00", Duration: 45,
			Status: models.StatusPending, Priority: models.PriorityHigh},
	}
}

func TestSync_EventOrderAndSpan(t *testing.T) {
	s := NewSynchronizer()

	if _, err := s.Sync(sampleTasks(), nil, now, nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	events := s.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}

	wantOrder := []string{"TASK-002", "TASK-003", "TASK-001"}
	for i, id := range wantOrder {
		if events[i].ID != id {
			t.Errorf("event %d = %s, want %s", i, events[i].ID, id)
		}
	}

	first := events[0]
	if got := first.End.Sub(first.Start); got != 30*time.Minute {
		t.Errorf("event span = %v, want 30m", got)
	}
	wantStart := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	if !first.Start.Equal(wantStart) {
		t.Errorf("event start = %v, want %v", first.Start, wantStart)
	}
}

func TestSync_CoercesInvalidTasks(t *testing.T) {
	tasks := sampleTasks()
	tasks[1].StartTime = "26:00" // in_progress but unschedulable

	var updated []string
	coercer := coercerFunc(func(id string, status models.TaskStatus) (models.Task, error) {
		updated = append(updated, id)
		if status != models.StatusPending {
			t.Errorf("coercion must set status pending, got %v", status)
		}
		return models.Task{}, nil
	})

	s := NewSynchronizer()
	result, err := s.Sync(tasks, nil, now, coercer)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	if !reflect.DeepEqual(result.Coerced, []string{"TASK-002"}) {
		t.Errorf("coerced = %v, want [TASK-002]", result.Coerced)
	}
	if !reflect.DeepEqual(updated, []string{"TASK-002"}) {
		t.Errorf("repository updates = %v, want [TASK-002]", updated)
	}

	// The broken task is dropped from the calendar but still counted as
	// pending in the stats.
	if len(s.Events()) != 2 {
		t.Errorf("expected 2 events, got %d", len(s.Events()))
	}
	if got := s.Stats().PendingTasks; got != 3 {
		t.Errorf("pending after coercion = %d, want 3", got)
	}
}

func TestSync_PendingTasksNotReCoerced(t *testing.T) {
	tasks := []models.Task{
		{ID: "TASK-001", Title: "Already pending", Date: "", StartTime: "", Duration: 0,
			Status: models.StatusPending},
	}

	coercer := coercerFunc(func(id string, status models.TaskStatus) (models.Task, error) {
		t.Errorf("unexpected repository write for %s", id)
		return models.Task{}, nil
	})

	s := NewSynchronizer()
	result, err := s.Sync(tasks, nil, now, coercer)
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if len(result.Coerced) != 0 {
		t.Errorf("pending tasks must not be re-coerced, got %v", result.Coerced)
	}
}

func TestSync_Idempotent(t *testing.T) {
	s := NewSynchronizer()

	if _, err := s.Sync(sampleTasks(), nil, now, nil); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}
	firstEvents := s.Events()
	firstStats := s.Stats()

	if _, err := s.Sync(sampleTasks(), nil, now, nil); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	if !reflect.DeepEqual(firstEvents, s.Events()) {
		t.Error("events changed across syncs with identical input")
	}
	if !reflect.DeepEqual(firstStats, s.Stats()) {
		t.Error("stats changed across syncs with identical input")
	}
}

func TestSync_MarkerMonotonic(t *testing.T) {
	s := NewSynchronizer()

	if _, err := s.Sync(nil, nil, now, nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	first := s.LastSync()

	// Same instant again: the marker still has to advance.
	if _, err := s.Sync(nil, nil, now, nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	second := s.LastSync()

	if !second.After(first) {
		t.Errorf("marker did not advance: %v then %v", first, second)
	}
}

func TestSubscribe(t *testing.T) {
	s := NewSynchronizer()
	ch := s.Subscribe()

	if _, err := s.Sync(nil, nil, now, nil); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}

	select {
	case marker := <-ch:
		if !marker.Equal(s.LastSync()) {
			t.Errorf("notified marker %v != LastSync %v", marker, s.LastSync())
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified")
	}
}
