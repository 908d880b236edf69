package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/types"
)

func newTestSQLiteStore(t *testing.T) *SQLiteTaskStore {
	t.Helper()
	s := NewSQLiteTaskStore()
	err := s.Initialize(map[string]string{
		dataFileKey: filepath.Join(t.TempDir(), "tasks.db"),
	})
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteIDsAndCounter(t *testing.T) {
	s := newTestSQLiteStore(t)

	first := mustCreate(t, s, models.NewTask("Boiler inspection", "2024-03-11", "09:00", 60))
	second := mustCreate(t, s, models.NewTask("Filter replacement", "2024-03-11", "11:00", 30))

	if first.ID != "TASK-001" || second.ID != "TASK-002" {
		t.Errorf("ids = %q, %q, want TASK-001, TASK-002", first.ID, second.ID)
	}

	if err := s.DeleteTask(second.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	third := mustCreate(t, s, models.NewTask("Third visit", "2024-03-12", "09:00", 60))
	if third.ID != "TASK-003" {
		t.Errorf("id after delete = %q, want TASK-003", third.ID)
	}
}

func TestSQLiteCounterSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	s := NewSQLiteTaskStore()
	if err := s.Initialize(map[string]string{dataFileKey: path}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	created := mustCreate(t, s, models.NewTask("Before reopen", "2024-03-11", "09:00", 60))
	if err := s.DeleteTask(created.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := NewSQLiteTaskStore()
	if err := reopened.Initialize(map[string]string{dataFileKey: path}); err != nil {
		t.Fatalf("re-Initialize failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	next := mustCreate(t, reopened, models.NewTask("After reopen", "2024-03-12", "09:00", 60))
	if next.ID != "TASK-002" {
		t.Errorf("id after reopen = %q, want TASK-002", next.ID)
	}
}

func TestSQLiteRoundTripPreservesFields(t *testing.T) {
	s := newTestSQLiteStore(t)

	task := models.NewTask("Cold room service", "2024-03-11", "14:30", 90)
	task.Client = "Harbor Seafood"
	task.TechnicianID = "tech-2"
	task.Priority = models.PriorityHigh
	task.Equipment = "Walk-in freezer"
	task.SerialNumber = "WF-2291"
	created := mustCreate(t, s, task)

	got, err := s.GetTask(created.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.Client != "Harbor Seafood" || got.Equipment != "Walk-in freezer" ||
		got.SerialNumber != "WF-2291" || got.Priority != models.PriorityHigh {
		t.Errorf("round trip lost fields: %+v", got)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed across round trip: %v vs %v", got.CreatedAt, created.CreatedAt)
	}
}

func TestSQLiteMoveTaskConflict(t *testing.T) {
	s := newTestSQLiteStore(t)

	occupied := models.NewTask("Morning install", "2024-03-11", "09:00", 60)
	occupied.TechnicianID = "tech-1"
	mustCreate(t, s, occupied)

	moving := models.NewTask("Follow-up visit", "2024-03-12", "09:30", 30)
	moving.TechnicianID = "tech-1"
	created := mustCreate(t, s, moving)

	_, err := s.MoveTask(created.ID, "2024-03-11")
	var conflict *types.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("MoveTask error = %v, want *types.ConflictError", err)
	}

	stored, getErr := s.GetTask(created.ID)
	if getErr != nil {
		t.Fatalf("GetTask failed: %v", getErr)
	}
	if stored.Date != "2024-03-12" {
		t.Errorf("date after rejected move = %q, want 2024-03-12", stored.Date)
	}
}

func TestSQLiteQueriesAndUpdate(t *testing.T) {
	s := newTestSQLiteStore(t)

	a := models.NewTask("Monday job", "2024-03-11", "09:00", 60)
	a.TechnicianID = "tech-1"
	mustCreate(t, s, a)

	b := models.NewTask("Tuesday job", "2024-03-12", "09:00", 60)
	b.TechnicianID = "tech-1"
	created := mustCreate(t, s, b)

	byTech, err := s.TechnicianTasks("tech-1", "2024-03-12")
	if err != nil {
		t.Fatalf("TechnicianTasks failed: %v", err)
	}
	if len(byTech) != 1 || byTech[0].ID != created.ID {
		t.Errorf("TechnicianTasks = %v, want only the Tuesday job", byTech)
	}

	updated, err := s.UpdateTask(created.ID, map[string]interface{}{"status": "completed", "progress": 100})
	if err != nil {
		t.Fatalf("UpdateTask failed: %v", err)
	}
	if updated.Status != models.StatusCompleted {
		t.Errorf("status = %q, want completed", updated.Status)
	}

	if _, err := s.UpdateTask("TASK-404", map[string]interface{}{"progress": 1}); err == nil {
		t.Error("UpdateTask on a missing id did not fail")
	}
}

func TestSQLiteBackupRestoresIntoFileStore(t *testing.T) {
	dir := t.TempDir()

	s := newTestSQLiteStore(t)
	mustCreate(t, s, models.NewTask("Portable task", "2024-03-11", "09:00", 60))

	backupPath := filepath.Join(dir, "backup.json")
	if err := s.Backup(backupPath); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}

	fileStore := NewFileTaskStore()
	if err := fileStore.Initialize(map[string]string{dataFileKey: filepath.Join(dir, "tasks.json")}); err != nil {
		t.Fatalf("file store Initialize failed: %v", err)
	}
	defer func() { _ = fileStore.Close() }()

	if err := fileStore.Restore(backupPath); err != nil {
		t.Fatalf("Restore into file store failed: %v", err)
	}
	got, err := fileStore.GetTask("TASK-001")
	if err != nil {
		t.Fatalf("GetTask after cross-backend restore failed: %v", err)
	}
	if got.Title != "Portable task" {
		t.Errorf("restored title = %q, want Portable task", got.Title)
	}

	// Restored counter carries over: the next create continues the sequence.
	next := mustCreate(t, fileStore, models.NewTask("Next in sequence", "2024-03-12", "09:00", 60))
	if next.ID != "TASK-002" {
		t.Errorf("id after restore = %q, want TASK-002", next.ID)
	}
}

func TestSQLiteCoerceStatusAfterRestore(t *testing.T) {
	dir := t.TempDir()

	// Restore does not validate, so a backup can carry a task the
	// validator would reject. Coercion must still work on it.
	now := time.Now().UTC()
	list := models.TaskList{
		Tasks: []models.Task{{
			ID: "TASK-001", Number: 1, Title: "Backup from the old system",
			Date: "2024-03-11", StartTime: "26:00", Duration: 45,
			Status: models.StatusInProgress, Priority: models.PriorityMedium,
			CreatedAt: now, UpdatedAt: now,
		}},
		LastTaskID: 1,
	}
	backupPath := filepath.Join(dir, "backup.json")
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marshaling backup: %v", err)
	}
	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		t.Fatalf("writing backup: %v", err)
	}

	s := newTestSQLiteStore(t)
	if err := s.Restore(backupPath); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if _, err := s.UpdateTask("TASK-001", map[string]interface{}{"status": "pending"}); err == nil {
		t.Error("UpdateTask accepted a task with an unschedulable start time")
	}

	coerced, err := s.CoerceStatus("TASK-001", models.StatusPending)
	if err != nil {
		t.Fatalf("CoerceStatus failed on an invalid task: %v", err)
	}
	if coerced.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", coerced.Status)
	}

	stored, err := s.GetTask("TASK-001")
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if stored.Status != models.StatusPending || stored.StartTime != "26:00" {
		t.Errorf("coercion result wrong: status=%q start=%q", stored.Status, stored.StartTime)
	}
}
