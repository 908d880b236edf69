package seed

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/store"
)

func TestPopulate(t *testing.T) {
	s := store.NewFileTaskStore()
	if err := s.Initialize(map[string]string{"dataFile": filepath.Join(t.TempDir(), "tasks.json")}); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer func() { _ = s.Close() }()

	now := time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC)
	created, err := Populate(s, now)
	if err != nil {
		t.Fatalf("Populate failed: %v", err)
	}
	if len(created) != len(demoTemplates) {
		t.Fatalf("created %d tasks, want %d", len(created), len(demoTemplates))
	}

	today := now.Format(models.DateLayout)
	todayTasks, err := s.TasksByDate(today)
	if err != nil {
		t.Fatalf("TasksByDate failed: %v", err)
	}
	if len(todayTasks) == 0 {
		t.Error("seed left today empty")
	}

	for _, task := range created {
		if err := task.ValidateSchedule(); err != nil {
			t.Errorf("seeded task %s has invalid schedule: %v", task.ID, err)
		}
		if task.SerialNumber == "" {
			t.Errorf("seeded task %s has no serial number", task.ID)
		}
		if task.Status == models.StatusCompleted && task.ReportNumber == "" {
			t.Errorf("completed task %s has no report number", task.ID)
		}
	}
}
