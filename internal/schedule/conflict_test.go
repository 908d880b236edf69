package schedule

import (
	"testing"

	"github.com/fieldwork/dispatch/models"
)

func TestMinuteOfDay(t *testing.T) {
	cases := []struct {
		clock   string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:30", 570, false},
		{"23:59", 1439, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"930", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := MinuteOfDay(tc.clock)
		if tc.wantErr {
			if err == nil {
				t.Errorf("MinuteOfDay(%q): expected error", tc.clock)
			}
			continue
		}
		if err != nil {
			t.Errorf("MinuteOfDay(%q): unexpected error %v", tc.clock, err)
			continue
		}
		if got != tc.want {
			t.Errorf("MinuteOfDay(%q) = %d, want %d", tc.clock, got, tc.want)
		}
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name                       string
		aStart, aDur, bStart, bDur int
		want                       bool
	}{
		{"identical", 540, 60, 540, 60, true},
		{"candidate starts inside", 570, 30, 540, 60, true},
		{"candidate ends inside", 510, 60, 540, 60, true},
		{"candidate contains existing", 500, 120, 540, 30, true},
		{"existing contains candidate", 550, 10, 540, 60, true},
		{"touching: a ends when b starts", 480, 60, 540, 60, false},
		{"touching: b ends when a starts", 540, 60, 480, 60, false},
		{"disjoint", 480, 30, 600, 30, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Overlaps(tc.aStart, tc.aDur, tc.bStart, tc.bDur); got != tc.want {
				t.Errorf("Overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is commutative.
			if got := Overlaps(tc.bStart, tc.bDur, tc.aStart, tc.aDur); got != tc.want {
				t.Errorf("Overlaps (swapped) = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFindConflict(t *testing.T) {
	existing := []models.Task{
		{ID: "TASK-001", Date: "2024-03-15", StartTime: "09:00", Duration: 60, TechnicianID: "tech-1"},
	}

	// 09:30 for 30 minutes lands inside 09:00-10:00.
	candidate := models.Task{ID: "TASK-002", StartTime: "09:30", Duration: 30}
	if blocking, ok := FindConflict(candidate, existing); !ok {
		t.Error("expected conflict for 09:30/30min against 09:00/60min")
	} else if blocking.ID != "TASK-001" {
		t.Errorf("blocking task = %s, want TASK-001", blocking.ID)
	}

	// 10:00 starts exactly when the existing task ends: no conflict.
	candidate = models.Task{ID: "TASK-003", StartTime: "10:00", Duration: 30}
	if _, ok := FindConflict(candidate, existing); ok {
		t.Error("tasks touching at 10:00 must not conflict")
	}

	// The task compared against itself never conflicts.
	self := existing[0]
	if _, ok := FindConflict(self, existing); ok {
		t.Error("a task must not conflict with itself")
	}

	// Entries with broken time fields cannot anchor a slot.
	broken := []models.Task{{ID: "TASK-004", StartTime: "zz:zz", Duration: 60}}
	if _, ok := FindConflict(candidate, broken); ok {
		t.Error("unparseable existing entries must be skipped")
	}
}

func TestSortByTime(t *testing.T) {
	tasks := []models.Task{
		{ID: "c", Date: "2024-03-15", StartTime: "10:00", Duration: 30, Priority: models.PriorityLow},
		{ID: "a", Date: "2024-03-15", StartTime: "08:00", Duration: 30, Priority: models.PriorityMedium},
		{ID: "broken", Date: "2024-03-15", StartTime: "", Duration: 30},
		{ID: "b2", Date: "2024-03-15", StartTime: "09:00", Duration: 30, Priority: models.PriorityMedium},
		{ID: "b1", Date: "2024-03-15", StartTime: "09:00", Duration: 30, Priority: models.PriorityHigh},
	}

	sorted := SortByTime(tasks)

	wantOrder := []string{"a", "b1", "b2", "c"}
	if len(sorted) != len(wantOrder) {
		t.Fatalf("expected %d tasks after filtering, got %d", len(wantOrder), len(sorted))
	}
	for i, id := range wantOrder {
		if sorted[i].ID != id {
			t.Errorf("position %d: got %s, want %s", i, sorted[i].ID, id)
		}
	}

	// Input order untouched.
	if tasks[0].ID != "c" {
		t.Error("SortByTime must not reorder its input")
	}
}
