package stats

import (
	"reflect"
	"testing"
	"time"

	"github.com/fieldwork/dispatch/models"
)

// Friday 2024-03-15; the containing week runs Mon 2024-03-11 .. Sun 2024-03-17.
var now = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func task(id, date string, status models.TaskStatus, priority int, tech string) models.Task {
	return models.Task{
		ID: id, Title: "Task " + id, Date: date, StartTime: "09:00",
		Duration: 60, Status: status, Priority: priority, TechnicianID: tech,
	}
}

func TestCompute_Counters(t *testing.T) {
	tasks := []models.Task{
		task("TASK-001", "2024-03-15", models.StatusInProgress, models.PriorityHigh, "tech-1"),
		task("TASK-002", "2024-03-10", models.StatusInProgress, models.PriorityMedium, "tech-2"), // overrun from last week
		task("TASK-003", "2024-03-20", models.StatusInProgress, models.PriorityLow, ""),          // future, not active yet
		task("TASK-004", "2024-03-15", models.StatusCompleted, 9, "tech-1"),                      // legacy urgent scale
		task("TASK-005", "2024-03-12", models.StatusCompleted, models.PriorityLow, ""),
		task("TASK-006", "2024-03-16", models.StatusPending, models.PriorityMedium, ""),
	}
	members := []models.TeamMember{
		{ID: "tech-1", Name: "Ada", Status: models.MemberBusy},
		{ID: "tech-2", Name: "Grace", Status: models.MemberOffline},
		{ID: "tech-3", Name: "Edsger", Status: models.MemberAvailable},
	}

	snap := Compute(tasks, members, now)

	if snap.ActiveInterventions != 2 {
		t.Errorf("ActiveInterventions = %d, want 2 (today + overrun, not future)", snap.ActiveInterventions)
	}
	if snap.CompletedTasks != 2 || snap.PendingTasks != 1 {
		t.Errorf("completed/pending = %d/%d, want 2/1", snap.CompletedTasks, snap.PendingTasks)
	}
	if snap.UnassignedTasks != 3 {
		t.Errorf("UnassignedTasks = %d, want 3", snap.UnassignedTasks)
	}
	if snap.HighPriorityTasks != 1 {
		t.Errorf("HighPriorityTasks = %d, want 1 (canonical priority 1)", snap.HighPriorityTasks)
	}
	if snap.UrgentTasks != 1 {
		t.Errorf("UrgentTasks = %d, want 1 (legacy >7)", snap.UrgentTasks)
	}
	if snap.TodayTasks != 2 || snap.TodayCompletedTasks != 1 {
		t.Errorf("today/todayCompleted = %d/%d, want 2/1", snap.TodayTasks, snap.TodayCompletedTasks)
	}
	if snap.ActiveTechnicians != 2 {
		t.Errorf("ActiveTechnicians = %d, want 2 (offline excluded)", snap.ActiveTechnicians)
	}
	// tech-1 has work today; tech-2 and tech-3 do not.
	if snap.AvailableTechnicians != 2 {
		t.Errorf("AvailableTechnicians = %d, want 2", snap.AvailableTechnicians)
	}
	// Week window: TASK-001, 004, 005, 006 (10th and 20th fall outside).
	if snap.TotalWeeklyInterventions != 4 || snap.CompletedWeeklyInterventions != 2 {
		t.Errorf("weekly total/completed = %d/%d, want 4/2",
			snap.TotalWeeklyInterventions, snap.CompletedWeeklyInterventions)
	}
	if snap.WeeklyCompletionPercentage != "50.0" {
		t.Errorf("WeeklyCompletionPercentage = %q, want \"50.0\"", snap.WeeklyCompletionPercentage)
	}
	if snap.TotalTasks != 6 || snap.TotalMembers != 3 {
		t.Errorf("totals = %d/%d, want 6/3", snap.TotalTasks, snap.TotalMembers)
	}
}

func TestCompute_TechnicianNames(t *testing.T) {
	tasks := []models.Task{
		task("TASK-001", "2024-03-15", models.StatusCompleted, models.PriorityMedium, "tech-1"),
		task("TASK-002", "2024-03-14", models.StatusCompleted, models.PriorityMedium, ""),
	}
	members := []models.TeamMember{{ID: "tech-1", Name: "Ada", Status: models.MemberAvailable}}

	snap := Compute(tasks, members, now)

	if len(snap.CompletedWeeklyTasks) != 2 {
		t.Fatalf("expected 2 completed weekly tasks, got %d", len(snap.CompletedWeeklyTasks))
	}
	if snap.CompletedWeeklyTasks[0].TechnicianName != "Ada" {
		t.Errorf("technician name = %q, want Ada", snap.CompletedWeeklyTasks[0].TechnicianName)
	}
	if snap.CompletedWeeklyTasks[1].TechnicianName != UnassignedLabel {
		t.Errorf("fallback name = %q, want %q", snap.CompletedWeeklyTasks[1].TechnicianName, UnassignedLabel)
	}
}

func TestCompute_EmptyWeekPercentageIsZero(t *testing.T) {
	// 10 tasks, 4 completed, none in the current week.
	var tasks []models.Task
	for i := 0; i < 10; i++ {
		status := models.StatusPending
		if i < 4 {
			status = models.StatusCompleted
		}
		tasks = append(tasks, task("TASK-00"+string(rune('0'+i)), "2024-01-05", status, models.PriorityMedium, ""))
	}

	snap := Compute(tasks, nil, now)

	if snap.TotalWeeklyInterventions != 0 {
		t.Fatalf("expected empty week, got %d tasks", snap.TotalWeeklyInterventions)
	}
	if snap.WeeklyCompletionPercentage != "0.0" {
		t.Errorf("empty week percentage = %q, want \"0.0\"", snap.WeeklyCompletionPercentage)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	tasks := []models.Task{
		task("TASK-001", "2024-03-15", models.StatusInProgress, models.PriorityHigh, "tech-1"),
		task("TASK-002", "2024-03-13", models.StatusCompleted, models.PriorityLow, "tech-1"),
	}
	members := []models.TeamMember{{ID: "tech-1", Name: "Ada", Status: models.MemberAvailable}}

	first := Compute(tasks, members, now)
	second := Compute(tasks, members, now)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Compute is not deterministic:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		day  time.Time
		want string
	}{
		{time.Date(2024, 3, 15, 23, 0, 0, 0, time.UTC), "2024-03-11"}, // Friday
		{time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), "2024-03-11"},  // Monday itself
		{time.Date(2024, 3, 17, 12, 0, 0, 0, time.UTC), "2024-03-11"}, // Sunday belongs to the past week
	}
	for _, tc := range cases {
		if got := StartOfWeek(tc.day).Format(models.DateLayout); got != tc.want {
			t.Errorf("StartOfWeek(%v) = %s, want %s", tc.day, got, tc.want)
		}
	}
}

func TestWeekData(t *testing.T) {
	tasks := []models.Task{
		task("TASK-001", "2024-03-11", models.StatusCompleted, models.PriorityMedium, ""),
		task("TASK-002", "2024-03-15", models.StatusInProgress, models.PriorityMedium, ""),
		task("TASK-003", "2024-03-15", models.StatusPending, models.PriorityMedium, ""),
	}

	week := WeekData(tasks, now)

	if len(week) != 7 {
		t.Fatalf("expected 7 days, got %d", len(week))
	}
	if week[0].Date != "2024-03-11" || week[0].Completed != 1 {
		t.Errorf("Monday = %+v, want 1 completed on 2024-03-11", week[0])
	}
	friday := week[4]
	if !friday.IsToday || friday.Total != 2 || friday.InProgress != 1 || friday.Pending != 1 {
		t.Errorf("Friday = %+v, want today with 1 in progress and 1 pending", friday)
	}
}

func TestAlerts(t *testing.T) {
	quiet := Alerts(Snapshot{ActiveInterventions: 2})
	if len(quiet) != 1 || quiet[0].Kind != "info" {
		t.Errorf("quiet snapshot alerts = %+v, want only the info line", quiet)
	}

	loud := Alerts(Snapshot{UnassignedTasks: 3, UrgentTasks: 1, ActiveInterventions: 0})
	if len(loud) != 3 {
		t.Errorf("expected warning+urgent+info, got %+v", loud)
	}
}
