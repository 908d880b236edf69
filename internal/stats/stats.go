// Package stats derives the dashboard counters from the authoritative
// task collection and the technician roster. Everything is recomputed
// from scratch on each call; at field-service volumes a full O(n) pass
// is cheaper than keeping incremental counters honest.
package stats

import (
	"fmt"
	"time"

	"github.com/fieldwork/dispatch/models"
)

// Snapshot is the fixed set of dashboard counters, computed relative to a
// single instant so repeated calls with the same input are identical.
type Snapshot struct {
	ActiveInterventions          int    `json:"activeInterventions"`
	CompletedTasks               int    `json:"completedTasks"`
	PendingTasks                 int    `json:"pendingTasks"`
	UnassignedTasks              int    `json:"unassignedTasks"`
	HighPriorityTasks            int    `json:"highPriorityTasks"`
	UrgentTasks                  int    `json:"urgentTasks"`
	TodayTasks                   int    `json:"todayTasks"`
	TodayCompletedTasks          int    `json:"todayCompletedTasks"`
	ActiveTechnicians            int    `json:"activeTechnicians"`
	AvailableTechnicians         int    `json:"availableTechnicians"`
	TotalTasks                   int    `json:"totalTasks"`
	TotalMembers                 int    `json:"totalMembers"`
	TotalWeeklyInterventions     int    `json:"totalWeeklyInterventions"`
	CompletedWeeklyInterventions int    `json:"completedWeeklyInterventions"`
	WeeklyCompletionPercentage   string `json:"weeklyCompletionPercentage"`

	CompletedWeeklyTasks []AssignedTask `json:"completedWeeklyTasks,omitempty"`
	CompletedTodayTasks  []AssignedTask `json:"completedTodayTasks,omitempty"`
}

// AssignedTask decorates a task with the resolved technician name for the
// dashboard summary tables.
type AssignedTask struct {
	models.Task
	TechnicianName string `json:"technicianName"`
}

// UnassignedLabel is what the summary tables show when no technician is set.
const UnassignedLabel = "unassigned"

// Compute builds a Snapshot from the full task collection and the roster,
// relative to now. Pure: no caching, no mutation, deterministic for a
// fixed input.
func Compute(tasks []models.Task, members []models.TeamMember, now time.Time) Snapshot {
	today := now.Format(models.DateLayout)
	weekStart := StartOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	snap := Snapshot{
		TotalTasks:   len(tasks),
		TotalMembers: len(members),
	}

	assignedToday := make(map[string]bool)
	var weeklyTotal, weeklyCompleted int

	for _, t := range tasks {
		switch t.Status {
		case models.StatusCompleted:
			snap.CompletedTasks++
		case models.StatusPending:
			snap.PendingTasks++
		}

		// Overrun work counts as active: in-progress tasks dated today or
		// earlier are still on somebody's plate.
		if t.Status == models.StatusInProgress && onOrBeforeToday(t.Date, today) {
			snap.ActiveInterventions++
		}

		if !t.Assigned() {
			snap.UnassignedTasks++
		}
		if t.Priority == models.PriorityHigh {
			snap.HighPriorityTasks++
		}
		if t.Priority > models.LegacyUrgentThreshold {
			snap.UrgentTasks++
		}

		if t.Date == today {
			snap.TodayTasks++
			if t.Assigned() {
				assignedToday[t.TechnicianID] = true
			}
			if t.Status == models.StatusCompleted {
				snap.TodayCompletedTasks++
				snap.CompletedTodayTasks = append(snap.CompletedTodayTasks, withName(t, names))
			}
		}

		if inWindow(t.Date, weekStart, weekEnd) {
			weeklyTotal++
			if t.Status == models.StatusCompleted {
				weeklyCompleted++
				snap.CompletedWeeklyTasks = append(snap.CompletedWeeklyTasks, withName(t, names))
			}
		}
	}

	for _, m := range members {
		if m.Active() {
			snap.ActiveTechnicians++
		}
		if !assignedToday[m.ID] {
			snap.AvailableTechnicians++
		}
	}

	snap.TotalWeeklyInterventions = weeklyTotal
	snap.CompletedWeeklyInterventions = weeklyCompleted
	snap.WeeklyCompletionPercentage = completionPercentage(weeklyCompleted, weeklyTotal)

	return snap
}

// completionPercentage formats completed/total as a one-decimal
// percentage. An empty week reports "0.0", never a NaN artifact.
func completionPercentage(completed, total int) string {
	if total == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", float64(completed)/float64(total)*100)
}

// StartOfWeek returns midnight Monday of the week containing now, keeping
// now's location. Monday start matches the dashboard's locale convention.
func StartOfWeek(now time.Time) time.Time {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// DaySummary is one column of the week chart.
type DaySummary struct {
	Name       string `json:"name"`
	Date       string `json:"date"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	InProgress int    `json:"inProgress"`
	Pending    int    `json:"pending"`
	IsToday    bool   `json:"isToday"`
}

// WeekData breaks the current week down day by day for the dashboard
// chart.
func WeekData(tasks []models.Task, now time.Time) []DaySummary {
	today := now.Format(models.DateLayout)
	weekStart := StartOfWeek(now)

	days := make([]DaySummary, 7)
	for i := range days {
		day := weekStart.AddDate(0, 0, i)
		date := day.Format(models.DateLayout)
		summary := DaySummary{
			Name:    day.Weekday().String()[:3],
			Date:    date,
			IsToday: date == today,
		}
		for _, t := range tasks {
			if t.Date != date {
				continue
			}
			summary.Total++
			switch t.Status {
			case models.StatusCompleted:
				summary.Completed++
			case models.StatusInProgress:
				summary.InProgress++
			case models.StatusPending:
				summary.Pending++
			}
		}
		days[i] = summary
	}
	return days
}

// Alert is a dashboard attention item derived from a snapshot.
type Alert struct {
	Kind    string `json:"kind"` // warning, urgent, info
	Message string `json:"message"`
}

// Alerts derives the attention list from a snapshot. Zero-count warning
// and urgent entries are suppressed; the activity line always shows.
func Alerts(s Snapshot) []Alert {
	var alerts []Alert
	if s.UnassignedTasks > 0 {
		alerts = append(alerts, Alert{Kind: "warning", Message: fmt.Sprintf("%d unassigned tasks", s.UnassignedTasks)})
	}
	if s.UrgentTasks > 0 {
		alerts = append(alerts, Alert{Kind: "urgent", Message: fmt.Sprintf("%d urgent interventions", s.UrgentTasks)})
	}
	alerts = append(alerts, Alert{Kind: "info", Message: fmt.Sprintf("%d interventions in progress", s.ActiveInterventions)})
	return alerts
}

// withName resolves the technician name for the summary tables, falling
// back to the raw id when the roster does not know it.
func withName(t models.Task, names map[string]string) AssignedTask {
	name := UnassignedLabel
	if t.Assigned() {
		if n, ok := names[t.TechnicianID]; ok {
			name = n
		} else {
			name = t.TechnicianID
		}
	}
	return AssignedTask{Task: t, TechnicianName: name}
}

// onOrBeforeToday reports whether date is today or any earlier calendar
// day. Unparseable dates are excluded; they never reach the active count.
func onOrBeforeToday(date, today string) bool {
	if date == today {
		return true
	}
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	t, err := time.Parse(models.DateLayout, today)
	if err != nil {
		return false
	}
	return d.Before(t)
}

// inWindow reports whether date falls in [start, end).
func inWindow(date string, start, end time.Time) bool {
	d, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return false
	}
	d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, start.Location())
	return !d.Before(start) && d.Before(end)
}
