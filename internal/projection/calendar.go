package projection

import (
	"time"

	"github.com/fieldwork/dispatch/internal/schedule"
	"github.com/fieldwork/dispatch/models"
)

// Event is one calendar entry derived from a task. It carries concrete
// start/end instants plus the display attributes the calendar view colors
// by. Events are rebuilt wholesale, never edited in place.
type Event struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Start        time.Time         `json:"start"`
	End          time.Time         `json:"end"`
	Status       models.TaskStatus `json:"status"`
	Priority     int               `json:"priority"`
	TechnicianID string            `json:"technicianId,omitempty"`
}

// BuildEvents projects the task collection onto the calendar: tasks with
// broken time fields are filtered out, the rest are time-sorted (start
// ascending, priority rank breaking ties) and mapped to events spanning
// [start, start+duration).
func BuildEvents(tasks []models.Task) []Event {
	sorted := schedule.SortByTime(tasks)
	events := make([]Event, 0, len(sorted))
	for _, t := range sorted {
		start, err := t.Start()
		if err != nil {
			continue
		}
		events = append(events, Event{
			ID:           t.ID,
			Title:        t.Title,
			Start:        start,
			End:          start.Add(time.Duration(t.Duration) * time.Minute),
			Status:       t.Status,
			Priority:     t.Priority,
			TechnicianID: t.TechnicianID,
		})
	}
	return events
}
