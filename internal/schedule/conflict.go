// Package schedule holds the pure scheduling math: clock arithmetic,
// half-open interval overlap, and the time-ordering the calendar
// projection relies on. Nothing here mutates a task or touches storage.
package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/fieldwork/dispatch/models"
)

// MinuteOfDay converts an "HH:MM" clock value to minutes since midnight.
func MinuteOfDay(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid clock value %q", clock)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", clock, err)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid clock value %q: %w", clock, err)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("clock value %q out of range", clock)
	}
	return hours*60 + minutes, nil
}

// Overlaps reports whether two [start, start+duration) intervals, both in
// minutes since midnight, intersect. Half-open semantics: a task ending
// exactly when another starts is not an overlap.
func Overlaps(aStart, aDuration, bStart, bDuration int) bool {
	aEnd := aStart + aDuration
	bEnd := bStart + bDuration
	return (aStart >= bStart && aStart < bEnd) ||
		(aEnd > bStart && aEnd <= bEnd) ||
		(aStart <= bStart && aEnd >= bEnd)
}

// FindConflict checks a candidate task's time window against tasks already
// on the same technician's plate for the target date. The candidate itself
// is skipped, as are entries whose own time fields do not validate (they
// cannot anchor a slot). Returns the first blocking task.
func FindConflict(candidate models.Task, existing []models.Task) (models.Task, bool) {
	start, err := MinuteOfDay(candidate.StartTime)
	if err != nil || candidate.Duration <= 0 {
		return models.Task{}, false
	}

	for _, other := range existing {
		if other.ID == candidate.ID {
			continue
		}
		otherStart, err := MinuteOfDay(other.StartTime)
		if err != nil || other.Duration <= 0 {
			continue
		}
		if Overlaps(start, candidate.Duration, otherStart, other.Duration) {
			return other, true
		}
	}
	return models.Task{}, false
}

// SortByTime returns a new slice holding only the schedule-valid tasks,
// ordered by start time ascending; ties break on priority rank so high
// priority work surfaces first. Zero-padded HH:MM makes the lexicographic
// compare safe.
func SortByTime(tasks []models.Task) []models.Task {
	sorted := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ValidateSchedule() == nil {
			sorted = append(sorted, t)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].StartTime != sorted[j].StartTime {
			return sorted[i].StartTime < sorted[j].StartTime
		}
		return models.PriorityRank(sorted[i].Priority) < models.PriorityRank(sorted[j].Priority)
	})
	return sorted
}

// SortByDateTime orders tasks chronologically across days without
// dropping anything; listings must show broken entries too. ISO dates
// and zero-padded clocks compare lexicographically.
func SortByDateTime(tasks []models.Task) []models.Task {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Date != tasks[j].Date {
			return tasks[i].Date < tasks[j].Date
		}
		if tasks[i].StartTime != tasks[j].StartTime {
			return tasks[i].StartTime < tasks[j].StartTime
		}
		return tasks[i].Number < tasks[j].Number
	})
	return tasks
}
