// Package seed populates an empty store with demo interventions so the
// dashboard has something to show on first run.
package seed

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/store"
)

type template struct {
	title      string
	client     string
	dayOffset  int
	startTime  string
	duration   int
	technician string
	status     models.TaskStatus
	priority   int
	progress   int
	equipment  string
	brand      string
}

var demoTemplates = []template{
	{"Walk-in freezer compressor service", "Harbor Seafood", 0, "08:30", 90, "tech-1", models.StatusInProgress, models.PriorityHigh, 45, "Walk-in freezer", "CoolTech"},
	{"Quarterly HVAC filter replacement", "Grandview Hotel", 0, "11:00", 60, "tech-1", models.StatusPending, models.PriorityMedium, 0, "Rooftop AHU", "Daikin"},
	{"Ice machine descaling", "Corner Bistro", 0, "14:00", 45, "tech-2", models.StatusPending, models.PriorityLow, 0, "Ice maker", "Hoshizaki"},
	{"Display case temperature fault", "Nordic Foods AB", 1, "09:00", 120, "tech-2", models.StatusPending, models.PriorityHigh, 0, "Display case", "Epta"},
	{"Cold room door gasket replacement", "City Hospital Kitchen", 1, "13:30", 60, "tech-3", models.StatusPending, models.PriorityMedium, 0, "Cold room", "Viessmann"},
	{"Annual safety valve inspection", "Brewhouse 12", 2, "10:00", 90, "", models.StatusPending, models.PriorityMedium, 0, "Glycol chiller", "Pro Chiller"},
	{"Condenser coil cleaning", "Grandview Hotel", -1, "09:00", 60, "tech-1", models.StatusCompleted, models.PriorityLow, 100, "Condensing unit", "Bitzer"},
	{"Refrigerant leak check", "Harbor Seafood", -2, "15:00", 120, "tech-3", models.StatusCompleted, models.PriorityHigh, 100, "Rack system", "Carrier"},
}

func serialNumber() string {
	return "SN-" + strings.ToUpper(uuid.NewString()[:8])
}

func reportNumber(day string) string {
	return "RPT-" + day + "-" + strings.ToUpper(uuid.NewString()[:6])
}

// Populate inserts the demo interventions, dated relative to now so the
// dashboard's today and this-week views are never empty. Returns the
// created tasks.
func Populate(s store.TaskStore, now time.Time) ([]models.Task, error) {
	created := make([]models.Task, 0, len(demoTemplates))
	for _, tmpl := range demoTemplates {
		day := now.AddDate(0, 0, tmpl.dayOffset).Format(models.DateLayout)

		task := models.NewTask(tmpl.title, day, tmpl.startTime, tmpl.duration)
		task.Client = tmpl.client
		task.TechnicianID = tmpl.technician
		task.Status = tmpl.status
		task.Priority = tmpl.priority
		task.Progress = tmpl.progress
		task.Equipment = tmpl.equipment
		task.Brand = tmpl.brand
		task.SerialNumber = serialNumber()
		if tmpl.status == models.StatusCompleted {
			task.ReportNumber = reportNumber(day)
		}

		saved, err := s.CreateTask(task)
		if err != nil {
			return created, fmt.Errorf("failed to seed task %q: %w", tmpl.title, err)
		}
		created = append(created, saved)
	}
	return created, nil
}
