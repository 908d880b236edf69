package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// TaskStatus represents the lifecycle state of an intervention.
// Transitions are unconstrained: field reality (a cancelled
// visit, a reopened report) does not follow a forward-only state machine.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// Canonical priority scale: 1 is high, 2 is medium, 3 and above is low.
// This is the scale the calendar sort and the board colors use.
const (
	PriorityHigh   = 1
	PriorityMedium = 2
	PriorityLow    = 3
)

// LegacyUrgentThreshold exists for data imported from the old dashboard,
// which ran a 1-10 scale where anything above 7 counted as urgent. The
// two scales are contradictory; stats reports them as separate counters
// instead of guessing a unification.
const LegacyUrgentThreshold = 7

// Wire formats for the scheduling fields.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// Task is a schedulable unit of field work. The store owns identity
// (ID, Number) and the audit timestamps; everything else comes from the
// caller.
type Task struct {
	ID           string     `json:"id" yaml:"id" toml:"id" validate:"required"`
	Number       int        `json:"number" yaml:"number" toml:"number"`
	Title        string     `json:"title" yaml:"title" toml:"title" validate:"required,min=3,max=255"`
	Client       string     `json:"client,omitempty" yaml:"client,omitempty" toml:"client,omitempty"`
	Date         string     `json:"date" yaml:"date" toml:"date" validate:"required,datetime=2006-01-02"`
	StartTime    string     `json:"startTime" yaml:"startTime" toml:"startTime" validate:"required,datetime=15:04"`
	Duration     int        `json:"duration" yaml:"duration" toml:"duration" validate:"required,gt=0"`
	TechnicianID string     `json:"technicianId,omitempty" yaml:"technicianId,omitempty" toml:"technicianId,omitempty"`
	Status       TaskStatus `json:"status" yaml:"status" toml:"status" validate:"required,oneof=pending in_progress completed"`
	Priority     int        `json:"priority" yaml:"priority" toml:"priority" validate:"gte=1"`
	Progress     int        `json:"progress,omitempty" yaml:"progress,omitempty" toml:"progress,omitempty" validate:"gte=0,lte=100"`
	Description  string     `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
	Equipment    string     `json:"equipment,omitempty" yaml:"equipment,omitempty" toml:"equipment,omitempty"`
	Brand        string     `json:"brand,omitempty" yaml:"brand,omitempty" toml:"brand,omitempty"`
	Model        string     `json:"model,omitempty" yaml:"model,omitempty" toml:"model,omitempty"`
	SerialNumber string     `json:"serialNumber,omitempty" yaml:"serialNumber,omitempty" toml:"serialNumber,omitempty"`
	ReportNumber string     `json:"reportNumber,omitempty" yaml:"reportNumber,omitempty" toml:"reportNumber,omitempty"`
	CreatedAt    time.Time  `json:"createdAt" yaml:"createdAt" toml:"createdAt" validate:"required"`
	UpdatedAt    time.Time  `json:"updatedAt" yaml:"updatedAt" toml:"updatedAt" validate:"required"`
}

// Assigned reports whether the task is assigned to a technician.
func (t Task) Assigned() bool {
	return t.TechnicianID != ""
}

// ValidateSchedule checks the three time fields the calendar relies on:
// the date must parse, the start time must be a legal 24h clock value,
// and the duration must be positive. It never mutates; callers decide
// whether a violation means rejecting the task or coercing its status.
func (t Task) ValidateSchedule() error {
	if t.Date == "" || t.StartTime == "" {
		return fmt.Errorf("task %s: missing date or start time", t.ID)
	}
	if _, err := time.Parse(DateLayout, t.Date); err != nil {
		return fmt.Errorf("task %s: invalid date %q: %w", t.ID, t.Date, err)
	}
	if _, err := time.Parse(ClockLayout, t.StartTime); err != nil {
		return fmt.Errorf("task %s: invalid start time %q: %w", t.ID, t.StartTime, err)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("task %s: duration must be positive, got %d", t.ID, t.Duration)
	}
	return nil
}

// Start returns the task's starting instant, combining Date and StartTime.
func (t Task) Start() (time.Time, error) {
	return time.Parse(DateLayout+"T"+ClockLayout, t.Date+"T"+t.StartTime)
}

// End returns the task's ending instant (Start plus Duration minutes).
func (t Task) End() (time.Time, error) {
	start, err := t.Start()
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(t.Duration) * time.Minute), nil
}

// PriorityRank maps a numeric priority onto the three-bucket sort order
// used by the calendar projection: high before medium before low.
func PriorityRank(priority int) int {
	switch priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}

// TaskList is the persisted shape of the authoritative collection. The id
// counter travels with the tasks so a reload resumes numbering above every
// id ever issued, including deleted ones.
type TaskList struct {
	Tasks      []Task    `json:"tasks" yaml:"tasks" toml:"tasks" validate:"dive"`
	LastTaskID int       `json:"lastTaskId" yaml:"lastTaskId" toml:"lastTaskId"`
	LastUpdate time.Time `json:"lastUpdate" yaml:"lastUpdate" toml:"lastUpdate"`
}

// global validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateStruct performs validation on any struct that carries validation tags.
func ValidateStruct(s interface{}) error {
	if validate == nil {
		validate = validator.New()
	}
	err := validate.Struct(s)
	if err != nil {
		validationErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, fmt.Sprintf("field '%s' failed rule '%s' (value: '%v')", e.StructNamespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%s", strings.Join(messages, "; "))
	}
	return nil
}

// NewTask builds a task with defaults for the fields the store
// does not own. The store still assigns ID, Number, and timestamps.
func NewTask(title, date, startTime string, duration int) Task {
	return Task{
		Title:     title,
		Date:      date,
		StartTime: startTime,
		Duration:  duration,
		Status:    StatusPending,
		Priority:  PriorityMedium,
	}
}
