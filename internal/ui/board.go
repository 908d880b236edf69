package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/fieldwork/dispatch/internal/scheduler"
	"github.com/fieldwork/dispatch/internal/stats"
	"github.com/fieldwork/dispatch/models"
)

// Layout constants
const (
	DefaultBoardWidth  = 100
	DefaultBoardHeight = 24
	boardChromeHeight  = 8 // header + stats row + footer
)

// MsgStoreChanged arrives when the projections were rebuilt behind the
// board (another process wrote the store, or the watcher fired).
type MsgStoreChanged struct {
	Marker time.Time
}

// BoardModel is the interactive day board: one day's schedule in a
// viewport, arrow keys to move between days, live stats in the footer.
type BoardModel struct {
	Sched *scheduler.Scheduler
	Day   time.Time
	Err   error

	Viewport viewport.Model
	Width    int
	Height   int
	ready    bool

	tasks    []models.Task
	snapshot stats.Snapshot
	names    map[string]string
	updates  <-chan time.Time
}

// NewBoardModel builds a board anchored on today.
func NewBoardModel(sched *scheduler.Scheduler) BoardModel {
	names := make(map[string]string)
	for _, m := range sched.Members() {
		names[m.ID] = m.Name
	}
	return BoardModel{
		Sched:   sched,
		Day:     time.Now(),
		Width:   DefaultBoardWidth,
		Height:  DefaultBoardHeight,
		names:   names,
		updates: sched.Subscribe(),
	}
}

func (m BoardModel) waitForChange() tea.Cmd {
	return func() tea.Msg {
		marker, ok := <-m.updates
		if !ok {
			return nil
		}
		return MsgStoreChanged{Marker: marker}
	}
}

func (m BoardModel) Init() tea.Cmd {
	return m.waitForChange()
}

func (m BoardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.Day = m.Day.AddDate(0, 0, -1)
			m.reload()
		case "right", "l":
			m.Day = m.Day.AddDate(0, 0, 1)
			m.reload()
		case "t":
			m.Day = time.Now()
			m.reload()
		case "r":
			if _, err := m.Sched.Resync(); err != nil {
				m.Err = err
			}
			m.reload()
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		vpHeight := msg.Height - boardChromeHeight
		if vpHeight < 3 {
			vpHeight = 3
		}
		if !m.ready {
			m.Viewport = viewport.New(msg.Width, vpHeight)
			m.ready = true
			m.reload()
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = vpHeight
		}

	case MsgStoreChanged:
		m.reload()
		return m, m.waitForChange()
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m *BoardModel) reload() {
	date := m.Day.Format(models.DateLayout)
	tasks, err := m.Sched.DaySchedule(date)
	if err != nil {
		m.Err = err
		return
	}
	m.Err = nil
	m.tasks = tasks
	m.snapshot = m.Sched.Stats()
	if m.ready {
		m.Viewport.SetContent(m.renderDay())
	}
}

func (m BoardModel) renderDay() string {
	if len(m.tasks) == 0 {
		return StyleSubtle.Render("No interventions scheduled.")
	}
	var sb strings.Builder
	for _, t := range m.tasks {
		line := fmt.Sprintf("%s  %s  %s", TimeSpan(t), t.ID, t.Title)
		if t.Client != "" {
			line += StyleSubtle.Render("  · " + t.Client)
		}
		if t.Assigned() {
			name := t.TechnicianID
			if n, ok := m.names[t.TechnicianID]; ok {
				name = n
			}
			line += StyleSubtle.Render("  @ " + name)
		}
		sb.WriteString(StatusStyle(t.Status).Render("●") + " " + line)
		sb.WriteString("  " + PriorityLabel(t.Priority) + "\n")
	}
	return sb.String()
}

func (m BoardModel) statsLine() string {
	s := m.snapshot
	boxes := []string{
		StyleStatBox.Render(fmt.Sprintf("Today %d", s.TodayTasks)),
		StyleStatBox.Render(fmt.Sprintf("Active %d", s.ActiveInterventions)),
		StyleStatBox.Render(fmt.Sprintf("Done %d/%d", s.CompletedTasks, s.TotalTasks)),
		StyleStatBox.Render(fmt.Sprintf("Week %s%%", s.WeeklyCompletionPercentage)),
	}
	return strings.Join(boxes, " ")
}

func (m BoardModel) View() string {
	if !m.ready {
		return "Loading board..."
	}

	header := StyleHeader.Render("Dispatch Board") + "  " +
		StyleTitle.Render(m.Day.Format("Mon 2006-01-02"))
	if m.Err != nil {
		header += "  " + StyleError.Render(m.Err.Error())
	}

	footer := StyleSubtle.Render("←/→ day · t today · r resync · q quit")

	return strings.Join([]string{
		header,
		"",
		m.Viewport.View(),
		"",
		m.statsLine(),
		footer,
	}, "\n")
}
