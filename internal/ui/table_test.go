package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fieldwork/dispatch/models"
)

func TestTable_ColumnWidths(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Title", "Status"},
		Rows: [][]string{
			{"TASK-001", "Boiler inspection", "pending"},
			{"TASK-002", "Quarterly HVAC filter replacement", "completed"},
		},
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 8, widths[0])
	assert.Equal(t, 33, widths[1])
	assert.Equal(t, 9, widths[2])
}

func TestTable_ColumnWidths_MaxWidth(t *testing.T) {
	table := &Table{
		Headers:  []string{"ID", "Description"},
		Rows:     [][]string{{"a", "This is a very long description that should be truncated"}},
		MaxWidth: 20,
	}

	widths := table.ColumnWidths()

	assert.Equal(t, 2, widths[0])
	assert.Equal(t, 20, widths[1])
}

func TestTable_Render(t *testing.T) {
	table := &Table{
		Headers: []string{"ID", "Title"},
		Rows: [][]string{
			{"TASK-001", "Ice machine descaling"},
			{"TASK-002", "Condenser coil cleaning"},
		},
	}

	output := table.Render()

	assert.Contains(t, output, "ID")
	assert.Contains(t, output, "Title")
	assert.Contains(t, output, "TASK-001")
	assert.Contains(t, output, "Condenser coil cleaning")
	assert.Contains(t, output, "─")
}

func TestTable_Render_Empty(t *testing.T) {
	table := &Table{}
	assert.Equal(t, "", table.Render())
}

func TestTaskTable(t *testing.T) {
	tasks := []models.Task{
		{ID: "TASK-001", Title: "Assigned job", Date: "2024-03-11", StartTime: "09:00", Duration: 60, TechnicianID: "tech-1", Status: models.StatusPending, Priority: models.PriorityHigh},
		{ID: "TASK-002", Title: "Unassigned job", Date: "2024-03-11", StartTime: "11:00", Duration: 30, Status: models.StatusPending, Priority: models.PriorityLow},
	}
	names := map[string]string{"tech-1": "Mike Johnson"}

	table := TaskTable(tasks, names)

	assert.Len(t, table.Rows, 2)
	assert.Equal(t, "Mike Johnson", table.Rows[0][4])
	assert.Equal(t, "-", table.Rows[1][4])
	assert.Equal(t, "high", table.Rows[0][6])
	assert.Contains(t, table.Rows[0][1], "09:00–10:00")
}

func TestTimeSpan(t *testing.T) {
	task := models.Task{Date: "2024-03-11", StartTime: "23:30", Duration: 60}
	assert.Equal(t, "23:30–00:30", TimeSpan(task))

	broken := models.Task{StartTime: "09:00"}
	assert.Equal(t, "09:00", TimeSpan(broken))
}

func TestPriorityName(t *testing.T) {
	assert.Equal(t, "high", PriorityName(models.PriorityHigh))
	assert.Equal(t, "medium", PriorityName(models.PriorityMedium))
	assert.Equal(t, "low", PriorityName(models.PriorityLow))
	assert.Equal(t, "low", PriorityName(9))
}
