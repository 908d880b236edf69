package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/fieldwork/dispatch/internal/schedule"
	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	number        INTEGER NOT NULL,
	title         TEXT NOT NULL,
	client        TEXT NOT NULL DEFAULT '',
	date          TEXT NOT NULL,
	start_time    TEXT NOT NULL,
	duration      INTEGER NOT NULL,
	technician_id TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	priority      INTEGER NOT NULL,
	progress      INTEGER NOT NULL DEFAULT 0,
	description   TEXT NOT NULL DEFAULT '',
	equipment     TEXT NOT NULL DEFAULT '',
	brand         TEXT NOT NULL DEFAULT '',
	model         TEXT NOT NULL DEFAULT '',
	serial_number TEXT NOT NULL DEFAULT '',
	report_number TEXT NOT NULL DEFAULT '',
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);
CREATE INDEX IF NOT EXISTS idx_tasks_technician_date ON tasks(technician_id, date);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
INSERT OR IGNORE INTO meta (key, value) VALUES ('last_task_id', '0');
INSERT OR IGNORE INTO meta (key, value) VALUES ('last_update', '');
`

const taskColumns = `id, number, title, client, date, start_time, duration, technician_id,
	status, priority, progress, description, equipment, brand, model,
	serial_number, report_number, created_at, updated_at`

// SQLiteTaskStore implements TaskStore on an embedded SQLite database.
// Identity and audit metadata live in a meta table so the id counter
// survives deletes exactly like the file backend's persisted counter.
type SQLiteTaskStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteTaskStore creates an unconfigured store; Initialize must be
// called before use.
func NewSQLiteTaskStore() *SQLiteTaskStore {
	return &SQLiteTaskStore{}
}

// Initialize opens (or creates) the database at config["dataFile"]
// (default tasks.db) and applies the schema.
func (s *SQLiteTaskStore) Initialize(config map[string]string) error {
	path := "tasks.db"
	if val, ok := config[dataFileKey]; ok && val != "" {
		path = val
	}
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}
	// modernc.org/sqlite is not safe for concurrent writers on one
	// connection pool; serialize through a single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply sqlite schema: %w", err)
	}

	s.db = db
	s.dbPath = path
	return nil
}

func scanTask(row interface{ Scan(...interface{}) error }) (models.Task, error) {
	var t models.Task
	var createdAt, updatedAt string
	err := row.Scan(&t.ID, &t.Number, &t.Title, &t.Client, &t.Date, &t.StartTime,
		&t.Duration, &t.TechnicianID, &t.Status, &t.Priority, &t.Progress,
		&t.Description, &t.Equipment, &t.Brand, &t.Model, &t.SerialNumber,
		&t.ReportNumber, &createdAt, &updatedAt)
	if err != nil {
		return models.Task{}, err
	}
	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return models.Task{}, fmt.Errorf("corrupt created_at for %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return models.Task{}, fmt.Errorf("corrupt updated_at for %s: %w", t.ID, err)
	}
	return t, nil
}

func (s *SQLiteTaskStore) insertTask(tx *sql.Tx, t models.Task) error {
	_, err := tx.Exec(`INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Number, t.Title, t.Client, t.Date, t.StartTime, t.Duration,
		t.TechnicianID, string(t.Status), t.Priority, t.Progress, t.Description,
		t.Equipment, t.Brand, t.Model, t.SerialNumber, t.ReportNumber,
		t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteTaskStore) writeTask(tx *sql.Tx, t models.Task) error {
	_, err := tx.Exec(`UPDATE tasks SET title = ?, client = ?, date = ?, start_time = ?,
		duration = ?, technician_id = ?, status = ?, priority = ?, progress = ?,
		description = ?, equipment = ?, brand = ?, model = ?, serial_number = ?,
		report_number = ?, updated_at = ? WHERE id = ?`,
		t.Title, t.Client, t.Date, t.StartTime, t.Duration, t.TechnicianID,
		string(t.Status), t.Priority, t.Progress, t.Description, t.Equipment,
		t.Brand, t.Model, t.SerialNumber, t.ReportNumber,
		t.UpdatedAt.Format(time.RFC3339Nano), t.ID)
	return err
}

func (s *SQLiteTaskStore) touch(tx *sql.Tx, now time.Time) error {
	_, err := tx.Exec(`UPDATE meta SET value = ? WHERE key = 'last_update'`,
		now.Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteTaskStore) getTaskTx(tx *sql.Tx, id string) (models.Task, error) {
	row := tx.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	return task, nil
}

// CreateTask advances the persisted counter, assigns the id, and inserts
// the task, all in one transaction.
func (s *SQLiteTaskStore) CreateTask(task models.Task) (models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var lastID int
	if err := tx.QueryRow(`SELECT value FROM meta WHERE key = 'last_task_id'`).Scan(&lastID); err != nil {
		return models.Task{}, fmt.Errorf("failed to read id counter: %w", err)
	}
	next := lastID + 1
	task.ID = FormatTaskID(next)
	task.Number = next

	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.StatusPending
	}
	if task.Priority == 0 {
		task.Priority = models.PriorityMedium
	}

	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for new task: %w", err)
	}

	if err := s.insertTask(tx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to insert task: %w", err)
	}
	if _, err := tx.Exec(`UPDATE meta SET value = ? WHERE key = 'last_task_id'`, fmt.Sprintf("%d", next)); err != nil {
		return models.Task{}, fmt.Errorf("failed to advance id counter: %w", err)
	}
	if err := s.touch(tx, now); err != nil {
		return models.Task{}, fmt.Errorf("failed to update change marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("failed to commit new task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by id.
func (s *SQLiteTaskStore) GetTask(id string) (models.Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to read task %s: %w", id, err)
	}
	return task, nil
}

// UpdateTask merges field updates into the task and refreshes UpdatedAt.
func (s *SQLiteTaskStore) UpdateTask(id string, updates map[string]interface{}) (models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := s.getTaskTx(tx, id)
	if err != nil {
		return models.Task{}, err
	}

	if err := applyUpdates(&task, updates); err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task.UpdatedAt = now

	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for updated task: %w", err)
	}

	if err := s.writeTask(tx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to write updated task: %w", err)
	}
	if err := s.touch(tx, now); err != nil {
		return models.Task{}, fmt.Errorf("failed to update change marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("failed to commit update: %w", err)
	}
	return task, nil
}

// CoerceStatus forces the task's status, bypassing full struct
// validation; the task's other fields may be broken (restored backups).
func (s *SQLiteTaskStore) CoerceStatus(id string, status models.TaskStatus) (models.Task, error) {
	if err := validStatus(id, status); err != nil {
		return models.Task{}, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := s.getTaskTx(tx, id)
	if err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task.Status = status
	task.UpdatedAt = now

	if _, err := tx.Exec(`UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), now.Format(time.RFC3339Nano), id); err != nil {
		return models.Task{}, fmt.Errorf("failed to write coerced status: %w", err)
	}
	if err := s.touch(tx, now); err != nil {
		return models.Task{}, fmt.Errorf("failed to update change marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("failed to commit status coercion: %w", err)
	}
	return task, nil
}

// DeleteTask removes the task; the id counter is untouched.
func (s *SQLiteTaskStore) DeleteTask(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return &types.NotFoundError{ID: id}
	}
	if err := s.touch(tx, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update change marker: %w", err)
	}
	return tx.Commit()
}

// DeleteAllTasks wipes the table but keeps the id counter.
func (s *SQLiteTaskStore) DeleteAllTasks() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks: %w", err)
	}
	if err := s.touch(tx, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update change marker: %w", err)
	}
	return tx.Commit()
}

// MoveTask reassigns the task's date after checking the technician's
// other work on the target date for overlaps.
func (s *SQLiteTaskStore) MoveTask(id string, newDate string) (models.Task, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	task, err := s.getTaskTx(tx, id)
	if err != nil {
		return models.Task{}, err
	}

	if _, err := time.Parse(models.DateLayout, newDate); err != nil {
		return models.Task{}, &types.ValidationError{TaskID: id, Reason: fmt.Sprintf("invalid target date %q", newDate)}
	}

	if task.Assigned() {
		rows, err := tx.Query(`SELECT `+taskColumns+` FROM tasks WHERE technician_id = ? AND date = ?`,
			task.TechnicianID, newDate)
		if err != nil {
			return models.Task{}, fmt.Errorf("failed to query technician schedule: %w", err)
		}
		var sameSlot []models.Task
		for rows.Next() {
			other, scanErr := scanTask(rows)
			if scanErr != nil {
				_ = rows.Close()
				return models.Task{}, fmt.Errorf("failed to scan technician schedule: %w", scanErr)
			}
			sameSlot = append(sameSlot, other)
		}
		if err := rows.Err(); err != nil {
			return models.Task{}, fmt.Errorf("failed to iterate technician schedule: %w", err)
		}
		if blocking, found := schedule.FindConflict(task, sameSlot); found {
			return models.Task{}, &types.ConflictError{
				TaskID:       id,
				TechnicianID: task.TechnicianID,
				Date:         newDate,
				BlockingID:   blocking.ID,
			}
		}
	}

	now := time.Now().UTC()
	task.Date = newDate
	task.UpdatedAt = now

	if err := s.writeTask(tx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to write moved task: %w", err)
	}
	if err := s.touch(tx, now); err != nil {
		return models.Task{}, fmt.Errorf("failed to update change marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return models.Task{}, fmt.Errorf("failed to commit move: %w", err)
	}
	return task, nil
}

// MarkTaskDone sets the task to completed with full progress.
func (s *SQLiteTaskStore) MarkTaskDone(id string) (models.Task, error) {
	return s.UpdateTask(id, map[string]interface{}{
		"status":   string(models.StatusCompleted),
		"progress": 100,
	})
}

func (s *SQLiteTaskStore) queryTasks(query string, args ...interface{}) ([]models.Task, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("task query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("task row iteration failed: %w", err)
	}
	return tasks, nil
}

// ListTasks retrieves tasks, optionally filtered and sorted. Filtering
// happens in Go so the same filter funcs work on both backends.
func (s *SQLiteTaskStore) ListTasks(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error) {
	all, err := s.queryTasks(`SELECT ` + taskColumns + ` FROM tasks ORDER BY number`)
	if err != nil {
		return nil, err
	}
	tasks := make([]models.Task, 0, len(all))
	for _, task := range all {
		if filterFn == nil || filterFn(task) {
			tasks = append(tasks, task)
		}
	}
	if sortFn != nil {
		tasks = sortFn(tasks)
	}
	return tasks, nil
}

// TasksByDate returns the tasks scheduled on an exact date.
func (s *SQLiteTaskStore) TasksByDate(date string) ([]models.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE date = ? ORDER BY number`, date)
}

// TasksByDateRange returns tasks dated within [start, end] inclusive.
// ISO dates compare correctly as strings, so the range runs in SQL.
func (s *SQLiteTaskStore) TasksByDateRange(start, end time.Time) ([]models.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE date >= ? AND date <= ? ORDER BY number`,
		start.Format(models.DateLayout), end.Format(models.DateLayout))
}

// TechnicianTasks returns a technician's tasks for one date.
func (s *SQLiteTaskStore) TechnicianTasks(technicianID, date string) ([]models.Task, error) {
	return s.queryTasks(`SELECT `+taskColumns+` FROM tasks WHERE technician_id = ? AND date = ? ORDER BY number`,
		technicianID, date)
}

// LastUpdate returns when the collection last changed. Zero time if the
// store has never been written.
func (s *SQLiteTaskStore) LastUpdate() (time.Time, error) {
	var raw string
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_update'`).Scan(&raw); err != nil {
		return time.Time{}, fmt.Errorf("failed to read change marker: %w", err)
	}
	if raw == "" {
		return time.Time{}, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt change marker %q: %w", raw, err)
	}
	return ts, nil
}

// Backup exports the collection as JSON, in the same TaskList shape the
// file backend persists, so backups restore into either backend.
func (s *SQLiteTaskStore) Backup(destinationPath string) error {
	tasks, err := s.queryTasks(`SELECT ` + taskColumns + ` FROM tasks ORDER BY number`)
	if err != nil {
		return err
	}
	var lastID int
	if err := s.db.QueryRow(`SELECT value FROM meta WHERE key = 'last_task_id'`).Scan(&lastID); err != nil {
		return fmt.Errorf("failed to read id counter for backup: %w", err)
	}
	lastUpdate, err := s.LastUpdate()
	if err != nil {
		return err
	}

	list := models.TaskList{Tasks: tasks, LastTaskID: lastID, LastUpdate: lastUpdate}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup: %w", err)
	}
	if err := os.WriteFile(destinationPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file to %s: %w", destinationPath, err)
	}
	return nil
}

// Restore replaces the table contents with a JSON TaskList backup.
func (s *SQLiteTaskStore) Restore(sourcePath string) error {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read backup file %s: %w", sourcePath, err)
	}
	var list models.TaskList
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to unmarshal backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("failed to clear tasks for restore: %w", err)
	}
	lastID := list.LastTaskID
	for _, task := range list.Tasks {
		if err := s.insertTask(tx, task); err != nil {
			return fmt.Errorf("failed to insert restored task %s: %w", task.ID, err)
		}
		if task.Number > lastID {
			lastID = task.Number
		}
	}
	if _, err := tx.Exec(`UPDATE meta SET value = ? WHERE key = 'last_task_id'`, fmt.Sprintf("%d", lastID)); err != nil {
		return fmt.Errorf("failed to restore id counter: %w", err)
	}
	if err := s.touch(tx, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to update change marker: %w", err)
	}
	return tx.Commit()
}

// Close closes the database.
func (s *SQLiteTaskStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
