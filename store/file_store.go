package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	yaml "gopkg.in/yaml.v3"

	"github.com/fieldwork/dispatch/internal/schedule"
	"github.com/fieldwork/dispatch/models"
	"github.com/fieldwork/dispatch/types"
)

const (
	defaultDataFile   = "tasks.json"
	dataFileKey       = "dataFile"
	dataFileFormatKey = "dataFileFormat"
	defaultDataFormat = "json"
	formatJSON        = "json"
	formatYAML        = "yaml"
	formatTOML        = "toml"
	checksumSuffix    = ".checksum"

	// IDPrefix + a zero-padded sequence number form the display id.
	IDPrefix = "TASK-"
)

// FormatTaskID renders a sequence number as a display id, e.g. TASK-007.
// Padding is three digits; the counter keeps going past 999 without
// wrapping.
func FormatTaskID(n int) string {
	return fmt.Sprintf("%s%03d", IDPrefix, n)
}

// FileTaskStore implements TaskStore on a single flat file. It supports
// JSON, YAML, and TOML, guards cross-process access with a file lock, and
// verifies a SHA-256 checksum sidecar on load. Every operation reloads
// from disk under the lock, so concurrent processes always work against
// the latest collection.
type FileTaskStore struct {
	filePath string
	format   string
	flk      *flock.Flock

	tasks      map[string]models.Task
	lastID     int
	lastUpdate time.Time
}

// NewFileTaskStore creates an unconfigured store; Initialize must be
// called before use.
func NewFileTaskStore() *FileTaskStore {
	return &FileTaskStore{
		tasks: make(map[string]models.Task),
	}
}

// Initialize configures the store from a key/value config: "dataFile" is
// the data file path (default tasks.json), "dataFileFormat" one of json,
// yaml, toml. It creates the directory, takes the file lock, and loads
// any existing collection, restoring the id counter alongside the tasks.
func (s *FileTaskStore) Initialize(config map[string]string) error {
	if val, ok := config[dataFileKey]; ok && val != "" {
		s.filePath = val
	} else {
		s.filePath = defaultDataFile
	}

	if val, ok := config[dataFileFormatKey]; ok && val != "" {
		switch strings.ToLower(val) {
		case formatJSON, formatYAML, formatTOML:
			s.format = strings.ToLower(val)
		default:
			return fmt.Errorf("unsupported dataFileFormat: %s (supported: json, yaml, toml)", val)
		}
	} else {
		s.format = defaultDataFormat
	}

	if s.filePath == defaultDataFile && s.format != formatJSON {
		ext := filepath.Ext(s.filePath)
		s.filePath = strings.TrimSuffix(s.filePath, ext) + "." + s.format
	}

	dir := filepath.Dir(s.filePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	s.flk = flock.New(s.filePath)

	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire initial lock for %s: %w", s.filePath, err)
	}
	if !locked {
		if err := s.flk.Lock(); err != nil {
			return fmt.Errorf("failed to acquire blocking initial lock for %s: %w", s.filePath, err)
		}
	}
	defer func() { _ = s.flk.Unlock() }()

	s.tasks = make(map[string]models.Task)
	return s.loadInternal()
}

func calculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// loadInternal reads the collection from disk, verifying the checksum
// sidecar when present. Assumes the file lock is held.
func (s *FileTaskStore) loadInternal() error {
	checksumPath := s.filePath + checksumSuffix

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.tasks = make(map[string]models.Task)
			s.lastID = 0
			s.lastUpdate = time.Time{}
			_ = os.Remove(checksumPath)
			f, createErr := os.OpenFile(s.filePath, os.O_CREATE|os.O_RDWR, 0o644)
			if createErr != nil {
				return fmt.Errorf("failed to create data file %s: %w", s.filePath, createErr)
			}
			_ = f.Close()
			_ = os.WriteFile(checksumPath, []byte(calculateChecksum(nil)), 0o644)
			return nil
		}
		return fmt.Errorf("failed to read data file %s: %w", s.filePath, err)
	}

	if _, err := os.Stat(checksumPath); err == nil {
		expected, readErr := os.ReadFile(checksumPath)
		if readErr != nil {
			return fmt.Errorf("failed to read checksum file %s: %w", checksumPath, readErr)
		}
		if actual := calculateChecksum(data); actual != strings.TrimSpace(string(expected)) {
			return fmt.Errorf("checksum mismatch for %s: file is corrupt or was modified outside the store", s.filePath)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("error checking checksum file %s: %w", checksumPath, err)
	}
	// No checksum file means pre-checksum data; load it and let the next
	// save create the sidecar.

	if len(data) == 0 {
		s.tasks = make(map[string]models.Task)
		s.lastID = 0
		s.lastUpdate = time.Time{}
		return nil
	}

	var list models.TaskList
	switch s.format {
	case formatJSON:
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to unmarshal JSON from %s: %w", s.filePath, err)
		}
	case formatYAML:
		if err := yaml.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to unmarshal YAML from %s: %w", s.filePath, err)
		}
	case formatTOML:
		if err := toml.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("failed to unmarshal TOML from %s: %w", s.filePath, err)
		}
	default:
		return fmt.Errorf("unsupported data format for loading: %s", s.format)
	}

	s.tasks = make(map[string]models.Task, len(list.Tasks))
	for _, task := range list.Tasks {
		s.tasks[task.ID] = task
	}
	s.lastID = list.LastTaskID
	s.lastUpdate = list.LastUpdate

	// Guard against hand-edited files: the counter must stay above every
	// id ever loaded, or a future create would collide.
	for _, task := range s.tasks {
		if task.Number > s.lastID {
			s.lastID = task.Number
		}
	}
	return nil
}

// saveInternal writes the collection plus its checksum sidecar, both via
// temp-file-and-rename so a crash never leaves a torn data file.
func (s *FileTaskStore) saveInternal() error {
	list := models.TaskList{
		Tasks:      make([]models.Task, 0, len(s.tasks)),
		LastTaskID: s.lastID,
		LastUpdate: s.lastUpdate,
	}
	for _, task := range s.tasks {
		list.Tasks = append(list.Tasks, task)
	}
	// Deterministic file layout: order by creation sequence.
	sort.Slice(list.Tasks, func(i, j int) bool {
		return list.Tasks[i].Number < list.Tasks[j].Number
	})

	var marshaled []byte
	var err error
	switch s.format {
	case formatJSON:
		marshaled, err = json.MarshalIndent(list, "", "  ")
	case formatYAML:
		marshaled, err = yaml.Marshal(list)
	case formatTOML:
		buf := new(bytes.Buffer)
		if encodeErr := toml.NewEncoder(buf).Encode(list); encodeErr == nil {
			marshaled = buf.Bytes()
		} else {
			err = encodeErr
		}
	default:
		return fmt.Errorf("unsupported data format for saving: %s", s.format)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal tasks to %s: %w", s.format, err)
	}

	tempPath := s.filePath + ".tmp"
	checksumPath := s.filePath + checksumSuffix
	tempChecksumPath := checksumPath + ".tmp"
	defer func() { _ = os.Remove(tempPath) }()
	defer func() { _ = os.Remove(tempChecksumPath) }()

	if err := os.WriteFile(tempPath, marshaled, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary data file %s: %w", tempPath, err)
	}
	if err := os.WriteFile(tempChecksumPath, []byte(calculateChecksum(marshaled)), 0o644); err != nil {
		return fmt.Errorf("failed to write temporary checksum file %s: %w", tempChecksumPath, err)
	}

	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to rename temporary data file to %s: %w", s.filePath, err)
	}
	if err := os.Rename(tempChecksumPath, checksumPath); err != nil {
		return fmt.Errorf("data file %s updated but checksum update failed: %w", s.filePath, err)
	}
	return nil
}

// CreateTask assigns the next id from the monotonic counter, stamps the
// timestamps, validates, appends, and persists.
func (s *FileTaskStore) CreateTask(task models.Task) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("could not lock file for create: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Task{}, fmt.Errorf("failed to reload tasks before create: %w", err)
	}

	next := s.lastID + 1
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

	s.tasks[task.ID] = task
	s.lastID = next
	s.lastUpdate = now

	if err := s.saveInternal(); err != nil {
		_ = s.loadInternal()
		return models.Task{}, fmt.Errorf("failed to save new task: %w", err)
	}
	return task, nil
}

// GetTask retrieves a task by id.
func (s *FileTaskStore) GetTask(id string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("failed to acquire lock for GetTask: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Task{}, fmt.Errorf("failed to load tasks for GetTask: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	return task, nil
}

// UpdateTask merges field updates into the task and refreshes UpdatedAt.
func (s *FileTaskStore) UpdateTask(id string, updates map[string]interface{}) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("could not lock file for update: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Task{}, fmt.Errorf("failed to reload tasks before update: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	original := task

	if err := applyUpdates(&task, updates); err != nil {
		return models.Task{}, err
	}

	now := time.Now().UTC()
	task.UpdatedAt = now

	if err := models.ValidateStruct(task); err != nil {
		return models.Task{}, fmt.Errorf("validation failed for updated task: %w", err)
	}

	s.tasks[id] = task
	s.lastUpdate = now

	if err := s.saveInternal(); err != nil {
		s.tasks[id] = original
		return models.Task{}, fmt.Errorf("failed to save updated task: %w", err)
	}
	return task, nil
}

// CoerceStatus forces the task's status, bypassing full struct
// validation. Only the status value itself is checked; the task's other
// fields may be broken, which is the whole reason it is being coerced.
func (s *FileTaskStore) CoerceStatus(id string, status models.TaskStatus) (models.Task, error) {
	if err := validStatus(id, status); err != nil {
		return models.Task{}, err
	}

	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("could not lock file for status coercion: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Task{}, fmt.Errorf("failed to reload tasks before status coercion: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}
	original := task

	now := time.Now().UTC()
	task.Status = status
	task.UpdatedAt = now

	s.tasks[id] = task
	s.lastUpdate = now

	if err := s.saveInternal(); err != nil {
		s.tasks[id] = original
		return models.Task{}, fmt.Errorf("failed to save coerced task: %w", err)
	}
	return task, nil
}

func validStatus(id string, status models.TaskStatus) error {
	switch status {
	case models.StatusPending, models.StatusInProgress, models.StatusCompleted:
		return nil
	}
	return &types.ValidationError{TaskID: id, Reason: fmt.Sprintf("unknown status %q", status)}
}

// DeleteTask removes the task with the given id. The id counter is left
// alone: a deleted id is never reissued.
func (s *FileTaskStore) DeleteTask(id string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("could not lock file for delete: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return fmt.Errorf("failed to reload tasks before delete: %w", err)
	}

	if _, ok := s.tasks[id]; !ok {
		return &types.NotFoundError{ID: id}
	}

	delete(s.tasks, id)
	s.lastUpdate = time.Now().UTC()

	if err := s.saveInternal(); err != nil {
		_ = s.loadInternal()
		return fmt.Errorf("failed to save after deleting task: %w", err)
	}
	return nil
}

// DeleteAllTasks wipes the collection but keeps the id counter.
func (s *FileTaskStore) DeleteAllTasks() error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for DeleteAllTasks: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return fmt.Errorf("failed to reload tasks before clear: %w", err)
	}

	s.tasks = make(map[string]models.Task)
	s.lastUpdate = time.Now().UTC()

	if err := s.saveInternal(); err != nil {
		return fmt.Errorf("failed to clear data file: %w", err)
	}
	return nil
}

// MoveTask reassigns the task's date after checking the technician's
// other work on the target date for overlaps. Atomic: on conflict the
// collection is left exactly as it was.
func (s *FileTaskStore) MoveTask(id string, newDate string) (models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return models.Task{}, fmt.Errorf("could not lock file for move: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return models.Task{}, fmt.Errorf("failed to reload tasks before move: %w", err)
	}

	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, &types.NotFoundError{ID: id}
	}

	if _, err := time.Parse(models.DateLayout, newDate); err != nil {
		return models.Task{}, &types.ValidationError{TaskID: id, Reason: fmt.Sprintf("invalid target date %q", newDate)}
	}

	if task.Assigned() {
		var sameSlot []models.Task
		for _, other := range s.tasks {
			if other.TechnicianID == task.TechnicianID && other.Date == newDate {
				sameSlot = append(sameSlot, other)
			}
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
	original := task
	task.Date = newDate
	task.UpdatedAt = now

	s.tasks[id] = task
	s.lastUpdate = now

	if err := s.saveInternal(); err != nil {
		s.tasks[id] = original
		return models.Task{}, fmt.Errorf("failed to save moved task: %w", err)
	}
	return task, nil
}

// MarkTaskDone sets the task to completed with full progress.
func (s *FileTaskStore) MarkTaskDone(id string) (models.Task, error) {
	return s.UpdateTask(id, map[string]interface{}{
		"status":   string(models.StatusCompleted),
		"progress": 100,
	})
}

// ListTasks retrieves tasks, optionally filtered and sorted.
func (s *FileTaskStore) ListTasks(filterFn func(models.Task) bool, sortFn func([]models.Task) []models.Task) ([]models.Task, error) {
	if err := s.flk.Lock(); err != nil {
		return nil, fmt.Errorf("failed to acquire lock for ListTasks: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return nil, fmt.Errorf("failed to load tasks for ListTasks: %w", err)
	}

	tasks := make([]models.Task, 0, len(s.tasks))
	for _, task := range s.tasks {
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
func (s *FileTaskStore) TasksByDate(date string) ([]models.Task, error) {
	return s.ListTasks(func(t models.Task) bool {
		return t.Date == date
	}, nil)
}

// TasksByDateRange returns tasks dated within [start, end] inclusive.
// Tasks whose date does not parse are skipped.
func (s *FileTaskStore) TasksByDateRange(start, end time.Time) ([]models.Task, error) {
	return s.ListTasks(func(t models.Task) bool {
		d, err := time.Parse(models.DateLayout, t.Date)
		if err != nil {
			return false
		}
		return !d.Before(start) && !d.After(end)
	}, nil)
}

// TechnicianTasks returns a technician's tasks for one date.
func (s *FileTaskStore) TechnicianTasks(technicianID, date string) ([]models.Task, error) {
	return s.ListTasks(func(t models.Task) bool {
		return t.TechnicianID == technicianID && t.Date == date
	}, nil)
}

// LastUpdate returns when the collection last changed.
func (s *FileTaskStore) LastUpdate() (time.Time, error) {
	if err := s.flk.Lock(); err != nil {
		return time.Time{}, fmt.Errorf("failed to acquire lock for LastUpdate: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	if err := s.loadInternal(); err != nil {
		return time.Time{}, err
	}
	return s.lastUpdate, nil
}

// Backup copies the current data file to the destination path.
func (s *FileTaskStore) Backup(destinationPath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for backup: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	input, err := os.ReadFile(s.filePath)
	if err != nil {
		return fmt.Errorf("failed to read source file %s for backup: %w", s.filePath, err)
	}
	if err := os.WriteFile(destinationPath, input, 0o644); err != nil {
		return fmt.Errorf("failed to write backup file to %s: %w", destinationPath, err)
	}
	return nil
}

// Restore replaces the current data with the backup at sourcePath. The
// checksum sidecar is removed; the next save regenerates it.
func (s *FileTaskStore) Restore(sourcePath string) error {
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for restore: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to read backup file %s: %w", sourcePath, err)
	}

	tempPath := s.filePath + ".tmp_restore"
	defer func() { _ = os.Remove(tempPath) }()

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write restored data to %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		return fmt.Errorf("failed to replace %s with restored data: %w", s.filePath, err)
	}
	_ = os.Remove(s.filePath + checksumSuffix)

	return s.loadInternal()
}

// Close releases the file lock. Unlock is idempotent.
func (s *FileTaskStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}
