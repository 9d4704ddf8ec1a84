package task

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"gamewright/internal/logger"
)

// Store persists one JSON file per task under a directory. The pipeline never
// deletes records; cleanup is an external housekeeping concern.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state directory %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Create builds a fresh pending session for the given request text.
func (st *Store) Create(originalTask string) *State {
	id := fmt.Sprintf("task_%s_%s",
		time.Now().Format("20060102_150405"),
		strings.ReplaceAll(uuid.New().String(), "-", "")[:8])

	ts := now()
	s := &State{
		TaskID:       id,
		OriginalTask: originalTask,
		CreatedAt:    ts,
		UpdatedAt:    ts,
		Status:       StatusPending,
		Validation:   ValidationNotStarted,
		Metadata:     map[string]string{},
	}
	logger.Log.Printf("[store] created task %s", id)
	return s
}

func (st *Store) path(taskID string) string {
	return filepath.Join(st.dir, taskID+".json")
}

// Save writes the state to <task_id>.json via a temp file + rename so a crash
// mid-write never corrupts the last good snapshot.
func (st *Store) Save(s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling task %s: %w", s.TaskID, err)
	}

	tmp := st.path(s.TaskID) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing task %s: %w", s.TaskID, err)
	}
	if err := os.Rename(tmp, st.path(s.TaskID)); err != nil {
		return fmt.Errorf("committing task %s: %w", s.TaskID, err)
	}
	return nil
}

// Load reads a stored task. The boolean reports presence; a missing file is
// not an error.
func (st *Store) Load(taskID string) (*State, bool, error) {
	data, err := os.ReadFile(st.path(taskID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading task %s: %w", taskID, err)
	}

	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, false, fmt.Errorf("parsing task %s: %w", taskID, err)
	}
	return &s, true, nil
}

// List returns all stored task ids, sorted. Task ids embed their creation
// timestamp, so the sort is chronological.
func (st *Store) List() ([]string, error) {
	entries, err := os.ReadDir(st.dir)
	if err != nil {
		return nil, fmt.Errorf("listing state directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
