package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"gamewright/internal/coder"
	"gamewright/internal/config"
	"gamewright/internal/fixer"
	"gamewright/internal/logger"
	"gamewright/internal/planner"
	"gamewright/internal/task"
)

// ErrSessionActive is returned by Start while another development
// session is still running.
var ErrSessionActive = errors.New("a development session is already running")

// Result is posted on the Results channel when a session finishes.
type Result struct {
	TaskID string
	Status task.Status
	Err    error
}

// Stats is a point-in-time view of what the agent has done so far.
type Stats struct {
	GamesCreated   int `json:"games_created"`
	TasksCompleted int `json:"tasks_completed"`
	ErrorsFixed    int `json:"errors_fixed"`
	RAGSearches    int `json:"rag_searches"`
	SavedStates    int `json:"saved_states"`
}

// Agent drives the plan -> code -> validate pipeline for one task at a
// time and persists the task state after every stage.
type Agent struct {
	store   *task.Store
	planner *planner.Planner
	coder   *coder.Coder
	fixer   *fixer.Fixer
	cfg     config.Config

	sem     *semaphore.Weighted
	results chan Result

	mu    sync.Mutex
	stats Stats
}

// New wires an agent from its collaborators.
func New(store *task.Store, pl *planner.Planner, cd *coder.Coder, fx *fixer.Fixer, cfg config.Config) *Agent {
	return &Agent{
		store:   store,
		planner: pl,
		coder:   cd,
		fixer:   fx,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(1),
		results: make(chan Result, 1),
	}
}

// Results delivers one Result per finished session started via Start.
func (a *Agent) Results() <-chan Result { return a.results }

// Start launches a development session in the background and returns
// its task ID. Only one session may run at a time.
func (a *Agent) Start(description string) (string, error) {
	if !a.sem.TryAcquire(1) {
		return "", ErrSessionActive
	}
	state := a.store.Create(description)
	go func() {
		defer a.sem.Release(1)
		err := a.run(context.Background(), state)
		a.results <- Result{TaskID: state.TaskID, Status: state.Status, Err: err}
	}()
	return state.TaskID, nil
}

// Develop runs one full session synchronously and returns the final
// state. It shares the single-session guard with Start.
func (a *Agent) Develop(ctx context.Context, description string) (*task.State, error) {
	if !a.sem.TryAcquire(1) {
		return nil, ErrSessionActive
	}
	defer a.sem.Release(1)
	state := a.store.Create(description)
	err := a.run(ctx, state)
	return state, err
}

// Status reports a compact snapshot of a stored task.
func (a *Agent) Status(taskID string) (task.Snapshot, error) {
	state, ok, err := a.store.Load(taskID)
	if err != nil {
		return task.Snapshot{}, err
	}
	if !ok {
		return task.Snapshot{}, fmt.Errorf("unknown task %q", taskID)
	}
	return task.TakeSnapshot(state), nil
}

// List returns the IDs of all stored tasks.
func (a *Agent) List() ([]string, error) { return a.store.List() }

// Load returns a stored task state, reporting whether it exists.
func (a *Agent) Load(taskID string) (*task.State, bool, error) {
	return a.store.Load(taskID)
}

// Stats returns the session counters plus the stored-state count.
func (a *Agent) Stats() Stats {
	a.mu.Lock()
	s := a.stats
	a.mu.Unlock()
	if ids, err := a.store.List(); err == nil {
		s.SavedStates = len(ids)
	}
	return s
}

func (a *Agent) run(ctx context.Context, s *task.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panicked: %v", r)
		}
		if err != nil {
			a.fail(s)
		}
	}()

	logger.Log.Printf("[agent] %s starting: %s", s.TaskID, s.OriginalTask)

	if err := s.SetStatus(task.StatusPlanning); err != nil {
		return err
	}
	if err := a.store.Save(s); err != nil {
		return err
	}
	subtasks := a.planner.Decompose(ctx, s.OriginalTask)
	s.SetPlan(subtasks)
	s.RecordModel(a.cfg.Models.Planner)
	a.recordRAG(s, 2)
	if err := s.SetStatus(task.StatusCoding); err != nil {
		return err
	}
	if err := a.store.Save(s); err != nil {
		return err
	}
	logger.Log.Printf("[agent] %s plan ready: %d subtasks", s.TaskID, len(subtasks))

	for i, subtask := range s.Subtasks {
		if i > 0 {
			s.AdvanceSubtask()
		}
		logger.Log.Printf("[agent] %s subtask %d/%d: %s", s.TaskID, i+1, len(s.Subtasks), subtask)
		if err := a.runSubtask(ctx, s, subtask); err != nil {
			return err
		}
	}

	if err := s.SetStatus(task.StatusTesting); err != nil {
		return err
	}
	if err := a.store.Save(s); err != nil {
		return err
	}

	if s.CurrentCode == "" {
		if err := s.SetValidation(task.ValidationFailed); err != nil {
			return err
		}
		if err := s.SetStatus(task.StatusFailed); err != nil {
			return err
		}
		if err := a.store.Save(s); err != nil {
			return err
		}
		return errors.New("no code was produced")
	}

	report := a.fixer.AnalyzeCode(ctx, s.CurrentCode, s.OriginalTask)
	s.RecordExecution(report.ExecutionSuccess)
	s.RecordModel(a.cfg.Models.Fixer)
	for _, issue := range report.ErrorsDetected {
		s.AddError(issue.Type, issue.Description, tail(s.CurrentCode, 500), string(report.Disposition))
	}

	if report.ExecutionSuccess {
		if err := s.SetValidation(task.ValidationPassed); err != nil {
			return err
		}
		if err := s.SetStatus(task.StatusCompleted); err != nil {
			return err
		}
	} else {
		if err := s.SetValidation(task.ValidationFailed); err != nil {
			return err
		}
		if err := s.SetStatus(task.StatusFailed); err != nil {
			return err
		}
	}

	a.saveGameCode(s)
	if err := a.store.Save(s); err != nil {
		return err
	}

	a.mu.Lock()
	if s.Status == task.StatusCompleted {
		a.stats.GamesCreated++
		a.stats.TasksCompleted++
	}
	a.mu.Unlock()

	logger.Log.Printf("[agent] %s finished with status %s", s.TaskID, s.Status)
	return nil
}

func (a *Agent) runSubtask(ctx context.Context, s *task.State, subtask string) error {
	generated := a.coder.Generate(ctx, s.CurrentCode, subtask, 0.2, 1000)
	s.RecordModel(a.cfg.Models.Coder)
	a.recordRAG(s, 3)

	report := a.fixer.AnalyzeCode(ctx, generated, s.OriginalTask)
	s.RecordExecution(report.ExecutionSuccess)

	final := generated
	if report.FixApplied {
		final = report.FixedCode
		a.mu.Lock()
		a.stats.ErrorsFixed++
		a.mu.Unlock()
	}
	s.AddRevision(subtask, final, a.cfg.Models.Coder)
	for _, issue := range report.ErrorsDetected {
		s.AddError(issue.Type, issue.Description, tail(final, 500), string(report.Disposition))
	}
	return a.store.Save(s)
}

// recordRAG bumps both the per-task and the agent-wide retrieval counters.
func (a *Agent) recordRAG(s *task.State, n int) {
	s.RecordRAGSearches(n)
	a.mu.Lock()
	a.stats.RAGSearches += n
	a.mu.Unlock()
}

// fail marks the task failed and persists it best-effort. It is only
// called from the run defer so transition errors are logged, not
// returned.
func (a *Agent) fail(s *task.State) {
	if !s.Status.IsTerminal() {
		if err := s.SetStatus(task.StatusFailed); err != nil {
			logger.Log.Printf("[agent] %s could not mark failed: %v", s.TaskID, err)
		}
	}
	if err := a.store.Save(s); err != nil {
		logger.Log.Printf("[agent] %s could not persist failure: %v", s.TaskID, err)
	}
}

// saveGameCode writes the final source under the games directory and
// records the path in the task metadata.
func (a *Agent) saveGameCode(s *task.State) {
	if s.CurrentCode == "" {
		return
	}
	if err := os.MkdirAll(a.cfg.GamesDir, 0o755); err != nil {
		logger.Log.Printf("[agent] %s cannot create games dir: %v", s.TaskID, err)
		return
	}
	name := fmt.Sprintf("game_%s_%s.py", slugify(s.OriginalTask), time.Now().Format("20060102_150405"))
	path := filepath.Join(a.cfg.GamesDir, name)
	if err := os.WriteFile(path, []byte(s.CurrentCode), 0o644); err != nil {
		logger.Log.Printf("[agent] %s cannot save game file: %v", s.TaskID, err)
		return
	}
	s.Metadata["saved_file"] = path
	logger.Log.Printf("[agent] %s saved game to %s", s.TaskID, path)
}

func slugify(text string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('_')
		}
		if b.Len() >= 50 {
			break
		}
	}
	if b.Len() == 0 {
		return "game"
	}
	return b.String()
}

func tail(text string, n int) string {
	if len(text) <= n {
		return text
	}
	return text[len(text)-n:]
}
