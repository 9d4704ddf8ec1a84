package finetune

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gamewright/internal/logger"
	"gamewright/internal/task"
)

const (
	maxStatesPerExport = 10
	maxResponseLength  = 1000
)

// Example is one training record in the instruction/output format the
// ollama tooling consumes.
type Example struct {
	Instruction string `json:"instruction"`
	Input       string `json:"input"`
	Output      string `json:"output"`
	System      string `json:"system"`
	ModelType   string `json:"model_type"`
	TaskID      string `json:"task_id"`
}

// Exporter mines completed tasks for training examples and writes them
// out as JSONL datasets.
type Exporter struct {
	store *task.Store
	dir   string
}

func New(store *task.Store, dir string) *Exporter {
	return &Exporter{store: store, dir: dir}
}

// Collect gathers examples from completed tasks with generated code.
// Planner examples pair the task with its numbered plan; coder examples
// pair each subtask with the code revision it produced.
func (e *Exporter) Collect() ([]Example, error) {
	ids, err := e.store.List()
	if err != nil {
		return nil, err
	}
	if len(ids) > maxStatesPerExport {
		ids = ids[:maxStatesPerExport]
	}

	var examples []Example
	for _, id := range ids {
		state, ok, err := e.store.Load(id)
		if err != nil || !ok {
			continue
		}
		if state.Status != task.StatusCompleted || state.CurrentCode == "" {
			continue
		}

		if len(state.Subtasks) > 0 {
			var plan strings.Builder
			for i, subtask := range state.Subtasks {
				fmt.Fprintf(&plan, "%d. %s\n", i+1, subtask)
			}
			examples = append(examples, Example{
				Instruction: "Break the task into subtasks: " + state.OriginalTask,
				Output:      strings.TrimRight(plan.String(), "\n"),
				System:      systemPromptFor("planner"),
				ModelType:   "planner",
				TaskID:      state.TaskID,
			})
		}

		for _, rev := range state.CodeHistory {
			examples = append(examples, Example{
				Instruction: "Generate PyGame code for: " + rev.Subtask,
				Output:      clip(rev.NewCode, maxResponseLength),
				System:      systemPromptFor("coder"),
				ModelType:   "coder",
				TaskID:      state.TaskID,
			})
		}
	}

	logger.Log.Printf("[finetune] collected %d training examples", len(examples))
	return examples, nil
}

// Export writes the collected examples to a timestamped JSONL file and
// returns its path. No examples is not an error; it returns "".
func (e *Exporter) Export() (string, error) {
	examples, err := e.Collect()
	if err != nil {
		return "", err
	}
	if len(examples) == 0 {
		logger.Log.Printf("[finetune] no completed tasks to export")
		return "", nil
	}

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(e.dir, fmt.Sprintf("dataset_%s.jsonl", time.Now().Format("20060102_150405")))

	var sb strings.Builder
	for _, ex := range examples {
		line, err := json.Marshal(ex)
		if err != nil {
			return "", err
		}
		sb.Write(line)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return "", err
	}

	logger.Log.Printf("[finetune] wrote dataset %s (%d examples)", path, len(examples))
	return path, nil
}

func systemPromptFor(modelType string) string {
	switch modelType {
	case "planner":
		return "You are a PyGame game architect. Break tasks into logical subtasks."
	case "coder":
		return "You are a PyGame game development expert. Generate clean, working code."
	case "fixer":
		return "You are a PyGame error analyzer. Find and fix problems in code."
	default:
		return "You are a PyGame game development assistant."
	}
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
