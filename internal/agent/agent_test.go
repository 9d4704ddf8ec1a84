package agent

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gamewright/internal/coder"
	"gamewright/internal/config"
	"gamewright/internal/fixer"
	"gamewright/internal/llm"
	"gamewright/internal/planner"
	"gamewright/internal/rag"
	"gamewright/internal/sandbox"
	"gamewright/internal/task"
)

const blueWindowGame = `# -*- coding: utf-8 -*-
import pygame
pygame.init()
screen = pygame.display.set_mode((800, 600))
running = True
while running:
    for event in pygame.event.get():
        if event.type == pygame.QUIT:
            running = False
    screen.fill((0, 0, 255))
    pygame.display.flip()
pygame.quit()
`

// scriptedGenerator answers the plan request first, then every code request.
type scriptedGenerator struct {
	plan string
	code string
	gate chan struct{}
}

func (g *scriptedGenerator) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	if g.gate != nil {
		<-g.gate
	}
	if req.Model == "phi3:mini" {
		return llm.Response{Text: g.plan, Done: true}, nil
	}
	return llm.Response{Text: g.code, Done: true}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(ctx context.Context, query, category string, topK int) []rag.Result {
	return nil
}

type stubRunner struct {
	result sandbox.Result
}

func (r stubRunner) Run(ctx context.Context, source string) (sandbox.Result, error) {
	return r.result, nil
}

func testAgent(t *testing.T, gen llm.Generator, run sandbox.Runner) *Agent {
	t.Helper()

	cfg := config.Config{
		Models: config.Models{
			Planner: "phi3:mini",
			Coder:   "codellama:7b-instruct",
			Fixer:   "qwen2.5:3b-instruct",
		},
		StatesDir: t.TempDir(),
		GamesDir:  t.TempDir(),
	}
	store, err := task.NewStore(cfg.StatesDir)
	require.NoError(t, err)

	pl := planner.New(gen, stubSearcher{}, cfg.Models)
	cd := coder.New(gen, stubSearcher{}, cfg.Models)
	fx := fixer.New(gen, stubSearcher{}, run, cfg.Models, nil)
	return New(store, pl, cd, fx, cfg)
}

const threeStepPlan = `1. Initialize PyGame and create an 800x600 window
2. Fill the window with a solid blue background color
3. Set up the main loop with quit event handling`

func TestDevelopCompletes(t *testing.T) {
	gen := &scriptedGenerator{plan: threeStepPlan, code: "```python\n" + blueWindowGame + "```"}
	a := testAgent(t, gen, stubRunner{result: sandbox.Result{ExitCode: 0, Stdout: "ok"}})

	state, err := a.Develop(context.Background(), "a window filled with blue")
	require.NoError(t, err)

	assert.Equal(t, task.StatusCompleted, state.Status)
	assert.Equal(t, task.ValidationPassed, state.Validation)
	assert.Len(t, state.Subtasks, 3)
	assert.Len(t, state.CodeHistory, 3)
	assert.NotEmpty(t, state.CurrentCode)
	assert.Greater(t, state.TotalExecutions, 0)
	assert.Equal(t, state.TotalExecutions, state.SuccessfulExecutions)

	path := state.Metadata["saved_file"]
	require.NotEmpty(t, path, "completed task must record the saved game file")
	assert.True(t, strings.HasSuffix(path, ".py"))

	// The final state must be on disk.
	loaded, ok, err := a.Load(state.TaskID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, task.StatusCompleted, loaded.Status)
}

func TestDevelopFailsWhenExecutionFails(t *testing.T) {
	gen := &scriptedGenerator{plan: threeStepPlan, code: "broken(("}
	a := testAgent(t, gen, stubRunner{result: sandbox.Result{ExitCode: 1, Stderr: "SyntaxError: invalid syntax"}})

	state, err := a.Develop(context.Background(), "a window filled with blue")
	require.NoError(t, err, "a failing game is a verdict, not an orchestration error")

	assert.Equal(t, task.StatusFailed, state.Status)
	assert.Equal(t, task.ValidationFailed, state.Validation)
	assert.NotEmpty(t, state.ErrorsDetected, "detected issues must be recorded")
}

func TestStartRejectsConcurrentSession(t *testing.T) {
	gate := make(chan struct{})
	gen := &scriptedGenerator{plan: threeStepPlan, code: blueWindowGame, gate: gate}
	a := testAgent(t, gen, stubRunner{result: sandbox.Result{ExitCode: 0, Stdout: "ok"}})

	first, err := a.Start("first game")
	require.NoError(t, err)

	_, err = a.Start("second game")
	assert.ErrorIs(t, err, ErrSessionActive)

	close(gate)

	select {
	case result := <-a.Results():
		assert.Equal(t, first, result.TaskID)
		require.NoError(t, result.Err)
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
	}

	// The slot is free again.
	_, err = a.Start("third game")
	require.NoError(t, err)
	select {
	case <-a.Results():
	case <-time.After(10 * time.Second):
		t.Fatal("second session did not finish")
	}
}

func TestStatsCountCompletedTasks(t *testing.T) {
	gen := &scriptedGenerator{plan: threeStepPlan, code: blueWindowGame}
	a := testAgent(t, gen, stubRunner{result: sandbox.Result{ExitCode: 0, Stdout: "ok"}})

	_, err := a.Develop(context.Background(), "a window filled with blue")
	require.NoError(t, err)

	s := a.Stats()
	assert.Equal(t, 1, s.GamesCreated)
	assert.Equal(t, 1, s.TasksCompleted)
	assert.Equal(t, 1, s.SavedStates)
}

func TestStatusOfStoredTask(t *testing.T) {
	gen := &scriptedGenerator{plan: threeStepPlan, code: blueWindowGame}
	a := testAgent(t, gen, stubRunner{result: sandbox.Result{ExitCode: 0, Stdout: "ok"}})

	state, err := a.Develop(context.Background(), "a window filled with blue")
	require.NoError(t, err)

	snap, err := a.Status(state.TaskID)
	require.NoError(t, err)
	assert.Equal(t, "completed", snap.Stage)
	assert.Equal(t, 3, snap.TotalSubtasks)

	_, err = a.Status("task_00000000_000000_missing0")
	assert.Error(t, err)
}
