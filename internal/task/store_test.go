package task

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	s := store.Create("make a snake game")
	require.True(t, strings.HasPrefix(s.TaskID, "task_"))
	assert.Equal(t, StatusPending, s.Status)
	assert.Equal(t, ValidationNotStarted, s.Validation)
	assert.NotNil(t, s.Metadata)

	s.SetPlan([]string{"init window", "draw snake"})
	s.AddRevision("init window", "import pygame", "codellama:7b-instruct")
	s.AddError("missing_init", "Missing pygame.init()", "import pygame", "auto_fix")
	s.RecordModel("phi3:mini")
	s.RecordRAGSearches(2)
	s.RecordExecution(false)
	s.Metadata["saved_file"] = "games/generated/game_snake.py"
	require.NoError(t, s.SetStatus(StatusCoding))

	require.NoError(t, store.Save(s))

	loaded, ok, err := store.Load(s.TaskID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, s, loaded, "a saved state must load back identically")
}

func TestStoreLoadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, ok, err := store.Load("task_20250101_000000_deadbeef")
	require.NoError(t, err, "a missing task is not an error")
	assert.False(t, ok)
}

func TestStoreList(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	a := store.Create("first")
	b := store.Create("second")
	require.NoError(t, store.Save(a))
	require.NoError(t, store.Save(b))

	ids, err = store.List()
	require.NoError(t, err)
	assert.Len(t, ids, 2)
	assert.Contains(t, ids, a.TaskID)
	assert.Contains(t, ids, b.TaskID)
}

func TestStoreSaveOverwrites(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	s := store.Create("overwrite me")
	require.NoError(t, store.Save(s))

	s.AddRevision("step", "new code", "codellama:7b-instruct")
	require.NoError(t, store.Save(s))

	loaded, ok, err := store.Load(s.TaskID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new code", loaded.CurrentCode)
	require.Len(t, loaded.CodeHistory, 1)
}
