package storage

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "Todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func tasks(items []TodoItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Task)
	}
	return out
}

func TestAddAndList(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	items, err := s.ListTodos(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)

	a, err := s.AddTodo(ctx, "Take out the trash")
	require.NoError(t, err)
	b, err := s.AddTodo(ctx, "  Water plants  ")
	require.NoError(t, err)
	assert.Less(t, a.ID, b.ID)
	assert.Equal(t, "Water plants", b.Task)

	items, err = s.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TodoItem{
		{ID: a.ID, Task: "Take out the trash"},
		{ID: b.ID, Task: "Water plants"},
	}, items)
}

func TestAddEmpty(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.AddTodo(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyTask)
}

func TestToggleTwiceRestores(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	item, err := s.AddTodo(ctx, "toggle me")
	require.NoError(t, err)

	require.NoError(t, s.ToggleTodo(ctx, item.ID))
	items, err := s.ListTodos(ctx)
	require.NoError(t, err)
	assert.True(t, items[0].Done)

	require.NoError(t, s.ToggleTodo(ctx, item.ID))
	items, err = s.ListTodos(ctx)
	require.NoError(t, err)
	assert.False(t, items[0].Done)
}

func TestMissingID(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	assert.ErrorIs(t, s.ToggleTodo(ctx, 42), ErrNotFound)
	assert.ErrorIs(t, s.DeleteTodo(ctx, 42), ErrNotFound)
}

func TestBulkOperations(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	for _, task := range []string{"a", "b", "c"} {
		_, err := s.AddTodo(ctx, task)
		require.NoError(t, err)
	}

	require.NoError(t, s.MarkAllDone(ctx))
	total, done, err := s.CountTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 3, done)

	require.NoError(t, s.MarkAllUndone(ctx))
	_, done, err = s.CountTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, done)

	items, err := s.ListTodos(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DeleteTodo(ctx, items[1].ID))
	items, err = s.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, tasks(items))

	require.NoError(t, s.DeleteAll(ctx))
	total, done, err = s.CountTodos(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, done)
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	for _, task := range []string{"Buy milk", "buy bread", "Call mom", "100% done", "snake_case"} {
		_, err := s.AddTodo(ctx, task)
		require.NoError(t, err)
	}

	tests := []struct {
		search string
		want   []string
	}{
		{"buy", []string{"Buy milk", "buy bread"}},
		{"mom", []string{"Call mom"}},
		{"%", []string{"100% done"}},
		{"_", []string{"snake_case"}},
		{"nothing", []string{}},
		{"", []string{"Buy milk", "buy bread", "Call mom", "100% done", "snake_case"}},
	}
	for _, tt := range tests {
		t.Run(tt.search, func(t *testing.T) {
			items, err := s.SearchTodos(ctx, tt.search)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tasks(items))
		})
	}
}

func TestReplaceAll(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	_, err := s.AddTodo(ctx, "old")
	require.NoError(t, err)

	restored := []TodoItem{
		{ID: 7, Done: true, Task: "seven"},
		{ID: 9, Task: "nine"},
	}
	require.NoError(t, s.ReplaceAll(ctx, restored))

	items, err := s.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, restored, items)

	next, err := s.AddTodo(ctx, "after restore")
	require.NoError(t, err)
	assert.Greater(t, next.ID, uint32(9))
}

func TestConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AddTodo(ctx, "concurrent")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	total, _, err := s.CountTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, total)
}

func TestReopenPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "Todos.db")

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.AddTodo(ctx, "persisted")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()
	items, err := s.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"persisted"}, tasks(items))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now\\`, escapeLike(`50% off_now\`))
}
