package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/johann/leptos-todo/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	meta    map[string]map[string]string
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, meta map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.meta[key] = meta
	return nil
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", storage.ErrObjectNotFound, key)
	}
	return data, m.meta[key], nil
}

func (m *memStore) List(_ context.Context, prefix string) ([]storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []storage.ObjectInfo
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.ObjectInfo{Key: k, Size: int64(len(v))})
		}
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.meta, key)
	return nil
}

func newTodos(t *testing.T) *storage.Storage {
	t.Helper()
	s, err := storage.New(filepath.Join(t.TempDir(), "Todos.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEncodeDecode(t *testing.T) {
	todos := make([]storage.TodoItem, 0, 50)
	for i := 1; i <= 50; i++ {
		todos = append(todos, storage.TodoItem{ID: uint32(i), Done: i%2 == 0, Task: "repeated task text"})
	}
	now := time.Date(2026, 10, 19, 12, 30, 45, 0, time.UTC)

	snap, err := Encode("snapshots/", todos, now)
	require.NoError(t, err)
	assert.Equal(t, encodingLZ4, snap.Encoding)
	assert.Less(t, int64(len(snap.Data)), snap.OriginalSize)
	assert.True(t, strings.HasPrefix(snap.Key, "snapshots/20261019T123045Z-"), snap.Key)
	assert.True(t, strings.HasSuffix(snap.Key, ".json.lz4"), snap.Key)
	assert.Equal(t, 50, snap.Count)

	doc, err := Decode(snap.Data, snap.Metadata())
	require.NoError(t, err)
	assert.Equal(t, todos, doc.Todos)
	assert.True(t, now.Equal(doc.CreatedAt))
}

func TestEncodeEmpty(t *testing.T) {
	snap, err := Encode("snapshots", nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, snap.Count)
	assert.Equal(t, encodingRaw, snap.Encoding)
	assert.True(t, strings.HasSuffix(snap.Key, ".json"), snap.Key)
	assert.False(t, strings.HasSuffix(snap.Key, ".lz4"), snap.Key)

	doc, err := Decode(snap.Data, snap.Metadata())
	require.NoError(t, err)
	assert.Empty(t, doc.Todos)
}

func TestDecodeCapitalizedMetadata(t *testing.T) {
	todos := []storage.TodoItem{{ID: 1, Task: strings.Repeat("abc", 100)}}
	snap, err := Encode("", todos, time.Now())
	require.NoError(t, err)
	require.Equal(t, encodingLZ4, snap.Encoding)

	meta := map[string]string{}
	for k, v := range snap.Metadata() {
		meta[strings.ToUpper(k[:1])+k[1:]] = v
	}
	doc, err := Decode(snap.Data, meta)
	require.NoError(t, err)
	assert.Equal(t, todos, doc.Todos)
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("{"), nil)
	assert.Error(t, err)

	_, err = Decode([]byte(`{"version":99,"todos":[]}`), nil)
	assert.Error(t, err)

	_, err = Decode([]byte("xx"), map[string]string{"encoding": "lz4"})
	assert.Error(t, err)

	// A tiny body claiming a huge decompressed size is refused before allocating.
	_, err = Decode([]byte("xx"), map[string]string{"encoding": "lz4", "original-size": "9000000000000000000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than")

	_, err = Decode(make([]byte, 1024), map[string]string{"encoding": "lz4", "original-size": "1000000"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than")
}

func TestParseKey(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	key := Key("snapshots/", now, "bafkabc", encodingLZ4)
	assert.Equal(t, "snapshots/20260102T030405Z-bafkabc.json.lz4", key)
	rawKey := Key("snapshots/", now, "bafkabc", encodingRaw)
	assert.Equal(t, "snapshots/20260102T030405Z-bafkabc.json", rawKey)

	for _, k := range []string{key, rawKey} {
		got, err := ParseKey(k)
		require.NoError(t, err)
		assert.True(t, now.Equal(got))
	}

	_, err := ParseKey("snapshots/20260102T030405Z-bafkabc.lz4")
	assert.Error(t, err)

	_, err = ParseKey("snapshots/readme.txt")
	assert.Error(t, err)
}

func TestPushPull(t *testing.T) {
	ctx := context.Background()
	src := newTodos(t)
	store := newMemStore()

	_, err := src.AddTodo(ctx, "first")
	require.NoError(t, err)
	second, err := src.AddTodo(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, src.ToggleTodo(ctx, second.ID))

	snap, err := Push(ctx, src, store, "snapshots/")
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)

	dst := newTodos(t)
	_, err = dst.AddTodo(ctx, "will be replaced")
	require.NoError(t, err)

	doc, err := Pull(ctx, dst, store, "snapshots/", "")
	require.NoError(t, err)
	assert.Len(t, doc.Todos, 2)

	want, err := src.ListTodos(ctx)
	require.NoError(t, err)
	got, err := dst.ListTodos(ctx)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestPullPicksNewest(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	older, err := Encode("s/", []storage.TodoItem{{ID: 1, Task: "old"}}, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	newer, err := Encode("s/", []storage.TodoItem{{ID: 1, Task: "new"}}, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, snap := range []*Snapshot{newer, older} {
		require.NoError(t, store.Put(ctx, snap.Key, snap.Data, snap.Metadata()))
	}
	require.NoError(t, store.Put(ctx, "s/notes.txt", []byte("ignored"), nil))

	infos, err := List(ctx, store, "s/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, newer.Key, infos[0].Key)

	dst := newTodos(t)
	doc, err := Pull(ctx, dst, store, "s/", "")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Todos[0].Task)

	doc, err = Pull(ctx, dst, store, "s/", older.Key)
	require.NoError(t, err)
	assert.Equal(t, "old", doc.Todos[0].Task)
}

func TestPullEmpty(t *testing.T) {
	_, err := Pull(context.Background(), newTodos(t), newMemStore(), "snapshots/", "")
	assert.Error(t, err)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	var keys []string
	for month := 1; month <= 4; month++ {
		snap, err := Encode("s/", []storage.TodoItem{{ID: 1, Task: "task"}}, time.Date(2026, time.Month(month), 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NoError(t, store.Put(ctx, snap.Key, snap.Data, snap.Metadata()))
		keys = append(keys, snap.Key)
	}
	require.NoError(t, store.Put(ctx, "s/notes.txt", []byte("kept"), nil))

	deleted, err := Prune(ctx, store, "s/", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{keys[1], keys[0]}, deleted)

	infos, err := List(ctx, store, "s/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, keys[3], infos[0].Key)
	assert.Equal(t, keys[2], infos[1].Key)

	_, _, err = store.Get(ctx, "s/notes.txt")
	assert.NoError(t, err)

	deleted, err = Prune(ctx, store, "s/", 5)
	require.NoError(t, err)
	assert.Empty(t, deleted)

	_, err = Prune(ctx, store, "s/", 0)
	assert.Error(t, err)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()

	snap, err := Encode("s/", nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Put(ctx, snap.Key, snap.Data, snap.Metadata()))
	require.NoError(t, store.Put(ctx, "s/notes.txt", []byte("kept"), nil))

	require.NoError(t, Delete(ctx, store, snap.Key))
	infos, err := List(ctx, store, "s/")
	require.NoError(t, err)
	assert.Empty(t, infos)

	assert.Error(t, Delete(ctx, store, "s/notes.txt"))
	_, _, err = store.Get(ctx, "s/notes.txt")
	assert.NoError(t, err)
}
