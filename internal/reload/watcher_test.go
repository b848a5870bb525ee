package reload

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder chan Message

func (r recorder) Broadcast(msg Message) { r <- msg }

func TestClassify(t *testing.T) {
	root := filepath.Join("srv", "site")
	const bundle = "/pkg/leptos-todo.css"
	tests := []struct {
		name  string
		event fsnotify.Event
		want  Message
		ok    bool
	}{
		{"stylesheet write", fsnotify.Event{Name: filepath.Join(root, "pkg", "leptos-todo.css"), Op: fsnotify.Write}, Message{CSS: "/pkg/leptos-todo.css"}, true},
		{"stylesheet removed", fsnotify.Event{Name: filepath.Join(root, "pkg", "leptos-todo.css"), Op: fsnotify.Remove}, Message{All: true}, true},
		{"other stylesheet", fsnotify.Event{Name: filepath.Join(root, "css", "bootstrap.min.css"), Op: fsnotify.Write}, Message{All: true}, true},
		{"stylesheet in another package dir", fsnotify.Event{Name: filepath.Join(root, "dist", "leptos-todo.css"), Op: fsnotify.Write}, Message{All: true}, true},
		{"wasm write", fsnotify.Event{Name: filepath.Join(root, "pkg", "leptos-todo_bg.wasm"), Op: fsnotify.Write}, Message{All: true}, true},
		{"chmod only", fsnotify.Event{Name: filepath.Join(root, "pkg", "leptos-todo.js"), Op: fsnotify.Chmod}, Message{}, false},
		{"swap file", fsnotify.Event{Name: filepath.Join(root, "pkg", ".leptos-todo.css.swp"), Op: fsnotify.Write}, Message{}, false},
		{"outside root", fsnotify.Event{Name: filepath.Join("srv", "other.css"), Op: fsnotify.Write}, Message{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Classify(root, bundle, tt.event)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMerge(t *testing.T) {
	css := Message{CSS: "/pkg/a.css"}
	assert.Equal(t, &css, merge(nil, css))
	assert.Equal(t, &css, merge(&css, css))
	assert.Equal(t, &Message{All: true}, merge(&css, Message{CSS: "/pkg/b.css"}))
	assert.Equal(t, &Message{All: true}, merge(&css, Message{All: true}))
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0o755))
	css := filepath.Join(root, "pkg", "leptos-todo.css")
	require.NoError(t, os.WriteFile(css, []byte("a{}"), 0o644))

	out := make(recorder, 16)
	w, err := NewWatcher(root, "/pkg/leptos-todo.css", out)
	require.NoError(t, err)
	w.debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	require.NoError(t, os.WriteFile(css, []byte("b{}"), 0o644))
	select {
	case msg := <-out:
		assert.Equal(t, Message{CSS: "/pkg/leptos-todo.css"}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no message for stylesheet change")
	}

	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "leptos-todo.js"), []byte("1"), 0o644))
	select {
	case msg := <-out:
		assert.Equal(t, Message{All: true}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no message for script change")
	}
}
