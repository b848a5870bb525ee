package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/johann/leptos-todo/internal/storage"
)

// Store is the object storage snapshots are written to.
type Store interface {
	Put(ctx context.Context, key string, data []byte, meta map[string]string) error
	Get(ctx context.Context, key string) ([]byte, map[string]string, error)
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// Todos is the part of the todo storage snapshots need.
type Todos interface {
	ListTodos(ctx context.Context) ([]storage.TodoItem, error)
	ReplaceAll(ctx context.Context, items []storage.TodoItem) error
}

// Info describes a stored snapshot
type Info struct {
	Key       string
	CreatedAt time.Time
	Size      int64
}

// Push uploads the current todo list and returns the written snapshot.
func Push(ctx context.Context, todos Todos, store Store, prefix string) (*Snapshot, error) {
	items, err := todos.ListTodos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read todos: %w", err)
	}

	snap, err := Encode(prefix, items, time.Now())
	if err != nil {
		return nil, err
	}
	if err := store.Put(ctx, snap.Key, snap.Data, snap.Metadata()); err != nil {
		return nil, fmt.Errorf("failed to upload snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot pushed", "key", snap.Key, "todos", snap.Count, "bytes", len(snap.Data), "encoding", snap.Encoding)
	return snap, nil
}

// List returns stored snapshots, newest first.
func List(ctx context.Context, store Store, prefix string) ([]Info, error) {
	objects, err := store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	var result []Info
	for _, obj := range objects {
		createdAt, err := ParseKey(obj.Key)
		if err != nil {
			continue
		}
		result = append(result, Info{Key: obj.Key, CreatedAt: createdAt, Size: obj.Size})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key > result[j].Key
	})
	return result, nil
}

// Pull restores the snapshot at key, or the newest one when key is empty,
// replacing every todo. It returns the restored document.
func Pull(ctx context.Context, todos Todos, store Store, prefix, key string) (*Document, error) {
	if key == "" {
		infos, err := List(ctx, store, prefix)
		if err != nil {
			return nil, err
		}
		if len(infos) == 0 {
			return nil, fmt.Errorf("no snapshots found under %q", prefix)
		}
		key = infos[0].Key
	}

	data, meta, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to download snapshot: %w", err)
	}
	doc, err := Decode(data, meta)
	if err != nil {
		return nil, err
	}
	if err := todos.ReplaceAll(ctx, doc.Todos); err != nil {
		return nil, fmt.Errorf("failed to restore todos: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot restored", "key", key, "todos", len(doc.Todos))
	return doc, nil
}

// Delete removes the snapshot at key. Keys that are not snapshots are refused.
func Delete(ctx context.Context, store Store, key string) error {
	if _, err := ParseKey(key); err != nil {
		return err
	}
	if err := store.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	slog.InfoContext(ctx, "Snapshot deleted", "key", key)
	return nil
}

// Prune deletes all but the newest keep snapshots under prefix and returns
// the deleted keys.
func Prune(ctx context.Context, store Store, prefix string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, fmt.Errorf("keep must be at least 1, got %d", keep)
	}
	infos, err := List(ctx, store, prefix)
	if err != nil {
		return nil, err
	}
	if len(infos) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, info := range infos[keep:] {
		if err := Delete(ctx, store, info.Key); err != nil {
			return deleted, err
		}
		deleted = append(deleted, info.Key)
	}
	return deleted, nil
}
