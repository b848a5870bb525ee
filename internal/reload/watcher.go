package reload

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Broadcaster receives change notifications.
type Broadcaster interface {
	Broadcast(Message)
}

// Watcher watches the site root and turns file changes into messages.
type Watcher struct {
	root     string
	bundle   string
	out      Broadcaster
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// NewWatcher starts watching every directory under root. bundle is the
// href of the stylesheet pages can swap without reloading.
func NewWatcher(root, bundle string, out Broadcaster) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		bundle:   bundle,
		out:      out,
		debounce: 100 * time.Millisecond,
		fsw:      fsw,
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fsw.Add(p)
		}
		return nil
	})
}

// Run delivers debounced messages until ctx is canceled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.fsw.Close() }()

	var (
		pending *Message
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) {
				// New directories must be watched explicitly.
				_ = w.addTree(event.Name)
			}
			msg, ok := Classify(w.root, w.bundle, event)
			if !ok {
				continue
			}
			pending = merge(pending, msg)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if pending != nil {
				w.out.Broadcast(*pending)
				pending = nil
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.WarnContext(ctx, "Error watching site", "err", err)
		}
	}
}

// Classify maps a filesystem event under root to the message pages need.
// Only a change to the bundle stylesheet is swapped in place.
// Chmod-only events and editor temp files are ignored.
func Classify(root, bundle string, event fsnotify.Event) (Message, bool) {
	if event.Op == fsnotify.Chmod {
		return Message{}, false
	}
	base := filepath.Base(event.Name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return Message{}, false
	}

	rel, err := filepath.Rel(root, event.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Message{}, false
	}
	href := "/" + filepath.ToSlash(rel)
	if href == bundle && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return Message{CSS: href}, true
	}
	return Message{All: true}, true
}

// merge combines two changes inside one debounce window. Two different
// stylesheets, or anything besides a stylesheet, need a full reload.
func merge(prev *Message, next Message) *Message {
	if prev == nil {
		return &next
	}
	if prev.All || next.All || prev.CSS != next.CSS {
		return &Message{All: true}
	}
	return prev
}
