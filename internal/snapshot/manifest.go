// Package snapshot exports the todo list to object storage and restores it.
package snapshot

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/johann/leptos-todo/internal/storage"
)

const (
	// FormatVersion is bumped when Document changes incompatibly.
	FormatVersion = 1

	keyTimeFormat = "20060102T150405Z"

	// maxDocumentSize bounds the decompressed size a snapshot may claim.
	maxDocumentSize = 64 << 20

	metaOriginalSize = "original-size"
	metaEncoding     = "encoding"
	metaCount        = "count"

	encodingLZ4 = "lz4"
	encodingRaw = "raw"
)

// Document is the JSON body of a snapshot
type Document struct {
	Version   int                `json:"version"`
	CreatedAt time.Time          `json:"created_at"`
	Todos     []storage.TodoItem `json:"todos"`
}

// Snapshot is an encoded Document ready for upload
type Snapshot struct {
	Key          string
	CreatedAt    time.Time
	Count        int
	OriginalSize int64
	Encoding     string
	Data         []byte
}

// Metadata returns the object metadata stored alongside the snapshot.
func (s *Snapshot) Metadata() map[string]string {
	return map[string]string{
		metaOriginalSize: strconv.FormatInt(s.OriginalSize, 10),
		metaEncoding:     s.Encoding,
		metaCount:        strconv.Itoa(s.Count),
	}
}

// keySuffix names the object after its body: plain JSON or an LZ4 block.
func keySuffix(encoding string) string {
	if encoding == encodingLZ4 {
		return ".json.lz4"
	}
	return ".json"
}

// Key builds the object key for a snapshot. Keys sort by creation time.
func Key(prefix string, createdAt time.Time, id, encoding string) string {
	return path.Join(prefix, createdAt.UTC().Format(keyTimeFormat)+"-"+id+keySuffix(encoding))
}

// ParseKey extracts the creation time from a key produced by Key.
func ParseKey(key string) (time.Time, error) {
	base := path.Base(key)
	if !strings.HasSuffix(base, keySuffix(encodingLZ4)) && !strings.HasSuffix(base, keySuffix(encodingRaw)) {
		return time.Time{}, fmt.Errorf("not a snapshot key: %s", key)
	}
	stamp, _, ok := strings.Cut(base, "-")
	if !ok {
		return time.Time{}, fmt.Errorf("not a snapshot key: %s", key)
	}
	return time.Parse(keyTimeFormat, stamp)
}
