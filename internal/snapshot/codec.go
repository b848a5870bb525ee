package snapshot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/johann/leptos-todo/internal/cid"
	"github.com/johann/leptos-todo/internal/storage"
	"github.com/pierrec/lz4/v4"
)

// Encode serializes todos into a snapshot stored under prefix.
func Encode(prefix string, todos []storage.TodoItem, now time.Time) (*Snapshot, error) {
	if todos == nil {
		todos = []storage.TodoItem{}
	}
	doc := Document{
		Version:   FormatVersion,
		CreatedAt: now.UTC().Truncate(time.Second),
		Todos:     todos,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id, err := cid.Generate(raw)
	if err != nil {
		return nil, err
	}

	data, encoding := compress(raw)
	return &Snapshot{
		Key:          Key(prefix, doc.CreatedAt, id, encoding),
		CreatedAt:    doc.CreatedAt,
		Count:        len(todos),
		OriginalSize: int64(len(raw)),
		Encoding:     encoding,
		Data:         data,
	}, nil
}

// Decode reverses Encode using the metadata stored with the object.
func Decode(data []byte, meta map[string]string) (*Document, error) {
	meta = normalize(meta)
	raw := data
	if meta[metaEncoding] == encodingLZ4 {
		size, err := strconv.ParseInt(meta[metaOriginalSize], 10, 64)
		if err != nil || size <= 0 {
			return nil, fmt.Errorf("snapshot has no valid %s metadata", metaOriginalSize)
		}
		raw, err = decompress(data, size)
		if err != nil {
			return nil, err
		}
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	return &doc, nil
}

// compress uses an LZ4 block when it saves space.
func compress(raw []byte) ([]byte, string) {
	buf := make([]byte, lz4.CompressBlockBound(len(raw)))
	n, err := lz4.CompressBlock(raw, buf, nil)
	if err != nil || n == 0 || n >= len(raw) {
		return raw, encodingRaw
	}
	return buf[:n], encodingLZ4
}

// decompress refuses sizes an LZ4 block of len(compressed) bytes cannot
// expand to before allocating the output buffer.
func decompress(compressed []byte, originalSize int64) ([]byte, error) {
	limit := min(int64(maxDocumentSize), int64(len(compressed))*255+16)
	if originalSize > limit {
		return nil, fmt.Errorf("snapshot claims %d bytes, more than %d allowed", originalSize, limit)
	}
	decompressed := make([]byte, originalSize)
	n, err := lz4.UncompressBlock(compressed, decompressed)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	return decompressed[:n], nil
}

// normalize lowercases metadata keys; some S3 implementations capitalize them.
func normalize(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[strings.ToLower(k)] = v
	}
	return out
}
