package fileref

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Handle is the host's native file object: a snapshot of a file's metadata
// bound to the source that holds its content. Content is only read on demand.
//
// A Handle is immutable and safe for concurrent use.
type Handle struct {
	source       string
	key          string
	name         string
	mimeType     string
	size         int64
	lastModified time.Time

	fs      FileReader
	verify  bool
	maxRead int64
	log     *zap.Logger
}

// Source returns the name of the source holding the file.
func (h *Handle) Source() string { return h.source }

// Key returns the file's location inside its source.
func (h *Handle) Key() string { return h.key }

// Name returns the original file name.
func (h *Handle) Name() string { return h.name }

// Type returns the declared MIME type, possibly empty.
func (h *Handle) Type() string { return h.mimeType }

// Size returns the length of the file in bytes.
func (h *Handle) Size() int64 { return h.size }

// LastModified returns the modification time recorded when the file was
// selected, with millisecond precision.
func (h *Handle) LastModified() time.Time { return h.lastModified }

// Open returns a stream over the file's content. The caller must close it.
func (h *Handle) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := h.check(ctx, "open"); err != nil {
		return nil, err
	}
	return h.fs.Read(ctx, h.key)
}

// ReadAll reads the file's full content into memory.
func (h *Handle) ReadAll(ctx context.Context) ([]byte, error) {
	data, err := h.readAll(ctx)
	if err != nil && h != nil && h.log != nil {
		h.log.Debug("read file failed",
			zap.String("source", h.source),
			zap.String("key", h.key),
			zap.Error(err))
	}
	return data, err
}

func (h *Handle) readAll(ctx context.Context) ([]byte, error) {
	if err := h.check(ctx, "read"); err != nil {
		return nil, err
	}

	rc, err := h.fs.Read(ctx, h.key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if h.maxRead > 0 {
		r = io.LimitReader(rc, h.maxRead+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &PathError{Op: "read", Path: h.key, Err: err}
	}
	if h.maxRead > 0 && int64(len(data)) > h.maxRead {
		return nil, &PathError{Op: "read", Path: h.key, Err: ErrTooLarge}
	}
	if h.verify && int64(len(data)) != h.size {
		return nil, &PathError{Op: "read", Path: h.key, Err: ErrSnapshotChanged}
	}
	return data, nil
}

// check runs the host's pre-read checks: the read limit and, when enabled,
// that the file still matches its snapshot.
func (h *Handle) check(ctx context.Context, op string) error {
	if h == nil || h.fs == nil {
		return ErrInvalidFile
	}
	if h.maxRead > 0 && h.size > h.maxRead {
		return &PathError{Op: op, Path: h.key, Err: ErrTooLarge}
	}
	if !h.verify {
		return nil
	}

	info, err := h.fs.Stat(ctx, h.key)
	if err != nil {
		return err
	}
	if info.IsDir {
		return &PathError{Op: op, Path: h.key, Err: ErrIsDir}
	}
	if info.Size != h.size || info.ModTime.UnixMilli() != h.lastModified.UnixMilli() {
		return &PathError{Op: op, Path: h.key, Err: ErrSnapshotChanged}
	}
	return nil
}

// ============================================================================
// Wire format
// ============================================================================

const wireKind = "file"

// wireHandle is the serialized shape of a Handle. Field order is the order
// hosts emit.
type wireHandle struct {
	Kind         string `json:"kind"`
	Source       string `json:"source"`
	Key          string `json:"key"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"lastModified"`
}

func marshalWire(w wireHandle) (json.RawMessage, error) {
	w.Kind = wireKind
	return json.Marshal(w)
}

// parseWire checks that data is structurally a serialized handle.
func parseWire(data []byte) (*wireHandle, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, mismatch("", "%v", err)
	}
	if fields == nil {
		return nil, mismatch("", "got null")
	}

	kind, err := stringField(fields, "kind", true)
	if err != nil {
		return nil, err
	}
	if kind != wireKind {
		return nil, mismatch("kind", "got %q", kind)
	}

	w := &wireHandle{Kind: kind}
	if w.Source, err = stringField(fields, "source", true); err != nil {
		return nil, err
	}
	if w.Key, err = stringField(fields, "key", true); err != nil {
		return nil, err
	}
	if w.Name, err = stringField(fields, "name", true); err != nil {
		return nil, err
	}
	if w.Type, err = stringField(fields, "type", false); err != nil {
		return nil, err
	}
	if w.Size, err = intField(fields, "size"); err != nil {
		return nil, err
	}
	if w.Size < 0 {
		return nil, mismatch("size", "must not be negative, got %d", w.Size)
	}
	if w.LastModified, err = intField(fields, "lastModified"); err != nil {
		return nil, err
	}

	if w.Source == "" {
		return nil, mismatch("source", "must not be empty")
	}
	if w.Key == "" {
		return nil, mismatch("key", "must not be empty")
	}
	return w, nil
}

func stringField(fields map[string]json.RawMessage, name string, required bool) (string, error) {
	raw, ok := fields[name]
	if !ok {
		if required {
			return "", mismatch(name, "missing")
		}
		return "", nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil || isNull(raw) {
		return "", mismatch(name, "expecting a string, got %s", raw)
	}
	return s, nil
}

func intField(fields map[string]json.RawMessage, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok {
		return 0, mismatch(name, "missing")
	}

	n, err := strconv.ParseInt(string(bytes.TrimSpace(raw)), 10, 64)
	if err != nil {
		return 0, mismatch(name, "expecting an integer, got %s", raw)
	}
	return n, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// wireFromInfo builds the serialized shape for a file reported by a source.
func wireFromInfo(source, key string, info *FileInfo) wireHandle {
	name := info.Name
	if name == "" {
		name = baseName(key)
	}
	contentType := info.ContentType
	if contentType == "" {
		contentType = TypeByExtension(name)
	}
	return wireHandle{
		Source:       source,
		Key:          key,
		Name:         name,
		Type:         contentType,
		Size:         info.Size,
		LastModified: info.ModTime.UnixMilli(),
	}
}

func (h *Handle) String() string {
	return fmt.Sprintf("%s:%s", h.source, h.key)
}
