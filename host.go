package fileref

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Host is the environment files are selected in and read from. It owns a set
// of named sources, turns serialized values into native handles and supplies
// the content backend those handles read through.
//
// Example:
//
//	host := fileref.NewHost(fileref.WithSource("uploads", memory.New()))
//	sel, err := host.Select(ctx, "uploads", "report.csv")
//	msg, _ := sel.Marshal()
//	// ...send msg across the boundary...
//	file, err := host.DecodeFirst(msg)
type Host struct {
	mu      sync.RWMutex
	sources map[string]FileReader

	verify  bool
	maxRead int64
	log     *zap.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithSource mounts fs under name.
func WithSource(name string, fs FileReader) HostOption {
	return func(h *Host) {
		h.sources[name] = fs
	}
}

// WithSnapshotVerification enables or disables checking, before every read,
// that a file still matches the metadata captured when it was selected.
// Default: true
func WithSnapshotVerification(enabled bool) HostOption {
	return func(h *Host) {
		h.verify = enabled
	}
}

// WithMaxReadSize rejects content reads of files larger than n bytes.
// Zero means unlimited.
func WithMaxReadSize(n int64) HostOption {
	return func(h *Host) {
		h.maxRead = n
	}
}

// WithLogger sets the host's logger. Defaults to the package logger.
func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHost creates a Host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		sources: make(map[string]FileReader),
		verify:  true,
		log:     Logger(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Mount registers fs under name.
func (h *Host) Mount(name string, fs FileReader) error {
	if name == "" {
		return errors.New("source name is required")
	}
	if fs == nil {
		return errors.New("source is nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sources[name]; exists {
		return fmt.Errorf("source %q already mounted", name)
	}
	h.sources[name] = fs
	return nil
}

// Unmount removes the source registered under name. Handles already decoded
// keep reading from it.
func (h *Host) Unmount(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.sources[name]; !exists {
		return fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	delete(h.sources, name)
	return nil
}

// Source returns the source registered under name.
func (h *Host) Source(name string) (FileReader, error) {
	h.mu.RLock()
	fs, ok := h.sources[name]
	h.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSource, name)
	}
	return fs, nil
}

// Sources returns the names of all mounted sources, sorted.
func (h *Host) Sources() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	names := make([]string, 0, len(h.sources))
	for name := range h.sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ============================================================================
// Decode / Encode boundary
// ============================================================================

// DecodeHandle interprets data as a serialized file handle and binds it to
// its source. Failures are *DecodeError.
func (h *Host) DecodeHandle(data []byte) (*Handle, error) {
	w, err := parseWire(data)
	if err != nil {
		return nil, err
	}

	fs, err := h.Source(w.Source)
	if err != nil {
		return nil, &DecodeError{Index: -1, Field: "source", Err: err}
	}

	return &Handle{
		source:       w.Source,
		key:          w.Key,
		name:         w.Name,
		mimeType:     w.Type,
		size:         w.Size,
		lastModified: time.UnixMilli(w.LastModified),
		fs:           fs,
		verify:       h.verify,
		maxRead:      h.maxRead,
		log:          h.log,
	}, nil
}

// EncodeHandle serializes hd. Envelopes never call this; it is how the host
// produces values for new selections.
func (h *Host) EncodeHandle(hd *Handle) (json.RawMessage, error) {
	if hd == nil {
		return nil, ErrInvalidFile
	}
	return marshalWire(wireHandle{
		Source:       hd.source,
		Key:          hd.key,
		Name:         hd.name,
		Type:         hd.mimeType,
		Size:         hd.size,
		LastModified: hd.lastModified.UnixMilli(),
	})
}

// ============================================================================
// Selections
// ============================================================================

// Selection is the event a host delivers when files are picked: an ordered
// list of serialized handles.
type Selection struct {
	Files []json.RawMessage `json:"files"`
}

// Len returns the number of selected files.
func (s *Selection) Len() int { return len(s.Files) }

// Marshal serializes the selection event.
func (s *Selection) Marshal() ([]byte, error) {
	if s.Files == nil {
		return json.Marshal(Selection{Files: []json.RawMessage{}})
	}
	return json.Marshal(s)
}

// Select picks the files at keys on source, in order.
func (h *Host) Select(ctx context.Context, source string, keys ...string) (*Selection, error) {
	fs, err := h.Source(source)
	if err != nil {
		return nil, err
	}

	sel := &Selection{Files: make([]json.RawMessage, 0, len(keys))}
	for _, key := range keys {
		info, err := fs.Stat(ctx, key)
		if err != nil {
			return nil, err
		}
		if info.IsDir {
			return nil, &PathError{Op: "select", Path: key, Err: ErrIsDir}
		}

		raw, err := marshalWire(wireFromInfo(source, key, info))
		if err != nil {
			return nil, err
		}
		sel.Files = append(sel.Files, raw)
	}

	h.log.Debug("files selected", zap.String("source", source), zap.Int("count", sel.Len()))
	return sel, nil
}

// SelectMatching picks every file under dir on source accepted by selector.
// Results are ordered by path.
func (h *Host) SelectMatching(ctx context.Context, source, dir string, selector Selector, recursive bool) (*Selection, error) {
	fs, err := h.Source(source)
	if err != nil {
		return nil, err
	}

	infos, err := ListWithSelector(ctx, fs, dir, selector, recursive)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	sel := &Selection{Files: make([]json.RawMessage, 0, len(infos))}
	for i := range infos {
		raw, err := marshalWire(wireFromInfo(source, infos[i].Path, &infos[i]))
		if err != nil {
			return nil, err
		}
		sel.Files = append(sel.Files, raw)
	}

	h.log.Debug("files selected",
		zap.String("source", source),
		zap.String("dir", dir),
		zap.Int("count", sel.Len()))
	return sel, nil
}

// WatchSelections delivers a fresh selection of files under dir accepted by
// selector every time the source reports a change matching pattern. The
// listing descends into subdirectories when recursive is set, as with
// SelectMatching. The source must implement CanWatch. Call the returned
// cancel to stop.
func (h *Host) WatchSelections(ctx context.Context, source, pattern, dir string, selector Selector, recursive bool, fn func(*Selection, error)) (cancel func(), err error) {
	fs, err := h.Source(source)
	if err != nil {
		return nil, err
	}
	watcher, ok := fs.(CanWatch)
	if !ok {
		return nil, fmt.Errorf("%w: source %q cannot watch", ErrNotSupported, source)
	}

	// Fail fast on a bad pattern instead of inside the watch loop.
	firstCtx, firstCancel := context.WithCancel(ctx)
	first, err := watcher.Watch(firstCtx, pattern)
	if err != nil {
		firstCancel()
		return nil, err
	}

	stop := OnChange(ctx,
		func(ctx context.Context) (ChangeToken, error) {
			if first != nil {
				token := first
				first = nil
				return token, nil
			}
			firstCancel()
			return watcher.Watch(ctx, pattern)
		},
		func() {
			fn(h.SelectMatching(ctx, source, dir, selector, recursive))
		},
	)
	return func() {
		stop()
		firstCancel()
	}, nil
}
