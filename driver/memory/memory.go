// Package memory provides an in-memory content source. It is useful for tests
// and for hosts that receive uploads into memory before handing them on.
package memory

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gobeaver/fileref"
	"github.com/gobwas/glob"
)

// memoryFile represents a file stored in memory
type memoryFile struct {
	content     []byte
	contentType string
	modTime     time.Time
}

// watchEntry represents a single watch subscription
type watchEntry struct {
	filter glob.Glob
	token  *fileref.CallbackChangeToken
}

// Adapter is an in-memory fileref.FileReader that can also be written to.
type Adapter struct {
	mu      sync.RWMutex
	files   map[string]*memoryFile
	dirs    map[string]time.Time
	maxSize int64 // Maximum total storage size (0 = unlimited)
	size    int64 // Current total size

	watchMu sync.RWMutex
	watches []*watchEntry
}

// Config holds configuration for the memory adapter
type Config struct {
	// MaxSize is the maximum total storage size in bytes (0 = unlimited)
	MaxSize int64
}

// New creates a new in-memory adapter
func New(cfg ...Config) *Adapter {
	var maxSize int64
	if len(cfg) > 0 {
		maxSize = cfg[0].MaxSize
	}

	return &Adapter{
		files:   make(map[string]*memoryFile),
		dirs:    map[string]time.Time{"": time.Now()},
		maxSize: maxSize,
	}
}

// WriteOption configures a Write.
type WriteOption func(*writeOptions)

type writeOptions struct {
	contentType string
	modTime     time.Time
}

// WithContentType records the file's MIME type.
func WithContentType(contentType string) WriteOption {
	return func(o *writeOptions) {
		o.contentType = contentType
	}
}

// WithModTime sets the file's modification time instead of now.
func WithModTime(t time.Time) WriteOption {
	return func(o *writeOptions) {
		o.modTime = t
	}
}

// Write stores content at path, replacing any existing file.
func (a *Adapter) Write(ctx context.Context, p string, content io.Reader, options ...WriteOption) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p = normalizePath(p)
	if p == "" || !isValidPath(p) {
		return &fileref.PathError{Op: "write", Path: p, Err: fileref.ErrNotAllowed}
	}

	data, err := io.ReadAll(content)
	if err != nil {
		return &fileref.PathError{Op: "write", Path: p, Err: err}
	}

	opts := writeOptions{modTime: time.Now()}
	for _, opt := range options {
		opt(&opts)
	}

	a.mu.Lock()
	if _, isDir := a.dirs[p]; isDir {
		a.mu.Unlock()
		return &fileref.PathError{Op: "write", Path: p, Err: fileref.ErrIsDir}
	}

	newSize := a.size + int64(len(data))
	if existing, exists := a.files[p]; exists {
		newSize -= int64(len(existing.content))
	}
	if a.maxSize > 0 && newSize > a.maxSize {
		a.mu.Unlock()
		return &fileref.PathError{Op: "write", Path: p, Err: fileref.ErrInvalidSize}
	}

	a.ensureParentDirs(p)
	a.files[p] = &memoryFile{
		content:     data,
		contentType: opts.contentType,
		modTime:     opts.modTime,
	}
	a.size = newSize
	a.mu.Unlock()

	go a.notifyWatchers(p)

	return nil
}

// Delete removes a file.
func (a *Adapter) Delete(ctx context.Context, p string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.Lock()
	file, exists := a.files[p]
	if !exists {
		a.mu.Unlock()
		return &fileref.PathError{Op: "delete", Path: p, Err: fileref.ErrNotExist}
	}
	a.size -= int64(len(file.content))
	delete(a.files, p)
	a.mu.Unlock()

	go a.notifyWatchers(p)

	return nil
}

// Read implements fileref.FileReader
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	file, exists := a.files[p]
	if !exists {
		if _, isDir := a.dirs[p]; isDir {
			return nil, &fileref.PathError{Op: "read", Path: p, Err: fileref.ErrIsDir}
		}
		return nil, &fileref.PathError{Op: "read", Path: p, Err: fileref.ErrNotExist}
	}

	// Stored content is never mutated; writes replace the whole entry.
	return io.NopCloser(bytes.NewReader(file.content)), nil
}

// Stat implements fileref.FileReader
func (a *Adapter) Stat(ctx context.Context, p string) (*fileref.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if file, exists := a.files[p]; exists {
		info := fileInfo(p, file)
		return &info, nil
	}
	if modTime, exists := a.dirs[p]; exists {
		info := dirInfo(p, modTime)
		return &info, nil
	}

	return nil, &fileref.PathError{Op: "stat", Path: p, Err: fileref.ErrNotExist}
}

// ListContents implements fileref.FileReader
func (a *Adapter) ListContents(ctx context.Context, p string, recursive bool) ([]fileref.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	p = normalizePath(p)

	a.mu.RLock()
	defer a.mu.RUnlock()

	if _, exists := a.dirs[p]; !exists {
		if _, isFile := a.files[p]; isFile {
			return nil, &fileref.PathError{Op: "listcontents", Path: p, Err: fileref.ErrNotDir}
		}
		return nil, &fileref.PathError{Op: "listcontents", Path: p, Err: fileref.ErrNotExist}
	}

	var files []fileref.FileInfo
	for filePath, file := range a.files {
		if isBelow(filePath, p, recursive) {
			files = append(files, fileInfo(filePath, file))
		}
	}
	for dirPath, modTime := range a.dirs {
		if dirPath != p && isBelow(dirPath, p, recursive) {
			files = append(files, dirInfo(dirPath, modTime))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})

	return files, nil
}

// Watch implements fileref.CanWatch. The filter is a glob over
// slash-separated paths; "**" crosses directories.
func (a *Adapter) Watch(ctx context.Context, filter string) (fileref.ChangeToken, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	g, err := glob.Compile(strings.TrimPrefix(filter, "/"), '/')
	if err != nil {
		return nil, &fileref.PathError{Op: "watch", Path: filter, Err: err}
	}

	token := fileref.NewCallbackChangeToken()

	a.watchMu.Lock()
	a.watches = append(a.watches, &watchEntry{filter: g, token: token})
	a.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		a.removeWatch(token)
	}()

	return token, nil
}

// Size returns the current total size of all stored files
func (a *Adapter) Size() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.size
}

// FileCount returns the number of files stored
func (a *Adapter) FileCount() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.files)
}

// notifyWatchers signals all watchers whose filter matches the given path.
// Tokens are single-use, so signalled entries are dropped.
func (a *Adapter) notifyWatchers(p string) {
	a.watchMu.Lock()
	var fired []*fileref.CallbackChangeToken
	kept := a.watches[:0]
	for _, entry := range a.watches {
		if entry.filter.Match(p) {
			fired = append(fired, entry.token)
			continue
		}
		if !entry.token.HasChanged() {
			kept = append(kept, entry)
		}
	}
	for i := len(kept); i < len(a.watches); i++ {
		a.watches[i] = nil
	}
	a.watches = kept
	a.watchMu.Unlock()

	for _, token := range fired {
		token.SignalChange()
	}
}

// watchCount returns the number of live watch subscriptions
func (a *Adapter) watchCount() int {
	a.watchMu.RLock()
	defer a.watchMu.RUnlock()
	return len(a.watches)
}

// removeWatch removes a watch entry by token
func (a *Adapter) removeWatch(token *fileref.CallbackChangeToken) {
	a.watchMu.Lock()
	defer a.watchMu.Unlock()

	for i, entry := range a.watches {
		if entry.token == token {
			a.watches[i] = a.watches[len(a.watches)-1]
			a.watches = a.watches[:len(a.watches)-1]
			return
		}
	}
}

// ensureParentDirs creates all parent directories for a given path.
// Must be called with lock held.
func (a *Adapter) ensureParentDirs(p string) {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		if _, exists := a.dirs[dir]; !exists {
			a.dirs[dir] = time.Now()
		}
	}
}

func fileInfo(p string, file *memoryFile) fileref.FileInfo {
	return fileref.FileInfo{
		Name:        path.Base(p),
		Path:        p,
		Size:        int64(len(file.content)),
		ModTime:     file.modTime,
		ContentType: file.contentType,
	}
}

func dirInfo(p string, modTime time.Time) fileref.FileInfo {
	return fileref.FileInfo{
		Name:    path.Base(p),
		Path:    p,
		ModTime: modTime,
		IsDir:   true,
	}
}

// isBelow reports whether child lies under dir: anywhere below it when
// recursive, otherwise as an immediate child.
func isBelow(child, dir string, recursive bool) bool {
	rel := child
	if dir != "" {
		var ok bool
		rel, ok = strings.CutPrefix(child, dir+"/")
		if !ok {
			return false
		}
	}
	if rel == "" {
		return false
	}
	return recursive || !strings.Contains(rel, "/")
}

// normalizePath normalizes a file path
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." {
		return ""
	}
	return path.Clean(p)
}

// isValidPath checks if a path is valid (no directory traversal)
func isValidPath(p string) bool {
	return !strings.Contains(p, "..")
}

// Ensure Adapter implements interfaces
var (
	_ fileref.FileReader = (*Adapter)(nil)
	_ fileref.CanWatch   = (*Adapter)(nil)
)
