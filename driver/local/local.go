// Package local provides a content source backed by a directory on the
// local filesystem.
package local

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gobeaver/fileref"
	"github.com/gobwas/glob"
)

// Adapter serves files below a root directory as a fileref.FileReader
type Adapter struct {
	root string
}

// New creates a new local adapter rooted at root, creating it if needed
func New(root string) (*Adapter, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	// Ensure the root directory exists
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, err
	}

	return &Adapter{
		root: absRoot,
	}, nil
}

// Root returns the absolute root directory.
func (a *Adapter) Root() string {
	return a.root
}

// Read implements fileref.FileReader
func (a *Adapter) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("read", p)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		return nil, pathError("read", p, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pathError("read", p, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, &fileref.PathError{Op: "read", Path: p, Err: fileref.ErrIsDir}
	}

	return f, nil
}

// Stat implements fileref.FileReader
func (a *Adapter) Stat(ctx context.Context, p string) (*fileref.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("stat", p)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, pathError("stat", p, err)
	}

	fi := toFileInfo(cleanKey(p), info)
	return &fi, nil
}

// ListContents implements fileref.FileReader
func (a *Adapter) ListContents(ctx context.Context, p string, recursive bool) ([]fileref.FileInfo, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	fullPath, err := a.resolve("listcontents", p)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(fullPath)
	if err != nil {
		return nil, pathError("listcontents", p, err)
	}
	if !info.IsDir() {
		return nil, &fileref.PathError{Op: "listcontents", Path: p, Err: fileref.ErrNotDir}
	}

	var files []fileref.FileInfo

	if recursive {
		err = filepath.WalkDir(fullPath, func(walkPath string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if walkPath == fullPath {
				return nil
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			info, err := d.Info()
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(a.root, walkPath)
			if err != nil {
				return err
			}
			files = append(files, toFileInfo(filepath.ToSlash(rel), info))
			return nil
		})
		if err != nil {
			return nil, pathError("listcontents", p, err)
		}
		return files, nil
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, pathError("listcontents", p, err)
	}

	dir := cleanKey(p)
	files = make([]fileref.FileInfo, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, toFileInfo(path.Join(dir, entry.Name()), info))
	}

	return files, nil
}

// Watch implements fileref.CanWatch using fsnotify. The filter is a glob over
// slash-separated paths relative to the root; "**" crosses directories.
func (a *Adapter) Watch(ctx context.Context, filter string) (fileref.ChangeToken, error) {
	pattern := strings.TrimPrefix(filepath.ToSlash(filter), "/")
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, &fileref.PathError{Op: "watch", Path: filter, Err: err}
	}

	watchPath := filepath.Join(a.root, filepath.FromSlash(staticDir(pattern)))
	if !isPathUnderRoot(a.root, watchPath) {
		return nil, &fileref.PathError{Op: "watch", Path: filter, Err: fileref.ErrNotAllowed}
	}

	watcher, err := newFSWatcher()
	if err != nil {
		return nil, &fileref.PathError{Op: "watch", Path: filter, Err: err}
	}
	if err := watcher.Add(watchPath); err != nil {
		watcher.Close()
		return nil, &fileref.PathError{Op: "watch", Path: filter, Err: err}
	}

	// For recursive patterns (**), add all subdirectories
	if strings.Contains(pattern, "**") {
		_ = filepath.WalkDir(watchPath, func(p string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() && p != watchPath {
				_ = watcher.Add(p)
			}
			return nil
		})
	}

	token := fileref.NewCallbackChangeToken()

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events():
				if !ok {
					return
				}

				rel, err := filepath.Rel(a.root, event.Name)
				if err != nil {
					continue
				}
				if g.Match(filepath.ToSlash(rel)) {
					token.SignalChange()
					return // Token is spent after first change
				}
			case err, ok := <-watcher.Errors():
				if !ok {
					return
				}
				fileref.Logger().Sugar().Debugf("local watch %s: %v", filter, err)
			}
		}
	}()

	return token, nil
}

// resolve maps a key to an absolute path, refusing keys that escape the root.
func (a *Adapter) resolve(op, p string) (string, error) {
	fullPath := filepath.Join(a.root, filepath.FromSlash(cleanKey(p)))
	if !isPathUnderRoot(a.root, fullPath) {
		return "", &fileref.PathError{Op: op, Path: p, Err: fileref.ErrNotAllowed}
	}
	return fullPath, nil
}

func isPathUnderRoot(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return !filepath.IsAbs(rel) && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// cleanKey normalizes a key to a slash-separated path relative to the root.
func cleanKey(p string) string {
	p = strings.TrimPrefix(path.Clean("/"+filepath.ToSlash(p)), "/")
	return p
}

// staticDir returns the directory part of pattern before its first glob
// metacharacter.
func staticDir(pattern string) string {
	idx := strings.IndexAny(pattern, "*?[{")
	if idx < 0 {
		return path.Dir(pattern)
	}
	lastSlash := strings.LastIndex(pattern[:idx], "/")
	if lastSlash < 0 {
		return "."
	}
	return pattern[:lastSlash]
}

func toFileInfo(key string, info os.FileInfo) fileref.FileInfo {
	fi := fileref.FileInfo{
		Name:    info.Name(),
		Path:    key,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}
	if fi.IsDir {
		fi.Size = 0
	} else {
		fi.ContentType = fileref.TypeByExtension(fi.Name)
	}
	return fi
}

func pathError(op, p string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		err = fileref.ErrNotExist
	}
	return &fileref.PathError{Op: op, Path: p, Err: err}
}

// Ensure Adapter implements interfaces
var (
	_ fileref.FileReader = (*Adapter)(nil)
	_ fileref.CanWatch   = (*Adapter)(nil)
)
