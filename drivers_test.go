package fileref

import (
	"bytes"
	"context"
	"io"
	"path"
	"strings"
	"time"
)

func init() {
	// Register test drivers
	RegisterDriver("stub", newStubDriver)
}

func newStubDriver(cfg *Config) (FileReader, error) {
	return newStubSource(map[string]string{
		"hello.txt": "Hello, World!",
	}), nil
}

// stubSource is a fixed, flat set of files for testing
type stubSource struct {
	files   map[string]string
	modTime time.Time
}

func newStubSource(files map[string]string) *stubSource {
	return &stubSource{files: files, modTime: time.UnixMilli(1700000000000)}
}

func (s *stubSource) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	content, ok := s.files[strings.TrimPrefix(p, "/")]
	if !ok {
		return nil, &PathError{Op: "read", Path: p, Err: ErrNotExist}
	}
	return io.NopCloser(bytes.NewReader([]byte(content))), nil
}

func (s *stubSource) Stat(ctx context.Context, p string) (*FileInfo, error) {
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return &FileInfo{Name: "/", IsDir: true, ModTime: s.modTime}, nil
	}
	content, ok := s.files[p]
	if !ok {
		return nil, &PathError{Op: "stat", Path: p, Err: ErrNotExist}
	}
	return &FileInfo{
		Name:    path.Base(p),
		Path:    p,
		Size:    int64(len(content)),
		ModTime: s.modTime,
	}, nil
}

func (s *stubSource) ListContents(ctx context.Context, p string, recursive bool) ([]FileInfo, error) {
	var infos []FileInfo
	for name := range s.files {
		info, err := s.Stat(ctx, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, *info)
	}
	return infos, nil
}
