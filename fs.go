package fileref

import (
	"context"
	"io"
	"time"
)

// FileInfo represents file/directory metadata as reported by a source
type FileInfo struct {
	Name        string
	Path        string
	Size        int64
	ModTime     time.Time
	IsDir       bool
	ContentType string
}

// ============================================================================
// Source Interfaces
// ============================================================================

// FileReader is the read-only access a host needs from a content source.
// Handles never write; sources are free to expose writes on their concrete
// types.
type FileReader interface {
	// Read returns a stream for reading file content.
	Read(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns file/directory metadata.
	Stat(ctx context.Context, path string) (*FileInfo, error)

	// ListContents lists directory contents.
	// If recursive is true, includes all descendants.
	ListContents(ctx context.Context, path string, recursive bool) ([]FileInfo, error)
}

// ============================================================================
// File Watching Interface (ChangeToken Pattern)
// ============================================================================

// ChangeToken represents a change notification token.
//
// Consumers can either poll HasChanged() or register a callback via
// RegisterChangeCallback().
type ChangeToken interface {
	// HasChanged returns true if a change has occurred.
	// Once true, it remains true (tokens are single-use).
	HasChanged() bool

	// ActiveChangeCallbacks indicates if the token proactively raises callbacks.
	ActiveChangeCallbacks() bool

	// RegisterChangeCallback registers a callback to be invoked when change occurs.
	// Returns a function to unregister the callback.
	RegisterChangeCallback(callback func()) (unregister func())
}

// CanWatch indicates the source supports file change notifications.
//
//	if watcher, ok := src.(CanWatch); ok {
//	    token, err := watcher.Watch(ctx, "inbox/*.csv")
//	}
type CanWatch interface {
	// Watch creates a change token for the specified glob pattern.
	// The token signals when any matching file is created, modified, or deleted.
	Watch(ctx context.Context, pattern string) (ChangeToken, error)
}
