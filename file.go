package fileref

import (
	"bytes"
	"context"
	"encoding/json"
	"time"
)

// File is an opaque file reference that survives serialization. It pairs a
// native Handle with the exact serialized value it was decoded from, so that
// encoding a File yields the same bytes it was decoded from.
//
// Files are immutable and safe to share between goroutines. Content is never
// read until Text, Bytes or DataURL is called.
//
// The zero File is not a valid file: its accessors return zero values and its
// content reads fail with ErrInvalidFile.
type File struct {
	raw    json.RawMessage
	handle *Handle
}

// Encode returns the serialized form the file was decoded from, unchanged.
func (f File) Encode() json.RawMessage {
	return cloneRaw(f.raw)
}

// Handle returns the native handle, for APIs that take one directly.
func (f File) Handle() *Handle {
	return f.handle
}

// Valid reports whether f was produced by a decoder.
func (f File) Valid() bool {
	return f.handle != nil
}

// Name returns the file's original name.
func (f File) Name() string {
	if f.handle == nil {
		return ""
	}
	return f.handle.Name()
}

// MIME returns the declared content type. It may be empty.
func (f File) MIME() string {
	if f.handle == nil {
		return ""
	}
	return f.handle.Type()
}

// Size returns the file's length in bytes.
func (f File) Size() int64 {
	if f.handle == nil {
		return 0
	}
	return f.handle.Size()
}

// LastModified returns the file's modification time as reported by the host.
func (f File) LastModified() time.Time {
	if f.handle == nil {
		return time.Time{}
	}
	return f.handle.LastModified()
}

// Text reads the full content as text.
func (f File) Text(ctx context.Context) (string, error) {
	return ReadAsText(ctx, f.handle)
}

// Bytes reads the full content.
func (f File) Bytes(ctx context.Context) ([]byte, error) {
	return ReadAsBytes(ctx, f.handle)
}

// DataURL reads the full content as a base64 data URL.
func (f File) DataURL(ctx context.Context) (string, error) {
	return ReadAsDataURL(ctx, f.handle)
}

// MarshalJSON implements json.Marshaler by emitting the stored serialized
// form. encoding/json compacts it, so whitespace is not preserved here; use
// Encode for a byte-identical copy.
func (f File) MarshalJSON() ([]byte, error) {
	if f.raw == nil {
		return []byte("null"), nil
	}
	return cloneRaw(f.raw), nil
}

// UnmarshalJSON implements json.Unmarshaler using the default host. A JSON
// null leaves f unchanged.
func (f *File) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	host, err := Default()
	if err != nil {
		return err
	}
	decoded, err := host.Decode(data)
	if err != nil {
		return err
	}
	*f = decoded
	return nil
}

// Equal reports whether f and other have identical serialized forms.
func (f File) Equal(other File) bool {
	return bytes.Equal(f.raw, other.raw)
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	out := make(json.RawMessage, len(raw))
	copy(out, raw)
	return out
}
