package fileref

import (
	"context"
)

// ReadAsBytes reads the full content of h.
func ReadAsBytes(ctx context.Context, h *Handle) ([]byte, error) {
	if h == nil {
		return nil, ErrInvalidFile
	}
	return h.ReadAll(ctx)
}

// ReadAsText reads the full content of h as text. Content is UTF-8 unless a
// byte order mark says otherwise; invalid sequences become U+FFFD.
func ReadAsText(ctx context.Context, h *Handle) (string, error) {
	data, err := ReadAsBytes(ctx, h)
	if err != nil {
		return "", err
	}
	return decodeText(data)
}

// ReadAsDataURL reads the full content of h as a data URL,
// data:<mime>;base64,<payload>.
func ReadAsDataURL(ctx context.Context, h *Handle) (string, error) {
	data, err := ReadAsBytes(ctx, h)
	if err != nil {
		return "", err
	}
	return EncodeDataURL(h.Type(), data), nil
}
