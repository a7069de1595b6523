package fileref

import (
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
)

// DefaultDataURLType is used in data URLs of files without a MIME type.
const DefaultDataURLType = "application/octet-stream"

// ErrInvalidDataURL is returned by ParseDataURL for malformed input.
var ErrInvalidDataURL = errors.New("invalid data URL")

// EncodeDataURL formats data as data:<mimeType>;base64,<payload>.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = DefaultDataURLType
	}

	var b strings.Builder
	b.Grow(len("data:;base64,") + len(mimeType) + base64.StdEncoding.EncodedLen(len(data)))
	b.WriteString("data:")
	b.WriteString(mimeType)
	b.WriteString(";base64,")
	b.WriteString(base64.StdEncoding.EncodeToString(data))
	return b.String()
}

// ParseDataURL splits a data URL into its media type and decoded payload.
// Both base64 and percent-encoded payloads are accepted.
func ParseDataURL(s string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrInvalidDataURL
	}

	if mimeType, ok = strings.CutSuffix(header, ";base64"); ok {
		data, err = base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, errors.Join(ErrInvalidDataURL, err)
		}
		return mimeType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, errors.Join(ErrInvalidDataURL, err)
	}
	return header, []byte(unescaped), nil
}
