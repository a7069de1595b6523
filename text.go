package fileref

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// decodeText decodes data the way a browser FileReader does by default:
// a UTF-8, UTF-16LE or UTF-16BE byte order mark selects the encoding and is
// dropped, otherwise UTF-8 is assumed.
func decodeText(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
