package fileref

import (
	"encoding/json"
	"errors"

	"go.uber.org/zap"
)

// Decode interprets data as a single serialized file. The input is kept
// verbatim; content is not read.
func (h *Host) Decode(data []byte) (File, error) {
	hd, err := h.DecodeHandle(data)
	if err != nil {
		h.log.Debug("decode file failed", zap.Error(err))
		return File{}, err
	}
	return File{raw: cloneRaw(data), handle: hd}, nil
}

// DecodeList interprets data as a JSON array of serialized files. It is all
// or nothing: the first element that fails aborts the decode, and the
// returned *DecodeError carries that element's index.
func (h *Host) DecodeList(data []byte) ([]File, error) {
	elems, err := splitArray(data, "")
	if err != nil {
		return nil, err
	}
	return h.decodeElems(elems)
}

// DecodeSelection interprets data as a selection event, {"files": [...]}.
func (h *Host) DecodeSelection(data []byte) ([]File, error) {
	elems, err := selectionElems(data)
	if err != nil {
		return nil, err
	}
	return h.decodeElems(elems)
}

// DecodeFirst decodes the first file of a selection event and ignores the
// rest. An empty selection fails with ErrNoFiles.
func (h *Host) DecodeFirst(data []byte) (File, error) {
	elems, err := selectionElems(data)
	if err != nil {
		return File{}, err
	}
	if len(elems) == 0 {
		return File{}, ErrNoFiles
	}

	f, err := h.Decode(elems[0])
	if err != nil {
		return File{}, withIndex(err, 0)
	}
	return f, nil
}

func (h *Host) decodeElems(elems []json.RawMessage) ([]File, error) {
	files := make([]File, 0, len(elems))
	for i, elem := range elems {
		f, err := h.Decode(elem)
		if err != nil {
			h.log.Debug("decode file list failed", zap.Int("index", i), zap.Error(err))
			return nil, withIndex(err, i)
		}
		files = append(files, f)
	}
	return files, nil
}

func selectionElems(data []byte) ([]json.RawMessage, error) {
	var event map[string]json.RawMessage
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, mismatch("", "expecting a selection event: %v", err)
	}
	raw, ok := event["files"]
	if !ok {
		return nil, mismatch("files", "missing")
	}
	return splitArray(raw, "files")
}

func splitArray(data []byte, field string) ([]json.RawMessage, error) {
	if isNull(data) {
		return nil, mismatch(field, "expecting an array, got null")
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, mismatch(field, "expecting an array: %v", err)
	}
	return elems, nil
}

func withIndex(err error, index int) error {
	var de *DecodeError
	if errors.As(err, &de) {
		de.Index = index
	}
	return err
}

// ============================================================================
// Default host shortcuts
// ============================================================================

// Decode decodes a single file with the default host.
func Decode(data []byte) (File, error) {
	h, err := Default()
	if err != nil {
		return File{}, err
	}
	return h.Decode(data)
}

// DecodeList decodes a JSON array of files with the default host.
func DecodeList(data []byte) ([]File, error) {
	h, err := Default()
	if err != nil {
		return nil, err
	}
	return h.DecodeList(data)
}

// DecodeSelection decodes a selection event with the default host.
func DecodeSelection(data []byte) ([]File, error) {
	h, err := Default()
	if err != nil {
		return nil, err
	}
	return h.DecodeSelection(data)
}

// DecodeFirst decodes the first file of a selection event with the default host.
func DecodeFirst(data []byte) (File, error) {
	h, err := Default()
	if err != nil {
		return File{}, err
	}
	return h.DecodeFirst(data)
}
