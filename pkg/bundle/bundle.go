// Package bundle validates model weight files before they are forwarded.
package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrNotJSON        = errors.New("Invalid JSON file")
	ErrMissingKeys    = errors.New("Invalid model file format. File must contain weights and architecture.")
	ErrUnsupported    = errors.New("Invalid file format. Must be .json or .h5")
	ErrEmpty          = errors.New("Please select a model file")
	hdf5Signature     = []byte{0x89, 'H', 'D', 'F', '\r', '\n', 0x1a, '\n'}
	maxBundleInMemory int64 = 512 << 20
)

type Kind string

const (
	KindJSON Kind = "json"
	KindHDF5 Kind = "h5"
)

// Document is a decoded JSON weights bundle.
type Document map[string]any

// Validate checks that doc carries both weights and architecture. A key
// counts as missing when it is absent, null, false, 0 or "". Empty arrays
// and objects are accepted.
func (d Document) Validate() error {
	if d == nil || missing(d["weights"]) || missing(d["architecture"]) {
		return ErrMissingKeys
	}
	return nil
}

func missing(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case float64:
		return t == 0
	}
	return false
}

// Parse decodes and validates a JSON bundle.
func Parse(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, ErrNotJSON
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// KindOf decides the bundle kind from the file name.
func KindOf(fileName string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".json":
		return KindJSON, nil
	case ".h5", ".hdf5":
		return KindHDF5, nil
	}
	return "", ErrUnsupported
}

// Inspect reads the whole file and validates it according to its kind.
// HDF5 files are only checked for their signature.
func Inspect(fileName string, r io.Reader) (Kind, []byte, error) {
	kind, err := KindOf(fileName)
	if err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, maxBundleInMemory+1))
	if err != nil {
		return "", nil, fmt.Errorf("reading %s: %w", fileName, err)
	}
	if len(data) == 0 {
		return "", nil, ErrEmpty
	}
	if int64(len(data)) > maxBundleInMemory {
		return "", nil, fmt.Errorf("%s exceeds %d bytes", fileName, maxBundleInMemory)
	}

	switch kind {
	case KindJSON:
		if _, err := Parse(data); err != nil {
			return "", nil, err
		}
	case KindHDF5:
		if !bytes.HasPrefix(data, hdf5Signature) {
			return "", nil, ErrUnsupported
		}
	}
	return kind, data, nil
}
