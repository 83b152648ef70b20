// Package dataset reads and writes the canonical store document.
package dataset

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/sells-group/calcdata/internal/model"
)

// Load reads the store at path. A missing or unparsable store is an error.
func Load(path string) (*model.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: read %s", path)
	}
	return Parse(data)
}

// Parse decodes a store document.
func Parse(data []byte) (*model.Dataset, error) {
	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrap(err, "dataset: decode")
	}
	return &ds, nil
}

// Marshal encodes ds as UTF-8 JSON with two-space indentation, HTML
// characters left unescaped, sorted map keys and a trailing newline.
func Marshal(ds *model.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(ds); err != nil {
		return nil, eris.Wrap(err, "dataset: encode")
	}
	return buf.Bytes(), nil
}

// Save writes ds to path through a temp file in the same directory, so a
// failed write leaves the previous store intact.
func Save(path string, ds *model.Dataset) error {
	data, err := Marshal(ds)
	if err != nil {
		return err
	}
	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	return writeFileAtomic(path, data, perm)
}

func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return eris.Wrap(err, "dataset: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: write temp file")
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: chmod temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return eris.Wrap(err, "dataset: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return eris.Wrapf(err, "dataset: replace %s", path)
	}
	return nil
}
