// Package store persists the output configuration document.
package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"pixelstick-go/errcode"
)

// Store loads and saves one opaque document. Load returns an error whose
// code is errcode.NotFound when nothing has been saved yet.
type Store interface {
	Load() ([]byte, error)
	Save(data []byte) error
}

// File keeps the document in a single file, replaced atomically on save.
type File struct {
	Path string
}

func (f File) Load() ([]byte, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, errcode.Wrap(errcode.NotFound, "load", err)
	}
	if err != nil {
		return nil, errcode.Wrap(errcode.Error, "load", err)
	}
	return b, nil
}

func (f File) Save(data []byte) error {
	dir := filepath.Dir(f.Path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*")
	if err != nil {
		return errcode.Wrap(errcode.Error, "save", err)
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr == nil {
		werr = cerr
	}
	if werr == nil {
		werr = os.Rename(name, f.Path)
	}
	if werr != nil {
		_ = os.Remove(name)
		return errcode.Wrap(errcode.Error, "save", werr)
	}
	return nil
}

// Memory is an in-process store for boards without a filesystem.
type Memory struct {
	mu   sync.Mutex
	data []byte
}

func (m *Memory) Load() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return nil, errcode.NotFound
	}
	return append([]byte(nil), m.data...), nil
}

func (m *Memory) Save(data []byte) error {
	m.mu.Lock()
	m.data = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}
