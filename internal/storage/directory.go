package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Directory is the database directory spec.md §1(c) names as an external
// collaborator: openFile/createFile/closeFile/destroyFile over a single
// on-disk directory of flat files.
//
// Grounded on tuannm99-novasql's internal/storage/sm.go LocalFileSet
// convention (a directory + base name) and internal/engine/db.go's
// per-table file layout, adapted to the create-is-idempotent-if-already-
// open contract original_source/CS564_stage4/heapfile.C's createHeapFile
// relies on.
type Directory struct {
	dataDir  string
	pageSize int
}

// NewDirectory creates a Directory rooted at dataDir, formatting pages of
// pageSize bytes.
func NewDirectory(dataDir string, pageSize int) (*Directory, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create data dir %s: %w", dataDir, err)
	}
	return &Directory{dataDir: dataDir, pageSize: pageSize}, nil
}

func (d *Directory) path(name string) string {
	return filepath.Join(d.dataDir, name)
}

// Exists reports whether a file named name has been created.
func (d *Directory) Exists(name string) bool {
	_, err := os.Stat(d.path(name))
	return err == nil
}

// OpenFile opens an existing file by name. Each call returns a File with a
// fresh identity, even if name is already open elsewhere — per spec.md
// §4.1, two open handles to the same name are distinct residents.
func (d *Directory) OpenFile(name string) (*File, error) {
	f, err := openOSFile(d.path(name), os.O_RDWR)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", name, err)
	}
	return newFile(name, d.pageSize, f)
}

// CreateFile creates a new, empty file by name. Fails if the file already
// exists.
func (d *Directory) CreateFile(name string) error {
	f, err := openOSFile(d.path(name), os.O_RDWR|os.O_CREATE|os.O_EXCL)
	if err != nil {
		return fmt.Errorf("storage: create %s: %w", name, err)
	}
	return f.Close()
}

// CloseFile closes an open file handle.
func (d *Directory) CloseFile(f *File) error {
	return f.Close()
}

// DestroyFile removes a file by name.
func (d *Directory) DestroyFile(name string) error {
	if err := os.Remove(d.path(name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("storage: destroy %s: %w", name, err)
	}
	return nil
}

// PageSize returns the page size this directory formats files with.
func (d *Directory) PageSize() int { return d.pageSize }
