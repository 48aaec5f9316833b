package storage

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
)

// File is a paged on-disk file: exactly the external collaborator spec.md
// §1(a) names (readPage/writePage/allocatePage/disposePage/getFirstPage).
//
// Grounded on tuannm99-novasql's internal/storage/pager.go (Pager.GetPage/
// WritePage: a single *os.File, direct seek+read/write per page) and on
// internal/storage/sm.go's zero-fill-on-short-read behavior for pages at
// or beyond the current end of file.
//
// Each File carries a fresh uuid.UUID identity (library: google/uuid,
// sourced from SimonWaldherr-tinySQL's dependency set). The buffer
// manager's hash directory keys on this identity, not on the file name, so
// that two open handles to the same name are distinct residents — per
// spec.md §4.1.
type File struct {
	ID       uuid.UUID
	Name     string
	pageSize int

	mu        sync.Mutex
	osFile    *os.File
	pageCount int32
}

func openOSFile(path string, flag int) (*os.File, error) {
	return os.OpenFile(path, flag, 0o644)
}

func newFile(name string, pageSize int, f *os.File) (*File, error) {
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("storage: stat %s: %w", name, err)
	}
	return &File{
		ID:        uuid.New(),
		Name:      name,
		pageSize:  pageSize,
		osFile:    f,
		pageCount: int32(info.Size() / int64(pageSize)),
	}, nil
}

// PageSize returns the fixed page size this file was opened with.
func (f *File) PageSize() int { return f.pageSize }

// GetFirstPage returns the page number of the header page. By convention
// every file's header page is page 0 — a real database directory would
// track this per-file, but nothing in this engine ever relocates it.
func (f *File) GetFirstPage() (int32, error) {
	return 0, nil
}

// ReadPage reads exactly pageSize bytes for pageNo into buf. Pages at or
// beyond the current end of file read as all-zero, matching
// tuannm99-novasql's StorageManager.ReadPage: callers initialize a
// just-allocated page themselves via Page.Init.
func (f *File) ReadPage(pageNo int32, buf []byte) error {
	if pageNo < 0 {
		return fmt.Errorf("storage: invalid page number %d", pageNo)
	}
	if len(buf) != f.pageSize {
		return fmt.Errorf("storage: buffer must be %d bytes, got %d", f.pageSize, len(buf))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.osFile.ReadAt(buf, int64(pageNo)*int64(f.pageSize))
	if err != nil && err != io.EOF {
		return fmt.Errorf("storage: read page %d: %w", pageNo, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// WritePage writes exactly pageSize bytes from buf to pageNo's slot.
func (f *File) WritePage(pageNo int32, buf []byte) error {
	if pageNo < 0 {
		return fmt.Errorf("storage: invalid page number %d", pageNo)
	}
	if len(buf) != f.pageSize {
		return fmt.Errorf("storage: buffer must be %d bytes, got %d", f.pageSize, len(buf))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.osFile.WriteAt(buf, int64(pageNo)*int64(f.pageSize))
	if err != nil {
		return fmt.Errorf("storage: write page %d: %w", pageNo, err)
	}
	if n != len(buf) {
		return fmt.Errorf("storage: short write on page %d: %w", pageNo, io.ErrShortWrite)
	}
	if pageNo >= f.pageCount {
		f.pageCount = pageNo + 1
	}
	return nil
}

// AllocatePage assigns a fresh page number at the end of the file. The
// page's bytes are not written here — callers that need an initialized
// page call Page.Init and then WritePage (this mirrors spec.md §4.2.4's
// contract that allocPage does not pre-zero frame bytes).
func (f *File) AllocatePage() (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	pageNo := f.pageCount
	f.pageCount++
	return pageNo, nil
}

// DisposePage releases pageNo back to the file. This engine never reuses
// disposed page numbers (teaching-grade: no free-list compaction), so
// disposal is a no-op at the file level; the buffer manager is responsible
// for evicting any cached copy before the page number might be reused by
// a future allocation from a different logical file.
func (f *File) DisposePage(pageNo int32) error {
	return nil
}

// Close closes the underlying OS file handle.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.osFile.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", f.Name, err)
	}
	return nil
}
