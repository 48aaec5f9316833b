// Package heap implements the heap file and scan layer of spec.md §4.3–4.5:
// a linked list of slotted pages addressed by RID, a forward-only filtered
// scan with mark/reset, and an append-only insert scan that grows the file
// on overflow.
//
// Grounded on original_source/CS564_stage4/heapfile.C for control flow
// (createHeapFile's no-op-if-exists contract, the open constructor's pin
// sequence, scanNext's page-boundary crossing) and on tuannm99-novasql's
// internal/heap/table.go for Go idiom: a struct holding its own cursor
// state rather than the free global cursor the original uses.
package heap

import (
	"fmt"
	"log/slog"

	"github.com/Carina-TzuHsuan/CS564/internal/bufmgr"
	"github.com/Carina-TzuHsuan/CS564/internal/status"
	"github.com/Carina-TzuHsuan/CS564/internal/storage"
)

// HeapFile is an open heap file: a header page and a cursor over data
// pages, both held pinned in the buffer manager while the file is open.
type HeapFile struct {
	dir  *storage.Directory
	bm   *bufmgr.BufMgr
	file *storage.File
	name string

	hdrPageNo int32
	hdrPage   *storage.Page
	hdr       FileHdrPage
	hdrDirty  bool

	curPage   *storage.Page
	curPageNo int32
	curDirty  bool
	curRec    RID
}

// CreateHeapFile creates a new, empty heap file named name. Per spec.md
// §4.3.1 it is a no-op returning success if the file already exists.
func CreateHeapFile(dir *storage.Directory, bm *bufmgr.BufMgr, name string) error {
	if dir.Exists(name) {
		return nil
	}
	if err := dir.CreateFile(name); err != nil {
		return fmt.Errorf("heap: create %s: %w", name, err)
	}
	f, err := dir.OpenFile(name)
	if err != nil {
		return fmt.Errorf("heap: open %s after create: %w", name, err)
	}
	defer dir.CloseFile(f)

	hdrPageNo, hdrPage, err := bm.AllocPage(f)
	if err != nil {
		return fmt.Errorf("heap: alloc header page for %s: %w", name, err)
	}
	hdrPage.Init(hdrPageNo)

	dataPageNo, dataPage, err := bm.AllocPage(f)
	if err != nil {
		_ = bm.UnpinPage(f, hdrPageNo, false)
		return fmt.Errorf("heap: alloc first data page for %s: %w", name, err)
	}
	dataPage.Init(dataPageNo)

	hdr := FileHdrPage{
		FileName:  name,
		FirstPage: dataPageNo,
		LastPage:  dataPageNo,
		PageCnt:   1,
		RecCnt:    0,
	}
	if _, err := hdrPage.InsertRecord(encodeHdr(hdr)); err != nil {
		_ = bm.UnpinPage(f, hdrPageNo, false)
		_ = bm.UnpinPage(f, dataPageNo, false)
		return fmt.Errorf("heap: write header record for %s: %w", name, err)
	}

	if err := bm.UnpinPage(f, hdrPageNo, true); err != nil {
		return fmt.Errorf("heap: unpin header page for %s: %w", name, err)
	}
	if err := bm.UnpinPage(f, dataPageNo, true); err != nil {
		return fmt.Errorf("heap: unpin first data page for %s: %w", name, err)
	}
	if err := bm.FlushFile(f); err != nil {
		return fmt.Errorf("heap: flush new file %s: %w", name, err)
	}
	return nil
}

// DestroyHeapFile removes name from dir entirely. Recovered from
// original_source/CS564_stage4/heapfile.C's destroyHeapFile — dropped from
// spec.md's component list but needed by the minibase REPL's DROP TABLE.
func DestroyHeapFile(dir *storage.Directory, name string) error {
	if err := dir.DestroyFile(name); err != nil {
		return fmt.Errorf("heap: destroy %s: %w", name, err)
	}
	return nil
}

// Open opens an existing heap file, pinning its header page and first data
// page. Any failure after the file is opened unwinds the pins it acquired.
func Open(dir *storage.Directory, bm *bufmgr.BufMgr, name string) (*HeapFile, error) {
	f, err := dir.OpenFile(name)
	if err != nil {
		return nil, fmt.Errorf("heap: open %s: %w", name, err)
	}

	firstPage, err := f.GetFirstPage()
	if err != nil {
		_ = dir.CloseFile(f)
		return nil, fmt.Errorf("heap: get first page of %s: %w", name, err)
	}

	hdrPage, err := bm.ReadPage(f, firstPage)
	if err != nil {
		_ = dir.CloseFile(f)
		return nil, fmt.Errorf("heap: pin header page of %s: %w", name, err)
	}

	rec, err := hdrPage.GetRecord(0)
	if err != nil {
		_ = bm.UnpinPage(f, firstPage, false)
		_ = dir.CloseFile(f)
		return nil, fmt.Errorf("heap: read header record of %s: %w", name, err)
	}
	hdr := decodeHdr(rec)

	dataPage, err := bm.ReadPage(f, hdr.FirstPage)
	if err != nil {
		_ = bm.UnpinPage(f, firstPage, false)
		_ = dir.CloseFile(f)
		return nil, fmt.Errorf("heap: pin first data page of %s: %w", name, err)
	}

	return &HeapFile{
		dir:       dir,
		bm:        bm,
		file:      f,
		name:      name,
		hdrPageNo: firstPage,
		hdrPage:   hdrPage,
		hdr:       hdr,
		curPage:   dataPage,
		curPageNo: hdr.FirstPage,
		curRec:    NullRID,
	}, nil
}

// RecCnt returns the live record count maintained in the header page.
// Recovered from original_source/CS564_stage4/heapfile.C's getRecCnt.
func (hf *HeapFile) RecCnt() int { return int(hf.hdr.RecCnt) }

// Name returns the heap file's name.
func (hf *HeapFile) Name() string { return hf.name }

func (hf *HeapFile) syncHdr() error {
	rec, err := hf.hdrPage.GetRecord(0)
	if err != nil {
		return fmt.Errorf("heap: header record missing for %s: %w", hf.name, err)
	}
	copy(rec, encodeHdr(hf.hdr))
	return nil
}

// ensurePage makes pageNo the pinned current page, unpinning whatever was
// current (with its dirty flag) if it differs.
func (hf *HeapFile) ensurePage(pageNo int32) error {
	if hf.curPage != nil && hf.curPageNo == pageNo {
		return nil
	}
	if hf.curPage != nil {
		if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty); err != nil {
			return fmt.Errorf("heap: unpin page %d of %s: %w", hf.curPageNo, hf.name, err)
		}
	}
	page, err := hf.bm.ReadPage(hf.file, pageNo)
	if err != nil {
		return fmt.Errorf("heap: pin page %d of %s: %w", pageNo, hf.name, err)
	}
	hf.curPage = page
	hf.curPageNo = pageNo
	hf.curDirty = false
	return nil
}

// GetRecord fetches the record named by rid, repositioning the cursor to
// its page if needed.
func (hf *HeapFile) GetRecord(rid RID) ([]byte, error) {
	if rid.PageNo < 0 || rid.SlotNo < 0 {
		return nil, status.ErrBadRID
	}
	if err := hf.ensurePage(rid.PageNo); err != nil {
		return nil, err
	}
	rec, err := hf.curPage.GetRecord(rid.SlotNo)
	if err != nil {
		return nil, err
	}
	hf.curRec = rid
	return rec, nil
}

// Close unpins the current data page and the header page, writes the
// file's dirty pages back through the buffer manager, then closes the
// underlying file. Per spec.md §4.3.4 the destructor cannot fail: failures
// are logged, never returned.
func (hf *HeapFile) Close() error {
	if hf.curPage != nil {
		if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty); err != nil {
			slog.Warn("heap: unpin current page on close failed", "file", hf.name, "pageNo", hf.curPageNo, "err", err)
		}
		hf.curPage = nil
	}
	if hf.hdrDirty {
		if err := hf.syncHdr(); err != nil {
			slog.Warn("heap: sync header on close failed", "file", hf.name, "err", err)
		}
	}
	if err := hf.bm.UnpinPage(hf.file, hf.hdrPageNo, hf.hdrDirty); err != nil {
		slog.Warn("heap: unpin header page on close failed", "file", hf.name, "err", err)
	}
	if err := hf.bm.FlushFile(hf.file); err != nil {
		slog.Warn("heap: flush on close failed", "file", hf.name, "err", err)
	}
	if err := hf.dir.CloseFile(hf.file); err != nil {
		slog.Warn("heap: close file failed", "file", hf.name, "err", err)
	}
	return nil
}
