package heap

import (
	"errors"
	"fmt"

	"github.com/Carina-TzuHsuan/CS564/internal/status"
	"github.com/Carina-TzuHsuan/CS564/internal/storage"
)

// InsertFileScan appends records at hf's tail page, allocating and linking
// a fresh page on overflow. Grounded on
// original_source/CS564_stage4/heapfile.C's InsertFileScan::insertRecord.
type InsertFileScan struct {
	hf *HeapFile
}

// NewInsertScan opens an insert scan over hf.
func NewInsertScan(hf *HeapFile) *InsertFileScan {
	return &InsertFileScan{hf: hf}
}

// InsertRecord appends rec to hf and returns its RID. Per spec.md §4.5.1,
// a record that could never fit on any page fails with
// status.ErrInvalidRecLen before any page is touched.
func (s *InsertFileScan) InsertRecord(rec []byte) (RID, error) {
	hf := s.hf
	maxRecLen := hf.file.PageSize() - storage.HeaderSize
	if len(rec) > maxRecLen {
		return NullRID, status.ErrInvalidRecLen
	}

	if hf.curPage == nil {
		if err := s.pinTailPage(); err != nil {
			return NullRID, err
		}
	} else if hf.curPageNo != hf.hdr.LastPage {
		if err := hf.ensurePage(hf.hdr.LastPage); err != nil {
			return NullRID, err
		}
	}

	slotNo, err := hf.curPage.InsertRecord(rec)
	if errors.Is(err, status.ErrNoSpace) {
		if err := s.growAndRelink(); err != nil {
			return NullRID, err
		}
		slotNo, err = hf.curPage.InsertRecord(rec)
		if err != nil {
			return NullRID, fmt.Errorf("heap: insert into fresh page %d of %s: %w", hf.curPageNo, hf.name, err)
		}
	} else if err != nil {
		return NullRID, err
	}

	hf.hdr.RecCnt++
	hf.hdrDirty = true
	hf.curDirty = true
	return RID{PageNo: hf.curPageNo, SlotNo: slotNo}, nil
}

// pinTailPage handles the "curPage absent" branch of spec.md §4.5.1:
// allocate a first page if the file is somehow empty (defensive — never
// reachable through CreateHeapFile), otherwise pin the existing tail page.
func (s *InsertFileScan) pinTailPage() error {
	hf := s.hf
	if hf.hdr.LastPage == -1 {
		pageNo, page, err := hf.bm.AllocPage(hf.file)
		if err != nil {
			return fmt.Errorf("heap: alloc first page for insert into %s: %w", hf.name, err)
		}
		page.Init(pageNo)
		hf.hdr.FirstPage = pageNo
		hf.hdr.LastPage = pageNo
		hf.hdr.PageCnt = 1
		hf.hdrDirty = true
		hf.curPage = page
		hf.curPageNo = pageNo
		hf.curDirty = false
		return nil
	}

	page, err := hf.bm.ReadPage(hf.file, hf.hdr.LastPage)
	if err != nil {
		return fmt.Errorf("heap: pin tail page %d for insert into %s: %w", hf.hdr.LastPage, hf.name, err)
	}
	hf.curPage = page
	hf.curPageNo = hf.hdr.LastPage
	hf.curDirty = false
	return nil
}

// growAndRelink allocates a new tail page, links it from the current full
// page, and makes it current.
func (s *InsertFileScan) growAndRelink() error {
	hf := s.hf
	newPageNo, newPage, err := hf.bm.AllocPage(hf.file)
	if err != nil {
		return fmt.Errorf("heap: alloc overflow page for %s: %w", hf.name, err)
	}
	newPage.Init(newPageNo)
	hf.curPage.SetNextPage(newPageNo)

	hf.hdr.LastPage = newPageNo
	hf.hdr.PageCnt++
	hf.hdrDirty = true

	if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, true); err != nil {
		return fmt.Errorf("heap: unpin full page %d of %s: %w", hf.curPageNo, hf.name, err)
	}
	hf.curPage = newPage
	hf.curPageNo = newPageNo
	hf.curDirty = false
	return nil
}
