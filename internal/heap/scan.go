package heap

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
	"github.com/Carina-TzuHsuan/CS564/internal/status"
)

// Op is a filter comparison operator, spec.md §4.4.1's `op` argument.
type Op int

const (
	LT Op = iota
	LTE
	EQ
	GTE
	GT
	NE
)

// HeapFileScan is a forward-only cursor over hf with an optional per-record
// predicate, mark/reset, and in-place delete. Grounded on
// original_source/CS564_stage4/heapfile.C's HeapFileScan, sharing the
// parent HeapFile's cursor fields rather than duplicating them — scans
// here are always driven against the file they were opened on, as
// spec.md §9 describes ("scan lifetimes strictly inside heap-file
// lifetimes").
type HeapFileScan struct {
	hf *HeapFile

	hasFilter bool
	offset    int
	length    int
	typ       catalog.Datatype
	filter    []byte
	op        Op

	markedPageNo int32
	markedRec    RID
}

// NewScan opens a scan over hf. hf must not be concurrently scanned by
// another HeapFileScan.
func NewScan(hf *HeapFile) *HeapFileScan {
	return &HeapFileScan{hf: hf, markedPageNo: -1, markedRec: NullRID}
}

// StartScan installs an optional filter, per spec.md §4.4.1. Passing a nil
// filter makes the scan unfiltered.
func (s *HeapFileScan) StartScan(offset, length int, typ catalog.Datatype, filter []byte, op Op) error {
	if filter == nil {
		s.hasFilter = false
		return nil
	}
	if offset < 0 || length < 1 {
		return status.ErrBadScanParm
	}
	if (typ == catalog.INTEGER || typ == catalog.FLOAT) && length != typ.Sizeof() {
		return status.ErrBadScanParm
	}

	s.hasFilter = true
	s.offset = offset
	s.length = length
	s.typ = typ
	s.filter = filter
	s.op = op
	return nil
}

// ScanNext advances to the next matching record, crossing page boundaries
// as needed. Written as an explicit loop per spec.md §9's instruction that
// the source's recursive tail-call across pages be rewritten to avoid
// unbounded recursion on a long chain of empty pages. If no page is pinned
// (after EndScan), the scan starts over from the first data page.
func (s *HeapFileScan) ScanNext() (RID, error) {
	hf := s.hf
	if hf.curPage == nil {
		if err := hf.ensurePage(hf.hdr.FirstPage); err != nil {
			return NullRID, err
		}
		hf.curRec = NullRID
	}
	for {
		var slotNo int
		var err error
		if !hf.curRec.Valid() {
			slotNo, err = hf.curPage.FirstRecord()
		} else {
			slotNo, err = hf.curPage.NextRecord(hf.curRec.SlotNo)
		}

		if errors.Is(err, status.ErrEndOfPage) || errors.Is(err, status.ErrNoRecords) {
			nextPageNo := hf.curPage.GetNextPage()
			if nextPageNo == -1 {
				return NullRID, status.ErrFileEOF
			}
			if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty); err != nil {
				return NullRID, fmt.Errorf("heap: unpin page %d during scan of %s: %w", hf.curPageNo, hf.name, err)
			}
			page, err := hf.bm.ReadPage(hf.file, nextPageNo)
			if err != nil {
				return NullRID, fmt.Errorf("heap: pin page %d during scan of %s: %w", nextPageNo, hf.name, err)
			}
			hf.curPage = page
			hf.curPageNo = nextPageNo
			hf.curRec = NullRID
			hf.curDirty = false
			continue
		}
		if err != nil {
			return NullRID, err
		}

		rid := RID{PageNo: hf.curPageNo, SlotNo: slotNo}
		rec, err := hf.curPage.GetRecord(slotNo)
		if err != nil {
			return NullRID, err
		}

		if !s.hasFilter || s.matchRec(rec) {
			hf.curRec = rid
			return rid, nil
		}
		hf.curRec = rid
	}
}

// matchRec evaluates the installed filter against rec, per spec.md
// §4.4.2's signed-diff-then-compare scheme. Binary coercions go through a
// byte-copy to a local rather than reinterpreting the record's bytes
// in place, per spec.md §9's type-punning note.
func (s *HeapFileScan) matchRec(rec []byte) bool {
	if s.offset+s.length > len(rec) {
		return false
	}
	chunk := make([]byte, s.length)
	copy(chunk, rec[s.offset:s.offset+s.length])

	var diff int
	switch s.typ {
	case catalog.INTEGER:
		a := int32(binary.LittleEndian.Uint32(chunk))
		b := int32(binary.LittleEndian.Uint32(s.filter))
		switch {
		case a < b:
			diff = -1
		case a > b:
			diff = 1
		}
	case catalog.FLOAT:
		a := math.Float32frombits(binary.LittleEndian.Uint32(chunk))
		b := math.Float32frombits(binary.LittleEndian.Uint32(s.filter))
		switch {
		case a < b:
			diff = -1
		case a > b:
			diff = 1
		}
	default: // STRING
		diff = bytes.Compare(chunk, s.filter[:s.length])
	}

	switch s.op {
	case LT:
		return diff < 0
	case LTE:
		return diff <= 0
	case EQ:
		return diff == 0
	case GTE:
		return diff >= 0
	case GT:
		return diff > 0
	case NE:
		return diff != 0
	default:
		return false
	}
}

// MarkScan snapshots the current cursor position.
func (s *HeapFileScan) MarkScan() {
	s.markedPageNo = s.hf.curPageNo
	s.markedRec = s.hf.curRec
}

// ResetScan restores the cursor to the last MarkScan position, repinning a
// different page if the mark crossed a page boundary. curDirtyFlag is
// cleared only when that repin happens, matching
// original_source/CS564_stage4/heapfile.C's resetScan: the
// markedPageNo != curPageNo branch starts a fresh pin and so clears
// curDirtyFlag, while the same-page branch only restores curRec and leaves
// curDirtyFlag untouched, so a delete made since the mark still reaches
// UnpinPage with dirty=true.
func (s *HeapFileScan) ResetScan() error {
	hf := s.hf
	if s.markedPageNo != hf.curPageNo {
		if err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty); err != nil {
			return fmt.Errorf("heap: unpin page %d on reset of %s: %w", hf.curPageNo, hf.name, err)
		}
		page, err := hf.bm.ReadPage(hf.file, s.markedPageNo)
		if err != nil {
			return fmt.Errorf("heap: pin marked page %d of %s: %w", s.markedPageNo, hf.name, err)
		}
		hf.curPage = page
		hf.curPageNo = s.markedPageNo
		hf.curDirty = false
	}
	hf.curRec = s.markedRec
	return nil
}

// DeleteRecord tombstones the record the cursor currently sits on.
func (s *HeapFileScan) DeleteRecord() error {
	hf := s.hf
	if err := hf.curPage.DeleteRecord(hf.curRec.SlotNo); err != nil {
		return err
	}
	hf.curDirty = true
	hf.hdr.RecCnt--
	hf.hdrDirty = true
	return nil
}

// MarkDirty flags the current page dirty without deleting anything.
// Recovered from original_source/CS564_stage4/heapfile.C's
// HeapFileScan::markDirty, for callers that mutate a scanned record's
// bytes in place (e.g. a future UPDATE) without going through
// DeleteRecord.
func (s *HeapFileScan) MarkDirty() {
	s.hf.curDirty = true
}

// EndScan unpins the current page, if any, and clears cursor state. Safe
// to call more than once.
func (s *HeapFileScan) EndScan() error {
	hf := s.hf
	if hf.curPage == nil {
		return nil
	}
	err := hf.bm.UnpinPage(hf.file, hf.curPageNo, hf.curDirty)
	hf.curPage = nil
	hf.curRec = NullRID
	if err != nil {
		return fmt.Errorf("heap: unpin on end scan of %s: %w", hf.name, err)
	}
	return nil
}
