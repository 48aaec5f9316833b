// Package bufmgr implements the buffer manager of spec.md §4.2: a fixed
// array of page-sized frames, a parallel array of frame descriptors, and a
// clock hand, serving readPage/allocPage/unPinPage/disposePage/flushFile.
//
// Grounded line-for-line on original_source/CS564_stage3/buf.C for control
// flow (the clock sweep order, write-back-before-evict, hash-remove-before-
// Clear, flushFile's BadBuffer safety check) and on tuannm99-novasql's
// internal/bufferpool/pool.go for Go idiom: a frame slice plus a hash
// directory, constructors returning pointers, slog tracing on the hot path.
package bufmgr

import (
	"fmt"
	"log/slog"

	"github.com/Carina-TzuHsuan/CS564/internal/clock"
	"github.com/Carina-TzuHsuan/CS564/internal/hashtable"
	"github.com/Carina-TzuHsuan/CS564/internal/status"
	"github.com/Carina-TzuHsuan/CS564/internal/storage"
)

// BufDesc is a frame descriptor, spec.md §3's "BufDesc (frame descriptor)".
type BufDesc struct {
	File    *storage.File
	PageNo  int32
	FrameNo int
	PinCnt  int
	Dirty   bool
	Valid   bool
}

// Clear resets a descriptor to the empty state (spec.md I1: valid iff
// present in the hash directory).
func (d *BufDesc) Clear() {
	d.File = nil
	d.PageNo = -1
	d.PinCnt = 0
	d.Dirty = false
	d.Valid = false
}

// Set installs a freshly loaded or allocated page into this descriptor
// with a pin count of one.
func (d *BufDesc) Set(f *storage.File, pageNo int32) {
	d.File = f
	d.PageNo = pageNo
	d.PinCnt = 1
	d.Dirty = false
	d.Valid = true
}

// FrameStat is a read-only snapshot of one frame, recovered from
// original_source/CS564_stage3/buf.C's BufMgr::printSelf debug dump and
// exposed here to internal/adminhttp instead of stdout.
type FrameStat struct {
	FrameNo int    `json:"frame_no"`
	FileID  string `json:"file_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
	PageNo  int32  `json:"page_no"`
	PinCnt  int    `json:"pin_cnt"`
	Dirty   bool   `json:"dirty"`
	Valid   bool   `json:"valid"`
}

// BufMgr is the fixed-size buffer pool with clock replacement.
type BufMgr struct {
	numBufs  int
	pageSize int

	bufTable []BufDesc
	pagePool []*storage.Page
	hash     *hashtable.Directory
	clock    *clock.Hand
}

// New creates a BufMgr with numFrames frames of pageSize bytes each.
func New(numFrames, pageSize int) *BufMgr {
	if numFrames <= 0 {
		numFrames = 1
	}
	b := &BufMgr{
		numBufs:  numFrames,
		pageSize: pageSize,
		bufTable: make([]BufDesc, numFrames),
		pagePool: make([]*storage.Page, numFrames),
		hash:     hashtable.New(numFrames),
		clock:    clock.New(numFrames),
	}
	for i := range b.bufTable {
		b.bufTable[i].FrameNo = i
		b.bufTable[i].PageNo = -1
		b.pagePool[i] = storage.NewPage(make([]byte, pageSize))
	}
	return b
}

// NumFrames returns the pool's fixed capacity.
func (b *BufMgr) NumFrames() int { return b.numBufs }

func keyOf(f *storage.File, pageNo int32) hashtable.Key {
	return hashtable.Key{FileID: f.ID, PageNo: pageNo}
}

// allocBuf selects a victim frame using clock (second-chance) replacement,
// per spec.md §4.2.1. It sweeps at most once more than a full pass over
// the frame array: original_source/CS564_stage3/buf.C retries by a single
// recursive call to allocBuf when a sweep clears at least one ref bit,
// which is exactly "one more sweep, not unbounded retries".
func (b *BufMgr) allocBuf() (int, error) {
	return b.allocBufSweep(true)
}

func (b *BufMgr) allocBufSweep(allowRetry bool) (int, error) {
	clearedRefBits := false

	for attempts := 0; attempts < b.numBufs; attempts++ {
		frameNo := b.clock.Advance()
		d := &b.bufTable[frameNo]

		if !d.Valid {
			return frameNo, nil
		}
		if d.PinCnt > 0 {
			continue
		}
		if b.clock.Ref(frameNo) {
			b.clock.ClearRef(frameNo)
			clearedRefBits = true
			continue
		}
		if d.Dirty {
			if err := d.File.WritePage(d.PageNo, b.pagePool[frameNo].Bytes()); err != nil {
				return 0, fmt.Errorf("bufmgr: write back frame %d: %w", frameNo, err)
			}
			d.Dirty = false
		}
		if err := b.hash.Remove(keyOf(d.File, d.PageNo)); err != nil {
			return 0, fmt.Errorf("bufmgr: evict frame %d: %w", frameNo, err)
		}
		d.Clear()
		b.clock.ClearRef(frameNo)
		return frameNo, nil
	}

	if clearedRefBits && allowRetry {
		return b.allocBufSweep(false)
	}
	return 0, status.ErrBufferExceeded
}

// ReadPage pins file's pageNo, loading it from disk on a miss. Every
// successful call must be paired with exactly one UnpinPage.
func (b *BufMgr) ReadPage(file *storage.File, pageNo int32) (*storage.Page, error) {
	key := keyOf(file, pageNo)

	if frameNo, err := b.hash.Lookup(key); err == nil {
		d := &b.bufTable[frameNo]
		d.PinCnt++
		b.clock.Touch(frameNo)
		slog.Debug("bufmgr: pin hit", "file", file.Name, "pageNo", pageNo, "frame", frameNo, "pinCnt", d.PinCnt)
		return b.pagePool[frameNo], nil
	}

	frameNo, err := b.allocBuf()
	if err != nil {
		return nil, err
	}
	if err := file.ReadPage(pageNo, b.pagePool[frameNo].Bytes()); err != nil {
		return nil, fmt.Errorf("bufmgr: load page %d of %s: %w", pageNo, file.Name, err)
	}
	b.bufTable[frameNo].Set(file, pageNo)
	b.clock.Touch(frameNo)
	if err := b.hash.Insert(key, frameNo); err != nil {
		return nil, fmt.Errorf("bufmgr: install frame %d: %w", frameNo, err)
	}
	slog.Debug("bufmgr: pin miss, loaded", "file", file.Name, "pageNo", pageNo, "frame", frameNo)
	return b.pagePool[frameNo], nil
}

// UnpinPage decrements pageNo's pin count. If dirty is true, the frame is
// marked dirty (dirty is never cleared here — only by write-back).
func (b *BufMgr) UnpinPage(file *storage.File, pageNo int32, dirty bool) error {
	frameNo, err := b.hash.Lookup(keyOf(file, pageNo))
	if err != nil {
		return status.ErrHashTblError
	}
	d := &b.bufTable[frameNo]
	if d.PinCnt <= 0 {
		return status.ErrPageNotPinned
	}
	d.PinCnt--
	if dirty {
		d.Dirty = true
	}
	return nil
}

// AllocPage assigns a fresh on-disk page number and pins a frame for it.
// The frame's bytes are not zeroed here; callers that need an initialized
// page call Page.Init themselves.
func (b *BufMgr) AllocPage(file *storage.File) (int32, *storage.Page, error) {
	pageNo, err := file.AllocatePage()
	if err != nil {
		return 0, nil, fmt.Errorf("bufmgr: allocate page on %s: %w", file.Name, err)
	}

	frameNo, err := b.allocBuf()
	if err != nil {
		return 0, nil, err
	}
	b.bufTable[frameNo].Set(file, pageNo)
	b.clock.Touch(frameNo)
	if err := b.hash.Insert(keyOf(file, pageNo), frameNo); err != nil {
		return 0, nil, fmt.Errorf("bufmgr: install frame %d: %w", frameNo, err)
	}
	return pageNo, b.pagePool[frameNo], nil
}

// DisposePage discards any cached copy of pageNo (without write-back —
// the caller asserts the page is no longer needed) and then releases it
// at the file level.
func (b *BufMgr) DisposePage(file *storage.File, pageNo int32) error {
	key := keyOf(file, pageNo)
	if frameNo, err := b.hash.Lookup(key); err == nil {
		b.bufTable[frameNo].Clear()
		b.clock.ClearRef(frameNo)
		_ = b.hash.Remove(key)
	}
	if err := file.DisposePage(pageNo); err != nil {
		return fmt.Errorf("bufmgr: dispose page %d of %s: %w", pageNo, file.Name, err)
	}
	return nil
}

// FlushFile writes back every dirty frame belonging to file and evicts
// them all. Fails with status.ErrPagePinned if any matching frame is still
// pinned.
func (b *BufMgr) FlushFile(file *storage.File) error {
	for i := range b.bufTable {
		d := &b.bufTable[i]
		switch {
		case d.Valid && d.File == file:
			if d.PinCnt > 0 {
				return status.ErrPagePinned
			}
			if d.Dirty {
				if err := file.WritePage(d.PageNo, b.pagePool[i].Bytes()); err != nil {
					return fmt.Errorf("bufmgr: flush frame %d: %w", i, err)
				}
				d.Dirty = false
			}
			_ = b.hash.Remove(keyOf(file, d.PageNo))
			d.Clear()
			b.clock.ClearRef(i)
		case !d.Valid && d.File == file:
			return status.ErrBadBuffer
		}
	}
	return nil
}

// Close is the buffer manager's destructor: it writes back every valid and
// dirty frame. Per spec.md §4.2.7 it does not require every pin to be
// zero — outstanding pins at shutdown are logged, not treated as an error.
func (b *BufMgr) Close() error {
	for i := range b.bufTable {
		d := &b.bufTable[i]
		if d.Valid && d.Dirty {
			if err := d.File.WritePage(d.PageNo, b.pagePool[i].Bytes()); err != nil {
				slog.Error("bufmgr: flush on close failed", "frame", i, "pageNo", d.PageNo, "err", err)
				continue
			}
			d.Dirty = false
		}
		if d.Valid && d.PinCnt > 0 {
			slog.Warn("bufmgr: frame still pinned at shutdown", "frame", i, "pageNo", d.PageNo, "pinCnt", d.PinCnt)
		}
	}
	return nil
}

// DebugFrames returns a point-in-time snapshot of every frame, recovered
// from original_source/CS564_stage3/buf.C's BufMgr::printSelf.
func (b *BufMgr) DebugFrames() []FrameStat {
	out := make([]FrameStat, b.numBufs)
	for i := range b.bufTable {
		d := &b.bufTable[i]
		stat := FrameStat{
			FrameNo: i,
			PageNo:  d.PageNo,
			PinCnt:  d.PinCnt,
			Dirty:   d.Dirty,
			Valid:   d.Valid,
		}
		if d.Valid && d.File != nil {
			stat.FileID = d.File.ID.String()
			stat.FileName = d.File.Name
		}
		out[i] = stat
	}
	return out
}
