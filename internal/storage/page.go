// Package storage implements the paged-file and slotted-page abstractions
// spec.md §1 treats as opaque external collaborators, and the header-page
// layout §3 describes.
//
// Page is grounded on tuannm99-novasql's pkg/storage/page.go: a fixed
// header, a slot directory growing from the header toward the page end, and
// a tuple area growing down from the end of the page toward the header. Adapted to spec.md's exact
// operation set (Init, InsertRecord, DeleteRecord, FirstRecord, NextRecord,
// GetRecord, GetNextPage, SetNextPage) and to slot-index addressing instead
// of the teacher's raw byte offsets, plus a NextPage header field the
// teacher's single-page design didn't need (heap files here are a linked
// list of pages; tuannm99-novasql's Page never links to another page).
package storage

import (
	"encoding/binary"

	"github.com/Carina-TzuHsuan/CS564/internal/status"
)

// Header layout (little-endian):
//
//	[0:4)   pageNo   uint32
//	[4:8)   nextPage int32 (-1 = none)
//	[8:10)  lower    uint16 (end of slot directory)
//	[10:12) upper    uint16 (start of tuple area, grows down)
const (
	HeaderSize = 12
	SlotSize   = 6 // tupleOffset uint16, tupleLength uint16, flags uint16

	slotFlagLive    = uint16(0)
	slotFlagDeleted = uint16(1)
)

// Page is a slotted page over a caller-owned byte buffer. Its size is
// whatever len(buf) is — the engine fixes this per config.Storage.PageSize,
// Page itself is agnostic.
type Page struct {
	buf []byte
}

// NewPage wraps buf (which must already hold PageSize bytes) as a Page.
// The caller is responsible for calling Init on a freshly allocated page.
func NewPage(buf []byte) *Page {
	return &Page{buf: buf}
}

// Bytes returns the page's underlying buffer, for reading to/writing from
// disk.
func (p *Page) Bytes() []byte { return p.buf }

// Init formats an empty page with the given page number and no next page.
func (p *Page) Init(pageNo int32) {
	for i := range p.buf {
		p.buf[i] = 0
	}
	binary.LittleEndian.PutUint32(p.buf[0:4], uint32(pageNo))
	binary.LittleEndian.PutUint32(p.buf[4:8], uint32(-1))
	binary.LittleEndian.PutUint16(p.buf[8:10], uint16(HeaderSize))
	binary.LittleEndian.PutUint16(p.buf[10:12], uint16(len(p.buf)))
}

// PageNo returns the page number stamped by Init.
func (p *Page) PageNo() int32 {
	return int32(binary.LittleEndian.Uint32(p.buf[0:4]))
}

// GetNextPage returns the linked next-page number, or -1 if none.
func (p *Page) GetNextPage() int32 {
	return int32(binary.LittleEndian.Uint32(p.buf[4:8]))
}

// SetNextPage links this page to the next page in the heap file.
func (p *Page) SetNextPage(pageNo int32) {
	binary.LittleEndian.PutUint32(p.buf[4:8], uint32(pageNo))
}

func (p *Page) lower() int { return int(binary.LittleEndian.Uint16(p.buf[8:10])) }
func (p *Page) setLower(v int) {
	binary.LittleEndian.PutUint16(p.buf[8:10], uint16(v))
}

func (p *Page) upper() int { return int(binary.LittleEndian.Uint16(p.buf[10:12])) }
func (p *Page) setUpper(v int) {
	binary.LittleEndian.PutUint16(p.buf[10:12], uint16(v))
}

func (p *Page) numSlots() int {
	return (p.lower() - HeaderSize) / SlotSize
}

func (p *Page) slotOffset(slotNo int) int {
	return HeaderSize + slotNo*SlotSize
}

func (p *Page) getSlot(slotNo int) (tupleOffset, tupleLength int, flags uint16) {
	o := p.slotOffset(slotNo)
	return int(binary.LittleEndian.Uint16(p.buf[o : o+2])),
		int(binary.LittleEndian.Uint16(p.buf[o+2 : o+4])),
		binary.LittleEndian.Uint16(p.buf[o+4 : o+6])
}

func (p *Page) putSlot(slotNo, tupleOffset, tupleLength int, flags uint16) {
	o := p.slotOffset(slotNo)
	binary.LittleEndian.PutUint16(p.buf[o:o+2], uint16(tupleOffset))
	binary.LittleEndian.PutUint16(p.buf[o+2:o+4], uint16(tupleLength))
	binary.LittleEndian.PutUint16(p.buf[o+4:o+6], flags)
}

// InsertRecord appends rec to the page and returns its slot number.
// Returns status.ErrNoSpace if the page lacks room for the tuple plus a
// new slot entry.
func (p *Page) InsertRecord(rec []byte) (int, error) {
	need := len(rec) + SlotSize
	if p.upper()-p.lower() < need {
		return 0, status.ErrNoSpace
	}
	newUpper := p.upper() - len(rec)
	copy(p.buf[newUpper:], rec)
	p.setUpper(newUpper)

	slotNo := p.numSlots()
	p.putSlot(slotNo, newUpper, len(rec), slotFlagLive)
	p.setLower(p.lower() + SlotSize)
	return slotNo, nil
}

// DeleteRecord tombstones the record at slotNo. The tuple bytes are left
// in place (no compaction) — only the slot's flag changes — so later scans
// skip it via GetRecord/FirstRecord/NextRecord.
func (p *Page) DeleteRecord(slotNo int) error {
	if slotNo < 0 || slotNo >= p.numSlots() {
		return status.ErrBadSlot
	}
	off, length, flags := p.getSlot(slotNo)
	if flags == slotFlagDeleted {
		return status.ErrBadSlot
	}
	p.putSlot(slotNo, off, length, slotFlagDeleted)
	return nil
}

// GetRecord returns the bytes stored at slotNo. Returns status.ErrBadSlot
// if the slot is out of range or tombstoned.
func (p *Page) GetRecord(slotNo int) ([]byte, error) {
	if slotNo < 0 || slotNo >= p.numSlots() {
		return nil, status.ErrBadSlot
	}
	off, length, flags := p.getSlot(slotNo)
	if flags == slotFlagDeleted {
		return nil, status.ErrBadSlot
	}
	return p.buf[off : off+length], nil
}

// FirstRecord returns the slot number of the first live record on the
// page. Returns status.ErrNoRecords if the page holds no live records.
func (p *Page) FirstRecord() (int, error) {
	for i := 0; i < p.numSlots(); i++ {
		if _, _, flags := p.getSlot(i); flags != slotFlagDeleted {
			return i, nil
		}
	}
	return 0, status.ErrNoRecords
}

// NextRecord returns the slot number of the next live record after cur.
// Returns status.ErrEndOfPage if cur was the last live record on the page.
func (p *Page) NextRecord(cur int) (int, error) {
	for i := cur + 1; i < p.numSlots(); i++ {
		if _, _, flags := p.getSlot(i); flags != slotFlagDeleted {
			return i, nil
		}
	}
	return 0, status.ErrEndOfPage
}
