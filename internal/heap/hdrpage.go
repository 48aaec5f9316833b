package heap

import "encoding/binary"

// fileNameFieldLen mirrors original_source/CS564_stage4/heapfile.C's
// FileHdrPage::fileName, a fixed-width field used only for debugging —
// never consulted for correctness.
const fileNameFieldLen = 32

const hdrRecordLen = fileNameFieldLen + 4*4

// FileHdrPage is the decoded form of a heap file's header record: spec.md
// §3's "fileName, firstPage, lastPage, pageCnt, recCnt". It lives as the
// single record in slot 0 of the header page, so that mutating it is a
// matter of overwriting that record's bytes in place rather than
// reinserting a new slot for every update.
type FileHdrPage struct {
	FileName  string
	FirstPage int32
	LastPage  int32
	PageCnt   int32
	RecCnt    int32
}

func encodeHdr(h FileHdrPage) []byte {
	buf := make([]byte, hdrRecordLen)
	name := h.FileName
	if len(name) > fileNameFieldLen {
		name = name[:fileNameFieldLen]
	}
	copy(buf[:fileNameFieldLen], name)
	binary.LittleEndian.PutUint32(buf[fileNameFieldLen:], uint32(h.FirstPage))
	binary.LittleEndian.PutUint32(buf[fileNameFieldLen+4:], uint32(h.LastPage))
	binary.LittleEndian.PutUint32(buf[fileNameFieldLen+8:], uint32(h.PageCnt))
	binary.LittleEndian.PutUint32(buf[fileNameFieldLen+12:], uint32(h.RecCnt))
	return buf
}

func decodeHdr(b []byte) FileHdrPage {
	end := 0
	for end < fileNameFieldLen && b[end] != 0 {
		end++
	}
	return FileHdrPage{
		FileName:  string(b[:end]),
		FirstPage: int32(binary.LittleEndian.Uint32(b[fileNameFieldLen:])),
		LastPage:  int32(binary.LittleEndian.Uint32(b[fileNameFieldLen+4:])),
		PageCnt:   int32(binary.LittleEndian.Uint32(b[fileNameFieldLen+8:])),
		RecCnt:    int32(binary.LittleEndian.Uint32(b[fileNameFieldLen+12:])),
	}
}
