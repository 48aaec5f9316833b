// Package status defines the closed set of sentinel errors shared by the
// buffer manager, heap file, and query executor layers.
package status

import "errors"

var (
	// ErrBufferExceeded means every frame in the pool is pinned; no victim
	// could be chosen.
	ErrBufferExceeded = errors.New("bufmgr: all frames pinned, cannot evict")

	// ErrHashTblError means a hash-directory insert hit an existing key, or
	// a lookup/remove was issued against an absent key.
	ErrHashTblError = errors.New("bufmgr: hash directory key collision or absent key")

	// ErrPageNotPinned means unPinPage was called against a frame whose
	// pin count is already zero.
	ErrPageNotPinned = errors.New("bufmgr: unpin against a frame with pinCnt <= 0")

	// ErrPagePinned means flushFile found an outstanding pin on a frame
	// belonging to the file being flushed.
	ErrPagePinned = errors.New("bufmgr: page is pinned")

	// ErrBadBuffer means an invalid frame descriptor claims to belong to a
	// file during flushFile — internal inconsistency.
	ErrBadBuffer = errors.New("bufmgr: invalid frame claims a file")

	// ErrBadRID means a record id failed validation (negative page or slot).
	ErrBadRID = errors.New("heap: malformed record id")

	// ErrBadScanParm means startScan was given an invalid filter parameter
	// combination.
	ErrBadScanParm = errors.New("heap: invalid scan parameter combination")

	// ErrInvalidRecLen means a record is too large to ever fit on a page.
	ErrInvalidRecLen = errors.New("heap: record exceeds page capacity")

	// ErrNoSpace is a page-layer condition: insufficient free space for a
	// tuple. Consumed and translated by InsertFileScan / HeapFile callers.
	ErrNoSpace = errors.New("page: insufficient free space")

	// ErrEndOfPage is a page-layer condition: no next slot on this page.
	ErrEndOfPage = errors.New("page: end of page reached")

	// ErrNoRecords is a page-layer condition: the page holds no live
	// records at all.
	ErrNoRecords = errors.New("page: no records on page")

	// ErrBadSlot means the requested slot does not hold a live record
	// (never inserted, or tombstoned by delete).
	ErrBadSlot = errors.New("page: slot does not hold a live record")

	// ErrFileEOF means a scan has been driven past its last matching
	// record.
	ErrFileEOF = errors.New("heap: scan exhausted")

	// ErrAttrNotFound means an attribute name is missing from a schema or
	// from an argument list that was supposed to cover the whole schema.
	ErrAttrNotFound = errors.New("catalog: attribute not found")

	// ErrRelNotFound means a relation name is missing from the catalog.
	ErrRelNotFound = errors.New("catalog: relation not found")

	// ErrRelExists means a relation with this name has already been
	// created.
	ErrRelExists = errors.New("catalog: relation already exists")
)
