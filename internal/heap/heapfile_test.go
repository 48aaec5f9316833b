package heap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Carina-TzuHsuan/CS564/internal/bufmgr"
	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
	"github.com/Carina-TzuHsuan/CS564/internal/status"
	"github.com/Carina-TzuHsuan/CS564/internal/storage"
)

const testPageSize = 256

func newTestEnv(t *testing.T) (*storage.Directory, *bufmgr.BufMgr) {
	t.Helper()
	dir, err := storage.NewDirectory(t.TempDir(), testPageSize)
	require.NoError(t, err)
	return dir, bufmgr.New(16, testPageSize)
}

func TestCreateHeapFileIsNoOpIfExists(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
}

// R1: insertRecord followed by getRecord yields the same bytes.
func TestInsertThenGetRoundTrip(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))

	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)

	ins := NewInsertScan(hf)
	rid, err := ins.InsertRecord([]byte("hello world"))
	require.NoError(t, err)

	rec, err := hf.GetRecord(rid)
	require.NoError(t, err)
	require.Equal(t, []byte("hello world"), rec)
	require.Equal(t, 1, hf.RecCnt())

	require.NoError(t, hf.Close())
}

func TestInsertRejectsOversizedRecord(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)
	defer hf.Close()

	ins := NewInsertScan(hf)
	huge := make([]byte, testPageSize)
	_, err = ins.InsertRecord(huge)
	require.True(t, errors.Is(err, status.ErrInvalidRecLen))
}

func TestGetRecordBadRID(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)
	defer hf.Close()

	_, err = hf.GetRecord(RID{PageNo: -1, SlotNo: 0})
	require.True(t, errors.Is(err, status.ErrBadRID))
}

// Scenario 5 from spec.md §8: a page fills up, a new page is allocated and
// linked, pageCnt grows by one, and the overflowing insert still succeeds.
func TestInsertOverflowsToNewPage(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)
	defer hf.Close()

	ins := NewInsertScan(hf)
	rec := make([]byte, 64)
	var lastRid RID
	for i := 0; i < 20; i++ {
		rid, err := ins.InsertRecord(rec)
		require.NoError(t, err)
		lastRid = rid
	}

	require.Greater(t, hf.hdr.PageCnt, int32(1))
	got, err := hf.GetRecord(lastRid)
	require.NoError(t, err)
	require.Equal(t, rec, got)
}

// R2: deleting every record leaves an immediate FileEOF scan and
// getRecCnt()==0.
func TestDeleteAllLeavesEmptyScan(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)

	ins := NewInsertScan(hf)
	for i := 0; i < 5; i++ {
		_, err := ins.InsertRecord([]byte("xxxx"))
		require.NoError(t, err)
	}

	scan := NewScan(hf)
	require.NoError(t, scan.StartScan(0, 0, catalog.STRING, nil, EQ))
	for {
		rid, err := scan.ScanNext()
		if errors.Is(err, status.ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, scan.DeleteRecord())
		_ = rid
	}
	require.NoError(t, scan.EndScan())

	require.Equal(t, 0, hf.RecCnt())

	scan2 := NewScan(hf)
	require.NoError(t, scan2.StartScan(0, 0, catalog.STRING, nil, EQ))
	_, err = scan2.ScanNext()
	require.True(t, errors.Is(err, status.ErrFileEOF))
	require.NoError(t, scan2.EndScan())

	require.NoError(t, hf.Close())
}

// R3: markScan / forward progress / resetScan / scan-to-completion yields
// the same RID sequence as a fresh scan from the marked point.
func TestMarkResetReplaysSameSequence(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)
	defer hf.Close()

	ins := NewInsertScan(hf)
	for i := 0; i < 30; i++ {
		_, err := ins.InsertRecord(make([]byte, 32))
		require.NoError(t, err)
	}

	scan := NewScan(hf)
	require.NoError(t, scan.StartScan(0, 0, catalog.STRING, nil, EQ))

	var before []RID
	for i := 0; i < 5; i++ {
		rid, err := scan.ScanNext()
		require.NoError(t, err)
		before = append(before, rid)
	}
	scan.MarkScan()

	var fromMark []RID
	for {
		rid, err := scan.ScanNext()
		if errors.Is(err, status.ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		fromMark = append(fromMark, rid)
	}

	require.NoError(t, scan.ResetScan())
	var replay []RID
	for {
		rid, err := scan.ScanNext()
		if errors.Is(err, status.ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		replay = append(replay, rid)
	}

	require.Equal(t, fromMark, replay)
	require.NoError(t, scan.EndScan())
}

// Scenario 4 from spec.md §8: a filtered delete removes exactly the
// matching records and the recCnt delta matches.
func TestFilteredDeleteDecrementsRecCnt(t *testing.T) {
	dir, bm := newTestEnv(t)
	require.NoError(t, CreateHeapFile(dir, bm, "R"))
	hf, err := Open(dir, bm, "R")
	require.NoError(t, err)

	ins := NewInsertScan(hf)
	encode := func(v int32) []byte {
		b := make([]byte, 4)
		b[0] = byte(v)
		b[1] = byte(v >> 8)
		b[2] = byte(v >> 16)
		b[3] = byte(v >> 24)
		return b
	}
	for i := int32(0); i < 10; i++ {
		_, err := ins.InsertRecord(encode(i))
		require.NoError(t, err)
	}
	require.Equal(t, 10, hf.RecCnt())

	scan := NewScan(hf)
	filter := encode(5)
	require.NoError(t, scan.StartScan(0, 4, catalog.INTEGER, filter, GT))

	matched := 0
	for {
		_, err := scan.ScanNext()
		if errors.Is(err, status.ErrFileEOF) {
			break
		}
		require.NoError(t, err)
		require.NoError(t, scan.DeleteRecord())
		matched++
	}
	require.NoError(t, scan.EndScan())

	require.Equal(t, 4, matched) // 6,7,8,9
	require.Equal(t, 6, hf.RecCnt())

	require.NoError(t, hf.Close())
}
