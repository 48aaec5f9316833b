package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Carina-TzuHsuan/CS564/internal/status"
)

func newTestPage(t *testing.T, size int) *Page {
	t.Helper()
	p := NewPage(make([]byte, size))
	p.Init(7)
	return p
}

func TestInitSetsPageNoAndNoNextPage(t *testing.T) {
	p := newTestPage(t, 256)
	require.Equal(t, int32(7), p.PageNo())
	require.Equal(t, int32(-1), p.GetNextPage())
}

func TestInsertGetRoundTrip(t *testing.T) {
	p := newTestPage(t, 256)
	slot, err := p.InsertRecord([]byte("hello"))
	require.NoError(t, err)

	rec, err := p.GetRecord(slot)
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), rec)
}

func TestInsertNoSpace(t *testing.T) {
	p := newTestPage(t, HeaderSize+SlotSize+4)
	_, err := p.InsertRecord([]byte("abcd"))
	require.NoError(t, err)

	_, err = p.InsertRecord([]byte("x"))
	require.True(t, errors.Is(err, status.ErrNoSpace))
}

func TestFirstRecordNoRecords(t *testing.T) {
	p := newTestPage(t, 256)
	_, err := p.FirstRecord()
	require.True(t, errors.Is(err, status.ErrNoRecords))
}

func TestScanOrderSkipsDeleted(t *testing.T) {
	p := newTestPage(t, 256)
	s0, _ := p.InsertRecord([]byte("a"))
	s1, _ := p.InsertRecord([]byte("b"))
	s2, _ := p.InsertRecord([]byte("c"))

	require.NoError(t, p.DeleteRecord(s1))

	first, err := p.FirstRecord()
	require.NoError(t, err)
	require.Equal(t, s0, first)

	next, err := p.NextRecord(first)
	require.NoError(t, err)
	require.Equal(t, s2, next)

	_, err = p.NextRecord(next)
	require.True(t, errors.Is(err, status.ErrEndOfPage))
}

func TestGetDeletedRecordFails(t *testing.T) {
	p := newTestPage(t, 256)
	slot, _ := p.InsertRecord([]byte("gone"))
	require.NoError(t, p.DeleteRecord(slot))

	_, err := p.GetRecord(slot)
	require.True(t, errors.Is(err, status.ErrBadSlot))

	err = p.DeleteRecord(slot)
	require.True(t, errors.Is(err, status.ErrBadSlot))
}

func TestSetNextPage(t *testing.T) {
	p := newTestPage(t, 256)
	p.SetNextPage(42)
	require.Equal(t, int32(42), p.GetNextPage())
}
