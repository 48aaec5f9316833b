package engine

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Carina-TzuHsuan/CS564/internal/catalog"
	"github.com/Carina-TzuHsuan/CS564/internal/heap"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(t.TempDir(), 512, 32)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// End-to-end scenario 1 from spec.md §8: create relation R with schema
// {id:INT, name:CHAR(10)}, Insert, Select into R2, assert projected record
// content.
func TestSelectProjectsIntoResultRelation(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.CreateTable("R", []catalog.AttrInfo{
		{Name: "id", Type: catalog.INTEGER},
		{Name: "name", Type: catalog.STRING, Length: 10},
	}))
	require.NoError(t, e.CreateTable("R2", []catalog.AttrInfo{
		{Name: "name", Type: catalog.STRING, Length: 10},
	}))

	require.NoError(t, e.Insert("R", []AttrValue{
		{Attr: "id", Value: "7"},
		{Attr: "name", Value: "alice"},
	}))

	require.NoError(t, e.Select("R2", []ProjAttr{{Relation: "R", Attr: "name"}}, "", "", heap.EQ))

	hf, err := heap.Open(e.dir, e.bm, "R2")
	require.NoError(t, err)
	defer hf.Close()

	scan := heap.NewScan(hf)
	require.NoError(t, scan.StartScan(0, 0, catalog.STRING, nil, heap.EQ))
	defer scan.EndScan()

	rid, err := scan.ScanNext()
	require.NoError(t, err)

	rec, err := hf.GetRecord(rid)
	require.NoError(t, err)

	expected := make([]byte, 10)
	copy(expected, "alice")
	require.Equal(t, expected, rec)
}

func TestInsertRejectsAttributeCountMismatch(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("R", []catalog.AttrInfo{
		{Name: "id", Type: catalog.INTEGER},
	}))

	err := e.Insert("R", []AttrValue{
		{Attr: "id", Value: "1"},
		{Attr: "extra", Value: "oops"},
	})
	require.Error(t, err)
}

func TestInsertRejectsUnknownAttribute(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("R", []catalog.AttrInfo{
		{Name: "id", Type: catalog.INTEGER},
	}))

	err := e.Insert("R", []AttrValue{{Attr: "nope", Value: "1"}})
	require.Error(t, err)
}

// Scenario 4 from spec.md §8: filtered delete removes exactly the matching
// records and getRecCnt() reflects the delta.
func TestDeleteWithFilterRemovesMatchesOnly(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("R", []catalog.AttrInfo{
		{Name: "id", Type: catalog.INTEGER},
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, e.Insert("R", []AttrValue{{Attr: "id", Value: strconv.Itoa(i)}}))
	}

	deleted, err := e.Delete("R", "id", heap.GT, "5")
	require.NoError(t, err)
	require.Equal(t, 4, deleted)

	hf, err := heap.Open(e.dir, e.bm, "R")
	require.NoError(t, err)
	require.Equal(t, 6, hf.RecCnt())
	require.NoError(t, hf.Close())
}

func TestDeleteUnfilteredRemovesEverything(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.CreateTable("R", []catalog.AttrInfo{
		{Name: "id", Type: catalog.INTEGER},
	}))
	for i := 0; i < 5; i++ {
		require.NoError(t, e.Insert("R", []AttrValue{{Attr: "id", Value: strconv.Itoa(i)}}))
	}

	deleted, err := e.Delete("R", "", heap.EQ, "")
	require.NoError(t, err)
	require.Equal(t, 5, deleted)

	hf, err := heap.Open(e.dir, e.bm, "R")
	require.NoError(t, err)
	require.Equal(t, 0, hf.RecCnt())
	require.NoError(t, hf.Close())
}
