package hashtable

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Carina-TzuHsuan/CS564/internal/status"
)

func TestInsertLookupRemove(t *testing.T) {
	d := New(4)
	f1 := uuid.New()
	k := Key{FileID: f1, PageNo: 3}

	require.NoError(t, d.Insert(k, 7))

	frameNo, err := d.Lookup(k)
	require.NoError(t, err)
	require.Equal(t, 7, frameNo)

	require.NoError(t, d.Remove(k))

	_, err = d.Lookup(k)
	require.True(t, errors.Is(err, status.ErrHashTblError))
}

func TestInsertCollisionFails(t *testing.T) {
	d := New(4)
	f1 := uuid.New()
	k := Key{FileID: f1, PageNo: 1}

	require.NoError(t, d.Insert(k, 0))
	err := d.Insert(k, 1)
	require.True(t, errors.Is(err, status.ErrHashTblError))
}

func TestDistinctFileIdentitySameName(t *testing.T) {
	// Two open handles to the same file name are distinct keys: pointer
	// (here, UUID) identity is part of the key, per spec.md §4.1.
	d := New(4)
	f1, f2 := uuid.New(), uuid.New()
	k1 := Key{FileID: f1, PageNo: 0}
	k2 := Key{FileID: f2, PageNo: 0}

	require.NoError(t, d.Insert(k1, 0))
	require.NoError(t, d.Insert(k2, 1))

	v1, err := d.Lookup(k1)
	require.NoError(t, err)
	require.Equal(t, 0, v1)

	v2, err := d.Lookup(k2)
	require.NoError(t, err)
	require.Equal(t, 1, v2)
}

func TestRemoveAbsentFails(t *testing.T) {
	d := New(4)
	err := d.Remove(Key{FileID: uuid.New(), PageNo: 0})
	require.True(t, errors.Is(err, status.ErrHashTblError))
}
