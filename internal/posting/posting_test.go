package posting

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddAndIterate(t *testing.T) {
	b := New()
	b.Add(5)
	b.Add(1)
	b.Add(5)
	require.EqualValues(t, 2, b.Cardinality())
	require.Equal(t, []uint32{1, 5}, b.ToSlice())
}

func TestUnionIntersect(t *testing.T) {
	a := New()
	a.Add(1)
	a.Add(2)
	b := New()
	b.Add(2)
	b.Add(3)

	union := New()
	union.Union(a)
	union.Union(b)
	require.Equal(t, []uint32{1, 2, 3}, union.ToSlice())

	a.Intersect(b)
	require.Equal(t, []uint32{2}, a.ToSlice())
}

func TestRoundTrip(t *testing.T) {
	b := New()
	b.Add(10)
	b.Add(20)
	b.Add(30)

	raw := b.Bytes()
	back, err := FromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, b.ToSlice(), back.ToSlice())
}

func TestFromBytesRejectsGarbage(t *testing.T) {
	_, err := FromBytes([]byte{0xff, 0x00, 0x01, 0x02, 0x03})
	require.Error(t, err)
}

func TestFromBytesRejectsEmpty(t *testing.T) {
	_, err := FromBytes(nil)
	require.Error(t, err)
}
