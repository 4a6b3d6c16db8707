package shard

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexandriatwo/alexandria/internal/posting"
	"github.com/alexandriatwo/alexandria/internal/record"
)

// buildTestShard hand-assembles a single-page shard: one key whose bitmap
// covers record ids {0, 1}, the two word_record entries (doc ids 1 and 2)
// in the record area.
// This exercises the exact byte layout from spec §6 without depending on
// the builder package.
func buildTestShard(t *testing.T, h uint64, key uint64) []byte {
	t.Helper()

	bm := posting.New()
	bm.Add(0)
	bm.Add(1)
	bmBytes := bm.Bytes()

	page := &Page{
		Keys: []uint64{key},
		Pos:  []uint64{0},
		Len:  []uint64{uint64(len(bmBytes))},
		Data: bmBytes,
	}
	pageBytes := EncodePage(page)

	header := make([]byte, h*8)
	for i := range header {
		header[i] = 0xff // SizeMax everywhere by default
	}
	bucket := BucketHash(key, h)
	binary.LittleEndian.PutUint64(header[bucket*8:bucket*8+8], uint64(len(header)+8+2*record.WordRecordSize))

	records := make([]byte, 8+2*record.WordRecordSize)
	binary.LittleEndian.PutUint64(records[0:8], 2)
	r1 := record.WordRecord{DocID: 1, ScoreVal: 0.5}.Bytes()
	r2 := record.WordRecord{DocID: 2, ScoreVal: 0.25}.Bytes()
	copy(records[8:8+record.WordRecordSize], r1)
	copy(records[8+record.WordRecordSize:], r2)

	buf := append(header, records...)
	buf = append(buf, pageBytes...)
	return buf
}

func TestFindReturnsRecordsInAscendingIDOrder(t *testing.T) {
	const h = 1024
	const key = uint64(424242)
	buf := buildTestShard(t, h, key)

	src := NewMemSource(buf)
	r, err := Open(src, "test.data", h, 2, record.WordCodec)
	require.NoError(t, err)

	recs, err := r.Find(key)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, record.WordRecord{DocID: 1, ScoreVal: 0.5}, recs[0])
	require.Equal(t, record.WordRecord{DocID: 2, ScoreVal: 0.25}, recs[1])
}

func TestFindAbsentKeyIsEmptyNotError(t *testing.T) {
	const h = 1024
	buf := buildTestShard(t, h, 424242)
	src := NewMemSource(buf)
	r, err := Open(src, "test.data", h, 2, record.WordCodec)
	require.NoError(t, err)

	recs, err := r.Find(999999)
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestIdfMonotonicity(t *testing.T) {
	const h = 1024
	buf := buildTestShard(t, h, 424242)
	src := NewMemSource(buf)
	r, err := Open(src, "test.data", h, 2, record.WordCodec)
	require.NoError(t, err)

	require.Equal(t, float32(0), r.Idf(2))
	require.Greater(t, r.Idf(1), r.Idf(2))
}

func TestForEachVisitsThePage(t *testing.T) {
	const h = 1024
	const key = uint64(424242)
	buf := buildTestShard(t, h, key)
	src := NewMemSource(buf)
	r, err := Open(src, "test.data", h, 2, record.WordCodec)
	require.NoError(t, err)

	var seen []uint64
	err = r.ForEach(func(kb KeyBitmap) bool {
		seen = append(seen, kb.Key)
		require.EqualValues(t, 2, kb.Bitmap.Cardinality())
		return true
	})
	require.NoError(t, err)
	require.Equal(t, []uint64{key}, seen)
}

func TestZeroHashTableShortCircuitsToOffsetZero(t *testing.T) {
	// With H == 0 the header table is disabled; every key resolves to the
	// single page living at absolute offset 0, per original_source's
	// read_key_pos short-circuit. This test only exercises bitmap lookup,
	// since the degenerate H == 0 layout has no separate record area.
	bm := posting.New()
	bm.Add(0)
	bmBytes := bm.Bytes()
	page := &Page{Keys: []uint64{7}, Pos: []uint64{0}, Len: []uint64{uint64(len(bmBytes))}, Data: bmBytes}
	pageBytes := EncodePage(page)

	src := NewMemSource(pageBytes)
	r, err := Open(src, "test.data", 0, 1, record.WordCodec)
	require.NoError(t, err)

	bm2, err := r.FindBitmap(7)
	require.NoError(t, err)
	require.EqualValues(t, 1, bm2.Cardinality())
}
