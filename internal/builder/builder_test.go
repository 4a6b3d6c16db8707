package builder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
)

const hashApple = uint64(1001)

func newTestBuilder(t *testing.T, h uint64) (*Builder, string) {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.append")
	b := New(0, h, record.WordCodec, logPath, DefaultByteBudget)
	return b, dir
}

// TestBuildThenQuery mirrors spec §8 scenario 4: two word_record postings
// for the same key, merged into a single-shard word index.
func TestBuildThenQuery(t *testing.T) {
	b, dir := newTestBuilder(t, 1024)

	b.Insert(hashApple, record.WordRecord{DocID: 1, ScoreVal: 0.5})
	b.Insert(hashApple, record.WordRecord{DocID: 2, ScoreVal: 0.25})
	require.NoError(t, b.Append())

	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))

	src, err := shard.OpenFile(dataPath)
	require.NoError(t, err)
	defer src.Close()
	uniqueCount, err := shard.ReadMeta(metaPath)
	require.NoError(t, err)
	require.EqualValues(t, 2, uniqueCount)

	r, err := shard.Open(src, dataPath, 1024, uniqueCount, record.WordCodec)
	require.NoError(t, err)

	recs, err := r.Find(hashApple)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.Equal(t, record.WordRecord{DocID: 1, ScoreVal: 0.5}, recs[0])
	require.Equal(t, record.WordRecord{DocID: 2, ScoreVal: 0.25}, recs[1])

	require.Equal(t, float32(0), r.Idf(2))
}

func TestAppendAcrossMultipleFlushesIsTolerated(t *testing.T) {
	b, dir := newTestBuilder(t, 1024)

	b.Insert(hashApple, record.WordRecord{DocID: 1, ScoreVal: 0.5})
	require.NoError(t, b.Append())
	b.Insert(hashApple, record.WordRecord{DocID: 2, ScoreVal: 0.25})
	require.NoError(t, b.Append())

	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))

	src, err := shard.OpenFile(dataPath)
	require.NoError(t, err)
	defer src.Close()
	uniqueCount, err := shard.ReadMeta(metaPath)
	require.NoError(t, err)
	r, err := shard.Open(src, dataPath, 1024, uniqueCount, record.WordCodec)
	require.NoError(t, err)

	recs, err := r.Find(hashApple)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestMergeOfEmptyBuilderWritesEmptyShard(t *testing.T) {
	b, dir := newTestBuilder(t, 1024)
	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))

	uniqueCount, err := shard.ReadMeta(metaPath)
	require.NoError(t, err)
	require.EqualValues(t, 0, uniqueCount)
}

func TestFullReportsBudgetExceeded(t *testing.T) {
	b, _ := newTestBuilder(t, 1024)
	b.byteBudget = 8
	require.False(t, b.Full())
	b.Insert(hashApple, record.WordRecord{DocID: 1, ScoreVal: 1})
	require.True(t, b.Full())
}

func TestTruncateRemovesAllFiles(t *testing.T) {
	b, dir := newTestBuilder(t, 1024)
	b.Insert(hashApple, record.WordRecord{DocID: 1, ScoreVal: 1})
	require.NoError(t, b.Append())
	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))

	require.NoError(t, b.Truncate(dataPath, metaPath))

	_, err := os.Stat(dataPath)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(metaPath)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(b.logPath)
	require.True(t, os.IsNotExist(err))
}
