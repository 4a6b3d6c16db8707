package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexandriatwo/alexandria/internal/builder"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
	"github.com/alexandriatwo/alexandria/internal/sharded"
	"github.com/alexandriatwo/alexandria/internal/tokenize"
)

func buildWordShard(t *testing.T, h uint64, inserts func(b *builder.Builder)) *shard.Reader {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.append")
	b := builder.New(0, h, record.WordCodec, logPath, builder.DefaultByteBudget)
	inserts(b)
	require.NoError(t, b.Append())
	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))
	src, err := shard.OpenFile(dataPath)
	require.NoError(t, err)
	uc, err := shard.ReadMeta(metaPath)
	require.NoError(t, err)
	r, err := shard.Open(src, dataPath, h, uc, record.WordCodec)
	require.NoError(t, err)
	return r
}

func emptyIndex(t *testing.T, codec record.Codec) *sharded.Index {
	t.Helper()
	dir := t.TempDir()
	logPath := filepath.Join(dir, "0.append")
	b := builder.New(0, 1024, codec, logPath, builder.DefaultByteBudget)
	dataPath := filepath.Join(dir, "0.data")
	metaPath := filepath.Join(dir, "0.meta")
	require.NoError(t, b.Merge(dataPath, metaPath))
	src, err := shard.OpenFile(dataPath)
	require.NoError(t, err)
	uc, err := shard.ReadMeta(metaPath)
	require.NoError(t, err)
	r, err := shard.Open(src, dataPath, 1024, uc, codec)
	require.NoError(t, err)
	return sharded.New([]*shard.Reader{r})
}

// TestFindRanksByBM25SumDescending builds a single-shard word index for
// "apple" and "pie" and checks Find ranks the document matching both terms
// above the one matching only one.
func TestFindRanksByBM25SumDescending(t *testing.T) {
	appleHash := tokenize.Hash("apple")
	pieHash := tokenize.Hash("pie")

	wordShard := buildWordShard(t, 1024, func(b *builder.Builder) {
		b.Insert(appleHash, record.WordRecord{DocID: 1, ScoreVal: 0.5})
		b.Insert(pieHash, record.WordRecord{DocID: 1, ScoreVal: 0.5})
		b.Insert(appleHash, record.WordRecord{DocID: 2, ScoreVal: 0.4})
	})
	defer wordShard.Close()

	m := &Manager{
		WordIndex:       sharded.New([]*shard.Reader{wordShard}),
		LinkIndex:       emptyIndex(t, record.LinkCodec),
		DomainLinkIndex: emptyIndex(t, record.DomainLinkCodec),
	}

	result, err := m.Find("apple pie")
	require.NoError(t, err)
	require.Len(t, result.Documents, 2)
	require.Equal(t, uint32(1), result.Documents[0].DocID)
	require.InDelta(t, 1.0, result.Documents[0].Score, 1e-6)
	require.Equal(t, uint32(2), result.Documents[1].DocID)
	require.InDelta(t, 0.4, result.Documents[1].Score, 1e-6)
}

func TestFindOnEmptyQueryReturnsNoDocuments(t *testing.T) {
	m := &Manager{
		WordIndex:       emptyIndex(t, record.WordCodec),
		LinkIndex:       emptyIndex(t, record.LinkCodec),
		DomainLinkIndex: emptyIndex(t, record.DomainLinkCodec),
	}
	result, err := m.Find("   ,,, ")
	require.NoError(t, err)
	require.Empty(t, result.Documents)
}
