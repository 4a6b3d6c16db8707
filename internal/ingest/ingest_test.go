package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexandriatwo/alexandria/internal/config"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
	"github.com/alexandriatwo/alexandria/internal/tokenize"
)

func testConfig(t *testing.T, shardCount int) *config.Config {
	t.Helper()
	return &config.Config{
		Mounts:           []string{t.TempDir()},
		WordIndex:        config.IndexConfig{DBName: "words", HashSize: 1024, ShardCount: shardCount},
		LinkIndex:        config.IndexConfig{DBName: "links", HashSize: 1024, ShardCount: shardCount},
		DomainLinkIndex:  config.IndexConfig{DBName: "domain_links", HashSize: 1024, ShardCount: shardCount},
		LinkTextMaxBytes: config.DefaultLinkTextMaxBytes,
	}
}

func TestOrchestratorCreatesMountDirectories(t *testing.T) {
	cfg := testConfig(t, 2)
	o, err := New(cfg)
	require.NoError(t, err)
	for shardID := 0; shardID < 2; shardID++ {
		require.DirExists(t, filepath.Dir(o.DataPath(DBWord, shardID)))
	}
}

func TestWorkerInsertAndFlushThenMergeIsQueryable(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)

	w := o.NewWorker(1 << 20)
	appleHash := tokenize.Hash("apple")
	require.NoError(t, w.Insert(DBWord, appleHash, record.WordRecord{DocID: 1, ScoreVal: 1}))
	require.NoError(t, w.Flush())

	require.NoError(t, o.MergeAll(context.Background(), 2))

	src, err := shard.OpenFile(o.DataPath(DBWord, 0))
	require.NoError(t, err)
	defer src.Close()
	uc, err := shard.ReadMeta(o.MetaPath(DBWord, 0))
	require.NoError(t, err)
	r, err := shard.Open(src, o.DataPath(DBWord, 0), cfg.WordIndex.HashSize, uc, record.WordCodec)
	require.NoError(t, err)
	defer r.Close()

	recs, err := r.Find(appleHash)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, uint64(1), recs[0].PrimaryKey())
}

func TestIngestWordFileTokenizesColumnsOneThroughFour(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)
	w := o.NewWorker(1 << 20)

	dir := t.TempDir()
	path := filepath.Join(dir, "words.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"http://example.com/a\ttitle word\theading word\tbody word\tanchor word\n",
	), 0o644))

	require.NoError(t, w.IngestWordFile(path, DefaultURLResolver, nil))
	require.NoError(t, w.Flush())
	require.NoError(t, o.MergeAll(context.Background(), 1))

	src, err := shard.OpenFile(o.DataPath(DBWord, 0))
	require.NoError(t, err)
	defer src.Close()
	uc, err := shard.ReadMeta(o.MetaPath(DBWord, 0))
	require.NoError(t, err)
	r, err := shard.Open(src, o.DataPath(DBWord, 0), cfg.WordIndex.HashSize, uc, record.WordCodec)
	require.NoError(t, err)
	defer r.Close()

	for _, word := range []string{"title", "heading", "body", "anchor", "word"} {
		recs, err := r.Find(tokenize.Hash(word))
		require.NoError(t, err)
		require.NotEmptyf(t, recs, "expected a posting for %q", word)
	}
}

func TestIngestWordFileHonorsWordsToIndexFilter(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)
	w := o.NewWorker(1 << 20)

	dir := t.TempDir()
	path := filepath.Join(dir, "words.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"http://example.com/a\tkept\tdropped\t\t\n",
	), 0o644))

	filter := map[uint64]struct{}{tokenize.Hash("kept"): {}}
	require.NoError(t, w.IngestWordFile(path, DefaultURLResolver, filter))
	require.NoError(t, w.Flush())
	require.NoError(t, o.MergeAll(context.Background(), 1))

	src, err := shard.OpenFile(o.DataPath(DBWord, 0))
	require.NoError(t, err)
	defer src.Close()
	uc, err := shard.ReadMeta(o.MetaPath(DBWord, 0))
	require.NoError(t, err)
	r, err := shard.Open(src, o.DataPath(DBWord, 0), cfg.WordIndex.HashSize, uc, record.WordCodec)
	require.NoError(t, err)
	defer r.Close()

	kept, err := r.Find(tokenize.Hash("kept"))
	require.NoError(t, err)
	require.Len(t, kept, 1)

	dropped, err := r.Find(tokenize.Hash("dropped"))
	require.NoError(t, err)
	require.Empty(t, dropped)
}

func TestIngestLinkFileBuildsBothRecordTypes(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)
	w := o.NewWorker(1 << 20)

	dir := t.TempDir()
	path := filepath.Join(dir, "links.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"http://source.com/a\thttp://source.com/a\thttp://target.com/b\thttp://target.com/b\tclick here\n",
	), 0o644))

	require.NoError(t, w.IngestLinkFile(path, DefaultURLResolver, DefaultHarmonicScorer, DefaultLinkHasher, 0, nil, nil))
	require.NoError(t, w.Flush())
	require.NoError(t, o.MergeAll(context.Background(), 1))

	linkSrc, err := shard.OpenFile(o.DataPath(DBLink, 0))
	require.NoError(t, err)
	defer linkSrc.Close()
	linkUC, err := shard.ReadMeta(o.MetaPath(DBLink, 0))
	require.NoError(t, err)
	linkReader, err := shard.Open(linkSrc, o.DataPath(DBLink, 0), cfg.LinkIndex.HashSize, linkUC, record.LinkCodec)
	require.NoError(t, err)
	defer linkReader.Close()

	recs, err := linkReader.Find(tokenize.Hash("click"))
	require.NoError(t, err)
	require.Len(t, recs, 1)

	domainSrc, err := shard.OpenFile(o.DataPath(DBDomainLink, 0))
	require.NoError(t, err)
	defer domainSrc.Close()
	domainUC, err := shard.ReadMeta(o.MetaPath(DBDomainLink, 0))
	require.NoError(t, err)
	domainReader, err := shard.Open(domainSrc, o.DataPath(DBDomainLink, 0), cfg.DomainLinkIndex.HashSize, domainUC, record.DomainLinkCodec)
	require.NoError(t, err)
	defer domainReader.Close()

	domainRecs, err := domainReader.Find(tokenize.Hash("here"))
	require.NoError(t, err)
	require.Len(t, domainRecs, 1)
}

func TestIngestLinkFileSkipsUnindexedTargetDomains(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)
	w := o.NewWorker(1 << 20)

	dir := t.TempDir()
	path := filepath.Join(dir, "links.tsv")
	require.NoError(t, os.WriteFile(path, []byte(
		"http://source.com/a\thttp://source.com/a\thttp://other.com/b\thttp://other.com/b\tclick here\n",
	), 0o644))

	_, targetHostHash := DefaultURLResolver.Resolve("http://excluded.com/x", "http://excluded.com/x")
	domainsToIndex := map[uint64]struct{}{targetHostHash: {}}

	require.NoError(t, w.IngestLinkFile(path, DefaultURLResolver, DefaultHarmonicScorer, DefaultLinkHasher, 0, domainsToIndex, nil))
	require.NoError(t, w.Flush())
	require.NoError(t, o.MergeAll(context.Background(), 1))

	domainSrc, err := shard.OpenFile(o.DataPath(DBDomainLink, 0))
	require.NoError(t, err)
	defer domainSrc.Close()
	domainUC, err := shard.ReadMeta(o.MetaPath(DBDomainLink, 0))
	require.NoError(t, err)
	domainReader, err := shard.Open(domainSrc, o.DataPath(DBDomainLink, 0), cfg.DomainLinkIndex.HashSize, domainUC, record.DomainLinkCodec)
	require.NoError(t, err)
	defer domainReader.Close()

	recs, err := domainReader.Find(tokenize.Hash("click"))
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestTruncateRemovesThenRecreatesMountDirectories(t *testing.T) {
	cfg := testConfig(t, 1)
	o, err := New(cfg)
	require.NoError(t, err)
	w := o.NewWorker(1 << 20)

	require.NoError(t, w.Insert(DBWord, tokenize.Hash("apple"), record.WordRecord{DocID: 1, ScoreVal: 1}))
	require.NoError(t, w.Flush())
	require.NoError(t, o.MergeAll(context.Background(), 1))
	require.FileExists(t, o.DataPath(DBWord, 0))

	require.NoError(t, o.Truncate())

	require.NoFileExists(t, o.DataPath(DBWord, 0))
	require.DirExists(t, filepath.Dir(o.DataPath(DBWord, 0)))
}
