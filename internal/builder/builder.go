package builder

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/hashmap"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/record"
)

// DefaultByteBudget is the default per-shard in-memory cache size before a
// flush is required, per spec §4.4 ("e.g. 250 MB per shard").
const DefaultByteBudget = 250 * 1024 * 1024

// Builder accumulates (key, record) insertions for one shard in memory,
// flushing to a per-shard append log when its byte budget is exceeded.
// Grounded on compactindexsized/build.go's Builder/tempBucket cache, with
// the perfect-hash bucket mining replaced by this format's simpler grouped-
// page layout (built at merge time, not at insert time).
type Builder struct {
	shardID int
	h       uint64
	codec   record.Codec

	logPath string

	mu         sync.Mutex
	cache      *hashmap.Map[uint64, []record.Record]
	cacheBytes int
	byteBudget int
}

// New creates a Builder for one shard. logPath is the per-shard append log
// file; it is created (or appended to) on first flush.
func New(shardID int, h uint64, codec record.Codec, logPath string, byteBudget int) *Builder {
	if byteBudget <= 0 {
		byteBudget = DefaultByteBudget
	}
	return &Builder{
		shardID:    shardID,
		h:          h,
		codec:      codec,
		logPath:    logPath,
		cache:      hashmap.New[uint64, []record.Record](64),
		byteBudget: byteBudget,
	}
}

// Insert adds one (key, record) pair to the in-memory cache. A Builder is
// not safe for concurrent use by multiple goroutines; per spec §5, each
// ingestion worker owns a private set of builders.
func (b *Builder) Insert(key uint64, rec record.Record) {
	existing, _ := b.cache.Get(key)
	b.cache.Set(key, append(existing, rec))
	b.cacheBytes += len(rec.Bytes()) + 8
}

// Full reports whether the cache has exceeded its byte budget and should be
// flushed. This is the soft BudgetExceeded signal from spec §7, not an
// error.
func (b *Builder) Full() bool {
	return b.cacheBytes >= b.byteBudget
}

// CacheBytes reports the current approximate cache size, for logging and
// orchestration backpressure decisions.
func (b *Builder) CacheBytes() int { return b.cacheBytes }

// Append serializes the current cache as one zstd-compressed batch of
// append-log frames, writes it to the shard's append log, and clears the
// cache. It does not sort; the final merged output is sorted regardless of
// flush-time order, per spec §4.4.
func (b *Builder) Append() error {
	if b.cache.Len() == 0 {
		return nil
	}

	var raw []byte
	b.cache.Scan(func(key uint64, recs []record.Record) bool {
		raw = append(raw, encodeFrame(key, recs)...)
		return true
	})

	compressed, err := compressBatch(raw)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(b.logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errs.Io(b.logPath, -1, err)
	}
	defer f.Close()

	var lenHdr [16]byte
	binary.LittleEndian.PutUint64(lenHdr[0:8], uint64(len(raw)))
	binary.LittleEndian.PutUint64(lenHdr[8:16], uint64(len(compressed)))
	if _, err := f.Write(lenHdr[:]); err != nil {
		return errs.Io(b.logPath, -1, err)
	}
	if _, err := f.Write(compressed); err != nil {
		return errs.Io(b.logPath, -1, err)
	}

	slog.Info("builder: flushed append batch",
		"shard", b.shardID,
		"log", b.logPath,
		"raw_bytes", humanize.Bytes(uint64(len(raw))),
		"compressed_bytes", humanize.Bytes(uint64(len(compressed))),
	)

	b.cache = hashmap.New[uint64, []record.Record](64)
	b.cacheBytes = 0
	return nil
}

// encodeFrame writes one append-log block: key:u64, record_count:u32,
// records (record_count * codec-specific size).
func encodeFrame(key uint64, recs []record.Record) []byte {
	out := make([]byte, 12)
	binary.LittleEndian.PutUint64(out[0:8], key)
	binary.LittleEndian.PutUint32(out[8:12], uint32(len(recs)))
	for _, r := range recs {
		out = append(out, r.Bytes()...)
	}
	return out
}

// AppendLogName returns the append-log path for a shard directory, used by
// orchestration when first wiring up a Builder for a shard.
func AppendLogName(dir string, shardID int) string {
	return filepath.Join(dir, fmt.Sprintf("%d.append", shardID))
}
