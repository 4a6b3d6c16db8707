// Package ingest orchestrates parallel ingestion and merge across every
// shard of the three sharded indices, per spec §5's concurrency model:
// private per-worker builder state, one mutex per shard protecting its
// shared append log, and a separate quiescent merge pass once ingestion
// finishes.
//
// Grounded on original_source/src/indexer/index_manager.cpp's
// add_word_files_threaded/add_link_files_threaded (a thread pool fanning
// out over input files, each worker appending to shared per-shard state)
// and index_manager::merge/truncate, reworked onto golang.org/x/sync's
// errgroup+semaphore in place of the out-of-scope thread-pool collaborator.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"k8s.io/klog/v2"

	"github.com/alexandriatwo/alexandria/continuity"
	"github.com/alexandriatwo/alexandria/internal/builder"
	"github.com/alexandriatwo/alexandria/internal/config"
	"github.com/alexandriatwo/alexandria/internal/metrics"
	"github.com/alexandriatwo/alexandria/internal/record"
)

// DB names the three sharded indices an Orchestrator manages.
type DB int

const (
	DBWord DB = iota
	DBLink
	DBDomainLink
)

func (db DB) String() string {
	switch db {
	case DBWord:
		return "word"
	case DBLink:
		return "link"
	case DBDomainLink:
		return "domain_link"
	default:
		return "unknown"
	}
}

type dbSpec struct {
	index config.IndexConfig
	codec record.Codec
}

// Orchestrator holds one configuration's worth of shard-index layout and
// the shared append-log mutexes every worker's private builders contend
// on, per spec §5's "one mutex per shard-index" rule.
type Orchestrator struct {
	cfg   *config.Config
	specs map[DB]dbSpec
	mu    map[DB][]sync.Mutex
}

// New builds an Orchestrator from cfg and ensures each shard's mount
// directory exists.
func New(cfg *config.Config) (*Orchestrator, error) {
	o := &Orchestrator{
		cfg: cfg,
		specs: map[DB]dbSpec{
			DBWord:       {index: cfg.WordIndex, codec: record.WordCodec},
			DBLink:       {index: cfg.LinkIndex, codec: record.LinkCodec},
			DBDomainLink: {index: cfg.DomainLinkIndex, codec: record.DomainLinkCodec},
		},
		mu: make(map[DB][]sync.Mutex, 3),
	}
	for db, spec := range o.specs {
		o.mu[db] = make([]sync.Mutex, spec.index.ShardCount)
		for shardID := 0; shardID < spec.index.ShardCount; shardID++ {
			if err := os.MkdirAll(o.shardDir(db, shardID), 0o755); err != nil {
				return nil, err
			}
		}
	}
	return o, nil
}

func (o *Orchestrator) shardDir(db DB, shardID int) string {
	spec := o.specs[db]
	return filepath.Join(o.cfg.Mount(shardID), spec.index.DBName)
}

// DataPath, MetaPath and LogPath are the canonical shard file, metadata
// sidecar and append-log paths for (db, shardID), per spec §6's
// "/<mount>/<db_name>/<shard_id>.data" filesystem layout.
func (o *Orchestrator) DataPath(db DB, shardID int) string {
	return filepath.Join(o.shardDir(db, shardID), fmt.Sprintf("%d.data", shardID))
}

func (o *Orchestrator) MetaPath(db DB, shardID int) string {
	return filepath.Join(o.shardDir(db, shardID), fmt.Sprintf("%d.meta", shardID))
}

func (o *Orchestrator) LogPath(db DB, shardID int) string {
	return builder.AppendLogName(o.shardDir(db, shardID), shardID)
}

// ShardCount reports how many shards db has.
func (o *Orchestrator) ShardCount(db DB) int { return o.specs[db].index.ShardCount }

// Worker owns a private set of per-shard builders, one per (db, shard),
// each with its own in-memory cache and byte budget. Builder state is
// never shared across workers; only the append-log file and its mutex
// are, per spec §5.
type Worker struct {
	o        *Orchestrator
	builders map[DB][]*builder.Builder
}

// NewWorker creates a Worker with fresh, empty builders for every shard of
// every index, all pointed at this Orchestrator's shared append-log paths.
func (o *Orchestrator) NewWorker(byteBudget int) *Worker {
	w := &Worker{o: o, builders: make(map[DB][]*builder.Builder, 3)}
	for db, spec := range o.specs {
		bs := make([]*builder.Builder, spec.index.ShardCount)
		for shardID := range bs {
			bs[shardID] = builder.New(shardID, spec.index.HashSize, spec.codec, o.LogPath(db, shardID), byteBudget)
		}
		w.builders[db] = bs
	}
	return w
}

// Insert routes (key, rec) to db's shard key mod ShardCount(db) and
// inserts it into this worker's private builder for that shard, flushing
// under the shard's shared mutex if the cache is now over budget.
func (w *Worker) Insert(db DB, key uint64, rec record.Record) error {
	bs := w.builders[db]
	shardID := int(key % uint64(len(bs)))
	bs[shardID].Insert(key, rec)
	if bs[shardID].Full() {
		return w.flushLocked(db, shardID)
	}
	return nil
}

func (w *Worker) flushLocked(db DB, shardID int) error {
	w.o.mu[db][shardID].Lock()
	defer w.o.mu[db][shardID].Unlock()
	if err := w.builders[db][shardID].Append(); err != nil {
		return err
	}
	metrics.BuilderFlushes.WithLabelValues(db.String()).Inc()
	return nil
}

// Flush appends every builder's current cache regardless of Full(),
// flushing this worker's remaining in-memory state. Call once per
// input-file boundary so a worker's partial cache survives a process exit
// between files.
func (w *Worker) Flush() error {
	for db, bs := range w.builders {
		for shardID, b := range bs {
			if b.CacheBytes() == 0 {
				continue
			}
			if err := w.flushLocked(db, shardID); err != nil {
				return err
			}
		}
	}
	return nil
}

// MergeAll runs the merge phase for every shard of every index, bounded to
// concurrency simultaneous merges. Readers are quiescent during merge
// (spec §5), so no locking is needed here beyond the semaphore.
func (o *Orchestrator) MergeAll(ctx context.Context, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(int64(concurrency))

	for db, spec := range o.specs {
		db, spec := db, spec
		for shardID := 0; shardID < spec.index.ShardCount; shardID++ {
			shardID := shardID
			if err := sem.Acquire(ctx, 1); err != nil {
				return err
			}
			g.Go(func() error {
				defer sem.Release(1)
				klog.V(2).Infof("ingest: merging db=%s shard=%d", db, shardID)
				start := time.Now()
				defer func() {
					metrics.MergeDuration.WithLabelValues(db.String()).Observe(time.Since(start).Seconds())
				}()
				b := builder.New(shardID, spec.index.HashSize, spec.codec, o.LogPath(db, shardID), 0)
				if err := b.Merge(o.DataPath(db, shardID), o.MetaPath(db, shardID)); err != nil {
					return err
				}
				return b.Optimize(o.DataPath(db, shardID), o.MetaPath(db, shardID))
			})
		}
	}
	return g.Wait()
}

// Truncate deletes every shard's canonical files and append log, then
// recreates its mount directory, matching original_source's
// index_manager::truncate delete-then-recreate shape. Steps run via
// continuity's short-circuit chain: the first failure stops the rest.
func (o *Orchestrator) Truncate() error {
	chain := continuity.New()
	for db, spec := range o.specs {
		db, spec := db, spec
		for shardID := 0; shardID < spec.index.ShardCount; shardID++ {
			shardID := shardID
			chain = chain.Thenf(fmt.Sprintf("truncate %s/%d", db, shardID), func() error {
				b := builder.New(shardID, spec.index.HashSize, spec.codec, o.LogPath(db, shardID), 0)
				return b.Truncate(o.DataPath(db, shardID), o.MetaPath(db, shardID))
			})
		}
	}
	for db, spec := range o.specs {
		db, spec := db, spec
		for shardID := 0; shardID < spec.index.ShardCount; shardID++ {
			shardID := shardID
			dir := o.shardDir(db, shardID)
			chain = chain.Thenf(fmt.Sprintf("recreate %s/%d", db, shardID), func() error {
				return os.MkdirAll(dir, 0o755)
			})
		}
	}
	return chain.Err()
}
