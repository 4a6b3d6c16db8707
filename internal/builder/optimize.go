package builder

import (
	"log/slog"
	"sort"

	"github.com/alexandriatwo/alexandria/internal/posting"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
)

// Optimize re-reads a finalized shard and rewrites it if any page's keys
// are out of order, or if any document id in the record area is no longer
// referenced by any posting bitmap, per spec §4.4's optimize pass. It is a
// no-op (file untouched) when the shard is already canonical.
func (b *Builder) Optimize(dataPath, metaPath string) error {
	src, err := shard.OpenFile(dataPath)
	if err != nil {
		return err
	}
	uniqueCount, err := shard.ReadMeta(metaPath)
	if err != nil {
		src.Close()
		return err
	}
	r, err := shard.Open(src, dataPath, b.h, uniqueCount, b.codec)
	if err != nil {
		src.Close()
		return err
	}
	defer src.Close()

	referenced := make(map[uint32]bool)
	var pairs []keyBitmap
	needsResort := false
	var lastBucket uint64
	var lastKey uint64
	first := true
	err = r.ForEach(func(kb shard.KeyBitmap) bool {
		bucket := shard.BucketHash(kb.Key, b.h)
		if !first && bucket == lastBucket && kb.Key < lastKey {
			// ForEach visits buckets in ascending index order, and bucket(key)
			// = key mod h is not monotonic in key, so comparing across a
			// bucket boundary would spuriously flag a canonical shard as
			// needing resort. Only keys within the same page need to be in
			// order.
			needsResort = true
		}
		lastBucket = bucket
		lastKey = kb.Key
		first = false
		kb.Bitmap.Iterate(func(id uint32) bool {
			referenced[id] = true
			return true
		})
		pairs = append(pairs, keyBitmap{key: kb.Key, bm: kb.Bitmap})
		return true
	})
	if err != nil {
		return err
	}

	needsRepack := uint64(len(referenced)) != r.RecordCount()
	if !needsResort && !needsRepack {
		slog.Info("builder: optimize found shard already canonical", "shard", b.shardID, "path", dataPath)
		return nil
	}

	oldToNew := make(map[uint32]uint32, len(referenced))
	var records []record.Record
	if needsRepack {
		ids := make([]uint32, 0, len(referenced))
		for id := range referenced {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		records = make([]record.Record, len(ids))
		for newID, oldID := range ids {
			oldToNew[oldID] = uint32(newID)
			rec, err := r.Record(oldID)
			if err != nil {
				return err
			}
			records[newID] = rec
		}
	} else {
		records = make([]record.Record, r.RecordCount())
		for i := range records {
			rec, err := r.Record(uint32(i))
			if err != nil {
				return err
			}
			records[i] = rec
			oldToNew[uint32(i)] = uint32(i)
		}
	}

	remapped := make([]keyBitmap, 0, len(pairs))
	for _, p := range pairs {
		nb := posting.New()
		p.bm.Iterate(func(id uint32) bool {
			nb.Add(oldToNew[id])
			return true
		})
		remapped = append(remapped, keyBitmap{key: p.key, bm: nb})
	}
	sort.Slice(remapped, func(i, j int) bool { return remapped[i].key < remapped[j].key })

	buckets := make(map[uint64][]keyBitmap)
	for _, p := range remapped {
		bucket := shard.BucketHash(p.key, b.h)
		buckets[bucket] = append(buckets[bucket], p)
	}

	if err := b.writeShard(dataPath, records, buckets); err != nil {
		return err
	}
	slog.Info("builder: optimize rewrote shard",
		"shard", b.shardID,
		"resorted", needsResort,
		"repacked", needsRepack,
		"records", len(records),
	)
	return shard.WriteMeta(metaPath, uint64(len(records)))
}
