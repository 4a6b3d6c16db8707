package builder

import (
	"encoding/binary"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/posting"
	"github.com/alexandriatwo/alexandria/internal/record"
	"github.com/alexandriatwo/alexandria/internal/shard"
)

// keyBitmap pairs an index key with its fully-built posting bitmap, ready
// to be placed into a page during the write phase of merge.
type keyBitmap struct {
	key uint64
	bm  *posting.Bitmap
}

// identity names one record primary key (e.g. the doc_id of a word_record).
// Every occurrence of the same primary key in the shard, under whichever
// index key, shares one record-area slot, so a document carries the same
// dense id in every posting bitmap that names it and per-shard bitmap
// intersection finds documents matching several keys. The slot holds the
// last record read for that primary key (last write wins).
type identity struct {
	primary uint64
}

// Merge streams the shard's append log, groups postings by identity,
// assigns dense record-area positions in first-seen order, builds one
// posting bitmap per key, and writes the canonical shard file and metadata
// sidecar.
//
// Dense id assignment is the open-question resolution recorded in
// DESIGN.md for spec §4.4's "assigns dense document ids in first-seen
// order": position is assigned per record primary key, so one document
// seen under several keys has one id and one stored record (the last one
// read), and the unique count written to the sidecar is the number of
// distinct primary keys.
//
// Grounded on original_source/src/indexer/index_manager.cpp's merge() call
// into append/merge/optimize per builder, and on compactindexsized/build.go's
// SealAndClose for the atomic write-temp-then-rename finalization.
func (b *Builder) Merge(dataPath, metaPath string) error {
	f, err := os.Open(b.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return b.writeEmptyShard(dataPath, metaPath)
		}
		return errs.Io(b.logPath, -1, err)
	}
	defer f.Close()

	posByIdentity := make(map[identity]uint32, 1024)
	var order []identity
	canonical := make(map[identity]record.Record, 1024)
	keyIdentities := make(map[uint64]map[identity]struct{}, 256)

	for {
		var lenHdr [16]byte
		_, err := io.ReadFull(f, lenHdr[:])
		if err == io.EOF {
			break
		}
		if err != nil {
			return errs.Io(b.logPath, -1, err)
		}
		rawLen := binary.LittleEndian.Uint64(lenHdr[0:8])
		compLen := binary.LittleEndian.Uint64(lenHdr[8:16])
		compressed := make([]byte, compLen)
		if _, err := io.ReadFull(f, compressed); err != nil {
			return errs.Io(b.logPath, -1, err)
		}
		raw, err := decompressBatch(compressed)
		if err != nil {
			return errs.Corrupt(b.logPath, -1, err.Error())
		}
		if uint64(len(raw)) != rawLen {
			return errs.Corrupt(b.logPath, -1, "decompressed batch length mismatch")
		}

		off := 0
		for off < len(raw) {
			if off+12 > len(raw) {
				return errs.Corrupt(b.logPath, int64(off), "truncated frame header")
			}
			key := binary.LittleEndian.Uint64(raw[off : off+8])
			count := binary.LittleEndian.Uint32(raw[off+8 : off+12])
			off += 12
			recSize := b.codec.Size()
			for i := uint32(0); i < count; i++ {
				if off+recSize > len(raw) {
					return errs.Corrupt(b.logPath, int64(off), "truncated record")
				}
				rec := b.codec.Decode(raw[off : off+recSize])
				off += recSize

				id := identity{primary: rec.PrimaryKey()}
				if _, ok := posByIdentity[id]; !ok {
					posByIdentity[id] = uint32(len(order))
					order = append(order, id)
				}
				canonical[id] = rec

				set, ok := keyIdentities[key]
				if !ok {
					set = make(map[identity]struct{}, 8)
					keyIdentities[key] = set
				}
				set[id] = struct{}{}
			}
		}
	}

	records := make([]record.Record, len(order))
	for i, id := range order {
		records[i] = canonical[id]
	}

	var pairs []keyBitmap
	for key, set := range keyIdentities {
		bm := posting.New()
		for id := range set {
			bm.Add(posByIdentity[id])
		}
		pairs = append(pairs, keyBitmap{key: key, bm: bm})
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	buckets := make(map[uint64][]keyBitmap)
	for _, p := range pairs {
		bucket := shard.BucketHash(p.key, b.h)
		buckets[bucket] = append(buckets[bucket], p)
	}

	if err := b.writeShard(dataPath, records, buckets); err != nil {
		return err
	}
	if err := shard.WriteMeta(metaPath, uint64(len(order))); err != nil {
		return err
	}

	slog.Info("builder: merge complete",
		"shard", b.shardID,
		"unique_count", len(order),
		"keys", len(pairs),
	)
	return nil
}

func (b *Builder) writeEmptyShard(dataPath, metaPath string) error {
	if err := b.writeShard(dataPath, nil, nil); err != nil {
		return err
	}
	return shard.WriteMeta(metaPath, 0)
}

// writeShard writes the header table, record area, and page area in the
// order described by spec §6, atomically (temp path then rename).
func (b *Builder) writeShard(dataPath string, records []record.Record, buckets map[uint64][]keyBitmap) error {
	tmp := dataPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errs.Io(tmp, -1, err)
	}
	closeErr := func() {
		f.Close()
	}

	header := make([]byte, shard.HeaderBytes(b.h))
	for i := range header {
		header[i] = 0xff
	}

	recordArea := make([]byte, 8+len(records)*recordSizeOrZero(b.codec))
	binary.LittleEndian.PutUint64(recordArea[0:8], uint64(len(records)))
	off := 8
	for _, r := range records {
		copy(recordArea[off:off+b.codec.Size()], r.Bytes())
		off += b.codec.Size()
	}

	pageBase := int64(len(header)) + int64(len(recordArea))
	var pageBytes []byte
	pageOffsets := make(map[uint64]int64, len(buckets))
	for bucket, entries := range buckets {
		sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
		page := &shard.Page{}
		dataOff := uint64(0)
		for _, e := range entries {
			raw := e.bm.Bytes()
			page.Keys = append(page.Keys, e.key)
			page.Pos = append(page.Pos, dataOff)
			page.Len = append(page.Len, uint64(len(raw)))
			page.Data = append(page.Data, raw...)
			dataOff += uint64(len(raw))
		}
		pageOffsets[bucket] = pageBase + int64(len(pageBytes))
		pageBytes = append(pageBytes, shard.EncodePage(page)...)
	}

	if _, err := f.Write(header); err != nil {
		closeErr()
		return errs.Io(tmp, 0, err)
	}
	if _, err := f.Write(recordArea); err != nil {
		closeErr()
		return errs.Io(tmp, int64(len(header)), err)
	}
	if _, err := f.Write(pageBytes); err != nil {
		closeErr()
		return errs.Io(tmp, pageBase, err)
	}

	for bucket, pageOff := range pageOffsets {
		if b.h == 0 {
			break
		}
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(pageOff))
		if _, err := f.WriteAt(buf[:], int64(bucket)*8); err != nil {
			closeErr()
			return errs.Io(tmp, int64(bucket)*8, err)
		}
	}

	if err := f.Sync(); err != nil {
		closeErr()
		return errs.Io(tmp, -1, err)
	}
	closeErr()

	if err := os.Rename(tmp, dataPath); err != nil {
		return errs.Io(dataPath, -1, err)
	}
	return nil
}

func recordSizeOrZero(codec record.Codec) int {
	if codec == nil {
		return 0
	}
	return codec.Size()
}
