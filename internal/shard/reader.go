package shard

import (
	"encoding/binary"
	"log/slog"
	"math"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"

	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/posting"
	"github.com/alexandriatwo/alexandria/internal/record"
)

// Reader answers random-access key lookups against one finalized shard
// file, optionally backed by a pluggable Source (file or memory), per
// original_source/src/indexer/index.h's index<data_record> and spec §4.3.
type Reader struct {
	src         Source
	path        string
	h           uint64
	codec       record.Codec
	recordCount uint64
	recordBase  int64 // header + 8 (record_count field)
	uniqueCount uint64
}

// fileDescriptor mirrors compactindexsized/query.go's local interface: any
// Source that can expose an *os.File gets a fadvise(RANDOM) hint on open.
type fileDescriptor interface {
	Fd() uintptr
}

// Open reads the header table and record count from src, and the unique
// document count from uniqueCount (the metadata sidecar's sole field).
// codec selects which record family (word/link/domain_link) this shard
// holds.
func Open(src Source, path string, h uint64, uniqueCount uint64, codec record.Codec) (*Reader, error) {
	if fd, ok := src.(fileDescriptor); ok {
		if err := unix.Fadvise(int(fd.Fd()), 0, 0, unix.FADV_RANDOM); err != nil {
			slog.Warn("fadvise(RANDOM) failed", "path", path, "error", err)
		}
	}

	headerEnd := HeaderBytes(h)
	var countBuf [8]byte
	if h == 0 {
		// With no header table, the record area starts at offset 0, per
		// original_source's special case for a disabled hash table.
		headerEnd = 0
	}
	n, err := src.ReadAt(countBuf[:], headerEnd)
	if n < len(countBuf) {
		return nil, errs.Io(path, headerEnd, err)
	}
	recordCount := binary.LittleEndian.Uint64(countBuf[:])

	r := &Reader{
		src:         src,
		path:        path,
		h:           h,
		codec:       codec,
		recordCount: recordCount,
		recordBase:  headerEnd + 8,
		uniqueCount: uniqueCount,
	}
	return r, nil
}

func (r *Reader) Close() error { return r.src.Close() }

// bucketOffset reads the header-table entry for bucket i. With h == 0 the
// header table is disabled entirely and every key resolves to offset 0,
// matching original_source's read_key_pos short-circuit.
func (r *Reader) bucketOffset(bucket uint64) (uint64, error) {
	if r.h == 0 {
		return 0, nil
	}
	var buf [8]byte
	off := int64(bucket) * 8
	n, err := r.src.ReadAt(buf[:], off)
	if n < len(buf) {
		return 0, errs.Io(r.path, off, err)
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// readPageHeader reads one page's num_keys field and its keys/pos/len
// arrays (but not its data area) at pageOff, via decodePageHeader.
func (r *Reader) readPageHeader(pageOff int64) (*Page, error) {
	var hdr [8]byte
	n, err := r.src.ReadAt(hdr[:], pageOff)
	if n < len(hdr) {
		return nil, errs.Io(r.path, pageOff, err)
	}
	numKeysRaw := binary.LittleEndian.Uint64(hdr[:])
	// numKeys comes straight off disk; bound it against the file's actual
	// remaining size before allocating, so a corrupt or truncated shard
	// yields CorruptFormat instead of an oversized/negative make() panic.
	remaining := r.src.Size() - (pageOff + 8)
	if remaining < 0 || numKeysRaw > uint64(remaining)/24 {
		return nil, errs.Corrupt(r.path, pageOff, "page num_keys exceeds remaining file size")
	}
	numKeys := int(numKeysRaw)
	arraysLen := 3 * int64(numKeys) * 8

	buf := make([]byte, 8+arraysLen)
	copy(buf[:8], hdr[:])
	n, err = r.src.ReadAt(buf[8:], pageOff+8)
	if int64(n) < arraysLen {
		return nil, errs.Io(r.path, pageOff+8, err)
	}

	return decodePageHeader(buf, r.path, pageOff)
}

// findBitmap returns the page offset, index within the page, and decoded
// bitmap for key, or ok == false if the key is absent. Absence is not an
// error: per spec §4.3, only a missing shard file itself is NotFound.
func (r *Reader) findBitmap(key uint64) (bm *posting.Bitmap, ok bool, err error) {
	bucket := BucketHash(key, r.h)
	off, err := r.bucketOffset(bucket)
	if err != nil {
		return nil, false, err
	}
	if off == SizeMax {
		return nil, false, nil
	}
	pageOff := int64(off)

	p, err := r.readPageHeader(pageOff)
	if err != nil {
		return nil, false, err
	}

	idx := -1
	for i, k := range p.Keys {
		if k == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, false, nil
	}

	dataOff := pageOff + dataBase(p.NumKeys()) + int64(p.Pos[idx])
	length := p.Len[idx]

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	buf.B = append(buf.B[:0], make([]byte, length)...)
	n, err = r.src.ReadAt(buf.B, dataOff)
	if uint64(n) < length {
		return nil, false, errs.Io(r.path, dataOff, err)
	}

	bm, derr := posting.FromBytes(buf.B)
	if derr != nil {
		return nil, false, errs.Corrupt(r.path, dataOff, derr.Error())
	}
	return bm, true, nil
}

// FindBitmap returns the posting bitmap for key, or an empty bitmap if
// absent.
func (r *Reader) FindBitmap(key uint64) (*posting.Bitmap, error) {
	bm, ok, err := r.findBitmap(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return posting.New(), nil
	}
	return bm, nil
}

// Record fetches the record for doc id directly, by its position in the
// dense record area.
func (r *Reader) Record(id uint32) (record.Record, error) {
	if uint64(id) >= r.recordCount {
		return nil, errs.Corrupt(r.path, r.recordBase, "record id beyond record_count")
	}
	size := r.codec.Size()
	off := r.recordBase + int64(id)*int64(size)
	buf := make([]byte, size)
	n, err := r.src.ReadAt(buf, off)
	if n < size {
		return nil, errs.Io(r.path, off, err)
	}
	return r.codec.Decode(buf), nil
}

// Find returns the records for every id in key's posting bitmap, in
// ascending id order.
func (r *Reader) Find(key uint64) ([]record.Record, error) {
	bm, err := r.FindBitmap(key)
	if err != nil {
		return nil, err
	}
	var out []record.Record
	var innerErr error
	bm.Iterate(func(id uint32) bool {
		rec, err := r.Record(id)
		if err != nil {
			innerErr = err
			return false
		}
		out = append(out, rec)
		return true
	})
	if innerErr != nil {
		return nil, innerErr
	}
	return out, nil
}

// Idf returns ln(unique_count / documentsWithTerm) when documentsWithTerm is
// nonzero, else 0, per original_source's index<data_record>::get_idf.
func (r *Reader) Idf(documentsWithTerm uint64) float32 {
	if documentsWithTerm == 0 {
		return 0
	}
	return float32(math.Log(float64(r.uniqueCount) / float64(documentsWithTerm)))
}

// RecordCount returns the number of records in the shard's dense record
// area (equivalently, one past the highest valid document id).
func (r *Reader) RecordCount() uint64 { return r.recordCount }

// UniqueCount returns the shard metadata sidecar's unique_count field.
func (r *Reader) UniqueCount() uint64 { return r.uniqueCount }
