// Package shard implements the on-disk page format for one shard: the
// fixed-size header hash table, the dense record area, and the variable-
// length page area holding one or more (key, bitmap) entries per bucket.
//
// Grounded on compactindexsized/compactindex.go's Header/BucketHeader
// encode-decode shape (github.com/rpcpool/yellowstone-faithful) and on
// original_source/src/indexer/index.h's exact page-offset arithmetic
// (key_pos+8+num_keys*8*i ...), reworked from compactindexsized's
// perfect-hash bucket descriptor into this spec's simpler linear-scan page:
// one bucket may hold several (key, bitmap) pairs, found by a bounded
// linear scan rather than a mined hash.
package shard

import (
	"encoding/binary"
	"math"

	"github.com/alexandriatwo/alexandria/internal/errs"
)

// SizeMax is the header sentinel meaning "this bucket is empty".
const SizeMax = uint64(math.MaxUint64)

// HeaderBytes returns the on-disk byte length of the header table for a
// shard with hash-table length h.
func HeaderBytes(h uint64) int64 {
	return int64(h) * 8
}

// BucketHash maps a key to its bucket index, k mod H. H == 0 disables the
// header table entirely; callers must special-case it (see
// original_source's read_key_pos, which short-circuits to position 0).
func BucketHash(key, h uint64) uint64 {
	if h == 0 {
		return 0
	}
	return key % h
}

// Page is one hash bucket's payload: the keys sharing that bucket, each
// key's (pos, len) into the page's data area, and the concatenated bitmap
// bytes themselves.
type Page struct {
	Keys []uint64
	Pos  []uint64
	Len  []uint64
	Data []byte
}

// NumKeys returns the number of (key, bitmap) entries in the page.
func (p *Page) NumKeys() int { return len(p.Keys) }

// dataBase is the byte offset, relative to the start of the page, at which
// Data begins: 8 (num_keys) + 3*num_keys*8 (keys, pos, len arrays).
func dataBase(numKeys int) int64 {
	return 8 + 3*int64(numKeys)*8
}

// EncodePage serializes p in the exact wire layout described in spec §6:
// num_keys:u64, keys[num_keys]:u64, pos[num_keys]:u64, len[num_keys]:u64,
// then the concatenated bitmap bytes.
func EncodePage(p *Page) []byte {
	n := p.NumKeys()
	out := make([]byte, dataBase(n)+int64(len(p.Data)))
	binary.LittleEndian.PutUint64(out[0:8], uint64(n))
	off := 8
	for _, k := range p.Keys {
		binary.LittleEndian.PutUint64(out[off:off+8], k)
		off += 8
	}
	for _, v := range p.Pos {
		binary.LittleEndian.PutUint64(out[off:off+8], v)
		off += 8
	}
	for _, v := range p.Len {
		binary.LittleEndian.PutUint64(out[off:off+8], v)
		off += 8
	}
	copy(out[off:], p.Data)
	return out
}

// decodePageHeader reads a page given only its header fields (num_keys,
// keys, pos, len) and leaves Data nil; the reader fetches bitmap bytes
// lazily via a Source so it never has to load an entire page's data area
// just to resolve one key. buf must hold the num_keys field followed by
// the keys/pos/len arrays (see readPageHeader, which assembles this from
// two separate reads since num_keys isn't known until the first is done).
func decodePageHeader(buf []byte, path string, pageOff int64) (*Page, error) {
	if len(buf) < 8 {
		return nil, errs.Corrupt(path, pageOff, "page shorter than num_keys field")
	}
	numKeys := binary.LittleEndian.Uint64(buf[0:8])
	need := dataBase(int(numKeys))
	if int64(len(buf)) < need {
		return nil, errs.Corrupt(path, pageOff, "page shorter than its own key/pos/len arrays")
	}
	p := &Page{
		Keys: make([]uint64, numKeys),
		Pos:  make([]uint64, numKeys),
		Len:  make([]uint64, numKeys),
	}
	off := 8
	for i := range p.Keys {
		p.Keys[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	for i := range p.Pos {
		p.Pos[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	for i := range p.Len {
		p.Len[i] = binary.LittleEndian.Uint64(buf[off : off+8])
		off += 8
	}
	return p, nil
}
