// Package posting wraps github.com/RoaringBitmap/roaring as the compressed
// document-id set attached to one key, per the page format's bitmap
// payloads.
//
// Grounded on other_examples/freeeve-roaringsearch's Index type, which keeps
// one *roaring.Bitmap per key and calls bm.Add(docID) on insertion; this
// package generalizes that single-purpose usage into the safe-deserialize,
// union, intersect, cardinality, and forward-iterate contract the shard
// reader and builder both need.
package posting

import (
	"fmt"

	"github.com/RoaringBitmap/roaring"
)

// Bitmap is a compressed, ascending-order set of 32-bit document ids.
type Bitmap struct {
	rb *roaring.Bitmap
}

// New returns an empty bitmap.
func New() *Bitmap {
	return &Bitmap{rb: roaring.New()}
}

// Add inserts id, idempotently.
func (b *Bitmap) Add(id uint32) {
	b.rb.Add(id)
}

// Union merges other into b in place.
func (b *Bitmap) Union(other *Bitmap) {
	if other == nil {
		return
	}
	b.rb.Or(other.rb)
}

// Intersect restricts b in place to ids also present in other.
func (b *Bitmap) Intersect(other *Bitmap) {
	if other == nil {
		b.rb = roaring.New()
		return
	}
	b.rb.And(other.rb)
}

// Cardinality returns the number of ids in the set.
func (b *Bitmap) Cardinality() uint64 {
	return b.rb.GetCardinality()
}

// Iterate calls visit for every id in ascending order, stopping early if
// visit returns false.
func (b *Bitmap) Iterate(visit func(id uint32) bool) {
	it := b.rb.Iterator()
	for it.HasNext() {
		if !visit(it.Next()) {
			return
		}
	}
}

// ToSlice materializes every id in ascending order. Prefer Iterate for large
// bitmaps; this exists for callers that already need a slice (tests).
func (b *Bitmap) ToSlice() []uint32 {
	return b.rb.ToArray()
}

// Bytes serializes the bitmap to its portable (roaring) wire format.
func (b *Bitmap) Bytes() []byte {
	buf, err := b.rb.ToBytes()
	if err != nil {
		// roaring.Bitmap.ToBytes only fails on a write error from an
		// internal buffer, which cannot happen with a plain []byte sink.
		panic(fmt.Sprintf("posting: unexpected serialize error: %v", err))
	}
	return buf
}

// FromBytes safely deserializes a bitmap previously produced by Bytes. It
// never panics on malformed input; instead it returns an error.
func FromBytes(b []byte) (*Bitmap, error) {
	rb := roaring.New()
	if err := rb.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("posting: malformed bitmap: %w", err)
	}
	return &Bitmap{rb: rb}, nil
}
