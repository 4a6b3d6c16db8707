package shard

import (
	"github.com/alexandriatwo/alexandria/internal/errs"
	"github.com/alexandriatwo/alexandria/internal/posting"
)

// KeyBitmap is one (key, bitmap) pair as seen while streaming a shard.
type KeyBitmap struct {
	Key    uint64
	Bitmap *posting.Bitmap
}

// ForEach streams every (key, bitmap) pair in the shard in page order,
// i.e. in ascending bucket index, per original_source's
// index<data_record>::for_each. visit returning false stops iteration.
func (r *Reader) ForEach(visit func(KeyBitmap) bool) error {
	if r.h == 0 {
		// A disabled header table means every key lives at the single
		// page rooted at offset 0; stream that one page.
		return r.forEachAtOffset(0, visit)
	}
	for bucket := uint64(0); bucket < r.h; bucket++ {
		off, err := r.bucketOffset(bucket)
		if err != nil {
			return err
		}
		if off == SizeMax {
			continue
		}
		cont, err := r.forEachAtOffsetCont(int64(off), visit)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

func (r *Reader) forEachAtOffset(pageOff int64, visit func(KeyBitmap) bool) error {
	_, err := r.forEachAtOffsetCont(pageOff, visit)
	return err
}

func (r *Reader) forEachAtOffsetCont(pageOff int64, visit func(KeyBitmap) bool) (bool, error) {
	p, err := r.readPageHeader(pageOff)
	if err != nil {
		return false, err
	}
	base := pageOff + dataBase(p.NumKeys())
	for i, key := range p.Keys {
		pos := p.Pos[i]
		length := p.Len[i]
		buf := make([]byte, length)
		n, err := r.src.ReadAt(buf, base+int64(pos))
		if uint64(n) < length {
			return false, errs.Io(r.path, base+int64(pos), err)
		}
		bm, derr := posting.FromBytes(buf)
		if derr != nil {
			return false, errs.Corrupt(r.path, base+int64(pos), derr.Error())
		}
		if !visit(KeyBitmap{Key: key, Bitmap: bm}) {
			return false, nil
		}
	}
	return true, nil
}

// KeysWithMoreThan returns every key whose posting cardinality exceeds
// minRecords, a diagnostic supplementing index<data_record>::get_keys from
// original_source.
func (r *Reader) KeysWithMoreThan(minRecords uint64) ([]uint64, error) {
	var out []uint64
	err := r.ForEach(func(kb KeyBitmap) bool {
		if kb.Bitmap.Cardinality() > minRecords {
			out = append(out, kb.Key)
		}
		return true
	})
	return out, err
}

// Stats summarizes a shard's on-disk composition, supplementing
// original_source's index<data_record>::print_stats (reimplemented as data
// rather than a print, so callers format it as they see fit).
type Stats struct {
	TotalKeys       uint64
	TotalBitmapSize uint64
	TotalCardinality uint64
	RecordCount     uint64
	UniqueCount     uint64
}

// Stats walks the whole shard once to compute aggregate statistics.
func (r *Reader) Stats() (Stats, error) {
	s := Stats{RecordCount: r.recordCount, UniqueCount: r.uniqueCount}
	err := r.ForEach(func(kb KeyBitmap) bool {
		s.TotalKeys++
		s.TotalCardinality += kb.Bitmap.Cardinality()
		s.TotalBitmapSize += uint64(len(kb.Bitmap.Bytes()))
		return true
	})
	return s, err
}
