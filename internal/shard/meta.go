package shard

import (
	"encoding/binary"
	"os"

	"github.com/alexandriatwo/alexandria/internal/errs"
)

// ReadMeta loads the tiny metadata sidecar (a single little-endian u64:
// unique_count) from path.
func ReadMeta(path string) (uint64, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, errs.Io(path, 0, err)
	}
	if len(b) < 8 {
		return 0, errs.Corrupt(path, 0, "metadata sidecar shorter than 8 bytes")
	}
	return binary.LittleEndian.Uint64(b[:8]), nil
}

// WriteMeta atomically writes uniqueCount to path: write-temp-then-rename,
// so a crash mid-write never corrupts the canonical sidecar.
func WriteMeta(path string, uniqueCount uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uniqueCount)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf[:], 0o644); err != nil {
		return errs.Io(tmp, 0, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return errs.Io(path, 0, err)
	}
	return nil
}
