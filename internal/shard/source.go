package shard

import (
	"io"
	"os"
)

// Source is the pluggable byte-source capability set a reader needs: random
// access plus a known size. Two variants exist, file-backed and
// memory-backed, mirroring compactindexsized's io.ReaderAt-based DB type
// (github.com/rpcpool/yellowstone-faithful) and its SeekableBuffer
// in-memory counterpart.
type Source interface {
	io.ReaderAt
	Size() int64
	Close() error
}

// FileSource backs a shard reader with an *os.File.
type FileSource struct {
	f    *os.File
	size int64
}

// OpenFile opens path as a file-backed Source.
func OpenFile(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSource{f: f, size: info.Size()}, nil
}

func (s *FileSource) ReadAt(p []byte, off int64) (int, error) { return s.f.ReadAt(p, off) }
func (s *FileSource) Size() int64                              { return s.size }
func (s *FileSource) Close() error                              { return s.f.Close() }

// MemSource backs a shard reader with an in-memory byte slice, adapted from
// compactindexsized.SeekableBuffer's ReadAt for a read-only, already
// fully-materialized shard (e.g. in tests, or a memory-mapped source handed
// in by a caller).
type MemSource struct {
	buf []byte
}

// NewMemSource wraps buf as a Source. buf is not copied.
func NewMemSource(buf []byte) *MemSource {
	return &MemSource{buf: buf}
}

func (s *MemSource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(s.buf)) {
		if len(p) == 0 {
			return 0, nil
		}
		return 0, io.EOF
	}
	n := copy(p, s.buf[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (s *MemSource) Size() int64 { return int64(len(s.buf)) }
func (s *MemSource) Close() error { return nil }
