// Package tsvdict implements the sorted TSV dictionary prober: read-only
// lookups into a file whose lines are "key\t...\n", sorted lexicographically
// by the first column. This is a collaborator to the shard builder's merge
// step (e.g. resolving a crawled URL to a previously assigned domain id),
// specified only at its interface per spec §4.8.
//
// Grounded on original_source/src/TsvFile.cpp's binary_find_position:
// recursive midpoint bisection that discards the line straddling the pivot,
// compares the following full line's first column against the target, and
// falls back to a linear scan below a small byte threshold. Reworked from
// ifstream seekg/getline into io.ReaderAt-based random access.
package tsvdict

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/alexandriatwo/alexandria/internal/errs"
)

// linearScanThreshold is the byte range below which binary search gives way
// to a linear scan, per original_source's "750 bytes" base case.
const linearScanThreshold = 750

// backwardScanChunk bounds one step of the backward newline search used by
// FindLastPosition, keeping that lookup's memory use proportional to one
// line rather than to the whole matching range.
const backwardScanChunk = 512

// NotFound is returned by FindFirstPosition/FindLastPosition when key has
// no matching line anywhere in the file. It is distinct from a valid
// boundary offset, which may legitimately equal Size() (FindNextPosition
// returns Size() when key's matches run to end of file).
const NotFound = ^uint64(0)

// Dict is a read-only handle on one sorted TSV file.
type Dict struct {
	f    *os.File
	size int64
}

// Open opens path as a sorted TSV dictionary.
func Open(path string) (*Dict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Io(path, 0, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errs.Io(path, 0, err)
	}
	return &Dict{f: f, size: info.Size()}, nil
}

func (d *Dict) Close() error { return d.f.Close() }

// Size returns the file's byte length.
func (d *Dict) Size() int64 { return d.size }

// Find returns the first line whose first column equals key, or "" if
// there is no such line.
func (d *Dict) Find(key string) (string, error) {
	pos, err := d.FindFirstPosition(key)
	if err != nil {
		return "", err
	}
	if pos == NotFound {
		return "", nil
	}
	_, line, _, err := d.readLineAt(int64(pos))
	return line, err
}

// FindFirstPosition returns the byte offset of the first line whose first
// column equals key, or NotFound if no such line exists.
func (d *Dict) FindFirstPosition(key string) (uint64, error) {
	pos, err := d.boundary(func(k string) bool { return k >= key })
	if err != nil {
		return 0, err
	}
	if pos >= d.size {
		return NotFound, nil
	}
	k, _, _, err := d.readLineAt(pos)
	if err != nil {
		return 0, err
	}
	if k != key {
		return NotFound, nil
	}
	return uint64(pos), nil
}

// FindNextPosition returns the byte offset of the first line whose first
// column is strictly greater than key, or Size() if every line's key is
// less than or equal to key (in particular, if key's matches run to EOF).
func (d *Dict) FindNextPosition(key string) (uint64, error) {
	pos, err := d.boundary(func(k string) bool { return k > key })
	if err != nil {
		return 0, err
	}
	return uint64(pos), nil
}

// FindLastPosition returns the byte offset of the last line whose first
// column equals key, or NotFound if no such line exists.
func (d *Dict) FindLastPosition(key string) (uint64, error) {
	first, err := d.FindFirstPosition(key)
	if err != nil {
		return 0, err
	}
	if first == NotFound {
		return NotFound, nil
	}
	next, err := d.FindNextPosition(key)
	if err != nil {
		return 0, err
	}
	start, err := d.previousLineStart(int64(next))
	if err != nil {
		return 0, err
	}
	return uint64(start), nil
}

// ReadColumn reads the given 0-based column from up to limit rows, having
// skipped the first offset rows (0-based). This is the open-question
// resolution recorded in DESIGN.md for original_source's
// read_column_into(col, dest, limit, offset): offset counts rows to skip
// before the first returned row, limit bounds the count returned.
func (d *Dict) ReadColumn(column, offset, limit int) ([]string, error) {
	sc := bufio.NewScanner(io.NewSectionReader(d.f, 0, d.size))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var out []string
	row := 0
	for sc.Scan() {
		if row < offset {
			row++
			continue
		}
		if len(out) >= limit {
			break
		}
		fields := strings.Split(sc.Text(), "\t")
		if column < len(fields) {
			out = append(out, fields[column])
		} else {
			out = append(out, "")
		}
		row++
	}
	if err := sc.Err(); err != nil {
		return nil, errs.Io("", 0, err)
	}
	return out, nil
}

// boundary finds the smallest offset in [0, Size()] at which the line
// starting there satisfies belongsAfter, assuming belongsAfter is monotone
// (false for every line up to some point, true from there on) over the
// file's sorted keys.
func (d *Dict) boundary(belongsAfter func(string) bool) (int64, error) {
	return d.searchRange(0, d.size, belongsAfter)
}

func (d *Dict) searchRange(lo, hi int64, belongsAfter func(string) bool) (int64, error) {
	if hi-lo < linearScanThreshold {
		off := lo
		for off < hi {
			key, _, next, err := d.readLineAt(off)
			if err != nil {
				return 0, err
			}
			if belongsAfter(key) {
				return off, nil
			}
			off = next
		}
		return hi, nil
	}

	pivot := lo + (hi-lo)/2
	start, key, _, err := d.readLineAfterBoundary(pivot)
	if err != nil {
		return 0, err
	}
	if start >= hi {
		return d.searchRange(lo, pivot, belongsAfter)
	}
	if belongsAfter(key) {
		return d.searchRange(lo, start, belongsAfter)
	}
	return d.searchRange(start, hi, belongsAfter)
}

// readLineAt reads the single line starting exactly at off, which must
// already be a line boundary (0 or the position just after a '\n'). It
// returns the line's first column, its full text without the trailing
// newline, and the offset of the following line (Size() at EOF).
func (d *Dict) readLineAt(off int64) (key, line string, next int64, err error) {
	if off >= d.size {
		return "", "", d.size, nil
	}
	r := bufio.NewReader(io.NewSectionReader(d.f, off, d.size-off))
	raw, rerr := r.ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		return "", "", 0, errs.Io("", off, rerr)
	}
	if rerr == io.EOF {
		next = d.size
	} else {
		raw = strings.TrimSuffix(raw, "\n")
		next = off + int64(len(raw)) + 1
	}
	if tab := strings.IndexByte(raw, '\t'); tab >= 0 {
		key = raw[:tab]
	} else {
		key = raw
	}
	return key, raw, next, nil
}

// readLineAfterBoundary skips the (possibly partial) line straddling pivot
// and reads the following full line, mirroring TsvFile.cpp's
// binary_find_position double getline.
func (d *Dict) readLineAfterBoundary(pivot int64) (start int64, key string, next int64, err error) {
	_, _, afterPartial, err := d.readLineAt(pivot)
	if err != nil {
		return 0, "", 0, err
	}
	if afterPartial >= d.size {
		return d.size, "", d.size, nil
	}
	k, _, n, err := d.readLineAt(afterPartial)
	if err != nil {
		return 0, "", 0, err
	}
	return afterPartial, k, n, nil
}

// previousLineStart returns the start offset of the line whose content
// (including its own trailing newline) ends at end, found by scanning
// backward in bounded chunks for the newline that precedes it. This keeps
// FindLastPosition's cost proportional to one line's length rather than to
// the size of the whole matching range.
func (d *Dict) previousLineStart(end int64) (int64, error) {
	if end <= 1 {
		return 0, nil
	}
	hi := end - 1 // exclude the line's own trailing newline from the search
	for hi > 0 {
		lo := hi - backwardScanChunk
		if lo < 0 {
			lo = 0
		}
		buf := make([]byte, hi-lo)
		if _, err := d.f.ReadAt(buf, lo); err != nil && err != io.EOF {
			return 0, errs.Io("", lo, err)
		}
		if idx := bytes.LastIndexByte(buf, '\n'); idx >= 0 {
			return lo + int64(idx) + 1, nil
		}
		hi = lo
	}
	return 0, nil
}
