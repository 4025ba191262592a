package index

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"iter"
	"os"
)

// fileRange is a half-open range of bytes in the index file.
type fileRange struct {
	start, end int64
}

func (r fileRange) count() int64 {
	return (r.end - r.start) / PositionSize
}

// FileIndex is a disk-resident index. Only the directory is held in memory;
// records are read from the index file on every query.
//
// Each query opens its own handle to the index file, so concurrent queries
// on one FileIndex are safe.
type FileIndex struct {
	path   string
	order  []string
	ranges map[string]fileRange
}

// LoadFile reads the directory of a FormatFile index.
func LoadFile(path string) (*FileIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}

	idx, err := readDirectory(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	idx.path = path
	return idx, nil
}

type dirEntry struct {
	chrom  string
	offset int64
}

// readDirectory reads entries up to and including the sentinel and zips
// consecutive offsets into ranges.
func readDirectory(r io.Reader, size int64) (*FileIndex, error) {
	var (
		entries []dirEntry
		dirSize int64
	)
	for {
		chrom, err := readString(r)
		if err != nil {
			return nil, err
		}
		offset, err := readInt64(r)
		if err != nil {
			return nil, err
		}
		dirSize += stringSize(chrom) + 8
		entries = append(entries, dirEntry{chrom: chrom, offset: offset})
		if chrom == "" {
			break
		}
	}

	if entries[0].offset != dirSize {
		return nil, fmt.Errorf("%w: data starts at %d, directory ends at %d", ErrCorruptIndex, entries[0].offset, dirSize)
	}
	if last := entries[len(entries)-1].offset; last != size {
		return nil, fmt.Errorf("%w: data ends at %d, file size is %d", ErrCorruptIndex, last, size)
	}

	idx := &FileIndex{ranges: make(map[string]fileRange, len(entries)-1)}
	for i := 0; i+1 < len(entries); i++ {
		r := fileRange{start: entries[i].offset, end: entries[i+1].offset}
		if r.end < r.start || (r.end-r.start)%PositionSize != 0 {
			return nil, fmt.Errorf("%w: bad range [%d, %d) for %s", ErrCorruptIndex, r.start, r.end, entries[i].chrom)
		}
		if _, dup := idx.ranges[entries[i].chrom]; dup {
			return nil, fmt.Errorf("%w: duplicate chromosome %s", ErrCorruptIndex, entries[i].chrom)
		}
		idx.order = append(idx.order, entries[i].chrom)
		idx.ranges[entries[i].chrom] = r
	}
	return idx, nil
}

// Path returns the index file path.
func (x *FileIndex) Path() string {
	return x.path
}

// Chromosomes returns the indexed chromosomes in source order.
func (x *FileIndex) Chromosomes() []string {
	return append([]string(nil), x.order...)
}

// Len returns the number of features on chrom.
func (x *FileIndex) Len(chrom string) int {
	return int(x.ranges[chrom].count())
}

// Partition reads every position on chrom from disk.
func (x *FileIndex) Partition(chrom string) ([]FeaturePosition, error) {
	r, ok := x.ranges[chrom]
	if !ok {
		return nil, nil
	}

	f, err := os.Open(x.path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(io.NewSectionReader(f, r.start, r.end-r.start))
	positions := make([]FeaturePosition, r.count())
	var buf [PositionSize]byte
	for i := range positions {
		if err := readFull(br, buf[:]); err != nil {
			return nil, fmt.Errorf("read %s partition: %w", chrom, err)
		}
		positions[i].Unmarshal(buf[:])
	}
	return positions, nil
}

// Positions binary-searches chrom's block for the first record with
// Start >= start, then scans forward until Start reaches end.
func (x *FileIndex) Positions(chrom string, start, end int32) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		if start >= end {
			yield(0, invalidRange(start, end))
			return
		}
		r, ok := x.ranges[chrom]
		if !ok || r.count() == 0 {
			return
		}

		f, err := os.Open(x.path)
		if err != nil {
			yield(0, fmt.Errorf("open index file: %w", err))
			return
		}
		defer f.Close()

		n := r.count()
		var buf [PositionSize]byte
		first, err := lowerBound(n, func(i int64) (bool, error) {
			if _, err := f.ReadAt(buf[:4], r.start+i*PositionSize); err != nil {
				return false, fmt.Errorf("read index record %d: %w", i, err)
			}
			return int32(binary.BigEndian.Uint32(buf[:4])) >= start, nil
		})
		if err != nil {
			yield(0, err)
			return
		}

		from := r.start + first*PositionSize
		br := bufio.NewReader(io.NewSectionReader(f, from, r.end-from))
		for i := first; i < n; i++ {
			if err := readFull(br, buf[:]); err != nil {
				yield(0, fmt.Errorf("read index record %d: %w", i, err))
				return
			}
			var pos FeaturePosition
			pos.Unmarshal(buf[:])
			if pos.Start >= end {
				return
			}
			if pos.End <= end && !yield(pos.FilePointer, nil) {
				return
			}
		}
	}
}

func (*FileIndex) sealed() {}
