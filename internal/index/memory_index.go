package index

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"os"
)

// MemoryIndex holds every partition in memory. It is faster than FileIndex
// for indexes that fit comfortably in RAM and is safe for concurrent queries.
type MemoryIndex struct {
	order      []string
	partitions map[string][]FeaturePosition
}

// NewMemoryIndex wraps freshly built partitions without touching disk.
func NewMemoryIndex(p *Partitions) *MemoryIndex {
	return &MemoryIndex{
		order:      p.Chromosomes(),
		partitions: p.byChrom,
	}
}

// LoadMemory reads a FormatMemory index and materializes every partition.
func LoadMemory(path string) (*MemoryIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index file: %w", err)
	}

	idx, err := readCounted(bufio.NewReader(f), info.Size())
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", path, err)
	}
	return idx, nil
}

func readCounted(r io.Reader, size int64) (*MemoryIndex, error) {
	idx := &MemoryIndex{partitions: make(map[string][]FeaturePosition)}
	var buf [PositionSize]byte
	for {
		chrom, err := readString(r)
		if err != nil {
			return nil, err
		}
		count, err := readInt32(r)
		if err != nil {
			return nil, err
		}
		if chrom == "" {
			if count != 0 {
				return nil, fmt.Errorf("%w: sentinel has count %d", ErrCorruptIndex, count)
			}
			break
		}
		if count < 0 || int64(count) > size/PositionSize {
			return nil, fmt.Errorf("%w: bad record count %d for %s", ErrCorruptIndex, count, chrom)
		}
		if _, dup := idx.partitions[chrom]; dup {
			return nil, fmt.Errorf("%w: duplicate chromosome %s", ErrCorruptIndex, chrom)
		}

		positions := make([]FeaturePosition, count)
		for i := range positions {
			if err := readFull(r, buf[:]); err != nil {
				return nil, err
			}
			positions[i].Unmarshal(buf[:])
		}
		idx.order = append(idx.order, chrom)
		idx.partitions[chrom] = positions
	}

	if n, _ := r.Read(buf[:1]); n != 0 {
		return nil, fmt.Errorf("%w: trailing data after sentinel", ErrCorruptIndex)
	}
	return idx, nil
}

// Chromosomes returns the indexed chromosomes in source order.
func (x *MemoryIndex) Chromosomes() []string {
	return append([]string(nil), x.order...)
}

// Len returns the number of features on chrom.
func (x *MemoryIndex) Len(chrom string) int {
	return len(x.partitions[chrom])
}

// Partition returns a copy of the positions on chrom.
func (x *MemoryIndex) Partition(chrom string) ([]FeaturePosition, error) {
	positions, ok := x.partitions[chrom]
	if !ok {
		return nil, nil
	}
	return append([]FeaturePosition(nil), positions...), nil
}

// Positions binary-searches the partition for the first position with
// Start >= start, then scans forward until Start reaches end.
func (x *MemoryIndex) Positions(chrom string, start, end int32) iter.Seq2[int64, error] {
	return func(yield func(int64, error) bool) {
		if start >= end {
			yield(0, invalidRange(start, end))
			return
		}
		positions := x.partitions[chrom]
		for _, pos := range positions[firstAtOrAfter(positions, start):] {
			if pos.Start >= end {
				return
			}
			if pos.End <= end && !yield(pos.FilePointer, nil) {
				return
			}
		}
	}
}

func (*MemoryIndex) sealed() {}
