// Package index builds and queries binary indexes over BED files.
//
// An index maps each chromosome to its features sorted by start, so that a
// containment query is a binary search followed by a short forward scan.
// Two readers share the Index contract: FileIndex keeps only the directory
// in memory and searches the index file on disk, MemoryIndex loads every
// partition up front.
package index

import (
	"errors"
	"fmt"
	"iter"

	"github.com/inodb/bedindex/internal/bed"
)

// Index answers containment queries over one BED file.
// It is implemented by *FileIndex and *MemoryIndex only.
type Index interface {
	// Chromosomes returns the indexed chromosomes in source order.
	Chromosomes() []string

	// Len returns the number of features on chrom, 0 if absent.
	Len(chrom string) int

	// Partition returns every position on chrom, sorted by start.
	Partition(chrom string) ([]FeaturePosition, error)

	// Positions yields the file pointers of all features on chrom that lie
	// entirely within [start, end). The sequence is lazy and single-use;
	// stopping early releases any resources it holds. An unknown chromosome
	// yields nothing. start >= end yields ErrInvalidRange.
	Positions(chrom string, start, end int32) iter.Seq2[int64, error]

	sealed()
}

// ErrInvalidRange is returned for queries whose start is not below end.
var ErrInvalidRange = errors.New("invalid query range")

func invalidRange(start, end int32) error {
	return fmt.Errorf("%w: start %d >= end %d", ErrInvalidRange, start, end)
}

// CreateIndex builds an index for sourcePath and writes it to indexPath.
func CreateIndex(sourcePath, indexPath string, format Format) error {
	return NewBuilder().CreateIndex(sourcePath, indexPath, format)
}

// LoadIndex opens an index previously written by CreateIndex with the same format.
func LoadIndex(indexPath string, format Format) (Index, error) {
	switch format {
	case FormatFile:
		return LoadFile(indexPath)
	case FormatMemory:
		return LoadMemory(indexPath)
	}
	return nil, fmt.Errorf("load index: %w", errUnknownFormat(format))
}

// FindContained returns the records of sourcePath on chrom that lie entirely
// within [start, end), in index order. The source is only opened if the
// query matches at least one feature.
func FindContained(idx Index, sourcePath, chrom string, start, end int32) ([]bed.Record, error) {
	if start >= end {
		return nil, invalidRange(start, end)
	}

	var (
		m       *bed.Materializer
		records []bed.Record
	)
	defer func() {
		if m != nil {
			m.Close()
		}
	}()

	for ptr, err := range idx.Positions(chrom, start, end) {
		if err != nil {
			return nil, fmt.Errorf("query %s:%d-%d: %w", chrom, start, end, err)
		}
		if m == nil {
			if m, err = bed.OpenMaterializer(sourcePath); err != nil {
				return nil, err
			}
		}
		rec, err := m.Record(ptr)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
