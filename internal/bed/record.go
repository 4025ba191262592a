// Package bed provides BED file parsing and random-access record loading.
package bed

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record represents a single feature line from a BED file.
type Record struct {
	Chrom string   // Chromosome name (e.g., "chr1")
	Start int32    // 0-based start, inclusive
	End   int32    // 0-based end, exclusive
	Extra []string // Remaining columns, verbatim
}

// Len returns the number of bases covered by the record.
func (r Record) Len() int32 {
	return r.End - r.Start
}

// String formats the record as a tab-separated BED line without a trailing newline.
func (r Record) String() string {
	var sb strings.Builder
	sb.WriteString(r.Chrom)
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(int64(r.Start), 10))
	sb.WriteByte('\t')
	sb.WriteString(strconv.FormatInt(int64(r.End), 10))
	for _, f := range r.Extra {
		sb.WriteByte('\t')
		sb.WriteString(f)
	}
	return sb.String()
}

// ParseLine parses a single BED data line. Fields are separated by runs of
// whitespace; the first three are chromosome, start and end.
func ParseLine(line string) (Record, error) {
	return parseFields(strings.Fields(line))
}

func parseFields(fields []string) (Record, error) {
	if len(fields) < 3 {
		return Record{}, fmt.Errorf("expected at least 3 columns, found %d", len(fields))
	}

	start, err := parseCoord(fields[1])
	if err != nil {
		return Record{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := parseCoord(fields[2])
	if err != nil {
		return Record{}, fmt.Errorf("invalid end: %w", err)
	}
	if end < start {
		return Record{}, fmt.Errorf("end %d is before start %d", end, start)
	}

	rec := Record{
		Chrom: fields[0],
		Start: start,
		End:   end,
	}
	if len(fields) > 3 {
		rec.Extra = append([]string(nil), fields[3:]...)
	}
	return rec, nil
}

var errNegativeCoord = errors.New("negative coordinate")

func parseCoord(s string) (int32, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return 0, fmt.Errorf("%s exceeds %d", s, math.MaxInt32)
		}
		return 0, fmt.Errorf("%q is not an integer", s)
	}
	if v < 0 {
		return 0, errNegativeCoord
	}
	return int32(v), nil
}

// ParseError represents an error during BED parsing with line context.
type ParseError struct {
	Line    int   // 1-based line number, 0 if unknown
	Offset  int64 // byte offset of the line in the source file
	Message string
}

func (e *ParseError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("bed parse error at offset %d: %s", e.Offset, e.Message)
	}
	return fmt.Sprintf("bed parse error at line %d (offset %d): %s", e.Line, e.Offset, e.Message)
}
