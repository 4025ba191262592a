package bed

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// DefaultHeaderMarkers are the first-column tokens that mark UCSC header lines.
var DefaultHeaderMarkers = []string{"browser", "track"}

// Line is a parsed data line together with its position in the source.
type Line struct {
	Number int   // 1-based line number
	Offset int64 // byte offset of the first byte of the line
	Record Record
}

// Scanner reads BED data lines while tracking the byte offset of each line.
//
// Header lines (first token is a header marker) are skipped until the first
// data line. Comment lines starting with '#' and blank lines are skipped
// anywhere in the file.
type Scanner struct {
	reader     *bufio.Reader
	markers    map[string]bool
	offset     int64
	lineNumber int
	inHeader   bool
}

// NewScanner creates a scanner over r using DefaultHeaderMarkers.
func NewScanner(r io.Reader) *Scanner {
	s := &Scanner{
		reader:   bufio.NewReaderSize(r, 64*1024),
		inHeader: true,
	}
	s.SetHeaderMarkers(DefaultHeaderMarkers)
	return s
}

// SetHeaderMarkers replaces the set of header markers.
func (s *Scanner) SetHeaderMarkers(markers []string) {
	s.markers = make(map[string]bool, len(markers))
	for _, m := range markers {
		s.markers[m] = true
	}
}

// Next reads the next data line.
// Returns nil, nil when there are no more lines.
func (s *Scanner) Next() (*Line, error) {
	for {
		raw, err := s.reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read bed line: %w", err)
		}
		if raw == "" {
			return nil, nil
		}

		lineOffset := s.offset
		s.offset += int64(len(raw))
		s.lineNumber++

		fields := strings.Fields(raw)
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if s.inHeader {
			if s.markers[fields[0]] {
				continue
			}
			s.inHeader = false
		}

		rec, perr := parseFields(fields)
		if perr != nil {
			return nil, &ParseError{
				Line:    s.lineNumber,
				Offset:  lineOffset,
				Message: perr.Error(),
			}
		}
		return &Line{Number: s.lineNumber, Offset: lineOffset, Record: rec}, nil
	}
}

// LineNumber returns the current line number being processed.
func (s *Scanner) LineNumber() int {
	return s.lineNumber
}

// Offset returns the number of bytes consumed so far.
func (s *Scanner) Offset() int64 {
	return s.offset
}
