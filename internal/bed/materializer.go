package bed

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Materializer re-reads full records from a BED file by byte offset.
// It is not safe for concurrent use; open one per goroutine.
type Materializer struct {
	file   *os.File
	reader *bufio.Reader
}

// OpenMaterializer opens the BED file at path for random access.
func OpenMaterializer(path string) (*Materializer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	return &Materializer{
		file:   f,
		reader: bufio.NewReaderSize(f, 4096),
	}, nil
}

// Record seeks to offset, reads one line and parses it.
func (m *Materializer) Record(offset int64) (Record, error) {
	if offset < 0 {
		return Record{}, &ParseError{Offset: offset, Message: "negative file pointer"}
	}
	if _, err := m.file.Seek(offset, io.SeekStart); err != nil {
		return Record{}, fmt.Errorf("seek bed file: %w", err)
	}
	m.reader.Reset(m.file)

	line, err := m.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return Record{}, fmt.Errorf("read bed line: %w", err)
	}
	if line == "" {
		return Record{}, &ParseError{Offset: offset, Message: "file pointer past end of file"}
	}

	rec, perr := parseFields(strings.Fields(line))
	if perr != nil {
		return Record{}, &ParseError{Offset: offset, Message: perr.Error()}
	}
	return rec, nil
}

// Close closes the underlying file.
func (m *Materializer) Close() error {
	return m.file.Close()
}

// Materialize loads one record per offset, in input order.
func Materialize(path string, offsets []int64) ([]Record, error) {
	m, err := OpenMaterializer(path)
	if err != nil {
		return nil, err
	}
	defer m.Close()

	records := make([]Record, 0, len(offsets))
	for _, off := range offsets {
		rec, err := m.Record(off)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
