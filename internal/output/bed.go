// Package output provides record output formatters.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/bedindex/internal/bed"
)

// BEDWriter writes records as tab-delimited BED lines.
type BEDWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewBEDWriter creates a new BED writer.
func NewBEDWriter(w io.Writer) *BEDWriter {
	return &BEDWriter{
		w:       bufio.NewWriter(w),
		columns: []string{"#chrom", "chromStart", "chromEnd"},
	}
}

// WriteHeader writes a comment line naming the fixed columns.
func (bw *BEDWriter) WriteHeader() error {
	_, err := bw.w.WriteString(strings.Join(bw.columns, "\t") + "\n")
	return err
}

// WriteComment writes text as a '#' comment line.
func (bw *BEDWriter) WriteComment(text string) error {
	_, err := bw.w.WriteString("# " + text + "\n")
	return err
}

// Write writes a single record.
func (bw *BEDWriter) Write(rec bed.Record) error {
	_, err := bw.w.WriteString(rec.String() + "\n")
	return err
}

// WriteAll writes records in order.
func (bw *BEDWriter) WriteAll(records []bed.Record) error {
	for _, rec := range records {
		if err := bw.Write(rec); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (bw *BEDWriter) Flush() error {
	return bw.w.Flush()
}
