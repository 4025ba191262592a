package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
)

// Integers in index files are big-endian. Strings are a 2-byte length
// followed by UTF-8 bytes. There are no delimiters between values.
//
// FormatFile layout (disk-resident):
//
//	chr1 offset1
//	...
//	chrN offsetN
//	""   endOffset
//	start end pointer   (PositionSize bytes, repeated)
//
// where offsetI is the absolute file offset of chrI's first record and
// endOffset is the offset just past the last record.
//
// FormatMemory layout (in-memory):
//
//	chr1 count1 record * count1
//	...
//	""   0
//
// In both layouts each chromosome's records are sorted by start.

// Format selects the on-disk layout and the reader used to load it.
type Format int

const (
	// FormatFile is the directory layout queried directly on disk.
	FormatFile Format = iota
	// FormatMemory is the counted layout loaded fully into memory.
	FormatMemory
)

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatFile:
		return "file"
	case FormatMemory:
		return "memory"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses a format name as returned by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "file", "disk":
		return FormatFile, nil
	case "memory", "ram":
		return FormatMemory, nil
	}
	return 0, fmt.Errorf("unknown index format %q (want file or memory)", s)
}

func errUnknownFormat(f Format) error {
	return fmt.Errorf("unknown index format %v", f)
}

// ErrCorruptIndex is returned when an index file is truncated or malformed.
var ErrCorruptIndex = errors.New("corrupt index")

const maxNameLen = math.MaxUint16

func stringSize(s string) int64 {
	return 2 + int64(len(s))
}

func writeString(w *bufio.Writer, s string) error {
	if len(s) > maxNameLen {
		return fmt.Errorf("chromosome name of %d bytes exceeds %d", len(s), maxNameLen)
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], uint16(len(s)))
	if _, err := w.Write(buf[:]); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func writeUint(w *bufio.Writer, v uint64, size int) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[8-size:])
	return err
}

func writePositions(w *bufio.Writer, positions []FeaturePosition) error {
	var buf [PositionSize]byte
	for _, pos := range positions {
		pos.Marshal(buf[:])
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// WriteFileLayout serializes p in the FormatFile layout.
func WriteFileLayout(dst io.Writer, p *Partitions) error {
	w := bufio.NewWriter(dst)

	dirSize := stringSize("") + 8
	for _, chrom := range p.order {
		dirSize += stringSize(chrom) + 8
	}

	offset := dirSize
	for _, chrom := range p.order {
		if err := writeString(w, chrom); err != nil {
			return err
		}
		if err := writeUint(w, uint64(offset), 8); err != nil {
			return err
		}
		offset += int64(len(p.byChrom[chrom])) * PositionSize
	}
	if err := writeString(w, ""); err != nil {
		return err
	}
	if err := writeUint(w, uint64(offset), 8); err != nil {
		return err
	}

	for _, chrom := range p.order {
		if err := writePositions(w, p.byChrom[chrom]); err != nil {
			return err
		}
	}
	return w.Flush()
}

// WriteMemoryLayout serializes p in the FormatMemory layout.
func WriteMemoryLayout(dst io.Writer, p *Partitions) error {
	w := bufio.NewWriter(dst)

	for _, chrom := range p.order {
		positions := p.byChrom[chrom]
		if len(positions) > math.MaxInt32 {
			return fmt.Errorf("chromosome %s has too many features (%d)", chrom, len(positions))
		}
		if err := writeString(w, chrom); err != nil {
			return err
		}
		if err := writeUint(w, uint64(len(positions)), 4); err != nil {
			return err
		}
		if err := writePositions(w, positions); err != nil {
			return err
		}
	}
	if err := writeString(w, ""); err != nil {
		return err
	}
	if err := writeUint(w, 0, 4); err != nil {
		return err
	}
	return w.Flush()
}

// readFull reads exactly len(buf) bytes, reporting a short read as a
// truncated index.
func readFull(r io.Reader, buf []byte) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return fmt.Errorf("%w: unexpected end of file", ErrCorruptIndex)
		}
		return err
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	var lenBuf [2]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return "", err
	}
	buf := make([]byte, binary.BigEndian.Uint16(lenBuf[:]))
	if err := readFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if err := readFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// writeAtomic writes to a temp file next to path and renames it into place
// only after write and sync succeed.
func writeAtomic(path string, write func(io.Writer) error) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := write(tmp); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
