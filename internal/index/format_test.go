package index

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildPartitions(t *testing.T, content string) *Partitions {
	t.Helper()
	p, err := NewBuilder().BuildFrom(strings.NewReader(content))
	require.NoError(t, err)
	return p
}

func TestWriteFileLayout_Bytes(t *testing.T) {
	p := buildPartitions(t, "chr1 20 40\nchr1 10 25\nc2 1 2\n")

	var got bytes.Buffer
	require.NoError(t, WriteFileLayout(&got, p))

	// Directory: chr1 (2+4+8) + c2 (2+2+8) + sentinel (2+0+8) = 36 bytes.
	var want bytes.Buffer
	put := func(v any) { require.NoError(t, binary.Write(&want, binary.BigEndian, v)) }
	put(uint16(4))
	want.WriteString("chr1")
	put(int64(36))
	put(uint16(2))
	want.WriteString("c2")
	put(int64(36 + 2*PositionSize))
	put(uint16(0))
	put(int64(36 + 3*PositionSize))
	put([]int32{10, 25})
	put(int64(11))
	put([]int32{20, 40})
	put(int64(0))
	put([]int32{1, 2})
	put(int64(22))

	assert.Equal(t, want.Bytes(), got.Bytes())
}

func TestWriteMemoryLayout_Bytes(t *testing.T) {
	p := buildPartitions(t, "chr1 20 40\nchr1 10 25\n")

	var got bytes.Buffer
	require.NoError(t, WriteMemoryLayout(&got, p))

	var want bytes.Buffer
	put := func(v any) { require.NoError(t, binary.Write(&want, binary.BigEndian, v)) }
	put(uint16(4))
	want.WriteString("chr1")
	put(int32(2))
	put([]int32{10, 25})
	put(int64(11))
	put([]int32{20, 40})
	put(int64(0))
	put(uint16(0))
	put(int32(0))

	assert.Equal(t, want.Bytes(), got.Bytes())
}

func TestWriteLayout_Empty(t *testing.T) {
	p := buildPartitions(t, "")

	var buf bytes.Buffer
	require.NoError(t, WriteFileLayout(&buf, p))
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0, 0, 10}, buf.Bytes())

	idx, err := readDirectory(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, idx.Chromosomes())
}

func TestWriteString_TooLong(t *testing.T) {
	long := strings.Repeat("c", maxNameLen+1)
	p := buildPartitions(t, long+" 1 2\n")

	err := WriteFileLayout(&bytes.Buffer{}, p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds")
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected Format
	}{
		{"file", FormatFile},
		{"disk", FormatFile},
		{"MEMORY", FormatMemory},
		{"ram", FormatMemory},
	}
	for _, tt := range tests {
		f, err := ParseFormat(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.expected, f)
	}

	_, err := ParseFormat("tabix")
	assert.Error(t, err)

	assert.Equal(t, "file", FormatFile.String())
	assert.Equal(t, "memory", FormatMemory.String())
	assert.Equal(t, "Format(7)", Format(7).String())
}

func TestCreateIndex_Idempotent(t *testing.T) {
	src := writeSource(t, randomBED(3, 500, 4, 1000))
	dir := t.TempDir()

	for _, format := range []Format{FormatFile, FormatMemory} {
		t.Run(format.String(), func(t *testing.T) {
			first := filepath.Join(dir, format.String()+".1")
			second := filepath.Join(dir, format.String()+".2")
			require.NoError(t, CreateIndex(src, first, format))
			require.NoError(t, CreateIndex(src, second, format))

			a, err := os.ReadFile(first)
			require.NoError(t, err)
			b, err := os.ReadFile(second)
			require.NoError(t, err)
			assert.Equal(t, a, b)
		})
	}
}

func TestCreateIndex_FailureKeepsExisting(t *testing.T) {
	good := writeSource(t, "chr1 1 2\n")
	bad := writeSource(t, "chr1 1 2\nchr1 oops 3\n")
	idxPath := filepath.Join(t.TempDir(), "test.bidx")

	require.NoError(t, CreateIndex(good, idxPath, FormatFile))
	before, err := os.ReadFile(idxPath)
	require.NoError(t, err)

	require.Error(t, CreateIndex(bad, idxPath, FormatFile))

	after, err := os.ReadFile(idxPath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(idxPath))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestCreateIndex_NoArtifactOnFailure(t *testing.T) {
	bad := writeSource(t, "chr1 1\n")
	idxPath := filepath.Join(t.TempDir(), "test.bidx")

	require.Error(t, CreateIndex(bad, idxPath, FormatMemory))
	_, err := os.Stat(idxPath)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestCreateIndex_UnknownFormat(t *testing.T) {
	src := writeSource(t, "chr1 1 2\n")
	err := CreateIndex(src, filepath.Join(t.TempDir(), "x"), Format(9))
	assert.Error(t, err)
}

func TestLoad_CorruptIndex(t *testing.T) {
	src := writeSource(t, "chr1 20 40\nchr1 20 25\nchr2 10 30\n")
	dir := t.TempDir()

	for _, format := range []Format{FormatFile, FormatMemory} {
		good := filepath.Join(dir, "good."+format.String())
		require.NoError(t, CreateIndex(src, good, format))
		data, err := os.ReadFile(good)
		require.NoError(t, err)

		corruptions := map[string][]byte{
			"empty":           {},
			"truncated":       data[:len(data)-3],
			"header only":     data[:5],
			"trailing bytes":  append(append([]byte(nil), data...), 0xff),
			"missing records": data[:len(data)-PositionSize],
		}
		for name, b := range corruptions {
			t.Run(format.String()+"/"+name, func(t *testing.T) {
				path := filepath.Join(dir, strings.ReplaceAll(name, " ", "_")+"."+format.String())
				require.NoError(t, os.WriteFile(path, b, 0644))

				_, err := LoadIndex(path, format)
				assert.ErrorIs(t, err, ErrCorruptIndex)
			})
		}
	}
}

func TestLoadFile_BadRange(t *testing.T) {
	var buf bytes.Buffer
	put := func(v any) { require.NoError(t, binary.Write(&buf, binary.BigEndian, v)) }
	// chr1 block of 10 bytes: not a whole number of records.
	put(uint16(4))
	buf.WriteString("chr1")
	put(int64(24))
	put(uint16(0))
	put(int64(34))
	buf.Write(make([]byte, 10))

	_, err := readDirectory(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	assert.ErrorIs(t, err, ErrCorruptIndex)
}

func TestLoad_Missing(t *testing.T) {
	_, err := LoadIndex(filepath.Join(t.TempDir(), "missing"), FormatFile)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadIndex(filepath.Join(t.TempDir(), "missing"), FormatMemory)
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = LoadIndex("whatever", Format(5))
	assert.Error(t, err)
}
