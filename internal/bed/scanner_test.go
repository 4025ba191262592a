package bed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanAll(t *testing.T, s *Scanner) []*Line {
	t.Helper()
	var lines []*Line
	for {
		l, err := s.Next()
		require.NoError(t, err)
		if l == nil {
			return lines
		}
		lines = append(lines, l)
	}
}

func TestScanner_Offsets(t *testing.T) {
	content := "chr1 20 40\nchr1\t20\t25\r\nchr2 10 30 extra"

	lines := scanAll(t, NewScanner(strings.NewReader(content)))
	require.Len(t, lines, 3)

	assert.Equal(t, int64(0), lines[0].Offset)
	assert.Equal(t, int64(11), lines[1].Offset)
	assert.Equal(t, int64(23), lines[2].Offset)
	assert.Equal(t, []int{1, 2, 3}, []int{lines[0].Number, lines[1].Number, lines[2].Number})

	// Each offset points at the first byte of its line.
	for _, l := range lines {
		rec, err := ParseLine(strings.SplitN(content[l.Offset:], "\n", 2)[0])
		require.NoError(t, err)
		assert.Equal(t, l.Record, rec)
	}
	assert.Equal(t, []string{"extra"}, lines[2].Record.Extra)
}

func TestScanner_SkipsHeaderLines(t *testing.T) {
	content := `browser position chr7:127471196-127495720
track name="ItemRGBDemo" description="Item RGB demonstration" itemRgb="On"
# comment
chr7 127471196 127472363 Pos1 0 +

chr7 127472363 127473530 Pos2 0 +
`
	s := NewScanner(strings.NewReader(content))
	lines := scanAll(t, s)
	require.Len(t, lines, 2)
	assert.Equal(t, 4, lines[0].Number)
	assert.Equal(t, "Pos1", lines[0].Record.Extra[0])
	assert.Equal(t, 6, lines[1].Number)
	assert.Equal(t, int64(len(content)), s.Offset())
}

func TestScanner_HeaderMarkersOnlyLeading(t *testing.T) {
	content := "chr1 1 2\ntrack name=late\n"

	s := NewScanner(strings.NewReader(content))
	_, err := s.Next()
	require.NoError(t, err)

	_, err = s.Next()
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2, pe.Line)
	assert.Equal(t, int64(9), pe.Offset)
}

func TestScanner_CustomMarkers(t *testing.T) {
	content := "header a b\nchr1 1 2\n"

	s := NewScanner(strings.NewReader(content))
	s.SetHeaderMarkers([]string{"header"})
	lines := scanAll(t, s)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(11), lines[0].Offset)
}

func TestScanner_Empty(t *testing.T) {
	lines := scanAll(t, NewScanner(strings.NewReader("")))
	assert.Empty(t, lines)
}
