package index

import (
	"fmt"
	"io"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/inodb/bedindex/internal/bed"
)

// Partitions holds the feature positions of a BED file grouped by chromosome.
// Chromosomes keep the order of their first appearance in the source.
type Partitions struct {
	order   []string
	byChrom map[string][]FeaturePosition
}

func newPartitions() *Partitions {
	return &Partitions{byChrom: make(map[string][]FeaturePosition)}
}

func (p *Partitions) add(chrom string, pos FeaturePosition) {
	positions, ok := p.byChrom[chrom]
	if !ok {
		p.order = append(p.order, chrom)
	}
	p.byChrom[chrom] = append(positions, pos)
}

// sortByStart stably sorts every partition by start.
func (p *Partitions) sortByStart() {
	for _, positions := range p.byChrom {
		sort.SliceStable(positions, func(i, j int) bool {
			return positions[i].Start < positions[j].Start
		})
	}
}

// Chromosomes returns the chromosomes in first-appearance order.
func (p *Partitions) Chromosomes() []string {
	return append([]string(nil), p.order...)
}

// Positions returns the sorted partition for chrom, or nil if absent.
func (p *Partitions) Positions(chrom string) []FeaturePosition {
	return p.byChrom[chrom]
}

// FeatureCount returns the total number of features across all chromosomes.
func (p *Partitions) FeatureCount() int {
	n := 0
	for _, positions := range p.byChrom {
		n += len(positions)
	}
	return n
}

// Builder scans BED files and produces index artifacts.
type Builder struct {
	markers []string
	logger  *zap.Logger
}

// NewBuilder creates a builder that skips bed.DefaultHeaderMarkers.
func NewBuilder() *Builder {
	return &Builder{
		markers: bed.DefaultHeaderMarkers,
		logger:  zap.NewNop(),
	}
}

// SetHeaderMarkers configures the first-column tokens treated as header lines.
func (b *Builder) SetHeaderMarkers(markers []string) {
	b.markers = markers
}

// SetLogger sets the logger for progress messages.
func (b *Builder) SetLogger(l *zap.Logger) {
	b.logger = l
}

// Build scans the BED file at sourcePath and returns its sorted partitions.
func (b *Builder) Build(sourcePath string) (*Partitions, error) {
	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("open bed file: %w", err)
	}
	defer f.Close()

	p, err := b.BuildFrom(f)
	if err != nil {
		return nil, fmt.Errorf("index %s: %w", sourcePath, err)
	}
	return p, nil
}

// BuildFrom scans BED content from r. File pointers are byte offsets from
// the start of r.
func (b *Builder) BuildFrom(r io.Reader) (*Partitions, error) {
	scanner := bed.NewScanner(r)
	scanner.SetHeaderMarkers(b.markers)

	p := newPartitions()
	for {
		line, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		if line == nil {
			break
		}
		p.add(line.Record.Chrom, FeaturePosition{
			Start:       line.Record.Start,
			End:         line.Record.End,
			FilePointer: line.Offset,
		})
	}
	p.sortByStart()

	b.logger.Debug("scanned bed source",
		zap.Int("lines", scanner.LineNumber()),
		zap.Int64("bytes", scanner.Offset()),
		zap.Int("chromosomes", len(p.order)),
		zap.Int("features", p.FeatureCount()))
	return p, nil
}

// CreateIndex builds an index for sourcePath and writes it to indexPath in
// the given format, replacing any existing file.
func (b *Builder) CreateIndex(sourcePath, indexPath string, format Format) error {
	p, err := b.Build(sourcePath)
	if err != nil {
		return err
	}

	var write func(io.Writer, *Partitions) error
	switch format {
	case FormatFile:
		write = WriteFileLayout
	case FormatMemory:
		write = WriteMemoryLayout
	default:
		return fmt.Errorf("create index: %w", errUnknownFormat(format))
	}

	if err := writeAtomic(indexPath, func(w io.Writer) error { return write(w, p) }); err != nil {
		return fmt.Errorf("write index %s: %w", indexPath, err)
	}

	b.logger.Info("index created",
		zap.String("source", sourcePath),
		zap.String("index", indexPath),
		zap.Stringer("format", format),
		zap.Int("chromosomes", len(p.order)),
		zap.Int("features", p.FeatureCount()))
	return nil
}
