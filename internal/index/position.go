package index

import "encoding/binary"

// PositionSize is the number of bytes a FeaturePosition occupies in an index file.
const PositionSize = 16

// FeaturePosition locates one feature: its genomic span and the byte offset
// of its line in the source BED file.
type FeaturePosition struct {
	Start       int32
	End         int32
	FilePointer int64
}

// Contained reports whether the feature lies entirely within [start, end).
func (p FeaturePosition) Contained(start, end int32) bool {
	return start <= p.Start && p.End <= end
}

// Marshal writes the position into dst, which must hold PositionSize bytes.
func (p FeaturePosition) Marshal(dst []byte) {
	binary.BigEndian.PutUint32(dst[0:4], uint32(p.Start))
	binary.BigEndian.PutUint32(dst[4:8], uint32(p.End))
	binary.BigEndian.PutUint64(dst[8:16], uint64(p.FilePointer))
}

// Unmarshal reads a position from src, which must hold PositionSize bytes.
func (p *FeaturePosition) Unmarshal(src []byte) {
	p.Start = int32(binary.BigEndian.Uint32(src[0:4]))
	p.End = int32(binary.BigEndian.Uint32(src[4:8]))
	p.FilePointer = int64(binary.BigEndian.Uint64(src[8:16]))
}
