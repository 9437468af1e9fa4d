package toon

import "time"

// Metrics is a read-only report attached to one encode call.
type Metrics struct {
	OriginalSize   int           // compact JSON size of the input tree
	CompressedSize int           // size of the representation
	SavingsPercent float64       // (original - compressed) / original * 100
	Elapsed        time.Duration // wall time of the encode call
	Level          Level

	// Per-transform counts.
	AbbreviationsUsed int // keys replaced by table codes
	SchemaBlocks      int // sequences encoded as schema + rows
	SchemaRows        int // total rows across schema blocks
	PatternTokens     int // strings replaced by value-pattern tokens
	DictEntries       int // string dictionary entries
	RefsResolved      int // occurrences replaced by back-references
}

// CompressionRatio returns compressed/original, or 0 for empty input.
func (m *Metrics) CompressionRatio() float64 {
	if m.OriginalSize == 0 {
		return 0
	}
	return float64(m.CompressedSize) / float64(m.OriginalSize)
}
