// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// LineRecord is a single line of the source guideline with its original
// line number. Line numbers come from the source text itself and are
// strictly contiguous. Per prd001-ingestion R1.2.
type LineRecord struct {
	// LineNo is the 1-based line number as printed in the source.
	LineNo int `json:"line_no" yaml:"line_no"`

	// Text is the line content with the number prefix stripped.
	Text string `json:"text" yaml:"text"`
}

// Chunk is a contiguous, line-numbered slice of the guideline with a
// stable identifier. Chunk IDs are assigned in encounter order (c0001,
// c0002, ...) and are stable across runs given identical input and
// chunking config. Per prd001-ingestion R2.1-R2.3.
type Chunk struct {
	// ID is the stable chunk identifier (e.g. "c0001").
	ID string `json:"chunk_id" yaml:"chunk_id"`

	// LineStart is the first source line number covered by this chunk.
	LineStart int `json:"line_start" yaml:"line_start"`

	// LineEnd is the last source line number covered by this chunk.
	LineEnd int `json:"line_end" yaml:"line_end"`

	// Text is the joined chunk text. Each line keeps its original line
	// number prefix so humans and models can cite it directly.
	Text string `json:"text" yaml:"text"`

	// Lines are the individual line records that make up the chunk.
	Lines []LineRecord `json:"lines" yaml:"lines"`
}

// ChunkSet is the persisted output of the ingestion stage for one guideline.
type ChunkSet struct {
	// GuidelineID identifies the source guideline document.
	GuidelineID string `json:"guideline_id" yaml:"guideline_id"`

	// Chunks holds the deterministic chunks in encounter order.
	Chunks []Chunk `json:"chunks" yaml:"chunks"`
}
