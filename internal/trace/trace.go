// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package trace maintains the citation index: a read-only lookup from
// citation identifiers to verified chunk line ranges and their text.
// Implements: prd005-validation (R4); docs/ARCHITECTURE § Traceability.
package trace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

var (
	// ErrUnknownChunk reports a citation naming a chunk that does not exist.
	ErrUnknownChunk = errors.New("unknown chunk")

	// ErrLineRangeOutOfBounds reports a citation range outside its chunk's lines.
	ErrLineRangeOutOfBounds = errors.New("citation line range out of bounds")

	// ErrDuplicateChunk reports two chunks sharing one chunk id at build time.
	ErrDuplicateChunk = errors.New("duplicate chunk id")
)

// Index is the immutable citation index, built once per run from the
// ingested chunk set and passed by reference into normalization,
// synthesis, and validation. Query-only; no side effects.
type Index struct {
	chunks map[string]types.Chunk
	lines  map[int]string // global line_no -> text
}

// Build constructs an Index from the chunk table. It fails closed on
// duplicate chunk ids (R4.2).
func Build(chunks []types.Chunk) (*Index, error) {
	idx := &Index{
		chunks: make(map[string]types.Chunk, len(chunks)),
		lines:  make(map[int]string),
	}
	for _, ch := range chunks {
		if _, ok := idx.chunks[ch.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateChunk, ch.ID)
		}
		idx.chunks[ch.ID] = ch
		for _, r := range ch.Lines {
			idx.lines[r.LineNo] = r.Text
		}
	}
	return idx, nil
}

// Resolve returns the text of the cited line range. It fails with
// ErrUnknownChunk if the chunk id is absent, or ErrLineRangeOutOfBounds
// if the range is inverted, non-positive, or exceeds the chunk's lines
// (R4.3, R4.4).
func (idx *Index) Resolve(cit types.Citation) (string, error) {
	ch, ok := idx.chunks[cit.ChunkID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownChunk, cit.ChunkID)
	}

	if cit.LineStart <= 0 || cit.LineEnd <= 0 || cit.LineStart > cit.LineEnd {
		return "", fmt.Errorf("%w: %s:%d-%d invalid range",
			ErrLineRangeOutOfBounds, cit.ChunkID, cit.LineStart, cit.LineEnd)
	}
	if cit.LineStart < ch.LineStart || cit.LineEnd > ch.LineEnd {
		return "", fmt.Errorf("%w: %s:%d-%d not within %d-%d",
			ErrLineRangeOutOfBounds, cit.ChunkID, cit.LineStart, cit.LineEnd, ch.LineStart, ch.LineEnd)
	}

	var out []string
	for _, r := range ch.Lines {
		if r.LineNo >= cit.LineStart && r.LineNo <= cit.LineEnd {
			out = append(out, r.Text)
		}
	}
	return strings.Join(out, "\n"), nil
}

// ValidateAll resolves every citation in the list and returns the first
// failure, or nil if all resolve.
func (idx *Index) ValidateAll(cits []types.Citation) error {
	for _, c := range cits {
		if _, err := idx.Resolve(c); err != nil {
			return err
		}
	}
	return nil
}

// HasChunk reports whether the index knows the given chunk id.
func (idx *Index) HasChunk(chunkID string) bool {
	_, ok := idx.chunks[chunkID]
	return ok
}

// LineText returns the text of a source line by global line number, for
// renderer snippets. The second return is false for unknown lines.
func (idx *Index) LineText(lineNo int) (string, bool) {
	t, ok := idx.lines[lineNo]
	return t, ok
}

// AuditSnippet renders the cited lines with their numbers for audit
// views, e.g. "6. Adults aged 18-65 ...". Resolve errors surface as the
// snippet text so a broken citation is visible in the audit output
// rather than silently blank; validation has already failed the run by
// the time a renderer sees a broken citation.
func (idx *Index) AuditSnippet(cit types.Citation) string {
	if _, err := idx.Resolve(cit); err != nil {
		return fmt.Sprintf("<unresolvable citation %s:%d-%d: %v>", cit.ChunkID, cit.LineStart, cit.LineEnd, err)
	}
	var out []string
	for n := cit.LineStart; n <= cit.LineEnd; n++ {
		if t, ok := idx.LineText(n); ok {
			out = append(out, fmt.Sprintf("%d. %s", n, t))
		}
	}
	return strings.Join(out, "\n")
}
