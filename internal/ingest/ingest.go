// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ingest parses line-numbered guideline text and chunks it
// deterministically. Implements: prd001-ingestion (R1, R2);
//
//	docs/ARCHITECTURE § Ingestion.
package ingest

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

// linePatterns accepts the numbering styles found in prepared guideline
// sources: "12. text", "12) text", "12 - text", "12 text" (R1.1).
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\s*(\d+)\.\s*(.*?)\s*$`),
	regexp.MustCompile(`^\s*(\d+)\)\s*(.*?)\s*$`),
	regexp.MustCompile(`^\s*(\d+)\s*-\s*(.*?)\s*$`),
	regexp.MustCompile(`^\s*(\d+)\s+(.+?)\s*$`),
}

// ParseGuidelineLines reads a guideline text file whose lines carry
// explicit line numbers and returns the parsed records. It fails closed
// if any non-blank line cannot be parsed, or if line numbers are not
// strictly contiguous (R1.2, R1.3). Blank lines are skipped.
func ParseGuidelineLines(path string) ([]types.LineRecord, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading guideline %s: %w", path, err)
	}
	return ParseLines(string(raw), path)
}

// ParseLines parses guideline text already in memory. The name
// parameter is used in error messages only.
func ParseLines(raw, name string) ([]types.LineRecord, error) {
	var records []types.LineRecord
	for idx, rawLine := range strings.Split(raw, "\n") {
		if strings.TrimSpace(rawLine) == "" {
			continue
		}

		rec, ok := parseLine(rawLine)
		if !ok {
			return nil, fmt.Errorf(
				"unparseable guideline line at file line %d: %q (expected formats like '12. text', '12) text', '12 - text', or '12 text')",
				idx+1, rawLine)
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("guideline %s contains no parseable numbered lines", name)
	}

	// Strict monotonic, contiguous numbering. Shifted or duplicated
	// numbers would silently corrupt every downstream citation.
	expected := records[0].LineNo
	for _, r := range records {
		if r.LineNo != expected {
			return nil, fmt.Errorf("non-contiguous line numbering: expected %d, got %d", expected, r.LineNo)
		}
		expected++
	}

	return records, nil
}

func parseLine(rawLine string) (types.LineRecord, bool) {
	for _, pat := range linePatterns {
		m := pat.FindStringSubmatch(rawLine)
		if m == nil {
			continue
		}
		lineNo, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return types.LineRecord{LineNo: lineNo, Text: strings.TrimSpace(m[2])}, true
	}
	return types.LineRecord{}, false
}

// formatLine renders a record as it appears inside chunk text. The line
// number prefix is redundant with the stored range, but keeps chunks
// directly citable by humans and models (R2.4).
func formatLine(r types.LineRecord) string {
	return strings.TrimRight(fmt.Sprintf("%d. %s", r.LineNo, r.Text), " \t")
}

// ChunkLines deterministically chunks parsed line records into
// contiguous blocks. Chunk IDs are assigned in encounter order: c0001,
// c0002, ... Given identical records and config, the output is
// byte-identical (R2.1-R2.3).
func ChunkLines(records []types.LineRecord, cfg types.ChunkingConfig) ([]types.Chunk, error) {
	if cfg.MaxLinesPerChunk <= 0 {
		cfg.MaxLinesPerChunk = 20
	}
	if cfg.MaxCharsPerChunk <= 0 {
		cfg.MaxCharsPerChunk = 1200
	}

	var chunks []types.Chunk
	var cur []types.LineRecord
	curChars := 0

	flush := func() {
		if len(cur) == 0 {
			return
		}
		lines := make([]string, len(cur))
		for i, r := range cur {
			lines[i] = formatLine(r)
		}
		chunks = append(chunks, types.Chunk{
			ID:        fmt.Sprintf("c%04d", len(chunks)+1),
			LineStart: cur[0].LineNo,
			LineEnd:   cur[len(cur)-1].LineNo,
			Text:      strings.Join(lines, "\n"),
			Lines:     cur,
		})
		cur = nil
		curChars = 0
	}

	for _, r := range records {
		addLen := len(formatLine(r)) + 1

		wouldExceedLines := len(cur)+1 > cfg.MaxLinesPerChunk
		wouldExceedChars := curChars+addLen > cfg.MaxCharsPerChunk && len(cur) > 0

		if wouldExceedLines || wouldExceedChars {
			flush()
		}

		cur = append(cur, r)
		curChars += addLen
	}
	flush()

	if len(chunks) == 0 {
		return nil, fmt.Errorf("chunking produced no chunks")
	}
	return chunks, nil
}
