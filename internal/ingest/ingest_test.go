package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

func writeGuideline(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guideline.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseGuidelineLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []types.LineRecord
		wantErr string
	}{
		{
			name:    "dot format",
			content: "1. Adults aged 18-65.\n2. Confirmed diagnosis.",
			want: []types.LineRecord{
				{LineNo: 1, Text: "Adults aged 18-65."},
				{LineNo: 2, Text: "Confirmed diagnosis."},
			},
		},
		{
			name:    "mixed accepted formats",
			content: "1. First line\n2) Second line\n3 - Third line\n4 Fourth line",
			want: []types.LineRecord{
				{LineNo: 1, Text: "First line"},
				{LineNo: 2, Text: "Second line"},
				{LineNo: 3, Text: "Third line"},
				{LineNo: 4, Text: "Fourth line"},
			},
		},
		{
			name:    "blank lines skipped",
			content: "1. First\n\n\n2. Second",
			want: []types.LineRecord{
				{LineNo: 1, Text: "First"},
				{LineNo: 2, Text: "Second"},
			},
		},
		{
			name:    "unparseable line fails closed",
			content: "1. First\nno number here",
			wantErr: "unparseable guideline line",
		},
		{
			name:    "gap in numbering fails closed",
			content: "1. First\n3. Third",
			wantErr: "non-contiguous line numbering",
		},
		{
			name:    "duplicate number fails closed",
			content: "1. First\n1. Again",
			wantErr: "non-contiguous line numbering",
		},
		{
			name:    "empty file",
			content: "\n\n",
			wantErr: "no parseable numbered lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseGuidelineLines(writeGuideline(t, tt.content))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("want error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseGuidelineLinesStartOffset(t *testing.T) {
	// Numbering may start above 1 (e.g. a later page), as long as it
	// stays contiguous.
	got, err := ParseGuidelineLines(writeGuideline(t, "117. First\n118. Second"))
	if err != nil {
		t.Fatal(err)
	}
	if got[0].LineNo != 117 || got[1].LineNo != 118 {
		t.Errorf("got line numbers %d, %d", got[0].LineNo, got[1].LineNo)
	}
}

func makeRecords(n int, textLen int) []types.LineRecord {
	records := make([]types.LineRecord, n)
	for i := range records {
		records[i] = types.LineRecord{
			LineNo: i + 1,
			Text:   strings.Repeat("x", textLen),
		}
	}
	return records
}

func TestChunkLines(t *testing.T) {
	t.Run("line limit is hard", func(t *testing.T) {
		chunks, err := ChunkLines(makeRecords(45, 5), types.ChunkingConfig{MaxLinesPerChunk: 20, MaxCharsPerChunk: 100000})
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 3 {
			t.Fatalf("want 3 chunks, got %d", len(chunks))
		}
		for i, ch := range chunks[:2] {
			if got := len(ch.Lines); got != 20 {
				t.Errorf("chunk %d: want 20 lines, got %d", i, got)
			}
		}
		if got := len(chunks[2].Lines); got != 5 {
			t.Errorf("last chunk: want 5 lines, got %d", got)
		}
	})

	t.Run("char limit is soft", func(t *testing.T) {
		// Each formatted line is ~104 chars; with a 300-char soft limit
		// chunks split every two lines, but a single oversized line is
		// never split.
		chunks, err := ChunkLines(makeRecords(4, 100), types.ChunkingConfig{MaxLinesPerChunk: 20, MaxCharsPerChunk: 300})
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) != 2 {
			t.Fatalf("want 2 chunks, got %d", len(chunks))
		}
	})

	t.Run("ids and ranges", func(t *testing.T) {
		chunks, err := ChunkLines(makeRecords(25, 5), types.ChunkingConfig{MaxLinesPerChunk: 10})
		if err != nil {
			t.Fatal(err)
		}
		if chunks[0].ID != "c0001" || chunks[1].ID != "c0002" || chunks[2].ID != "c0003" {
			t.Errorf("unexpected chunk ids: %s %s %s", chunks[0].ID, chunks[1].ID, chunks[2].ID)
		}
		if chunks[1].LineStart != 11 || chunks[1].LineEnd != 20 {
			t.Errorf("chunk 2 range: got %d-%d", chunks[1].LineStart, chunks[1].LineEnd)
		}
		if !strings.HasPrefix(chunks[0].Text, "1. ") {
			t.Errorf("chunk text must keep line number prefixes, got %q", chunks[0].Text[:10])
		}
	})

	t.Run("deterministic", func(t *testing.T) {
		records := makeRecords(50, 30)
		a, err := ChunkLines(records, types.ChunkingConfig{})
		if err != nil {
			t.Fatal(err)
		}
		b, err := ChunkLines(records, types.ChunkingConfig{})
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(a, b); diff != "" {
			t.Errorf("chunking not deterministic (-first +second):\n%s", diff)
		}
	})
}
