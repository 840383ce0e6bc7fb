package trace

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

func testChunks() []types.Chunk {
	mk := func(id string, start, end int) types.Chunk {
		var lines []types.LineRecord
		var text []string
		for n := start; n <= end; n++ {
			lines = append(lines, types.LineRecord{LineNo: n, Text: fmt.Sprintf("line %d text", n)})
			text = append(text, fmt.Sprintf("%d. line %d text", n, n))
		}
		return types.Chunk{ID: id, LineStart: start, LineEnd: end, Text: strings.Join(text, "\n"), Lines: lines}
	}
	return []types.Chunk{
		mk("c0001", 1, 20),
		mk("c0002", 21, 50),
	}
}

func testIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := Build(testChunks())
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestBuildRejectsDuplicateChunk(t *testing.T) {
	chunks := testChunks()
	chunks[1].ID = "c0001"
	_, err := Build(chunks)
	if !errors.Is(err, ErrDuplicateChunk) {
		t.Fatalf("want ErrDuplicateChunk, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	idx := testIndex(t)

	tests := []struct {
		name    string
		cit     types.Citation
		want    string
		wantErr error
	}{
		{
			name: "single line",
			cit:  types.Citation{ChunkID: "c0001", LineStart: 6, LineEnd: 6},
			want: "line 6 text",
		},
		{
			name: "multi line range",
			cit:  types.Citation{ChunkID: "c0002", LineStart: 21, LineEnd: 23},
			want: "line 21 text\nline 22 text\nline 23 text",
		},
		{
			name:    "unknown chunk",
			cit:     types.Citation{ChunkID: "c9999", LineStart: 1, LineEnd: 1},
			wantErr: ErrUnknownChunk,
		},
		{
			name:    "range beyond chunk",
			cit:     types.Citation{ChunkID: "c0001", LineStart: 9999, LineEnd: 9999},
			wantErr: ErrLineRangeOutOfBounds,
		},
		{
			name:    "range starts before chunk",
			cit:     types.Citation{ChunkID: "c0002", LineStart: 5, LineEnd: 25},
			wantErr: ErrLineRangeOutOfBounds,
		},
		{
			name:    "inverted range",
			cit:     types.Citation{ChunkID: "c0001", LineStart: 10, LineEnd: 3},
			wantErr: ErrLineRangeOutOfBounds,
		},
		{
			name:    "non-positive line",
			cit:     types.Citation{ChunkID: "c0001", LineStart: 0, LineEnd: 1},
			wantErr: ErrLineRangeOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Resolve(tt.cit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("want %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("want %q, got %q", tt.want, got)
			}
		})
	}
}

// Fuzz-style sweep: every range that strays outside the chunk's line
// bounds must fail, and every range inside must succeed.
func TestResolveBoundsSweep(t *testing.T) {
	idx := testIndex(t)

	for start := -2; start <= 25; start++ {
		for end := start; end <= 25; end++ {
			cit := types.Citation{ChunkID: "c0001", LineStart: start, LineEnd: end}
			_, err := idx.Resolve(cit)
			inBounds := start >= 1 && end <= 20
			if inBounds && err != nil {
				t.Fatalf("range %d-%d should resolve, got %v", start, end, err)
			}
			if !inBounds && !errors.Is(err, ErrLineRangeOutOfBounds) {
				t.Fatalf("range %d-%d should fail out of bounds, got %v", start, end, err)
			}
		}
	}
}

func TestValidateAll(t *testing.T) {
	idx := testIndex(t)

	ok := []types.Citation{
		{ChunkID: "c0001", LineStart: 1, LineEnd: 2},
		{ChunkID: "c0002", LineStart: 50, LineEnd: 50},
	}
	if err := idx.ValidateAll(ok); err != nil {
		t.Fatal(err)
	}

	bad := append(ok, types.Citation{ChunkID: "c0001", LineStart: 19, LineEnd: 21})
	if err := idx.ValidateAll(bad); !errors.Is(err, ErrLineRangeOutOfBounds) {
		t.Fatalf("want ErrLineRangeOutOfBounds, got %v", err)
	}
}

func TestAuditSnippet(t *testing.T) {
	idx := testIndex(t)

	got := idx.AuditSnippet(types.Citation{ChunkID: "c0001", LineStart: 6, LineEnd: 7})
	want := "6. line 6 text\n7. line 7 text"
	if got != want {
		t.Errorf("want %q, got %q", want, got)
	}

	broken := idx.AuditSnippet(types.Citation{ChunkID: "c0001", LineStart: 9999, LineEnd: 9999})
	if !strings.Contains(broken, "unresolvable citation") {
		t.Errorf("broken citation should be visible in snippet, got %q", broken)
	}
}
