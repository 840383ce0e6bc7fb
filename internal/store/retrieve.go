// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

// QueryOptions holds parameters for fact queries (R3).
type QueryOptions struct {
	// Query is the FTS5 full-text search string over fact statements (R3.1).
	Query string

	// Kind filters by FactKind (R3.2).
	Kind types.FactKind

	// GuidelineID filters by guideline (R3.3).
	GuidelineID string

	// AmbiguousOnly restricts results to facts flagged for review.
	AmbiguousOnly bool

	// MaxResults limits result count. Zero uses the store default.
	MaxResults int
}

// IsEmpty reports whether the query has no search terms or filters.
func (q QueryOptions) IsEmpty() bool {
	return q.Query == "" && q.Kind == "" && q.GuidelineID == "" && !q.AmbiguousOnly
}

// FactRecord is a stored fact with its guideline id.
type FactRecord struct {
	types.Fact  `yaml:",inline"`
	GuidelineID string `json:"guideline_id" yaml:"guideline_id"`
}

// Retrieve queries stored facts with optional full-text search and
// structured filters. Full-text queries rank by relevance; structured
// queries sort by guideline, kind, and fact id (R3.5).
func (s *Store) Retrieve(ctx context.Context, opts QueryOptions) ([]FactRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	qb.WriteString(`SELECT f.fact_id, f.guideline_id, f.kind, f.polarity, f.strength,
		f.statement, f.condition, f.ambiguous, f.citations FROM facts f`)

	var where []string
	if useFTS {
		qb.WriteString(` JOIN facts_fts ON facts_fts.rowid = f.rowid`)
		where = append(where, `facts_fts MATCH ?`)
		args = append(args, opts.Query)
	}
	if opts.Kind != "" {
		where = append(where, `f.kind = ?`)
		args = append(args, string(opts.Kind))
	}
	if opts.GuidelineID != "" {
		where = append(where, `f.guideline_id = ?`)
		args = append(args, opts.GuidelineID)
	}
	if opts.AmbiguousOnly {
		where = append(where, `f.ambiguous = 1`)
	}

	if len(where) > 0 {
		qb.WriteString(` WHERE ` + strings.Join(where, ` AND `))
	}
	if useFTS {
		qb.WriteString(` ORDER BY rank`)
	} else {
		qb.WriteString(` ORDER BY f.guideline_id, f.kind, f.fact_id`)
	}
	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying facts: %w", err)
	}
	defer rows.Close()

	var out []FactRecord
	for rows.Next() {
		var (
			rec       FactRecord
			condition sql.NullString
			ambiguous int
			cits      string
		)
		if err := rows.Scan(&rec.ID, &rec.GuidelineID, &rec.Kind, &rec.Polarity, &rec.Strength,
			&rec.Statement, &condition, &ambiguous, &cits); err != nil {
			return nil, fmt.Errorf("scanning fact row: %w", err)
		}
		rec.Condition = condition.String
		rec.Ambiguous = ambiguous != 0
		if err := json.Unmarshal([]byte(cits), &rec.Citations); err != nil {
			return nil, fmt.Errorf("decoding citations for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Trace returns the source chunk text behind each citation of a stored
// fact, so a reviewer can audit provenance without re-running the
// pipeline (R4.1).
func (s *Store) Trace(ctx context.Context, guidelineID, factID string) (string, error) {
	var cits string
	err := s.db.QueryRowContext(ctx,
		`SELECT citations FROM facts WHERE guideline_id = ? AND fact_id = ?`,
		guidelineID, factID).Scan(&cits)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("fact %s not found in guideline %s", factID, guidelineID)
	}
	if err != nil {
		return "", fmt.Errorf("loading fact %s: %w", factID, err)
	}

	var citations []types.Citation
	if err := json.Unmarshal([]byte(cits), &citations); err != nil {
		return "", fmt.Errorf("decoding citations for %s: %w", factID, err)
	}

	var b strings.Builder
	for i, c := range citations {
		var text string
		err := s.db.QueryRowContext(ctx,
			`SELECT text FROM chunks WHERE guideline_id = ? AND chunk_id = ?`,
			guidelineID, c.ChunkID).Scan(&text)
		if err == sql.ErrNoRows {
			text = "<chunk not stored>"
		} else if err != nil {
			return "", fmt.Errorf("loading chunk %s: %w", c.ChunkID, err)
		}

		fmt.Fprintf(&b, "[%d] %s:%d-%d\n%s\n", i+1, c.ChunkID, c.LineStart, c.LineEnd, citedLines(text, c))
		if i < len(citations)-1 {
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// citedLines filters a stored chunk's line-prefixed text down to the
// cited range.
func citedLines(chunkText string, c types.Citation) string {
	var out []string
	for _, line := range strings.Split(chunkText, "\n") {
		var n int
		if _, err := fmt.Sscanf(line, "%d.", &n); err != nil {
			continue
		}
		if n >= c.LineStart && n <= c.LineEnd {
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return chunkText
	}
	return strings.Join(out, "\n")
}
