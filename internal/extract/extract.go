// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract identifies cited guideline facts within ingested
// chunks via a Generative AI backend. Implements: prd002-extraction
// (R1, R2, R5); docs/ARCHITECTURE § Extraction.
package extract

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/pdiddy/guideline-engine/internal/normalize"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

// AIBackend abstracts the Generative AI API so tests can supply a mock.
// Each implementation handles a single chunk of line-numbered guideline
// text and returns the raw response. Per Strategy pattern (R5.2).
type AIBackend interface {
	Extract(ctx context.Context, chunk types.Chunk) (AIResponse, error)
}

// AIResponse is the structured response from the AI backend for one chunk.
type AIResponse struct {
	Facts []AIResponseFact `json:"facts" yaml:"facts"`
}

// AIResponseFact is a single fact as returned by the AI backend.
// Citations are line ranges within the chunk the backend was shown.
type AIResponseFact struct {
	Kind      string       `json:"kind" yaml:"kind"`
	Statement string       `json:"statement" yaml:"statement"`
	Condition string       `json:"condition,omitempty" yaml:"condition,omitempty"`
	Strength  string       `json:"strength,omitempty" yaml:"strength,omitempty"`
	Citations []AICitation `json:"citations" yaml:"citations"`
}

// AICitation is a model-provided line range, before clamping.
type AICitation struct {
	LineStart int    `json:"line_start" yaml:"line_start"`
	LineEnd   int    `json:"line_end" yaml:"line_end"`
	Quote     string `json:"quote,omitempty" yaml:"quote,omitempty"`
}

// Result is the persisted output of extraction for one guideline,
// consumed by the normalization stage (R5.4).
type Result struct {
	GuidelineID string              `json:"guideline_id" yaml:"guideline_id"`
	ModelID     string              `json:"model_id" yaml:"model_id"`
	Facts       []normalize.RawFact `json:"facts" yaml:"facts"`
	Warnings    []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// All extracts facts from every chunk in order. Per-chunk backend
// failures abort the run after retries; per-fact citation problems are
// reported as warnings, and a fact left with no valid citation is
// dropped entirely (fail-closed at the fact level, R2.3). Progress is
// reported on w.
func All(ctx context.Context, backend AIBackend, guidelineID string, chunks []types.Chunk, cfg types.ExtractionConfig, w io.Writer) (*Result, error) {
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	result := &Result{
		GuidelineID: guidelineID,
		ModelID:     cfg.Model,
	}

	for _, chunk := range chunks {
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}

		resp, err := callWithRetry(ctx, backend, chunk, maxRetries)
		if err != nil {
			return nil, fmt.Errorf("extracting chunk %s: %w", chunk.ID, err)
		}

		facts, warnings := convertFacts(resp.Facts, chunk)
		result.Facts = append(result.Facts, facts...)
		result.Warnings = append(result.Warnings, warnings...)

		fmt.Fprintf(w, "extracted %s (%d facts)\n", chunk.ID, len(facts))
	}

	return result, nil
}

// callWithRetry calls the AI backend with exponential backoff (R5.3).
func callWithRetry(ctx context.Context, backend AIBackend, chunk types.Chunk, maxRetries int) (AIResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return AIResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := backend.Extract(ctx, chunk)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return AIResponse{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// convertFacts turns backend facts into raw fact records, constraining
// every citation to the chunk it was extracted from: the chunk id is
// forced, line ranges are clamped into the chunk bounds, and citations
// entirely outside the chunk are dropped (R2.1-R2.3). Extraction is
// per-chunk, so a model citing lines it was never shown is always a
// hallucination.
func convertFacts(facts []AIResponseFact, chunk types.Chunk) ([]normalize.RawFact, []string) {
	var out []normalize.RawFact
	var warnings []string

	for i, f := range facts {
		if strings.TrimSpace(f.Statement) == "" {
			warnings = append(warnings, fmt.Sprintf("extract: %s fact %d: empty statement, dropped", chunk.ID, i))
			continue
		}

		var cits []types.Citation
		for _, c := range f.Citations {
			ls, le := c.LineStart, c.LineEnd
			if le < ls {
				ls, le = le, ls
			}
			if le < chunk.LineStart || ls > chunk.LineEnd {
				warnings = append(warnings, fmt.Sprintf(
					"extract: %s fact %d: citation %d-%d outside chunk %d-%d, dropped",
					chunk.ID, i, ls, le, chunk.LineStart, chunk.LineEnd))
				continue
			}
			cits = append(cits, types.Citation{
				ChunkID:   chunk.ID,
				LineStart: max(chunk.LineStart, ls),
				LineEnd:   min(chunk.LineEnd, le),
				Quote:     c.Quote,
			})
		}

		if len(cits) == 0 {
			warnings = append(warnings, fmt.Sprintf("extract: %s fact %d: no valid citations, dropped", chunk.ID, i))
			continue
		}

		out = append(out, normalize.RawFact{
			Kind:      f.Kind,
			Statement: f.Statement,
			Condition: f.Condition,
			Strength:  f.Strength,
			Citations: cits,
		})
	}

	return out, warnings
}
