// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Citation points a fact or workflow node at a specific chunk and line
// range, asserting textual provenance. Citations are immutable once
// constructed and must resolve against the chunk table.
// Per prd002-extraction R3.1, prd005-validation R4.1.
type Citation struct {
	// ChunkID names the chunk the cited lines live in (e.g. "c0003").
	ChunkID string `json:"chunk_id" yaml:"chunk_id"`

	// LineStart is the first cited source line number (inclusive).
	LineStart int `json:"line_start" yaml:"line_start"`

	// LineEnd is the last cited source line number (inclusive).
	LineEnd int `json:"line_end" yaml:"line_end"`

	// Quote is an optional short excerpt for human audit. It is never
	// required for validation.
	Quote string `json:"quote,omitempty" yaml:"quote,omitempty"`
}

// CitationKey is the comparable identity triple of a Citation, used for
// deduplication. Quote is deliberately excluded.
type CitationKey struct {
	ChunkID   string
	LineStart int
	LineEnd   int
}

// Key returns the identity triple used for citation deduplication.
func (c Citation) Key() CitationKey {
	return CitationKey{ChunkID: c.ChunkID, LineStart: c.LineStart, LineEnd: c.LineEnd}
}

// FactKind categorizes a normalized guideline fact. The set is closed:
// anything outside it fails normalization. Per prd003-normalization R1.1.
type FactKind string

const (
	KindPopulationCriterion FactKind = "population-criterion"
	KindExclusion           FactKind = "exclusion"
	KindContraindication    FactKind = "contraindication"
	KindRedFlag             FactKind = "red-flag"
	KindActionDirective     FactKind = "action-directive"
	KindThreshold           FactKind = "threshold"
)

// Polarity records whether a fact asserts or negates its statement
// (e.g. "start therapy" vs. "do not prescribe"). Per prd003-normalization R1.3.
type Polarity string

const (
	PolarityAsserts Polarity = "asserts"
	PolarityNegates Polarity = "negates"
)

// Strength is the recommendation-language signal carried by a fact.
// Hedging language (may, consider) and an absent signal (unclear) are
// ambiguous and force human review downstream. Per prd003-normalization
// R3.1-R3.3.
type Strength string

const (
	StrengthMust     Strength = "must"
	StrengthShould   Strength = "should"
	StrengthMay      Strength = "may"
	StrengthConsider Strength = "consider"
	StrengthUnclear  Strength = "unclear"
)

// Ambiguous reports whether the strength signal requires human review:
// hedged (may, consider) or absent entirely (unclear). Only must and
// should are unambiguous.
func (s Strength) Ambiguous() bool {
	return s == StrengthMay || s == StrengthConsider || s == StrengthUnclear
}

// Fact is a normalized, cited assertion extracted from the guideline.
// Facts are produced once per run and never mutated; the synthesis
// core treats them as read-only input records.
// Per prd003-normalization R1, R2.
type Fact struct {
	// ID is a stable identifier assigned deterministically after
	// deduplication (e.g. "f0001").
	ID string `json:"fact_id" yaml:"fact_id"`

	// Kind is the closed-enumeration fact category.
	Kind FactKind `json:"kind" yaml:"kind"`

	// Polarity records assert/negate direction.
	Polarity Polarity `json:"polarity" yaml:"polarity"`

	// Statement is the lightly normalized guideline text, no invention.
	Statement string `json:"statement" yaml:"statement"`

	// Condition is an optional structured hook for threshold facts
	// (e.g. "SBP >= 140").
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// Strength is the recommendation-language signal.
	Strength Strength `json:"strength" yaml:"strength"`

	// Ambiguous is true when the fact is sourced from hedging language.
	// Ambiguity never silently resolves to a default truth value; it
	// surfaces as requires_human_review on everything the fact informs.
	Ambiguous bool `json:"ambiguous" yaml:"ambiguous"`

	// Citations is the non-empty provenance set, deduplicated by
	// (chunk_id, line_start, line_end) in first-occurrence order.
	Citations []Citation `json:"citations" yaml:"citations"`
}

// FactSet is the persisted output of extraction or normalization for
// one guideline. Per prd002-extraction R5.4, prd003-normalization R5.1.
type FactSet struct {
	// GuidelineID identifies the source guideline document.
	GuidelineID string `json:"guideline_id" yaml:"guideline_id"`

	// ModelID records which model produced the raw extractions, for
	// reproducibility. Empty for hand-authored fixtures.
	ModelID string `json:"model_id,omitempty" yaml:"model_id,omitempty"`

	// Facts holds the fact records in stable order.
	Facts []Fact `json:"facts" yaml:"facts"`

	// Warnings collects non-fatal diagnostics accumulated so far.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}
