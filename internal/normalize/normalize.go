// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize canonicalizes extracted guideline facts into the
// closed fact-kind enumeration, deduplicates them, and flags ambiguous
// modal language. Implements: prd003-normalization (R1-R5);
//
//	docs/ARCHITECTURE § Normalization.
package normalize

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

// ErrUnrecognizedFactKind reports a raw fact kind outside the closed
// enumeration. Normalization is fail-closed: an unknown kind aborts the
// run rather than being skipped (R1.2).
var ErrUnrecognizedFactKind = errors.New("unrecognized fact kind")

// RawFact is a schema-validated extracted fact record as supplied by
// the extraction stage. Schema validity is not re-checked here; kinds
// and strengths are canonicalized fail-closed.
type RawFact struct {
	Kind      string           `json:"kind" yaml:"kind"`
	Statement string           `json:"statement" yaml:"statement"`
	Condition string           `json:"condition,omitempty" yaml:"condition,omitempty"`
	Strength  string           `json:"strength,omitempty" yaml:"strength,omitempty"`
	Citations []types.Citation `json:"citations" yaml:"citations"`
}

// kindAliases maps near-miss kind spellings onto the closed enumeration
// (R1.1). Anything absent from this table fails with
// ErrUnrecognizedFactKind.
var kindAliases = map[string]types.FactKind{
	"population-criterion": types.KindPopulationCriterion,
	"population":           types.KindPopulationCriterion,
	"exclusion":            types.KindExclusion,
	"exclusions":           types.KindExclusion,
	"contraindication":     types.KindContraindication,
	"contraindications":    types.KindContraindication,
	"contre-indication":    types.KindContraindication,
	"red-flag":             types.KindRedFlag,
	"red_flag":             types.KindRedFlag,
	"warning":              types.KindRedFlag,
	"action-directive":     types.KindActionDirective,
	"action":               types.KindActionDirective,
	"threshold":            types.KindThreshold,
}

// CanonicalKind maps a raw kind string onto the closed enumeration.
func CanonicalKind(raw string) (types.FactKind, error) {
	k := strings.ToLower(strings.TrimSpace(raw))
	if kind, ok := kindAliases[k]; ok {
		return kind, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnrecognizedFactKind, raw)
}

// Lexical marker sets for strength and polarity detection. The
// guideline corpus is bilingual (EN/FR), so both languages appear.
var (
	mustMarkers     = []string{"must", "required", "do not", "never", "doit", "ne pas", "jamais", "contraindicat", "contre-indication"}
	shouldMarkers   = []string{"should", "recommended", "recommand", "devrait"}
	considerMarkers = []string{"consider", "considérer", "envisag"}
	mayMarkers      = []string{"may ", "might ", "peut ", "optionally"}
	negateMarkers   = []string{"do not", "avoid", "never", "ne pas", "éviter", "eviter", "jamais"}
)

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// canonicalStrength maps the raw strength signal, refined against the
// statement's own language, onto the Strength enumeration (R3.1, R3.2).
func canonicalStrength(raw, statement string, kind types.FactKind) types.Strength {
	s := strings.ToLower(statement)

	switch {
	case containsAny(s, mustMarkers):
		return types.StrengthMust
	case containsAny(s, shouldMarkers):
		return types.StrengthShould
	case containsAny(s, considerMarkers):
		return types.StrengthConsider
	case containsAny(s, mayMarkers):
		return types.StrengthMay
	}

	switch types.Strength(strings.ToLower(strings.TrimSpace(raw))) {
	case types.StrengthMust:
		return types.StrengthMust
	case types.StrengthShould:
		return types.StrengthShould
	case types.StrengthConsider:
		return types.StrengthConsider
	case types.StrengthMay:
		return types.StrengthMay
	}

	// Unhedged exclusions and contraindications are absolute by nature.
	if kind == types.KindExclusion || kind == types.KindContraindication {
		return types.StrengthMust
	}
	return types.StrengthUnclear
}

// polarity detects negation language in the statement (R1.3).
func polarity(statement string) types.Polarity {
	if containsAny(strings.ToLower(statement), negateMarkers) {
		return types.PolarityNegates
	}
	return types.PolarityAsserts
}

var (
	wsRE     = regexp.MustCompile(`\s+`)
	dashesRE = regexp.MustCompile("[‐‑‒–—]")
	// punctuation useful in clinical text is kept: % / . : - ( ) '
	dropPunctRE = regexp.MustCompile(`[^\p{L}\p{N}\s/%.:\-()']+`)
)

// NormalizeStatement lightly normalizes a statement: unify dashes,
// drop decorative punctuation, collapse whitespace, strip a trailing
// colon (common header formatting) (R2.1).
func NormalizeStatement(s string) string {
	t := strings.TrimSpace(s)
	t = dashesRE.ReplaceAllString(t, "-")
	t = strings.ReplaceAll(t, "•", "- ")
	t = dropPunctRE.ReplaceAllString(t, "")
	t = wsRE.ReplaceAllString(t, " ")
	t = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(t), ":"))
	return t
}

// stopWords are dropped from fingerprints (EN + FR).
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "of": true,
	"to": true, "in": true, "for": true, "with": true, "on": true, "at": true,
	"by": true, "as": true, "is": true, "are": true,
	"le": true, "la": true, "les": true, "un": true, "une": true, "des": true,
	"et": true, "ou": true, "de": true, "du": true, "au": true, "aux": true,
	"dans": true, "pour": true, "avec": true, "sur": true, "chez": true,
	"en": true, "est": true, "sont": true,
}

// Fingerprint reduces a statement to a sorted token bag so trivially
// reordered or re-punctuated duplicates collide (R2.2).
func Fingerprint(s string) string {
	t := strings.ToLower(NormalizeStatement(s))
	toks := strings.Fields(wsRE.ReplaceAllString(dropPunctRE.ReplaceAllString(t, " "), " "))

	var kept []string
	for _, tok := range toks {
		tok = strings.Trim(tok, ".:-()'/")
		if tok == "" || stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	sort.Strings(kept)
	return strings.Join(kept, " ")
}

// mergeCitations unions citation lists, deduplicating by
// (chunk_id, line_start, line_end) in first-occurrence order. A later
// duplicate contributes its quote if the kept one has none (R2.3).
func mergeCitations(lists ...[]types.Citation) []types.Citation {
	var out []types.Citation
	at := make(map[types.CitationKey]int)
	for _, list := range lists {
		for _, c := range list {
			k := c.Key()
			if i, ok := at[k]; ok {
				if out[i].Quote == "" && c.Quote != "" {
					out[i].Quote = c.Quote
				}
				continue
			}
			at[k] = len(out)
			out = append(out, c)
		}
	}
	return out
}

// Facts canonicalizes, deduplicates, and re-identifies the raw fact
// records. It returns the normalized facts, non-fatal warnings, and a
// fail-closed error on any unrecognized kind (R1-R5). No two output
// facts share (kind, fingerprint); colliding facts merge their citation
// sets by union. Output order and fact ids are deterministic.
func Facts(raw []RawFact, cfg types.NormalizeConfig) ([]types.Fact, []string, error) {
	if cfg.MinChars <= 0 {
		cfg.MinChars = 10
	}

	var warnings []string

	type bucket struct {
		fact  types.Fact
		order int
	}
	buckets := make(map[string]*bucket)
	dropped := 0
	merged := 0
	order := 0

	for _, rf := range raw {
		kind, err := CanonicalKind(rf.Kind)
		if err != nil {
			return nil, nil, err
		}

		stmt := NormalizeStatement(rf.Statement)
		if len(stmt) < cfg.MinChars {
			dropped++
			continue
		}

		strength := canonicalStrength(rf.Strength, stmt, kind)
		f := types.Fact{
			Kind:      kind,
			Polarity:  polarity(stmt),
			Statement: stmt,
			Condition: strings.TrimSpace(rf.Condition),
			Strength:  strength,
			Ambiguous: strength.Ambiguous(),
			Citations: mergeCitations(rf.Citations),
		}

		key := string(kind) + "\x00" + Fingerprint(stmt)
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{fact: f, order: order}
			order++
			continue
		}

		merged++
		b.fact.Citations = mergeCitations(b.fact.Citations, f.Citations)
		// Ambiguity and review pressure are monotonic across merges.
		b.fact.Ambiguous = b.fact.Ambiguous || f.Ambiguous
		if b.fact.Polarity != f.Polarity {
			b.fact.Polarity = types.PolarityNegates
		}
		if strengthRank(f.Strength) > strengthRank(b.fact.Strength) {
			b.fact.Strength = f.Strength
		}
		if b.fact.Condition == "" {
			b.fact.Condition = f.Condition
		}
		if len(f.Statement) > len(b.fact.Statement) {
			b.fact.Statement = f.Statement
		}
	}

	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("normalize: dropped %d short header/junk statements", dropped))
	}
	if merged > 0 {
		warnings = append(warnings, fmt.Sprintf("normalize: merged %d duplicate facts by canonical fingerprint", merged))
	}

	out := make([]types.Fact, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, b.fact)
	}

	// Deterministic re-id: order by kind, then statement, so two runs
	// over identical input assign byte-identical fact ids.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return strings.ToLower(out[i].Statement) < strings.ToLower(out[j].Statement)
	})
	for i := range out {
		out[i].ID = fmt.Sprintf("f%04d", i+1)
	}

	return out, warnings, nil
}

// strengthRank orders strengths from weakest signal to strongest.
func strengthRank(s types.Strength) int {
	switch s {
	case types.StrengthUnclear:
		return 0
	case types.StrengthMay:
		return 1
	case types.StrengthConsider:
		return 2
	case types.StrengthShould:
		return 3
	case types.StrengthMust:
		return 4
	}
	return -1
}

// MergeCitations exposes the first-occurrence citation union for the
// synthesizer, which applies the same rule across facts.
func MergeCitations(lists ...[]types.Citation) []types.Citation {
	return mergeCitations(lists...)
}
