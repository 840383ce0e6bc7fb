// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synthesize

import (
	"fmt"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

// Route is one outgoing edge of a template gate: either fall through to
// the next gate in template order, or jump to a named terminal slot.
type Route struct {
	// NextGate routes to the following gate. Invalid on the last gate.
	NextGate bool `json:"next_gate,omitempty" yaml:"next_gate,omitempty"`

	// Terminal names a TerminalSpec key.
	Terminal string `json:"terminal,omitempty" yaml:"terminal,omitempty"`
}

// GateSpec describes one decision slot of the template: its semantic
// role (which fact kinds feed it), its fixed input, and its default
// routing. The gate's semantic meaning is predetermined, never inferred
// from facts (R1.2).
type GateSpec struct {
	// Name identifies the gate in warnings (e.g. "population").
	Name string `json:"name" yaml:"name"`

	// Roles lists the fact kinds whose citations attach to this gate.
	Roles []types.FactKind `json:"roles" yaml:"roles"`

	// Input is the boolean entry point the gate tests.
	Input types.Input `json:"input" yaml:"input"`

	// OnTrue and OnFalse are the gate's fixed routes.
	OnTrue  Route `json:"on_true" yaml:"on_true"`
	OnFalse Route `json:"on_false" yaml:"on_false"`
}

// TerminalSpec describes a template outcome slot, materialized as an
// action or end node.
type TerminalSpec struct {
	// Key is the slot name routes refer to.
	Key string `json:"key" yaml:"key"`

	// Kind is NodeAction or NodeEnd.
	Kind types.NodeKind `json:"kind" yaml:"kind"`

	// Action is the instruction text (action terminals).
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// Label is the terminal label (end terminals).
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// AlwaysReview forces requires_human_review regardless of facts,
	// e.g. terminal clinical-judgment slots.
	AlwaysReview bool `json:"always_review,omitempty" yaml:"always_review,omitempty"`

	// CiteRoles lists the fact kinds whose citations attach here.
	CiteRoles []types.FactKind `json:"cite_roles,omitempty" yaml:"cite_roles,omitempty"`

	// CiteReviewFallback attaches citations from ambiguous facts, or
	// from every fact when none are ambiguous. Used by the final
	// review-and-apply terminal.
	CiteReviewFallback bool `json:"cite_review_fallback,omitempty" yaml:"cite_review_fallback,omitempty"`

	// MaxCitations caps the attached citations, keeping the first N in
	// stable order. Zero means no cap.
	MaxCitations int `json:"max_citations,omitempty" yaml:"max_citations,omitempty"`
}

// Template is the declarative descriptor of a guideline family's graph
// shape: an ordered gate chain plus its terminal outcomes. The shape is
// fixed; only labels, citations, and review flags are fact-driven.
type Template struct {
	Gates     []GateSpec     `json:"gates" yaml:"gates"`
	Terminals []TerminalSpec `json:"terminals" yaml:"terminals"`
}

// Validate checks the template's internal shape: at least one gate,
// terminal keys resolvable, no NextGate route on the last gate, and no
// duplicate terminal keys.
func (t Template) Validate() error {
	if len(t.Gates) == 0 {
		return fmt.Errorf("template has no gates")
	}

	keys := make(map[string]bool, len(t.Terminals))
	for _, term := range t.Terminals {
		if keys[term.Key] {
			return fmt.Errorf("duplicate terminal key %q", term.Key)
		}
		if term.Kind != types.NodeAction && term.Kind != types.NodeEnd {
			return fmt.Errorf("terminal %q has kind %q, want action or end", term.Key, term.Kind)
		}
		keys[term.Key] = true
	}

	for i, g := range t.Gates {
		last := i == len(t.Gates)-1
		for _, r := range []Route{g.OnTrue, g.OnFalse} {
			switch {
			case r.NextGate && r.Terminal != "":
				return fmt.Errorf("gate %q route sets both next_gate and terminal", g.Name)
			case r.NextGate && last:
				return fmt.Errorf("last gate %q routes to a nonexistent next gate", g.Name)
			case !r.NextGate && !keys[r.Terminal]:
				return fmt.Errorf("gate %q routes to unknown terminal %q", g.Name, r.Terminal)
			}
		}
	}
	return nil
}

// DefaultTemplate returns the fixed three-gate funnel for the current
// guideline family: population match, exclusion/contraindication, then
// red-flag triage, each routing to the next gate or a terminal.
func DefaultTemplate() Template {
	return Template{
		Gates: []GateSpec{
			{
				Name:  "population",
				Roles: []types.FactKind{types.KindPopulationCriterion},
				Input: types.Input{
					ID:          "in001",
					Name:        "meets_population",
					Type:        "bool",
					Description: "True if the patient matches the guideline population definition.",
				},
				OnTrue:  Route{NextGate: true},
				OnFalse: Route{Terminal: "not-applicable"},
			},
			{
				Name:  "exclusion",
				Roles: []types.FactKind{types.KindExclusion, types.KindContraindication},
				Input: types.Input{
					ID:          "in002",
					Name:        "has_exclusion_or_contraindication",
					Type:        "bool",
					Description: "True if any guideline exclusion or contraindication applies.",
				},
				OnTrue:  Route{Terminal: "excluded"},
				OnFalse: Route{NextGate: true},
			},
			{
				Name:  "red-flag",
				Roles: []types.FactKind{types.KindRedFlag},
				Input: types.Input{
					ID:          "in003",
					Name:        "has_red_flags",
					Type:        "bool",
					Description: "True if any guideline red flag is present.",
				},
				OnTrue:  Route{Terminal: "escalate"},
				OnFalse: Route{Terminal: "review"},
			},
		},
		Terminals: []TerminalSpec{
			{
				Key:          "escalate",
				Kind:         types.NodeAction,
				Action:       "Guideline red flags present: escalate to urgent evaluation / clinician-directed management per guideline context.",
				AlwaysReview: true,
				CiteRoles:    []types.FactKind{types.KindRedFlag},
			},
			{
				Key:                "review",
				Kind:               types.NodeAction,
				Action:             "No exclusions/contraindications and no red flags detected. Review the extracted guideline facts and apply clinically. This workflow is a structured summary, not autonomous medical decision-making.",
				AlwaysReview:       true,
				CiteReviewFallback: true,
				MaxCitations:       8,
			},
			{
				Key:   "not-applicable",
				Kind:  types.NodeEnd,
				Label: "Not applicable (outside population)",
			},
			{
				Key:   "excluded",
				Kind:  types.NodeEnd,
				Label: "Excluded / contraindicated",
			},
		},
	}
}
