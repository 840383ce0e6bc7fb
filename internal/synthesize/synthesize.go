// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package synthesize deterministically builds the decision graph from
// normalized facts: a fixed template shape with fact-driven labels,
// citations, and review flags. Implements: prd004-synthesis (R1-R5);
//
//	docs/ARCHITECTURE § Synthesis.
package synthesize

import (
	"fmt"

	"github.com/pdiddy/guideline-engine/internal/normalize"
	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

// Workflow synthesizes the decision graph for one guideline from its
// normalized facts. It is a pure function of (template, facts, index):
// no randomness, no external calls, and no partial results on error.
// Two runs over identical inputs produce byte-identical workflows,
// node ids included (R5.1).
//
// Node ids are assigned in a fixed order: decisions in template order,
// then action terminals, then end terminals, each in template
// declaration order.
func Workflow(guidelineID string, facts []types.Fact, tmpl Template, idx *trace.Index) (*types.Workflow, []string, error) {
	if err := tmpl.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid template: %w", err)
	}

	byKind := make(map[types.FactKind][]types.Fact)
	for _, f := range facts {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}

	// Pre-assign every node id so routes can be wired in one pass.
	gateID := make([]string, len(tmpl.Gates))
	for i := range tmpl.Gates {
		gateID[i] = fmt.Sprintf("d%04d", i+1)
	}
	termID := make(map[string]string, len(tmpl.Terminals))
	nActions, nEnds := 0, 0
	for _, term := range tmpl.Terminals {
		switch term.Kind {
		case types.NodeAction:
			nActions++
			termID[term.Key] = fmt.Sprintf("a%04d", nActions)
		case types.NodeEnd:
			nEnds++
			termID[term.Key] = fmt.Sprintf("e%04d", nEnds)
		}
	}

	target := func(i int, r Route) string {
		if r.NextGate {
			return gateID[i+1]
		}
		return termID[r.Terminal]
	}

	var warnings []string
	var nodes []types.Node
	inputs := make([]types.Input, 0, len(tmpl.Gates))

	for i, g := range tmpl.Gates {
		inputs = append(inputs, g.Input)

		gateFacts := factsForRoles(byKind, g.Roles)
		if len(gateFacts) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"synthesize: template gate with no fact-derived criteria: %s (%s)", g.Name, gateID[i]))
		}

		nodes = append(nodes, types.Node{
			ID:        gateID[i],
			Kind:      types.NodeDecision,
			Condition: fmt.Sprintf("%s == true", g.Input.ID),
			TrueNext:  target(i, g.OnTrue),
			FalseNext: target(i, g.OnFalse),
			Citations: citationsOf(gateFacts),
		})
	}

	for _, term := range tmpl.Terminals {
		if term.Kind != types.NodeAction {
			continue
		}
		termFacts := terminalFacts(term, facts, byKind)
		cits := citationsOf(termFacts)
		if term.MaxCitations > 0 && len(cits) > term.MaxCitations {
			cits = cits[:term.MaxCitations]
		}
		nodes = append(nodes, types.Node{
			ID:                  termID[term.Key],
			Kind:                types.NodeAction,
			Action:              term.Action,
			RequiresHumanReview: term.AlwaysReview || anyAmbiguous(termFacts),
			Citations:           cits,
		})
	}

	for _, term := range tmpl.Terminals {
		if term.Kind != types.NodeEnd {
			continue
		}
		nodes = append(nodes, types.Node{
			ID:    termID[term.Key],
			Kind:  types.NodeEnd,
			Label: term.Label,
		})
	}

	wf := &types.Workflow{
		WorkflowID:  guidelineID + "__v1",
		GuidelineID: guidelineID,
		Inputs:      inputs,
		Nodes:       nodes,
		StartNodeID: gateID[0],
		// The template family always terminates in clinician-directed
		// actions, so the workflow-level flag is unconditionally true.
		RequiresHumanReview: true,
		Warnings:            warnings,
		Meta: map[string]int{
			"num_facts":           len(facts),
			"num_population":      len(byKind[types.KindPopulationCriterion]),
			"num_excl_contra":     len(byKind[types.KindExclusion]) + len(byKind[types.KindContraindication]),
			"num_red_flag":        len(byKind[types.KindRedFlag]),
			"num_ambiguous_facts": countAmbiguous(facts),
		},
	}

	// Fail-closed: a workflow that cannot resolve its own citations is
	// never handed to the caller, partial or otherwise.
	if err := idx.ValidateAll(wf.AllCitations()); err != nil {
		return nil, nil, fmt.Errorf("synthesized workflow has unresolvable citation: %w", err)
	}

	return wf, warnings, nil
}

// factsForRoles gathers facts matching any of the given kinds,
// preserving overall fact order so citation unions stay stable.
func factsForRoles(byKind map[types.FactKind][]types.Fact, roles []types.FactKind) []types.Fact {
	var out []types.Fact
	for _, role := range roles {
		out = append(out, byKind[role]...)
	}
	return out
}

// terminalFacts selects the facts contributing to a terminal slot.
func terminalFacts(term TerminalSpec, all []types.Fact, byKind map[types.FactKind][]types.Fact) []types.Fact {
	if term.CiteReviewFallback {
		var ambiguous []types.Fact
		for _, f := range all {
			if f.Ambiguous {
				ambiguous = append(ambiguous, f)
			}
		}
		if len(ambiguous) > 0 {
			return ambiguous
		}
		return all
	}
	return factsForRoles(byKind, term.CiteRoles)
}

// citationsOf unions the citation sets of the given facts in
// first-occurrence order (R3.2).
func citationsOf(facts []types.Fact) []types.Citation {
	lists := make([][]types.Citation, len(facts))
	for i, f := range facts {
		lists[i] = f.Citations
	}
	return normalize.MergeCitations(lists...)
}

func anyAmbiguous(facts []types.Fact) bool {
	for _, f := range facts {
		if f.Ambiguous {
			return true
		}
	}
	return false
}

func countAmbiguous(facts []types.Fact) int {
	n := 0
	for _, f := range facts {
		if f.Ambiguous {
			n++
		}
	}
	return n
}
