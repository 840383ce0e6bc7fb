// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Input is a boolean-typed entry point to the decision graph. The input
// set is fixed by the synthesis template, not discovered from facts.
// Per prd004-synthesis R1.1-R1.2.
type Input struct {
	// ID is the stable input identifier (e.g. "in001").
	ID string `json:"input_id" yaml:"input_id"`

	// Name is the semantic name (e.g. "meets_population").
	Name string `json:"name" yaml:"name"`

	// Type is the value type. Only "bool" is produced by the current
	// template family.
	Type string `json:"type" yaml:"type"`

	// Description explains the input to a human operator.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// NodeKind discriminates the node union: decision, action, or end.
type NodeKind string

const (
	NodeDecision NodeKind = "decision"
	NodeAction   NodeKind = "action"
	NodeEnd      NodeKind = "end"
)

// Node is one element of the decision graph. The Kind field selects
// which of the remaining fields are meaningful: decisions carry a
// condition and two outgoing edges, actions carry instruction text and
// a review flag, ends carry only a label. A single kind-tagged struct
// keeps the persisted shape round-trippable through YAML and JSON
// without custom marshalers. Per prd004-synthesis R2, prd005-validation R1.
type Node struct {
	// ID is the stable node identifier, assigned once at synthesis time
	// and never reused or mutated (d0001, a0001, e0001, ...).
	ID string `json:"node_id" yaml:"node_id"`

	// Kind is "decision", "action", or "end".
	Kind NodeKind `json:"kind" yaml:"kind"`

	// Condition is a boolean expression over exactly one input
	// (e.g. "in001 == true"). Decision nodes only.
	Condition string `json:"condition,omitempty" yaml:"condition,omitempty"`

	// TrueNext is the node followed when the condition holds. Decision
	// nodes only; always a valid node id in a validated workflow.
	TrueNext string `json:"true_next,omitempty" yaml:"true_next,omitempty"`

	// FalseNext is the node followed when the condition fails. Decision
	// nodes only.
	FalseNext string `json:"false_next,omitempty" yaml:"false_next,omitempty"`

	// Action is the rendered instruction text. Action nodes only.
	Action string `json:"action,omitempty" yaml:"action,omitempty"`

	// RequiresHumanReview marks actions informed by ambiguous facts or
	// template slots that always need clinician judgment. The flag is
	// monotonic: once true from any source it is never cleared.
	RequiresHumanReview bool `json:"requires_human_review,omitempty" yaml:"requires_human_review,omitempty"`

	// Label is the terminal label. End nodes only.
	Label string `json:"label,omitempty" yaml:"label,omitempty"`

	// Citations is the provenance set attached to this node, a stable
	// first-occurrence union across all contributing facts.
	Citations []Citation `json:"citations,omitempty" yaml:"citations,omitempty"`
}

// Workflow is the decision graph synthesized from a guideline's facts.
// Once validated it is immutable and may be shared read-only across
// renderers without synchronization. Per prd004-synthesis R3, R4.
type Workflow struct {
	// WorkflowID identifies this synthesis artifact (e.g. "htn2020__v1").
	WorkflowID string `json:"workflow_id" yaml:"workflow_id"`

	// GuidelineID identifies the source guideline document.
	GuidelineID string `json:"guideline_id" yaml:"guideline_id"`

	// Inputs is the ordered, template-fixed input set.
	Inputs []Input `json:"inputs" yaml:"inputs"`

	// Nodes holds every graph node in deterministic order: decisions in
	// template order, then actions, then ends.
	Nodes []Node `json:"nodes" yaml:"nodes"`

	// StartNodeID is the designated entry decision node.
	StartNodeID string `json:"start_node_id" yaml:"start_node_id"`

	// RequiresHumanReview is the workflow-level review flag; true for
	// the current template family, which always terminates in
	// clinician-directed actions.
	RequiresHumanReview bool `json:"requires_human_review" yaml:"requires_human_review"`

	// Warnings lists non-fatal synthesis diagnostics (e.g. a template
	// gate with no fact-derived criteria). Never blocks success.
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`

	// Meta carries provenance counters for reproducibility audits.
	Meta map[string]int `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// NodeMap returns an id-to-node lookup over the flat node list. The map
// is rebuilt on each call; callers validate duplicates separately.
func (w *Workflow) NodeMap() map[string]Node {
	m := make(map[string]Node, len(w.Nodes))
	for _, n := range w.Nodes {
		m[n.ID] = n
	}
	return m
}

// AllCitations returns every citation attached to any node, in node
// order. Used for whole-graph citation integrity checks.
func (w *Workflow) AllCitations() []Citation {
	var out []Citation
	for _, n := range w.Nodes {
		out = append(out, n.Citations...)
	}
	return out
}
