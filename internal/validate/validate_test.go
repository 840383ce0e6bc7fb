package validate

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdiddy/guideline-engine/internal/synthesize"
	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

func mkChunk(id string, start, end int) types.Chunk {
	var lines []types.LineRecord
	var text []string
	for n := start; n <= end; n++ {
		lines = append(lines, types.LineRecord{LineNo: n, Text: fmt.Sprintf("guideline line %d", n)})
		text = append(text, fmt.Sprintf("%d. guideline line %d", n, n))
	}
	return types.Chunk{ID: id, LineStart: start, LineEnd: end, Text: strings.Join(text, "\n"), Lines: lines}
}

func testIndex(t *testing.T) *trace.Index {
	t.Helper()
	idx, err := trace.Build([]types.Chunk{mkChunk("c0001", 1, 20)})
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

// testWorkflow builds a real synthesized workflow so validation runs
// against the shapes the pipeline actually produces.
func testWorkflow(t *testing.T) *types.Workflow {
	t.Helper()
	facts := []types.Fact{
		{
			ID:        "f0001",
			Kind:      types.KindPopulationCriterion,
			Polarity:  types.PolarityAsserts,
			Statement: "Adults aged 18 to 65.",
			Strength:  types.StrengthMust,
			Citations: []types.Citation{{ChunkID: "c0001", LineStart: 6, LineEnd: 6}},
		},
	}
	wf, _, err := synthesize.Workflow("htn", facts, synthesize.DefaultTemplate(), testIndex(t))
	if err != nil {
		t.Fatal(err)
	}
	return wf
}

func TestWorkflowValid(t *testing.T) {
	if err := Workflow(testWorkflow(t), testIndex(t)); err != nil {
		t.Fatal(err)
	}
}

// Validation is read-only: the workflow is byte-identical before and
// after, and a second run succeeds identically.
func TestWorkflowIdempotent(t *testing.T) {
	idx := testIndex(t)
	wf := testWorkflow(t)
	before := *wf
	beforeNodes := append([]types.Node(nil), wf.Nodes...)

	if err := Workflow(wf, idx); err != nil {
		t.Fatal(err)
	}
	if err := Workflow(wf, idx); err != nil {
		t.Fatal(err)
	}

	if diff := cmp.Diff(beforeNodes, wf.Nodes); diff != "" {
		t.Errorf("nodes mutated by validation (-want +got):\n%s", diff)
	}
	if wf.StartNodeID != before.StartNodeID || wf.WorkflowID != before.WorkflowID {
		t.Error("workflow header mutated by validation")
	}
}

func TestWorkflowStructuralFailures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(wf *types.Workflow)
		err    error
	}{
		{
			name:   "missing start node",
			mutate: func(wf *types.Workflow) { wf.StartNodeID = "d9999" },
			err:    ErrMissingStartNode,
		},
		{
			name: "start node is not a decision",
			mutate: func(wf *types.Workflow) {
				wf.StartNodeID = "e0001"
			},
			err: ErrMissingStartNode,
		},
		{
			name: "duplicate node id",
			mutate: func(wf *types.Workflow) {
				wf.Nodes = append(wf.Nodes, wf.Nodes[len(wf.Nodes)-1])
			},
			err: ErrDuplicateNode,
		},
		{
			name: "edge target does not exist",
			mutate: func(wf *types.Workflow) {
				wf.Nodes[0].TrueNext = "d9999"
			},
			err: ErrBadEdge,
		},
		{
			name: "self-referencing decision",
			mutate: func(wf *types.Workflow) {
				wf.Nodes[0].TrueNext = wf.Nodes[0].ID
			},
			err: ErrCyclicWorkflow,
		},
		{
			name: "two-node cycle",
			mutate: func(wf *types.Workflow) {
				// d0001 <-> d0002, shadowing every terminal so the
				// cycle check fires before reachability would.
				wf.Nodes = wf.Nodes[:2]
				wf.Nodes[0].TrueNext = "d0002"
				wf.Nodes[0].FalseNext = "d0002"
				wf.Nodes[1].TrueNext = "d0001"
				wf.Nodes[1].FalseNext = "d0001"
			},
			err: ErrCyclicWorkflow,
		},
		{
			name: "orphan node",
			mutate: func(wf *types.Workflow) {
				wf.Nodes = append(wf.Nodes, types.Node{
					ID:    "e0099",
					Kind:  types.NodeEnd,
					Label: "Unwired outcome",
				})
			},
			err: ErrOrphanNode,
		},
		{
			name: "decision without condition",
			mutate: func(wf *types.Workflow) {
				wf.Nodes[0].Condition = ""
			},
			err: ErrMalformedNode,
		},
		{
			name: "end node with decision fields",
			mutate: func(wf *types.Workflow) {
				for i, n := range wf.Nodes {
					if n.Kind == types.NodeEnd {
						wf.Nodes[i].TrueNext = "d0001"
						return
					}
				}
			},
			err: ErrMalformedNode,
		},
		{
			name: "unknown node kind",
			mutate: func(wf *types.Workflow) {
				wf.Nodes[1].Kind = "branch"
				wf.Nodes[1].Condition = ""
			},
			err: ErrMalformedNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wf := testWorkflow(t)
			tt.mutate(wf)
			err := Workflow(wf, testIndex(t))
			if !errors.Is(err, tt.err) {
				t.Fatalf("got %v, want %v", err, tt.err)
			}
		})
	}
}

// A stored workflow whose citation points past the end of its chunk is
// rejected, and the error chain reaches the trace sentinel so callers
// can tell a bounds failure from a missing chunk.
func TestWorkflowDanglingCitation(t *testing.T) {
	idx := testIndex(t)

	wf := testWorkflow(t)
	wf.Nodes[0].Citations = []types.Citation{{ChunkID: "c0001", LineStart: 9999, LineEnd: 9999}}
	err := Workflow(wf, idx)
	if !errors.Is(err, ErrDanglingCitation) {
		t.Fatalf("got %v, want ErrDanglingCitation", err)
	}
	if !errors.Is(err, trace.ErrLineRangeOutOfBounds) {
		t.Errorf("error chain should carry the trace bounds error, got %v", err)
	}
	if !strings.Contains(err.Error(), "d0001") {
		t.Errorf("error should name the offending node, got %v", err)
	}

	wf = testWorkflow(t)
	wf.Nodes[0].Citations = []types.Citation{{ChunkID: "c9999", LineStart: 1, LineEnd: 1}}
	err = Workflow(wf, idx)
	if !errors.Is(err, ErrDanglingCitation) {
		t.Fatalf("got %v, want ErrDanglingCitation", err)
	}
	if !errors.Is(err, trace.ErrUnknownChunk) {
		t.Errorf("error chain should carry the unknown-chunk error, got %v", err)
	}
}

func TestWorkflowMultipleRoots(t *testing.T) {
	wf := testWorkflow(t)
	// A second decision chain nobody routes to: reachable check fires
	// first unless the extra chain points into the main graph.
	wf.Nodes = append(wf.Nodes, types.Node{
		ID:        "d0099",
		Kind:      types.NodeDecision,
		Condition: "in001 == true",
		TrueNext:  "e0001",
		FalseNext: "e0002",
	})
	err := Workflow(wf, testIndex(t))
	if !errors.Is(err, ErrOrphanNode) {
		t.Fatalf("got %v, want ErrOrphanNode", err)
	}
}
