// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package validate enforces the structural invariants of a synthesized
// workflow graph before any artifact is persisted or rendered. Every
// check is fatal on failure: the pipeline is fail-closed by policy and
// never emits a degraded workflow. Implements: prd005-validation (R1-R5);
//
//	docs/ARCHITECTURE § Validation.
package validate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var (
	// ErrMissingStartNode reports a start_node_id that is absent or not a decision.
	ErrMissingStartNode = errors.New("missing start node")

	// ErrDuplicateNode reports two nodes sharing one id.
	ErrDuplicateNode = errors.New("duplicate node id")

	// ErrBadEdge reports a decision edge whose target id does not exist.
	ErrBadEdge = errors.New("edge target does not exist")

	// ErrOrphanNode reports nodes unreachable from the start node.
	ErrOrphanNode = errors.New("orphan node")

	// ErrCyclicWorkflow reports a decision node revisited on one path.
	ErrCyclicWorkflow = errors.New("cyclic workflow")

	// ErrDanglingCitation reports a node citation that does not resolve
	// against the citation index.
	ErrDanglingCitation = errors.New("dangling citation")

	// ErrMalformedNode reports a node whose fields do not match its kind.
	ErrMalformedNode = errors.New("malformed node")
)

// Workflow checks every structural invariant of the graph. It is
// read-only and idempotent: validating an already-valid workflow twice
// is a no-op success. On failure the returned error names the offending
// node, edge, or citation so a human can trace the defect to the exact
// source fact or line range (R5.2).
func Workflow(wf *types.Workflow, idx *trace.Index) error {
	nodeMap := make(map[string]types.Node, len(wf.Nodes))
	for _, n := range wf.Nodes {
		if _, ok := nodeMap[n.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		nodeMap[n.ID] = n
	}

	start, ok := nodeMap[wf.StartNodeID]
	if !ok {
		return fmt.Errorf("%w: start_node_id %q not found", ErrMissingStartNode, wf.StartNodeID)
	}
	if start.Kind != types.NodeDecision {
		return fmt.Errorf("%w: start node %s is a %s, want decision", ErrMissingStartNode, start.ID, start.Kind)
	}

	if err := checkShapes(wf.Nodes, nodeMap); err != nil {
		return err
	}
	if err := checkReachability(wf, nodeMap); err != nil {
		return err
	}
	if err := checkAcyclic(wf.StartNodeID, nodeMap); err != nil {
		return err
	}
	if err := checkSingleStart(wf, nodeMap); err != nil {
		return err
	}
	return checkCitations(wf.Nodes, idx)
}

// checkShapes verifies per-kind field shape and edge-target existence.
func checkShapes(nodes []types.Node, nodeMap map[string]types.Node) error {
	for _, n := range nodes {
		switch n.Kind {
		case types.NodeDecision:
			if n.Condition == "" {
				return fmt.Errorf("%w: decision %s has no condition", ErrMalformedNode, n.ID)
			}
			for _, next := range []string{n.TrueNext, n.FalseNext} {
				if next == "" {
					return fmt.Errorf("%w: decision %s has an unwired branch", ErrMalformedNode, n.ID)
				}
				if next == n.ID {
					return fmt.Errorf("%w: decision %s references itself", ErrCyclicWorkflow, n.ID)
				}
				if _, ok := nodeMap[next]; !ok {
					return fmt.Errorf("%w: %s -> %s", ErrBadEdge, n.ID, next)
				}
			}
		case types.NodeAction, types.NodeEnd:
			if n.TrueNext != "" || n.FalseNext != "" || n.Condition != "" {
				return fmt.Errorf("%w: %s node %s carries decision fields", ErrMalformedNode, n.Kind, n.ID)
			}
		default:
			return fmt.Errorf("%w: node %s has unknown kind %q", ErrMalformedNode, n.ID, n.Kind)
		}
	}
	return nil
}

// checkReachability walks breadth-first from the start node; any node
// not visited fails validation (R2.1). Action and end nodes are
// required to sit on at least one path, which BFS covers implicitly.
func checkReachability(wf *types.Workflow, nodeMap map[string]types.Node) error {
	reachable := make(map[string]bool, len(nodeMap))
	queue := []string{wf.StartNodeID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if reachable[cur] {
			continue
		}
		reachable[cur] = true
		if n := nodeMap[cur]; n.Kind == types.NodeDecision {
			queue = append(queue, n.TrueNext, n.FalseNext)
		}
	}

	var orphans []string
	for id := range nodeMap {
		if !reachable[id] {
			orphans = append(orphans, id)
		}
	}
	if len(orphans) > 0 {
		sort.Strings(orphans)
		return fmt.Errorf("%w: unreachable from %s: %v", ErrOrphanNode, wf.StartNodeID, orphans)
	}
	return nil
}

// checkAcyclic walks depth-first with a path-local visited set; seeing
// a decision twice on one path is a cycle (R3.1).
func checkAcyclic(startID string, nodeMap map[string]types.Node) error {
	onPath := make(map[string]bool)

	var walk func(id string) error
	walk = func(id string) error {
		if onPath[id] {
			return fmt.Errorf("%w: %s revisited on the same path", ErrCyclicWorkflow, id)
		}
		n := nodeMap[id]
		if n.Kind != types.NodeDecision {
			return nil
		}
		onPath[id] = true
		defer delete(onPath, id)

		if err := walk(n.TrueNext); err != nil {
			return err
		}
		return walk(n.FalseNext)
	}

	return walk(startID)
}

// checkSingleStart verifies that the designated start is the only node
// without an incoming edge (R1.3).
func checkSingleStart(wf *types.Workflow, nodeMap map[string]types.Node) error {
	incoming := make(map[string]int, len(nodeMap))
	for _, n := range nodeMap {
		if n.Kind == types.NodeDecision {
			incoming[n.TrueNext]++
			incoming[n.FalseNext]++
		}
	}

	var roots []string
	for id := range nodeMap {
		if incoming[id] == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)

	switch {
	case len(roots) == 0:
		return fmt.Errorf("%w: every node has an incoming edge; no designated entry", ErrMissingStartNode)
	case len(roots) > 1:
		return fmt.Errorf("%w: multiple entry nodes %v, want only %s", ErrOrphanNode, roots, wf.StartNodeID)
	case roots[0] != wf.StartNodeID:
		return fmt.Errorf("%w: entry node %s is not start_node_id %s", ErrMissingStartNode, roots[0], wf.StartNodeID)
	}
	return nil
}

// checkCitations resolves every citation on every node against the
// citation index (R4.1).
func checkCitations(nodes []types.Node, idx *trace.Index) error {
	for _, n := range nodes {
		for _, c := range n.Citations {
			if _, err := idx.Resolve(c); err != nil {
				return fmt.Errorf("%w: node %s cites %s:%d-%d: %w",
					ErrDanglingCitation, n.ID, c.ChunkID, c.LineStart, c.LineEnd, err)
			}
		}
	}
	return nil
}
