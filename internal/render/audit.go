// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render projects a validated workflow into human-readable
// text. Renderers are pure: they never mutate the workflow and emit no
// side effects. Implements: prd007-rendering (R1, R2);
//
//	docs/ARCHITECTURE § Rendering.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

// maxAuditSnippets caps the citation snippets shown per node in the
// audit view. The full citation list survives in the persisted artifact.
const maxAuditSnippets = 12

func mdEscape(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// AuditMarkdown renders the full audit view of a validated workflow:
// every input, every node, and every citation with its source lines
// quoted, in deterministic node-id order (R1.1-R1.3).
func AuditMarkdown(wf *types.Workflow, idx *trace.Index) string {
	var md []string

	md = append(md,
		fmt.Sprintf("# Workflow Audit Preview — `%s`", wf.WorkflowID),
		"",
		fmt.Sprintf("- guideline_id: `%s`", wf.GuidelineID),
		fmt.Sprintf("- start_node_id: `%s`", wf.StartNodeID),
		fmt.Sprintf("- requires_human_review: `%t`", wf.RequiresHumanReview),
		"")

	if len(wf.Warnings) > 0 {
		md = append(md, "## Warnings", "")
		for _, w := range wf.Warnings {
			md = append(md, "- "+w)
		}
		md = append(md, "")
	}

	md = append(md, "## Inputs", "")
	for _, in := range wf.Inputs {
		md = append(md, fmt.Sprintf("- **%s** `%s` (%s): %s", in.ID, in.Name, in.Type, mdEscape(in.Description)))
	}
	md = append(md, "", "## Nodes", "")

	nodes := make([]types.Node, len(wf.Nodes))
	copy(nodes, wf.Nodes)
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		md = append(md, fmt.Sprintf("### `%s` (%s)", n.ID, n.Kind), "")

		switch n.Kind {
		case types.NodeDecision:
			md = append(md,
				fmt.Sprintf("- condition: `%s`", mdEscape(n.Condition)),
				fmt.Sprintf("- true_next: `%s`", n.TrueNext),
				fmt.Sprintf("- false_next: `%s`", n.FalseNext),
				"",
				renderCitations(idx, n.Citations))
		case types.NodeAction:
			md = append(md,
				fmt.Sprintf("- action: %s", mdEscape(n.Action)),
				fmt.Sprintf("- requires_human_review: `%t`", n.RequiresHumanReview),
				"",
				renderCitations(idx, n.Citations))
		case types.NodeEnd:
			md = append(md,
				fmt.Sprintf("- label: %s", mdEscape(n.Label)),
				"",
				renderCitations(idx, n.Citations))
		}
		md = append(md, "")
	}

	return strings.Join(md, "\n")
}

func renderCitations(idx *trace.Index, cits []types.Citation) string {
	if len(cits) == 0 {
		return "_No citations._"
	}

	out := []string{fmt.Sprintf("_Citations: %d_", len(cits)), ""}
	shown := cits
	if len(shown) > maxAuditSnippets {
		shown = shown[:maxAuditSnippets]
	}
	for i, c := range shown {
		out = append(out,
			fmt.Sprintf("**[%d]** `%s:%d-%d`", i+1, c.ChunkID, c.LineStart, c.LineEnd),
			"",
			"```text",
			idx.AuditSnippet(c),
			"```",
			"")
	}
	if len(cits) > maxAuditSnippets {
		out = append(out, fmt.Sprintf("_Showing first %d citations (deterministic cap). Full citations remain in the artifact._", maxAuditSnippets), "")
	}
	return strings.Join(out, "\n")
}
