// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

const (
	summaryMaxSnippetLines = 6
	summaryMaxSnippetChars = 320
	summaryMaxCitations    = 3
)

var condRE = regexp.MustCompile(`^\s*(in\d+)\s*==\s*(true|false)\s*$`)

// gateTitle maps an input's semantic name to a clinician-facing section
// title.
func gateTitle(inputName string, fallbackIdx int) string {
	name := strings.ToLower(inputName)
	switch {
	case strings.Contains(name, "population") || strings.Contains(name, "eligible"):
		return "Eligibility"
	case strings.Contains(name, "exclusion") || strings.Contains(name, "contra"):
		return "Exclusions / Contraindications"
	case strings.Contains(name, "red") || strings.Contains(name, "flag") || strings.Contains(name, "urgent"):
		return "Red Flags / Escalation"
	}
	return fmt.Sprintf("Gate %d", fallbackIdx)
}

// ClinicalSummary renders a compact clinician-facing walkthrough of the
// decision chain: one section per gate in path order, each describing
// the yes/no outcomes with a few supporting source snippets (R2.1-R2.3).
// Pure projection; assumes the workflow already passed validation.
func ClinicalSummary(wf *types.Workflow, idx *trace.Index) string {
	nodeMap := wf.NodeMap()
	inputName := make(map[string]string, len(wf.Inputs))
	for _, in := range wf.Inputs {
		inputName[in.ID] = in.Name
	}

	var md []string
	md = append(md,
		fmt.Sprintf("# Clinical Summary — `%s`", wf.GuidelineID),
		"",
		"This is a structured summary of the guideline decision flow, not autonomous medical decision-making. All terminal actions require clinician review.",
		"")

	// Walk the decision chain from the start node. Validation has
	// already guaranteed the chain is finite and acyclic.
	gateIdx := 0
	for id := wf.StartNodeID; ; {
		n, ok := nodeMap[id]
		if !ok || n.Kind != types.NodeDecision {
			break
		}
		gateIdx++

		title := fmt.Sprintf("Gate %d", gateIdx)
		if m := condRE.FindStringSubmatch(n.Condition); m != nil {
			title = gateTitle(inputName[m[1]], gateIdx)
		}

		md = append(md, fmt.Sprintf("## %d. %s", gateIdx, title), "")
		md = append(md, fmt.Sprintf("- **If yes:** %s", describeNext(nodeMap, n.TrueNext)))
		md = append(md, fmt.Sprintf("- **If no:** %s", describeNext(nodeMap, n.FalseNext)))

		if len(n.Citations) > 0 {
			md = append(md, "", "Supporting text:")
			shown := n.Citations
			if len(shown) > summaryMaxCitations {
				shown = shown[:summaryMaxCitations]
			}
			for _, c := range shown {
				md = append(md, fmt.Sprintf("> `%s:%d-%d` %s", c.ChunkID, c.LineStart, c.LineEnd, snippet(idx, c)))
			}
		}
		md = append(md, "")

		// Follow whichever branch continues the chain.
		next := ""
		if t, ok := nodeMap[n.TrueNext]; ok && t.Kind == types.NodeDecision {
			next = n.TrueNext
		} else if f, ok := nodeMap[n.FalseNext]; ok && f.Kind == types.NodeDecision {
			next = n.FalseNext
		}
		if next == "" {
			break
		}
		id = next
	}

	return strings.Join(md, "\n")
}

func describeNext(nodeMap map[string]types.Node, id string) string {
	n, ok := nodeMap[id]
	if !ok {
		return "Continue."
	}
	switch n.Kind {
	case types.NodeDecision:
		return "Continue to the next step."
	case types.NodeAction:
		if n.RequiresHumanReview {
			return mdEscape(n.Action) + " _(requires human review)_"
		}
		return mdEscape(n.Action)
	case types.NodeEnd:
		return mdEscape(n.Label)
	}
	return "Continue."
}

// snippet renders a compact one-line excerpt of the cited source text.
func snippet(idx *trace.Index, c types.Citation) string {
	end := c.LineEnd
	if end > c.LineStart+summaryMaxSnippetLines-1 {
		end = c.LineStart + summaryMaxSnippetLines - 1
	}

	var parts []string
	for n := c.LineStart; n <= end; n++ {
		if t, ok := idx.LineText(n); ok && strings.TrimSpace(t) != "" {
			parts = append(parts, strings.TrimSpace(t))
		}
	}
	s := strings.Join(parts, " ")
	if utf8.RuneCountInString(s) > summaryMaxSnippetChars {
		// Truncate on a rune boundary; the source text is bilingual and
		// byte slicing could split an accented character.
		r := []rune(s)
		s = strings.TrimSpace(string(r[:summaryMaxSnippetChars-1])) + "…"
	}
	return s
}
