// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/synthesize"
	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/internal/validate"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <guideline-id>",
	Short: "Build and validate the decision graph from normalized facts",
	Long: `Synthesize deterministically builds the decision graph from normalized
facts using the fixed gate template, then validates every structural
invariant: reachability, acyclicity, citation integrity, and a single
designated start. Validation is fail-closed: on any violation no
workflow artifact is written.`,
	Args: cobra.ExactArgs(1),
	RunE: runSynthesize,
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	guidelineID := args[0]

	var chunkSet types.ChunkSet
	if err := readYAML(chunksPath(guidelineID), &chunkSet); err != nil {
		return err
	}
	var factSet types.FactSet
	if err := readYAML(normFactsPath(guidelineID), &factSet); err != nil {
		return err
	}

	idx, err := trace.Build(chunkSet.Chunks)
	if err != nil {
		return err
	}

	wf, warnings, err := synthesize.Workflow(guidelineID, factSet.Facts, synthesize.DefaultTemplate(), idx)
	if err != nil {
		return err
	}

	if err := validate.Workflow(wf, idx); err != nil {
		return fmt.Errorf("workflow failed validation, no artifact written: %w", err)
	}

	out := workflowPath(guidelineID)
	if err := writeYAML(out, wf); err != nil {
		return err
	}

	for _, w := range warnings {
		fmt.Println(w)
	}
	fmt.Printf("synthesized workflow %s: %d nodes, start %s -> %s\n", wf.WorkflowID, len(wf.Nodes), wf.StartNodeID, out)
	return nil
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)
}
