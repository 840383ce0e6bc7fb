// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/render"
	"github.com/pdiddy/guideline-engine/internal/trace"
	"github.com/pdiddy/guideline-engine/internal/validate"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render <guideline-id>",
	Short: "Render a validated workflow as audit or clinical Markdown",
	Long: `Render projects a validated workflow into human-readable Markdown.
The audit view shows every node with its citations quoted from source;
the summary view is a compact clinician-facing walkthrough. The
workflow is re-validated before rendering; a workflow that no longer
validates is never rendered.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func runRender(cmd *cobra.Command, args []string) error {
	guidelineID := args[0]
	view, _ := cmd.Flags().GetString("view")
	stdout, _ := cmd.Flags().GetBool("stdout")

	var chunkSet types.ChunkSet
	if err := readYAML(chunksPath(guidelineID), &chunkSet); err != nil {
		return err
	}
	var wf types.Workflow
	if err := readYAML(workflowPath(guidelineID), &wf); err != nil {
		return err
	}

	idx, err := trace.Build(chunkSet.Chunks)
	if err != nil {
		return err
	}

	// Idempotent re-validation guards against hand-edited artifacts.
	if err := validate.Workflow(&wf, idx); err != nil {
		return fmt.Errorf("stored workflow failed validation, refusing to render: %w", err)
	}

	var text, suffix string
	switch view {
	case "audit":
		text, suffix = render.AuditMarkdown(&wf, idx), "audit"
	case "summary":
		text, suffix = render.ClinicalSummary(&wf, idx), "summary"
	default:
		return fmt.Errorf("unknown view %q, want audit or summary", view)
	}

	if stdout {
		fmt.Println(text)
		return nil
	}

	out := filepath.Join(rendersDir, fmt.Sprintf("%s-%s.md", guidelineID, suffix))
	if err := os.MkdirAll(rendersDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", rendersDir, err)
	}
	if err := os.WriteFile(out, []byte(text+"\n"), 0o644); err != nil {
		return err
	}
	fmt.Printf("rendered %s view -> %s\n", view, out)
	return nil
}

func init() {
	renderCmd.Flags().String("view", "audit", "view to render: audit or summary")
	renderCmd.Flags().Bool("stdout", false, "print to stdout instead of writing a file")

	rootCmd.AddCommand(renderCmd)
}
