// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/ingest"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <guideline.txt>",
	Short: "Parse and chunk a line-numbered guideline",
	Long: `Ingest parses a guideline text file whose lines carry explicit line
numbers, verifies the numbering is contiguous, and chunks the lines into
deterministic, citable blocks. The chunk set is the citation ground
truth for every later stage.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	guidelineID, _ := cmd.Flags().GetString("guideline-id")
	maxLines, _ := cmd.Flags().GetInt("max-lines")
	maxChars, _ := cmd.Flags().GetInt("max-chars")

	source := args[0]
	if guidelineID == "" {
		guidelineID = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	records, err := ingest.ParseGuidelineLines(source)
	if err != nil {
		return err
	}

	chunks, err := ingest.ChunkLines(records, types.ChunkingConfig{
		MaxLinesPerChunk: maxLines,
		MaxCharsPerChunk: maxChars,
	})
	if err != nil {
		return err
	}

	out := chunksPath(guidelineID)
	if err := writeYAML(out, types.ChunkSet{GuidelineID: guidelineID, Chunks: chunks}); err != nil {
		return err
	}

	fmt.Printf("ingested %s: %d lines, %d chunks -> %s\n", guidelineID, len(records), len(chunks), out)
	return nil
}

func init() {
	ingestCmd.Flags().String("guideline-id", "", "guideline identifier (default: source file basename)")
	ingestCmd.Flags().Int("max-lines", 20, "hard limit on lines per chunk")
	ingestCmd.Flags().Int("max-chars", 1200, "soft limit on characters per chunk")

	rootCmd.AddCommand(ingestCmd)
}
