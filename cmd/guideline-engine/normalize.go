// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/extract"
	"github.com/pdiddy/guideline-engine/internal/normalize"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <guideline-id>",
	Short: "Canonicalize and deduplicate extracted facts",
	Long: `Normalize canonicalizes raw extracted facts into the closed fact-kind
enumeration, merges duplicates by canonical fingerprint (citation sets
are unioned, never overwritten), and flags ambiguous modal language for
human review. An unrecognized fact kind aborts the run.`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	guidelineID := args[0]
	minChars, _ := cmd.Flags().GetInt("min-chars")

	var raw extract.Result
	if err := readYAML(rawFactsPath(guidelineID), &raw); err != nil {
		return err
	}

	facts, warnings, err := normalize.Facts(raw.Facts, types.NormalizeConfig{MinChars: minChars})
	if err != nil {
		return err
	}

	set := types.FactSet{
		GuidelineID: guidelineID,
		ModelID:     raw.ModelID,
		Facts:       facts,
		Warnings:    append(append([]string{}, raw.Warnings...), warnings...),
	}

	out := normFactsPath(guidelineID)
	if err := writeYAML(out, set); err != nil {
		return err
	}

	for _, w := range warnings {
		fmt.Println(w)
	}
	fmt.Printf("normalized %d raw facts into %d -> %s\n", len(raw.Facts), len(facts), out)
	return nil
}

func init() {
	normalizeCmd.Flags().Int("min-chars", 10, "minimum statement length; shorter statements are dropped as junk")

	rootCmd.AddCommand(normalizeCmd)
}
