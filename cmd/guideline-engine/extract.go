// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/extract"
	"github.com/pdiddy/guideline-engine/internal/secrets"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var extractCmd = &cobra.Command{
	Use:   "extract <guideline-id>",
	Short: "Extract cited facts from ingested chunks via the AI backend",
	Long: `Extract reads the chunk set produced by ingest and asks the AI backend
for cited factual statements, chunk by chunk. Citations are forced into
the bounds of the chunk they came from; a fact with no valid citation
is dropped with a warning.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	guidelineID := args[0]
	model, _ := cmd.Flags().GetString("model")
	endpoint, _ := cmd.Flags().GetString("endpoint")
	apiKey, _ := cmd.Flags().GetString("api-key")
	maxRetries, _ := cmd.Flags().GetInt("max-retries")

	var chunkSet types.ChunkSet
	if err := readYAML(chunksPath(guidelineID), &chunkSet); err != nil {
		return err
	}

	cfg := types.ExtractionConfig{
		AIConfig: types.AIConfig{
			Model:      model,
			APIKey:     secrets.Default(loadedSecrets, "anthropic-api-key", apiKey),
			Endpoint:   endpoint,
			MaxRetries: maxRetries,
		},
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("no API key: pass --api-key or add .secrets/anthropic-api-key")
	}

	backend := &extract.ClaudeBackend{
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Endpoint: cfg.Endpoint,
	}

	result, err := extract.All(context.Background(), backend, guidelineID, chunkSet.Chunks, cfg, os.Stdout)
	if err != nil {
		return err
	}

	out := rawFactsPath(guidelineID)
	if err := writeYAML(out, result); err != nil {
		return err
	}

	fmt.Printf("extracted %d raw facts (%d warnings) -> %s\n", len(result.Facts), len(result.Warnings), out)
	return nil
}

func init() {
	extractCmd.Flags().String("model", "claude-sonnet-4-5-20250929", "AI model identifier for extraction")
	extractCmd.Flags().String("endpoint", "", "override API endpoint (e.g. a local inference server)")
	extractCmd.Flags().String("api-key", "", "API key (default: .secrets/anthropic-api-key)")
	extractCmd.Flags().Int("max-retries", 3, "retry attempts per chunk")

	rootCmd.AddCommand(extractCmd)
}
