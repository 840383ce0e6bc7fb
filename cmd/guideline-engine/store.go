// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/guideline-engine/internal/store"
	"github.com/pdiddy/guideline-engine/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store",
	Short: "Manage the audit store (index, retrieve, export)",
	Long: `Store manages a local SQLite audit database built from pipeline
artifacts. Use subcommands to index a guideline's facts and workflow,
query facts with full-text search, or export.`,
}

func storeConfig(cmd *cobra.Command) types.StoreConfig {
	dir, _ := cmd.Flags().GetString("store-dir")
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.StoreConfig{StoreDir: dir, MaxResults: maxResults}
}

// --- index subcommand ---

var storeIndexCmd = &cobra.Command{
	Use:   "index <guideline-id>",
	Short: "Index a guideline's chunks, facts, and workflow",
	Long: `Index reads the pipeline artifacts for a guideline (chunk set,
normalized facts, and validated workflow if present) and ingests them
into the audit database.`,
	Args: cobra.ExactArgs(1),
	RunE: runStoreIndex,
}

func runStoreIndex(cmd *cobra.Command, args []string) error {
	guidelineID := args[0]
	ctx := context.Background()

	s, err := store.New(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	var chunkSet types.ChunkSet
	if err := readYAML(chunksPath(guidelineID), &chunkSet); err != nil {
		return err
	}
	if err := s.IngestChunks(ctx, guidelineID, chunkSet.Chunks); err != nil {
		return err
	}
	fmt.Printf("indexed %d chunks\n", len(chunkSet.Chunks))

	var factSet types.FactSet
	if err := readYAML(normFactsPath(guidelineID), &factSet); err != nil {
		return err
	}
	if err := s.IngestFacts(ctx, guidelineID, factSet.Facts); err != nil {
		return err
	}
	fmt.Printf("indexed %d facts\n", len(factSet.Facts))

	// The workflow is optional at index time: facts are queryable
	// before synthesis has run.
	var wf types.Workflow
	if err := readYAML(workflowPath(guidelineID), &wf); err == nil {
		if err := s.IngestWorkflow(ctx, &wf); err != nil {
			return err
		}
		fmt.Printf("indexed workflow %s\n", wf.WorkflowID)
	} else if !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: skipping workflow: %v\n", err)
	}

	return nil
}

// --- retrieve subcommand ---

var storeRetrieveCmd = &cobra.Command{
	Use:   "retrieve [query]",
	Short: "Query indexed facts with full-text search and filters",
	Long: `Retrieve searches indexed facts using FTS5 full-text search,
structured filters (kind, guideline, ambiguous-only), or a combination.

Use --trace with a fact ID to view the cited source lines.`,
	RunE: runStoreRetrieve,
}

func runStoreRetrieve(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := store.New(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	traceID, _ := cmd.Flags().GetString("trace")
	guidelineID, _ := cmd.Flags().GetString("guideline")

	// Trace mode: show source context for a specific fact.
	if traceID != "" {
		if guidelineID == "" {
			return fmt.Errorf("--trace requires --guideline")
		}
		text, err := s.Trace(ctx, guidelineID, traceID)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	}

	kind, _ := cmd.Flags().GetString("kind")
	ambiguousOnly, _ := cmd.Flags().GetBool("ambiguous")
	asJSON, _ := cmd.Flags().GetBool("json")

	opts := store.QueryOptions{
		Query:         strings.Join(args, " "),
		Kind:          types.FactKind(kind),
		GuidelineID:   guidelineID,
		AmbiguousOnly: ambiguousOnly,
	}

	results, err := s.Retrieve(ctx, opts)
	if err != nil {
		return err
	}

	if asJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	for _, r := range results {
		flag := " "
		if r.Ambiguous {
			flag = "!"
		}
		fmt.Printf("%s %s/%s [%s] %s\n", flag, r.GuidelineID, r.ID, r.Kind, r.Statement)
	}
	fmt.Printf("%d fact(s)\n", len(results))
	return nil
}

// --- export subcommand ---

var storeExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export indexed facts to YAML or JSON",
	RunE:  runStoreExport,
}

func runStoreExport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	s, err := store.New(storeConfig(cmd))
	if err != nil {
		return err
	}
	defer s.Close()

	format, _ := cmd.Flags().GetString("format")
	guidelineID, _ := cmd.Flags().GetString("guideline")
	opts := store.QueryOptions{GuidelineID: guidelineID}

	switch format {
	case "yaml":
		err = s.ExportYAML(ctx, opts)
	case "json":
		err = s.ExportJSON(ctx, opts)
	default:
		return fmt.Errorf("unknown format %q, want yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Printf("exported %s\n", format)
	return nil
}

func init() {
	storeCmd.PersistentFlags().String("store-dir", "store", "base directory for the audit store (contains index/)")
	storeCmd.PersistentFlags().Int("max-results", 20, "default maximum query results")

	storeRetrieveCmd.Flags().String("kind", "", "filter by fact kind")
	storeRetrieveCmd.Flags().String("guideline", "", "filter by guideline id")
	storeRetrieveCmd.Flags().Bool("ambiguous", false, "only facts flagged for human review")
	storeRetrieveCmd.Flags().Bool("json", false, "output JSON")
	storeRetrieveCmd.Flags().String("trace", "", "fact ID to trace back to source lines")

	storeExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	storeExportCmd.Flags().String("guideline", "", "filter by guideline id")

	storeCmd.AddCommand(storeIndexCmd)
	storeCmd.AddCommand(storeRetrieveCmd)
	storeCmd.AddCommand(storeExportCmd)
	rootCmd.AddCommand(storeCmd)
}
