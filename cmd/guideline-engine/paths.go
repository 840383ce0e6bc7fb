// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// Artifact layout under the working directory. Every stage reads its
// predecessor's file and writes its own; a failed stage writes nothing.
const (
	chunksDir    = "guidelines/chunks"
	rawFactsDir  = "facts/raw"
	normFactsDir = "facts/normalized"
	workflowsDir = "workflows"
	rendersDir   = "renders"
)

func chunksPath(guidelineID string) string {
	return filepath.Join(chunksDir, guidelineID+"-chunks.yaml")
}

func rawFactsPath(guidelineID string) string {
	return filepath.Join(rawFactsDir, guidelineID+"-facts.yaml")
}

func normFactsPath(guidelineID string) string {
	return filepath.Join(normFactsDir, guidelineID+"-facts.yaml")
}

func workflowPath(guidelineID string) string {
	return filepath.Join(workflowsDir, guidelineID+"-workflow.yaml")
}

// writeYAML marshals v and writes it atomically under dir, creating the
// directory if needed.
func writeYAML(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// readYAML reads and unmarshals path into v.
func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
