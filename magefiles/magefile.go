//go:build mage

// Package main contains Mage build targets for guideline-engine developer tooling.
// Implements: docs/ARCHITECTURE § Developer Tooling.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// projectDirs lists the working directories the pipeline expects.
var projectDirs = []string{
	"guidelines/source",
	"guidelines/chunks",
	"facts/raw",
	"facts/normalized",
	"workflows",
	"renders",
	"store/index",
}

// Init creates the project directory structure for the pipeline.
func Init() error {
	for _, dir := range projectDirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Println("  ", dir)
	}
	fmt.Println("Project directories initialized.")
	return nil
}

const (
	binDir  = "bin"
	binName = "guideline-engine"
	cmdPkg  = "./cmd/guideline-engine"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	cmd := exec.Command("go", "build", "-o", out, cmdPkg)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the full test suite.
func Test() error {
	cmd := exec.Command("go", "test", "./...")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("go test: %w", err)
	}
	return nil
}

// Pipeline runs the full distillation pipeline for one guideline source
// file using a previously built binary: ingest, extract, normalize,
// synthesize, render, and index.
func Pipeline(source string) error {
	bin := filepath.Join(binDir, binName)
	if _, err := os.Stat(bin); err != nil {
		return fmt.Errorf("binary not found, run mage build first: %w", err)
	}

	id := filepath.Base(source)
	id = id[:len(id)-len(filepath.Ext(id))]

	steps := [][]string{
		{"ingest", source},
		{"extract", id},
		{"normalize", id},
		{"synthesize", id},
		{"render", id, "--view", "audit"},
		{"render", id, "--view", "summary"},
		{"store", "index", id},
	}

	for _, step := range steps {
		fmt.Printf("==> guideline-engine %v\n", step)
		cmd := exec.Command(bin, step...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("step %v: %w", step, err)
		}
	}
	return nil
}
