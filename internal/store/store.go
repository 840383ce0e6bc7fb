// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists normalized facts, chunks, and validated
// workflows in a SQLite database with full-text search over fact
// statements, for audit queries across runs.
// Implements: prd006-audit-store (R1-R6);
//
//	docs/ARCHITECTURE § Audit Store.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/guideline-engine/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "guideline.db"
)

// Store manages the audit SQLite database.
type Store struct {
	db         *sql.DB
	storeDir   string
	maxResults int
}

// New opens or creates the audit database at storeDir/index/guideline.db,
// creating the schema if absent (R1.2, R1.3).
func New(cfg types.StoreConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.StoreDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		storeDir:   cfg.StoreDir,
		maxResults: maxResults,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			chunk_id TEXT NOT NULL,
			guideline_id TEXT NOT NULL,
			line_start INTEGER NOT NULL,
			line_end INTEGER NOT NULL,
			text TEXT NOT NULL,
			PRIMARY KEY (guideline_id, chunk_id)
		)`,
		`CREATE TABLE IF NOT EXISTS facts (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			fact_id TEXT NOT NULL,
			guideline_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			polarity TEXT NOT NULL,
			strength TEXT NOT NULL,
			statement TEXT NOT NULL,
			condition TEXT,
			ambiguous INTEGER NOT NULL,
			citations TEXT NOT NULL,
			UNIQUE (guideline_id, fact_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_guideline ON facts(guideline_id)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_kind ON facts(kind)`,
		`CREATE TABLE IF NOT EXISTS workflows (
			workflow_id TEXT PRIMARY KEY,
			guideline_id TEXT NOT NULL,
			start_node_id TEXT NOT NULL,
			requires_human_review INTEGER NOT NULL,
			node_count INTEGER NOT NULL,
			warnings TEXT,
			document TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='facts_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE facts_fts USING fts5(statement, content=facts, content_rowid=rowid)`,
			`CREATE TRIGGER facts_ai AFTER INSERT ON facts BEGIN
				INSERT INTO facts_fts(rowid, statement) VALUES (new.rowid, new.statement);
			END`,
			`CREATE TRIGGER facts_ad AFTER DELETE ON facts BEGIN
				INSERT INTO facts_fts(facts_fts, rowid, statement) VALUES('delete', old.rowid, old.statement);
			END`,
			`CREATE TRIGGER facts_au AFTER UPDATE ON facts BEGIN
				INSERT INTO facts_fts(facts_fts, rowid, statement) VALUES('delete', old.rowid, old.statement);
				INSERT INTO facts_fts(rowid, statement) VALUES (new.rowid, new.statement);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestChunks replaces the stored chunk table for one guideline (R2.1).
func (s *Store) IngestChunks(ctx context.Context, guidelineID string, chunks []types.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE guideline_id = ?`, guidelineID); err != nil {
		return fmt.Errorf("clearing chunks for %s: %w", guidelineID, err)
	}
	for _, ch := range chunks {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (chunk_id, guideline_id, line_start, line_end, text) VALUES (?, ?, ?, ?, ?)`,
			ch.ID, guidelineID, ch.LineStart, ch.LineEnd, ch.Text)
		if err != nil {
			return fmt.Errorf("inserting chunk %s: %w", ch.ID, err)
		}
	}

	return tx.Commit()
}

// IngestFacts replaces the stored fact set for one guideline (R2.2).
// Citations are stored as JSON so export round-trips without loss.
func (s *Store) IngestFacts(ctx context.Context, guidelineID string, facts []types.Fact) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE guideline_id = ?`, guidelineID); err != nil {
		return fmt.Errorf("clearing facts for %s: %w", guidelineID, err)
	}

	for _, f := range facts {
		cits, err := json.Marshal(f.Citations)
		if err != nil {
			return fmt.Errorf("marshaling citations for %s: %w", f.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO facts (fact_id, guideline_id, kind, polarity, strength, statement, condition, ambiguous, citations)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, guidelineID, string(f.Kind), string(f.Polarity), string(f.Strength),
			f.Statement, f.Condition, boolToInt(f.Ambiguous), string(cits))
		if err != nil {
			return fmt.Errorf("inserting fact %s: %w", f.ID, err)
		}
	}

	return tx.Commit()
}

// IngestWorkflow upserts a validated workflow. The full document is
// stored as JSON alongside queryable columns (R2.3).
func (s *Store) IngestWorkflow(ctx context.Context, wf *types.Workflow) error {
	doc, err := json.Marshal(wf)
	if err != nil {
		return fmt.Errorf("marshaling workflow %s: %w", wf.WorkflowID, err)
	}
	warnings, err := json.Marshal(wf.Warnings)
	if err != nil {
		return fmt.Errorf("marshaling warnings for %s: %w", wf.WorkflowID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO workflows (workflow_id, guideline_id, start_node_id, requires_human_review, node_count, warnings, document)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(workflow_id) DO UPDATE SET
			guideline_id = excluded.guideline_id,
			start_node_id = excluded.start_node_id,
			requires_human_review = excluded.requires_human_review,
			node_count = excluded.node_count,
			warnings = excluded.warnings,
			document = excluded.document`,
		wf.WorkflowID, wf.GuidelineID, wf.StartNodeID, boolToInt(wf.RequiresHumanReview),
		len(wf.Nodes), string(warnings), string(doc))
	if err != nil {
		return fmt.Errorf("upserting workflow %s: %w", wf.WorkflowID, err)
	}
	return nil
}

// GetWorkflow loads a stored workflow document by id (R3.4).
func (s *Store) GetWorkflow(ctx context.Context, workflowID string) (*types.Workflow, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM workflows WHERE workflow_id = ?`, workflowID).Scan(&doc)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("workflow %s not found", workflowID)
	}
	if err != nil {
		return nil, fmt.Errorf("loading workflow %s: %w", workflowID, err)
	}

	var wf types.Workflow
	if err := json.Unmarshal([]byte(doc), &wf); err != nil {
		return nil, fmt.Errorf("decoding workflow %s: %w", workflowID, err)
	}
	return &wf, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
