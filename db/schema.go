// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is portable between PostgreSQL and SQLite; document-shaped
// fields are stored as JSON text.
func CreateSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

var schema = []string{
	// Researches
	`CREATE TABLE IF NOT EXISTS researches (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    research_type TEXT NOT NULL DEFAULT 'zaidel',
    name TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    files TEXT NOT NULL DEFAULT '[]',
    comparison_id TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_researches_owner_created ON researches(owner_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_researches_owner_updated ON researches(owner_id, updated_at)`,

	// Experiments
	`CREATE TABLE IF NOT EXISTS experiments (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    research_id TEXT NOT NULL,
    file_id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    peaks_search_settings TEXT NOT NULL DEFAULT '{}',
    chemical_elements_settings TEXT NOT NULL DEFAULT '{}',
    peaks TEXT NOT NULL DEFAULT '[]',
    matched_elements_per_peak TEXT NOT NULL DEFAULT '[]',
    auto_suggestions TEXT NOT NULL DEFAULT '[]',
    experiment_results TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_experiments_owner ON experiments(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_experiments_research ON experiments(research_id)`,
	`CREATE INDEX IF NOT EXISTS idx_experiments_file ON experiments(file_id)`,

	// Comparisons
	`CREATE TABLE IF NOT EXISTS comparisons (
    id TEXT PRIMARY KEY,
    owner_id TEXT NOT NULL,
    research_id TEXT NOT NULL,
    base_research_id TEXT NOT NULL,
    experiment_id TEXT NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    processed INTEGER NOT NULL DEFAULT 0,
    locked_at TIMESTAMP,
    finished BOOLEAN NOT NULL DEFAULT FALSE,
    finished_at TIMESTAMP,
    similarities TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_comparisons_owner ON comparisons(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comparisons_research ON comparisons(research_id)`,
	`CREATE INDEX IF NOT EXISTS idx_comparisons_experiment ON comparisons(experiment_id)`,
}
