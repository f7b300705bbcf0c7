// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/models"
)

// CreateTestResearch inserts a research owned by ownerID and returns its ID
func CreateTestResearch(t *testing.T, db *sql.DB, ownerID, name string) string {
	t.Helper()

	id, _ := auth.GenerateID()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO researches (id, owner_id, research_type, name, description, files, created_at, updated_at)
		VALUES ($1, $2, 'zaidel', $3, 'A test research', '[{"id":"file-1","type":"spectrum"}]', $4, $5)
	`, id, ownerID, name, now, now)
	if err != nil {
		t.Fatalf("Failed to create test research: %v", err)
	}

	return id
}

// CreateTestExperiment inserts an experiment whose derived fields match the
// canned FakeAnalyzer responses
func CreateTestExperiment(t *testing.T, db *sql.DB, ownerID, researchID, name string) string {
	t.Helper()

	id, _ := auth.GenerateID()
	now := time.Now().UTC()

	matched := SampleMatched()
	suggestions := SampleSuggestions()
	results := []models.ExperimentResult{
		{Peak: matched[0].Bounds(), Element: matched[0].Elements[0]},
		{Peak: suggestions[1].Peak, Element: suggestions[1].Element, FromSuggestions: true},
	}

	values := []any{
		models.PeaksSettings{Sigma: Float(1)},
		models.ChemicalElementsSettings{MaxElementsPerPeak: Int(3)},
		SamplePeaks(),
		matched,
		suggestions,
		results,
	}
	encoded := make([]any, len(values))
	for i, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Failed to encode test experiment: %v", err)
		}
		encoded[i] = string(b)
	}

	args := append([]any{id, ownerID, researchID, "file-1", name}, encoded...)
	args = append(args, now, now)
	_, err := db.Exec(`
		INSERT INTO experiments (id, owner_id, research_id, file_id, name, description,
			peaks_search_settings, chemical_elements_settings, peaks, matched_elements_per_peak,
			auto_suggestions, experiment_results, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, '', $6, $7, $8, $9, $10, $11, $12, $13)
	`, args...)
	if err != nil {
		t.Fatalf("Failed to create test experiment: %v", err)
	}

	return id
}

// CreateTestComparison inserts an open comparison and links it to the research
func CreateTestComparison(t *testing.T, db *sql.DB, ownerID, researchID, experimentID string, lockedAt *time.Time) string {
	t.Helper()

	id, _ := auth.GenerateID()
	now := time.Now().UTC()
	_, err := db.Exec(`
		INSERT INTO comparisons (id, owner_id, research_id, base_research_id, experiment_id, locked_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, ownerID, researchID, researchID, experimentID, lockedAt, now, now)
	if err != nil {
		t.Fatalf("Failed to create test comparison: %v", err)
	}

	_, err = db.Exec(`UPDATE researches SET comparison_id = $1 WHERE id = $2`, id, researchID)
	if err != nil {
		t.Fatalf("Failed to link test comparison: %v", err)
	}

	return id
}

// FinishTestComparison marks a comparison finished with one similarity
func FinishTestComparison(t *testing.T, db *sql.DB, id string) {
	t.Helper()

	now := time.Now().UTC()
	_, err := db.Exec(`
		UPDATE comparisons
		SET total = 10, processed = 10, finished = TRUE, finished_at = $1,
			similarities = '[{"p":87.5,"eID":"e1","eName":"first","rID":"r1","rName":"research"}]'
		WHERE id = $2
	`, now, id)
	if err != nil {
		t.Fatalf("Failed to finish test comparison: %v", err)
	}
}

func Float(v float64) *float64 { return &v }

func Int(v int) *int { return &v }

func Bool(v bool) *bool { return &v }
