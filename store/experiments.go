// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/models"
)

const experimentColumns = `id, owner_id, research_id, file_id, name, description,
	peaks_search_settings, chemical_elements_settings, peaks, matched_elements_per_peak,
	auto_suggestions, experiment_results, created_at, updated_at`

// List views leave out the settings, raw peaks and per-peak candidates
const experimentSummaryColumns = `id, owner_id, research_id, file_id, name, description,
	auto_suggestions, experiment_results, created_at, updated_at`

var experimentSearchColumns = []string{"name", "description"}

func scanExperiment(row interface{ Scan(...any) error }) (models.Experiment, error) {
	var e models.Experiment
	var peaksSettings, chemSettings, peaks, matched, suggestions, results string
	err := row.Scan(&e.ID, &e.OwnerID, &e.ResearchID, &e.FileID, &e.Name, &e.Description,
		&peaksSettings, &chemSettings, &peaks, &matched, &suggestions, &results,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}

	e.PeaksSearchSettings = &models.PeaksSettings{}
	e.ChemicalElementsSettings = &models.ChemicalElementsSettings{}
	fields := []struct {
		name string
		raw  string
		dst  any
	}{
		{"peaks_search_settings", peaksSettings, e.PeaksSearchSettings},
		{"chemical_elements_settings", chemSettings, e.ChemicalElementsSettings},
		{"peaks", peaks, &e.Peaks},
		{"matched_elements_per_peak", matched, &e.MatchedElementsPerPeak},
		{"auto_suggestions", suggestions, &e.AutoSuggestions},
		{"experiment_results", results, &e.ExperimentResults},
	}
	for _, f := range fields {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return e, fmt.Errorf("failed to decode %s: %w", f.name, err)
		}
	}

	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func scanExperimentSummary(row interface{ Scan(...any) error }) (models.Experiment, error) {
	var e models.Experiment
	var suggestions, results string
	err := row.Scan(&e.ID, &e.OwnerID, &e.ResearchID, &e.FileID, &e.Name, &e.Description,
		&suggestions, &results, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return e, err
	}
	if err := decodeJSON(suggestions, &e.AutoSuggestions); err != nil {
		return e, fmt.Errorf("failed to decode auto_suggestions: %w", err)
	}
	if err := decodeJSON(results, &e.ExperimentResults); err != nil {
		return e, fmt.Errorf("failed to decode experiment_results: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	return e, nil
}

func insertExperiment(ctx context.Context, q querier, e models.Experiment) error {
	values := []any{e.PeaksSearchSettings, e.ChemicalElementsSettings, e.Peaks,
		e.MatchedElementsPerPeak, e.AutoSuggestions, e.ExperimentResults}
	encoded := make([]any, len(values))
	for i, v := range values {
		s, err := encodeJSON(orEmpty(v))
		if err != nil {
			return fmt.Errorf("failed to encode experiment: %w", err)
		}
		encoded[i] = s
	}

	args := append([]any{e.ID, e.OwnerID, e.ResearchID, e.FileID, e.Name, e.Description}, encoded...)
	args = append(args, e.CreatedAt, e.UpdatedAt)
	_, err := q.ExecContext(ctx, `
		INSERT INTO experiments (`+experimentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}
	return nil
}

// orEmpty keeps nil settings and slices from being stored as JSON null
func orEmpty(v any) any {
	switch t := v.(type) {
	case *models.PeaksSettings:
		if t == nil {
			return models.PeaksSettings{}
		}
	case *models.ChemicalElementsSettings:
		if t == nil {
			return models.ChemicalElementsSettings{}
		}
	case []models.Peak:
		if t == nil {
			return []models.Peak{}
		}
	case []models.PeakWithElements:
		if t == nil {
			return []models.PeakWithElements{}
		}
	case []models.ElementWithPeak:
		if t == nil {
			return []models.ElementWithPeak{}
		}
	case []models.ExperimentResult:
		if t == nil {
			return []models.ExperimentResult{}
		}
	}
	return v
}

// CreateExperiment assigns id and timestamps and inserts the experiment
func (s *Store) CreateExperiment(ctx context.Context, e *models.Experiment) error {
	id, err := auth.GenerateID()
	if err != nil {
		return err
	}
	now := s.timestamp()
	e.ID = id
	e.CreatedAt = now
	e.UpdatedAt = now
	return insertExperiment(ctx, s.db, *e)
}

func (s *Store) GetExperiment(ctx context.Context, id, ownerID string) (models.Experiment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+experimentColumns+`
		FROM experiments
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	e, err := scanExperiment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return e, ErrNotFound
	}
	if err != nil {
		return e, fmt.Errorf("failed to query experiment: %w", err)
	}
	return e, nil
}

// ListExperiments returns summaries of the owner's experiments, newest first,
// optionally restricted to a set of researches.
func (s *Store) ListExperiments(ctx context.Context, ownerID string, opts ListOptions) ([]models.Experiment, int, error) {
	opts = opts.Normalized()

	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if opts.Query != "" {
		var clause string
		clause, args = searchClause(opts.Query, experimentSearchColumns, args)
		where = append(where, clause)
	}
	if len(opts.ResearchIDs) > 0 {
		var clause string
		clause, args = inClause("research_id", opts.ResearchIDs, args)
		where = append(where, clause)
	}
	filter := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM experiments WHERE "+filter, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count experiments: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM experiments
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, experimentSummaryColumns, filter, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var experiments []models.Experiment
	for rows.Next() {
		e, err := scanExperimentSummary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate experiments: %w", err)
	}

	return experiments, total, nil
}

// listFullExperiments loads every experiment of a research with all fields
func listFullExperiments(ctx context.Context, q querier, researchID, ownerID string) ([]models.Experiment, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+experimentColumns+`
		FROM experiments
		WHERE research_id = $1 AND owner_id = $2
		ORDER BY created_at, id
	`, researchID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}
	defer rows.Close()

	var experiments []models.Experiment
	for rows.Next() {
		e, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate experiments: %w", err)
	}
	return experiments, nil
}

// UpdateExperiment writes only the fields present in upd. Concurrent updates
// to the same experiment are last-write-wins per column.
func (s *Store) UpdateExperiment(ctx context.Context, id, ownerID string, upd models.ExperimentUpdate) error {
	sets := []string{}
	args := []any{}
	set := func(column string, v any) error {
		if str, ok := v.(string); ok {
			args = append(args, str)
		} else {
			encoded, err := encodeJSON(v)
			if err != nil {
				return fmt.Errorf("failed to encode %s: %w", column, err)
			}
			args = append(args, encoded)
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
		return nil
	}

	columns := []struct {
		name    string
		present bool
		value   func() any
	}{
		{"name", upd.Name != nil, func() any { return *upd.Name }},
		{"description", upd.Description != nil, func() any { return *upd.Description }},
		{"peaks_search_settings", upd.PeaksSearchSettings != nil, func() any { return upd.PeaksSearchSettings }},
		{"chemical_elements_settings", upd.ChemicalElementsSettings != nil, func() any { return upd.ChemicalElementsSettings }},
		{"peaks", upd.Peaks != nil, func() any { return orEmpty(*upd.Peaks) }},
		{"matched_elements_per_peak", upd.MatchedElementsPerPeak != nil, func() any { return orEmpty(*upd.MatchedElementsPerPeak) }},
		{"auto_suggestions", upd.AutoSuggestions != nil, func() any { return orEmpty(*upd.AutoSuggestions) }},
		{"experiment_results", upd.ExperimentResults != nil, func() any { return orEmpty(*upd.ExperimentResults) }},
	}
	for _, c := range columns {
		if !c.present {
			continue
		}
		if err := set(c.name, c.value()); err != nil {
			return err
		}
	}

	args = append(args, s.timestamp())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))

	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"UPDATE experiments SET %s WHERE id = $%d AND owner_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args)), args...)
	if err != nil {
		return fmt.Errorf("failed to update experiment: %w", err)
	}
	return checkAffected(res)
}

func (s *Store) DeleteExperiment(ctx context.Context, id, ownerID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM experiments WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	return checkAffected(res)
}
