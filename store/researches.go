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

const researchColumns = `id, owner_id, research_type, name, description, files, comparison_id, created_at, updated_at`

var researchSearchColumns = []string{"name", "description", "research_type"}

// DeleteResult reports how many dependent records a cascading delete removed
type DeleteResult struct {
	Experiments int64
	Comparisons int64
}

func scanResearch(row interface{ Scan(...any) error }) (models.Research, error) {
	var r models.Research
	var files string
	var comparisonID sql.NullString
	err := row.Scan(&r.ID, &r.OwnerID, &r.ResearchType, &r.Name, &r.Description,
		&files, &comparisonID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if err := decodeJSON(files, &r.Files); err != nil {
		return r, fmt.Errorf("failed to decode research files: %w", err)
	}
	if r.Files == nil {
		r.Files = []models.ResearchFile{}
	}
	r.ComparisonID = nullString(comparisonID)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return r, nil
}

func insertResearch(ctx context.Context, q querier, r models.Research) error {
	files, err := encodeJSON(r.Files)
	if err != nil {
		return fmt.Errorf("failed to encode research files: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO researches (id, owner_id, research_type, name, description, files, comparison_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, r.ID, r.OwnerID, r.ResearchType, r.Name, r.Description, files, r.ComparisonID, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert research: %w", err)
	}
	return nil
}

// CreateResearch assigns id and timestamps and inserts the research
func (s *Store) CreateResearch(ctx context.Context, r *models.Research) error {
	id, err := auth.GenerateID()
	if err != nil {
		return err
	}
	now := s.timestamp()
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.ResearchType == "" {
		r.ResearchType = models.ResearchTypeZaidel
	}
	if r.Files == nil {
		r.Files = []models.ResearchFile{}
	}
	return insertResearch(ctx, s.db, *r)
}

func (s *Store) GetResearch(ctx context.Context, id, ownerID string) (models.Research, error) {
	return getResearch(ctx, s.db, id, ownerID)
}

func getResearch(ctx context.Context, q querier, id, ownerID string) (models.Research, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+researchColumns+`
		FROM researches
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	r, err := scanResearch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return r, ErrNotFound
	}
	if err != nil {
		return r, fmt.Errorf("failed to query research: %w", err)
	}
	return r, nil
}

// ListResearches returns a page of the owner's researches, newest first,
// together with the total number of matches.
func (s *Store) ListResearches(ctx context.Context, ownerID string, opts ListOptions) ([]models.Research, int, error) {
	opts = opts.Normalized()

	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if opts.Query != "" {
		var clause string
		clause, args = searchClause(opts.Query, researchSearchColumns, args)
		where = append(where, clause)
	}
	filter := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM researches WHERE "+filter, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count researches: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM researches
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, researchColumns, filter, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query researches: %w", err)
	}
	defer rows.Close()

	var researches []models.Research
	for rows.Next() {
		r, err := scanResearch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan research: %w", err)
		}
		researches = append(researches, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate researches: %w", err)
	}

	return researches, total, nil
}

// UpdateResearch applies the supplied patch fields and returns the stored result
func (s *Store) UpdateResearch(ctx context.Context, id, ownerID string, patch models.ResearchPatch) (models.Research, error) {
	sets := []string{}
	args := []any{}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.ResearchType != nil {
		set("research_type", *patch.ResearchType)
	}
	if patch.Name != nil {
		set("name", *patch.Name)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Files != nil {
		files, err := encodeJSON(patch.Files)
		if err != nil {
			return models.Research{}, fmt.Errorf("failed to encode research files: %w", err)
		}
		set("files", files)
	}

	if len(sets) == 0 {
		return s.GetResearch(ctx, id, ownerID)
	}
	set("updated_at", s.timestamp())

	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(
		"UPDATE researches SET %s WHERE id = $%d AND owner_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args)), args...)
	if err != nil {
		return models.Research{}, fmt.Errorf("failed to update research: %w", err)
	}
	if err := checkAffected(res); err != nil {
		return models.Research{}, err
	}

	return s.GetResearch(ctx, id, ownerID)
}

// DeleteResearch removes the research and every experiment and comparison
// scoped to it, in one transaction.
func (s *Store) DeleteResearch(ctx context.Context, id, ownerID string) (DeleteResult, error) {
	var result DeleteResult
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM researches WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete research: %w", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx, `DELETE FROM experiments WHERE research_id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete experiments: %w", err)
		}
		result.Experiments, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM comparisons WHERE research_id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete comparisons: %w", err)
		}
		result.Comparisons, _ = res.RowsAffected()
		return nil
	})
	return result, err
}

// CopyResearch duplicates a research and all of its experiments under new
// ids and fresh timestamps. The comparison reference is not carried over.
func (s *Store) CopyResearch(ctx context.Context, id, ownerID string) (models.Research, error) {
	var copied models.Research
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		source, err := getResearch(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}

		newID, err := auth.GenerateID()
		if err != nil {
			return err
		}
		now := s.timestamp()
		copied = source
		copied.ID = newID
		copied.ComparisonID = nil
		copied.CreatedAt = now
		copied.UpdatedAt = now
		if err := insertResearch(ctx, tx, copied); err != nil {
			return err
		}

		experiments, err := listFullExperiments(ctx, tx, source.ID, ownerID)
		if err != nil {
			return err
		}
		for _, e := range experiments {
			expID, err := auth.GenerateID()
			if err != nil {
				return err
			}
			e.ID = expID
			e.ResearchID = copied.ID
			e.CreatedAt = now
			e.UpdatedAt = now
			if err := insertExperiment(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Research{}, err
	}
	return copied, nil
}
