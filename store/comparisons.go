// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/models"
)

const comparisonColumns = `id, owner_id, research_id, base_research_id, experiment_id,
	total, processed, locked_at, finished, finished_at, similarities, created_at, updated_at`

func scanComparison(row interface{ Scan(...any) error }) (models.Comparison, error) {
	var c models.Comparison
	var lockedAt, finishedAt sql.NullTime
	var similarities string
	err := row.Scan(&c.ID, &c.OwnerID, &c.ResearchID, &c.BaseResearchID, &c.ExperimentID,
		&c.Total, &c.Processed, &lockedAt, &c.Finished, &finishedAt, &similarities,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return c, err
	}
	if err := decodeJSON(similarities, &c.Similarities); err != nil {
		return c, fmt.Errorf("failed to decode similarities: %w", err)
	}
	if c.Similarities == nil {
		c.Similarities = []models.Similarity{}
	}
	c.LockedAt = nullTime(lockedAt)
	c.FinishedAt = nullTime(finishedAt)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateComparison inserts the comparison and points the owner's research at
// it. A research that is missing or owned by someone else rolls the insert
// back with ErrNotFound.
func (s *Store) CreateComparison(ctx context.Context, c *models.Comparison) error {
	id, err := auth.GenerateID()
	if err != nil {
		return err
	}
	now := s.timestamp()
	c.ID = id
	c.Total = 0
	c.Processed = 0
	c.LockedAt = nil
	c.Finished = false
	c.FinishedAt = nil
	c.Similarities = []models.Similarity{}
	c.CreatedAt = now
	c.UpdatedAt = now

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO comparisons (id, owner_id, research_id, base_research_id, experiment_id, similarities, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, c.ID, c.OwnerID, c.ResearchID, c.BaseResearchID, c.ExperimentID, "[]", c.CreatedAt, c.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert comparison: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE researches SET comparison_id = $1, updated_at = $2
			WHERE id = $3 AND owner_id = $4
		`, c.ID, now, c.ResearchID, c.OwnerID)
		if err != nil {
			return fmt.Errorf("failed to link comparison to research: %w", err)
		}
		return checkAffected(res)
	})
}

func (s *Store) GetComparison(ctx context.Context, id, ownerID string) (models.Comparison, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+comparisonColumns+`
		FROM comparisons
		WHERE id = $1 AND owner_id = $2
	`, id, ownerID)
	c, err := scanComparison(row)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	if err != nil {
		return c, fmt.Errorf("failed to query comparison: %w", err)
	}
	return c, nil
}

// ListComparisons returns the owner's comparisons, newest first, optionally
// restricted to a set of researches.
func (s *Store) ListComparisons(ctx context.Context, ownerID string, opts ListOptions) ([]models.Comparison, int, error) {
	opts = opts.Normalized()

	where := []string{"owner_id = $1"}
	args := []any{ownerID}
	if len(opts.ResearchIDs) > 0 {
		var clause string
		clause, args = inClause("research_id", opts.ResearchIDs, args)
		where = append(where, clause)
	}
	filter := strings.Join(where, " AND ")

	var total int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM comparisons WHERE "+filter, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comparisons: %w", err)
	}

	args = append(args, opts.Limit, opts.Offset)
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM comparisons
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, comparisonColumns, filter, len(args)-1, len(args)), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query comparisons: %w", err)
	}
	defer rows.Close()

	var comparisons []models.Comparison
	for rows.Next() {
		c, err := scanComparison(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan comparison: %w", err)
		}
		comparisons = append(comparisons, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate comparisons: %w", err)
	}

	return comparisons, total, nil
}

// LockComparison records that a computation was triggered at the given time
func (s *Store) LockComparison(ctx context.Context, id, ownerID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comparisons SET locked_at = $1, updated_at = $2
		WHERE id = $3 AND owner_id = $4 AND finished = FALSE
	`, at, s.timestamp(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to lock comparison: %w", err)
	}
	return checkAffected(res)
}

// ActualizeComparison stores progress counters. Finished comparisons are
// never touched; the caller sees ErrNotFound and must re-read to tell a
// finished comparison from a missing one.
func (s *Store) ActualizeComparison(ctx context.Context, id, ownerID string, p models.Progress) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comparisons SET total = $1, processed = $2, updated_at = $3
		WHERE id = $4 AND owner_id = $5 AND finished = FALSE
	`, p.Total, p.Processed, s.timestamp(), id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update comparison progress: %w", err)
	}
	return checkAffected(res)
}

// FinalizeComparison closes an open comparison with its final similarities
func (s *Store) FinalizeComparison(ctx context.Context, id, ownerID string, f models.Finalization) error {
	similarities := f.Similarities
	if similarities == nil {
		similarities = []models.Similarity{}
	}
	encoded, err := encodeJSON(similarities)
	if err != nil {
		return fmt.Errorf("failed to encode similarities: %w", err)
	}

	now := s.timestamp()
	res, err := s.db.ExecContext(ctx, `
		UPDATE comparisons
		SET total = $1, processed = $2, similarities = $3, finished = TRUE, finished_at = $4, updated_at = $5
		WHERE id = $6 AND owner_id = $7 AND finished = FALSE
	`, f.Total, f.Processed, encoded, now, now, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to finalize comparison: %w", err)
	}
	return checkAffected(res)
}

// DeleteComparison removes the comparison and clears any research reference to it
func (s *Store) DeleteComparison(ctx context.Context, id, ownerID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM comparisons WHERE id = $1 AND owner_id = $2`, id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to delete comparison: %w", err)
		}
		if err := checkAffected(res); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE researches SET comparison_id = NULL, updated_at = $1
			WHERE comparison_id = $2 AND owner_id = $3
		`, s.timestamp(), id, ownerID)
		if err != nil {
			return fmt.Errorf("failed to unlink comparison: %w", err)
		}
		return nil
	})
}
