// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package comparison

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/store"
	"github.com/danielhkuo/researches/zaidel"
)

// ErrFinished is returned when a finished comparison would be changed
var ErrFinished = errors.New("forbidden to change finished comparison")

// DefaultLockWindow is the minimum time between two triggers of one comparison
const DefaultLockWindow = 24 * time.Hour

// Store is the persistence the controller needs
type Store interface {
	CreateComparison(ctx context.Context, c *models.Comparison) error
	GetComparison(ctx context.Context, id, ownerID string) (models.Comparison, error)
	LockComparison(ctx context.Context, id, ownerID string, at time.Time) error
	ActualizeComparison(ctx context.Context, id, ownerID string, p models.Progress) error
	FinalizeComparison(ctx context.Context, id, ownerID string, f models.Finalization) error
}

// Trigger starts the computation of a comparison on the analysis service
type Trigger interface {
	TriggerComparison(ctx context.Context, req zaidel.TriggerComparisonRequest, authHeader string) error
}

// Controller moves comparisons through their lifecycle: created, triggered
// at most once per lock window while open, advanced by progress callbacks
// and closed exactly once by finalization.
type Controller struct {
	store   Store
	trigger Trigger
	window  time.Duration
	now     func() time.Time
}

func NewController(s Store, trigger Trigger, window time.Duration) *Controller {
	if window <= 0 {
		window = DefaultLockWindow
	}
	return &Controller{
		store:   s,
		trigger: trigger,
		window:  window,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new comparison, links it to its research and triggers it
func (c *Controller) Create(ctx context.Context, cmp models.Comparison, authHeader string) (models.Comparison, error) {
	if err := c.store.CreateComparison(ctx, &cmp); err != nil {
		return models.Comparison{}, err
	}

	slog.Info("comparison created",
		"comparison_id", cmp.ID,
		"research_id", cmp.ResearchID,
		"experiment_id", cmp.ExperimentID)

	return c.GetOrTrigger(ctx, cmp.ID, cmp.OwnerID, authHeader)
}

// GetOrTrigger returns the comparison, first re-triggering it when it is
// still open and was last triggered longer ago than the lock window.
//
// The check and the lock write are separate statements, so two readers at
// the window boundary can both trigger. The analysis service treats a
// repeated trigger as a restart.
func (c *Controller) GetOrTrigger(ctx context.Context, id, ownerID, authHeader string) (models.Comparison, error) {
	cmp, err := c.store.GetComparison(ctx, id, ownerID)
	if err != nil {
		return models.Comparison{}, err
	}

	if cmp.Finished || !c.stale(cmp.LockedAt) {
		return cmp, nil
	}

	now := c.now().Truncate(time.Microsecond)
	if err := c.store.LockComparison(ctx, id, ownerID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Finalized or deleted since the read
			return c.store.GetComparison(ctx, id, ownerID)
		}
		return models.Comparison{}, fmt.Errorf("failed to lock comparison: %w", err)
	}
	cmp.LockedAt = &now

	if err := c.trigger.TriggerComparison(ctx, zaidel.TriggerComparisonRequest{ID: id}, authHeader); err != nil {
		slog.Error("failed to trigger comparison", "comparison_id", id, "error", err)
	} else {
		slog.Info("comparison triggered", "comparison_id", id)
	}

	return cmp, nil
}

func (c *Controller) stale(lockedAt *time.Time) bool {
	if lockedAt == nil {
		return true
	}
	return c.now().Sub(*lockedAt) > c.window
}

// Actualize records progress on an open comparison
func (c *Controller) Actualize(ctx context.Context, id, ownerID string, p models.Progress) error {
	err := c.store.ActualizeComparison(ctx, id, ownerID, p)
	if err != nil {
		return c.explain(ctx, id, ownerID, err)
	}

	slog.Debug("comparison progress", "comparison_id", id, "processed", p.Processed, "total", p.Total)
	return nil
}

// Finalize closes an open comparison with its similarities
func (c *Controller) Finalize(ctx context.Context, id, ownerID string, f models.Finalization) error {
	err := c.store.FinalizeComparison(ctx, id, ownerID, f)
	if err != nil {
		return c.explain(ctx, id, ownerID, err)
	}

	slog.Info("comparison finalized",
		"comparison_id", id,
		"similarities", len(f.Similarities))
	return nil
}

// explain tells a finished comparison apart from a missing one after a
// guarded update matched no rows
func (c *Controller) explain(ctx context.Context, id, ownerID string, err error) error {
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	cmp, getErr := c.store.GetComparison(ctx, id, ownerID)
	if getErr != nil {
		return getErr
	}
	if cmp.Finished {
		return ErrFinished
	}
	return err
}
