// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/zaidel"
	"golang.org/x/sync/errgroup"
)

// Analyzer is the part of the analysis service the engine needs
type Analyzer interface {
	DefaultPeaksSettings(ctx context.Context, authHeader string) (models.PeaksSettings, error)
	DefaultChemicalElementsSettings(ctx context.Context, authHeader string) (models.ChemicalElementsSettings, error)
	FindPeaks(ctx context.Context, req zaidel.FindPeaksRequest, authHeader string) (zaidel.FindPeaksResponse, error)
	FindMatchedElements(ctx context.Context, req zaidel.MatchElementsRequest, authHeader string) (zaidel.MatchElementsResponse, error)
}

// Engine keeps the derived layers of an experiment consistent with its
// settings: peaks follow the peak-search settings, matched elements and
// auto-suggestions follow the peaks and the chemical-element settings, and
// results follow the matched elements.
type Engine struct {
	analyzer Analyzer
}

func NewEngine(analyzer Analyzer) *Engine {
	return &Engine{analyzer: analyzer}
}

// Initialize fills every derived field of a new experiment. Settings the
// caller left nil are replaced by the service defaults.
func (e *Engine) Initialize(ctx context.Context, exp *models.Experiment, authHeader string) error {
	if err := e.fillDefaults(ctx, exp, authHeader); err != nil {
		return err
	}

	peaks, err := e.analyzer.FindPeaks(ctx, zaidel.FindPeaksRequest{
		OwnerID:  exp.OwnerID,
		FileID:   exp.FileID,
		Settings: exp.PeaksSearchSettings,
	}, authHeader)
	if err != nil {
		return fmt.Errorf("failed to find peaks: %w", err)
	}
	exp.Peaks = nonNil(peaks.Peaks)

	matched, err := e.analyzer.FindMatchedElements(ctx, zaidel.MatchElementsRequest{
		Peaks:    exp.Peaks,
		Settings: exp.ChemicalElementsSettings,
	}, authHeader)
	if err != nil {
		return fmt.Errorf("failed to match elements: %w", err)
	}
	exp.MatchedElementsPerPeak = nonNil(matched.PeaksWithElements)
	exp.AutoSuggestions = nonNil(matched.AutoSuggestions)
	exp.ExperimentResults = MergeResults(exp.MatchedElementsPerPeak, exp.AutoSuggestions)

	return nil
}

func (e *Engine) fillDefaults(ctx context.Context, exp *models.Experiment, authHeader string) error {
	g, gctx := errgroup.WithContext(ctx)

	if exp.PeaksSearchSettings == nil {
		g.Go(func() error {
			settings, err := e.analyzer.DefaultPeaksSettings(gctx, authHeader)
			if err != nil {
				return fmt.Errorf("failed to load default peaks settings: %w", err)
			}
			exp.PeaksSearchSettings = &settings
			return nil
		})
	}
	if exp.ChemicalElementsSettings == nil {
		g.Go(func() error {
			settings, err := e.analyzer.DefaultChemicalElementsSettings(gctx, authHeader)
			if err != nil {
				return fmt.Errorf("failed to load default chemical elements settings: %w", err)
			}
			exp.ChemicalElementsSettings = &settings
			return nil
		})
	}

	return g.Wait()
}

// Reconcile works out what a patch changes on an existing experiment and
// calls the analysis service only for the layers that are stale. The
// returned update holds just the fields to write. On any service failure
// nothing is returned and nothing should be written.
func (e *Engine) Reconcile(ctx context.Context, existing models.Experiment, patch models.ExperimentPatch, authHeader string) (models.ExperimentUpdate, error) {
	var upd models.ExperimentUpdate

	if patch.Name != nil && *patch.Name != existing.Name {
		upd.Name = patch.Name
	}
	if patch.Description != nil && *patch.Description != existing.Description {
		upd.Description = patch.Description
	}

	peaks := existing.Peaks
	force := false

	if settingsChanged(patch.PeaksSearchSettings, existing.PeaksSearchSettings) {
		upd.PeaksSearchSettings = patch.PeaksSearchSettings

		resp, err := e.analyzer.FindPeaks(ctx, zaidel.FindPeaksRequest{
			OwnerID:  existing.OwnerID,
			FileID:   existing.FileID,
			Settings: patch.PeaksSearchSettings,
		}, authHeader)
		if err != nil {
			return models.ExperimentUpdate{}, fmt.Errorf("failed to find peaks: %w", err)
		}
		peaks = nonNil(resp.Peaks)
		upd.Peaks = &peaks
		force = true

		slog.Debug("peaks recomputed", "experiment_id", existing.ID, "peaks", len(peaks))
	}

	chemChanged := settingsChanged(patch.ChemicalElementsSettings, existing.ChemicalElementsSettings)
	if chemChanged {
		upd.ChemicalElementsSettings = patch.ChemicalElementsSettings
	}

	var matched []models.PeakWithElements
	matchedReplaced := false
	suggestions := existing.AutoSuggestions

	if force || chemChanged {
		chemSettings := existing.ChemicalElementsSettings
		if patch.ChemicalElementsSettings != nil {
			chemSettings = patch.ChemicalElementsSettings
		}

		resp, err := e.analyzer.FindMatchedElements(ctx, zaidel.MatchElementsRequest{
			Peaks:    peaks,
			Settings: chemSettings,
		}, authHeader)
		if err != nil {
			return models.ExperimentUpdate{}, fmt.Errorf("failed to match elements: %w", err)
		}
		matched = nonNil(resp.PeaksWithElements)
		suggestions = nonNil(resp.AutoSuggestions)
		upd.MatchedElementsPerPeak = &matched
		upd.AutoSuggestions = &suggestions
		matchedReplaced = true

		slog.Debug("matched elements recomputed", "experiment_id", existing.ID, "peaks", len(matched))
	} else if patch.MatchedElementsPerPeak != nil && !reflect.DeepEqual(patch.MatchedElementsPerPeak, existing.MatchedElementsPerPeak) {
		matched = patch.MatchedElementsPerPeak
		upd.MatchedElementsPerPeak = &matched
		matchedReplaced = true
	}

	if matchedReplaced {
		results := MergeResults(matched, suggestions)
		upd.ExperimentResults = &results
	}

	return upd, nil
}

// settingsChanged reports whether next is present and differs from current.
// Absent sub-fields are nil pointers on both sides and compare equal.
func settingsChanged[T any](next, current *T) bool {
	if next == nil {
		return false
	}
	if current == nil {
		return true
	}
	return !reflect.DeepEqual(*next, *current)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
