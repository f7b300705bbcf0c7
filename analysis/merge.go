// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package analysis

import (
	"log/slog"
	"sort"

	"github.com/danielhkuo/researches/models"
)

// MergeResults settles one element per peak. A peak with exactly one selected
// candidate uses it; otherwise the auto-suggestion at the same coordinates is
// used. Peaks with neither are left out. The result is ordered by peak x.
func MergeResults(peaks []models.PeakWithElements, suggestions []models.ElementWithPeak) []models.ExperimentResult {
	results := make([]models.ExperimentResult, 0, len(peaks))

	for _, p := range peaks {
		if selected, ok := singleSelected(p.Elements); ok {
			results = append(results, models.ExperimentResult{
				Peak:            p.Bounds(),
				Element:         selected,
				FromSuggestions: false,
			})
			continue
		}

		suggestion, ok := findSuggestion(suggestions, p.Peak)
		if !ok {
			slog.Warn("no auto suggestion for peak, leaving it out of results",
				"x", p.Peak.X,
				"y", p.Peak.Y,
				"candidates", len(p.Elements),
				"suggestions", len(suggestions))
			continue
		}

		results = append(results, models.ExperimentResult{
			Peak:            suggestion.Peak,
			Element:         suggestion.Element,
			FromSuggestions: true,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Peak.Peak.X < results[j].Peak.Peak.X
	})

	return results
}

func singleSelected(elements []models.Element) (models.Element, bool) {
	var found models.Element
	count := 0
	for _, e := range elements {
		if e.Selected {
			found = e
			count++
		}
	}
	return found, count == 1
}

func findSuggestion(suggestions []models.ElementWithPeak, at models.Coordinates) (models.ElementWithPeak, bool) {
	for _, s := range suggestions {
		if s.Peak.Peak.X == at.X && s.Peak.Peak.Y == at.Y {
			return s, true
		}
	}
	return models.ElementWithPeak{}, false
}
