// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"context"
	"sync"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/zaidel"
)

// FakeAnalyzer is an in-memory stand-in for the analysis service. It returns
// the canned responses in its exported fields and records every call.
type FakeAnalyzer struct {
	mu sync.Mutex

	PeaksSettings    models.PeaksSettings
	ElementsSettings models.ChemicalElementsSettings
	Peaks            []models.Peak
	Matched          []models.PeakWithElements
	Suggestions      []models.ElementWithPeak

	// Errs makes the named operation fail
	Errs map[string]error

	calls         map[string]int
	peaksRequests []zaidel.FindPeaksRequest
	matchRequests []zaidel.MatchElementsRequest
	triggered     []string
	authHeaders   []string
}

var _ zaidel.Client = (*FakeAnalyzer)(nil)

func NewFakeAnalyzer() *FakeAnalyzer {
	return &FakeAnalyzer{
		PeaksSettings:    models.PeaksSettings{Sigma: Float(1), SmoothMarkov: Bool(true)},
		ElementsSettings: models.ChemicalElementsSettings{MaxElementsPerPeak: Int(3)},
		Peaks:            SamplePeaks(),
		Matched:          SampleMatched(),
		Suggestions:      SampleSuggestions(),
		Errs:             map[string]error{},
		calls:            map[string]int{},
	}
}

func (f *FakeAnalyzer) record(op, authHeader string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	f.authHeaders = append(f.authHeaders, authHeader)
	return f.Errs[op]
}

func (f *FakeAnalyzer) DefaultPeaksSettings(ctx context.Context, authHeader string) (models.PeaksSettings, error) {
	if err := f.record(zaidel.OpPeaksSettings, authHeader); err != nil {
		return models.PeaksSettings{}, err
	}
	return f.PeaksSettings, nil
}

func (f *FakeAnalyzer) DefaultChemicalElementsSettings(ctx context.Context, authHeader string) (models.ChemicalElementsSettings, error) {
	if err := f.record(zaidel.OpElementsSettings, authHeader); err != nil {
		return models.ChemicalElementsSettings{}, err
	}
	return f.ElementsSettings, nil
}

func (f *FakeAnalyzer) FindPeaks(ctx context.Context, req zaidel.FindPeaksRequest, authHeader string) (zaidel.FindPeaksResponse, error) {
	if err := f.record(zaidel.OpFindPeaks, authHeader); err != nil {
		return zaidel.FindPeaksResponse{}, err
	}
	f.mu.Lock()
	f.peaksRequests = append(f.peaksRequests, req)
	f.mu.Unlock()
	return zaidel.FindPeaksResponse{Peaks: f.Peaks}, nil
}

func (f *FakeAnalyzer) FindMatchedElements(ctx context.Context, req zaidel.MatchElementsRequest, authHeader string) (zaidel.MatchElementsResponse, error) {
	if err := f.record(zaidel.OpFindMatched, authHeader); err != nil {
		return zaidel.MatchElementsResponse{}, err
	}
	f.mu.Lock()
	f.matchRequests = append(f.matchRequests, req)
	f.mu.Unlock()
	return zaidel.MatchElementsResponse{
		PeaksCount:        len(f.Matched),
		PeaksWithElements: f.Matched,
		AutoSuggestions:   f.Suggestions,
	}, nil
}

func (f *FakeAnalyzer) TriggerComparison(ctx context.Context, req zaidel.TriggerComparisonRequest, authHeader string) error {
	if err := f.record(zaidel.OpTriggerComparison, authHeader); err != nil {
		return err
	}
	f.mu.Lock()
	f.triggered = append(f.triggered, req.ID)
	f.mu.Unlock()
	return nil
}

// Calls returns how many times op was invoked
func (f *FakeAnalyzer) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FakeAnalyzer) FindPeaksRequests() []zaidel.FindPeaksRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]zaidel.FindPeaksRequest(nil), f.peaksRequests...)
}

func (f *FakeAnalyzer) MatchRequests() []zaidel.MatchElementsRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]zaidel.MatchElementsRequest(nil), f.matchRequests...)
}

// Triggered returns the ids of every comparison trigger, in call order
func (f *FakeAnalyzer) Triggered() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.triggered...)
}

func (f *FakeAnalyzer) AuthHeaders() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.authHeaders...)
}

// Sample spectra: two peaks at x=1 and x=5. The first has one selected
// candidate (Fe); the second has none, and the auto-suggestions cover it
// with Cu.

func SamplePeaks() []models.Peak {
	return []models.Peak{
		{Peak: models.Coordinates{X: 1, Y: 10}, Left: models.Coordinates{X: 0.5}, Right: models.Coordinates{X: 1.5}, Area: 4},
		{Peak: models.Coordinates{X: 5, Y: 20}, Left: models.Coordinates{X: 4.5}, Right: models.Coordinates{X: 5.5}, Area: 8},
	}
}

func SampleMatched() []models.PeakWithElements {
	peaks := SamplePeaks()
	return []models.PeakWithElements{
		{
			Peak: peaks[0].Peak, Left: peaks[0].Left, Right: peaks[0].Right, Area: peaks[0].Area,
			Elements: []models.Element{
				{Element: "Fe", Selected: true, Stage: 1, WaveLength: 1.01, Similarity: 0.9},
				{Element: "Ni", Stage: 1, WaveLength: 0.99, Similarity: 0.4},
			},
			TotalElementsCount: 2,
		},
		{
			Peak: peaks[1].Peak, Left: peaks[1].Left, Right: peaks[1].Right, Area: peaks[1].Area,
			Elements: []models.Element{
				{Element: "Cu", Stage: 2, WaveLength: 5.02, Similarity: 0.7},
			},
			TotalElementsCount: 1,
		},
	}
}

func SampleSuggestions() []models.ElementWithPeak {
	peaks := SamplePeaks()
	return []models.ElementWithPeak{
		{Peak: peaks[0], Element: models.Element{Element: "Ni", Stage: 1, WaveLength: 0.99}},
		{Peak: peaks[1], Element: models.Element{Element: "Cu", Stage: 2, WaveLength: 5.02, Matched: true}},
	}
}
