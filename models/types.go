// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import (
	"encoding/json"
	"time"
)

// Research type constants
const (
	ResearchTypeZaidel = "zaidel"
)

// SupportedResearchTypes is served by GET /researches/supportedTypes
var SupportedResearchTypes = map[string]string{
	ResearchTypeZaidel: ResearchTypeZaidel,
}

// Entity type tags, derived at marshal time
const (
	TypeResearch   = "research"
	TypeExperiment = "experiment"
	TypeCollection = "collection"
)

// Spectral types

type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Peak is a detected local maximum with its left/right bounds
type Peak struct {
	Peak  Coordinates `json:"peak"`
	Left  Coordinates `json:"left"`
	Right Coordinates `json:"right"`
	Area  float64     `json:"area"`
}

// Element is a candidate chemical element for a peak
type Element struct {
	Matched    bool    `json:"matched"`
	Selected   bool    `json:"selected"`
	Similarity float64 `json:"similarity"`
	Intensity  float64 `json:"intensity"`
	Stage      int     `json:"stage"`
	Element    string  `json:"element"`
	WaveLength float64 `json:"waveLength"`
}

type PeakWithElements struct {
	Peak               Coordinates `json:"peak"`
	Left               Coordinates `json:"left"`
	Right              Coordinates `json:"right"`
	Area               float64     `json:"area"`
	Elements           []Element   `json:"elements"`
	TotalElementsCount int         `json:"totalElementsCount"`
}

// Bounds returns the peak geometry without its candidates
func (p PeakWithElements) Bounds() Peak {
	return Peak{Peak: p.Peak, Left: p.Left, Right: p.Right, Area: p.Area}
}

// ElementWithPeak is an auto-suggestion: the system's best candidate for a peak
type ElementWithPeak struct {
	Peak    Peak    `json:"peak"`
	Element Element `json:"element"`
}

type ExperimentResult struct {
	Peak            Peak    `json:"peak"`
	Element         Element `json:"element"`
	FromSuggestions bool    `json:"fromSuggestions"`
}

// Settings types. Every field is optional so null sub-fields drop out of
// comparisons and stored JSON.

type PeaksSettings struct {
	AverageWindow           *float64 `json:"averageWindow,omitempty" validate:"omitempty,gte=0"`
	CalculateBackground     *bool    `json:"calculateBackground,omitempty"`
	DeconvolutionIterations *int     `json:"deconvolutionIterations,omitempty" validate:"omitempty,gte=0"`
	Sigma                   *float64 `json:"sigma,omitempty" validate:"omitempty,gte=0"`
	SmoothMarkov            *bool    `json:"smoothMarkov,omitempty"`
	Threshold               *float64 `json:"threshold,omitempty"`
}

type ChemicalElementsSettings struct {
	MaxElementsPerPeak        *int     `json:"maxElementsPerPeak,omitempty" validate:"omitempty,gte=0"`
	MaxIntensity              *float64 `json:"maxIntensity,omitempty"`
	MaxIonizationLevel        *int     `json:"maxIonizationLevel,omitempty" validate:"omitempty,gte=0"`
	MinIntensity              *float64 `json:"minIntensity,omitempty"`
	SearchInMostSuitableGroup *bool    `json:"searchInMostSuitableGroup,omitempty"`
	WaveLengthRange           *float64 `json:"waveLengthRange,omitempty" validate:"omitempty,gte=0"`
}

// Domain types

type ResearchFile struct {
	ID   string `json:"id" validate:"required"`
	Type string `json:"type"`
}

type Research struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerID"`
	ResearchType string         `json:"researchType"`
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	Files        []ResearchFile `json:"files"`
	ComparisonID *string        `json:"comparisonID,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (Research) Type() string { return TypeResearch }

func (r Research) MarshalJSON() ([]byte, error) {
	type plain Research
	return json.Marshal(struct {
		plain
		Type string `json:"type"`
	}{plain(r), r.Type()})
}

type Experiment struct {
	ID                       string                    `json:"id"`
	OwnerID                  string                    `json:"ownerID"`
	ResearchID               string                    `json:"researchID"`
	FileID                   string                    `json:"fileID"`
	Name                     string                    `json:"name"`
	Description              string                    `json:"description"`
	PeaksSearchSettings      *PeaksSettings            `json:"peaksSearchSettings,omitempty"`
	ChemicalElementsSettings *ChemicalElementsSettings `json:"chemicalElementsSettings,omitempty"`
	Peaks                    []Peak                    `json:"peaks,omitempty"`
	MatchedElementsPerPeak   []PeakWithElements        `json:"matchedElementsPerPeak,omitempty"`
	AutoSuggestions          []ElementWithPeak         `json:"autoSuggestions"`
	ExperimentResults        []ExperimentResult        `json:"experimentResults"`
	CreatedAt                time.Time                 `json:"createdAt"`
	UpdatedAt                time.Time                 `json:"updatedAt"`
}

func (Experiment) Type() string { return TypeExperiment }

func (e Experiment) MarshalJSON() ([]byte, error) {
	type plain Experiment
	return json.Marshal(struct {
		plain
		Type string `json:"type"`
	}{plain(e), e.Type()})
}

// Similarity is one entry of a finished comparison
type Similarity struct {
	P     float64 `json:"p" validate:"gte=0,lte=100"`
	EID   string  `json:"eID" validate:"required"`
	EName string  `json:"eName"`
	RID   string  `json:"rID" validate:"required"`
	RName string  `json:"rName"`
}

type Comparison struct {
	ID             string       `json:"id"`
	OwnerID        string       `json:"ownerID"`
	ResearchID     string       `json:"researchID"`
	BaseResearchID string       `json:"baseResearchID"`
	ExperimentID   string       `json:"experimentID"`
	Total          int          `json:"total"`
	Processed      int          `json:"processed"`
	LockedAt       *time.Time   `json:"lockedAt,omitempty"`
	Finished       bool         `json:"finished"`
	FinishedAt     *time.Time   `json:"finishedAt,omitempty"`
	Similarities   []Similarity `json:"similarities"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// Partial updates. A nil field means "not supplied".

type ResearchPatch struct {
	ResearchType *string        `json:"researchType"`
	Name         *string        `json:"name"`
	Description  *string        `json:"description"`
	Files        []ResearchFile `json:"files" validate:"omitempty,dive"`
}

// ExperimentPatch is what a client may send to PATCH /experiments/{id}.
// Owner, file, research and raw peaks are deliberately absent.
type ExperimentPatch struct {
	Name                     *string                   `json:"name"`
	Description              *string                   `json:"description"`
	PeaksSearchSettings      *PeaksSettings            `json:"peaksSearchSettings"`
	ChemicalElementsSettings *ChemicalElementsSettings `json:"chemicalElementsSettings"`
	MatchedElementsPerPeak   []PeakWithElements        `json:"matchedElementsPerPeak"`
}

// ExperimentUpdate is the set of fields to persist after reconciliation
type ExperimentUpdate struct {
	Name                     *string
	Description              *string
	PeaksSearchSettings      *PeaksSettings
	ChemicalElementsSettings *ChemicalElementsSettings
	Peaks                    *[]Peak
	MatchedElementsPerPeak   *[]PeakWithElements
	AutoSuggestions          *[]ElementWithPeak
	ExperimentResults        *[]ExperimentResult
}

// IsEmpty reports whether nothing needs to be written
func (u ExperimentUpdate) IsEmpty() bool {
	return u.Name == nil && u.Description == nil &&
		u.PeaksSearchSettings == nil && u.ChemicalElementsSettings == nil &&
		u.Peaks == nil && u.MatchedElementsPerPeak == nil &&
		u.AutoSuggestions == nil && u.ExperimentResults == nil
}

// Progress is reported by the analysis service while a comparison runs
type Progress struct {
	Total     int `json:"total" validate:"gte=0"`
	Processed int `json:"processed" validate:"gte=0,ltefield=Total"`
}

type Finalization struct {
	Progress
	Similarities []Similarity `json:"similarities" validate:"dive"`
}

// Request types

type CreateResearchRequest struct {
	ResearchType string         `json:"researchType"`
	Name         string         `json:"name" validate:"required,max=256"`
	Description  string         `json:"description" validate:"max=4096"`
	Files        []ResearchFile `json:"files" validate:"dive"`
}

type CreateExperimentRequest struct {
	Name                     string                    `json:"name" validate:"max=256"`
	Description              string                    `json:"description" validate:"max=4096"`
	ResearchID               string                    `json:"researchID" validate:"required"`
	FileID                   string                    `json:"fileID" validate:"required"`
	PeaksSearchSettings      *PeaksSettings            `json:"peaksSearchSettings"`
	ChemicalElementsSettings *ChemicalElementsSettings `json:"chemicalElementsSettings"`
}

type CreateComparisonRequest struct {
	ResearchID     string `json:"researchID" validate:"required"`
	BaseResearchID string `json:"baseResearchID" validate:"required"`
	ExperimentID   string `json:"experimentID" validate:"required"`
}

// Response types

// Collection wraps a page of items
type Collection[T any] struct {
	Items      []T    `json:"items"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	TotalCount int    `json:"totalCount"`
	Type       string `json:"type"`
}

func NewCollection[T any](items []T, limit, offset, total int) Collection[T] {
	if items == nil {
		items = []T{}
	}
	return Collection[T]{
		Items:      items,
		Limit:      limit,
		Offset:     offset,
		TotalCount: total,
		Type:       TypeCollection,
	}
}

type HealthResponse struct {
	OK bool `json:"ok"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
