// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package zaidel

import "github.com/danielhkuo/researches/models"

// FindPeaksRequest is the body of POST /peaks
type FindPeaksRequest struct {
	OwnerID  string                `json:"ownerID"`
	FileID   string                `json:"fileID"`
	Settings *models.PeaksSettings `json:"settings"`
}

type FindPeaksResponse struct {
	Peaks []models.Peak `json:"peaks"`
}

// MatchElementsRequest is the body of POST /spectrumlines
type MatchElementsRequest struct {
	Peaks    []models.Peak                    `json:"peaks"`
	Settings *models.ChemicalElementsSettings `json:"settings"`
}

type MatchElementsResponse struct {
	PeaksCount        int                       `json:"peaksCount"`
	PeaksWithElements []models.PeakWithElements `json:"peaksWithElements"`
	AutoSuggestions   []models.ElementWithPeak  `json:"autoSuggestions"`
}

// TriggerComparisonRequest is the body of POST /comparisons/trigger
type TriggerComparisonRequest struct {
	ID string `json:"id"`
}
