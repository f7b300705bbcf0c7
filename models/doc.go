// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

  - Research: user-owned project grouping experiments and an optional comparison
  - Experiment: one spectral file analysis with settings and derived layers
  - Comparison: asynchronous similarity job over the experiments of a research

Experiments carry three derived layers, each computed from the one above:

	peaksSearchSettings      → peaks
	peaks + chemical settings → matchedElementsPerPeak, autoSuggestions
	matched + suggestions     → experimentResults

# Derived Type Tag

Research and Experiment add a "type" field when marshalled ("research",
"experiment"). It is never stored.

# Partial Updates

Patch types use pointer fields (or nil slices) so an absent field is
distinguishable from a zero value:

  - ResearchPatch: researchType, name, description, files
  - ExperimentPatch: name, description, both settings, matchedElementsPerPeak
  - ExperimentUpdate: fields to persist after reconciliation

# Validation

Request types expose Validate(), backed by go-playground/validator tags.

# Collections

List endpoints respond with Collection[T]:

	{"items": [...], "limit": 100, "offset": 0, "totalCount": 3, "type": "collection"}
*/
package models
