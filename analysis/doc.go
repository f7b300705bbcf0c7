// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package analysis keeps an experiment's derived data in step with its settings.

An experiment has three derived layers, each fed by the one before:

	peaksSearchSettings      -> peaks
	peaks + elementSettings  -> matchedElementsPerPeak, autoSuggestions
	matched + suggestions    -> experimentResults

Engine.Initialize computes all three for a new experiment. Engine.Reconcile
takes a patch and recomputes only the stale layers, calling the analysis
service no more than needed. MergeResults is the last step and does no I/O.

Settings are compared by value with absent sub-fields ignored, so sending
back the stored settings triggers nothing.
*/
package analysis
