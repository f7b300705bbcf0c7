// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the researches API.

# Handler Types

Each handler is a struct over the store and, where analysis is involved,
the engine or comparison controller:

  - ResearchHandler: Research CRUD, copy and supported types
  - ExperimentHandler: Experiment CRUD with analysis on create and update
  - ComparisonHandler: Comparison lifecycle and analysis service callbacks
  - HealthHandler: Liveness and database readiness

Handlers are created via constructor functions:

	researches := handlers.NewResearchHandler(st)
	experiments := handlers.NewExperimentHandler(st, analysis.NewEngine(client))

# Ownership

Every route except the health checks and the research type listing runs
behind middleware.RequireAuth.
Records are scoped to the token's user id; another owner's record answers
404, never 403.

# Experiments

	POST  /experiments      → Create (fills default settings, finds peaks, matches elements)
	PATCH /experiments/{id} → Update (re-runs only the stages whose inputs changed)

An analysis service failure answers 502 and leaves the stored record as it was.

# Comparisons

	POST  /comparisons                      → Create (links the research, triggers)
	GET   /comparisons/{id}                 → Get (re-triggers when the lock is stale)
	PATCH /comparisons/{id}/actualization   → Actualize (progress)
	PATCH /comparisons/{id}/finalization    → Finalize (similarities, once)

Changing a finished comparison answers 400.

# Lists

List endpoints accept query (fuzzy match), limit, offset and researchID
(comma separated) and answer a models.Collection.
*/
package handlers
