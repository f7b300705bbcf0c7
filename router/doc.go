// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the researches API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, zaidel.NewHTTPClient(zcfg))

The client is the analysis service; tests pass a fake.

# Endpoints

Health and metrics (public):

	GET /health         - Liveness, plain "OK"
	GET /service/health - {"ok":true} while the database answers
	GET /metrics        - Prometheus exposition

Researches (bearer token, except supportedTypes):

	GET    /researches/supportedTypes - Research types
	GET    /researches                - List
	POST   /researches                - Create
	GET    /researches/{id}           - Get
	PATCH  /researches/{id}           - Update
	DELETE /researches/{id}           - Delete with experiments and comparisons
	POST   /researches/{id}/copy      - Duplicate with experiments

Experiments (bearer token):

	GET    /experiments      - List summaries
	POST   /experiments      - Create and analyse
	GET    /experiments/{id} - Get
	PATCH  /experiments/{id} - Update and re-analyse
	DELETE /experiments/{id} - Delete

Comparisons (bearer token):

	GET    /comparisons                    - List
	POST   /comparisons                    - Create and trigger
	GET    /comparisons/{id}               - Get, re-trigger when stale
	DELETE /comparisons/{id}               - Delete
	PATCH  /comparisons/{id}/actualization - Progress callback
	PATCH  /comparisons/{id}/finalization  - Result callback

Every route except GET /health and GET /metrics runs through
middleware.WithLogging.
*/
package router
