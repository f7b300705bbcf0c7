// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the researches API server.

The server stores spectral researches, the experiments run on their files
and comparisons between researches. Peak search, element matching and
comparison runs are delegated to the zaidel analysis service; this server
owns the records and decides when each analysis stage has to run again.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=researches.db TOKEN_SECRET=... ZAIDEL_SERVICE_URL=http://zaidel:8080 go run .

Or with flags:

	go run . -p 3000 -t postgres -d "postgres://..." --zaidel-service-url http://zaidel:8080

A .env file in the working directory is loaded first when present.

# Commands

	researches          Serve the API (default)
	researches migrate  Create the schema and exit
	researches token    Issue a bearer token for local testing

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - TOKEN_SECRET (--token-secret): Shared JWT secret
  - ZAIDEL_SERVICE_URL (--zaidel-service-url): Analysis service base URL

Optional settings:

  - PORT (-p): Server port (default: 3000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - ZAIDEL_TIMEOUT: Per-call timeout (default: 30s)
  - SETTINGS_CACHE_TTL: Default settings cache lifetime (default: 5m)
  - COMPARISON_LOCK_WINDOW: Minimum time between re-triggers (default: 24h)
  - LOG_LEVEL: debug, info, warn or error (default: info)

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (researches, experiments, comparisons)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, metrics, bearer auth, JSON helpers
  - models: Domain, request and response types with validation
  - store: SQL persistence scoped by owner
  - analysis: Experiment analysis pipeline and result merging
  - comparison: Comparison lifecycle and trigger lock
  - zaidel: Analysis service client
  - auth: Token parsing and id generation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
