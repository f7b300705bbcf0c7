// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db manages database schema creation.

# Schema

CreateSchema creates all required tables:

	err := db.CreateSchema(dbConn)

Uses CREATE TABLE IF NOT EXISTS, so it's safe to call on every startup.
The same DDL runs on PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).

# Tables

  - researches: owner-scoped projects, files as JSON, optional comparison_id
  - experiments: settings and derived peak/element layers as JSON text
  - comparisons: progress counters, lock timestamp, finished flag, similarities

Records are keyed by short generated ids (TEXT primary keys). Secondary
indexes cover owner lookups and the parent references used for listing
and cascading deletes (research_id, experiment_id, file_id).

Deletes cascade in application code (see package store) rather than via
foreign keys, since experiments and comparisons may reference records of
other owners' researches only by id.
*/
package db
