// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store persists researches, experiments and comparisons with
database/sql.

Queries are plain SQL with $N placeholders and run unchanged on PostgreSQL
(lib/pq) and SQLite (modernc.org/sqlite). Document-shaped fields such as
settings, peaks and similarities are stored as JSON text.

Every lookup takes the caller's owner id. A record owned by someone else
behaves exactly like a missing one and yields ErrNotFound.

Operations that touch more than one table run in a transaction:

  - DeleteResearch removes the research with its experiments and comparisons
  - CopyResearch duplicates a research and its experiments
  - CreateComparison inserts and links the comparison to its research
  - DeleteComparison removes it and clears the research reference

Single-record updates are not transactional. Concurrent patches of one
experiment are last-write-wins per column.
*/
package store
