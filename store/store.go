// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Default page size for list queries
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store persists researches, experiments and comparisons. Every method
// scopes its query by owner id; a record owned by someone else behaves
// exactly like a missing one.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// ListOptions controls paging and search for list queries
type ListOptions struct {
	Query       string
	Limit       int
	Offset      int
	ResearchIDs []string
}

// Normalized applies the default and maximum page size
func (o ListOptions) Normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Limit > MaxLimit {
		o.Limit = MaxLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// timestamp returns the current time at the precision every backend keeps
func (s *Store) timestamp() time.Time {
	return s.now().Truncate(time.Microsecond)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// fuzzyPattern turns "abc" into the LIKE pattern "%a%b%c%", matching any
// value that contains the query characters in order.
func fuzzyPattern(query string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, r := range strings.ToLower(query) {
		switch r {
		case '%', '_', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
		b.WriteByte('%')
	}
	return b.String()
}

// searchClause builds "(LOWER(a) LIKE $n ESCAPE '\' OR ...)" for the given
// columns, appending the pattern to args.
func searchClause(query string, columns []string, args []any) (string, []any) {
	args = append(args, fuzzyPattern(query))
	n := len(args)
	parts := make([]string, len(columns))
	for i, col := range columns {
		parts[i] = fmt.Sprintf(`LOWER(%s) LIKE $%d ESCAPE '\'`, col, n)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// inClause builds "col IN ($n, $n+1, ...)"
func inClause(column string, values []string, args []any) (string, []any) {
	placeholders := make([]string, len(values))
	for i, v := range values {
		args = append(args, v)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	return fmt.Sprintf("%s IN (%s)", column, strings.Join(placeholders, ", ")), args
}

func encodeJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeJSON(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
