// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/researches/auth"
	"github.com/danielhkuo/researches/cliparse"
	"github.com/danielhkuo/researches/db"
	_ "modernc.org/sqlite"
)

// TestSecret signs every token minted by the helpers below
const TestSecret = "test-token-secret"

// SetupTestDB creates a fresh SQLite database with the full schema. Each test
// gets its own file, removed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "researches.db")
	conn, err := sql.Open("sqlite", "file:"+path+"?_time_format=sqlite")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps transactions and plain queries on the same handle
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:                 3318,
		DatabaseURL:          "file::memory:",
		DatabaseType:         cliparse.DatabaseSQLite,
		TokenSecret:          TestSecret,
		ZaidelServiceURL:     "http://zaidel.test",
		ZaidelTimeout:        5 * time.Second,
		SettingsCacheTTL:     time.Minute,
		ComparisonLockWindow: 24 * time.Hour,
	}
}

// AuthHeader mints a token for the given user and returns the full
// Authorization header value
func AuthHeader(t *testing.T, userID string) string {
	t.Helper()

	token, err := auth.IssueToken(userID, userID+"@example.com", []string{"user"}, TestSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to issue test token: %v", err)
	}
	return "Bearer " + token
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
