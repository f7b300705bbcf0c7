// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateResearch(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name: "valid research",
			body: models.CreateResearchRequest{
				Name:  "Steel samples",
				Files: []models.ResearchFile{{ID: "f1", Type: "spectrum"}},
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "explicit type",
			body:           models.CreateResearchRequest{ResearchType: "zaidel", Name: "Typed"},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "missing name",
			body:           models.CreateResearchRequest{Description: "no name"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unsupported type",
			body:           models.CreateResearchRequest{ResearchType: "raman", Name: "Other"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "file without id",
			body:           models.CreateResearchRequest{Name: "Files", Files: []models.ResearchFile{{Type: "spectrum"}}},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "name too long",
			body:           models.CreateResearchRequest{Name: strings.Repeat("a", 257)},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, "POST", "/researches", tt.body, "alice")
			testutil.AssertStatus(t, w, tt.expectedStatus)

			if tt.expectedStatus == http.StatusCreated {
				var resp map[string]interface{}
				testutil.AssertJSON(t, w, &resp)
				assert.NotEmpty(t, resp["id"])
				assert.Equal(t, "alice", resp["ownerID"])
				assert.Equal(t, "zaidel", resp["researchType"])
				assert.Equal(t, "research", resp["type"])
			}
		})
	}
}

func TestCreateResearchInvalidJSON(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("POST", "/researches", strings.NewReader("{invalid json"))
	req.Header.Set("Authorization", testutil.AuthHeader(t, "alice"))
	w := httptest.NewRecorder()
	env.mux.ServeHTTP(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetResearchOwnership(t *testing.T) {
	env := newTestEnv(t)
	id := testutil.CreateTestResearch(t, env.db, "alice", "Mine")

	w := env.do(t, "GET", "/researches/"+id, nil, "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	var research models.Research
	testutil.AssertJSON(t, w, &research)
	assert.Equal(t, "Mine", research.Name)
	require.Len(t, research.Files, 1)

	w = env.do(t, "GET", "/researches/"+id, nil, "bob")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	var errResp models.ErrorResponse
	testutil.AssertJSON(t, w, &errResp)
	assert.Equal(t, "Research not found", errResp.Message)
}

func TestListResearches(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateTestResearch(t, env.db, "alice", "Copper alloys")
	testutil.CreateTestResearch(t, env.db, "alice", "Iron ore")
	testutil.CreateTestResearch(t, env.db, "alice", "Copper wire")
	testutil.CreateTestResearch(t, env.db, "bob", "Copper foreign")

	w := env.do(t, "GET", "/researches?limit=2", nil, "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	var page models.Collection[models.Research]
	testutil.AssertJSON(t, w, &page)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, 2, page.Limit)
	assert.Equal(t, "collection", page.Type)

	w = env.do(t, "GET", "/researches?query=cpr", nil, "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	page = models.Collection[models.Research]{}
	testutil.AssertJSON(t, w, &page)
	assert.Equal(t, 2, page.TotalCount)
	for _, r := range page.Items {
		assert.Contains(t, r.Name, "Copper")
	}
}

func TestUpdateResearch(t *testing.T) {
	env := newTestEnv(t)
	id := testutil.CreateTestResearch(t, env.db, "alice", "Before")

	w := env.do(t, "PATCH", "/researches/"+id, map[string]interface{}{"name": "After"}, "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	var research models.Research
	testutil.AssertJSON(t, w, &research)
	assert.Equal(t, "After", research.Name)
	assert.Equal(t, "A test research", research.Description)

	w = env.do(t, "PATCH", "/researches/"+id, map[string]interface{}{"researchType": "raman"}, "alice")
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = env.do(t, "PATCH", "/researches/"+id, map[string]interface{}{"name": "Stolen"}, "bob")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDeleteResearchCascades(t *testing.T) {
	env := newTestEnv(t)
	id := testutil.CreateTestResearch(t, env.db, "alice", "Doomed")
	expID := testutil.CreateTestExperiment(t, env.db, "alice", id, "Exp")
	cmpID := testutil.CreateTestComparison(t, env.db, "alice", id, expID, nil)

	w := env.do(t, "DELETE", "/researches/"+id, nil, "bob")
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = env.do(t, "DELETE", "/researches/"+id, nil, "alice")
	testutil.AssertStatus(t, w, http.StatusNoContent)

	testutil.AssertStatus(t, env.do(t, "GET", "/researches/"+id, nil, "alice"), http.StatusNotFound)
	testutil.AssertStatus(t, env.do(t, "GET", "/experiments/"+expID, nil, "alice"), http.StatusNotFound)
	testutil.AssertStatus(t, env.do(t, "GET", "/comparisons/"+cmpID, nil, "alice"), http.StatusNotFound)
}

func TestCopyResearch(t *testing.T) {
	env := newTestEnv(t)
	id := testutil.CreateTestResearch(t, env.db, "alice", "Original")
	testutil.CreateTestExperiment(t, env.db, "alice", id, "Exp A")
	testutil.CreateTestExperiment(t, env.db, "alice", id, "Exp B")

	w := env.do(t, "POST", "/researches/"+id+"/copy", nil, "alice")
	testutil.AssertStatus(t, w, http.StatusCreated)

	var copied models.Research
	testutil.AssertJSON(t, w, &copied)
	assert.NotEqual(t, id, copied.ID)
	assert.Equal(t, "Original", copied.Name)
	assert.Nil(t, copied.ComparisonID)

	w = env.do(t, "GET", "/experiments?researchID="+copied.ID, nil, "alice")
	testutil.AssertStatus(t, w, http.StatusOK)

	var page models.Collection[map[string]interface{}]
	testutil.AssertJSON(t, w, &page)
	assert.Equal(t, 2, page.TotalCount)

	w = env.do(t, "POST", "/researches/"+id+"/copy", nil, "bob")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSupportedTypes(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/researches/supportedTypes", nil, "")
	testutil.AssertStatus(t, w, http.StatusOK)

	var types map[string]string
	testutil.AssertJSON(t, w, &types)
	assert.Equal(t, map[string]string{"zaidel": "zaidel"}, types)
}
