// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/testutil"
	"github.com/danielhkuo/researches/zaidel"
)

// TestConcurrentExperimentCreation verifies that simultaneous creates under one
// research each get their own record and analysis calls
func TestConcurrentExperimentCreation(t *testing.T) {
	env := newTestEnv(t)
	researchID := testutil.CreateTestResearch(t, env.db, "alice", "Busy research")
	header := map[string]string{"Authorization": testutil.AuthHeader(t, "alice")}

	numCreates := 10
	var successCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numCreates; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := testutil.MakeRequest("POST", "/experiments", models.CreateExperimentRequest{
				Name:       fmt.Sprintf("Sample %d", idx),
				ResearchID: researchID,
				FileID:     "file-1",
			}, header)
			w := httptest.NewRecorder()
			env.mux.ServeHTTP(w, req)

			if w.Code == http.StatusCreated {
				successCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if int(successCount.Load()) != numCreates {
		t.Errorf("Expected %d successful creates, got %d", numCreates, successCount.Load())
	}

	var count int
	err := env.db.QueryRow("SELECT COUNT(*) FROM experiments WHERE research_id = $1", researchID).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count experiments: %v", err)
	}
	if count != numCreates {
		t.Errorf("Expected %d experiments in database, got %d", numCreates, count)
	}

	if calls := env.fake.Calls(zaidel.OpFindPeaks); calls != numCreates {
		t.Errorf("Expected %d peak searches, got %d", numCreates, calls)
	}
}

// TestConcurrentFinalization verifies that when several finalizations race,
// exactly one wins and the rest see a finished comparison
func TestConcurrentFinalization(t *testing.T) {
	env := newTestEnv(t)
	researchID := testutil.CreateTestResearch(t, env.db, "alice", "Research")
	expID := testutil.CreateTestExperiment(t, env.db, "alice", researchID, "Exp")
	id := testutil.CreateTestComparison(t, env.db, "alice", researchID, expID, nil)
	header := map[string]string{"Authorization": testutil.AuthHeader(t, "alice")}

	numAttempts := 5
	var successCount, rejectedCount atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numAttempts; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			req := testutil.MakeRequest("PATCH", "/comparisons/"+id+"/finalization", models.Finalization{
				Progress: models.Progress{Total: 2, Processed: 2},
				Similarities: []models.Similarity{
					{P: float64(10 * (idx + 1)), EID: expID, RID: researchID},
				},
			}, header)
			w := httptest.NewRecorder()
			env.mux.ServeHTTP(w, req)

			switch w.Code {
			case http.StatusNoContent:
				successCount.Add(1)
			case http.StatusBadRequest:
				rejectedCount.Add(1)
			}
		}(i)
	}

	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 successful finalization, got %d", successCount.Load())
	}
	if int(rejectedCount.Load()) != numAttempts-1 {
		t.Errorf("Expected %d rejected finalizations, got %d", numAttempts-1, rejectedCount.Load())
	}

	var similarities string
	err := env.db.QueryRow("SELECT similarities FROM comparisons WHERE id = $1", id).Scan(&similarities)
	if err != nil {
		t.Fatalf("Failed to read similarities: %v", err)
	}
	if similarities == "[]" {
		t.Error("Expected similarities from the winning finalization")
	}
}

// TestParallelResearches verifies that several owners working at once only
// ever see their own records
func TestParallelResearches(t *testing.T) {
	env := newTestEnv(t)

	owners := []string{"alice", "bob", "carol", "dave"}
	perOwner := 3
	headers := make(map[string]map[string]string, len(owners))
	for _, o := range owners {
		headers[o] = map[string]string{"Authorization": testutil.AuthHeader(t, o)}
	}

	var wg sync.WaitGroup
	for _, owner := range owners {
		wg.Add(1)
		go func(owner string) {
			defer wg.Done()
			for i := 0; i < perOwner; i++ {
				req := testutil.MakeRequest("POST", "/researches", models.CreateResearchRequest{
					Name: fmt.Sprintf("%s research %d", owner, i),
				}, headers[owner])
				env.mux.ServeHTTP(httptest.NewRecorder(), req)
			}
		}(owner)
	}
	wg.Wait()

	for _, owner := range owners {
		w := httptest.NewRecorder()
		env.mux.ServeHTTP(w, testutil.MakeRequest("GET", "/researches", nil, headers[owner]))
		testutil.AssertStatus(t, w, http.StatusOK)

		var page models.Collection[models.Research]
		testutil.AssertJSON(t, w, &page)
		if page.TotalCount != perOwner {
			t.Errorf("%s: expected %d researches, got %d", owner, perOwner, page.TotalCount)
		}
		for _, r := range page.Items {
			if r.OwnerID != owner {
				t.Errorf("%s: saw research owned by %s", owner, r.OwnerID)
			}
		}
	}
}
