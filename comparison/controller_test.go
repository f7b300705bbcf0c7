// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package comparison

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/researches/models"
	"github.com/danielhkuo/researches/store"
	"github.com/danielhkuo/researches/testutil"
	"github.com/danielhkuo/researches/zaidel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner-1"

type fixture struct {
	db         *sql.DB
	ctrl       *Controller
	store      *store.Store
	fake       *testutil.FakeAnalyzer
	now        time.Time
	researchID string
	expID      string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := store.New(db)
	fake := testutil.NewFakeAnalyzer()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	ctrl := NewController(s, fake, 24*time.Hour)
	ctrl.now = func() time.Time { return now }

	researchID := testutil.CreateTestResearch(t, db, owner, "Research")
	expID := testutil.CreateTestExperiment(t, db, owner, researchID, "Experiment")

	return &fixture{db: db, ctrl: ctrl, store: s, fake: fake, now: now, researchID: researchID, expID: expID}
}

func TestGetOrTrigger_LockWindow(t *testing.T) {
	tests := []struct {
		name        string
		lockedAgo   time.Duration
		neverLocked bool
		wantTrigger bool
	}{
		{"never_locked", 0, true, true},
		{"locked_23h_ago", 23 * time.Hour, false, false},
		{"locked_25h_ago", 25 * time.Hour, false, true},
		{"locked_exactly_24h_ago", 24 * time.Hour, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)

			var lockedAt *time.Time
			if !tt.neverLocked {
				at := f.now.Add(-tt.lockedAgo)
				lockedAt = &at
			}
			id := testutil.CreateTestComparison(t, f.db, owner, f.researchID, f.expID, lockedAt)

			cmp, err := f.ctrl.GetOrTrigger(context.Background(), id, owner, "Bearer x")
			require.NoError(t, err)

			stored, err := f.store.GetComparison(context.Background(), id, owner)
			require.NoError(t, err)
			require.NotNil(t, stored.LockedAt)

			if tt.wantTrigger {
				assert.Equal(t, []string{id}, f.fake.Triggered())
				require.NotNil(t, cmp.LockedAt)
				assert.True(t, f.now.Equal(*cmp.LockedAt))
				assert.True(t, f.now.Equal(*stored.LockedAt))
			} else {
				assert.Empty(t, f.fake.Triggered())
				assert.True(t, lockedAt.Equal(*stored.LockedAt))
			}
		})
	}
}

func TestGetOrTrigger_FinishedNeverTriggers(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)
	finish(t, f, id)

	cmp, err := f.ctrl.GetOrTrigger(context.Background(), id, owner, "Bearer x")
	require.NoError(t, err)
	assert.True(t, cmp.Finished)
	assert.Nil(t, cmp.LockedAt)
	assert.Empty(t, f.fake.Triggered())
}

func TestGetOrTrigger_TriggerFailureSwallowed(t *testing.T) {
	f := setup(t)
	f.fake.Errs[zaidel.OpTriggerComparison] = &zaidel.UpstreamError{Op: zaidel.OpTriggerComparison, StatusCode: 500}

	id := createComparison(t, f)

	cmp, err := f.ctrl.GetOrTrigger(context.Background(), id, owner, "Bearer x")
	require.NoError(t, err)
	require.NotNil(t, cmp.LockedAt)
	assert.Equal(t, 1, f.fake.Calls(zaidel.OpTriggerComparison))
}

func TestGetOrTrigger_OtherOwner(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)

	_, err := f.ctrl.GetOrTrigger(context.Background(), id, "someone-else", "Bearer x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.fake.Triggered())
}

func TestCreate_TriggersAndLinksResearch(t *testing.T) {
	f := setup(t)

	cmp, err := f.ctrl.Create(context.Background(), models.Comparison{
		OwnerID:        owner,
		ResearchID:     f.researchID,
		BaseResearchID: f.researchID,
		ExperimentID:   f.expID,
	}, "Bearer x")
	require.NoError(t, err)

	assert.NotEmpty(t, cmp.ID)
	assert.False(t, cmp.Finished)
	require.NotNil(t, cmp.LockedAt)
	assert.Equal(t, []string{cmp.ID}, f.fake.Triggered())
	assert.Equal(t, []string{"Bearer x"}, f.fake.AuthHeaders())

	research, err := f.store.GetResearch(context.Background(), f.researchID, owner)
	require.NoError(t, err)
	require.NotNil(t, research.ComparisonID)
	assert.Equal(t, cmp.ID, *research.ComparisonID)
}

func TestCreate_ForeignResearch(t *testing.T) {
	f := setup(t)

	_, err := f.ctrl.Create(context.Background(), models.Comparison{
		OwnerID:        "intruder",
		ResearchID:     f.researchID,
		BaseResearchID: f.researchID,
		ExperimentID:   f.expID,
	}, "Bearer x")
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.fake.Triggered())

	list, total, err := f.store.ListComparisons(context.Background(), "intruder", store.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, 0, total)
}

func TestActualize(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)

	require.NoError(t, f.ctrl.Actualize(context.Background(), id, owner, models.Progress{Total: 10, Processed: 4}))

	cmp, err := f.store.GetComparison(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, 10, cmp.Total)
	assert.Equal(t, 4, cmp.Processed)
	assert.False(t, cmp.Finished)
}

func TestFinalize(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)

	sims := []models.Similarity{
		{P: 91.5, EID: "e1", EName: "first", RID: "r1", RName: "alpha"},
		{P: 12, EID: "e2", EName: "second", RID: "r2", RName: "beta"},
	}
	require.NoError(t, f.ctrl.Finalize(context.Background(), id, owner, models.Finalization{
		Progress:     models.Progress{Total: 2, Processed: 2},
		Similarities: sims,
	}))

	cmp, err := f.store.GetComparison(context.Background(), id, owner)
	require.NoError(t, err)
	assert.True(t, cmp.Finished)
	require.NotNil(t, cmp.FinishedAt)
	assert.Equal(t, 2, cmp.Total)
	assert.Equal(t, 2, cmp.Processed)
	assert.Equal(t, sims, cmp.Similarities)
}

func TestFinishedRejectsChanges(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)
	finish(t, f, id)

	before, err := f.store.GetComparison(context.Background(), id, owner)
	require.NoError(t, err)

	err = f.ctrl.Actualize(context.Background(), id, owner, models.Progress{Total: 99, Processed: 1})
	assert.ErrorIs(t, err, ErrFinished)

	err = f.ctrl.Finalize(context.Background(), id, owner, models.Finalization{
		Progress:     models.Progress{Total: 5, Processed: 5},
		Similarities: []models.Similarity{{P: 1, EID: "x", RID: "y"}},
	})
	assert.ErrorIs(t, err, ErrFinished)

	after, err := f.store.GetComparison(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTransitions_NotFound(t *testing.T) {
	f := setup(t)
	id := createComparison(t, f)

	err := f.ctrl.Actualize(context.Background(), id, "someone-else", models.Progress{Total: 1})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, errors.Is(err, ErrFinished))

	err = f.ctrl.Finalize(context.Background(), "missing", owner, models.Finalization{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func createComparison(t *testing.T, f *fixture) string {
	t.Helper()
	cmp := models.Comparison{
		OwnerID:        owner,
		ResearchID:     f.researchID,
		BaseResearchID: f.researchID,
		ExperimentID:   f.expID,
	}
	require.NoError(t, f.store.CreateComparison(context.Background(), &cmp))
	return cmp.ID
}

func finish(t *testing.T, f *fixture, id string) {
	t.Helper()
	require.NoError(t, f.store.FinalizeComparison(context.Background(), id, owner, models.Finalization{
		Progress:     models.Progress{Total: 3, Processed: 3},
		Similarities: []models.Similarity{{P: 50, EID: "e", RID: "r"}},
	}))
}
