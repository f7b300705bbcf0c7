// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/danielhkuo/researches/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createComparison(t *testing.T, s *Store, owner, researchID string) models.Comparison {
	t.Helper()
	c := models.Comparison{OwnerID: owner, ResearchID: researchID, BaseResearchID: researchID, ExperimentID: "exp"}
	require.NoError(t, s.CreateComparison(context.Background(), &c))
	return c
}

func TestCreateComparison_LinksResearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := createResearch(t, s, "alice", "Research")

	c := createComparison(t, s, "alice", r.ID)
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.Finished)
	assert.Nil(t, c.LockedAt)
	assert.NotNil(t, c.Similarities)

	got, err := s.GetComparison(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, c, got)

	research, err := s.GetResearch(ctx, r.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, research.ComparisonID)
	assert.Equal(t, c.ID, *research.ComparisonID)
}

func TestCreateComparison_ForeignResearchRollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := createResearch(t, s, "alice", "Research")

	c := models.Comparison{OwnerID: "bob", ResearchID: r.ID, BaseResearchID: r.ID, ExperimentID: "exp"}
	err := s.CreateComparison(ctx, &c)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetComparison(ctx, c.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	research, err := s.GetResearch(ctx, r.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, research.ComparisonID)
}

func TestListComparisons(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r1 := createResearch(t, s, "alice", "One")
	r2 := createResearch(t, s, "alice", "Two")
	c1 := createComparison(t, s, "alice", r1.ID)
	c2 := createComparison(t, s, "alice", r2.ID)

	items, total, err := s.ListComparisons(ctx, "alice", ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, c2.ID, items[0].ID)
	assert.Equal(t, c1.ID, items[1].ID)

	items, total, err = s.ListComparisons(ctx, "alice", ListOptions{ResearchIDs: []string{r1.ID}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, c1.ID, items[0].ID)

	items, _, err = s.ListComparisons(ctx, "bob", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestComparisonTransitions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := createResearch(t, s, "alice", "Research")
	c := createComparison(t, s, "alice", r.ID)

	lockedAt := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)
	require.NoError(t, s.LockComparison(ctx, c.ID, "alice", lockedAt))
	require.NoError(t, s.ActualizeComparison(ctx, c.ID, "alice", models.Progress{Total: 4, Processed: 1}))

	got, err := s.GetComparison(ctx, c.ID, "alice")
	require.NoError(t, err)
	require.NotNil(t, got.LockedAt)
	assert.True(t, lockedAt.Equal(*got.LockedAt))
	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 1, got.Processed)

	sims := []models.Similarity{{P: 75, EID: "e", EName: "exp", RID: "r", RName: "res"}}
	require.NoError(t, s.FinalizeComparison(ctx, c.ID, "alice", models.Finalization{
		Progress:     models.Progress{Total: 4, Processed: 4},
		Similarities: sims,
	}))

	finished, err := s.GetComparison(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.True(t, finished.Finished)
	require.NotNil(t, finished.FinishedAt)
	assert.Equal(t, sims, finished.Similarities)

	// Guarded updates leave a finished row alone
	assert.ErrorIs(t, s.ActualizeComparison(ctx, c.ID, "alice", models.Progress{Total: 9}), ErrNotFound)
	assert.ErrorIs(t, s.FinalizeComparison(ctx, c.ID, "alice", models.Finalization{}), ErrNotFound)
	assert.ErrorIs(t, s.LockComparison(ctx, c.ID, "alice", time.Now()), ErrNotFound)

	after, err := s.GetComparison(ctx, c.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, finished, after)
}

func TestDeleteComparison_ClearsResearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	r := createResearch(t, s, "alice", "Research")
	c := createComparison(t, s, "alice", r.ID)

	assert.ErrorIs(t, s.DeleteComparison(ctx, c.ID, "bob"), ErrNotFound)
	require.NoError(t, s.DeleteComparison(ctx, c.ID, "alice"))

	_, err := s.GetComparison(ctx, c.ID, "alice")
	assert.ErrorIs(t, err, ErrNotFound)

	research, err := s.GetResearch(ctx, r.ID, "alice")
	require.NoError(t, err)
	assert.Nil(t, research.ComparisonID)
}
