package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrequencyOrderingAndTies(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	a := mustCreate(t, s, "Docking Station", 100)
	b := mustCreate(t, s, "Monitor", 100)
	c := mustCreate(t, s, "Keyboard", 100)

	for i := 0; i < 3; i++ {
		_, err := s.Issue(ctx, testActor, permanentIssue(b.ID, 1))
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.Issue(ctx, testActor, permanentIssue(a.ID, 1))
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := s.Issue(ctx, testActor, permanentIssue(c.ID, 1))
		require.NoError(t, err)
	}

	freq := s.Frequency(0)
	require.Len(t, freq, 3)
	assert.Equal(t, b.ID, freq[0].ItemID)
	assert.Equal(t, 3, freq[0].Issuances)

	// Tie between a and c broken by item id ascending.
	assert.Equal(t, a.ID, freq[1].ItemID)
	assert.Equal(t, c.ID, freq[2].ItemID)

	top := s.Frequency(1)
	require.Len(t, top, 1)
	assert.Equal(t, "Monitor", top[0].ItemName)
}

func TestAverageHoldDaysRounding(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Projector", 10)
	idle := mustCreate(t, s, "Whiteboard", 10)

	issued := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	due := issued.Add(30 * 24 * time.Hour)

	// Sample 1: 69.6 hours floors to 2 days.
	rec, err := s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, due))
	require.NoError(t, err)
	_, err = s.Return(ctx, testActor, rec.ID, issued.Add(69*time.Hour+36*time.Minute))
	require.NoError(t, err)

	// Sample 2: exactly 5 days.
	rec, err = s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, due))
	require.NoError(t, err)
	_, err = s.Return(ctx, testActor, rec.ID, issued.Add(5*24*time.Hour))
	require.NoError(t, err)

	// Mean of 2 and 5 is 3.5, rounded to 4.
	durations := s.HoldDurations()
	require.Len(t, durations, 1)
	assert.Equal(t, item.ID, durations[0].ItemID)
	assert.Equal(t, 4, durations[0].AvgDays)
	assert.Equal(t, 2, durations[0].Samples)

	// Items without a returned temporary issuance are omitted, not zero.
	for _, d := range durations {
		assert.NotEqual(t, idle.ID, d.ItemID)
	}
}

func TestHoldDaysIgnoresPermanentAndOpen(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Projector", 10)

	// Permanent issuance, returned: not a hold-duration sample.
	rec, err := s.Issue(ctx, testActor, permanentIssue(item.ID, 1))
	require.NoError(t, err)
	_, err = s.Return(ctx, testActor, rec.ID, time.Time{})
	require.NoError(t, err)

	// Temporary but still open: not a sample either.
	issued := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	_, err = s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, issued.Add(24*time.Hour)))
	require.NoError(t, err)

	assert.Empty(t, s.HoldDurations())
}

func TestDiscrepancyCounts(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Docking Station", 10)
	clean := mustCreate(t, s, "Monitor", 10)

	_, err := s.Reconcile(ctx, testActor, item.ID, 9, "shelf recount")
	require.NoError(t, err)
	_, err = s.Reconcile(ctx, testActor, item.ID, 8, "damaged unit scrapped")
	require.NoError(t, err)

	// The silent exact-match path never counts as a discrepancy.
	_, err = s.Reconcile(ctx, testActor, clean.ID, 10, "")
	require.NoError(t, err)

	counts := s.DiscrepancyCounts(time.Time{})
	require.Len(t, counts, 1)
	assert.Equal(t, item.ID, counts[0].ItemID)
	assert.Equal(t, 2, counts[0].Adjustments)

	// A window in the future excludes the existing adjustments.
	assert.Empty(t, s.DiscrepancyCounts(time.Now().Add(time.Hour)))
}

func TestOverdueDerivation(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Projector", 10)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	issued := now.Add(-10 * 24 * time.Hour)

	yesterday := now.Add(-24 * time.Hour)
	rec, err := s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, yesterday))
	require.NoError(t, err)

	// Due in the future and permanent issuances never show up.
	future := now.Add(3 * 24 * time.Hour)
	_, err = s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, future))
	require.NoError(t, err)
	_, err = s.Issue(ctx, testActor, permanentIssue(item.ID, 1))
	require.NoError(t, err)

	overdue := s.Overdue(now)
	require.Len(t, overdue, 1)
	assert.Equal(t, rec.ID, overdue[0].ID)
	assert.GreaterOrEqual(t, overdue[0].DaysOverdue, 1)

	// After the return it disappears.
	_, err = s.Return(ctx, testActor, rec.ID, now)
	require.NoError(t, err)
	assert.Empty(t, s.Overdue(now))
}

func TestOverdueSortedMostOverdueFirst(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Projector", 10)

	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	issued := now.Add(-30 * 24 * time.Hour)

	lateByTwo := now.Add(-2 * 24 * time.Hour)
	lateByNine := now.Add(-9 * 24 * time.Hour)
	recTwo, err := s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, lateByTwo))
	require.NoError(t, err)
	recNine, err := s.Issue(ctx, testActor, temporaryIssue(item.ID, 1, issued, lateByNine))
	require.NoError(t, err)

	overdue := s.Overdue(now)
	require.Len(t, overdue, 2)
	assert.Equal(t, recNine.ID, overdue[0].ID)
	assert.Equal(t, 9, overdue[0].DaysOverdue)
	assert.Equal(t, recTwo.ID, overdue[1].ID)
	assert.Equal(t, 2, overdue[1].DaysOverdue)
}

func TestAnalyticsBundle(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	item := mustCreate(t, s, "Docking Station", 10)

	_, err := s.Issue(ctx, testActor, permanentIssue(item.ID, 1))
	require.NoError(t, err)
	_, err = s.Reconcile(ctx, testActor, item.ID, 8, "recount")
	require.NoError(t, err)

	a := s.Analytics(time.Now(), 5, 30*24*time.Hour)
	assert.Len(t, a.Frequency, 1)
	assert.Len(t, a.Discrepancies, 1)
	assert.Empty(t, a.HoldDurations)
	assert.Empty(t, a.Overdue)
}
