package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mjardine/gemsync/internal/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	require.NoError(t, s.Initialize())
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSummary(runID string) *models.RunSummary {
	s := &models.RunSummary{
		RunID:      runID,
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		FinishedAt: time.Now().UTC(),
	}
	s.Add(&models.GroupResult{
		GroupID:     "WB100",
		Outcome:     models.OutcomeCreated,
		PlatformID:  "gid://shopify/Product/1",
		Fingerprint: "fp-1",
		Variants:    3,
		Metafields:  5,
	})
	s.Add(&models.GroupResult{
		GroupID:   "WB200",
		Outcome:   models.OutcomeFailed,
		ErrorKind: models.ErrKindValidation,
		Message:   "variant without SKU",
	})
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.SaveRun(sampleSummary("run-1")))

	got, err := s.GetRun("run-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Created)
	assert.Equal(t, 1, got.Failed)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "WB100", got.Results[0].GroupID)
	assert.Equal(t, models.OutcomeCreated, got.Results[0].Outcome)
	assert.Equal(t, 3, got.Results[0].Variants)
	assert.Equal(t, models.ErrKindValidation, got.Results[1].ErrorKind)
}

func TestGetRun_Missing(t *testing.T) {
	s := testStore(t)
	got, err := s.GetRun("no-such-run")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListRuns_NewestFirst(t *testing.T) {
	s := testStore(t)

	old := sampleSummary("run-old")
	old.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	old.FinishedAt = old.StartedAt.Add(time.Minute)
	require.NoError(t, s.SaveRun(old))
	require.NoError(t, s.SaveRun(sampleSummary("run-new")))

	runs, err := s.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-new", runs[0].RunID)
	assert.Equal(t, "run-old", runs[1].RunID)

	limited, err := s.ListRuns(1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-new", limited[0].RunID)
}

func TestGroupHistory(t *testing.T) {
	s := testStore(t)

	first := sampleSummary("run-1")
	first.StartedAt = time.Now().UTC().Add(-2 * time.Hour)
	require.NoError(t, s.SaveRun(first))
	require.NoError(t, s.SaveRun(sampleSummary("run-2")))

	history, err := s.GroupHistory("WB100", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OutcomeCreated, history[0].Outcome)

	none, err := s.GroupHistory("WB999", 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
