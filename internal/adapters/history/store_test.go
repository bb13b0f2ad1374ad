package history_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"zr/internal/adapters/history"
	"zr/internal/core/domain"
)

func appendRun(t *testing.T, s *history.Store, root, task string, start time.Time, dur time.Duration) {
	t.Helper()
	err := s.Append(root, domain.RunRecord{
		TaskName:  task,
		StartedAt: start,
		EndedAt:   start.Add(dur),
		Status:    domain.RunSucceeded,
	})
	require.NoError(t, err)
}

func TestStore_AppendAndEstimate(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		appendRun(t, s, root, "build", base.Add(time.Duration(i)*time.Hour), 10*time.Second)
	}

	est, err := s.Estimate(root, "build", 10)
	require.NoError(t, err)
	assert.Equal(t, "build", est.TaskName)
	assert.Equal(t, 5, est.SampleSize)
	assert.Equal(t, 10*time.Second, est.Mean)
	assert.Equal(t, time.Duration(0), est.StdDev)
}

func TestStore_Estimate_NoHistory(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()

	_, err := s.Estimate(root, "unknown", 10)
	assert.ErrorIs(t, err, domain.ErrNoHistory)
}

func TestStore_Estimate_FiltersByTaskName(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	appendRun(t, s, root, "build", base, 10*time.Second)
	appendRun(t, s, root, "test", base, 99*time.Second)

	est, err := s.Estimate(root, "build", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, est.SampleSize)
	assert.Equal(t, 10*time.Second, est.Mean)
}

func TestStore_Estimate_RespectsLimit(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		dur := time.Duration(i+1) * time.Second
		appendRun(t, s, root, "build", base.Add(time.Duration(i)*time.Hour), dur)
	}

	est, err := s.Estimate(root, "build", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, est.SampleSize)
	// Last 5 runs have durations 16s..20s, mean = 18s.
	assert.Equal(t, 18*time.Second, est.Mean)
}

func TestStore_Estimate_TrimsOutliers(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		appendRun(t, s, root, "flaky", base.Add(time.Duration(i)*time.Hour), 10*time.Second)
	}
	// One wild outlier shouldn't dominate the mean once trimmed.
	appendRun(t, s, root, "flaky", base.Add(11*time.Hour), 10*time.Hour)

	est, err := s.Estimate(root, "flaky", 20)
	require.NoError(t, err)
	assert.Less(t, est.Mean, time.Minute)
}

func TestStore_Append_TolerantOfPartialLastLine(t *testing.T) {
	root := t.TempDir()
	s := history.NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	appendRun(t, s, root, "build", base, 10*time.Second)

	path := filepath.Join(root, domain.DefaultHistoryPath())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(`{"task_name":"build","started_at":"20`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	est, err := s.Estimate(root, "build", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, est.SampleSize)
}
