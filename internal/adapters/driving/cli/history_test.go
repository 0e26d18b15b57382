package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// mockReportStore implements driven.ReportStore for testing.
type mockReportStore struct {
	runs    []domain.Run
	latest  *domain.Run
	listErr error
}

func (m *mockReportStore) SaveReport(_ context.Context, _ *domain.Report) error {
	return nil
}

func (m *mockReportStore) GetRun(_ context.Context, _ string) (*domain.Run, error) {
	return nil, domain.ErrNotFound
}

func (m *mockReportStore) ListRuns(_ context.Context) ([]domain.Run, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.runs, nil
}

func (m *mockReportStore) LatestRun(_ context.Context) (*domain.Run, error) {
	if m.latest == nil {
		return nil, domain.ErrNotFound
	}
	return m.latest, nil
}

func (m *mockReportStore) GetNearDuplicates(_ context.Context, _ string) ([]driven.StoredNearDuplicate, error) {
	return nil, nil
}

func (m *mockReportStore) ResolveNearDuplicate(_ context.Context, _ string, _ int, _ domain.Resolution) error {
	return nil
}

func (m *mockReportStore) Close() error {
	return nil
}

func setupHistoryTest(store driven.ReportStore) func() {
	oldStore := reportStore
	reportStore = store
	return func() {
		reportStore = oldStore
		historyJSON = false
	}
}

func historyFixture() []domain.Run {
	return []domain.Run{
		{
			ID:        "run-b",
			RootPath:  "/exports/2024",
			Threshold: 0.90,
			Stats: domain.RunStats{
				FilesProcessed:  12,
				UniqueAddresses: 40,
				NearDuplicates:  3,
			},
			StartedAt: time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC),
		},
		{
			ID:        "run-a",
			RootPath:  "/exports/2023",
			Threshold: 0.85,
			Stats: domain.RunStats{
				FilesProcessed:  7,
				UniqueAddresses: 21,
			},
			StartedAt: time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC),
		},
	}
}

func TestHistoryCmd_Use(t *testing.T) {
	assert.Equal(t, "history", historyCmd.Use)
}

func TestHistoryCmd_Short(t *testing.T) {
	assert.Equal(t, "List recorded scan runs", historyCmd.Short)
}

func TestHistoryCmd_StoreNotConfigured(t *testing.T) {
	cleanup := setupHistoryTest(nil)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "catalog not configured")
}

func TestHistoryCmd_Empty(t *testing.T) {
	cleanup := setupHistoryTest(&mockReportStore{})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "No runs recorded.")
}

func TestHistoryCmd_ListsRuns(t *testing.T) {
	cleanup := setupHistoryTest(&mockReportStore{runs: historyFixture()})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Found 2 run(s):")
	assert.Contains(t, output, "run-b")
	assert.Contains(t, output, "run-a")
	assert.Contains(t, output, "/exports/2024")
	assert.Contains(t, output, "Files: 12  Unique: 40  Near-duplicates: 3")
	assert.Contains(t, output, "2024-06-02 09:30:00")
}

func TestHistoryCmd_JSON(t *testing.T) {
	cleanup := setupHistoryTest(&mockReportStore{runs: historyFixture()})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"history", "--json"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)

	var runs []domain.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "run-b", runs[0].ID)
	assert.Equal(t, 40, runs[0].Stats.UniqueAddresses)
}

func TestHistoryCmd_ListError(t *testing.T) {
	cleanup := setupHistoryTest(&mockReportStore{listErr: errors.New("db locked")})
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"history"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "list runs")
}
