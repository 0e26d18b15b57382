package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// mockWatchOrchestrator delivers a fixed set of report snapshots and
// then closes the channel, as a cancelled watch would.
type mockWatchOrchestrator struct {
	reports  []*domain.Report
	watchErr error
	lastOpts driving.ScanOptions
}

func (m *mockWatchOrchestrator) Scan(_ context.Context, opts driving.ScanOptions) (*domain.Report, error) {
	m.lastOpts = opts
	return nil, errors.New("not supported")
}

func (m *mockWatchOrchestrator) Watch(_ context.Context, opts driving.ScanOptions) (<-chan *domain.Report, error) {
	m.lastOpts = opts
	if m.watchErr != nil {
		return nil, m.watchErr
	}
	ch := make(chan *domain.Report, len(m.reports))
	for _, report := range m.reports {
		ch <- report
	}
	close(ch)
	return ch, nil
}

func (m *mockWatchOrchestrator) Status() driving.ScanStatus {
	return driving.ScanStatus{}
}

func setupWatchTest(orch driving.ScanOrchestrator) func() {
	oldOrch := scanOrchestrator
	oldConfig := configStore
	scanOrchestrator = orch
	configStore = nil
	return func() {
		scanOrchestrator = oldOrch
		configStore = oldConfig
		watchSimilarity = 0
		watchExclude = ""
		watchVerbose = false
	}
}

func TestWatchCmd_Use(t *testing.T) {
	assert.Equal(t, "watch [root-path]", watchCmd.Use)
}

func TestWatchCmd_Short(t *testing.T) {
	assert.Equal(t, "Watch a mail-export tree and rescan on changes", watchCmd.Short)
}

func TestWatchCmd_Long(t *testing.T) {
	assert.Contains(t, watchCmd.Long, "initial scan")
	assert.Contains(t, watchCmd.Long, "Ctrl-C")
}

func TestWatchCmd_StreamsReports(t *testing.T) {
	mock := &mockWatchOrchestrator{
		reports: []*domain.Report{
			{Stats: domain.RunStats{FilesProcessed: 1, UniqueAddresses: 2}},
			{Stats: domain.RunStats{FilesProcessed: 5, UniqueAddresses: 3, NearDuplicates: 1}},
		},
	}
	cleanup := setupWatchTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"watch", "/tmp/mail"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	output := buf.String()
	assert.Contains(t, output, "Watching /tmp/mail")
	assert.Contains(t, output, "5 files, 3 unique addresses, 1 near-duplicates")
	assert.Contains(t, output, "Watch stopped.")
	assert.Equal(t, "/tmp/mail", mock.lastOpts.RootPath)
}

func TestWatchCmd_DefaultsToCurrentDirectory(t *testing.T) {
	mock := &mockWatchOrchestrator{}
	cleanup := setupWatchTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"watch"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.Equal(t, ".", mock.lastOpts.RootPath)
}

func TestWatchCmd_SimilarityFlag(t *testing.T) {
	mock := &mockWatchOrchestrator{}
	cleanup := setupWatchTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"watch", "-s", "0.95", "/tmp/mail"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	require.NoError(t, err)
	assert.InDelta(t, 0.95, mock.lastOpts.Threshold, 1e-9)
}

func TestWatchCmd_SimilarityOutOfRange(t *testing.T) {
	mock := &mockWatchOrchestrator{}
	cleanup := setupWatchTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", "-s", "2", "/tmp/mail"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestWatchCmd_WatchError(t *testing.T) {
	mock := &mockWatchOrchestrator{watchErr: errors.New("root missing")}
	cleanup := setupWatchTest(mock)
	defer cleanup()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs([]string{"watch", "/tmp/mail"})
	defer func() {
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "watch failed")
}
