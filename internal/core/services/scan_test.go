package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
)

// --- Mock implementations for scan testing ---

// scanMockConnector implements driven.Connector, streaming a fixed
// document list and finishing with a SyncComplete cursor when set.
type scanMockConnector struct {
	sourceID     string
	capabilities driven.ConnectorCapabilities
	docs         []domain.RawDocument
	changes      []domain.RawDocumentChange
	syncErr      error
	validateErr  error
	newCursor    string
	closed       bool

	gotSinceCursor string
}

func (m *scanMockConnector) Type() string     { return "mock" }
func (m *scanMockConnector) SourceID() string { return m.sourceID }
func (m *scanMockConnector) Capabilities() driven.ConnectorCapabilities {
	return m.capabilities
}

func (m *scanMockConnector) Validate(_ context.Context) error {
	return m.validateErr
}

// Errors and the completion sentinel are sent on an unbuffered channel
// before the document channel closes, so the consumer always observes
// them before it sees end-of-stream.
func (m *scanMockConnector) FullSync(ctx context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument)
	errs := make(chan error)

	go func() {
		defer close(docs)
		defer close(errs)

		for _, doc := range m.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
			}
		}
		if m.syncErr != nil {
			errs <- m.syncErr
			return
		}
		if m.newCursor != "" {
			errs <- &driven.SyncComplete{NewCursor: m.newCursor}
		}
	}()

	return docs, errs
}

func (m *scanMockConnector) IncrementalSync(ctx context.Context, state domain.SyncState) (<-chan domain.RawDocumentChange, <-chan error) {
	m.gotSinceCursor = state.Cursor
	changes := make(chan domain.RawDocumentChange)
	errs := make(chan error)

	go func() {
		defer close(changes)
		defer close(errs)

		for _, change := range m.changes {
			select {
			case <-ctx.Done():
				return
			case changes <- change:
			}
		}
		if m.newCursor != "" {
			errs <- &driven.SyncComplete{NewCursor: m.newCursor}
		}
	}()

	return changes, errs
}

func (m *scanMockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return nil, errors.New("watch not implemented")
}

func (m *scanMockConnector) Close() error {
	m.closed = true
	return nil
}

// scanMockRegistry implements driven.ExtractorRegistry, turning each
// document's content into a single text block.
type scanMockRegistry struct {
	unsupported map[string]bool
	extractErr  error
}

func (r *scanMockRegistry) Extract(_ context.Context, raw *domain.RawDocument) (*driven.ExtractResult, error) {
	if r.extractErr != nil {
		return nil, r.extractErr
	}
	if r.unsupported[raw.MIMEType] {
		return nil, domain.ErrUnsupportedType
	}
	return &driven.ExtractResult{
		Blocks: []domain.TextBlock{
			{
				Text:   string(raw.Content),
				Source: domain.SourceRecord{File: raw.URI},
			},
		},
	}, nil
}

func (r *scanMockRegistry) Register(_ driven.Extractor) {}

func (r *scanMockRegistry) SupportedMIMETypes() []string {
	return []string{"text/csv", "text/html"}
}

// scanMockPipeline implements driven.ReporterPipeline, recording writes.
type scanMockPipeline struct {
	written  []*domain.Report
	writeErr error
}

func (p *scanMockPipeline) Write(_ context.Context, report *domain.Report) error {
	p.written = append(p.written, report)
	return p.writeErr
}

func doc(uri, content string) domain.RawDocument {
	return domain.RawDocument{
		SourceID: "src-1",
		URI:      uri,
		MIMEType: "text/csv",
		Content:  []byte(content),
	}
}

func newTestOrchestrator(conn *scanMockConnector, pipeline driven.ReporterPipeline) (*ScanOrchestrator, *memory.ExclusionStore) {
	exclusions := memory.NewExclusionStore()
	factory := func(_, _ string) (driven.Connector, error) { return conn, nil }
	orch := NewScanOrchestrator(factory, &scanMockRegistry{}, exclusions, newFakeTLDProvider(), pipeline)
	return orch, exclusions
}

func TestScanOrchestrator_Scan_CountsAndEntries(t *testing.T) {
	conn := &scanMockConnector{
		sourceID: "src-1",
		docs: []domain.RawDocument{
			doc("inbox.csv", "alice@example.com,hello\nnot-an-address\nbob@test.org"),
			doc("sent.csv", "alice@example.com again, and carol@@"),
		},
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
	})
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, 3, report.Stats.CandidatesSeen)
	assert.Equal(t, 0, report.Stats.StructuralRejections)
	assert.Equal(t, 1, report.Stats.ExactDuplicates)
	assert.Equal(t, 2, report.Stats.UniqueAddresses)
	assert.Equal(t, 2, report.Stats.FilesProcessed)
	assert.True(t, conn.closed)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, "alice@example.com", report.Entries[0].Address.Normalized)
	assert.Equal(t, "bob@test.org", report.Entries[1].Address.Normalized)
}

func TestScanOrchestrator_Scan_DuplicateAcrossFiles(t *testing.T) {
	conn := &scanMockConnector{
		docs: []domain.RawDocument{
			doc("a.csv", "dup@example.com"),
			doc("b.html", "dup@example.com"),
		},
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
	})
	require.NoError(t, err)

	// One unique entry carrying both origins in discovery order.
	require.Len(t, report.Entries, 1)
	entry := report.Entries[0]
	require.Len(t, entry.Sources, 2)
	assert.Equal(t, "a.csv", entry.Sources[0].File)
	assert.Equal(t, "b.html", entry.Sources[1].File)
	assert.Equal(t, 1, report.Stats.ExactDuplicates)
}

func TestScanOrchestrator_Scan_StructuralRejections(t *testing.T) {
	conn := &scanMockConnector{
		docs: []domain.RawDocument{
			// The second candidate has a hyphen-led domain label.
			doc("a.csv", "good@example.com and bad@-example.com"),
		},
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Stats.CandidatesSeen)
	assert.Equal(t, 1, report.Stats.StructuralRejections)
	assert.Equal(t, 1, report.Stats.UniqueAddresses)
}

func TestScanOrchestrator_Scan_ExclusionIsCaseInsensitive(t *testing.T) {
	conn := &scanMockConnector{
		docs: []domain.RawDocument{
			doc("a.csv", "Foo@Example.COM and keep@example.com and foo@example.com"),
		},
	}
	orch, exclusions := newTestOrchestrator(conn, nil)

	// Exclusion lists are normalised at load time.
	require.NoError(t, exclusions.Add(context.Background(), domain.NormalizeAddress("FOO@example.com")))

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
	})
	require.NoError(t, err)

	// Both casings of the excluded address are dropped but still counted.
	assert.Equal(t, 3, report.Stats.CandidatesSeen)
	assert.Equal(t, 2, report.Stats.ExcludedHits)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "keep@example.com", report.Entries[0].Address.Normalized)
}

func TestScanOrchestrator_Scan_NearDuplicateFlagged(t *testing.T) {
	conn := &scanMockConnector{
		docs: []domain.RawDocument{
			doc("a.csv", "johnsmith@example.com"),
			doc("b.csv", "jonhsmith@example.com"),
		},
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.Stats.NearDuplicates)
	assert.Equal(t, 2, report.Stats.UniqueAddresses)
	require.Len(t, report.NearDuplicates, 1)
	assert.Equal(t, "jonhsmith@example.com", report.NearDuplicates[0].Address)
	assert.Equal(t, "johnsmith@example.com", report.NearDuplicates[0].Existing)
}

func TestScanOrchestrator_Scan_InvalidThreshold(t *testing.T) {
	conn := &scanMockConnector{}
	orch, _ := newTestOrchestrator(conn, nil)

	_, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestScanOrchestrator_Scan_ValidationFailure(t *testing.T) {
	conn := &scanMockConnector{
		capabilities: driven.ConnectorCapabilities{SupportsValidation: true},
		validateErr:  errors.New("path does not exist"),
	}
	orch, _ := newTestOrchestrator(conn, nil)

	_, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	assert.ErrorIs(t, err, domain.ErrConnectorValidation)
}

func TestScanOrchestrator_Scan_ConnectorError(t *testing.T) {
	conn := &scanMockConnector{
		docs:    []domain.RawDocument{doc("a.csv", "alice@example.com")},
		syncErr: errors.New("disk failure"),
	}
	orch, _ := newTestOrchestrator(conn, nil)

	_, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk failure")
}

func TestScanOrchestrator_Scan_CursorFromSyncComplete(t *testing.T) {
	conn := &scanMockConnector{
		docs:      []domain.RawDocument{doc("a.csv", "alice@example.com")},
		newCursor: "1724400000000000000",
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.NoError(t, err)
	assert.Equal(t, "1724400000000000000", report.Cursor)
}

func TestScanOrchestrator_Scan_IncrementalUsesCursor(t *testing.T) {
	conn := &scanMockConnector{
		capabilities: driven.ConnectorCapabilities{SupportsIncremental: true, SupportsCursorReturn: true},
		changes: []domain.RawDocumentChange{
			{Type: domain.ChangeCreated, Document: doc("new.csv", "new@example.com")},
			{Type: domain.ChangeDeleted, Document: doc("gone.csv", "gone@example.com")},
		},
		newCursor: "99",
	}
	orch, _ := newTestOrchestrator(conn, nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:    "/mail",
		Threshold:   DefaultThreshold,
		SinceCursor: "42",
	})
	require.NoError(t, err)

	assert.Equal(t, "42", conn.gotSinceCursor)
	assert.Equal(t, "99", report.Cursor)

	// Deleted changes are skipped; the unique set never shrinks.
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "new@example.com", report.Entries[0].Address.Normalized)
}

func TestScanOrchestrator_Scan_UnsupportedDocumentsSkipped(t *testing.T) {
	conn := &scanMockConnector{
		docs: []domain.RawDocument{
			doc("a.csv", "alice@example.com"),
			{SourceID: "src-1", URI: "img.png", MIMEType: "image/png", Content: []byte("binary")},
		},
	}
	exclusions := memory.NewExclusionStore()
	factory := func(_, _ string) (driven.Connector, error) { return conn, nil }
	registry := &scanMockRegistry{unsupported: map[string]bool{"image/png": true}}
	orch := NewScanOrchestrator(factory, registry, exclusions, newFakeTLDProvider(), nil)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.NoError(t, err)

	// The unsupported file is skipped without failing the run.
	assert.Equal(t, 1, report.Stats.FilesProcessed)
	assert.Equal(t, 1, report.Stats.UniqueAddresses)
	assert.Equal(t, 1, orch.Status().ErrorCount)
}

func TestScanOrchestrator_Scan_WritesThroughPipeline(t *testing.T) {
	conn := &scanMockConnector{docs: []domain.RawDocument{doc("a.csv", "alice@example.com")}}
	pipeline := &scanMockPipeline{}
	orch, _ := newTestOrchestrator(conn, pipeline)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.NoError(t, err)

	require.Len(t, pipeline.written, 1)
	assert.Equal(t, report.RunID, pipeline.written[0].RunID)
}

func TestScanOrchestrator_Scan_DryRunSkipsPipeline(t *testing.T) {
	conn := &scanMockConnector{docs: []domain.RawDocument{doc("a.csv", "alice@example.com")}}
	pipeline := &scanMockPipeline{}
	orch, _ := newTestOrchestrator(conn, pipeline)

	_, err := orch.Scan(context.Background(), driving.ScanOptions{
		RootPath:  "/mail",
		Threshold: DefaultThreshold,
		DryRun:    true,
	})
	require.NoError(t, err)
	assert.Empty(t, pipeline.written)
}

func TestScanOrchestrator_Scan_PipelineFailureReturnsReport(t *testing.T) {
	conn := &scanMockConnector{docs: []domain.RawDocument{doc("a.csv", "alice@example.com")}}
	pipeline := &scanMockPipeline{writeErr: errors.New("disk full")}
	orch, _ := newTestOrchestrator(conn, pipeline)

	report, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Stats.UniqueAddresses)
}

func TestScanOrchestrator_Scan_ContextCancelled(t *testing.T) {
	conn := &hangingConnector{}
	exclusions := memory.NewExclusionStore()
	factory := func(_, _ string) (driven.Connector, error) { return conn, nil }
	orch := NewScanOrchestrator(factory, &scanMockRegistry{}, exclusions, newFakeTLDProvider(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := orch.Scan(ctx, driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanOrchestrator_Status(t *testing.T) {
	conn := &scanMockConnector{docs: []domain.RawDocument{doc("a.csv", "alice@example.com")}}
	orch, _ := newTestOrchestrator(conn, nil)

	status := orch.Status()
	assert.False(t, status.Running)

	_, err := orch.Scan(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.NoError(t, err)

	status = orch.Status()
	assert.False(t, status.Running)
	assert.Equal(t, 1, status.FilesProcessed)
	assert.Equal(t, 1, status.UniqueAddresses)
}

func TestScanOrchestrator_Watch_EmitsSnapshots(t *testing.T) {
	events := make(chan domain.RawDocumentChange)
	conn := &watchMockConnector{
		scanMockConnector: scanMockConnector{
			capabilities: driven.ConnectorCapabilities{SupportsWatch: true},
			docs:         []domain.RawDocument{doc("a.csv", "alice@example.com")},
		},
		events: events,
	}
	exclusions := memory.NewExclusionStore()
	factory := func(_, _ string) (driven.Connector, error) { return conn, nil }
	orch := NewScanOrchestrator(factory, &scanMockRegistry{}, exclusions, newFakeTLDProvider(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reports, err := orch.Watch(ctx, driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	require.NoError(t, err)

	// Initial full pass.
	first := receiveReport(t, reports)
	assert.Equal(t, 1, first.Stats.UniqueAddresses)

	// A created file folds into the same run state.
	events <- domain.RawDocumentChange{Type: domain.ChangeCreated, Document: doc("b.csv", "bob@test.org")}
	second := receiveReport(t, reports)
	assert.Equal(t, 2, second.Stats.UniqueAddresses)

	// Deletions are skipped outright; the unique set never shrinks and
	// the deleted file's content is never read.
	events <- domain.RawDocumentChange{Type: domain.ChangeDeleted, Document: doc("b.csv", "zombie@example.com")}
	events <- domain.RawDocumentChange{Type: domain.ChangeUpdated, Document: doc("a.csv", "alice@example.com")}
	third := receiveReport(t, reports)
	assert.Equal(t, 2, third.Stats.UniqueAddresses)

	cancel()
	assertClosed(t, reports)
	assert.True(t, conn.closed)
}

func TestScanOrchestrator_Watch_UnsupportedConnector(t *testing.T) {
	conn := &scanMockConnector{}
	orch, _ := newTestOrchestrator(conn, nil)

	_, err := orch.Watch(context.Background(), driving.ScanOptions{RootPath: "/mail", Threshold: DefaultThreshold})
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.True(t, conn.closed)
}

// watchMockConnector extends scanMockConnector with a controllable
// event channel.
type watchMockConnector struct {
	scanMockConnector
	events chan domain.RawDocumentChange
}

func (m *watchMockConnector) Watch(_ context.Context) (<-chan domain.RawDocumentChange, error) {
	return m.events, nil
}

// hangingConnector returns channels that never deliver, so the only way
// out of a scan is the context.
type hangingConnector struct {
	scanMockConnector
}

func (m *hangingConnector) FullSync(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	return make(chan domain.RawDocument), make(chan error)
}

func receiveReport(t *testing.T, reports <-chan *domain.Report) *domain.Report {
	t.Helper()
	select {
	case report, ok := <-reports:
		require.True(t, ok, "report channel closed early")
		return report
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return nil
	}
}

func assertClosed(t *testing.T, reports <-chan *domain.Report) {
	t.Helper()
	for {
		select {
		case _, ok := <-reports:
			if !ok {
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatal("report channel not closed after cancel")
		}
	}
}
