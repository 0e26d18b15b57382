package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driving"
	"github.com/custodia-labs/mailsift-cli/internal/logger"
)

// Ensure ScanOrchestrator implements the interface.
var _ driving.ScanOrchestrator = (*ScanOrchestrator)(nil)

// ScanOrchestrator coordinates a processing run: it consumes documents
// from a connector, extracts text blocks, and feeds candidates through
// the recogniser, validator, exclusion filter and dedup engine.
type ScanOrchestrator struct {
	factory    driven.ConnectorFactory
	registry   driven.ExtractorRegistry
	exclusions driven.ExclusionStore
	tld        driven.TLDProvider
	pipeline   driven.ReporterPipeline

	recognizer *Recognizer
	validator  *Validator

	// Status tracking
	mu     sync.RWMutex
	status driving.ScanStatus
}

// NewScanOrchestrator creates a new scan orchestrator.
// The pipeline is optional - if nil, runs never write artifacts.
func NewScanOrchestrator(
	factory driven.ConnectorFactory,
	registry driven.ExtractorRegistry,
	exclusions driven.ExclusionStore,
	tld driven.TLDProvider,
	pipeline driven.ReporterPipeline,
) *ScanOrchestrator {
	return &ScanOrchestrator{
		factory:    factory,
		registry:   registry,
		exclusions: exclusions,
		tld:        tld,
		pipeline:   pipeline,
		recognizer: NewRecognizer(),
		validator:  NewValidator(tld),
	}
}

// run bundles the state of one processing run. A fresh run owns its own
// engine, so independent runs never share unique-set state.
type run struct {
	engine *DedupEngine
	stats  domain.RunStats
}

// Scan processes every supported file under the root and returns the
// aggregated report. When the pipeline is configured and the run is not
// a dry run, the report is also written; if writing fails the report is
// still returned alongside the error.
func (o *ScanOrchestrator) Scan(ctx context.Context, opts driving.ScanOptions) (*domain.Report, error) {
	// 1. CREATE ENGINE (validates threshold)
	engine, err := NewDedupEngine(opts.Threshold)
	if err != nil {
		return nil, err
	}

	// 2. CREATE CONNECTOR
	connector, err := o.factory(uuid.New().String(), opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}
	defer connector.Close()

	// 3. VALIDATE CONNECTOR
	caps := connector.Capabilities()
	if caps.SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	// 4. MARK RUN ACTIVE
	if err := o.markRunning(); err != nil {
		return nil, err
	}
	defer o.markIdle()

	logger.Info("Starting scan of %s (threshold %.2f)", opts.RootPath, opts.Threshold)

	r := &run{engine: engine}
	startedAt := time.Now()

	// 5. CHOOSE SCAN STRATEGY
	var newCursor string
	if opts.SinceCursor != "" && caps.SupportsIncremental {
		state := domain.SyncState{Cursor: opts.SinceCursor}
		changesCh, errsCh := connector.IncrementalSync(ctx, state)
		newCursor, err = o.consumeChanges(ctx, r, changesCh, errsCh)
	} else {
		docsCh, errsCh := connector.FullSync(ctx)
		newCursor, err = o.consumeDocuments(ctx, r, docsCh, errsCh)
		if err == nil && newCursor == "" && caps.SupportsCursorReturn {
			newCursor = fmt.Sprintf("%d", time.Now().UnixNano())
		}
	}
	if err != nil {
		return nil, err
	}

	// 6. ASSEMBLE REPORT
	report := o.assembleReport(r, opts, startedAt, newCursor)
	logger.Info("Scan complete: %d candidates, %d unique, %d near-duplicates",
		report.Stats.CandidatesSeen, report.Stats.UniqueAddresses, report.Stats.NearDuplicates)

	// 7. WRITE ARTIFACTS
	if o.pipeline != nil && !opts.DryRun {
		if err := o.pipeline.Write(ctx, report); err != nil {
			return report, fmt.Errorf("write reports: %w", err)
		}
	}
	return report, nil
}

// Watch performs an initial full pass, then keeps folding filesystem
// change events into the same run state until the context is cancelled.
// A report snapshot is emitted after the initial pass and after every
// processed change.
func (o *ScanOrchestrator) Watch(ctx context.Context, opts driving.ScanOptions) (<-chan *domain.Report, error) {
	engine, err := NewDedupEngine(opts.Threshold)
	if err != nil {
		return nil, err
	}

	connector, err := o.factory(uuid.New().String(), opts.RootPath)
	if err != nil {
		return nil, fmt.Errorf("create connector: %w", err)
	}

	caps := connector.Capabilities()
	if !caps.SupportsWatch {
		connector.Close()
		return nil, fmt.Errorf("%w: connector %s cannot watch", domain.ErrUnsupportedType, connector.Type())
	}
	if caps.SupportsValidation {
		if err := connector.Validate(ctx); err != nil {
			connector.Close()
			return nil, fmt.Errorf("%w: %w", domain.ErrConnectorValidation, err)
		}
	}

	if err := o.markRunning(); err != nil {
		connector.Close()
		return nil, err
	}

	events, err := connector.Watch(ctx)
	if err != nil {
		o.markIdle()
		connector.Close()
		return nil, fmt.Errorf("start watch: %w", err)
	}

	reports := make(chan *domain.Report, 1)
	r := &run{engine: engine}
	startedAt := time.Now()

	go func() {
		defer close(reports)
		defer connector.Close()
		defer o.markIdle()

		emit := func(report *domain.Report) bool {
			select {
			case <-ctx.Done():
				return false
			case reports <- report:
				return true
			}
		}

		// Initial full pass before event processing.
		docsCh, errsCh := connector.FullSync(ctx)
		cursor, err := o.consumeDocuments(ctx, r, docsCh, errsCh)
		if err != nil {
			logger.Warn("Watch initial pass failed: %v", err)
			return
		}
		if !emit(o.assembleReport(r, opts, startedAt, cursor)) {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case change, ok := <-events:
				if !ok {
					return
				}
				if change.Type == domain.ChangeDeleted {
					continue // The unique set never shrinks.
				}
				o.processDocument(ctx, r, &change.Document)
				if !emit(o.assembleReport(r, opts, startedAt, cursor)) {
					return
				}
			}
		}
	}()

	return reports, nil
}

// Status returns progress counters for the running scan.
func (o *ScanOrchestrator) Status() driving.ScanStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.status
}

// markRunning claims the single scan slot.
func (o *ScanOrchestrator) markRunning() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.status.Running {
		return domain.ErrScanInProgress
	}
	o.status = driving.ScanStatus{Running: true}
	return nil
}

// markIdle releases the scan slot, keeping final counters readable.
func (o *ScanOrchestrator) markIdle() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.Running = false
}

// updateStatus publishes progress counters for pollers.
func (o *ScanOrchestrator) updateStatus(r *run) {
	o.mu.Lock()
	o.status.FilesProcessed = r.stats.FilesProcessed
	o.status.CandidatesSeen = r.stats.CandidatesSeen
	o.status.UniqueAddresses = r.engine.Size()
	o.mu.Unlock()
}

// consumeDocuments drains a full-scan channel pair into the run.
// Returns the new cursor from SyncComplete if the connector provides one.
func (o *ScanOrchestrator) consumeDocuments(
	ctx context.Context,
	r *run,
	docsCh <-chan domain.RawDocument,
	errsCh <-chan error,
) (string, error) {
	var newCursor string

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, isComplete := driven.IsSyncComplete(err); isComplete {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case rawDoc, ok := <-docsCh:
			if !ok {
				return newCursor, nil // Done - channel closed
			}
			o.processDocument(ctx, r, &rawDoc)
		}
	}
}

// consumeChanges drains an incremental-scan channel pair into the run.
func (o *ScanOrchestrator) consumeChanges(
	ctx context.Context,
	r *run,
	changesCh <-chan domain.RawDocumentChange,
	errsCh <-chan error,
) (string, error) {
	var newCursor string

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errsCh:
			if !ok {
				errsCh = nil
				continue
			}
			if sc, isComplete := driven.IsSyncComplete(err); isComplete {
				newCursor = sc.NewCursor
				continue
			}
			if err != nil {
				return "", fmt.Errorf("connector error: %w", err)
			}

		case change, ok := <-changesCh:
			if !ok {
				return newCursor, nil
			}
			if change.Type == domain.ChangeDeleted {
				continue
			}
			o.processDocument(ctx, r, &change.Document)
		}
	}
}

// processDocument runs one raw document through the extraction pipeline.
// Per-document failures are logged and counted, never fatal.
func (o *ScanOrchestrator) processDocument(ctx context.Context, r *run, raw *domain.RawDocument) {
	logger.Debug("Processing: %s", raw.URI)

	// 1. EXTRACT TEXT BLOCKS
	result, err := o.registry.Extract(ctx, raw)
	if err != nil {
		o.mu.Lock()
		o.status.ErrorCount++
		o.mu.Unlock()
		if errors.Is(err, domain.ErrUnsupportedType) {
			logger.Debug("Skipping %s: %v", raw.URI, err)
		} else {
			logger.Warn("Failed to extract %s: %v", raw.URI, err)
		}
		return
	}
	r.stats.BlocksSkipped += result.SkippedBlocks

	// 2. PROCESS EACH BLOCK
	for i := range result.Blocks {
		o.processBlock(ctx, r, result.Blocks[i])
	}

	r.stats.FilesProcessed++
	o.updateStatus(r)
}

// processBlock feeds one text block through recognise -> validate ->
// exclude -> dedup.
func (o *ScanOrchestrator) processBlock(ctx context.Context, r *run, block domain.TextBlock) {
	for _, candidate := range o.recognizer.Scan(block) {
		r.stats.CandidatesSeen++

		// 1. VALIDATE
		addr, err := o.validator.Validate(candidate)
		if err != nil {
			r.stats.StructuralRejections++
			logger.Debug("Rejected candidate %q: %v", candidate.Raw, err)
			continue
		}

		// 2. CHECK EXCLUSION
		excluded, err := o.exclusions.IsExcluded(ctx, addr.Normalized)
		if err != nil {
			logger.Warn("Exclusion check failed for %s: %v", addr.Normalized, err)
			continue
		}
		if excluded {
			r.stats.ExcludedHits++
			continue
		}

		// 3. SUBMIT TO ENGINE
		outcome := r.engine.Submit(*addr, candidate.Source)
		switch outcome.Kind {
		case domain.OutcomeExactDuplicate:
			r.stats.ExactDuplicates++
		case domain.OutcomeNearDuplicate:
			r.stats.NearDuplicates++
			logger.Debug("Near-duplicate: %s ~ %s (%.3f)", addr.Normalized, outcome.Match, outcome.Score)
		}
	}
}

// assembleReport snapshots the run into a report.
func (o *ScanOrchestrator) assembleReport(
	r *run,
	opts driving.ScanOptions,
	startedAt time.Time,
	cursor string,
) *domain.Report {
	stats := r.stats
	stats.UniqueAddresses = r.engine.Size()

	return &domain.Report{
		RunID:          uuid.New().String(),
		RootPath:       opts.RootPath,
		Threshold:      r.engine.Threshold(),
		Entries:        r.engine.Entries(),
		NearDuplicates: r.engine.NearDuplicates(),
		Stats:          stats,
		StartedAt:      startedAt,
		FinishedAt:     time.Now(),
		Cursor:         cursor,
	}
}
