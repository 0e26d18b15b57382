package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/mailsift-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Store is a SQLite-backed run catalog. Port interfaces are exposed
// through wrapper types sharing one database connection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.mailsift/data/catalog.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".mailsift", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "catalog.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReportStore returns a ReportStore interface backed by this store.
func (s *Store) ReportStore() driven.ReportStore {
	return &reportStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// Addresses returns the stored unique list of a run in insertion order,
// with per-address provenance.
func (s *Store) Addresses(ctx context.Context, runID string) ([]domain.AddressEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, local, domain, normalized, malformed_score, score_reasons, first_seen
		FROM addresses WHERE run_id = ? ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}
	defer rows.Close()

	var entries []domain.AddressEntry
	var positions []int
	for rows.Next() {
		var position int
		var entry domain.AddressEntry
		var reasonsJSON string
		var firstSeen sql.NullTime
		if err := rows.Scan(&position, &entry.Address.Local, &entry.Address.Domain,
			&entry.Address.Normalized, &entry.Address.MalformedScore,
			&reasonsJSON, &firstSeen); err != nil {
			return nil, fmt.Errorf("scanning address: %w", err)
		}
		if err := json.Unmarshal([]byte(reasonsJSON), &entry.Address.ScoreReasons); err != nil {
			return nil, fmt.Errorf("unmarshaling score reasons: %w", err)
		}
		entry.Address.FirstSeen = firstSeen.Time
		entries = append(entries, entry)
		positions = append(positions, position)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating addresses: %w", err)
	}

	for i, position := range positions {
		sources, err := s.addressSources(ctx, runID, position)
		if err != nil {
			return nil, err
		}
		entries[i].Sources = sources
	}
	return entries, nil
}

// addressSources returns the provenance records of one address in
// discovery order.
func (s *Store) addressSources(ctx context.Context, runID string, position int) ([]domain.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file, line FROM address_sources
		WHERE run_id = ? AND position = ? ORDER BY seq
	`, runID, position)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.SourceRecord
	for rows.Next() {
		var src domain.SourceRecord
		if err := rows.Scan(&src.File, &src.Line); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

// ==================== Report Store ====================

// reportStore implements driven.ReportStore.
type reportStore struct {
	store *Store
}

var _ driven.ReportStore = (*reportStore)(nil)

// SaveReport stores a run summary with its addresses, sources and
// near-duplicate pairs. Re-saving a run replaces its rows.
func (s *reportStore) SaveReport(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil: %w", domain.ErrInvalidInput)
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stats := report.Stats
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, root_path, threshold, cursor,
			candidates_seen, structural_rejections, excluded_hits,
			exact_duplicates, near_duplicates, unique_addresses,
			files_processed, blocks_skipped, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			root_path = excluded.root_path,
			threshold = excluded.threshold,
			cursor = excluded.cursor,
			candidates_seen = excluded.candidates_seen,
			structural_rejections = excluded.structural_rejections,
			excluded_hits = excluded.excluded_hits,
			exact_duplicates = excluded.exact_duplicates,
			near_duplicates = excluded.near_duplicates,
			unique_addresses = excluded.unique_addresses,
			files_processed = excluded.files_processed,
			blocks_skipped = excluded.blocks_skipped,
			started_at = excluded.started_at,
			finished_at = excluded.finished_at
	`, report.RunID, report.RootPath, report.Threshold, report.Cursor,
		stats.CandidatesSeen, stats.StructuralRejections, stats.ExcludedHits,
		stats.ExactDuplicates, stats.NearDuplicates, stats.UniqueAddresses,
		stats.FilesProcessed, stats.BlocksSkipped,
		report.StartedAt.UTC(), report.FinishedAt.UTC()); err != nil {
		return fmt.Errorf("saving run: %w", err)
	}

	for _, table := range []string{"address_sources", "addresses", "near_duplicates"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", report.RunID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}

	addrStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO addresses (run_id, position, local, domain, normalized, malformed_score, score_reasons, first_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing address statement: %w", err)
	}
	defer addrStmt.Close()

	srcStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO address_sources (run_id, position, seq, file, line)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing source statement: %w", err)
	}
	defer srcStmt.Close()

	for i, entry := range report.Entries {
		reasonsJSON, err := json.Marshal(entry.Address.ScoreReasons)
		if err != nil {
			return fmt.Errorf("marshalling score reasons: %w", err)
		}

		if _, err := addrStmt.ExecContext(ctx, report.RunID, i,
			entry.Address.Local, entry.Address.Domain, entry.Address.Normalized,
			entry.Address.MalformedScore, string(reasonsJSON),
			entry.Address.FirstSeen.UTC()); err != nil {
			return fmt.Errorf("saving address: %w", err)
		}

		for j, src := range entry.Sources {
			if _, err := srcStmt.ExecContext(ctx, report.RunID, i, j, src.File, src.Line); err != nil {
				return fmt.Errorf("saving source: %w", err)
			}
		}
	}

	pairStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO near_duplicates (run_id, pair_index, address, existing, score, edit_distance, source_file, source_line, resolution)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing near-duplicate statement: %w", err)
	}
	defer pairStmt.Close()

	for i, pair := range report.NearDuplicates {
		if _, err := pairStmt.ExecContext(ctx, report.RunID, i,
			pair.Address, pair.Existing, pair.Score, pair.EditDistance,
			pair.Source.File, pair.Source.Line, int(domain.ResolutionPending)); err != nil {
			return fmt.Errorf("saving near-duplicate: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// GetRun retrieves a run summary by ID.
func (s *reportStore) GetRun(ctx context.Context, id string) (*domain.Run, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, root_path, threshold, cursor,
			candidates_seen, structural_rejections, excluded_hits,
			exact_duplicates, near_duplicates, unique_addresses,
			files_processed, blocks_skipped, started_at, finished_at
		FROM runs WHERE id = ?
	`, id)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// ListRuns returns all runs, most recent first.
func (s *reportStore) ListRuns(ctx context.Context) ([]domain.Run, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, root_path, threshold, cursor,
			candidates_seen, structural_rejections, excluded_hits,
			exact_duplicates, near_duplicates, unique_addresses,
			files_processed, blocks_skipped, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.Run, 0)
	for rows.Next() {
		run, err := scanRunRows(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// LatestRun returns the most recent run.
func (s *reportStore) LatestRun(ctx context.Context) (*domain.Run, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, root_path, threshold, cursor,
			candidates_seen, structural_rejections, excluded_hits,
			exact_duplicates, near_duplicates, unique_addresses,
			files_processed, blocks_skipped, started_at, finished_at
		FROM runs ORDER BY started_at DESC, id LIMIT 1
	`)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("no runs recorded: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	return run, nil
}

// GetNearDuplicates returns the flagged pairs for a run with resolutions.
func (s *reportStore) GetNearDuplicates(ctx context.Context, runID string) ([]driven.StoredNearDuplicate, error) {
	var exists int
	if err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM runs WHERE id = ?", runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking run: %w", err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("run %s: %w", runID, domain.ErrNotFound)
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT pair_index, address, existing, score, edit_distance, source_file, source_line, resolution
		FROM near_duplicates WHERE run_id = ? ORDER BY pair_index
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying near-duplicates: %w", err)
	}
	defer rows.Close()

	stored := make([]driven.StoredNearDuplicate, 0)
	for rows.Next() {
		var sd driven.StoredNearDuplicate
		var resolution int
		if err := rows.Scan(&sd.Index, &sd.Pair.Address, &sd.Pair.Existing,
			&sd.Pair.Score, &sd.Pair.EditDistance,
			&sd.Pair.Source.File, &sd.Pair.Source.Line, &resolution); err != nil {
			return nil, fmt.Errorf("scanning near-duplicate: %w", err)
		}
		sd.Resolution = domain.Resolution(resolution)
		stored = append(stored, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating near-duplicates: %w", err)
	}
	return stored, nil
}

// ResolveNearDuplicate records a reviewer's decision for a pair.
func (s *reportStore) ResolveNearDuplicate(ctx context.Context, runID string, pairIndex int, resolution domain.Resolution) error {
	res, err := s.store.db.ExecContext(ctx, `
		UPDATE near_duplicates SET resolution = ?
		WHERE run_id = ? AND pair_index = ?
	`, int(resolution), runID, pairIndex)
	if err != nil {
		return fmt.Errorf("resolving near-duplicate: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("pair %d of run %s: %w", pairIndex, runID, domain.ErrNotFound)
	}
	return nil
}

// Close closes the underlying store.
func (s *reportStore) Close() error {
	return s.store.Close()
}

// ==================== Helper Functions ====================

// scanRun scans a single run row.
func scanRun(row *sql.Row) (*domain.Run, error) {
	var run domain.Run
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(&run.ID, &run.RootPath, &run.Threshold, &run.Cursor,
		&run.Stats.CandidatesSeen, &run.Stats.StructuralRejections, &run.Stats.ExcludedHits,
		&run.Stats.ExactDuplicates, &run.Stats.NearDuplicates, &run.Stats.UniqueAddresses,
		&run.Stats.FilesProcessed, &run.Stats.BlocksSkipped, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.StartedAt = startedAt.Time
	run.FinishedAt = finishedAt.Time
	return &run, nil
}

// scanRunRows scans a run from a multi-row result set.
func scanRunRows(rows *sql.Rows) (*domain.Run, error) {
	var run domain.Run
	var startedAt, finishedAt sql.NullTime
	if err := rows.Scan(&run.ID, &run.RootPath, &run.Threshold, &run.Cursor,
		&run.Stats.CandidatesSeen, &run.Stats.StructuralRejections, &run.Stats.ExcludedHits,
		&run.Stats.ExactDuplicates, &run.Stats.NearDuplicates, &run.Stats.UniqueAddresses,
		&run.Stats.FilesProcessed, &run.Stats.BlocksSkipped, &startedAt, &finishedAt); err != nil {
		return nil, err
	}
	run.StartedAt = startedAt.Time
	run.FinishedAt = finishedAt.Time
	return &run, nil
}
