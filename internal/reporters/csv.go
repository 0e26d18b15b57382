package reporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure CSV implements the interface.
var _ driven.Reporter = (*CSV)(nil)

// DefaultBatchSize is the default number of rows written between flushes.
const DefaultBatchSize = 20

// addressHeader is the column layout of the address artifact.
var addressHeader = []string{
	"Email Address",
	"Malformation Probability",
	"Similar Email",
	"Similarity Percentage",
	"Source File",
}

// reviewHeader is the column layout of the near-duplicate artifact.
var reviewHeader = []string{
	"Email Address",
	"Similar Email",
	"Similarity Percentage",
	"Edit Distance",
	"Source File",
}

// CSV writes the run's artifacts: EMAIL_ADDRESSES_<timestamp>.csv with
// one row per unique address, and NEAR_DUPLICATES_<timestamp>.csv with
// the flagged pairs when there are any. Rows are flushed in batches.
type CSV struct {
	dir       string
	batchSize int
}

// Option configures the CSV reporter.
type Option func(*CSV)

// WithDirectory sets the output directory.
func WithDirectory(dir string) Option {
	return func(c *CSV) {
		if dir != "" {
			c.dir = dir
		}
	}
}

// WithBatchSize sets the number of rows written between flushes.
func WithBatchSize(size int) Option {
	return func(c *CSV) {
		if size > 0 {
			c.batchSize = size
		}
	}
}

// NewCSV creates a new CSV reporter with the given options.
func NewCSV(opts ...Option) *CSV {
	c := &CSV{
		dir:       ".",
		batchSize: DefaultBatchSize,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name returns the reporter name.
func (c *CSV) Name() string {
	return "csv"
}

// Write emits the address artifact and, when pairs were flagged, the
// near-duplicate artifact. File names carry the run's finish timestamp.
func (c *CSV) Write(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	timestamp := report.FinishedAt.Format("20060102_150405")

	addressPath := filepath.Join(c.dir, fmt.Sprintf("EMAIL_ADDRESSES_%s.csv", timestamp))
	if err := c.writeFile(addressPath, addressHeader, addressRows(report)); err != nil {
		return err
	}

	if len(report.NearDuplicates) == 0 {
		return nil
	}
	reviewPath := filepath.Join(c.dir, fmt.Sprintf("NEAR_DUPLICATES_%s.csv", timestamp))
	return c.writeFile(reviewPath, reviewHeader, reviewRows(report))
}

// writeFile writes one artifact, flushing every batchSize rows.
func (c *CSV) writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
		if (i+1)%c.batchSize == 0 {
			w.Flush()
			if err := w.Error(); err != nil {
				return fmt.Errorf("flush %s: %w", path, err)
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

// addressRows builds one row per unique address in discovery order. An
// address flagged as a near-duplicate carries its match inline.
func addressRows(report *domain.Report) [][]string {
	pairByAddress := make(map[string]domain.NearDuplicate, len(report.NearDuplicates))
	for _, pair := range report.NearDuplicates {
		pairByAddress[pair.Address] = pair
	}

	rows := make([][]string, 0, len(report.Entries))
	for _, entry := range report.Entries {
		display := entry.Address.Display()

		similar := ""
		similarity := ""
		if pair, ok := pairByAddress[display]; ok {
			similar = pair.Existing
			similarity = fmt.Sprintf("%.2f", pair.Score*100)
		}

		source := ""
		if len(entry.Sources) > 0 {
			source = entry.Sources[0].String()
		}

		rows = append(rows, []string{
			display,
			fmt.Sprintf("%.2f", entry.Address.MalformedScore),
			similar,
			similarity,
			source,
		})
	}
	return rows
}

// reviewRows builds one row per flagged pair in flag order.
func reviewRows(report *domain.Report) [][]string {
	rows := make([][]string, 0, len(report.NearDuplicates))
	for _, pair := range report.NearDuplicates {
		rows = append(rows, []string{
			pair.Address,
			pair.Existing,
			fmt.Sprintf("%.2f", pair.Score*100),
			fmt.Sprintf("%d", pair.EditDistance),
			pair.Source.String(),
		})
	}
	return rows
}
