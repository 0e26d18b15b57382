package reporters

import (
	"context"
	"fmt"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Catalog implements the interface.
var _ driven.Reporter = (*Catalog)(nil)

// Catalog persists the report into the local run catalog so later
// history and review commands can read it back.
type Catalog struct {
	store driven.ReportStore
}

// NewCatalog creates a new catalog reporter backed by the given store.
func NewCatalog(store driven.ReportStore) *Catalog {
	return &Catalog{store: store}
}

// Name returns the reporter name.
func (c *Catalog) Name() string {
	return "catalog"
}

// Write stores the report.
func (c *Catalog) Write(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	if err := c.store.SaveReport(ctx, report); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
