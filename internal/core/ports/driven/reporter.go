package driven

import (
	"context"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
)

// Reporter writes a run report to an output artifact.
// Reporters are chained in a pipeline (e.g., CSV files, the run catalog).
type Reporter interface {
	// Name returns the reporter name for logging and configuration.
	Name() string

	// Write emits the report's artifact.
	Write(ctx context.Context, report *domain.Report) error
}

// ReporterPipeline runs a report through every configured reporter.
type ReporterPipeline interface {
	// Write runs the report through all reporters in order.
	// A failing reporter does not stop the others; errors are joined.
	Write(ctx context.Context, report *domain.Report) error
}
