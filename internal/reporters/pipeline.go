// Package reporters provides run report output implementations.
package reporters

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/mailsift-cli/internal/core/domain"
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.ReporterPipeline = (*Pipeline)(nil)

// Pipeline chains multiple Reporters and runs them in order.
// It implements the ReporterPipeline interface.
type Pipeline struct {
	reporters []driven.Reporter
}

// NewPipeline creates a new reporting pipeline with the given reporters.
// Reporters are executed in the order provided.
func NewPipeline(reporters ...driven.Reporter) *Pipeline {
	return &Pipeline{
		reporters: reporters,
	}
}

// Write runs the report through every reporter. A failing reporter does
// not stop the others; all failures are joined into one error.
func (p *Pipeline) Write(ctx context.Context, report *domain.Report) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}

	var errs []error
	for _, reporter := range p.reporters {
		if err := reporter.Write(ctx, report); err != nil {
			errs = append(errs, fmt.Errorf("reporter %s: %w", reporter.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Add appends a reporter to the pipeline.
func (p *Pipeline) Add(reporter driven.Reporter) {
	p.reporters = append(p.reporters, reporter)
}

// Len returns the number of reporters in the pipeline.
func (p *Pipeline) Len() int {
	return len(p.reporters)
}
