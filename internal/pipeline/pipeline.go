// Package pipeline runs a sequence of named data-preparation stages with
// per-stage logging, metrics and tracing.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/signalsfoundry/gridprep/internal/logging"
	"github.com/signalsfoundry/gridprep/internal/observability"
)

// Stage is one unit of pipeline work.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Runner executes stages in order, stopping at the first failure.
type Runner struct {
	log     logging.Logger
	metrics *observability.PipelineCollector
}

// NewRunner builds a Runner. A nil logger is replaced by a no-op logger; a
// nil collector disables metrics.
func NewRunner(log logging.Logger, metrics *observability.PipelineCollector) *Runner {
	if log == nil {
		log = logging.Noop()
	}
	return &Runner{log: log, metrics: metrics}
}

// Run executes the stages sequentially. Each stage gets its own span and its
// outcome and duration are recorded. The first error aborts the run and is
// returned wrapped with the stage name.
func (r *Runner) Run(ctx context.Context, stages ...Stage) error {
	tracer := otel.Tracer("gridprep/pipeline")

	for _, stage := range stages {
		stageCtx, span := tracer.Start(ctx, stage.Name)
		span.SetAttributes(attribute.String("pipeline.stage", stage.Name))

		start := time.Now()
		err := stage.Run(stageCtx)
		elapsed := time.Since(start)

		r.metrics.ObserveStage(stage.Name, err, elapsed)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			r.log.Error(ctx, "stage failed",
				logging.String("stage", stage.Name),
				logging.Any("error", err),
				logging.Float64("elapsed_s", elapsed.Seconds()),
			)
			return fmt.Errorf("stage %s: %w", stage.Name, err)
		}
		span.End()
		r.log.Info(ctx, "stage complete",
			logging.String("stage", stage.Name),
			logging.Float64("elapsed_s", elapsed.Seconds()),
		)
	}
	return nil
}
