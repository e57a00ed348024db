package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/export"
	jobmetrics "github.com/odyssey-erp/quotedesk/internal/jobs"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// Exporter renders and archives a quotation.
type Exporter interface {
	Export(ctx context.Context, req quotation.Request) (export.Result, error)
}

// RenderJob processes quotation render requests coming from the queue.
type RenderJob struct {
	Exporter Exporter
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
}

// NewRenderJob wires dependencies for the render handler.
func NewRenderJob(exporter Exporter, logger *slog.Logger, metrics *jobmetrics.Metrics) *RenderJob {
	return &RenderJob{Exporter: exporter, Logger: logger, Metrics: metrics}
}

// Handle fulfils the asynq.HandlerFunc contract.
func (j *RenderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Exporter == nil {
		return errors.New("render job: handler not configured")
	}
	var payload RenderPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		j.Metrics.Skip(TaskQuotationRender, "payload")
		return fmt.Errorf("render job: decode payload: %v: %w", err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskQuotationRender)
	logger := j.logger().With(slog.String("quote_number", payload.Request.QuoteNumber))

	result, err := j.Exporter.Export(ctx, payload.Request)
	if err != nil {
		tracker.End(err)
		if errors.Is(err, document.ErrPageLimit) {
			// The same payload exceeds the limit on every attempt.
			j.Metrics.Skip(TaskQuotationRender, "page_limit")
			logger.Warn("quotation exceeds page limit", slog.Any("error", err))
			return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
		}
		logger.Error("render quotation", slog.Any("error", err))
		return err
	}
	tracker.End(nil)

	attrs := []any{
		slog.String("id", result.Entry.ID.String()),
		slog.String("quote_number", result.Entry.QuoteNumber),
		slog.Int("pages", result.Artifact.PageCount),
	}
	if !payload.RequestedAt.IsZero() {
		attrs = append(attrs, slog.Duration("queued_for", time.Since(payload.RequestedAt)))
	}
	logger.Info("quotation rendered", attrs...)
	return nil
}

func (j *RenderJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger
}
