// Package export turns quotation payloads into archived documents: it assigns quote numbers,
// renders through the artifact cache and hands finished artifacts to the history archive.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/history"
	"github.com/odyssey-erp/quotedesk/internal/observability"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
	"github.com/odyssey-erp/quotedesk/internal/rendercache"
)

// ErrArchiveUnavailable is returned by Export when no archive is configured.
var ErrArchiveUnavailable = errors.New("export: archive not configured")

// Renderer produces an artifact from a normalized record.
type Renderer interface {
	Render(rec quotation.Record) (document.Artifact, error)
}

// Archiver stores finished artifacts.
type Archiver interface {
	Archive(ctx context.Context, req quotation.Request, artifact document.Artifact) (history.Entry, error)
}

// NumberSource assigns quote numbers.
type NumberSource interface {
	NextNumber(ctx context.Context, date time.Time) (string, error)
}

// Deps wires the service collaborators. Cache, Archive and Metrics are optional.
type Deps struct {
	Renderer  Renderer
	Numbers   NumberSource
	Cache     *rendercache.Cache
	Archive   Archiver
	Metrics   *observability.Metrics
	Formatter *document.Formatter
	Logger    *slog.Logger
}

// Service coordinates numbering, rendering and archiving.
type Service struct {
	renderer  Renderer
	numbers   NumberSource
	cache     *rendercache.Cache
	archive   Archiver
	metrics   *observability.Metrics
	formatter *document.Formatter
	logger    *slog.Logger
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		renderer:  deps.Renderer,
		numbers:   deps.Numbers,
		cache:     deps.Cache,
		archive:   deps.Archive,
		metrics:   deps.Metrics,
		formatter: deps.Formatter,
		logger:    logger,
		now:       time.Now,
	}
}

// WithNow overrides the clock used for default dates.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// Result is the outcome of an archived export.
type Result struct {
	Entry    history.Entry
	Artifact document.Artifact
}

// NextNumber allocates a quote number for date. A zero date means today.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (string, error) {
	if s.numbers == nil {
		return "", errors.New("export: numbering not configured")
	}
	if date.IsZero() {
		date = s.now()
	}
	return s.numbers.NextNumber(ctx, date)
}

// Prepare fills in the defaults an archived quotation needs: today's date when none is given
// and a freshly allocated quote number when the payload has none.
func (s *Service) Prepare(ctx context.Context, req quotation.Request) (quotation.Request, error) {
	req.Date = strings.TrimSpace(req.Date)
	if req.Date == "" {
		req.Date = s.now().Format(quotation.DateLayout)
	}
	if strings.TrimSpace(req.QuoteNumber) != "" {
		return req, nil
	}
	date, err := time.Parse(quotation.DateLayout, req.Date)
	if err != nil {
		date = s.now()
	}
	number, err := s.NextNumber(ctx, date)
	if err != nil {
		return req, fmt.Errorf("export: assign quote number: %w", err)
	}
	req.QuoteNumber = number
	return req, nil
}

// Render produces the PDF for req without archiving it.
func (s *Service) Render(ctx context.Context, req quotation.Request) (document.Artifact, error) {
	start := time.Now()
	var (
		artifact document.Artifact
		cached   bool
		err      error
	)
	renderFn := func(context.Context) (document.Artifact, error) {
		return s.renderer.Render(req.Record())
	}
	if s.cache != nil {
		artifact, cached, err = s.cache.Fetch(ctx, req, renderFn)
	} else {
		artifact, err = renderFn(ctx)
	}
	s.metrics.ObserveRender(time.Since(start), artifact.PageCount, cached, artifact.Truncated, err)
	if err != nil {
		s.logger.ErrorContext(ctx, "render quotation",
			slog.String("quote_number", req.QuoteNumber), slog.Any("error", err))
		return document.Artifact{}, err
	}
	if artifact.Truncated {
		s.logger.WarnContext(ctx, "quotation item clipped to fit a page",
			slog.String("quote_number", req.QuoteNumber))
	}
	return artifact, nil
}

// Export prepares, renders and archives req.
func (s *Service) Export(ctx context.Context, req quotation.Request) (Result, error) {
	if s.archive == nil {
		return Result{}, ErrArchiveUnavailable
	}
	req, err := s.Prepare(ctx, req)
	if err != nil {
		return Result{}, err
	}
	artifact, err := s.Render(ctx, req)
	if err != nil {
		return Result{}, err
	}
	entry, err := s.archive.Archive(ctx, req, artifact)
	if err != nil {
		return Result{}, fmt.Errorf("export: archive %s: %w", req.QuoteNumber, err)
	}
	s.logger.InfoContext(ctx, "quotation archived",
		slog.String("quote_number", req.QuoteNumber),
		slog.String("id", entry.ID.String()),
		slog.Int("pages", artifact.PageCount))
	return Result{Entry: entry, Artifact: artifact}, nil
}

// Summary formats the compact totals view of req.
func (s *Service) Summary(req quotation.Request) document.Summary {
	return document.Summarize(req.Totals(), s.formatter)
}
