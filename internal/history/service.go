package history

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// Service archives rendered quotations and manages the archive.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	now        func() time.Time
	newID      func() uuid.UUID
	archiveDir string
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now, newID: uuid.New}
}

// WithNow overrides the clock, mainly for tests.
func (s *Service) WithNow(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// WithArchiveDir mirrors every archived PDF into dir. An empty dir disables the mirror.
func (s *Service) WithArchiveDir(dir string) *Service {
	s.archiveDir = dir
	return s
}

// Archive stores a rendered artifact together with the payload it came from.
func (s *Service) Archive(ctx context.Context, req quotation.Request, artifact document.Artifact) (Entry, error) {
	entry := Entry{
		ID:           s.newID(),
		QuoteNumber:  req.QuoteNumber,
		QuoteDate:    req.Date,
		CompanyName:  req.Company.Name,
		CustomerName: req.Customer.Name,
		GrandTotal:   req.Totals().GrandTotal,
		PageCount:    artifact.PageCount,
		Filename:     artifact.Filename,
		Checksum:     artifact.Checksum,
		Truncated:    artifact.Truncated,
		CreatedAt:    s.now().UTC(),
		Payload:      req,
	}
	if err := s.repo.Insert(ctx, entry, artifact.Data); err != nil {
		return Entry{}, err
	}
	s.mirror(entry, artifact.Data)
	return entry, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	if _, err := ParseSort(string(filter.Sort)); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, filter.normalized())
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	return s.repo.Get(ctx, id)
}

// PDF returns the stored artifact bytes along with the entry metadata.
func (s *Service) PDF(ctx context.Context, id uuid.UUID) (Entry, []byte, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, nil, err
	}
	data, err := s.repo.PDF(ctx, id)
	if err != nil {
		return Entry{}, nil, err
	}
	return entry, data, nil
}

// Duplicate copies an entry under a new ID and a "-copy-NNNN" quote number. The copied payload
// carries the new number; the stored PDF stays a snapshot of the source document.
func (s *Service) Duplicate(ctx context.Context, id uuid.UUID) (Entry, error) {
	src, err := s.repo.Get(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	now := s.now().UTC()
	dst := src
	dst.ID = s.newID()
	dst.QuoteNumber = CopyNumber(src.QuoteNumber, now)
	dst.Filename = document.Filename(dst.QuoteNumber)
	dst.Payload.QuoteNumber = dst.QuoteNumber
	dst.CreatedAt = now
	if err := s.repo.Copy(ctx, id, dst); err != nil {
		return Entry{}, err
	}
	s.logger.InfoContext(ctx, "history entry duplicated",
		slog.String("source", id.String()), slog.String("id", dst.ID.String()))
	return dst, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Prune deletes entries older than retention and reports how many were removed.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().UTC().Add(-retention)
	n, err := s.repo.Prune(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "history pruned", slog.Int64("deleted", n), slog.Time("cutoff", cutoff))
	}
	return n, nil
}

// CopyNumber derives the quote number of a duplicate from the last four digits of the current
// Unix millisecond clock.
func CopyNumber(number string, now time.Time) string {
	if number == "" {
		number = "Q"
	}
	return fmt.Sprintf("%s-copy-%04d", number, now.UnixMilli()%10000)
}

func (s *Service) mirror(entry Entry, data []byte) {
	if s.archiveDir == "" {
		return
	}
	path := filepath.Join(s.archiveDir, entry.ID.String()+"-"+entry.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.logger.Warn("archive mirror failed", slog.String("path", path), slog.Any("error", err))
	}
}
