package quotationhttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/drafts"
	"github.com/odyssey-erp/quotedesk/internal/export"
	"github.com/odyssey-erp/quotedesk/internal/history"
	"github.com/odyssey-erp/quotedesk/internal/platform/httpx"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// QuoteService numbers, renders and archives quotations.
type QuoteService interface {
	NextNumber(ctx context.Context, date time.Time) (string, error)
	Prepare(ctx context.Context, req quotation.Request) (quotation.Request, error)
	Render(ctx context.Context, req quotation.Request) (document.Artifact, error)
	Export(ctx context.Context, req quotation.Request) (export.Result, error)
	Summary(req quotation.Request) document.Summary
}

// HistoryService manages archived quotations.
type HistoryService interface {
	List(ctx context.Context, filter history.Filter) ([]history.Entry, int, error)
	Get(ctx context.Context, id uuid.UUID) (history.Entry, error)
	PDF(ctx context.Context, id uuid.UUID) (history.Entry, []byte, error)
	Duplicate(ctx context.Context, id uuid.UUID) (history.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// DraftStore keeps in-progress payloads.
type DraftStore interface {
	Save(ctx context.Context, req quotation.Request) error
	Load(ctx context.Context, number string) (quotation.Request, error)
	Delete(ctx context.Context, number string) error
}

// Enqueuer schedules background renders.
type Enqueuer interface {
	EnqueueRender(ctx context.Context, req quotation.Request) (*asynq.TaskInfo, error)
}

// Handler wires the JSON API for quotations, history and drafts. History, Drafts and Queue are
// optional; their routes answer 503 when absent.
type Handler struct {
	logger    *slog.Logger
	quotes    QuoteService
	history   HistoryService
	drafts    DraftStore
	queue     Enqueuer
	validator *validator.Validate
}

// NewHandler constructs a Handler value.
func NewHandler(logger *slog.Logger, quotes QuoteService, hist HistoryService, draftStore DraftStore, queue Enqueuer) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:    logger,
		quotes:    quotes,
		history:   hist,
		drafts:    draftStore,
		queue:     queue,
		validator: validator.New(),
	}
}

// MountRoutes registers HTTP routes under /api.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/quotations", func(r chi.Router) {
		r.Post("/numbers", h.allocateNumber)
		r.Post("/preview", h.preview)
		r.Post("/export", h.export)
		r.Post("/export.csv", h.exportCSV)
		r.Post("/export.json", h.exportJSON)
		r.Post("/summary", h.summary)
	})
	r.Route("/history", func(r chi.Router) {
		r.Use(h.requireHistory)
		r.Get("/", h.listHistory)
		r.Get("/{id}", h.getHistory)
		r.Get("/{id}/pdf", h.historyPDF)
		r.Get("/{id}/json", h.historyJSON)
		r.Post("/{id}/duplicate", h.duplicateHistory)
		r.Delete("/{id}", h.deleteHistory)
	})
	r.Route("/drafts", func(r chi.Router) {
		r.Use(h.requireDrafts)
		r.Put("/{number}", h.saveDraft)
		r.Get("/{number}", h.loadDraft)
		r.Delete("/{number}", h.deleteDraft)
	})
}

type numberRequest struct {
	Date string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

type numberResponse struct {
	QuoteNumber string `json:"quote_number"`
}

func (h *Handler) allocateNumber(w http.ResponseWriter, r *http.Request) {
	var req numberRequest
	if r.ContentLength != 0 {
		if err := httpx.DecodeJSON(w, r, &req); err != nil {
			h.respondError(w, r, err)
			return
		}
	}
	if err := h.validate(req); err != nil {
		h.respondError(w, r, err)
		return
	}
	var date time.Time
	if req.Date != "" {
		date, _ = time.Parse(quotation.DateLayout, req.Date)
	}
	number, err := h.quotes.NextNumber(r.Context(), date)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, numberResponse{QuoteNumber: number})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	artifact, err := h.quotes.Render(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	writeArtifact(w, artifact, true)
}

type enqueuedResponse struct {
	TaskID      string `json:"task_id"`
	Queue       string `json:"queue"`
	QuoteNumber string `json:"quote_number"`
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.exportAsync(w, r, req)
		return
	}
	result, err := h.quotes.Export(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.Header().Set("X-Quotation-ID", result.Entry.ID.String())
	w.Header().Set("X-Quote-Number", result.Entry.QuoteNumber)
	writeArtifact(w, result.Artifact, false)
}

func (h *Handler) exportAsync(w http.ResponseWriter, r *http.Request, req quotation.Request) {
	if h.queue == nil {
		h.respondError(w, r, fmt.Errorf("%w: background rendering disabled", httpx.ErrUnavailable))
		return
	}
	req, err := h.quotes.Prepare(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	info, err := h.queue.EnqueueRender(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusAccepted, enqueuedResponse{TaskID: info.ID, Queue: info.Queue, QuoteNumber: req.QuoteNumber})
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	data, err := quotation.CSV(req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Attachment(w, "text/csv; charset=utf-8", baseName(req.QuoteNumber)+".csv", data, false)
}

func (h *Handler) exportJSON(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	data, err := quotation.JSON(req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Attachment(w, "application/json", baseName(req.QuoteNumber)+".json", data, false)
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.quotes.Summary(req))
}

func (h *Handler) decodeQuotation(w http.ResponseWriter, r *http.Request) (quotation.Request, bool) {
	var req quotation.Request
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return req, false
	}
	if err := h.validate(req); err != nil {
		h.respondError(w, r, err)
		return req, false
	}
	return req, true
}

func (h *Handler) validate(v any) error {
	if err := h.validator.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace()+" ("+fe.Tag()+")")
			}
			return fmt.Errorf("%w: %s", httpx.ErrValidation, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return nil
}

func writeArtifact(w http.ResponseWriter, artifact document.Artifact, inline bool) {
	w.Header().Set("X-Page-Count", strconv.Itoa(artifact.PageCount))
	w.Header().Set("ETag", `"`+artifact.Checksum+`"`)
	if artifact.Truncated {
		w.Header().Set("X-Content-Truncated", "true")
	}
	httpx.Attachment(w, artifact.ContentType, artifact.Filename, artifact.Data, inline)
}

// baseName strips the .pdf suffix from the artifact filename derived from number.
func baseName(number string) string {
	return strings.TrimSuffix(document.Filename(number), ".pdf")
}

// respondError translates domain failures to problem responses.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, history.ErrNotFound), errors.Is(err, drafts.ErrNotFound):
		err = fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, history.ErrInvalidSort), errors.Is(err, drafts.ErrMissingNumber):
		err = fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	case errors.Is(err, document.ErrPageLimit):
		err = fmt.Errorf("%w: %v", httpx.ErrUnprocessable, err)
	case errors.Is(err, export.ErrArchiveUnavailable):
		err = fmt.Errorf("%w: %v", httpx.ErrUnavailable, err)
	case errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrUnprocessable), errors.Is(err, httpx.ErrUnavailable):
	default:
		h.logger.ErrorContext(r.Context(), "quotation api",
			slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
