package quotationhttp

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/history"
	"github.com/odyssey-erp/quotedesk/internal/platform/httpx"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

type historyItem struct {
	ID           uuid.UUID `json:"id"`
	QuoteNumber  string    `json:"quote_number"`
	Date         string    `json:"date"`
	CompanyName  string    `json:"company_name"`
	CustomerName string    `json:"customer_name"`
	GrandTotal   float64   `json:"grand_total"`
	PageCount    int       `json:"page_count"`
	Filename     string    `json:"filename"`
	Truncated    bool      `json:"truncated"`
	CreatedAt    time.Time `json:"created_at"`
}

type historyList struct {
	Items []historyItem `json:"items"`
	Total int           `json:"total"`
}

func toItem(e history.Entry) historyItem {
	return historyItem{
		ID:           e.ID,
		QuoteNumber:  e.QuoteNumber,
		Date:         e.QuoteDate,
		CompanyName:  e.CompanyName,
		CustomerName: e.CustomerName,
		GrandTotal:   e.GrandTotal,
		PageCount:    e.PageCount,
		Filename:     e.Filename,
		Truncated:    e.Truncated,
		CreatedAt:    e.CreatedAt,
	}
}

func (h *Handler) requireHistory(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.history == nil {
			httpx.RespondError(w, fmt.Errorf("%w: history archive disabled", httpx.ErrUnavailable))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) requireDrafts(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.drafts == nil {
			httpx.RespondError(w, fmt.Errorf("%w: draft store disabled", httpx.ErrUnavailable))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := history.ParseSort(q.Get("sort"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	limit, err := optionalInt(q.Get("limit"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	offset, err := optionalInt(q.Get("offset"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	entries, total, err := h.history.List(r.Context(), history.Filter{
		Query:  q.Get("q"),
		Sort:   sort,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	items := make([]historyItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, toItem(e))
	}
	httpx.JSON(w, http.StatusOK, historyList{Items: items, Total: total})
}

func (h *Handler) getHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) historyPDF(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	entry, data, err := h.history.PDF(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	inline, _ := strconv.ParseBool(r.URL.Query().Get("inline"))
	httpx.Attachment(w, document.ContentTypePDF, entry.Filename, data, inline)
}

func (h *Handler) historyJSON(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.history.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	data, err := quotation.JSON(entry.Payload)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.Attachment(w, "application/json", baseName(entry.QuoteNumber)+".json", data, false)
}

func (h *Handler) duplicateHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	entry, err := h.history.Duplicate(r.Context(), id)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toItem(entry))
}

func (h *Handler) deleteHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.entryID(w, r)
	if !ok {
		return
	}
	if err := h.history.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) entryID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, fmt.Errorf("%w: invalid id", httpx.ErrValidation))
		return uuid.Nil, false
	}
	return id, true
}

func optionalInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", httpx.ErrValidation, v)
	}
	return n, nil
}

func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeQuotation(w, r)
	if !ok {
		return
	}
	req.QuoteNumber = chi.URLParam(r, "number")
	if err := h.drafts.Save(r.Context(), req); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadDraft(w http.ResponseWriter, r *http.Request) {
	req, err := h.drafts.Load(r.Context(), chi.URLParam(r, "number"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, req)
}

func (h *Handler) deleteDraft(w http.ResponseWriter, r *http.Request) {
	if err := h.drafts.Delete(r.Context(), chi.URLParam(r, "number")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
