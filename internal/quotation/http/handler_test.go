package quotationhttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/quotedesk/internal/document"
	"github.com/odyssey-erp/quotedesk/internal/drafts"
	"github.com/odyssey-erp/quotedesk/internal/export"
	"github.com/odyssey-erp/quotedesk/internal/history"
	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const samplePayload = `{
	"company": {"name": "Acme Ltd"},
	"customer": {"name": "Jane Doe"},
	"items": [{"description": "Widget", "qty": "2", "price": 100}, {"description": "Bolt, zinc", "qty": 3, "price": "1.5"}],
	"vatPercent": 7.5,
	"shipping": "10",
	"date": "2024-03-05"
}`

type stubQuotes struct {
	prepared  quotation.Request
	rendered  quotation.Request
	exported  quotation.Request
	renderErr error
	exportErr error
}

func (s *stubQuotes) NextNumber(ctx context.Context, date time.Time) (string, error) {
	if date.IsZero() {
		return "Q-TODAY-0001", nil
	}
	return "Q-" + date.Format("20060102") + "-0001", nil
}

func (s *stubQuotes) Prepare(ctx context.Context, req quotation.Request) (quotation.Request, error) {
	req.QuoteNumber = "Q-20240305-0007"
	s.prepared = req
	return req, nil
}

func (s *stubQuotes) Render(ctx context.Context, req quotation.Request) (document.Artifact, error) {
	s.rendered = req
	if s.renderErr != nil {
		return document.Artifact{}, s.renderErr
	}
	return document.Artifact{
		Data:        []byte("%PDF-1.3 preview"),
		PageCount:   2,
		Filename:    document.Filename(req.QuoteNumber),
		ContentType: document.ContentTypePDF,
		Checksum:    "abc123",
		Truncated:   true,
	}, nil
}

func (s *stubQuotes) Export(ctx context.Context, req quotation.Request) (export.Result, error) {
	s.exported = req
	if s.exportErr != nil {
		return export.Result{}, s.exportErr
	}
	return export.Result{
		Entry: history.Entry{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), QuoteNumber: "Q-20240305-0001"},
		Artifact: document.Artifact{
			Data:        []byte("%PDF-1.3 export"),
			PageCount:   1,
			Filename:    "Q-20240305-0001.pdf",
			ContentType: document.ContentTypePDF,
			Checksum:    "def456",
		},
	}, nil
}

func (s *stubQuotes) Summary(req quotation.Request) document.Summary {
	return document.Summary{Subtotal: "NGN 204.50", Total: "NGN 229.84"}
}

type stubHistory struct {
	entries map[uuid.UUID]history.Entry
	filter  history.Filter
}

func (s *stubHistory) List(ctx context.Context, filter history.Filter) ([]history.Entry, int, error) {
	s.filter = filter
	out := make([]history.Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e)
	}
	return out, len(out), nil
}

func (s *stubHistory) Get(ctx context.Context, id uuid.UUID) (history.Entry, error) {
	e, ok := s.entries[id]
	if !ok {
		return history.Entry{}, history.ErrNotFound
	}
	return e, nil
}

func (s *stubHistory) PDF(ctx context.Context, id uuid.UUID) (history.Entry, []byte, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return e, nil, err
	}
	return e, []byte("%PDF-archived"), nil
}

func (s *stubHistory) Duplicate(ctx context.Context, id uuid.UUID) (history.Entry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return e, err
	}
	e.ID = uuid.New()
	e.QuoteNumber += "-copy-0001"
	s.entries[e.ID] = e
	return e, nil
}

func (s *stubHistory) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.entries[id]; !ok {
		return history.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

type stubQueue struct {
	req quotation.Request
	err error
}

func (q *stubQueue) EnqueueRender(ctx context.Context, req quotation.Request) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.req = req
	return &asynq.TaskInfo{ID: "task-1", Queue: "render"}, nil
}

type testEnv struct {
	router  http.Handler
	quotes  *stubQuotes
	history *stubHistory
	queue   *stubQueue
	entryID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	id := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	env := &testEnv{
		quotes: &stubQuotes{},
		history: &stubHistory{entries: map[uuid.UUID]history.Entry{
			id: {
				ID:           id,
				QuoteNumber:  "Q-20240305-0001",
				QuoteDate:    "2024-03-05",
				CompanyName:  "Acme Ltd",
				CustomerName: "Jane Doe",
				GrandTotal:   229.84,
				PageCount:    1,
				Filename:     "Q-20240305-0001.pdf",
				Payload:      quotation.Request{QuoteNumber: "Q-20240305-0001", Notes: "hello"},
			},
		}},
		queue:   &stubQueue{},
		entryID: id,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, env.quotes, env.history, drafts.NewStore(client, time.Hour), env.queue)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)
	env.router = r
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestAllocateNumber(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/numbers", `{"date":"2024-03-05"}`)
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"quote_number":"Q-20240305-0001"}`, rr.Body.String())

	rr = env.do(http.MethodPost, "/api/quotations/numbers", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Q-TODAY-0001")

	rr = env.do(http.MethodPost, "/api/quotations/numbers", `{"date":"05/03/2024"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPreviewStreamsInlinePDF(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/preview", samplePayload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, document.ContentTypePDF, rr.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), "inline"))
	assert.Equal(t, "2", rr.Header().Get("X-Page-Count"))
	assert.Equal(t, "true", rr.Header().Get("X-Content-Truncated"))
	assert.Equal(t, `"abc123"`, rr.Header().Get("ETag"))
	assert.Equal(t, "%PDF-1.3 preview", rr.Body.String())

	assert.Equal(t, "Acme Ltd", env.quotes.rendered.Company.Name)
	assert.InDelta(t, 2, env.quotes.rendered.Items[0].Qty.Float(), 1e-9)
	assert.InDelta(t, 1.5, env.quotes.rendered.Items[1].Price.Float(), 1e-9)
}

func TestPreviewRejectsMalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/preview", `{"company":`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))
}

func TestPreviewMapsPageLimitToUnprocessable(t *testing.T) {
	env := newTestEnv(t)
	env.quotes.renderErr = errors.Join(document.ErrGenerationFailed, document.ErrPageLimit)

	rr := env.do(http.MethodPost, "/api/quotations/preview", samplePayload)
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
}

func TestPreviewHidesInternalErrors(t *testing.T) {
	env := newTestEnv(t)
	env.quotes.renderErr = errors.New("encoder exploded: secret detail")

	rr := env.do(http.MethodPost, "/api/quotations/preview", samplePayload)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret detail")
}

func TestExportReturnsAttachment(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/export", samplePayload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", rr.Header().Get("X-Quotation-ID"))
	assert.Equal(t, "Q-20240305-0001", rr.Header().Get("X-Quote-Number"))
	assert.Equal(t, `attachment; filename=Q-20240305-0001.pdf`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-1.3 export", rr.Body.String())
}

func TestExportWithoutArchiveIsUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.quotes.exportErr = export.ErrArchiveUnavailable

	rr := env.do(http.MethodPost, "/api/quotations/export", samplePayload)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestExportAsyncEnqueuesPreparedPayload(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/export?async=1", samplePayload)
	require.Equal(t, http.StatusAccepted, rr.Code)

	var body enqueuedResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, enqueuedResponse{TaskID: "task-1", Queue: "render", QuoteNumber: "Q-20240305-0007"}, body)
	assert.Equal(t, "Q-20240305-0007", env.queue.req.QuoteNumber)
	assert.Empty(t, env.quotes.exported.Company.Name)
}

func TestExportCSVAndJSON(t *testing.T) {
	env := newTestEnv(t)
	payload := strings.Replace(samplePayload, `"date"`, `"quoteNumber": "Q-1", "date"`, 1)

	rr := env.do(http.MethodPost, "/api/quotations/export.csv", payload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Q-1.csv")
	assert.Contains(t, rr.Body.String(), `"Bolt, zinc",3,1.5,4.5`)

	rr = env.do(http.MethodPost, "/api/quotations/export.json", payload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "Q-1.json")
	var decoded quotation.Request
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	assert.Equal(t, "Q-1", decoded.QuoteNumber)
}

func TestSummary(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/api/quotations/summary", samplePayload)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "NGN 229.84")
}

func TestHistoryListOmitsPayload(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/api/history?q=acme&sort=oldest&limit=10&offset=5", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "payload")

	var body historyList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Jane Doe", body.Items[0].CustomerName)

	assert.Equal(t, history.Filter{Query: "acme", Sort: history.SortOldest, Limit: 10, Offset: 5}, env.history.filter)
}

func TestHistoryListValidatesQuery(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/history?sort=sideways", "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/history?limit=ten", "").Code)
}

func TestHistoryEntryRoutes(t *testing.T) {
	env := newTestEnv(t)
	base := "/api/history/" + env.entryID.String()

	rr := env.do(http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"payload"`)

	rr = env.do(http.MethodGet, base+"/pdf?inline=true", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `inline; filename=Q-20240305-0001.pdf`, rr.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF-archived", rr.Body.String())

	rr = env.do(http.MethodGet, base+"/json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"notes": "hello"`)

	rr = env.do(http.MethodPost, base+"/duplicate", "")
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Contains(t, rr.Body.String(), "Q-20240305-0001-copy-0001")
	assert.Len(t, env.history.entries, 2)

	rr = env.do(http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, base, "").Code)
}

func TestHistoryRejectsBadID(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/api/history/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/history/"+uuid.NewString(), "").Code)
}

func TestDraftLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPut, "/api/drafts/Q-DRAFT-1", samplePayload)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = env.do(http.MethodGet, "/api/drafts/Q-DRAFT-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var draft quotation.Request
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &draft))
	assert.Equal(t, "Q-DRAFT-1", draft.QuoteNumber)
	assert.Equal(t, "Jane Doe", draft.Customer.Name)

	assert.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/api/drafts/Q-DRAFT-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/api/drafts/Q-DRAFT-1", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodDelete, "/api/drafts/Q-DRAFT-1", "").Code)
}

func TestOptionalCollaboratorsAnswerUnavailable(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandler(logger, &stubQuotes{}, nil, nil, nil)
	r := chi.NewRouter()
	r.Route("/api", h.MountRoutes)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodGet, "/api/history", ""},
		{http.MethodGet, "/api/drafts/Q-1", ""},
		{http.MethodPost, "/api/quotations/export?async=true", samplePayload},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code, tc.path)
	}
}
