package history

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

// fakeRows serves fixed rows; each row lists scan targets' values in column order.
type fakeRows struct {
	rows [][]any
	pos  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.rows[r.pos-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return scanInto(r.rows[r.pos-1], dest)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

func scanInto(values []any, dest []any) error {
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(values[i]))
	}
	return nil
}

type fakeDB struct {
	query   string
	args    []any
	tag     string
	rows    [][]any
	row     fakeRow
	execErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error) {
	f.query, f.args = sql, args
	return pgconn.NewCommandTag(f.tag), f.execErr
}

func (f *fakeDB) Query(_ context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	f.query, f.args = sql, args
	return &fakeRows{rows: f.rows}, nil
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.query, f.args = sql, args
	return f.row
}

func entryValues(t *testing.T, id uuid.UUID, number string) []any {
	t.Helper()
	payload, err := json.Marshal(quotation.Request{QuoteNumber: number, VATPercent: 7.5})
	require.NoError(t, err)
	return []any{id, number, "2025-04-09", "Acme", "Globex", 225.0, 1, number + ".pdf", "abc", false,
		time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), payload}
}

func TestRepositoryListBuildsSearchAndSort(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{rows: [][]any{append(entryValues(t, id, "Q-20250409-001"), 7)}}
	repo := NewRepository(db)

	entries, total, err := repo.List(context.Background(), Filter{Query: "acme_50%", Sort: SortQuoteDesc, Limit: 10, Offset: 20})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	require.Len(t, entries, 1)
	assert.Equal(t, id, entries[0].ID)
	assert.Equal(t, 7.5, entries[0].Payload.VATPercent.Float())

	assert.Contains(t, db.query, "company_name ILIKE $1")
	assert.Contains(t, db.query, "customer_name ILIKE $1")
	assert.Contains(t, db.query, "ORDER BY quote_number DESC")
	assert.Contains(t, db.query, "LIMIT $2 OFFSET $3")
	assert.Equal(t, []any{`%acme\_50\%%`, 10, 20}, db.args)
}

func TestRepositoryListWithoutQuery(t *testing.T) {
	db := &fakeDB{}
	_, total, err := NewRepository(db).List(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotContains(t, db.query, "WHERE")
	assert.Contains(t, db.query, "ORDER BY created_at DESC")
	assert.Equal(t, []any{defaultLimit, 0}, db.args)
}

func TestRepositoryListRejectsUnknownSort(t *testing.T) {
	_, _, err := NewRepository(&fakeDB{}).List(context.Background(), Filter{Sort: "random"})
	assert.ErrorIs(t, err, ErrInvalidSort)
}

func TestRepositoryGetMapsNoRows(t *testing.T) {
	repo := NewRepository(&fakeDB{row: fakeRow{err: pgx.ErrNoRows}})
	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = repo.PDF(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryGetDecodesPayload(t *testing.T) {
	id := uuid.New()
	repo := NewRepository(&fakeDB{row: fakeRow{values: entryValues(t, id, "Q-20250409-002")}})
	entry, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Q-20250409-002", entry.Payload.QuoteNumber)
	assert.Equal(t, "Globex", entry.CustomerName)
}

func TestRepositoryDeleteAndCopyReportMissingRows(t *testing.T) {
	db := &fakeDB{tag: "DELETE 0"}
	repo := NewRepository(db)
	assert.ErrorIs(t, repo.Delete(context.Background(), uuid.New()), ErrNotFound)

	db.tag = "DELETE 1"
	assert.NoError(t, repo.Delete(context.Background(), uuid.New()))

	db.tag = "INSERT 0 0"
	assert.ErrorIs(t, repo.Copy(context.Background(), uuid.New(), Entry{ID: uuid.New()}), ErrNotFound)

	db.tag = "INSERT 0 1"
	src := uuid.New()
	require.NoError(t, repo.Copy(context.Background(), src, Entry{ID: uuid.New(), QuoteNumber: "Q-copy-0001"}))
	assert.Equal(t, src, db.args[0])
	assert.Contains(t, db.query, "FROM quotation_history WHERE id = $1")
	assert.Contains(t, db.query, "jsonb_set(payload, '{quoteNumber}', to_jsonb($3::text))")
	assert.Equal(t, "Q-copy-0001", db.args[2])
}

func TestRepositoryInsertMarshalsPayload(t *testing.T) {
	db := &fakeDB{tag: "INSERT 0 1"}
	entry := Entry{ID: uuid.New(), QuoteNumber: "Q-1", Payload: quotation.Request{Notes: "hi"}}
	require.NoError(t, NewRepository(db).Insert(context.Background(), entry, []byte("pdf")))
	require.Len(t, db.args, 13)
	assert.JSONEq(t, mustJSON(t, entry.Payload), string(db.args[11].([]byte)))
	assert.Equal(t, []byte("pdf"), db.args[12])
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRepositoryPruneReturnsDeletedCount(t *testing.T) {
	db := &fakeDB{tag: "DELETE 3"}
	cutoff := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	n, err := NewRepository(db).Prune(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, []any{cutoff}, db.args)
}
