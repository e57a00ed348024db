package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists history entries and their PDFs.
type Repository interface {
	Insert(ctx context.Context, entry Entry, pdf []byte) error
	List(ctx context.Context, filter Filter) ([]Entry, int, error)
	Get(ctx context.Context, id uuid.UUID) (Entry, error)
	PDF(ctx context.Context, id uuid.UUID) ([]byte, error)
	Copy(ctx context.Context, src uuid.UUID, dst Entry) error
	Delete(ctx context.Context, id uuid.UUID) error
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository builds a Postgres-backed repository on a pool or transaction.
func NewRepository(db dbtx) Repository {
	return &repository{db: db}
}

const entryColumns = `id, quote_number, quote_date, company_name, customer_name, grand_total,
	page_count, filename, checksum, truncated, created_at, payload`

var sortClauses = map[Sort]string{
	SortNewest:    "created_at DESC, id",
	SortOldest:    "created_at ASC, id",
	SortQuoteAsc:  "quote_number ASC, created_at DESC",
	SortQuoteDesc: "quote_number DESC, created_at DESC",
}

func (r *repository) Insert(ctx context.Context, entry Entry, pdf []byte) error {
	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return fmt.Errorf("history: marshal payload: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO quotation_history (`+entryColumns+`, pdf)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, entry.ID, entry.QuoteNumber, entry.QuoteDate, entry.CompanyName, entry.CustomerName, entry.GrandTotal,
		entry.PageCount, entry.Filename, entry.Checksum, entry.Truncated, entry.CreatedAt, payload, pdf)
	if err != nil {
		return fmt.Errorf("history: insert: %w", err)
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter Filter) ([]Entry, int, error) {
	filter = filter.normalized()
	order, ok := sortClauses[filter.Sort]
	if !ok {
		return nil, 0, ErrInvalidSort
	}

	var conditions []string
	var args []interface{}
	argPos := 1
	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(quote_number ILIKE $%[1]d OR quote_date ILIKE $%[1]d OR company_name ILIKE $%[1]d OR customer_name ILIKE $%[1]d)",
			argPos))
		args = append(args, "%"+escapeLike(q)+"%")
		argPos++
	}

	query := `SELECT ` + entryColumns + `, COUNT(*) OVER() FROM quotation_history`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", order, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	total := 0
	for rows.Next() {
		var (
			e       Entry
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.QuoteNumber, &e.QuoteDate, &e.CompanyName, &e.CustomerName, &e.GrandTotal,
			&e.PageCount, &e.Filename, &e.Checksum, &e.Truncated, &e.CreatedAt, &payload, &total); err != nil {
			return nil, 0, fmt.Errorf("history: scan: %w", err)
		}
		if err := decodePayload(payload, &e); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("history: list: %w", err)
	}
	return entries, total, nil
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (Entry, error) {
	var (
		e       Entry
		payload []byte
	)
	err := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM quotation_history WHERE id = $1`, id).
		Scan(&e.ID, &e.QuoteNumber, &e.QuoteDate, &e.CompanyName, &e.CustomerName, &e.GrandTotal,
			&e.PageCount, &e.Filename, &e.Checksum, &e.Truncated, &e.CreatedAt, &payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("history: get: %w", err)
	}
	if err := decodePayload(payload, &e); err != nil {
		return Entry{}, err
	}
	return e, nil
}

func (r *repository) PDF(ctx context.Context, id uuid.UUID) ([]byte, error) {
	var pdf []byte
	err := r.db.QueryRow(ctx, `SELECT pdf FROM quotation_history WHERE id = $1`, id).Scan(&pdf)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("history: pdf: %w", err)
	}
	return pdf, nil
}

// Copy inserts dst carrying over the payload and PDF of src. The payload's quote number is
// rewritten to dst's.
func (r *repository) Copy(ctx context.Context, src uuid.UUID, dst Entry) error {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO quotation_history (`+entryColumns+`, pdf)
		SELECT $2, $3, quote_date, company_name, customer_name, grand_total,
		       page_count, $4, checksum, truncated, $5,
		       jsonb_set(payload, '{quoteNumber}', to_jsonb($3::text)), pdf
		FROM quotation_history WHERE id = $1
	`, src, dst.ID, dst.QuoteNumber, dst.Filename, dst.CreatedAt)
	if err != nil {
		return fmt.Errorf("history: copy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotation_history WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("history: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Prune deletes entries created before the cutoff.
func (r *repository) Prune(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM quotation_history WHERE created_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("history: prune: %w", err)
	}
	return tag.RowsAffected(), nil
}

func decodePayload(raw []byte, e *Entry) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &e.Payload); err != nil {
		return fmt.Errorf("history: decode payload %s: %w", e.ID, err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
