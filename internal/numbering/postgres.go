package numbering

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const docType = "Q"

type dbtx interface {
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PostgresSequencer keeps daily counters in the document_sequences table.
type PostgresSequencer struct {
	db dbtx
}

// NewPostgresSequencer wires the sequencer to a pool or transaction.
func NewPostgresSequencer(db dbtx) *PostgresSequencer {
	return &PostgresSequencer{db: db}
}

// Next implements Sequencer.
func (s *PostgresSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	var seq int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, docType, day.Format(DayLayout)).Scan(&seq)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
