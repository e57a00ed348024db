package numbering

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPadsSequence(t *testing.T) {
	day := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Q-20250307-001", Format(day, 1))
	assert.Equal(t, "Q-20250307-042", Format(day, 42))
	assert.Equal(t, "Q-20250307-1000", Format(day, 1000))
}

func TestParseRoundTrip(t *testing.T) {
	day, seq, err := Parse("Q-20250307-012")
	require.NoError(t, err)
	assert.Equal(t, 12, int(seq))
	assert.Equal(t, "20250307", day.Format(DayLayout))

	for _, bad := range []string{"", "Q-2025-001", "X-20250307-001", "Q-20250307-01", "Q-20250307-000", "Q-20250307-001-copy-1234"} {
		_, _, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidNumber, bad)
	}
}

func TestServiceNextNumberIsMonotonicPerDay(t *testing.T) {
	svc := NewService(NewMemorySequencer())
	ctx := context.Background()
	morning := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2025, 1, 2, 22, 30, 0, 0, time.UTC)
	nextDay := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)

	first, err := svc.NextNumber(ctx, morning)
	require.NoError(t, err)
	second, err := svc.NextNumber(ctx, evening)
	require.NoError(t, err)
	third, err := svc.NextNumber(ctx, nextDay)
	require.NoError(t, err)

	assert.Equal(t, "Q-20250102-001", first)
	assert.Equal(t, "Q-20250102-002", second)
	assert.Equal(t, "Q-20250103-001", third)
}

func TestServiceZeroDateUsesClock(t *testing.T) {
	svc := NewService(NewMemorySequencer())
	svc.WithNow(func() time.Time { return time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC) })
	number, err := svc.NextNumber(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, "Q-20241231-001", number)
}

func TestMemorySequencerSeed(t *testing.T) {
	seq := NewMemorySequencer()
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seq.Seed(day, 998)
	svc := NewService(seq)
	a, _ := svc.NextNumber(context.Background(), day)
	b, _ := svc.NextNumber(context.Background(), day)
	assert.Equal(t, "Q-20250601-999", a)
	assert.Equal(t, "Q-20250601-1000", b)
}

func TestRedisSequencer(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(NewRedisSequencer(client))
	day := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := svc.NextNumber(ctx, day)
	require.NoError(t, err)
	second, err := svc.NextNumber(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, "Q-20250214-001", first)
	assert.Equal(t, "Q-20250214-002", second)

	val, err := mr.Get("quote_counter:2025-02-14")
	require.NoError(t, err)
	assert.Equal(t, "2", val)
	assert.Equal(t, time.Duration(0), mr.TTL("quote_counter:2025-02-14"))
}

func TestRedisSequencerKeepsCountersAcrossWeeks(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	svc := NewService(NewRedisSequencer(client))
	day := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	ctx := context.Background()

	first, err := svc.NextNumber(ctx, day)
	require.NoError(t, err)
	mr.FastForward(8 * 24 * time.Hour)
	second, err := svc.NextNumber(ctx, day)
	require.NoError(t, err)

	assert.Equal(t, "Q-20250101-001", first)
	assert.Equal(t, "Q-20250101-002", second)
}

type fakeRow struct {
	seq int64
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*int64)) = r.seq
	return nil
}

type fakeDB struct {
	next  int64
	err   error
	query string
	args  []any
}

func (f *fakeDB) QueryRow(_ context.Context, sql string, args ...interface{}) pgx.Row {
	f.query = sql
	f.args = args
	f.next++
	return fakeRow{seq: f.next, err: f.err}
}

func TestPostgresSequencerUpsertsDailyPeriod(t *testing.T) {
	db := &fakeDB{}
	svc := NewService(NewPostgresSequencer(db))
	number, err := svc.NextNumber(context.Background(), time.Date(2025, 4, 9, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "Q-20250409-001", number)
	assert.Contains(t, db.query, "ON CONFLICT (doc_type, period)")
	assert.Equal(t, []any{"Q", "20250409"}, db.args)
}

func TestPostgresSequencerPropagatesErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(NewPostgresSequencer(&fakeDB{err: boom}))
	_, err := svc.NextNumber(context.Background(), time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
