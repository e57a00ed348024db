// Package numbering assigns quote numbers of the form Q-YYYYMMDD-NNN from a per-day counter.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix is the document type marker of quote numbers.
	Prefix = "Q"
	// DayLayout formats the calendar day embedded in a quote number.
	DayLayout = "20060102"
)

var (
	// ErrInvalidNumber is returned by Parse for malformed quote numbers.
	ErrInvalidNumber = errors.New("numbering: invalid quote number")
)

// Sequencer hands out the next value of a daily counter. Values must be monotonically increasing
// per day and persist across process restarts.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}

// Service assigns quote numbers. The document layout code only ever consumes its output.
type Service struct {
	seq Sequencer
	now func() time.Time
}

// NewService constructs a Service over the given sequencer.
func NewService(seq Sequencer) *Service {
	return &Service{seq: seq, now: time.Now}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// NextNumber allocates the next quote number for the calendar day of date. A zero date means today.
func (s *Service) NextNumber(ctx context.Context, date time.Time) (string, error) {
	if s == nil || s.seq == nil {
		return "", errors.New("numbering: service not configured")
	}
	if date.IsZero() {
		date = s.now()
	}
	day := Day(date)
	seq, err := s.seq.Next(ctx, day)
	if err != nil {
		return "", fmt.Errorf("numbering: next sequence for %s: %w", day.Format(DayLayout), err)
	}
	return Format(day, seq), nil
}

// Day truncates t to its calendar day in UTC, keeping the wall-clock date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Format renders a quote number; sequences are zero-padded to at least three digits.
func Format(day time.Time, seq int64) string {
	return fmt.Sprintf("%s-%s-%03d", Prefix, day.Format(DayLayout), seq)
}

// Parse splits a quote number into its day and sequence.
func Parse(number string) (time.Time, int64, error) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != Prefix || len(parts[2]) < 3 {
		return time.Time{}, 0, ErrInvalidNumber
	}
	day, err := time.Parse(DayLayout, parts[1])
	if err != nil {
		return time.Time{}, 0, ErrInvalidNumber
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq <= 0 {
		return time.Time{}, 0, ErrInvalidNumber
	}
	return day, seq, nil
}
