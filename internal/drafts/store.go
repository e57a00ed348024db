// Package drafts keeps in-progress quotation payloads in Redis, keyed by quote number.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/quotedesk/internal/quotation"
)

const keyPrefix = "quote_draft:"

var (
	ErrNotFound      = errors.New("drafts: draft not found")
	ErrMissingNumber = errors.New("drafts: quote number required")
)

// Store saves drafts with a sliding TTL: every save restarts the expiry.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore constructs a Store. A zero ttl keeps drafts until deleted.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func key(number string) string {
	return keyPrefix + number
}

// Save stores req under its quote number, replacing any previous draft.
func (s *Store) Save(ctx context.Context, req quotation.Request) error {
	number := strings.TrimSpace(req.QuoteNumber)
	if number == "" {
		return ErrMissingNumber
	}
	raw, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("drafts: marshal: %w", err)
	}
	if err := s.client.Set(ctx, key(number), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("drafts: save %s: %w", number, err)
	}
	return nil
}

// Load returns the draft saved under number.
func (s *Store) Load(ctx context.Context, number string) (quotation.Request, error) {
	var req quotation.Request
	raw, err := s.client.Get(ctx, key(number)).Bytes()
	if errors.Is(err, redis.Nil) {
		return req, ErrNotFound
	}
	if err != nil {
		return req, fmt.Errorf("drafts: load %s: %w", number, err)
	}
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("drafts: decode %s: %w", number, err)
	}
	return req, nil
}

// Delete removes a draft. Deleting a missing draft reports ErrNotFound.
func (s *Store) Delete(ctx context.Context, number string) error {
	n, err := s.client.Del(ctx, key(number)).Result()
	if err != nil {
		return fmt.Errorf("drafts: delete %s: %w", number, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
