package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/fiducialend/internal/domain"
)

const loanListKeyPrefix = "fiducialend:loans:user:"

// loanEntry keeps the storage fields the public JSON form of a loan omits.
type loanEntry struct {
	*domain.Loan
	StorageID uuid.UUID `json:"storageId"`
	Version   int       `json:"version"`
}

// LoanListCache caches each user's loan list.
type LoanListCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLoanListCache(rdb *redis.Client, ttl time.Duration) *LoanListCache {
	return &LoanListCache{rdb: rdb, ttl: ttl}
}

func loanListKey(userID string) string {
	return loanListKeyPrefix + userID
}

// Get returns the cached list and whether it was present.
func (c *LoanListCache) Get(ctx context.Context, userID string) ([]*domain.Loan, bool, error) {
	raw, err := c.rdb.Get(ctx, loanListKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var entries []loanEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false, err
	}

	loans := make([]*domain.Loan, 0, len(entries))
	for _, e := range entries {
		if e.Loan == nil {
			continue
		}
		e.Loan.ID = e.StorageID
		e.Loan.Version = e.Version
		loans = append(loans, e.Loan)
	}
	return loans, true, nil
}

// Set stores loans for userID.
func (c *LoanListCache) Set(ctx context.Context, userID string, loans []*domain.Loan) error {
	entries := make([]loanEntry, 0, len(loans))
	for _, l := range loans {
		entries = append(entries, loanEntry{Loan: l, StorageID: l.ID, Version: l.Version})
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, loanListKey(userID), payload, c.ttl).Err()
}

// Invalidate drops userID's cached list.
func (c *LoanListCache) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, loanListKey(userID)).Err()
}
