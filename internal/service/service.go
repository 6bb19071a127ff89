// Package service implements the lending use cases on top of the repositories.
package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/events"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

// LoanCache is the read-through cache for a user's loan list.
type LoanCache interface {
	Get(ctx context.Context, userID string) ([]*domain.Loan, bool, error)
	Set(ctx context.Context, userID string, loans []*domain.Loan) error
	Invalidate(ctx context.Context, userID string) error
}

// loanLookupError maps a repository lookup failure to a business error.
func loanLookupError(loanID string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return customError.WrapLoanNotFound(loanID)
	}
	if customError.Code(err) != "" {
		return err
	}
	slog.Error("failed to load loan", "loan_id", loanID, "error", err)
	return customError.WrapDatabaseError(err)
}

// persistenceError logs and wraps a storage failure.
func persistenceError(msg string, err error, attrs ...any) error {
	if customError.Code(err) != "" {
		return err
	}
	slog.Error(msg, append(attrs, "error", err)...)
	return customError.WrapDatabaseError(err)
}

// sortByApplicationDate orders loans newest first; loans without an
// application date go last.
func sortByApplicationDate(loans []*domain.Loan) {
	sort.SliceStable(loans, func(i, j int) bool {
		a, b := loans[i].ApplicationDate, loans[j].ApplicationDate
		if a.IsZero() != b.IsZero() {
			return !a.IsZero()
		}
		return a.After(b)
	})
}

func publish(ctx context.Context, p events.Publisher, evts ...events.Event) {
	if p == nil || len(evts) == 0 {
		return
	}
	if err := p.Publish(ctx, evts...); err != nil {
		slog.Warn("failed to publish events", "count", len(evts), "type", evts[0].Type, "error", err)
	}
}

func invalidate(ctx context.Context, c LoanCache, userID string) {
	if c == nil {
		return
	}
	if err := c.Invalidate(ctx, userID); err != nil {
		slog.Warn("failed to invalidate loan cache", "user_id", userID, "error", err)
	}
}

func utcNow() time.Time { return time.Now().UTC() }
