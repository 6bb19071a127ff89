package repository

import (
	"context"
	"errors"
	"time"

	"github.com/segyhp/fiducialend/internal/domain"
)

// ErrStaleLoan is returned when a guarded loan update matched no row because
// the stored status or version no longer matches what the caller read.
var ErrStaleLoan = errors.New("repository: loan changed since it was read")

// LoanRepository defines the interface for loan data operations.
// Lookups that find nothing return sql.ErrNoRows.
type LoanRepository interface {
	// Create inserts a new loan
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByLoanID retrieves a loan by its business identifier
	GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListByUser returns a user's loans, newest application first
	ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error)

	// UpdateStatus persists a status change made on loan, provided the stored
	// row is still in status from at the version the caller read
	UpdateStatus(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error

	// ListDueBefore returns loans in status whose next payment date is before t
	ListDueBefore(ctx context.Context, status domain.LoanStatus, t time.Time) ([]*domain.Loan, error)

	// ListDueBetween returns active loans with a next payment in [from, to)
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Loan, error)
}

// PaymentRepository defines the interface for payment data operations
type PaymentRepository interface {
	// Record stores payment and the loan it settled in one transaction
	Record(ctx context.Context, loan *domain.Loan, payment *domain.Payment) error

	// ListByUser returns a user's payments, newest first
	ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error)

	// ListByLoan returns a loan's payments, oldest first
	ListByLoan(ctx context.Context, loanID string) ([]*domain.Payment, error)
}

// TransactionRepository stores personal ledger entries
type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.PersonalTransaction) error
	ListByUser(ctx context.Context, userID string) ([]*domain.PersonalTransaction, error)
}

type ArticleRepository interface {
	Create(ctx context.Context, article *domain.Article) error
	GetByID(ctx context.Context, id string) (*domain.Article, error)
	List(ctx context.Context) ([]*domain.Article, error)
}

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	ListActive(ctx context.Context) ([]*domain.Offer, error)
}

type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
	Upsert(ctx context.Context, profile *domain.Profile) error
}
