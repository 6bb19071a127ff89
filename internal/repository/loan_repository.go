package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fiducialend/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := r.db.Rebind(`
		INSERT INTO loans (` + loanColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.LoanID,
		loan.UserID,
		loan.Amount,
		loan.InterestRate,
		loan.TermInWeeks,
		loan.TotalRepayment,
		loan.OutstandingBalance,
		string(loan.Status),
		nullDueDate(loan.NextPaymentDate),
		loan.NextPaymentAmount,
		loan.Reason,
		loan.ApplicationDate.UTC(),
		nullTimePtr(loan.ActivatedAt),
		loan.UpdatedAt.UTC(),
		loan.Version,
	)

	return err
}

func (r *loanRepository) GetByLoanID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE loan_id = ?
	`)

	var row loanRow
	if err := r.db.GetContext(ctx, &row, query, loanID); err != nil {
		return nil, err
	}

	return row.toDomain()
}

func (r *loanRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = ?
		ORDER BY application_date IS NULL, application_date DESC
	`)

	return r.selectLoans(ctx, query, userID)
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loan *domain.Loan, from domain.LoanStatus) error {
	query := r.db.Rebind(`
		UPDATE loans
		SET status = ?, next_payment_date = ?, next_payment_amount = ?, activated_at = ?,
			updated_at = ?, version = version + 1
		WHERE loan_id = ? AND status = ? AND version = ?
	`)

	result, err := r.db.ExecContext(ctx, query,
		string(loan.Status),
		nullDueDate(loan.NextPaymentDate),
		loan.NextPaymentAmount,
		nullTimePtr(loan.ActivatedAt),
		loan.UpdatedAt.UTC(),
		loan.LoanID,
		string(from),
		loan.Version,
	)
	if err != nil {
		return err
	}

	if err := expectOneRow(result); err != nil {
		return err
	}
	loan.Version++
	return nil
}

func (r *loanRepository) ListDueBefore(ctx context.Context, status domain.LoanStatus, t time.Time) ([]*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = ? AND next_payment_date IS NOT NULL AND next_payment_date < ?
		ORDER BY next_payment_date
	`)

	return r.selectLoans(ctx, query, string(status), t.UTC())
}

func (r *loanRepository) ListDueBetween(ctx context.Context, from, to time.Time) ([]*domain.Loan, error) {
	query := r.db.Rebind(`
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = ? AND next_payment_date >= ? AND next_payment_date < ?
		ORDER BY next_payment_date
	`)

	return r.selectLoans(ctx, query, string(domain.LoanStatusActive), from.UTC(), to.UTC())
}

func (r *loanRepository) selectLoans(ctx context.Context, query string, args ...interface{}) ([]*domain.Loan, error) {
	var rows []loanRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	loans := make([]*domain.Loan, 0, len(rows))
	for i := range rows {
		loan, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		loans = append(loans, loan)
	}

	return loans, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrStaleLoan
	}
	return nil
}
