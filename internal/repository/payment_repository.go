package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/segyhp/fiducialend/internal/database"
	"github.com/segyhp/fiducialend/internal/domain"
)

type paymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Record inserts the payment and writes the settled loan back. The loan write
// is guarded by the version read before settlement; a concurrent writer makes
// it fail with ErrStaleLoan and nothing is stored.
func (r *paymentRepository) Record(ctx context.Context, loan *domain.Loan, payment *domain.Payment) error {
	insertPayment := r.db.Rebind(`
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	updateLoan := r.db.Rebind(`
		UPDATE loans
		SET outstanding_balance = ?, status = ?, next_payment_date = ?, next_payment_amount = ?,
			updated_at = ?, version = version + 1
		WHERE loan_id = ? AND version = ?
	`)

	err := database.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, insertPayment,
			payment.ID,
			payment.LoanID,
			payment.UserID,
			payment.Amount,
			string(payment.Status),
			payment.Date.UTC(),
		); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, updateLoan,
			loan.OutstandingBalance,
			string(loan.Status),
			nullDueDate(loan.NextPaymentDate),
			loan.NextPaymentAmount,
			loan.UpdatedAt.UTC(),
			loan.LoanID,
			loan.Version,
		)
		if err != nil {
			return err
		}
		return expectOneRow(result)
	})
	if err != nil {
		return err
	}

	loan.Version++
	return nil
}

func (r *paymentRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = ?
		ORDER BY payment_date DESC
	`)

	return r.selectPayments(ctx, query, userID)
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	query := r.db.Rebind(`
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE loan_id = ?
		ORDER BY payment_date
	`)

	return r.selectPayments(ctx, query, loanID)
}

func (r *paymentRepository) selectPayments(ctx context.Context, query string, args ...interface{}) ([]*domain.Payment, error) {
	var rows []paymentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	payments := make([]*domain.Payment, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	return payments, nil
}
