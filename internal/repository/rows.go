package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/domain"
	apperrors "github.com/segyhp/fiducialend/pkg/errors"
)

// Rows are scanned into raw structs and decoded here. A row that does not
// decode is reported as a malformed record instead of being defaulted.

type loanRow struct {
	ID                 string       `db:"id"`
	LoanID             string       `db:"loan_id"`
	UserID             string       `db:"user_id"`
	Amount             string       `db:"amount"`
	InterestRate       string       `db:"interest_rate"`
	TermInWeeks        int          `db:"term_in_weeks"`
	TotalRepayment     string       `db:"total_repayment"`
	OutstandingBalance string       `db:"outstanding_balance"`
	Status             string       `db:"status"`
	NextPaymentDate    sql.NullTime `db:"next_payment_date"`
	NextPaymentAmount  string       `db:"next_payment_amount"`
	Reason             string       `db:"reason"`
	ApplicationDate    sql.NullTime `db:"application_date"`
	ActivatedAt        sql.NullTime `db:"activated_at"`
	UpdatedAt          sql.NullTime `db:"updated_at"`
	Version            int          `db:"version"`
}

const loanColumns = `id, loan_id, user_id, amount, interest_rate, term_in_weeks, total_repayment,
	outstanding_balance, status, next_payment_date, next_payment_amount, reason,
	application_date, activated_at, updated_at, version`

func (r *loanRow) toDomain() (*domain.Loan, error) {
	d := decoder{}
	loan := &domain.Loan{
		ID:                 d.uuid("id", r.ID),
		LoanID:             r.LoanID,
		UserID:             r.UserID,
		Amount:             d.decimal("amount", r.Amount),
		InterestRate:       d.decimal("interest_rate", r.InterestRate),
		TermInWeeks:        r.TermInWeeks,
		TotalRepayment:     d.decimal("total_repayment", r.TotalRepayment),
		OutstandingBalance: d.decimal("outstanding_balance", r.OutstandingBalance),
		NextPaymentAmount:  d.decimal("next_payment_amount", r.NextPaymentAmount),
		Reason:             r.Reason,
		ApplicationDate:    utc(r.ApplicationDate),
		UpdatedAt:          utc(r.UpdatedAt),
		Version:            r.Version,
		NextPaymentDate:    domain.NotApplicable(),
	}

	status, err := domain.ParseLoanStatus(r.Status)
	d.check(err)
	loan.Status = status

	if r.NextPaymentDate.Valid {
		loan.NextPaymentDate = domain.DueOn(r.NextPaymentDate.Time.UTC())
	}
	if r.ActivatedAt.Valid {
		activated := r.ActivatedAt.Time.UTC()
		loan.ActivatedAt = &activated
	}

	switch {
	case r.LoanID == "":
		d.check(fmt.Errorf("loan_id is empty"))
	case r.UserID == "":
		d.check(fmt.Errorf("user_id is empty"))
	case r.TermInWeeks < 1:
		d.check(fmt.Errorf("term_in_weeks %d is below 1", r.TermInWeeks))
	case d.err == nil && !loan.Amount.IsPositive():
		d.check(fmt.Errorf("amount %s is not positive", loan.Amount))
	case d.err == nil && loan.OutstandingBalance.IsNegative():
		d.check(fmt.Errorf("outstanding_balance %s is negative", loan.OutstandingBalance))
	}

	if d.err != nil {
		return nil, apperrors.WrapMalformedRecord("loan", r.LoanID, d.err)
	}
	return loan, nil
}

type paymentRow struct {
	ID          string       `db:"id"`
	LoanID      string       `db:"loan_id"`
	UserID      string       `db:"user_id"`
	Amount      string       `db:"amount"`
	Status      string       `db:"status"`
	PaymentDate sql.NullTime `db:"payment_date"`
}

const paymentColumns = `id, loan_id, user_id, amount, status, payment_date`

func (r *paymentRow) toDomain() (*domain.Payment, error) {
	d := decoder{}
	p := &domain.Payment{
		ID:     d.uuid("id", r.ID),
		LoanID: r.LoanID,
		UserID: r.UserID,
		Amount: d.decimal("amount", r.Amount),
		Date:   utc(r.PaymentDate),
	}
	status, err := domain.ParsePaymentStatus(r.Status)
	d.check(err)
	p.Status = status

	if !r.PaymentDate.Valid {
		d.check(fmt.Errorf("payment_date is null"))
	}
	if d.err != nil {
		return nil, apperrors.WrapMalformedRecord("payment", r.ID, d.err)
	}
	return p, nil
}

type transactionRow struct {
	ID              string       `db:"id"`
	UserID          string       `db:"user_id"`
	Type            string       `db:"type"`
	Amount          string       `db:"amount"`
	Description     string       `db:"description"`
	Category        string       `db:"category"`
	TransactionDate sql.NullTime `db:"transaction_date"`
}

const transactionColumns = `id, user_id, type, amount, description, category, transaction_date`

func (r *transactionRow) toDomain() (*domain.PersonalTransaction, error) {
	d := decoder{}
	t := &domain.PersonalTransaction{
		ID:          d.uuid("id", r.ID),
		UserID:      r.UserID,
		Amount:      d.decimal("amount", r.Amount),
		Description: r.Description,
		Category:    r.Category,
		Date:        utc(r.TransactionDate),
	}
	typ, err := domain.ParseTransactionType(r.Type)
	d.check(err)
	t.Type = typ

	if d.err == nil && !t.Amount.IsPositive() {
		d.check(fmt.Errorf("amount %s is not positive", t.Amount))
	}
	if d.err != nil {
		return nil, apperrors.WrapMalformedRecord("transaction", r.ID, d.err)
	}
	return t, nil
}

type profileRow struct {
	UserID           string       `db:"user_id"`
	FullName         string       `db:"full_name"`
	Email            string       `db:"email"`
	PhoneNumber      string       `db:"phone_number"`
	NationalID       string       `db:"national_id"`
	EmploymentStatus string       `db:"employment_status"`
	EmployerName     string       `db:"employer_name"`
	MonthlyIncome    string       `db:"monthly_income"`
	FinancialGoals   string       `db:"financial_goals"`
	UpdatedAt        sql.NullTime `db:"updated_at"`
}

const profileColumns = `user_id, full_name, email, phone_number, national_id, employment_status,
	employer_name, monthly_income, financial_goals, updated_at`

func (r *profileRow) toDomain() (*domain.Profile, error) {
	d := decoder{}
	p := &domain.Profile{
		UserID:           r.UserID,
		FullName:         r.FullName,
		Email:            r.Email,
		PhoneNumber:      r.PhoneNumber,
		NationalID:       r.NationalID,
		EmploymentStatus: r.EmploymentStatus,
		EmployerName:     r.EmployerName,
		MonthlyIncome:    d.decimal("monthly_income", r.MonthlyIncome),
		FinancialGoals:   r.FinancialGoals,
		UpdatedAt:        utc(r.UpdatedAt),
	}
	if d.err != nil {
		return nil, apperrors.WrapMalformedRecord("profile", r.UserID, d.err)
	}
	return p, nil
}

// decoder keeps the first field error so a row decodes in straight-line code.
type decoder struct {
	err error
}

func (d *decoder) check(err error) {
	if d.err == nil && err != nil {
		d.err = err
	}
}

func (d *decoder) decimal(field, raw string) decimal.Decimal {
	v, err := decimal.NewFromString(raw)
	if err != nil {
		d.check(fmt.Errorf("%s: %w", field, err))
		return decimal.Zero
	}
	return v
}

func (d *decoder) uuid(field, raw string) uuid.UUID {
	v, err := uuid.Parse(raw)
	if err != nil {
		d.check(fmt.Errorf("%s: %w", field, err))
		return uuid.Nil
	}
	return v
}

// utc returns the zero time for NULL so missing dates sort as earliest.
func utc(t sql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func nullDueDate(d domain.DueDate) sql.NullTime {
	if !d.Valid {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: d.Time.UTC(), Valid: true}
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
