package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusPending    PaymentStatus = "pending"
)

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(s); st {
	case PaymentStatusSuccessful, PaymentStatusFailed, PaymentStatusPending:
		return st, nil
	}
	return "", fmt.Errorf("invalid payment status: %q", s)
}

// Payment is one settlement record against a loan.
type Payment struct {
	ID     uuid.UUID       `json:"id"`
	LoanID string          `json:"loanId"`
	UserID string          `json:"userId"`
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
	Status PaymentStatus   `json:"status"`
}

type MakePaymentRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
}

type MakePaymentResponse struct {
	Payment *Payment `json:"payment"`
	Loan    *Loan    `json:"loan"`
	Message string   `json:"message"`
}
