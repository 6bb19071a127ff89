package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(s); t {
	case TransactionTypeIncome, TransactionTypeExpense:
		return t, nil
	}
	return "", fmt.Errorf("invalid transaction type: %q", s)
}

// PersonalTransaction is an entry in a user's personal income/expense ledger.
// It is unrelated to loans.
type PersonalTransaction struct {
	ID          uuid.UUID       `json:"id"`
	UserID      string          `json:"userId"`
	Type        TransactionType `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Date        time.Time       `json:"date"`
}

// TransactionSummary aggregates a user's ledger.
type TransactionSummary struct {
	Balance           decimal.Decimal            `json:"balance"`
	TotalIncome       decimal.Decimal            `json:"totalIncome"`
	TotalExpense      decimal.Decimal            `json:"totalExpense"`
	ExpenseByCategory map[string]decimal.Decimal `json:"expenseByCategory"`
}

// Summarize computes balance = sum(income) - sum(expense).
func Summarize(transactions []*PersonalTransaction) *TransactionSummary {
	summary := &TransactionSummary{
		Balance:           decimal.Zero,
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		ExpenseByCategory: make(map[string]decimal.Decimal),
	}
	for _, t := range transactions {
		switch t.Type {
		case TransactionTypeIncome:
			summary.TotalIncome = summary.TotalIncome.Add(t.Amount)
		case TransactionTypeExpense:
			summary.TotalExpense = summary.TotalExpense.Add(t.Amount)
			summary.ExpenseByCategory[t.Category] = summary.ExpenseByCategory[t.Category].Add(t.Amount)
		}
	}
	summary.Balance = summary.TotalIncome.Sub(summary.TotalExpense)
	return summary
}

type CreateTransactionRequest struct {
	Type        TransactionType `json:"type" validate:"required,oneof=income expense"`
	Amount      decimal.Decimal `json:"amount" validate:"decimal_gt=0"`
	Description string          `json:"description" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,max=50"`
}
