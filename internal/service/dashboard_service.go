package service

import (
	"context"
	"time"

	"github.com/segyhp/fiducialend/internal/dashboard"
	"github.com/segyhp/fiducialend/internal/repository"
)

// DashboardService assembles the borrower overview.
type DashboardService struct {
	loans        *LoanService
	PaymentRepo  repository.PaymentRepository
	Transactions *TransactionService
	now          func() time.Time
}

func NewDashboardService(loans *LoanService, paymentRepo repository.PaymentRepository, transactions *TransactionService) *DashboardService {
	return &DashboardService{loans: loans, PaymentRepo: paymentRepo, Transactions: transactions, now: utcNow}
}

// Snapshot fetches userID's records once; selectors then run over the copy.
func (s *DashboardService) Snapshot(ctx context.Context, userID string) (*dashboard.Snapshot, error) {
	loans, err := s.loans.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.PaymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to list payments", err, "user_id", userID)
	}
	txs, err := s.Transactions.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dashboard.NewSnapshot(loans, payments, txs, s.now()), nil
}

func (s *DashboardService) Overview(ctx context.Context, userID string) (*dashboard.View, error) {
	snap, err := s.Snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	return dashboard.Render(snap), nil
}
