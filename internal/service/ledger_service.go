package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/repository"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

// TransactionService keeps the personal income and expense ledger.
type TransactionService struct {
	TransactionRepo repository.TransactionRepository
	now             func() time.Time
}

func NewTransactionService(repo repository.TransactionRepository) *TransactionService {
	return &TransactionService{TransactionRepo: repo, now: utcNow}
}

func (s *TransactionService) Add(ctx context.Context, userID string, request *domain.CreateTransactionRequest) (*domain.PersonalTransaction, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("Amount must be greater than zero")
	}
	if _, err := domain.ParseTransactionType(string(request.Type)); err != nil {
		return nil, customError.WrapValidation("Type must be income or expense")
	}

	tx := &domain.PersonalTransaction{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        request.Type,
		Amount:      request.Amount,
		Description: request.Description,
		Category:    request.Category,
		Date:        s.now(),
	}
	if err := s.TransactionRepo.Create(ctx, tx); err != nil {
		return nil, persistenceError("failed to create transaction", err, "user_id", userID)
	}
	return tx, nil
}

// List returns userID's ledger, newest first.
func (s *TransactionService) List(ctx context.Context, userID string) ([]*domain.PersonalTransaction, error) {
	txs, err := s.TransactionRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to list transactions", err, "user_id", userID)
	}
	if txs == nil {
		txs = []*domain.PersonalTransaction{}
	}
	return txs, nil
}

func (s *TransactionService) Summary(ctx context.Context, userID string) (*domain.TransactionSummary, error) {
	txs, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.Summarize(txs), nil
}
