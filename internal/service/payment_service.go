package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/events"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/repository"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

type PaymentService struct {
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	cache       LoanCache
	events      events.Publisher
	metrics     *metrics.Metrics
	config      *config.Config
	now         func() time.Time
}

func NewPaymentService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	cache LoanCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	config *config.Config,
) *PaymentService {
	return &PaymentService{
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		cache:       cache,
		events:      publisher,
		metrics:     m,
		config:      config,
		now:         utcNow,
	}
}

type paymentEventData struct {
	PaymentID          uuid.UUID         `json:"paymentId"`
	Amount             decimal.Decimal   `json:"amount"`
	OutstandingBalance decimal.Decimal   `json:"outstandingBalance"`
	Status             domain.LoanStatus `json:"status"`
}

// MakePayment settles amount against one of userID's loans. The payment row
// and the loan update are written atomically; a concurrent change to the
// loan fails the payment with a conflict.
func (s *PaymentService) MakePayment(ctx context.Context, userID, loanID string, amount decimal.Decimal) (*domain.MakePaymentResponse, error) {
	if !amount.IsPositive() {
		s.metrics.Payments.WithLabelValues("rejected").Inc()
		return nil, customError.WrapInvalidPaymentAmount(amount.String())
	}

	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, loanLookupError(loanID, err)
	}
	if loan.UserID != userID {
		return nil, customError.WrapForbidden("This loan belongs to another user")
	}
	if !loan.Status.AcceptsPayments() {
		s.metrics.Payments.WithLabelValues("rejected").Inc()
		return nil, customError.WrapInvalidTransition(loanID, string(loan.Status), string(domain.LoanStatusPaidOff))
	}
	if amount.GreaterThan(loan.OutstandingBalance) {
		s.metrics.Payments.WithLabelValues("rejected").Inc()
		return nil, customError.WrapPaymentExceedsBalance(amount.String(), loan.OutstandingBalance.String())
	}

	now := s.now()
	payment := &domain.Payment{
		ID:     uuid.New(),
		LoanID: loan.LoanID,
		UserID: userID,
		Amount: amount,
		Date:   now,
		Status: domain.PaymentStatusSuccessful,
	}
	if err := loan.ApplyPayment(amount, now, s.config.Business.FirstPaymentDays); err != nil {
		return nil, customError.WrapInvalidPaymentAmount(amount.String())
	}

	if err := s.PaymentRepo.Record(ctx, loan, payment); err != nil {
		if errors.Is(err, repository.ErrStaleLoan) {
			s.metrics.Payments.WithLabelValues("conflict").Inc()
			return nil, customError.WrapConcurrentUpdate(loanID)
		}
		s.metrics.Payments.WithLabelValues("error").Inc()
		return nil, persistenceError("failed to record payment", err, "loan_id", loanID)
	}
	s.metrics.Payments.WithLabelValues("success").Inc()

	invalidate(ctx, s.cache, userID)
	batch := []events.Event{events.New(events.PaymentRecorded, loan.LoanID, userID, now, paymentEventData{
		PaymentID:          payment.ID,
		Amount:             amount,
		OutstandingBalance: loan.OutstandingBalance,
		Status:             loan.Status,
	})}
	message := "Payment successful"
	if loan.Status == domain.LoanStatusPaidOff {
		batch = append(batch, loanEvent(events.LoanPaidOff, loan, now))
		message = "Payment successful. Your loan is now paid off"
	}
	publish(ctx, s.events, batch...)

	slog.Info("payment recorded",
		"loan_id", loanID,
		"amount", amount.String(),
		"outstanding", loan.OutstandingBalance.String(),
		"status", loan.Status,
	)

	return &domain.MakePaymentResponse{Payment: payment, Loan: loan, Message: message}, nil
}

// ListPayments returns userID's payments, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, userID string) ([]*domain.Payment, error) {
	payments, err := s.PaymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to list payments", err, "user_id", userID)
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}
	return payments, nil
}
