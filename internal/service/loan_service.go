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
	"github.com/segyhp/fiducialend/internal/pricing"
	"github.com/segyhp/fiducialend/internal/repository"
	customError "github.com/segyhp/fiducialend/pkg/errors"
	"github.com/segyhp/fiducialend/pkg/utils"
)

type LoanService struct {
	LoanRepo repository.LoanRepository
	cache    LoanCache
	events   events.Publisher
	metrics  *metrics.Metrics
	config   *config.Config
	now      func() time.Time
}

// NewLoanService wires the loan lifecycle. cache may be nil.
func NewLoanService(
	loanRepo repository.LoanRepository,
	cache LoanCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	config *config.Config,
) *LoanService {
	return &LoanService{
		LoanRepo: loanRepo,
		cache:    cache,
		events:   publisher,
		metrics:  m,
		config:   config,
		now:      utcNow,
	}
}

type loanEventData struct {
	Amount            decimal.Decimal   `json:"amount"`
	TermInWeeks       int               `json:"termInWeeks"`
	Status            domain.LoanStatus `json:"status"`
	NextPaymentDate   domain.DueDate    `json:"nextPaymentDate"`
	NextPaymentAmount decimal.Decimal   `json:"nextPaymentAmount"`
}

func loanEvent(eventType string, l *domain.Loan, at time.Time) events.Event {
	return events.New(eventType, l.LoanID, l.UserID, at, loanEventData{
		Amount:            l.Amount,
		TermInWeeks:       l.TermInWeeks,
		Status:            l.Status,
		NextPaymentDate:   l.NextPaymentDate,
		NextPaymentAmount: l.NextPaymentAmount,
	})
}

// Quote prices a prospective loan within the configured product bounds.
func (s *LoanService) Quote(amount decimal.Decimal, weeks int) (*domain.Quote, error) {
	if amount.LessThan(s.config.GetMinLoanAmount()) || amount.GreaterThan(s.config.GetMaxLoanAmount()) {
		return nil, customError.WrapInvalidLoanAmount(amount.String())
	}
	if weeks < s.config.Business.MinLoanWeeks || weeks > s.config.Business.MaxLoanWeeks {
		return nil, customError.WrapInvalidDuration(weeks)
	}
	return pricing.Quote(amount, weeks)
}

// Submit records a new Pending loan application for userID.
func (s *LoanService) Submit(ctx context.Context, userID string, request *domain.SubmitLoanRequest) (*domain.SubmitLoanResponse, error) {
	quote, err := s.Quote(request.Amount, request.DurationInWeeks)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loan := &domain.Loan{
		ID:                 uuid.New(),
		LoanID:             utils.NewLoanID(),
		UserID:             userID,
		Amount:             quote.Amount,
		InterestRate:       quote.InterestRate,
		TermInWeeks:        quote.DurationInWeeks,
		TotalRepayment:     quote.TotalRepayment,
		OutstandingBalance: quote.TotalRepayment,
		Status:             domain.LoanStatusPending,
		NextPaymentDate:    domain.NotApplicable(),
		Reason:             request.Reason,
		ApplicationDate:    now,
		UpdatedAt:          now,
	}
	loan.NextPaymentAmount = loan.Installment()

	if err := s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, persistenceError("failed to create loan", err, "user_id", userID)
	}

	invalidate(ctx, s.cache, userID)
	publish(ctx, s.events, loanEvent(events.LoanSubmitted, loan, now))
	s.metrics.LoansSubmitted.Inc()

	slog.Info("loan submitted", "loan_id", loan.LoanID, "user_id", userID, "amount", loan.Amount.String(), "weeks", loan.TermInWeeks)

	return &domain.SubmitLoanResponse{
		Loan:    loan,
		Quote:   quote,
		Message: "Loan request submitted successfully",
	}, nil
}

// Decide approves or rejects a Pending loan. Amount and rate are never touched.
func (s *LoanService) Decide(ctx context.Context, loanID string, decision domain.LoanStatus) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, loanLookupError(loanID, err)
	}

	now := s.now()
	from := loan.Status
	switch decision {
	case domain.LoanStatusActive:
		err = loan.Activate(now, s.config.Business.FirstPaymentDays)
	case domain.LoanStatusRejected:
		err = loan.Reject(now)
	default:
		return nil, customError.WrapValidation("Decision must be Active or Rejected")
	}
	if err != nil {
		return nil, customError.WrapInvalidTransition(loanID, string(from), string(decision))
	}

	if err := s.LoanRepo.UpdateStatus(ctx, loan, from); err != nil {
		if errors.Is(err, repository.ErrStaleLoan) {
			return nil, customError.WrapInvalidTransition(loanID, string(from), string(decision))
		}
		return nil, persistenceError("failed to update loan status", err, "loan_id", loanID)
	}

	eventType := events.LoanActivated
	if decision == domain.LoanStatusRejected {
		eventType = events.LoanRejected
	}
	invalidate(ctx, s.cache, loan.UserID)
	publish(ctx, s.events, loanEvent(eventType, loan, now))
	s.metrics.LoanDecisions.WithLabelValues(string(decision)).Inc()

	slog.Info("loan decided", "loan_id", loanID, "decision", decision)
	return loan, nil
}

// ListForUser returns userID's loans, newest application first. No loans is
// an empty list.
func (s *LoanService) ListForUser(ctx context.Context, userID string) ([]*domain.Loan, error) {
	if s.cache != nil {
		loans, ok, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			s.metrics.CacheLookups.WithLabelValues("error").Inc()
			slog.Warn("loan cache read failed", "user_id", userID, "error", err)
		case ok:
			s.metrics.CacheLookups.WithLabelValues("hit").Inc()
			return loans, nil
		default:
			s.metrics.CacheLookups.WithLabelValues("miss").Inc()
		}
	}

	loans, err := s.LoanRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, persistenceError("failed to list loans", err, "user_id", userID)
	}
	if loans == nil {
		loans = []*domain.Loan{}
	}
	sortByApplicationDate(loans)

	if s.cache != nil {
		if err := s.cache.Set(ctx, userID, loans); err != nil {
			slog.Warn("loan cache write failed", "user_id", userID, "error", err)
		}
	}
	return loans, nil
}

// Get returns one of userID's loans.
func (s *LoanService) Get(ctx context.Context, userID, loanID string) (*domain.Loan, error) {
	loan, err := s.LoanRepo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, loanLookupError(loanID, err)
	}
	if loan.UserID != userID {
		return nil, customError.WrapForbidden("This loan belongs to another user")
	}
	return loan, nil
}

// Schedule renders the display amortization schedule of a loan from its
// stored terms. Due dates appear once the loan has been activated.
func (s *LoanService) Schedule(ctx context.Context, userID, loanID string) (*domain.ScheduleResponse, error) {
	loan, err := s.Get(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}

	weeks := decimal.NewFromInt(int64(loan.TermInWeeks))
	quote := &domain.Quote{
		Amount:          loan.Amount,
		DurationInWeeks: loan.TermInWeeks,
		InterestRate:    loan.InterestRate,
		TotalInterest:   loan.TotalRepayment.Sub(loan.Amount),
		TotalRepayment:  loan.TotalRepayment,
		WeeklyPayment:   loan.TotalRepayment.Div(weeks),
	}

	return &domain.ScheduleResponse{
		LoanID:   loan.LoanID,
		Quote:    quote,
		Schedule: pricing.Schedule(quote, loan.ActivatedAt),
	}, nil
}

// MarkOverdue moves Active loans whose next payment date has passed to
// Overdue and returns how many moved. A loan changed concurrently, e.g. by a
// payment, is skipped.
func (s *LoanService) MarkOverdue(ctx context.Context) (int, error) {
	now := s.now()
	loans, err := s.LoanRepo.ListDueBefore(ctx, domain.LoanStatusActive, utils.StartOfDay(now))
	if err != nil {
		return 0, persistenceError("failed to list due loans", err)
	}

	var (
		marked   int
		firstErr error
		batch    []events.Event
	)
	for _, loan := range loans {
		if err := loan.MarkOverdue(now); err != nil {
			slog.Debug("skipping loan in overdue sweep", "loan_id", loan.LoanID, "reason", err)
			continue
		}
		if err := s.LoanRepo.UpdateStatus(ctx, loan, domain.LoanStatusActive); err != nil {
			if errors.Is(err, repository.ErrStaleLoan) {
				slog.Info("loan changed during overdue sweep", "loan_id", loan.LoanID)
				continue
			}
			slog.Error("failed to mark loan overdue", "loan_id", loan.LoanID, "error", err)
			if firstErr == nil {
				firstErr = customError.WrapDatabaseError(err)
			}
			continue
		}

		marked++
		s.metrics.LoansOverdue.Inc()
		invalidate(ctx, s.cache, loan.UserID)
		batch = append(batch, loanEvent(events.LoanOverdue, loan, now))
	}
	publish(ctx, s.events, batch...)

	slog.Info("overdue sweep finished", "candidates", len(loans), "marked", marked)
	return marked, firstErr
}

// DueSoon lists Active loans with an installment due from today up to window
// from now.
func (s *LoanService) DueSoon(ctx context.Context, window time.Duration) ([]*domain.Loan, error) {
	now := s.now()
	loans, err := s.LoanRepo.ListDueBetween(ctx, utils.StartOfDay(now), now.Add(window))
	if err != nil {
		return nil, persistenceError("failed to list loans due soon", err)
	}
	return loans, nil
}

// SendReminders emits a reminder event for every loan due within window.
func (s *LoanService) SendReminders(ctx context.Context, window time.Duration) (int, error) {
	loans, err := s.DueSoon(ctx, window)
	if err != nil {
		return 0, err
	}

	now := s.now()
	batch := make([]events.Event, 0, len(loans))
	for _, loan := range loans {
		batch = append(batch, loanEvent(events.PaymentReminder, loan, now))
		slog.Info("payment reminder",
			"loan_id", loan.LoanID,
			"user_id", loan.UserID,
			"due", loan.NextPaymentDate.String(),
			"amount", loan.NextPaymentAmount.String(),
		)
	}
	publish(ctx, s.events, batch...)
	s.metrics.Reminders.Add(float64(len(batch)))
	return len(batch), nil
}
