package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/repository"
	"github.com/segyhp/fiducialend/internal/tips"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

// TipsService produces personalized financial advice. Blank inputs are
// filled from the borrower's own profile, loans and payments.
type TipsService struct {
	generator   tips.Generator
	ProfileRepo repository.ProfileRepository
	LoanRepo    repository.LoanRepository
	PaymentRepo repository.PaymentRepository
	metrics     *metrics.Metrics
	config      *config.Config
}

func NewTipsService(
	generator tips.Generator,
	profileRepo repository.ProfileRepository,
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	m *metrics.Metrics,
	config *config.Config,
) *TipsService {
	return &TipsService{
		generator:   generator,
		ProfileRepo: profileRepo,
		LoanRepo:    loanRepo,
		PaymentRepo: paymentRepo,
		metrics:     m,
		config:      config,
	}
}

func (s *TipsService) Generate(ctx context.Context, userID string, request *domain.TipsRequest) (*domain.TipsResponse, error) {
	input, err := s.fillDefaults(ctx, userID, *request)
	if err != nil {
		return nil, err
	}

	maxWords := s.config.Tips.MaxWords
	if maxWords <= 0 {
		maxWords = tips.DefaultMaxWords
	}

	start := time.Now()
	text, err := s.generator.Generate(ctx, tips.BuildPrompt(input, maxWords))
	if err != nil {
		s.metrics.TipsRequests.WithLabelValues("failure").Inc()
		slog.Error("tips generation failed", "user_id", userID, "error", err, "elapsed", time.Since(start))
		return nil, customError.WrapUpstreamError("Tips", err)
	}
	s.metrics.TipsRequests.WithLabelValues("success").Inc()

	return &domain.TipsResponse{PersonalizedTips: tips.CapWords(text, maxWords)}, nil
}

func (s *TipsService) fillDefaults(ctx context.Context, userID string, in domain.TipsRequest) (domain.TipsRequest, error) {
	if strings.TrimSpace(in.FinancialGoals) == "" {
		profile, err := s.ProfileRepo.Get(ctx, userID)
		switch {
		case err == nil:
			in.FinancialGoals = profile.FinancialGoals
		case !errors.Is(err, sql.ErrNoRows):
			return in, persistenceError("failed to load profile", err, "user_id", userID)
		}
		if strings.TrimSpace(in.FinancialGoals) == "" {
			in.FinancialGoals = "Not specified"
		}
	}

	needLoans := strings.TrimSpace(in.LoanApplicationDetails) == ""
	needPayments := strings.TrimSpace(in.RepaymentBehavior) == ""
	if !needLoans && !needPayments {
		return in, nil
	}

	loans, err := s.LoanRepo.ListByUser(ctx, userID)
	if err != nil {
		return in, persistenceError("failed to list loans", err, "user_id", userID)
	}
	sortByApplicationDate(loans)

	if needLoans {
		in.LoanApplicationDetails = s.describeLoans(loans)
	}
	if needPayments {
		payments, err := s.PaymentRepo.ListByUser(ctx, userID)
		if err != nil {
			return in, persistenceError("failed to list payments", err, "user_id", userID)
		}
		in.RepaymentBehavior = describeRepayment(loans, payments)
	}
	return in, nil
}

func (s *TipsService) describeLoans(loans []*domain.Loan) string {
	if len(loans) == 0 {
		return "No loan applications yet"
	}
	l := loans[0]
	desc := fmt.Sprintf("Most recent loan: %s %s over %d weeks, status %s",
		s.config.Business.Currency, l.Amount.StringFixed(2), l.TermInWeeks, l.Status)
	if l.Reason != "" {
		desc += ", purpose: " + l.Reason
	}
	if len(loans) > 1 {
		desc += fmt.Sprintf(". %d loans in total", len(loans))
	}
	return desc
}

func describeRepayment(loans []*domain.Loan, payments []*domain.Payment) string {
	var (
		count int
		total = decimal.Zero
	)
	for _, p := range payments {
		if p.Status == domain.PaymentStatusSuccessful {
			count++
			total = total.Add(p.Amount)
		}
	}

	var overdue, paidOff int
	for _, l := range loans {
		switch l.Status {
		case domain.LoanStatusOverdue:
			overdue++
		case domain.LoanStatusPaidOff:
			paidOff++
		}
	}

	if count == 0 {
		return "No repayments made yet"
	}
	return fmt.Sprintf("%d successful payments totalling %s; %d loans paid off; %d loans currently overdue",
		count, total.StringFixed(2), paidOff, overdue)
}
