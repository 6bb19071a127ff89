package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fiducialend/internal/cache"
	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/events"
	"github.com/segyhp/fiducialend/internal/repository"
	"github.com/segyhp/fiducialend/internal/testutil/mocks"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

func pendingLoan(userID string) *domain.Loan {
	return &domain.Loan{
		LoanID:             "LNPENDING",
		UserID:             userID,
		Amount:             decimal.NewFromInt(5000),
		InterestRate:       decimal.RequireFromString("0.3"),
		TermInWeeks:        4,
		TotalRepayment:     decimal.NewFromInt(6500),
		OutstandingBalance: decimal.NewFromInt(6500),
		Status:             domain.LoanStatusPending,
		NextPaymentDate:    domain.NotApplicable(),
		NextPaymentAmount:  decimal.NewFromInt(1625),
		ApplicationDate:    fixedNow.AddDate(0, 0, -1),
	}
}

func TestSubmit_Success(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	pub := &mocks.MockPublisher{}
	svc := newTestLoanService(repo, nil, pub)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(l *domain.Loan) bool {
		return l.UserID == "user-1" && l.Status == domain.LoanStatusPending
	})).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evts []events.Event) bool {
		return len(evts) == 1 && evts[0].Type == events.LoanSubmitted
	})).Return(nil)

	resp, err := svc.Submit(context.Background(), "user-1", &domain.SubmitLoanRequest{
		Amount:          decimal.NewFromInt(5000),
		DurationInWeeks: 4,
		Reason:          "School fees",
	})

	require.NoError(t, err)
	loan := resp.Loan
	assert.True(t, loan.InterestRate.Equal(decimal.RequireFromString("0.3")))
	assert.True(t, loan.TotalRepayment.Equal(decimal.NewFromInt(6500)))
	assert.True(t, loan.OutstandingBalance.Equal(decimal.NewFromInt(6500)))
	assert.True(t, loan.NextPaymentAmount.Equal(decimal.NewFromInt(1625)))
	assert.False(t, loan.NextPaymentDate.Valid)
	assert.Equal(t, fixedNow, loan.ApplicationDate)
	assert.Equal(t, "School fees", loan.Reason)
	assert.True(t, resp.Quote.WeeklyPayment.Equal(decimal.NewFromInt(1625)))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.LoansSubmitted))

	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestSubmit_ValidationFailures(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		weeks  int
		code   string
	}{
		{"zero amount", "0", 4, customError.ErrCodeInvalidLoanAmount},
		{"negative amount", "-10", 4, customError.ErrCodeInvalidLoanAmount},
		{"below minimum", "199.99", 4, customError.ErrCodeInvalidLoanAmount},
		{"above maximum", "50000.01", 4, customError.ErrCodeInvalidLoanAmount},
		{"zero weeks", "1000", 0, customError.ErrCodeInvalidDuration},
		{"too long", "1000", 17, customError.ErrCodeInvalidDuration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mocks.MockLoanRepository{}
			svc := newTestLoanService(repo, nil, quietPublisher())

			_, err := svc.Submit(context.Background(), "user-1", &domain.SubmitLoanRequest{
				Amount:          decimal.RequireFromString(tt.amount),
				DurationInWeeks: tt.weeks,
			})

			assert.Equal(t, tt.code, customError.Code(err))
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmit_PersistenceFailure(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	pub := &mocks.MockPublisher{}
	svc := newTestLoanService(repo, nil, pub)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := svc.Submit(context.Background(), "user-1", &domain.SubmitLoanRequest{
		Amount:          decimal.NewFromInt(1000),
		DurationInWeeks: 1,
	})

	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
	pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestDecide_Approve(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())

	loan := pendingLoan("user-1")
	repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(loan, nil)
	repo.On("UpdateStatus", mock.Anything, loan, domain.LoanStatusPending).Return(nil)

	got, err := svc.Decide(context.Background(), "LNPENDING", domain.LoanStatusActive)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusActive, got.Status)
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), got.NextPaymentDate.Time)
	assert.Equal(t, fixedNow, *got.ActivatedAt)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(5000)))
	assert.True(t, got.InterestRate.Equal(decimal.RequireFromString("0.3")))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.LoanDecisions.WithLabelValues("Active")))
	repo.AssertExpectations(t)
}

func TestDecide_Reject(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())

	loan := pendingLoan("user-1")
	repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(loan, nil)
	repo.On("UpdateStatus", mock.Anything, loan, domain.LoanStatusPending).Return(nil)

	got, err := svc.Decide(context.Background(), "LNPENDING", domain.LoanStatusRejected)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusRejected, got.Status)
	assert.False(t, got.NextPaymentDate.Valid)
	assert.Nil(t, got.ActivatedAt)
}

func TestDecide_Failures(t *testing.T) {
	t.Run("unknown loan", func(t *testing.T) {
		repo := &mocks.MockLoanRepository{}
		svc := newTestLoanService(repo, nil, quietPublisher())
		repo.On("GetByLoanID", mock.Anything, "LNX").Return(nil, sql.ErrNoRows)

		_, err := svc.Decide(context.Background(), "LNX", domain.LoanStatusActive)
		assert.Equal(t, customError.ErrCodeLoanNotFound, customError.Code(err))
	})

	t.Run("already decided", func(t *testing.T) {
		repo := &mocks.MockLoanRepository{}
		svc := newTestLoanService(repo, nil, quietPublisher())
		loan := pendingLoan("user-1")
		loan.Status = domain.LoanStatusRejected
		repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(loan, nil)

		_, err := svc.Decide(context.Background(), "LNPENDING", domain.LoanStatusActive)
		assert.Equal(t, customError.ErrCodeInvalidTransition, customError.Code(err))
		repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("lost race", func(t *testing.T) {
		repo := &mocks.MockLoanRepository{}
		svc := newTestLoanService(repo, nil, quietPublisher())
		repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(pendingLoan("user-1"), nil)
		repo.On("UpdateStatus", mock.Anything, mock.Anything, domain.LoanStatusPending).Return(repository.ErrStaleLoan)

		_, err := svc.Decide(context.Background(), "LNPENDING", domain.LoanStatusActive)
		assert.Equal(t, customError.ErrCodeInvalidTransition, customError.Code(err))
	})

	t.Run("unsupported decision", func(t *testing.T) {
		repo := &mocks.MockLoanRepository{}
		svc := newTestLoanService(repo, nil, quietPublisher())
		repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(pendingLoan("user-1"), nil)

		_, err := svc.Decide(context.Background(), "LNPENDING", domain.LoanStatusPaidOff)
		assert.Equal(t, customError.ErrCodeValidation, customError.Code(err))
	})
}

func TestListForUser_OrdersNewestFirstAndMissingDatesLast(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())

	repo.On("ListByUser", mock.Anything, "user-1").Return([]*domain.Loan{
		{LoanID: "LN-UNDATED"},
		{LoanID: "LN-OLD", ApplicationDate: fixedNow.AddDate(0, -1, 0)},
		{LoanID: "LN-NEW", ApplicationDate: fixedNow},
	}, nil)

	loans, err := svc.ListForUser(context.Background(), "user-1")

	require.NoError(t, err)
	require.Len(t, loans, 3)
	assert.Equal(t, "LN-NEW", loans[0].LoanID)
	assert.Equal(t, "LN-OLD", loans[1].LoanID)
	assert.Equal(t, "LN-UNDATED", loans[2].LoanID)
}

func TestListForUser_NoLoansIsEmptyList(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())
	repo.On("ListByUser", mock.Anything, "user-1").Return(nil, nil)

	loans, err := svc.ListForUser(context.Background(), "user-1")

	require.NoError(t, err)
	assert.NotNil(t, loans)
	assert.Empty(t, loans)
}

func TestListForUser_UsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, cache.NewLoanListCache(rdb, time.Minute), quietPublisher())

	repo.On("ListByUser", mock.Anything, "user-1").Return([]*domain.Loan{pendingLoan("user-1")}, nil).Once()

	first, err := svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := svc.ListForUser(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, first[0].LoanID, second[0].LoanID)
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.CacheLookups.WithLabelValues("hit")))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.CacheLookups.WithLabelValues("miss")))
	repo.AssertNumberOfCalls(t, "ListByUser", 1)
}

func TestGet_Ownership(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())
	repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(pendingLoan("user-1"), nil)

	_, err := svc.Get(context.Background(), "user-1", "LNPENDING")
	assert.NoError(t, err)

	_, err = svc.Get(context.Background(), "intruder", "LNPENDING")
	assert.Equal(t, customError.ErrCodeForbidden, customError.Code(err))
}

func TestSchedule(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())

	loan := pendingLoan("user-1")
	require.NoError(t, loan.Activate(fixedNow, 7))
	repo.On("GetByLoanID", mock.Anything, "LNPENDING").Return(loan, nil)

	resp, err := svc.Schedule(context.Background(), "user-1", "LNPENDING")

	require.NoError(t, err)
	require.Len(t, resp.Schedule, 4)
	assert.True(t, resp.Quote.TotalInterest.Equal(decimal.NewFromInt(1500)))
	assert.True(t, resp.Schedule[0].Payment.Equal(decimal.NewFromInt(1625)))
	assert.True(t, resp.Schedule[0].InterestPayment.Equal(decimal.NewFromInt(375)))
	assert.True(t, resp.Schedule[0].PrincipalPayment.Equal(decimal.NewFromInt(1250)))
	assert.True(t, resp.Schedule[0].DueDate.Valid)
	assert.True(t, resp.Schedule[3].RemainingBalance.IsZero())
}

func TestMarkOverdue(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	svc := newTestLoanService(repo, nil, quietPublisher())

	due := func(id string, daysAgo int) *domain.Loan {
		activated := fixedNow.AddDate(0, 0, -daysAgo-7)
		return &domain.Loan{
			LoanID:          id,
			UserID:          "user-" + id,
			Status:          domain.LoanStatusActive,
			ActivatedAt:     &activated,
			NextPaymentDate: domain.DueOn(fixedNow.AddDate(0, 0, -daysAgo)),
		}
	}
	late := due("LATE", 2)
	raced := due("RACED", 3)
	broken := due("BROKEN", 4)

	startOfDay := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo.On("ListDueBefore", mock.Anything, domain.LoanStatusActive, startOfDay).Return([]*domain.Loan{late, raced, broken}, nil)
	repo.On("UpdateStatus", mock.Anything, late, domain.LoanStatusActive).Return(nil)
	repo.On("UpdateStatus", mock.Anything, raced, domain.LoanStatusActive).Return(repository.ErrStaleLoan)
	repo.On("UpdateStatus", mock.Anything, broken, domain.LoanStatusActive).Return(errors.New("disk full"))

	marked, err := svc.MarkOverdue(context.Background())

	assert.Equal(t, 1, marked)
	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
	assert.Equal(t, domain.LoanStatusOverdue, late.Status)
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.LoansOverdue))
}

func TestSendReminders(t *testing.T) {
	repo := &mocks.MockLoanRepository{}
	pub := &mocks.MockPublisher{}
	svc := newTestLoanService(repo, nil, pub)

	startOfDay := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	repo.On("ListDueBetween", mock.Anything, startOfDay, fixedNow.Add(72*time.Hour)).Return([]*domain.Loan{
		{LoanID: "LN1", UserID: "u1", Status: domain.LoanStatusActive, NextPaymentDate: domain.DueOn(fixedNow.AddDate(0, 0, 1))},
		{LoanID: "LN2", UserID: "u2", Status: domain.LoanStatusActive, NextPaymentDate: domain.DueOn(fixedNow.AddDate(0, 0, 2))},
	}, nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evts []events.Event) bool {
		return len(evts) == 2 && evts[0].Type == events.PaymentReminder
	})).Return(nil)

	n, err := svc.SendReminders(context.Background(), 72*time.Hour)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, float64(2), testutil.ToFloat64(svc.metrics.Reminders))
	pub.AssertExpectations(t)
}
