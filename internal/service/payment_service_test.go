package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/events"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/repository"
	"github.com/segyhp/fiducialend/internal/testutil/mocks"
	customError "github.com/segyhp/fiducialend/pkg/errors"
)

func newTestPaymentService(loans *mocks.MockLoanRepository, payments *mocks.MockPaymentRepository, pub *mocks.MockPublisher) *PaymentService {
	svc := NewPaymentService(loans, payments, nil, pub, metrics.New(), testConfig())
	svc.now = clock
	return svc
}

func activeLoan(userID string) *domain.Loan {
	l := pendingLoan(userID)
	l.LoanID = "LNACTIVE"
	if err := l.Activate(fixedNow.AddDate(0, 0, -3), 7); err != nil {
		panic(err)
	}
	return l
}

func TestMakePayment_Installment(t *testing.T) {
	loans := &mocks.MockLoanRepository{}
	payments := &mocks.MockPaymentRepository{}
	svc := newTestPaymentService(loans, payments, quietPublisher())

	loan := activeLoan("user-1")
	loans.On("GetByLoanID", mock.Anything, "LNACTIVE").Return(loan, nil)
	payments.On("Record", mock.Anything, loan, mock.MatchedBy(func(p *domain.Payment) bool {
		return p.Amount.Equal(decimal.NewFromInt(1625)) && p.Status == domain.PaymentStatusSuccessful && p.UserID == "user-1"
	})).Return(nil)

	resp, err := svc.MakePayment(context.Background(), "user-1", "LNACTIVE", decimal.NewFromInt(1625))

	require.NoError(t, err)
	assert.True(t, resp.Loan.OutstandingBalance.Equal(decimal.NewFromInt(4875)))
	assert.Equal(t, domain.LoanStatusActive, resp.Loan.Status)
	assert.Equal(t, loan.ActivatedAt.AddDate(0, 0, 14), resp.Loan.NextPaymentDate.Time)
	assert.Equal(t, "Payment successful", resp.Message)
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.Payments.WithLabelValues("success")))
	payments.AssertExpectations(t)
}

func TestMakePayment_FinalPaymentPaysOff(t *testing.T) {
	loans := &mocks.MockLoanRepository{}
	payments := &mocks.MockPaymentRepository{}
	pub := &mocks.MockPublisher{}
	svc := newTestPaymentService(loans, payments, pub)

	loans.On("GetByLoanID", mock.Anything, "LNACTIVE").Return(activeLoan("user-1"), nil)
	payments.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(evts []events.Event) bool {
		return len(evts) == 2 && evts[0].Type == events.PaymentRecorded && evts[1].Type == events.LoanPaidOff
	})).Return(nil)

	resp, err := svc.MakePayment(context.Background(), "user-1", "LNACTIVE", decimal.NewFromInt(6500))

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPaidOff, resp.Loan.Status)
	assert.True(t, resp.Loan.OutstandingBalance.IsZero())
	assert.False(t, resp.Loan.NextPaymentDate.Valid)
	pub.AssertExpectations(t)
}

func TestMakePayment_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		amount string
		prep   func(l *domain.Loan)
		code   string
	}{
		{"zero amount", "user-1", "0", nil, customError.ErrCodeInvalidPaymentAmount},
		{"exceeds balance", "user-1", "6500.01", nil, customError.ErrCodePaymentExceedsBalance},
		{"someone else's loan", "user-2", "10", nil, customError.ErrCodeForbidden},
		{"pending loan", "user-1", "10", func(l *domain.Loan) { l.Status = domain.LoanStatusPending }, customError.ErrCodeInvalidTransition},
		{"paid off loan", "user-1", "10", func(l *domain.Loan) { l.Status = domain.LoanStatusPaidOff }, customError.ErrCodeInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loans := &mocks.MockLoanRepository{}
			payments := &mocks.MockPaymentRepository{}
			svc := newTestPaymentService(loans, payments, quietPublisher())

			loan := activeLoan("user-1")
			if tt.prep != nil {
				tt.prep(loan)
			}
			loans.On("GetByLoanID", mock.Anything, "LNACTIVE").Return(loan, nil).Maybe()

			_, err := svc.MakePayment(context.Background(), tt.userID, "LNACTIVE", decimal.RequireFromString(tt.amount))

			assert.Equal(t, tt.code, customError.Code(err))
			payments.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestMakePayment_ConcurrentUpdate(t *testing.T) {
	loans := &mocks.MockLoanRepository{}
	payments := &mocks.MockPaymentRepository{}
	svc := newTestPaymentService(loans, payments, quietPublisher())

	loans.On("GetByLoanID", mock.Anything, "LNACTIVE").Return(activeLoan("user-1"), nil)
	payments.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(repository.ErrStaleLoan)

	_, err := svc.MakePayment(context.Background(), "user-1", "LNACTIVE", decimal.NewFromInt(100))

	assert.Equal(t, customError.ErrCodeConcurrentUpdate, customError.Code(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.Payments.WithLabelValues("conflict")))
}

func TestMakePayment_DatabaseError(t *testing.T) {
	loans := &mocks.MockLoanRepository{}
	payments := &mocks.MockPaymentRepository{}
	svc := newTestPaymentService(loans, payments, quietPublisher())

	loans.On("GetByLoanID", mock.Anything, "LNACTIVE").Return(activeLoan("user-1"), nil)
	payments.On("Record", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("tx aborted"))

	_, err := svc.MakePayment(context.Background(), "user-1", "LNACTIVE", decimal.NewFromInt(100))

	assert.Equal(t, customError.ErrCodeDatabaseError, customError.Code(err))
}

func TestListPayments(t *testing.T) {
	payments := &mocks.MockPaymentRepository{}
	svc := newTestPaymentService(&mocks.MockLoanRepository{}, payments, quietPublisher())

	payments.On("ListByUser", mock.Anything, "user-1").Return(nil, nil)

	got, err := svc.ListPayments(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
