package service

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/segyhp/fiducialend/internal/config"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/testutil/mocks"
)

var fixedNow = time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			MinLoanAmount:    "200",
			MaxLoanAmount:    "50000",
			MinLoanWeeks:     1,
			MaxLoanWeeks:     16,
			FirstPaymentDays: 7,
			Currency:         "ZMW",
		},
		Tips: config.TipsConfig{MaxWords: 200},
	}
}

func quietPublisher() *mocks.MockPublisher {
	p := &mocks.MockPublisher{}
	p.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	return p
}

func newTestLoanService(repo *mocks.MockLoanRepository, cache LoanCache, pub *mocks.MockPublisher) *LoanService {
	svc := NewLoanService(repo, cache, pub, metrics.New(), testConfig())
	svc.now = clock
	return svc
}
