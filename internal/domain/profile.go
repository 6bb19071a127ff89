package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EmploymentEmployed     = "Employed"
	EmploymentSelfEmployed = "Self-Employed"
	EmploymentUnemployed   = "Unemployed"
	EmploymentStudent      = "Student"
)

// Profile holds borrower details kept alongside the identity provider account.
type Profile struct {
	UserID           string          `json:"userId"`
	FullName         string          `json:"fullName"`
	Email            string          `json:"email"`
	PhoneNumber      string          `json:"phoneNumber"`
	NationalID       string          `json:"nationalId"`
	EmploymentStatus string          `json:"employmentStatus"`
	EmployerName     string          `json:"employerName,omitempty"`
	MonthlyIncome    decimal.Decimal `json:"monthlyIncome"`
	FinancialGoals   string          `json:"financialGoals,omitempty"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

type ProfileRequest struct {
	FullName         string          `json:"fullName" validate:"required,min=2,max=100"`
	Email            string          `json:"email" validate:"required,email"`
	PhoneNumber      string          `json:"phoneNumber" validate:"required,min=10,max=20"`
	NationalID       string          `json:"nationalId" validate:"required,min=5,max=30"`
	EmploymentStatus string          `json:"employmentStatus" validate:"required,oneof=Employed Self-Employed Unemployed Student"`
	EmployerName     string          `json:"employerName" validate:"max=100"`
	MonthlyIncome    decimal.Decimal `json:"monthlyIncome" validate:"decimal_gte=0"`
	FinancialGoals   string          `json:"financialGoals" validate:"max=1000"`
}

// TipsRequest carries the free-text inputs for personalized tips. Empty
// fields are filled from the borrower's own records.
type TipsRequest struct {
	LoanApplicationDetails string `json:"loanApplicationDetails" validate:"max=2000"`
	RepaymentBehavior      string `json:"repaymentBehavior" validate:"max=2000"`
	FinancialGoals         string `json:"financialGoals" validate:"max=2000"`
}

type TipsResponse struct {
	PersonalizedTips string `json:"personalizedTips"`
}
