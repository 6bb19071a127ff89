package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors
var (
	ErrValidation            = errors.New("validation failed")
	ErrInvalidDuration       = errors.New("duration in weeks must be at least 1")
	ErrInvalidLoanAmount     = errors.New("invalid loan amount")
	ErrLoanNotFound          = errors.New("loan not found")
	ErrNotFound              = errors.New("resource not found")
	ErrInvalidTransition     = errors.New("invalid loan status transition")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidPaymentAmount  = errors.New("invalid payment amount")
	ErrPaymentExceedsBalance = errors.New("payment exceeds outstanding balance")
	ErrConcurrentUpdate      = errors.New("record was modified concurrently")
	ErrMalformedRecord       = errors.New("malformed record")
	ErrUpstream              = errors.New("upstream service failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation            = "VALIDATION_ERROR"
	ErrCodeInvalidDuration       = "INVALID_DURATION"
	ErrCodeInvalidLoanAmount     = "INVALID_LOAN_AMOUNT"
	ErrCodeLoanNotFound          = "LOAN_NOT_FOUND"
	ErrCodeNotFound              = "NOT_FOUND"
	ErrCodeInvalidTransition     = "INVALID_TRANSITION"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeInvalidPaymentAmount  = "INVALID_PAYMENT_AMOUNT"
	ErrCodePaymentExceedsBalance = "PAYMENT_EXCEEDS_BALANCE"
	ErrCodeConcurrentUpdate      = "CONCURRENT_UPDATE"
	ErrCodeDatabaseError         = "DATABASE_ERROR"
	ErrCodeMalformedRecord       = "MALFORMED_RECORD"
	ErrCodeCacheError            = "CACHE_ERROR"
	ErrCodeUpstreamError         = "UPSTREAM_ERROR"
)

// Code returns the business code carried by err, or "" when err is not a BusinessError.
func Code(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// HTTPStatus maps a business error to the status code the API responds with.
func HTTPStatus(err error) int {
	switch Code(err) {
	case ErrCodeValidation, ErrCodeInvalidDuration, ErrCodeInvalidLoanAmount,
		ErrCodeInvalidPaymentAmount, ErrCodePaymentExceedsBalance:
		return http.StatusBadRequest
	case ErrCodeLoanNotFound, ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeInvalidTransition, ErrCodeConcurrentUpdate:
		return http.StatusConflict
	case ErrCodeUpstreamError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is the message safe to show a user. Persistence and upstream
// failures collapse to a generic text.
func PublicMessage(err error) string {
	var be *BusinessError
	if !errors.As(err, &be) {
		return "Something went wrong. Please try again."
	}
	switch be.Code {
	case ErrCodeDatabaseError, ErrCodeMalformedRecord, ErrCodeCacheError:
		return "Something went wrong. Please try again."
	case ErrCodeUpstreamError:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return be.Message
	}
}

func WrapValidation(message string) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, ErrValidation)
}

func WrapInvalidDuration(weeks int) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidDuration,
		fmt.Sprintf("Loan duration of %d weeks is invalid", weeks),
		ErrInvalidDuration,
	)
}

func WrapInvalidLoanAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanAmount,
		fmt.Sprintf("Loan amount %s is invalid", amount),
		ErrInvalidLoanAmount,
	)
}

// Wrap common errors with business context
func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapNotFound(kind, id string) *BusinessError {
	return NewBusinessError(
		ErrCodeNotFound,
		fmt.Sprintf("%s with ID %s not found", kind, id),
		ErrNotFound,
	)
}

func WrapInvalidTransition(loanID, from, to string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidTransition,
		fmt.Sprintf("Loan %s cannot move from %s to %s", loanID, from, to),
		ErrInvalidTransition,
	)
}

func WrapForbidden(message string) *BusinessError {
	return NewBusinessError(ErrCodeForbidden, message, ErrForbidden)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapPaymentExceedsBalance(amount, outstanding string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentExceedsBalance,
		fmt.Sprintf("Payment amount %s exceeds outstanding balance %s", amount, outstanding),
		ErrPaymentExceedsBalance,
	)
}

func WrapConcurrentUpdate(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentUpdate,
		fmt.Sprintf("Loan %s was modified by another request, reload and retry", loanID),
		ErrConcurrentUpdate,
	)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapMalformedRecord(kind, id string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeMalformedRecord,
		fmt.Sprintf("stored %s %s is malformed", kind, id),
		fmt.Errorf("%w: %v", ErrMalformedRecord, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapUpstreamError(service string, err error) *BusinessError {
	return NewBusinessError(
		ErrCodeUpstreamError,
		fmt.Sprintf("%s request failed", service),
		fmt.Errorf("%w: %v", ErrUpstream, err),
	)
}
