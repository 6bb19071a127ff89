package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/service"
	"github.com/segyhp/fiducialend/pkg/response"
)

type LoanHandler struct {
	loans     *service.LoanService
	payments  *service.PaymentService
	validator *Validator
}

func NewLoanHandler(loans *service.LoanService, payments *service.PaymentService) *LoanHandler {
	return &LoanHandler{
		loans:     loans,
		payments:  payments,
		validator: NewValidator(),
	}
}

// Quote handles GET /api/v1/quote?amount=&weeks=
func (h *LoanHandler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "amount", Message: "must be a number"}})
		return
	}
	weeks, err := strconv.Atoi(q.Get("weeks"))
	if err != nil {
		response.ValidationFailed(w, []response.FieldError{{Field: "weeks", Message: "must be a whole number"}})
		return
	}

	quote, err := h.loans.Quote(amount, weeks)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, quote)
}

// Submit handles POST /api/v1/loans
func (h *LoanHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req domain.SubmitLoanRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.loans.Submit(r.Context(), userID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, http.StatusCreated, resp.Message, resp)
}

// List handles GET /api/v1/loans
func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.loans.ListForUser(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loans)
}

// Get handles GET /api/v1/loans/{loanId}
func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loans.Get(r.Context(), userID(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, loan)
}

// Schedule handles GET /api/v1/loans/{loanId}/schedule
func (h *LoanHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.loans.Schedule(r.Context(), userID(r), mux.Vars(r)["loanId"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, schedule)
}

// Decide handles POST /api/v1/loans/{loanId}/decision
func (h *LoanHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req domain.DecisionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	loan, err := h.loans.Decide(r.Context(), mux.Vars(r)["loanId"], req.Decision)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, domain.DecisionResponse{Loan: loan})
}

// MakePayment handles POST /api/v1/loans/{loanId}/payments
func (h *LoanHandler) MakePayment(w http.ResponseWriter, r *http.Request) {
	var req domain.MakePaymentRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	resp, err := h.payments.MakePayment(r.Context(), userID(r), mux.Vars(r)["loanId"], req.Amount)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, http.StatusCreated, resp.Message, resp)
}

// ListPayments handles GET /api/v1/payments
func (h *LoanHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, payments)
}
