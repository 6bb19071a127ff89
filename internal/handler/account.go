package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/segyhp/fiducialend/internal/domain"
	"github.com/segyhp/fiducialend/internal/service"
	"github.com/segyhp/fiducialend/pkg/response"
)

// AccountHandler serves the borrower's own records outside the loan
// lifecycle: ledger, profile, content, tips and the dashboard.
type AccountHandler struct {
	transactions *service.TransactionService
	content      *service.ContentService
	profiles     *service.ProfileService
	tips         *service.TipsService
	dashboard    *service.DashboardService
	validator    *Validator
}

func NewAccountHandler(
	transactions *service.TransactionService,
	content *service.ContentService,
	profiles *service.ProfileService,
	tips *service.TipsService,
	dashboard *service.DashboardService,
) *AccountHandler {
	return &AccountHandler{
		transactions: transactions,
		content:      content,
		profiles:     profiles,
		tips:         tips,
		dashboard:    dashboard,
		validator:    NewValidator(),
	}
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactions.List(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, txs)
}

func (h *AccountHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateTransactionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	tx, err := h.transactions.Add(r.Context(), userID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, tx)
}

func (h *AccountHandler) TransactionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.transactions.Summary(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, summary)
}

func (h *AccountHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.content.ListArticles(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, articles)
}

func (h *AccountHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := h.content.GetArticle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, article)
}

func (h *AccountHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateArticleRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	article, err := h.content.CreateArticle(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, article)
}

func (h *AccountHandler) ListOffers(w http.ResponseWriter, r *http.Request) {
	offers, err := h.content.ListActiveOffers(r.Context())
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, offers)
}

func (h *AccountHandler) CreateOffer(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOfferRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	offer, err := h.content.CreateOffer(r.Context(), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, offer)
}

func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.Get(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, profile)
}

func (h *AccountHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	profile, err := h.profiles.Save(r.Context(), userID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Message(w, http.StatusOK, "Profile saved", profile)
}

func (h *AccountHandler) GenerateTips(w http.ResponseWriter, r *http.Request) {
	var req domain.TipsRequest
	if !decode(w, r, h.validator, &req) {
		return
	}
	tips, err := h.tips.Generate(r.Context(), userID(r), &req)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, tips)
}

func (h *AccountHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Overview(r.Context(), userID(r))
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Success(w, view)
}
