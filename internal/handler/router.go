package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"

	"github.com/segyhp/fiducialend/internal/auth"
	"github.com/segyhp/fiducialend/internal/metrics"
	"github.com/segyhp/fiducialend/internal/middleware"
	"github.com/segyhp/fiducialend/pkg/response"
)

// RouterConfig collects what NewRouter needs. Redis and Metrics are optional.
type RouterConfig struct {
	Health   *HealthHandler
	Sessions *SessionHandler
	Loans    *LoanHandler
	Account  *AccountHandler

	Tokens         middleware.TokenValidator
	CookieName     string
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Metrics        *metrics.Metrics
}

func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(response.CORSMiddleware, response.LoggingMiddleware)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
		r.Handle("/metrics", cfg.Metrics.Handler()).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", cfg.Health.Health).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", cfg.Health.Ready).Methods(http.MethodGet)

	// preflight requests are answered by the CORS middleware
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/auth/session", cfg.Sessions.Create).Methods(http.MethodPost)
	api.HandleFunc("/auth/me", cfg.Sessions.Me).Methods(http.MethodGet)
	api.HandleFunc("/auth/logout", cfg.Sessions.Logout).Methods(http.MethodPost)
	api.HandleFunc("/quote", cfg.Loans.Quote).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Authenticate(cfg.Tokens, cfg.CookieName))
	if cfg.Redis != nil {
		protected.Use(middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL))
	}

	approver := middleware.RequireRole(auth.RoleApprover, auth.RoleAdmin)
	admin := middleware.RequireRole(auth.RoleAdmin)

	protected.HandleFunc("/loans", cfg.Loans.Submit).Methods(http.MethodPost)
	protected.HandleFunc("/loans", cfg.Loans.List).Methods(http.MethodGet)
	protected.HandleFunc("/loans/{loanId}", cfg.Loans.Get).Methods(http.MethodGet)
	protected.HandleFunc("/loans/{loanId}/schedule", cfg.Loans.Schedule).Methods(http.MethodGet)
	protected.Handle("/loans/{loanId}/decision", approver(http.HandlerFunc(cfg.Loans.Decide))).Methods(http.MethodPost)
	protected.HandleFunc("/loans/{loanId}/payments", cfg.Loans.MakePayment).Methods(http.MethodPost)
	protected.HandleFunc("/payments", cfg.Loans.ListPayments).Methods(http.MethodGet)

	protected.HandleFunc("/transactions", cfg.Account.ListTransactions).Methods(http.MethodGet)
	protected.HandleFunc("/transactions", cfg.Account.AddTransaction).Methods(http.MethodPost)
	protected.HandleFunc("/transactions/summary", cfg.Account.TransactionSummary).Methods(http.MethodGet)

	protected.HandleFunc("/articles", cfg.Account.ListArticles).Methods(http.MethodGet)
	protected.Handle("/articles", admin(http.HandlerFunc(cfg.Account.CreateArticle))).Methods(http.MethodPost)
	protected.HandleFunc("/articles/{id}", cfg.Account.GetArticle).Methods(http.MethodGet)
	protected.HandleFunc("/offers", cfg.Account.ListOffers).Methods(http.MethodGet)
	protected.Handle("/offers", admin(http.HandlerFunc(cfg.Account.CreateOffer))).Methods(http.MethodPost)

	protected.HandleFunc("/profile", cfg.Account.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/profile", cfg.Account.SaveProfile).Methods(http.MethodPut)
	protected.HandleFunc("/tips", cfg.Account.GenerateTips).Methods(http.MethodPost)
	protected.HandleFunc("/dashboard", cfg.Account.Dashboard).Methods(http.MethodGet)

	return r
}
