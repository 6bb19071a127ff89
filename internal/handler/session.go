package handler

import (
	"log/slog"
	"net/http"

	"github.com/segyhp/fiducialend/internal/auth"
	"github.com/segyhp/fiducialend/pkg/response"
)

// Sessions verifies identity tokens and mints session tokens.
type Sessions interface {
	ValidateToken(token string) (*auth.Claims, error)
	GenerateToken(userID, email string, roles []string) (string, error)
}

type CookieConfig struct {
	Name   string
	MaxAge int
	Secure bool
}

type SessionHandler struct {
	sessions  Sessions
	cookie    CookieConfig
	validator *Validator
}

func NewSessionHandler(sessions Sessions, cookie CookieConfig) *SessionHandler {
	return &SessionHandler{sessions: sessions, cookie: cookie, validator: NewValidator()}
}

type sessionRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

// SessionUser is the public view of the signed-in caller.
type SessionUser struct {
	UID   string   `json:"uid"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type meResponse struct {
	User *SessionUser `json:"user"`
}

// Create handles POST /api/v1/auth/session. It exchanges a provider ID token
// for an HttpOnly session cookie.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if !decode(w, r, h.validator, &req) {
		return
	}

	claims, err := h.sessions.ValidateToken(req.IDToken)
	if err != nil {
		slog.Info("rejected identity token", "error", err)
		response.Unauthorized(w, "Invalid ID token")
		return
	}

	token, err := h.sessions.GenerateToken(claims.UserID(), claims.Email, claims.Roles)
	if err != nil {
		response.InternalServerError(w, "Failed to create session", nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   h.cookie.MaxAge,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, meResponse{User: toSessionUser(claims)})
}

// Me handles GET /api/v1/auth/me. A missing or invalid session yields a null
// user, not an error.
func (h *SessionHandler) Me(w http.ResponseWriter, r *http.Request) {
	c, err := r.Cookie(h.cookie.Name)
	if err != nil || c.Value == "" {
		response.Success(w, meResponse{})
		return
	}
	claims, err := h.sessions.ValidateToken(c.Value)
	if err != nil {
		response.Success(w, meResponse{})
		return
	}
	response.Success(w, meResponse{User: toSessionUser(claims)})
}

// Logout handles POST /api/v1/auth/logout.
func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	response.Success(w, nil)
}

func toSessionUser(c *auth.Claims) *SessionUser {
	return &SessionUser{UID: c.UserID(), Email: c.Email, Roles: c.Roles}
}
