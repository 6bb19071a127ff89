package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/fiducialend/internal/auth"
)

func newJWT(t *testing.T) *auth.JWTService {
	t.Helper()
	svc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "fiducialend", Expiration: time.Hour})
	require.NoError(t, err)
	return svc
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	_, _ = io.WriteString(w, claims.UserID())
}

func TestAuthenticate(t *testing.T) {
	jwtSvc := newJWT(t)
	token, err := jwtSvc.GenerateToken("user-1", "u@example.com", []string{auth.RoleBorrower})
	require.NoError(t, err)

	h := Authenticate(jwtSvc, "session")(http.HandlerFunc(whoAmI))

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-1", rr.Body.String())
	})

	t.Run("session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer nope")
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := RequireRole(auth.RoleApprover, auth.RoleAdmin)(ok)

	serve := func(claims *auth.Claims) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if claims != nil {
			req = req.WithContext(auth.ContextWithClaims(req.Context(), claims))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusUnauthorized, serve(nil))
	assert.Equal(t, http.StatusForbidden, serve(&auth.Claims{Roles: []string{auth.RoleBorrower}}))
	assert.Equal(t, http.StatusNoContent, serve(&auth.Claims{Roles: []string{auth.RoleApprover}}))
	assert.Equal(t, http.StatusNoContent, serve(&auth.Claims{Roles: []string{auth.RoleAdmin}}))
}

func newIdempotencyHandler(t *testing.T, status int) (http.Handler, *int32, *miniredis.Miniredis) {
	t.Helper()
	return idempotencyHandlerOn(t, miniredis.RunT(t), status)
}

func idempotencyHandlerOn(t *testing.T, mr *miniredis.Miniredis, status int) (http.Handler, *int32, *miniredis.Miniredis) {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	var calls int32
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"call":` + string(rune('0'+n)) + `,"echo":` + string(body) + `}`))
	})
	return Idempotency(rdb, time.Hour)(next), &calls, mr
}

func post(h http.Handler, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/loans", bytes.NewBufferString(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	req = req.WithContext(auth.ContextWithClaims(req.Context(), &auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	h, calls, _ := newIdempotencyHandler(t, http.StatusCreated)

	first := post(h, "abc", `{"amount":"500"}`)
	second := post(h, "abc", `{"amount":"500"}`)

	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
}

func TestIdempotency_DifferentBodyConflicts(t *testing.T) {
	h, calls, _ := newIdempotencyHandler(t, http.StatusCreated)

	post(h, "abc", `{"amount":"500"}`)
	rr := post(h, "abc", `{"amount":"900"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestIdempotency_WithoutKeyPassesThrough(t *testing.T) {
	h, calls, _ := newIdempotencyHandler(t, http.StatusCreated)

	post(h, "", `{}`)
	post(h, "", `{}`)

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotency_InProgressConflicts(t *testing.T) {
	h, calls, mr := newIdempotencyHandler(t, http.StatusCreated)

	key := buildKey(http.MethodPost, "/api/v1/loans", "user-1", "abc")
	require.NoError(t, mr.Set(key, `{"in_progress":true,"body_sha256":"`+bodyHash([]byte(`{}`))+`"}`))

	rr := post(h, "abc", `{}`)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	h, calls, _ := newIdempotencyHandler(t, http.StatusInternalServerError)

	post(h, "abc", `{}`)
	post(h, "abc", `{}`)

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestIdempotency_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	h, calls, _ := idempotencyHandlerOn(t, mr, http.StatusCreated)
	mr.Close()

	rr := post(h, "abc", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(calls))
}
