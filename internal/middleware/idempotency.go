package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/fiducialend/internal/auth"
	"github.com/segyhp/fiducialend/pkg/response"
)

// IdempotencyHeader names the optional client-chosen request key.
const IdempotencyHeader = "Idempotency-Key"

const (
	// How long the in-progress marker lives if the handler never finishes.
	provisionalLockTTL = 60 * time.Second
	maxKeyLength       = 128
)

type idempEntry struct {
	InProgress bool      `json:"in_progress"`
	Code       int       `json:"code"`
	Body       []byte    `json:"body"`
	BodySHA256 string    `json:"body_sha256"`
	CreatedAt  time.Time `json:"created_at"`
}

// captureWriter tees the response body so it can be replayed.
type captureWriter struct {
	*response.Recorder
	buf bytes.Buffer
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.buf.Write(b)
	return c.Recorder.Write(b)
}

// Idempotency replays the stored response when a mutating request repeats an
// Idempotency-Key for the same user and path. Requests without the header
// pass through untouched. A reused key with a different body is rejected.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			reqKey := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if reqKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(reqKey) > maxKeyLength {
				response.BadRequest(w, "Idempotency-Key is too long", nil)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = io.ReadAll(r.Body)
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			bhash := bodyHash(body)

			userID := "anonymous"
			if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
				userID = claims.UserID()
			}
			key := buildKey(r.Method, r.URL.Path, userID, reqKey)

			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			ok, err := provisionalSet(ctx, rdb, key, idempEntry{InProgress: true, BodySHA256: bhash, CreatedAt: time.Now().UTC()})
			if err != nil {
				slog.Error("idempotency store unavailable", "error", err)
				response.Error(w, http.StatusServiceUnavailable, "Please try again shortly", nil)
				return
			}
			if !ok {
				cur, err := loadEntry(ctx, rdb, key)
				if err != nil {
					slog.Warn("failed to load idempotency entry", "key", key, "error", err)
				}
				if cur.BodySHA256 != "" && cur.BodySHA256 != bhash {
					response.Error(w, http.StatusConflict, "Idempotency-Key reused with a different request body", nil)
					return
				}
				if !cur.InProgress && cur.Code != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.Header().Set("Idempotent-Replayed", "true")
					w.WriteHeader(cur.Code)
					_, _ = w.Write(cur.Body)
					return
				}
				response.Error(w, http.StatusConflict, "A request with this Idempotency-Key is already in progress", nil)
				return
			}

			rec := &captureWriter{Recorder: response.NewRecorder(w)}
			next.ServeHTTP(rec, r)

			// Server errors are not cached so the client may retry.
			if rec.StatusCode() >= http.StatusInternalServerError {
				_ = rdb.Del(context.Background(), key).Err()
				return
			}
			final := idempEntry{
				Code:       rec.StatusCode(),
				Body:       rec.buf.Bytes(),
				BodySHA256: bhash,
				CreatedAt:  time.Now().UTC(),
			}
			if err := saveFinal(context.Background(), rdb, key, final, ttl); err != nil {
				slog.Warn("failed to store idempotent response", "key", key, "error", err)
			}
		})
	}
}

func bodyHash(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func buildKey(method, path, userID, requestKey string) string {
	return "fiducialend:idemp:" + strings.ToLower(method) + ":" + path + ":" + userID + ":" + requestKey
}

func provisionalSet(ctx context.Context, rdb *redis.Client, key string, entry idempEntry) (bool, error) {
	payload, _ := json.Marshal(entry)
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadEntry(ctx context.Context, rdb *redis.Client, key string) (idempEntry, error) {
	var e idempEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	err = json.Unmarshal(v, &e)
	return e, err
}

func saveFinal(ctx context.Context, rdb *redis.Client, key string, entry idempEntry, ttl time.Duration) error {
	payload, _ := json.Marshal(entry)
	return rdb.Set(ctx, key, payload, ttl).Err()
}
