package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/workpay-hr/payroll-backend-go/internal/handler/http/response"
	"github.com/workpay-hr/payroll-backend-go/internal/pkg/jwt"
)

const (
	IdempotencyHeader = "Idempotency-Key"

	idempotencyPending  = "pending"
	idempotencyLockTTL  = 30 * time.Second
	idempotencyStoreTTL = 24 * time.Hour
	maxIdempotencyKey   = 128
)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first successful response for a repeated
// Idempotency-Key. Keys are scoped per user and route. A nil client turns
// the middleware into a pass-through.
type Idempotency struct {
	rdb redis.Cmdable
}

func NewIdempotency(rdb redis.Cmdable) *Idempotency {
	return &Idempotency{rdb: rdb}
}

func idempotencyKey(r *http.Request, key string) string {
	owner := "anonymous"
	if claims, err := jwt.ClaimsFromContext(r.Context()); err == nil {
		owner = claims.UserID
	}
	return "idempotency:" + owner + ":" + r.Method + ":" + r.URL.Path + ":" + key
}

func (m *Idempotency) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(IdempotencyHeader)
		if m == nil || m.rdb == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}
		if len(key) > maxIdempotencyKey {
			response.BadRequest(w, "Idempotency-Key is too long", nil)
			return
		}

		ctx := r.Context()
		storeKey := idempotencyKey(r, key)

		cached, err := m.rdb.Get(ctx, storeKey).Result()
		switch {
		case err == nil:
			m.replay(w, cached)
			return
		case !errors.Is(err, redis.Nil):
			slog.Warn("idempotency lookup failed, serving without replay", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		acquired, err := m.rdb.SetNX(ctx, storeKey, idempotencyPending, idempotencyLockTTL).Result()
		if err != nil {
			slog.Warn("idempotency lock failed, serving without replay", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !acquired {
			response.Conflict(w, "A request with this Idempotency-Key is already in progress")
			return
		}

		var body bytes.Buffer
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ww.Tee(&body)
		next.ServeHTTP(ww, r)

		// The handler may have finished after the client went away.
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()

		status := ww.Status()
		if status < 200 || status >= 300 {
			if err := m.rdb.Del(storeCtx, storeKey).Err(); err != nil {
				slog.Warn("failed to release idempotency key", "error", err)
			}
			return
		}

		data, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: ww.Header().Get("Content-Type"),
			Body:        body.Bytes(),
		})
		if err != nil {
			slog.Warn("failed to encode idempotent response", "error", err)
			return
		}
		if err := m.rdb.Set(storeCtx, storeKey, string(data), idempotencyStoreTTL).Err(); err != nil {
			slog.Warn("failed to store idempotent response", "error", err)
		}
	})
}

func (m *Idempotency) replay(w http.ResponseWriter, cached string) {
	if cached == idempotencyPending {
		response.Conflict(w, "A request with this Idempotency-Key is already in progress")
		return
	}
	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		response.InternalServerError(w, "An unexpected error occurred")
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}
