package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// context keys
type contextKey int

var ctxKeyJWT contextKey = 1
var ctxKeyEmail contextKey = 2

// UserStatus gates access to privileged endpoints.
type UserStatus int

const (
	UserStatusDefault UserStatus = 0
	UserStatusSudo    UserStatus = 10
)

// RateLimiter implements a simple in-memory sliding window rate limiter
type RateLimiter struct {
	mu       sync.RWMutex
	requests map[string][]time.Time
	window   time.Duration
	limit    int
}

// NewRateLimiter creates a new rate limiter with the specified window and limit
func NewRateLimiter(window time.Duration, limit int) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		window:   window,
		limit:    limit,
	}
}

// isAllowed checks if a request from the given key is allowed
func (rl *RateLimiter) isAllowed(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	requests := rl.requests[key]
	valid := requests[:0]
	for _, t := range requests {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	rl.requests[key] = valid

	if len(valid) >= rl.limit {
		return false
	}

	rl.requests[key] = append(rl.requests[key], now)
	return true
}

func clientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		return strings.Split(forwardedFor, ",")[0]
	}
	return r.RemoteAddr
}

// rateLimitMiddleware creates a middleware that applies IP based rate limiting
func rateLimitMiddleware(rl *RateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !rl.isAllowed(clientIP(r)) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
				return
			}
			next(w, r)
		}
	}
}

// jwtRateLimitMiddleware applies rate limiting keyed by the authenticated
// user, falling back to the client IP when no claims are present.
func jwtRateLimitMiddleware(rl *RateLimiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r)
			if claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims); ok && claims.Email != "" {
				key = claims.Email
			}
			if !rl.isAllowed(key) {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.window.Seconds())))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded for this action"})
				return
			}
			next(w, r)
		}
	}
}

// apiMode applies the middleware every JSON endpoint wants: panic
// recovery, a request body size cap, and the JSON content type. CORS is
// handled globally on the mux.
func apiMode(l *slog.Logger, maxBytes int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		next = setContentType("application/json")(next)
		next = setMaxBytesReader(maxBytes)(next)
		next = makeGraceful(l)(next)
		return next
	}
}

func setContentType(content string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", content)
			next(w, r)
		}
	}
}

func makeGraceful(l *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				err := recover()
				if err != nil {
					l.Error("recovered from panic")
					switch v := err.(type) {
					case error:
						writeInternalError(l, w, v)
					case string:
						writeInternalError(l, w, fmt.Errorf("panic error: %s", v))
					default:
						writeInternalError(l, w, fmt.Errorf("recovered but unexpected type from recover()"))
					}
				}
			}()
			next.ServeHTTP(w, r)
		}
	}
}

func setMaxBytesReader(mb int64) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, mb)
			next(w, r)
		}
	}
}

func bearerAuthorizerCtxSetToken(gsk func() string) func(http.ResponseWriter, *http.Request) bool {
	return func(w http.ResponseWriter, r *http.Request) bool {
		var claims authJWTClaims
		ts := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if ts == "" {
			return false
		}
		kf := func(token *jwt.Token) (interface{}, error) {
			return []byte(gsk()), nil
		}
		token, err := jwt.ParseWithClaims(ts, &claims, kf)
		if err != nil || !token.Valid {
			return false
		}
		ctx := context.WithValue(r.Context(), ctxKeyJWT, token.Claims)
		*r = *r.WithContext(ctx)
		return true
	}
}

// oauthAuthorizerForm authenticates requests using form data. It expects
// 'username' (the account email) and 'password' (the server secret).
func oauthAuthorizerForm(gsk func() string) func(http.ResponseWriter, *http.Request) bool {
	return func(w http.ResponseWriter, r *http.Request) bool {
		if err := r.ParseForm(); err != nil {
			writeUnauthorized(w)
			return false
		}

		email := r.FormValue("username")
		password := r.FormValue("password")
		if email == "" || password == "" {
			writeUnauthorized(w)
			return false
		}

		expectedPassword := gsk()
		if expectedPassword == "" {
			slog.Default().Error("oauthAuthorizerForm: server secret key not configured")
			writeInternalError(slog.Default(), w, fmt.Errorf("authentication configuration error"))
			return false
		}
		if password != expectedPassword {
			writeUnauthorized(w)
			return false
		}
		ctx := context.WithValue(r.Context(), ctxKeyEmail, email)
		*r = *r.WithContext(ctx)
		return true
	}
}

// Iterates over the supplied authorizers and if at least one passes, then the
// next handler is called, otherwise an unauthorized response is written.
func atLeastOneAuth(authorizers ...func(http.ResponseWriter, *http.Request) bool) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			for _, a := range authorizers {
				if !a(w, r) {
					continue
				}
				next(w, r)
				return
			}
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
		}
	}
}

// requireStatus checks that the authenticated user has the required status.
func requireStatus(requiredStatus UserStatus) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims)
			if !ok || claims == nil {
				writeUnauthorized(w)
				return
			}
			if claims.Status < int(requiredStatus) {
				w.WriteHeader(http.StatusForbidden)
				json.NewEncoder(w).Encode(map[string]string{"error": "forbidden: insufficient permissions"})
				return
			}
			next(w, r)
		}
	}
}

type authJWTClaims struct {
	jwt.StandardClaims
	Email  string `json:"email"`
	UserID string `json:"user_id"`
	Status int    `json:"status"`
}

// currentUser extracts the authenticated user's id from the request claims.
func currentUser(r *http.Request) (uuid.UUID, *authJWTClaims, error) {
	claims, ok := r.Context().Value(ctxKeyJWT).(*authJWTClaims)
	if !ok || claims == nil {
		return uuid.Nil, nil, fmt.Errorf("missing JWT claims in context")
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("invalid user id in token: %w", err)
	}
	return id, claims, nil
}

func getSecretKey() string {
	return os.Getenv(EnvServerSecretKey)
}
