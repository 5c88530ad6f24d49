package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
)

func generateAccessToken(claims authJWTClaims) (string, error) {
	t := jwt.New(jwt.SigningMethodHS256)
	t.Claims = claims
	return t.SignedString([]byte(getSecretKey()))
}

// handleIssueToken issues a sudo token for an account authenticated with the
// server secret. The account row is created on first use.
func handleIssueToken(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email, ok := r.Context().Value(ctxKeyEmail).(string)
		if !ok {
			writeInternalError(l, w, fmt.Errorf("missing context key for form auth email"))
			return
		}

		user, err := querier.UpsertUser(r.Context(), email)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to upsert user: %w", err))
			return
		}

		c := authJWTClaims{
			StandardClaims: jwt.StandardClaims{
				ExpiresAt: time.Now().Add(2 * 7 * 24 * time.Hour).Unix(), // 2 weeks
			},
			Email:  user.Email,
			UserID: user.ID.String(),
			Status: int(UserStatusSudo),
		}
		token, err := generateAccessToken(c)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to sign token: %w", err))
			return
		}
		writeJSONResponse(w, api.TokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
	}
}
