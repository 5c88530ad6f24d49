package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

var errRedditNotConnected = errors.New("reddit account not connected")

// ensureUserRedditToken returns a live access token for the user, refreshing
// lazily when the stored one is near expiry. A failed refresh disconnects
// the account so the client can prompt for a reconnect.
func ensureUserRedditToken(ctx context.Context, l *slog.Logger, querier dbgen.Querier, client *http.Client, userID uuid.UUID, force bool) (string, error) {
	row, err := querier.GetRedditToken(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", errRedditNotConnected
		}
		return "", fmt.Errorf("failed to load reddit token: %w", err)
	}

	if !force && time.Now().Add(2*time.Minute).Before(row.ExpiresAt) {
		return row.AccessToken, nil
	}

	cfg := redditOAuthFromEnv()
	tok, err := cfg.Refresh(ctx, client, row.RefreshToken)
	if err != nil {
		l.Warn("reddit token refresh failed, disconnecting account", "user_id", userID, "error", err)
		if delErr := querier.DeleteRedditToken(ctx, userID); delErr != nil {
			l.Error("failed to delete stale reddit token", "user_id", userID, "error", delErr)
		}
		return "", errRedditNotConnected
	}

	if err := querier.UpsertRedditToken(ctx, dbgen.UpsertRedditTokenParams{
		UserID:       userID,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.Expiry,
	}); err != nil {
		return "", fmt.Errorf("failed to store refreshed token: %w", err)
	}
	return tok.AccessToken, nil
}

// handleRedditConnect returns the Reddit consent URL for the caller.
func handleRedditConnect(l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		cfg := redditOAuthFromEnv()
		if cfg.ClientID == "" || cfg.RedirectURL == "" {
			writeInternalError(l, w, fmt.Errorf("reddit oauth app not configured"))
			return
		}

		state, err := spark.SignStateToken(getSecretKey(), userID.String(), r.URL.Query().Get("return_url"))
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to sign state token: %w", err))
			return
		}
		writeJSONResponse(w, api.RedditConnectResponse{
			AuthorizationURL: cfg.AuthorizationURL(state),
		}, http.StatusOK)
	}
}

// handleRedditCallback completes the OAuth flow: it validates the state
// token, exchanges the code, and stores the token pair.
func handleRedditCallback(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if errParam := q.Get("error"); errParam != "" {
			writeBadRequestError(w, fmt.Errorf("reddit authorization denied: %s", errParam))
			return
		}
		code := q.Get("code")
		if code == "" {
			writeBadRequestError(w, fmt.Errorf("missing authorization code"))
			return
		}

		claims, err := spark.ParseStateToken(getSecretKey(), q.Get("state"))
		if err != nil {
			writeUnauthorized(w)
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		cfg := redditOAuthFromEnv()
		tok, err := cfg.Exchange(r.Context(), httpClient, code)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to exchange authorization code: %w", err))
			return
		}

		if err := querier.UpsertRedditToken(r.Context(), dbgen.UpsertRedditTokenParams{
			UserID:       userID,
			AccessToken:  tok.AccessToken,
			RefreshToken: tok.RefreshToken,
			ExpiresAt:    tok.Expiry,
		}); err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to store reddit token: %w", err))
			return
		}
		l.Info("reddit account connected", "user_id", userID)

		if claims.ReturnURL != "" {
			http.Redirect(w, r, claims.ReturnURL, http.StatusFound)
			return
		}
		writeOK(w)
	}
}

// handleRedditRefresh forces a token refresh for the caller.
func handleRedditRefresh(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		if _, err := ensureUserRedditToken(r.Context(), l, querier, httpClient, userID, true); err != nil {
			if errors.Is(err, errRedditNotConnected) {
				writeJSONResponse(w, api.RedditStatusResponse{Connected: false}, http.StatusOK)
				return
			}
			writeInternalError(l, w, err)
			return
		}
		writeJSONResponse(w, api.RedditStatusResponse{Connected: true}, http.StatusOK)
	}
}

// handleRedditMe reports connection status and the linked Reddit username.
func handleRedditMe(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		token, err := ensureUserRedditToken(r.Context(), l, querier, httpClient, userID, false)
		if err != nil {
			if errors.Is(err, errRedditNotConnected) {
				writeJSONResponse(w, api.RedditStatusResponse{Connected: false}, http.StatusOK)
				return
			}
			writeInternalError(l, w, err)
			return
		}

		identity, err := spark.GetRedditIdentity(r.Context(), httpClient, token, userAgent())
		if err != nil {
			if spark.IsAuthFailure(err) {
				writeJSONResponse(w, api.RedditStatusResponse{Connected: false}, http.StatusOK)
				return
			}
			writeInternalError(l, w, fmt.Errorf("failed to fetch reddit identity: %w", err))
			return
		}
		writeJSONResponse(w, api.RedditStatusResponse{Connected: true, Username: identity.Name}, http.StatusOK)
	}
}

// handlePostComment publishes a reply comment on a lead's post with the
// caller's connected Reddit account. On an auth failure it refreshes the
// token and retries exactly once.
func handlePostComment(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		var req api.PostCommentRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if strings.TrimSpace(req.Text) == "" {
			writeBadRequestError(w, fmt.Errorf("comment text is required"))
			return
		}

		lead, err := querier.GetLead(r.Context(), req.LeadID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeInternalError(l, w, fmt.Errorf("failed to load lead: %w", err))
			return
		}
		campaign, err := querier.GetCampaign(r.Context(), lead.CampaignID)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to load campaign for lead: %w", err))
			return
		}
		if campaign.UserID != userID {
			writeNotFoundError(w)
			return
		}

		token, err := ensureUserRedditToken(r.Context(), l, querier, httpClient, userID, false)
		if err != nil {
			if errors.Is(err, errRedditNotConnected) {
				writeBadRequestError(w, errRedditNotConnected)
				return
			}
			writeInternalError(l, w, err)
			return
		}

		commentID, err := spark.SubmitRedditComment(r.Context(), httpClient, token, userAgent(), lead.ExternalID, req.Text)
		if err != nil && spark.IsAuthFailure(err) {
			token, err = ensureUserRedditToken(r.Context(), l, querier, httpClient, userID, true)
			if err == nil {
				commentID, err = spark.SubmitRedditComment(r.Context(), httpClient, token, userAgent(), lead.ExternalID, req.Text)
			}
		}
		if err != nil {
			if errors.Is(err, errRedditNotConnected) {
				writeBadRequestError(w, errRedditNotConnected)
				return
			}
			writeInternalError(l, w, fmt.Errorf("failed to submit comment: %w", err))
			return
		}

		if err := querier.MarkLeadContacted(r.Context(), lead.ID); err != nil {
			l.Error("failed to mark lead contacted", "lead_id", lead.ID, "error", err)
		}

		writeJSONResponse(w, api.PostCommentResponse{CommentID: commentID}, http.StatusOK)
	}
}
