package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

func campaignToResponse(c dbgen.Campaign) api.CampaignResponse {
	return api.CampaignResponse{
		ID:         c.ID,
		Name:       c.Name,
		Offer:      c.Offer,
		WebsiteURL: c.WebsiteUrl,
		Keywords:   c.Keywords,
		Subreddits: c.Subreddits,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func leadToResponse(l dbgen.Lead) api.LeadResponse {
	resp := api.LeadResponse{
		ID:           l.ID,
		CampaignID:   l.CampaignID,
		ExternalID:   l.ExternalID,
		Title:        l.Title,
		Body:         l.Body,
		Subreddit:    l.Subreddit,
		Author:       l.Author,
		Score:        l.Score,
		Upvotes:      l.Upvotes,
		NumComments:  l.NumComments,
		Contacted:    l.Contacted,
		PermalinkURL: fmt.Sprintf("https://www.reddit.com/r/%s/comments/%s/", l.Subreddit, l.ExternalID),
	}
	if l.PostedAt.Valid {
		resp.PostedAt = l.PostedAt.Time
	}
	if l.DraftedReply.Valid {
		resp.DraftedReply = l.DraftedReply.String
	}
	return resp
}

func validateCampaignRequest(name string, keywords []string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("name is required")
	}
	var nonEmpty int
	for _, kw := range keywords {
		if strings.TrimSpace(kw) != "" {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return fmt.Errorf("at least one keyword is required")
	}
	return nil
}

// ownedCampaign loads a campaign and verifies it belongs to the caller.
func ownedCampaign(r *http.Request, querier dbgen.Querier, userID uuid.UUID) (dbgen.Campaign, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return dbgen.Campaign{}, fmt.Errorf("invalid campaign id: %w", err)
	}
	campaign, err := querier.GetCampaign(r.Context(), id)
	if err != nil {
		return dbgen.Campaign{}, err
	}
	if campaign.UserID != userID {
		// Don't leak existence of other users' campaigns.
		return dbgen.Campaign{}, pgx.ErrNoRows
	}
	return campaign, nil
}

func handleCreateCampaign(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		var req api.CreateCampaignRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if err := validateCampaignRequest(req.Name, req.Keywords); err != nil {
			writeBadRequestError(w, err)
			return
		}

		decision, err := spark.CheckAndEnforceLimits(r.Context(), querier, userID, spark.ActionCreateCampaign, time.Now())
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		if !decision.Allowed {
			writePaywall(w, decision)
			return
		}

		campaign, err := querier.CreateCampaign(r.Context(), dbgen.CreateCampaignParams{
			UserID:     userID,
			Name:       req.Name,
			Offer:      req.Offer,
			WebsiteUrl: req.WebsiteURL,
			Keywords:   req.Keywords,
			Subreddits: req.Subreddits,
		})
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to create campaign: %w", err))
			return
		}
		writeJSONResponse(w, campaignToResponse(campaign), http.StatusCreated)
	}
}

func handleListCampaigns(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaigns, err := querier.ListCampaignsByUser(r.Context(), userID)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to list campaigns: %w", err))
			return
		}

		resp := make([]api.CampaignResponse, 0, len(campaigns))
		for _, c := range campaigns {
			resp = append(resp, campaignToResponse(c))
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleGetCampaign(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaign, err := ownedCampaign(r, querier, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeBadRequestError(w, err)
			return
		}
		writeJSONResponse(w, campaignToResponse(campaign), http.StatusOK)
	}
}

func handleUpdateCampaign(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaign, err := ownedCampaign(r, querier, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeBadRequestError(w, err)
			return
		}

		var req api.UpdateCampaignRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request body: %w", err))
			return
		}
		if err := validateCampaignRequest(req.Name, req.Keywords); err != nil {
			writeBadRequestError(w, err)
			return
		}
		switch req.Status {
		case "active", "paused":
		default:
			writeBadRequestError(w, fmt.Errorf("status must be active or paused"))
			return
		}

		updated, err := querier.UpdateCampaign(r.Context(), dbgen.UpdateCampaignParams{
			ID:         campaign.ID,
			Name:       req.Name,
			Offer:      req.Offer,
			WebsiteUrl: req.WebsiteURL,
			Keywords:   req.Keywords,
			Subreddits: req.Subreddits,
			Status:     req.Status,
		})
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to update campaign: %w", err))
			return
		}
		writeJSONResponse(w, campaignToResponse(updated), http.StatusOK)
	}
}

func handleDeleteCampaign(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaign, err := ownedCampaign(r, querier, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeBadRequestError(w, err)
			return
		}

		if err := querier.DeleteCampaign(r.Context(), campaign.ID); err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to delete campaign: %w", err))
			return
		}
		writeOK(w)
	}
}

func handleListCampaignLeads(l *slog.Logger, querier dbgen.Querier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaign, err := ownedCampaign(r, querier, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeBadRequestError(w, err)
			return
		}

		leads, err := querier.ListLeadsByCampaign(r.Context(), campaign.ID)
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to list leads: %w", err))
			return
		}

		resp := make([]api.LeadResponse, 0, len(leads))
		for _, lead := range leads {
			resp = append(resp, leadToResponse(lead))
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

// handleRefreshCampaign starts a refresh workflow for the campaign after the
// usage gate approves it.
func handleRefreshCampaign(l *slog.Logger, querier dbgen.Querier, tc client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		campaign, err := ownedCampaign(r, querier, userID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				writeNotFoundError(w)
				return
			}
			writeBadRequestError(w, err)
			return
		}

		decision, err := spark.CheckAndEnforceLimits(r.Context(), querier, userID, spark.ActionRefresh, time.Now())
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		if !decision.Allowed {
			writePaywall(w, decision)
			return
		}

		workflowID := fmt.Sprintf("campaign-refresh-%s-%d", campaign.ID, time.Now().Unix())
		workflowOptions := client.StartWorkflowOptions{
			ID:        workflowID,
			TaskQueue: os.Getenv(EnvTaskQueue),
			RetryPolicy: &temporal.RetryPolicy{
				MaximumAttempts: 3,
			},
		}
		_, err = tc.ExecuteWorkflow(r.Context(), workflowOptions, spark.CampaignRefreshWorkflow, spark.CampaignRefreshWorkflowInput{
			CampaignID:  campaign.ID,
			RecordUsage: true,
		})
		if err != nil {
			writeInternalError(l, w, fmt.Errorf("failed to start refresh workflow: %w", err))
			return
		}

		writeJSONResponse(w, api.RefreshCampaignResponse{
			Message:    "refresh started",
			WorkflowID: workflowID,
		}, http.StatusAccepted)
	}
}
