package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

// handleDraftReply generates an AI reply for a lead, stores it on the lead
// row, and counts it against the caller's monthly allowance.
func handleDraftReply(l *slog.Logger, querier dbgen.Querier, provider spark.LLMProvider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			writeInternalError(l, w, fmt.Errorf("LLM provider not configured"))
			return
		}

		userID, _, err := currentUser(r)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		var req api.DraftReplyRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, fmt.Errorf("invalid request body: %w", err))
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

		decision, err := spark.CheckAndEnforceLimits(r.Context(), querier, userID, spark.ActionAIReply, time.Now())
		if err != nil {
			writeInternalError(l, w, err)
			return
		}
		if !decision.Allowed {
			writePaywall(w, decision)
			return
		}

		reply, err := spark.DraftReply(r.Context(), provider, spark.DraftRequest{
			PostTitle:   lead.Title,
			PostBody:    lead.Body,
			Subreddit:   lead.Subreddit,
			ProductName: campaign.Name,
			Offer:       campaign.Offer,
			WebsiteURL:  campaign.WebsiteUrl,
			Tone:        spark.ParseTone(req.Tone),
			Intensity:   spark.ParseSalesIntensity(req.SalesIntensity),
		})
		if err != nil {
			writeInternalError(l, w, err)
			return
		}

		if err := querier.SetLeadDraftedReply(r.Context(), dbgen.SetLeadDraftedReplyParams{
			ID:           lead.ID,
			DraftedReply: pgtype.Text{String: reply, Valid: true},
		}); err != nil {
			l.Error("failed to store drafted reply", "lead_id", lead.ID, "error", err)
		}

		if _, err := spark.RecordUsage(r.Context(), querier, userID, spark.UsageTypeAIReply, time.Now()); err != nil {
			l.Error("failed to record ai reply usage", "user_id", userID, "error", err)
		}

		writeJSONResponse(w, api.DraftReplyResponse{Reply: reply}, http.StatusOK)
	}
}
