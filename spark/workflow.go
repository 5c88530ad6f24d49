package spark

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/postspark/postspark/db/dbgen"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// CampaignRefreshWorkflowInput identifies the campaign to refresh.
type CampaignRefreshWorkflowInput struct {
	CampaignID uuid.UUID `json:"campaign_id"`
	// RecordUsage is false for scheduled background refreshes, which do
	// not count against the owner's plan limits.
	RecordUsage bool `json:"record_usage"`
}

// CampaignRefreshResult summarizes one refresh run.
type CampaignRefreshResult struct {
	CampaignID  uuid.UUID `json:"campaign_id"`
	NewLeads    int64     `json:"new_leads"`
	TotalPosts  int       `json:"total_posts"`
	RateLimited bool      `json:"rate_limited"`
}

// CampaignRefreshWorkflow scans Reddit for a campaign's keywords and
// persists the accepted posts as leads.
func CampaignRefreshWorkflow(ctx workflow.Context, input CampaignRefreshWorkflowInput) (*CampaignRefreshResult, error) {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)
	logger := workflow.GetLogger(ctx)

	var a *Activities

	var campaign dbgen.Campaign
	if err := workflow.ExecuteActivity(ctx, a.GetCampaignInfo, input.CampaignID).Get(ctx, &campaign); err != nil {
		return nil, fmt.Errorf("failed to load campaign: %w", err)
	}
	if campaign.Status != "active" {
		logger.Info("campaign not active, skipping refresh", "campaign_id", input.CampaignID, "status", campaign.Status)
		return &CampaignRefreshResult{CampaignID: input.CampaignID}, nil
	}

	var scan ScanResult
	err := workflow.ExecuteActivity(ctx, a.ScanCampaignLeads, ScanInput{
		Keywords:       campaign.Keywords,
		Offer:          campaign.Offer,
		SubredditHints: campaign.Subreddits,
	}).Get(ctx, &scan)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	var inserted int64
	if len(scan.Posts) > 0 {
		err = workflow.ExecuteActivity(ctx, a.PersistLeads, PersistLeadsInput{
			CampaignID: input.CampaignID,
			Posts:      scan.Posts,
		}).Get(ctx, &inserted)
		if err != nil {
			return nil, fmt.Errorf("failed to persist leads: %w", err)
		}
	}

	if input.RecordUsage {
		if err := workflow.ExecuteActivity(ctx, a.RecordRefreshUsage, campaign.UserID).Get(ctx, nil); err != nil {
			// The leads are already stored; a missed counter bump is
			// not worth failing the run.
			logger.Error("failed to record refresh usage", "error", err)
		}
	}

	logger.Info("campaign refresh complete",
		"campaign_id", input.CampaignID,
		"new_leads", inserted,
		"scanned", len(scan.Posts),
		"rate_limited", scan.RateLimited)

	return &CampaignRefreshResult{
		CampaignID:  input.CampaignID,
		NewLeads:    inserted,
		TotalPosts:  len(scan.Posts),
		RateLimited: scan.RateLimited,
	}, nil
}

// RefreshActiveCampaignsWorkflow runs a refresh over every active campaign.
// It is started on a schedule; one failing campaign does not abort the rest.
func RefreshActiveCampaignsWorkflow(ctx workflow.Context) error {
	options := workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)
	logger := workflow.GetLogger(ctx)

	var a *Activities
	var ids []uuid.UUID
	if err := workflow.ExecuteActivity(ctx, a.ListActiveCampaignIDs).Get(ctx, &ids); err != nil {
		return fmt.Errorf("failed to list active campaigns: %w", err)
	}

	for _, id := range ids {
		childOpts := workflow.ChildWorkflowOptions{
			WorkflowID: fmt.Sprintf("campaign-refresh-%s-%d", id, workflow.Now(ctx).Unix()),
		}
		childCtx := workflow.WithChildOptions(ctx, childOpts)
		var result CampaignRefreshResult
		err := workflow.ExecuteChildWorkflow(childCtx, CampaignRefreshWorkflow, CampaignRefreshWorkflowInput{
			CampaignID: id,
		}).Get(childCtx, &result)
		if err != nil {
			logger.Error("campaign refresh failed", "campaign_id", id, "error", err)
			continue
		}
	}
	return nil
}
