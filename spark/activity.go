package spark

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/postspark/postspark/db/dbgen"
	"go.temporal.io/sdk/activity"
)

// TaskQueueName is the name of the task queue for all workflows
const TaskQueueName = "postspark"

// Activities holds the shared, non-config dependencies for all activities.
// Configuration is read from the environment inside each activity to keep
// workflow inputs small and deterministic.
type Activities struct {
	httpClient *http.Client
	querier    dbgen.Querier
}

// NewActivities creates a new Activities instance. The querier is the
// worker's database handle.
func NewActivities(querier dbgen.Querier) (*Activities, error) {
	if querier == nil {
		return nil, fmt.Errorf("querier is required")
	}
	return &Activities{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		querier:    querier,
	}, nil
}

// GetCampaignInfo loads a campaign for a refresh run.
func (a *Activities) GetCampaignInfo(ctx context.Context, campaignID uuid.UUID) (*dbgen.Campaign, error) {
	campaign, err := a.querier.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %s: %w", campaignID, err)
	}
	return &campaign, nil
}

// ScanCampaignLeads runs one Reddit scan for the given input.
func (a *Activities) ScanCampaignLeads(ctx context.Context, input ScanInput) (*ScanResult, error) {
	logger := activity.GetLogger(ctx)
	cfg, err := getConfiguration(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	scanner := NewScanner(a.httpClient, rand.New(rand.NewSource(time.Now().UnixNano())), slog.Default())
	result, err := scanner.Scan(ctx, &cfg.RedditDeps, input)
	if err != nil {
		return nil, err
	}
	logger.Info("scan complete",
		"accepted", len(result.Posts), "rate_limited", result.RateLimited)
	return &result, nil
}

// PersistLeadsInput carries scan output to the persistence activity.
type PersistLeadsInput struct {
	CampaignID uuid.UUID    `json:"campaign_id"`
	Posts      []ScoredPost `json:"posts"`
}

// PersistLeads stores accepted posts as leads. Re-inserting a post already
// stored for the campaign is a no-op, so replays and overlapping scans are
// safe. Returns the number of newly inserted rows.
func (a *Activities) PersistLeads(ctx context.Context, input PersistLeadsInput) (int64, error) {
	var inserted int64
	for _, sp := range input.Posts {
		n, err := a.querier.InsertLead(ctx, dbgen.InsertLeadParams{
			CampaignID:  input.CampaignID,
			ExternalID:  sp.Post.ID,
			Title:       sp.Post.Title,
			Body:        sp.Post.Selftext,
			Subreddit:   sp.Post.Subreddit,
			Author:      sp.Post.Author,
			Score:       int32(sp.Score),
			Upvotes:     int32(sp.Post.Ups),
			NumComments: int32(sp.Post.NumComments),
			PostedAt:    pgtype.Timestamptz{Time: sp.Post.Created, Valid: !sp.Post.Created.IsZero()},
		})
		if err != nil {
			return inserted, fmt.Errorf("failed to insert lead %s: %w", sp.Post.ID, err)
		}
		inserted += n
	}
	return inserted, nil
}

// RecordRefreshUsage bumps the owner's refresh counter for this period.
func (a *Activities) RecordRefreshUsage(ctx context.Context, userID uuid.UUID) error {
	_, err := RecordUsage(ctx, a.querier, userID, UsageTypeRefresh, time.Now())
	return err
}

// ListActiveCampaignIDs returns ids of campaigns eligible for the periodic
// refresh pass.
func (a *Activities) ListActiveCampaignIDs(ctx context.Context) ([]uuid.UUID, error) {
	campaigns, err := a.querier.ListActiveCampaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(campaigns))
	for _, c := range campaigns {
		ids = append(ids, c.ID)
	}
	return ids, nil
}
