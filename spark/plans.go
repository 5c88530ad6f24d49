package spark

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/postspark/postspark/db/dbgen"
)

// PlanTier identifies a subscription plan.
type PlanTier string

const (
	PlanFree    PlanTier = "free"
	PlanStarter PlanTier = "starter"
	PlanPro     PlanTier = "pro"
)

// PlanLimits are the per-tier ceilings enforced by the usage gate.
// Refresh and AI-reply limits reset each calendar month.
type PlanLimits struct {
	MaxCampaigns      int32
	MaxRefreshesPerMo int32
	MaxAIRepliesPerMo int32
}

var planLimits = map[PlanTier]PlanLimits{
	PlanFree:    {MaxCampaigns: 1, MaxRefreshesPerMo: 2, MaxAIRepliesPerMo: 5},
	PlanStarter: {MaxCampaigns: 3, MaxRefreshesPerMo: 30, MaxAIRepliesPerMo: 100},
	PlanPro:     {MaxCampaigns: 10, MaxRefreshesPerMo: 200, MaxAIRepliesPerMo: 1000},
}

// PlanFromString normalizes a plan name, defaulting to free.
func PlanFromString(s string) PlanTier {
	switch PlanTier(s) {
	case PlanStarter:
		return PlanStarter
	case PlanPro:
		return PlanPro
	default:
		return PlanFree
	}
}

// Limits returns the ceilings for the tier.
func (t PlanTier) Limits() PlanLimits {
	if l, ok := planLimits[t]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// GateAction is an operation the usage gate can approve or deny.
type GateAction string

const (
	ActionCreateCampaign GateAction = "create_campaign"
	ActionRefresh        GateAction = "refresh"
	ActionAIReply        GateAction = "ai_reply"
)

// DenialReason is the machine-readable reason a gate decision was denied.
type DenialReason string

const (
	ReasonNoSubscription DenialReason = "no_subscription"
	ReasonLimitReached   DenialReason = "limit_reached"
	ReasonCampaignLimit  DenialReason = "campaign_limit"
	ReasonRefreshLimit   DenialReason = "refresh_limit"
)

// Usage counter types persisted per user and calendar month.
const (
	UsageTypeRefresh = "campaign_refresh"
	UsageTypeAIReply = "ai_reply"
)

// Decision is the outcome of a gate check.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  DenialReason `json:"reason,omitempty"`
	Plan    PlanTier     `json:"plan"`
	Used    int32        `json:"used"`
	Limit   int32        `json:"limit"`
}

// PeriodStart truncates a time to the first day of its calendar month (UTC),
// the key usage counters are scoped by.
func PeriodStart(now time.Time) pgtype.Date {
	now = now.UTC()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return pgtype.Date{Time: first, Valid: true}
}

// activePlan resolves the user's plan tier. Users without an active
// subscription fall back to the free tier.
func activePlan(ctx context.Context, q dbgen.Querier, userID uuid.UUID) (PlanTier, bool, error) {
	sub, err := q.GetActiveSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PlanFree, false, nil
		}
		return PlanFree, false, fmt.Errorf("failed to look up subscription: %w", err)
	}
	return PlanFromString(sub.Plan), true, nil
}

// CheckAndEnforceLimits evaluates the plan-specific limit for an action
// against current usage. It does not record usage; callers record usage
// after the action succeeds.
func CheckAndEnforceLimits(ctx context.Context, q dbgen.Querier, userID uuid.UUID, action GateAction, now time.Time) (Decision, error) {
	plan, subscribed, err := activePlan(ctx, q, userID)
	if err != nil {
		return Decision{}, err
	}
	limits := plan.Limits()

	var used, limit int32
	var overReason DenialReason

	switch action {
	case ActionCreateCampaign:
		count, err := q.CountCampaignsByUser(ctx, userID)
		if err != nil {
			return Decision{}, fmt.Errorf("failed to count campaigns: %w", err)
		}
		used, limit = int32(count), limits.MaxCampaigns
		overReason = ReasonCampaignLimit
	case ActionRefresh:
		count, err := q.GetUsageCount(ctx, dbgen.GetUsageCountParams{
			UserID:      userID,
			UsageType:   UsageTypeRefresh,
			PeriodStart: PeriodStart(now),
		})
		if err != nil {
			return Decision{}, fmt.Errorf("failed to read refresh usage: %w", err)
		}
		used, limit = count, limits.MaxRefreshesPerMo
		overReason = ReasonRefreshLimit
	case ActionAIReply:
		count, err := q.GetUsageCount(ctx, dbgen.GetUsageCountParams{
			UserID:      userID,
			UsageType:   UsageTypeAIReply,
			PeriodStart: PeriodStart(now),
		})
		if err != nil {
			return Decision{}, fmt.Errorf("failed to read ai reply usage: %w", err)
		}
		used, limit = count, limits.MaxAIRepliesPerMo
		overReason = ReasonLimitReached
	default:
		return Decision{}, fmt.Errorf("unknown gate action: %s", action)
	}

	decision := Decision{Plan: plan, Used: used, Limit: limit}
	if used >= limit {
		decision.Reason = overReason
		// Free users hitting any ceiling are pitched a subscription
		// rather than a bigger plan.
		if !subscribed && action != ActionCreateCampaign {
			decision.Reason = ReasonNoSubscription
		}
		return decision, nil
	}
	decision.Allowed = true
	return decision, nil
}

// RecordUsage bumps the user's counter for the current period. One call
// equals one increment.
func RecordUsage(ctx context.Context, q dbgen.Querier, userID uuid.UUID, usageType string, now time.Time) (int32, error) {
	count, err := q.IncrementUsage(ctx, dbgen.IncrementUsageParams{
		UserID:      userID,
		UsageType:   usageType,
		PeriodStart: PeriodStart(now),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to record usage: %w", err)
	}
	return count, nil
}
