package spark

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postspark/postspark/db/dbgen"
)

// gateQuerier stubs the gate's three read paths plus the usage upsert.
type gateQuerier struct {
	dbgen.Querier

	subscription  *dbgen.Subscription
	campaignCount int64
	usage         map[string]int32
}

func (g *gateQuerier) GetActiveSubscription(_ context.Context, _ uuid.UUID) (dbgen.Subscription, error) {
	if g.subscription == nil {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	return *g.subscription, nil
}

func (g *gateQuerier) CountCampaignsByUser(_ context.Context, _ uuid.UUID) (int64, error) {
	return g.campaignCount, nil
}

func (g *gateQuerier) GetUsageCount(_ context.Context, arg dbgen.GetUsageCountParams) (int32, error) {
	return g.usage[arg.UsageType], nil
}

func (g *gateQuerier) IncrementUsage(_ context.Context, arg dbgen.IncrementUsageParams) (int32, error) {
	if g.usage == nil {
		g.usage = make(map[string]int32)
	}
	g.usage[arg.UsageType]++
	return g.usage[arg.UsageType], nil
}

func starterSub() *dbgen.Subscription {
	return &dbgen.Subscription{
		Plan:      "starter",
		Status:    "active",
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func TestCheckAndEnforceLimits(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	now := time.Now()

	t.Run("FreeUserUnderCampaignLimitAllowed", func(t *testing.T) {
		q := &gateQuerier{campaignCount: 0}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionCreateCampaign, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, PlanFree, d.Plan)
	})

	t.Run("FreeUserAtCampaignLimitDenied", func(t *testing.T) {
		q := &gateQuerier{campaignCount: 1}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionCreateCampaign, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonCampaignLimit, d.Reason)
	})

	t.Run("FreeUserAtRefreshLimitPitchedSubscription", func(t *testing.T) {
		q := &gateQuerier{usage: map[string]int32{UsageTypeRefresh: 2}}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionRefresh, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoSubscription, d.Reason)
	})

	t.Run("StarterAtRefreshLimitDenied", func(t *testing.T) {
		q := &gateQuerier{
			subscription: starterSub(),
			usage:        map[string]int32{UsageTypeRefresh: 30},
		}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionRefresh, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonRefreshLimit, d.Reason)
		assert.Equal(t, PlanStarter, d.Plan)
		assert.Equal(t, int32(30), d.Used)
		assert.Equal(t, int32(30), d.Limit)
	})

	t.Run("StarterAIReplyLimitDenied", func(t *testing.T) {
		q := &gateQuerier{
			subscription: starterSub(),
			usage:        map[string]int32{UsageTypeAIReply: 100},
		}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionAIReply, now)
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonLimitReached, d.Reason)
	})

	t.Run("ProUnderLimitsAllowed", func(t *testing.T) {
		q := &gateQuerier{
			subscription: &dbgen.Subscription{Plan: "pro", Status: "active", ExpiresAt: time.Now().Add(time.Hour)},
			usage:        map[string]int32{UsageTypeAIReply: 999},
		}
		d, err := CheckAndEnforceLimits(ctx, q, userID, ActionAIReply, now)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, PlanPro, d.Plan)
	})

	t.Run("UnknownActionErrors", func(t *testing.T) {
		q := &gateQuerier{}
		_, err := CheckAndEnforceLimits(ctx, q, userID, GateAction("nope"), now)
		assert.Error(t, err)
	})
}

func TestRecordUsage(t *testing.T) {
	q := &gateQuerier{}
	userID := uuid.New()

	n, err := RecordUsage(context.Background(), q, userID, UsageTypeAIReply, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(1), n)

	n, err = RecordUsage(context.Background(), q, userID, UsageTypeAIReply, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int32(2), n)
}

func TestPeriodStart(t *testing.T) {
	d := PeriodStart(time.Date(2025, time.March, 17, 23, 50, 0, 0, time.UTC))
	require.True(t, d.Valid)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), d.Time)

	// Timezone must not shift the month boundary.
	loc := time.FixedZone("UTC+13", 13*3600)
	d = PeriodStart(time.Date(2025, time.April, 1, 5, 0, 0, 0, loc))
	assert.Equal(t, time.March, d.Time.Month())
}

func TestPlanFromString(t *testing.T) {
	assert.Equal(t, PlanStarter, PlanFromString("starter"))
	assert.Equal(t, PlanPro, PlanFromString("pro"))
	assert.Equal(t, PlanFree, PlanFromString("free"))
	assert.Equal(t, PlanFree, PlanFromString("something-else"))
}
