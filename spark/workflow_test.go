package spark

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/postspark/postspark/db/dbgen"
)

func TestCampaignRefreshWorkflow(t *testing.T) {
	t.Setenv("ENV", "test")
	campaignID := uuid.New()
	userID := uuid.New()

	activeCampaign := &dbgen.Campaign{
		ID:       campaignID,
		UserID:   userID,
		Name:     "Test Campaign",
		Offer:    "sales pipeline tooling",
		Keywords: []string{"crm"},
		Status:   "active",
	}

	t.Run("HappyPath", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		activities, err := NewActivities(newStubQuerier())
		require.NoError(t, err)

		env.RegisterActivity(activities.GetCampaignInfo)
		env.RegisterActivity(activities.ScanCampaignLeads)
		env.RegisterActivity(activities.PersistLeads)
		env.RegisterActivity(activities.RecordRefreshUsage)

		scan := &ScanResult{
			Posts: []ScoredPost{
				{Post: RedditPost{ID: "p1", Title: "crm help"}, Score: 50},
				{Post: RedditPost{ID: "p2", Title: "best crm"}, Score: 55},
			},
			RateLimited: true,
		}

		env.OnActivity(activities.GetCampaignInfo, mock.Anything, campaignID).Return(activeCampaign, nil)
		env.OnActivity(activities.ScanCampaignLeads, mock.Anything, ScanInput{
			Keywords: activeCampaign.Keywords,
			Offer:    activeCampaign.Offer,
		}).Return(scan, nil)
		env.OnActivity(activities.PersistLeads, mock.Anything, PersistLeadsInput{
			CampaignID: campaignID,
			Posts:      scan.Posts,
		}).Return(int64(2), nil)
		env.OnActivity(activities.RecordRefreshUsage, mock.Anything, userID).Return(nil)

		env.ExecuteWorkflow(CampaignRefreshWorkflow, CampaignRefreshWorkflowInput{
			CampaignID:  campaignID,
			RecordUsage: true,
		})
		require.NoError(t, env.GetWorkflowError())

		var result CampaignRefreshResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, int64(2), result.NewLeads)
		assert.Equal(t, 2, result.TotalPosts)
		assert.True(t, result.RateLimited)
	})

	t.Run("InactiveCampaignSkipsScan", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		activities, err := NewActivities(newStubQuerier())
		require.NoError(t, err)

		env.RegisterActivity(activities.GetCampaignInfo)
		env.RegisterActivity(activities.ScanCampaignLeads)

		paused := *activeCampaign
		paused.Status = "paused"
		env.OnActivity(activities.GetCampaignInfo, mock.Anything, campaignID).Return(&paused, nil)

		env.ExecuteWorkflow(CampaignRefreshWorkflow, CampaignRefreshWorkflowInput{CampaignID: campaignID})
		require.NoError(t, env.GetWorkflowError())

		var result CampaignRefreshResult
		require.NoError(t, env.GetWorkflowResult(&result))
		assert.Equal(t, int64(0), result.NewLeads)
		env.AssertNotCalled(t, "ScanCampaignLeads", mock.Anything, mock.Anything)
	})

	t.Run("BackgroundRefreshSkipsUsage", func(t *testing.T) {
		testSuite := &testsuite.WorkflowTestSuite{}
		env := testSuite.NewTestWorkflowEnvironment()

		activities, err := NewActivities(newStubQuerier())
		require.NoError(t, err)

		env.RegisterActivity(activities.GetCampaignInfo)
		env.RegisterActivity(activities.ScanCampaignLeads)
		env.RegisterActivity(activities.PersistLeads)
		env.RegisterActivity(activities.RecordRefreshUsage)

		env.OnActivity(activities.GetCampaignInfo, mock.Anything, campaignID).Return(activeCampaign, nil)
		env.OnActivity(activities.ScanCampaignLeads, mock.Anything, mock.Anything).Return(&ScanResult{}, nil)

		env.ExecuteWorkflow(CampaignRefreshWorkflow, CampaignRefreshWorkflowInput{
			CampaignID:  campaignID,
			RecordUsage: false,
		})
		require.NoError(t, env.GetWorkflowError())
		env.AssertNotCalled(t, "RecordRefreshUsage", mock.Anything, mock.Anything)
	})
}

func TestRefreshActiveCampaignsWorkflow(t *testing.T) {
	t.Setenv("ENV", "test")
	testSuite := &testsuite.WorkflowTestSuite{}
	env := testSuite.NewTestWorkflowEnvironment()

	activities, err := NewActivities(newStubQuerier())
	require.NoError(t, err)

	ids := []uuid.UUID{uuid.New(), uuid.New()}

	env.RegisterActivity(activities.ListActiveCampaignIDs)
	env.RegisterWorkflow(CampaignRefreshWorkflow)
	env.RegisterActivity(activities.GetCampaignInfo)
	env.RegisterActivity(activities.ScanCampaignLeads)
	env.RegisterActivity(activities.PersistLeads)

	env.OnActivity(activities.ListActiveCampaignIDs, mock.Anything).Return(ids, nil)
	for _, id := range ids {
		env.OnActivity(activities.GetCampaignInfo, mock.Anything, id).Return(&dbgen.Campaign{
			ID:       id,
			UserID:   uuid.New(),
			Keywords: []string{"crm"},
			Status:   "active",
		}, nil)
	}
	env.OnActivity(activities.ScanCampaignLeads, mock.Anything, mock.Anything).Return(&ScanResult{}, nil)

	env.ExecuteWorkflow(RefreshActiveCampaignsWorkflow)
	assert.NoError(t, env.GetWorkflowError())
}
