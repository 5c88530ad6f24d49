package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/mocks"

	"github.com/postspark/postspark/db/dbgen"
	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/internal/stools"
	"github.com/postspark/postspark/spark"
)

type handlerStubQuerier struct {
	dbgen.Querier
	user          dbgen.User
	campaigns     map[uuid.UUID]dbgen.Campaign
	created       []dbgen.Campaign
	subscription  *dbgen.Subscription
	campaignCount int64
	usage         map[string]int32
	ipnLogs       []dbgen.InsertIPNLogParams
}

func newHandlerStubQuerier() *handlerStubQuerier {
	return &handlerStubQuerier{
		campaigns: make(map[uuid.UUID]dbgen.Campaign),
		usage:     make(map[string]int32),
	}
}

func (q *handlerStubQuerier) UpsertUser(ctx context.Context, email string) (dbgen.User, error) {
	if q.user.ID == uuid.Nil {
		q.user = dbgen.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	}
	return q.user, nil
}

func (q *handlerStubQuerier) GetActiveSubscription(ctx context.Context, userID uuid.UUID) (dbgen.Subscription, error) {
	if q.subscription == nil {
		return dbgen.Subscription{}, pgx.ErrNoRows
	}
	return *q.subscription, nil
}

func (q *handlerStubQuerier) CountCampaignsByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return q.campaignCount, nil
}

func (q *handlerStubQuerier) GetUsageCount(ctx context.Context, arg dbgen.GetUsageCountParams) (int32, error) {
	return q.usage[arg.UsageType], nil
}

func (q *handlerStubQuerier) CreateCampaign(ctx context.Context, arg dbgen.CreateCampaignParams) (dbgen.Campaign, error) {
	c := dbgen.Campaign{
		ID:         uuid.New(),
		UserID:     arg.UserID,
		Name:       arg.Name,
		Offer:      arg.Offer,
		WebsiteUrl: arg.WebsiteUrl,
		Keywords:   arg.Keywords,
		Subreddits: arg.Subreddits,
		Status:     "active",
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	q.campaigns[c.ID] = c
	q.created = append(q.created, c)
	return c, nil
}

func (q *handlerStubQuerier) GetCampaign(ctx context.Context, id uuid.UUID) (dbgen.Campaign, error) {
	c, ok := q.campaigns[id]
	if !ok {
		return dbgen.Campaign{}, pgx.ErrNoRows
	}
	return c, nil
}

func (q *handlerStubQuerier) GetSubscriptionByOrderID(ctx context.Context, orderID string) (dbgen.Subscription, error) {
	return dbgen.Subscription{}, pgx.ErrNoRows
}

func (q *handlerStubQuerier) UpsertSubscription(ctx context.Context, arg dbgen.UpsertSubscriptionParams) (dbgen.Subscription, error) {
	sub := dbgen.Subscription{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		Plan:            arg.Plan,
		Status:          "active",
		ExternalOrderID: arg.ExternalOrderID,
		ExpiresAt:       arg.ExpiresAt,
	}
	q.subscription = &sub
	return sub, nil
}

func (q *handlerStubQuerier) CancelSubscriptionByOrderID(ctx context.Context, orderID string) (int64, error) {
	return 0, nil
}

func (q *handlerStubQuerier) InsertIPNLog(ctx context.Context, arg dbgen.InsertIPNLogParams) error {
	q.ipnLogs = append(q.ipnLogs, arg)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// authedRequest builds a request carrying JWT claims the way the bearer
// authorizer would after validating a token.
func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	r := httptest.NewRequest(method, target, body)
	claims := &authJWTClaims{
		StandardClaims: jwt.StandardClaims{ExpiresAt: time.Now().Add(time.Hour).Unix()},
		Email:          "user@example.com",
		UserID:         userID.String(),
		Status:         int(UserStatusSudo),
	}
	return r.WithContext(context.WithValue(r.Context(), ctxKeyJWT, claims))
}

func TestHandleIssueToken(t *testing.T) {
	t.Setenv(EnvServerSecretKey, "test-secret")
	querier := newHandlerStubQuerier()

	h := stools.AdaptHandler(
		handleIssueToken(discardLogger(), querier),
		atLeastOneAuth(oauthAuthorizerForm(getSecretKey)),
	)

	form := url.Values{}
	form.Set("username", "new@example.com")
	form.Set("password", "test-secret")
	r := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.TokenResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, "new@example.com", querier.user.Email)

	// the issued token must round-trip through the bearer authorizer
	var claims authJWTClaims
	token, err := jwt.ParseWithClaims(resp.AccessToken, &claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, token.Valid)
	assert.Equal(t, int(UserStatusSudo), claims.Status)
	assert.Equal(t, querier.user.ID.String(), claims.UserID)
}

func TestHandleIssueTokenBadSecret(t *testing.T) {
	t.Setenv(EnvServerSecretKey, "test-secret")
	h := stools.AdaptHandler(
		handleIssueToken(discardLogger(), newHandlerStubQuerier()),
		atLeastOneAuth(oauthAuthorizerForm(getSecretKey)),
	)

	form := url.Values{}
	form.Set("username", "new@example.com")
	form.Set("password", "wrong")
	r := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleCreateCampaign(t *testing.T) {
	userID := uuid.New()
	body, _ := json.Marshal(api.CreateCampaignRequest{
		Name:     "My SaaS",
		Offer:    "free trial",
		Keywords: []string{"project management"},
	})

	t.Run("Created", func(t *testing.T) {
		querier := newHandlerStubQuerier()
		w := httptest.NewRecorder()
		handleCreateCampaign(discardLogger(), querier)(w, authedRequest(http.MethodPost, "/campaigns", bytes.NewReader(body), userID))

		require.Equal(t, http.StatusCreated, w.Code)
		var resp api.CampaignResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "My SaaS", resp.Name)
		assert.Equal(t, "active", resp.Status)
		require.Len(t, querier.created, 1)
		assert.Equal(t, userID, querier.created[0].UserID)
	})

	t.Run("FreeTierAtCampaignLimit", func(t *testing.T) {
		querier := newHandlerStubQuerier()
		querier.campaignCount = 1
		w := httptest.NewRecorder()
		handleCreateCampaign(discardLogger(), querier)(w, authedRequest(http.MethodPost, "/campaigns", bytes.NewReader(body), userID))

		require.Equal(t, http.StatusPaymentRequired, w.Code)
		var resp api.PaywallResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, string(spark.ReasonCampaignLimit), resp.Reason)
		assert.Equal(t, string(spark.PlanFree), resp.Plan)
		assert.Empty(t, querier.created)
	})

	t.Run("MissingKeywords", func(t *testing.T) {
		bad, _ := json.Marshal(api.CreateCampaignRequest{Name: "My SaaS"})
		w := httptest.NewRecorder()
		handleCreateCampaign(discardLogger(), newHandlerStubQuerier())(w, authedRequest(http.MethodPost, "/campaigns", bytes.NewReader(bad), userID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleGetCampaignOwnership(t *testing.T) {
	owner := uuid.New()
	stranger := uuid.New()
	querier := newHandlerStubQuerier()
	campaign := dbgen.Campaign{ID: uuid.New(), UserID: owner, Name: "Mine", Status: "active"}
	querier.campaigns[campaign.ID] = campaign

	t.Run("OwnerSees", func(t *testing.T) {
		r := authedRequest(http.MethodGet, "/campaigns/"+campaign.ID.String(), nil, owner)
		r.SetPathValue("id", campaign.ID.String())
		w := httptest.NewRecorder()
		handleGetCampaign(discardLogger(), querier)(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("StrangerGets404", func(t *testing.T) {
		r := authedRequest(http.MethodGet, "/campaigns/"+campaign.ID.String(), nil, stranger)
		r.SetPathValue("id", campaign.ID.String())
		w := httptest.NewRecorder()
		handleGetCampaign(discardLogger(), querier)(w, r)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("BadID", func(t *testing.T) {
		r := authedRequest(http.MethodGet, "/campaigns/nope", nil, owner)
		r.SetPathValue("id", "nope")
		w := httptest.NewRecorder()
		handleGetCampaign(discardLogger(), querier)(w, r)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleRefreshCampaign(t *testing.T) {
	userID := uuid.New()
	querier := newHandlerStubQuerier()
	campaign := dbgen.Campaign{ID: uuid.New(), UserID: userID, Name: "Mine", Status: "active"}
	querier.campaigns[campaign.ID] = campaign

	mockClient := &mocks.Client{}
	mockRun := &mocks.WorkflowRun{}
	mockClient.On("ExecuteWorkflow", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(mockRun, nil)

	r := authedRequest(http.MethodPost, "/campaigns/"+campaign.ID.String()+"/refresh", nil, userID)
	r.SetPathValue("id", campaign.ID.String())
	w := httptest.NewRecorder()
	handleRefreshCampaign(discardLogger(), querier, mockClient)(w, r)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp api.RefreshCampaignResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Contains(t, resp.WorkflowID, "campaign-refresh-"+campaign.ID.String())
	mockClient.AssertExpectations(t)
}

func TestHandleRefreshCampaignAtLimit(t *testing.T) {
	userID := uuid.New()
	querier := newHandlerStubQuerier()
	campaign := dbgen.Campaign{ID: uuid.New(), UserID: userID, Name: "Mine", Status: "active"}
	querier.campaigns[campaign.ID] = campaign
	// free plan allows 2 refreshes per month
	querier.usage[spark.UsageTypeRefresh] = 2

	mockClient := &mocks.Client{}

	r := authedRequest(http.MethodPost, "/campaigns/"+campaign.ID.String()+"/refresh", nil, userID)
	r.SetPathValue("id", campaign.ID.String())
	w := httptest.NewRecorder()
	handleRefreshCampaign(discardLogger(), querier, mockClient)(w, r)

	require.Equal(t, http.StatusPaymentRequired, w.Code)
	var resp api.PaywallResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(spark.ReasonNoSubscription), resp.Reason)
	mockClient.AssertNotCalled(t, "ExecuteWorkflow")
}

func TestHandlePaymentWebhookAlwaysOK(t *testing.T) {
	querier := newHandlerStubQuerier()
	processor := spark.NewPaymentProcessor(discardLogger(), querier, "digistore", map[string]string{"prod_1": "starter"})
	h := handlePaymentWebhook(discardLogger(), processor)

	t.Run("UnknownEventType", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(`{"event_type":"mystery","email":"a@b.com"}`))
		w := httptest.NewRecorder()
		h(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.WebhookResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.False(t, resp.Success)
		require.Len(t, querier.ipnLogs, 1)
	})

	t.Run("PaymentGrantsSubscription", func(t *testing.T) {
		payload := `{"event_type":"payment","email":"a@b.com","order_id":"ord-1","product_id":"prod_1"}`
		r := httptest.NewRequest(http.MethodPost, "/webhooks/payment", strings.NewReader(payload))
		w := httptest.NewRecorder()
		h(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var resp api.WebhookResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		require.NotNil(t, querier.subscription)
		assert.Equal(t, "starter", querier.subscription.Plan)
		assert.Equal(t, "ord-1", querier.subscription.ExternalOrderID)
	})
}

func TestHandlePaymentWebhookForm(t *testing.T) {
	querier := newHandlerStubQuerier()
	processor := spark.NewPaymentProcessor(discardLogger(), querier, "digistore", nil)
	h := handlePaymentWebhookForm(discardLogger(), processor)

	form := url.Values{}
	form.Set("event", "refund")
	form.Set("email", "a@b.com")
	form.Set("order_id", "ord-404")
	r := httptest.NewRequest(http.MethodPost, "/webhooks/payment/legacy", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp api.WebhookResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, string(spark.EventRefund), resp.EventType)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(time.Minute, 2)
	assert.True(t, rl.isAllowed("a"))
	assert.True(t, rl.isAllowed("a"))
	assert.False(t, rl.isAllowed("a"))
	// other keys are unaffected
	assert.True(t, rl.isAllowed("b"))
}

func TestRequireStatus(t *testing.T) {
	called := false
	h := requireStatus(UserStatusSudo)(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	claims := &authJWTClaims{Status: int(UserStatusDefault)}
	r = r.WithContext(context.WithValue(r.Context(), ctxKeyJWT, claims))
	w := httptest.NewRecorder()
	h(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
