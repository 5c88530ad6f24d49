package spark

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/postspark/postspark/db/dbgen"
)

// stubQuerier embeds the Querier interface so each test overrides only the
// methods it expects to be called.
type stubQuerier struct {
	dbgen.Querier

	users         map[string]dbgen.User
	subscriptions map[string]dbgen.Subscription
	ipnLogs       []dbgen.InsertIPNLogParams
	cancelled     []string
}

func newStubQuerier() *stubQuerier {
	return &stubQuerier{
		users:         make(map[string]dbgen.User),
		subscriptions: make(map[string]dbgen.Subscription),
	}
}

func (s *stubQuerier) UpsertUser(_ context.Context, email string) (dbgen.User, error) {
	if u, ok := s.users[email]; ok {
		return u, nil
	}
	u := dbgen.User{ID: uuid.New(), Email: email, CreatedAt: time.Now()}
	s.users[email] = u
	return u, nil
}

func (s *stubQuerier) GetSubscriptionByOrderID(_ context.Context, orderID string) (dbgen.Subscription, error) {
	if sub, ok := s.subscriptions[orderID]; ok {
		return sub, nil
	}
	return dbgen.Subscription{}, pgx.ErrNoRows
}

func (s *stubQuerier) UpsertSubscription(_ context.Context, arg dbgen.UpsertSubscriptionParams) (dbgen.Subscription, error) {
	sub := dbgen.Subscription{
		ID:              uuid.New(),
		UserID:          arg.UserID,
		Plan:            arg.Plan,
		Status:          "active",
		ExternalOrderID: arg.ExternalOrderID,
		ExpiresAt:       arg.ExpiresAt,
	}
	s.subscriptions[arg.ExternalOrderID] = sub
	return sub, nil
}

func (s *stubQuerier) CancelSubscriptionByOrderID(_ context.Context, orderID string) (int64, error) {
	s.cancelled = append(s.cancelled, orderID)
	if _, ok := s.subscriptions[orderID]; !ok {
		return 0, nil
	}
	return 1, nil
}

func (s *stubQuerier) InsertIPNLog(_ context.Context, arg dbgen.InsertIPNLogParams) error {
	s.ipnLogs = append(s.ipnLogs, arg)
	return nil
}

func newTestProcessor(q dbgen.Querier) *PaymentProcessor {
	return NewPaymentProcessor(testLogger(), q, "testpay", map[string]string{
		"prod_starter": "starter",
		"prod_pro":     "pro",
	})
}

func TestProcessEventinferredPayment(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	// No event_type field at all; status says completed.
	body := []byte(`{"status":"completed","email":"buyer@example.com","order_id":"ord-1","product_id":"prod_starter"}`)
	res := pp.ProcessEvent(context.Background(), body)

	assert.True(t, res.Success)
	assert.Equal(t, string(EventPayment), res.EventType)
	require.Contains(t, q.subscriptions, "ord-1")
	assert.Equal(t, "starter", q.subscriptions["ord-1"].Plan)
	require.Len(t, q.ipnLogs, 1)
	assert.True(t, q.ipnLogs[0].Success)
}

func TestProcessEventUnknownType(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	body := []byte(`{"event_type":"mystery_event","order_id":"ord-2"}`)
	res := pp.ProcessEvent(context.Background(), body)

	assert.False(t, res.Success)
	assert.Equal(t, "Unknown event type", res.Error)
	assert.Empty(t, q.subscriptions)
	require.Len(t, q.ipnLogs, 1)
	assert.False(t, q.ipnLogs[0].Success)
}

func TestProcessEventUnknownTypeWithKnownProduct(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	// Unrecognized event name but a mapped product: treated as a payment.
	body := []byte(`{"event_type":"mystery_event","email":"buyer@example.com","orderId":"ord-3","product_id":"prod_pro"}`)
	res := pp.ProcessEvent(context.Background(), body)

	assert.True(t, res.Success)
	assert.Equal(t, string(EventPayment), res.EventType)
	assert.Equal(t, "pro", q.subscriptions["ord-3"].Plan)
}

func TestProcessEventRenewalExtendsExpiry(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	existing := time.Now().UTC().AddDate(0, 0, 10)
	q.subscriptions["ord-4"] = dbgen.Subscription{
		UserID:          uuid.New(),
		Plan:            "starter",
		Status:          "active",
		ExternalOrderID: "ord-4",
		ExpiresAt:       existing,
	}

	body := []byte(`{"event_type":"on_payment","email":"buyer@example.com","order_id_digi":"ord-4","product_id":"prod_starter"}`)
	res := pp.ProcessEvent(context.Background(), body)

	require.True(t, res.Success)
	// Early rebill extends from the existing expiry, not from now.
	assert.WithinDuration(t, existing.AddDate(0, 1, 0), q.subscriptions["ord-4"].ExpiresAt, time.Minute)
}

func TestProcessEventCancellations(t *testing.T) {
	for _, eventType := range []string{"on_refund", "on_chargeback", "on_rebill_cancelled", "last_paid_day", "payment_denial"} {
		t.Run(eventType, func(t *testing.T) {
			q := newStubQuerier()
			q.subscriptions["ord-5"] = dbgen.Subscription{ExternalOrderID: "ord-5", Status: "active"}
			pp := newTestProcessor(q)

			body := []byte(`{"event_type":"` + eventType + `","order_id":"ord-5"}`)
			res := pp.ProcessEvent(context.Background(), body)

			assert.True(t, res.Success)
			assert.Equal(t, []string{"ord-5"}, q.cancelled)
		})
	}
}

func TestProcessEventPaymentMissingEmail(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	body := []byte(`{"status":"completed","order_id":"ord-6","product_id":"prod_starter"}`)
	res := pp.ProcessEvent(context.Background(), body)

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "missing buyer email")
	require.Len(t, q.ipnLogs, 1)
}

func TestProcessEventInvalidJSON(t *testing.T) {
	q := newStubQuerier()
	pp := newTestProcessor(q)

	res := pp.ProcessEvent(context.Background(), []byte("not json"))
	assert.False(t, res.Success)
	assert.Equal(t, "invalid JSON payload", res.Error)
	require.Len(t, q.ipnLogs, 1)
}

func TestResolveEventType(t *testing.T) {
	cases := []struct {
		name       string
		payload    string
		want       EventKind
		recognized bool
	}{
		{"explicit", `{"event_type":"on_payment"}`, EventPayment, true},
		{"aliasEvent", `{"event":"refund"}`, EventRefund, true},
		{"aliasAction", `{"action":"chargeback"}`, EventChargeback, true},
		{"aliasType", `{"type":"subscription_cancelled"}`, EventRebillCancel, true},
		{"statusInferred", `{"status":"paid"}`, EventPayment, true},
		{"paymentStatusInferred", `{"payment_status":"refunded"}`, EventRefund, true},
		{"deniedStatus", `{"status":"failed"}`, EventPaymentDenial, true},
		{"unknownNamed", `{"event_type":"mystery"}`, EventKind("mystery"), false},
		{"emptyDefaults", `{}`, EventPayment, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p ipnPayload
			require.NoError(t, json.Unmarshal([]byte(tc.payload), &p))
			kind, recognized := resolveEventType(p)
			assert.Equal(t, tc.want, kind)
			assert.Equal(t, tc.recognized, recognized)
		})
	}
}

func TestParseProductPlanMap(t *testing.T) {
	m, err := ParseProductPlanMap("prod_1=starter, prod_2=pro")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"prod_1": "starter", "prod_2": "pro"}, m)

	m, err = ParseProductPlanMap("")
	require.NoError(t, err)
	assert.Empty(t, m)

	_, err = ParseProductPlanMap("garbage")
	assert.Error(t, err)
}
