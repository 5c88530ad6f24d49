package spark

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/postspark/postspark/db/dbgen"
)

// Payment event kinds, normalized from the processor's various spellings.
type EventKind string

const (
	EventPayment       EventKind = "on_payment"
	EventRebillResumed EventKind = "on_rebill_resumed"
	EventRebillCancel  EventKind = "on_rebill_cancelled"
	EventRefund        EventKind = "on_refund"
	EventChargeback    EventKind = "on_chargeback"
	EventLastPaidDay   EventKind = "last_paid_day"
	EventPaymentDenial EventKind = "payment_denial"
)

// WebhookResult is the body returned for every IPN, success or not. The
// HTTP status is always 200 so the processor does not retry storms at us.
type WebhookResult struct {
	Success   bool   `json:"success"`
	EventType string `json:"event_type"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ipnPayload is a loosely typed view of an IPN body. The processor renames
// fields between event kinds, so every logical field has alias keys.
type ipnPayload map[string]interface{}

func (p ipnPayload) firstString(keys ...string) string {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return fmt.Sprintf("%.0f", s)
			case json.Number:
				return s.String()
			}
		}
	}
	return ""
}

func (p ipnPayload) email() string {
	return strings.ToLower(strings.TrimSpace(p.firstString("email", "buyer_email", "customer_email")))
}

func (p ipnPayload) orderID() string {
	return p.firstString("order_id", "orderId", "order_id_digi", "order_number")
}

func (p ipnPayload) productID() string {
	return p.firstString("product_id", "productId", "product", "item_id")
}

// resolveEventType walks the processor's field aliases for the event name,
// then falls back to inferring one from the payment status fields.
func resolveEventType(p ipnPayload) (EventKind, bool) {
	raw := p.firstString("event_type", "event", "action", "type")
	if raw != "" {
		switch normalizeEventName(raw) {
		case EventPayment:
			return EventPayment, true
		case EventRebillResumed:
			return EventRebillResumed, true
		case EventRebillCancel:
			return EventRebillCancel, true
		case EventRefund:
			return EventRefund, true
		case EventChargeback:
			return EventChargeback, true
		case EventLastPaidDay:
			return EventLastPaidDay, true
		case EventPaymentDenial:
			return EventPaymentDenial, true
		}
		// A named but unrecognized event never defaults to payment.
		return EventKind(raw), false
	}

	switch strings.ToLower(p.firstString("status", "payment_status")) {
	case "completed", "paid", "success", "succeeded":
		return EventPayment, true
	case "refunded":
		return EventRefund, true
	case "cancelled", "canceled":
		return EventRebillCancel, true
	case "denied", "failed":
		return EventPaymentDenial, true
	}

	// No event name and no status: treat as payment, but grants below
	// still require a resolvable product mapping.
	return EventPayment, true
}

func normalizeEventName(raw string) EventKind {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "-", "_")
	switch s {
	case "on_payment", "payment", "sale", "order_completed", "subscription_payment":
		return EventPayment
	case "on_rebill_resumed", "rebill_resumed", "subscription_resumed":
		return EventRebillResumed
	case "on_rebill_cancelled", "on_rebill_canceled", "rebill_cancelled", "subscription_cancelled", "subscription_canceled", "cancel":
		return EventRebillCancel
	case "on_refund", "refund", "refunded":
		return EventRefund
	case "on_chargeback", "chargeback":
		return EventChargeback
	case "last_paid_day", "subscription_expired":
		return EventLastPaidDay
	case "payment_denial", "payment_denied", "rebill_denied":
		return EventPaymentDenial
	}
	return EventKind(s)
}

// ParseProductPlanMap parses the PRODUCT_PLAN_MAP env value, a
// comma-separated list of productID=planTier pairs.
func ParseProductPlanMap(raw string) (map[string]string, error) {
	m := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return m, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("malformed product plan mapping: %q", pair)
		}
		m[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}
	return m, nil
}

// PaymentProcessor processes normalized IPN events against the database.
type PaymentProcessor struct {
	logger       *slog.Logger
	querier      dbgen.Querier
	provider     string
	productPlans map[string]string
}

func NewPaymentProcessor(logger *slog.Logger, q dbgen.Querier, provider string, productPlans map[string]string) *PaymentProcessor {
	return &PaymentProcessor{logger: logger, querier: q, provider: provider, productPlans: productPlans}
}

// ProcessEvent handles one raw IPN body. It never returns an error to the
// caller; all failures are absorbed into the result and logged, with a
// best-effort audit row written regardless of outcome.
func (pp *PaymentProcessor) ProcessEvent(ctx context.Context, body []byte) WebhookResult {
	var payload ipnPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		res := WebhookResult{Success: false, Error: "invalid JSON payload"}
		pp.logIPN(ctx, body, res)
		return res
	}

	kind, recognized := resolveEventType(payload)
	res := WebhookResult{EventType: string(kind)}

	plan, hasPlan := pp.productPlans[payload.productID()]
	if !recognized && !hasPlan {
		res.Error = "Unknown event type"
		pp.logger.Warn("unknown IPN event type",
			"event_type", kind, "order_id", payload.orderID())
		pp.logIPN(ctx, body, res)
		return res
	}
	if !recognized {
		// Unrecognized name but a known product: treat as a payment.
		kind = EventPayment
		res.EventType = string(kind)
	}

	var err error
	switch kind {
	case EventPayment, EventRebillResumed:
		if !hasPlan {
			err = fmt.Errorf("no plan mapping for product %q", payload.productID())
			break
		}
		res.Result, err = pp.grantSubscription(ctx, payload, plan)
	case EventRebillCancel, EventRefund, EventChargeback, EventLastPaidDay, EventPaymentDenial:
		res.Result, err = pp.cancelSubscription(ctx, payload)
	}

	if err != nil {
		res.Error = err.Error()
		pp.logger.Error("failed to process IPN event",
			"event_type", kind, "order_id", payload.orderID(), "error", err)
	} else {
		res.Success = true
	}
	pp.logIPN(ctx, body, res)
	return res
}

// grantSubscription creates or renews the subscription tied to an order.
// Renewals extend one month from whichever is later, now or the existing
// expiry, so early rebills do not shorten the paid period.
func (pp *PaymentProcessor) grantSubscription(ctx context.Context, payload ipnPayload, plan string) (string, error) {
	email := payload.email()
	if email == "" {
		return "", fmt.Errorf("payment event missing buyer email")
	}
	orderID := payload.orderID()
	if orderID == "" {
		return "", fmt.Errorf("payment event missing order id")
	}

	user, err := pp.querier.UpsertUser(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to upsert user: %w", err)
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 1, 0)
	if existing, err := pp.querier.GetSubscriptionByOrderID(ctx, orderID); err == nil {
		if existing.ExpiresAt.After(now) {
			expiresAt = existing.ExpiresAt.AddDate(0, 1, 0)
		}
	}

	sub, err := pp.querier.UpsertSubscription(ctx, dbgen.UpsertSubscriptionParams{
		UserID:          user.ID,
		Plan:            plan,
		ExternalOrderID: orderID,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert subscription: %w", err)
	}

	pp.logger.Info("subscription granted",
		"user_id", user.ID, "plan", sub.Plan, "order_id", orderID, "expires_at", sub.ExpiresAt)
	return fmt.Sprintf("subscription %s active until %s", sub.Plan, sub.ExpiresAt.Format(time.RFC3339)), nil
}

func (pp *PaymentProcessor) cancelSubscription(ctx context.Context, payload ipnPayload) (string, error) {
	orderID := payload.orderID()
	if orderID == "" {
		return "", fmt.Errorf("cancellation event missing order id")
	}
	n, err := pp.querier.CancelSubscriptionByOrderID(ctx, orderID)
	if err != nil {
		return "", fmt.Errorf("failed to cancel subscription: %w", err)
	}
	if n == 0 {
		// Cancellation for an order we never saw. Not an error; the
		// audit row is enough.
		pp.logger.Warn("cancellation for unknown order", "order_id", orderID)
		return "no matching subscription", nil
	}
	pp.logger.Info("subscription cancelled", "order_id", orderID)
	return "subscription cancelled", nil
}

// logIPN writes the audit row. Failures here are logged and swallowed so
// audit problems never affect the webhook response.
func (pp *PaymentProcessor) logIPN(ctx context.Context, body []byte, res WebhookResult) {
	result := res.Result
	if res.Error != "" {
		result = res.Error
	}
	err := pp.querier.InsertIPNLog(ctx, dbgen.InsertIPNLogParams{
		Provider:  pp.provider,
		EventType: res.EventType,
		Payload:   body,
		Success:   res.Success,
		Result:    result,
	})
	if err != nil {
		pp.logger.Error("failed to write IPN log row", "error", err)
	}
}
