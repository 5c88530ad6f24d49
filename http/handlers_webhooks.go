package http

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/postspark/postspark/http/api"
	"github.com/postspark/postspark/spark"
)

// handlePaymentWebhook receives JSON IPN callbacks from the payment
// provider. It always responds 200 so the provider does not retry
// events we have already recorded as failed.
func handlePaymentWebhook(l *slog.Logger, processor *spark.PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			l.Error("failed to read webhook body", "error", err)
			writeJSONResponse(w, api.WebhookResponse{Success: false, Error: "failed to read request body"}, http.StatusOK)
			return
		}

		res := processor.ProcessEvent(r.Context(), body)
		writeJSONResponse(w, api.WebhookResponse{
			Success:   res.Success,
			EventType: res.EventType,
			Result:    res.Result,
			Error:     res.Error,
		}, http.StatusOK)
	}
}

// handlePaymentWebhookForm accepts the provider's legacy form-encoded IPN
// format and funnels it through the same processor as the JSON endpoint.
func handlePaymentWebhookForm(l *slog.Logger, processor *spark.PaymentProcessor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			l.Error("failed to parse webhook form", "error", err)
			writeJSONResponse(w, api.WebhookResponse{Success: false, Error: "failed to parse form body"}, http.StatusOK)
			return
		}

		fields := make(map[string]string, len(r.PostForm))
		for k, vs := range r.PostForm {
			if len(vs) > 0 {
				fields[k] = vs[0]
			}
		}
		body, err := json.Marshal(fields)
		if err != nil {
			writeJSONResponse(w, api.WebhookResponse{Success: false, Error: fmt.Sprintf("failed to encode form fields: %v", err)}, http.StatusOK)
			return
		}

		res := processor.ProcessEvent(r.Context(), body)
		writeJSONResponse(w, api.WebhookResponse{
			Success:   res.Success,
			EventType: res.EventType,
			Result:    res.Result,
			Error:     res.Error,
		}, http.StatusOK)
	}
}
