package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookSubscription(t *testing.T) {
	env := newTestEnv(t)
	received := make(chan models.InvoiceEvent, 2)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var event models.InvoiceEvent
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		received <- event
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.svc.StartWebhookSubscription(ctx, server.URL)
	require.Eventually(t, func() bool {
		return env.svc.InvoicePubSub.CountListeners(common.TopicOutgoing) == 1
	}, time.Second, 10*time.Millisecond)

	env.svc.InvoicePubSub.Publish(common.TopicIncoming, models.InvoiceEvent{Type: common.TransactionTypeInvoice, PaymentHash: "aa", Status: common.StatusSucceeded})
	env.svc.InvoicePubSub.Publish(common.TopicOutgoing, models.InvoiceEvent{Type: common.TransactionTypePayment, PaymentHash: "bb", Status: common.StatusFailed})

	hashes := map[string]string{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-received:
			hashes[event.PaymentHash] = event.Status
		case <-time.After(time.Second):
			t.Fatal("webhook not called")
		}
	}
	assert.Equal(t, map[string]string{"aa": common.StatusSucceeded, "bb": common.StatusFailed}, hashes)
}
