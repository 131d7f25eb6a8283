package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
)

var webhookClient = &http.Client{Timeout: 10 * time.Second}

func (svc *LnpayService) StartWebhookSubscription(ctx context.Context, url string) {
	svc.Logger.Infof("Starting webhook subscription with webhook url %s", url)
	incoming := make(chan models.InvoiceEvent, 16)
	outgoing := make(chan models.InvoiceEvent, 16)
	incomingId := svc.InvoicePubSub.Subscribe(common.TopicIncoming, incoming)
	outgoingId := svc.InvoicePubSub.Subscribe(common.TopicOutgoing, outgoing)
	defer svc.InvoicePubSub.Unsubscribe(incomingId, common.TopicIncoming)
	defer svc.InvoicePubSub.Unsubscribe(outgoingId, common.TopicOutgoing)
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-incoming:
			svc.postToWebhook(ctx, event, url)
		case event := <-outgoing:
			svc.postToWebhook(ctx, event, url)
		}
	}
}

func (svc *LnpayService) postToWebhook(ctx context.Context, event models.InvoiceEvent, url string) {
	payload := new(bytes.Buffer)
	err := json.NewEncoder(payload).Encode(event)
	if err != nil {
		svc.Logger.Error(err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := webhookClient.Do(req)
	if err != nil {
		svc.Logger.Error(err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			svc.Logger.Error(err)
		}
		svc.Logger.Errorf("Webhook status code was %d, body: %s", resp.StatusCode, msg)
	}
}
