package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
)

// StartInvoiceRoutine runs the live update fan-out from the configured source.
func (svc *LnpayService) StartInvoiceRoutine(ctx context.Context) (err error) {
	if svc.Config.SubscriptionConsumerType == common.SubscriptionConsumerRabbitMQ && svc.RabbitMQClient != nil {
		svc.Subscription.started(common.SubscriptionConsumerRabbitMQ, svc.now())
		err = svc.RabbitMQClient.SubscribeToLndInvoices(ctx, svc.ProcessInvoiceUpdate)
		svc.Subscription.stopped(err)
	} else {
		err = svc.InvoiceUpdateSubscription(ctx)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// SubscribeIncomingOutgoingInvoices hands out listener channels for the
// RabbitMQ publisher. The listeners are removed when ctx is done.
func (svc *LnpayService) SubscribeIncomingOutgoingInvoices(ctx context.Context) (incoming, outgoing chan models.InvoiceEvent, err error) {
	incoming = make(chan models.InvoiceEvent, 64)
	outgoing = make(chan models.InvoiceEvent, 64)
	incomingId := svc.InvoicePubSub.Subscribe(common.TopicIncoming, incoming)
	outgoingId := svc.InvoicePubSub.Subscribe(common.TopicOutgoing, outgoing)
	go func() {
		<-ctx.Done()
		svc.InvoicePubSub.Unsubscribe(incomingId, common.TopicIncoming)
		svc.InvoicePubSub.Unsubscribe(outgoingId, common.TopicOutgoing)
	}()
	return incoming, outgoing, nil
}

func (svc *LnpayService) EncodeInvoiceEvent(ctx context.Context, w io.Writer, event models.InvoiceEvent) error {
	return json.NewEncoder(w).Encode(event)
}
