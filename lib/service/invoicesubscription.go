package service

import (
	"context"
	"encoding/hex"
	"sync"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"
)

// SubscriptionState records the health of the node invoice stream.
type SubscriptionState struct {
	mu          sync.RWMutex
	running     bool
	source      string
	startedAt   time.Time
	lastEventAt time.Time
	lastError   string
	events      int64
}

type SubscriptionStatus struct {
	Running     bool       `json:"running"`
	Source      string     `json:"source,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	LastEventAt *time.Time `json:"last_event_at,omitempty"`
	LastError   string     `json:"last_error,omitempty"`
	Events      int64      `json:"events"`
}

func (s *SubscriptionState) started(source string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.source = source
	s.startedAt = at
	s.lastError = ""
}

func (s *SubscriptionState) received(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events++
	s.lastEventAt = at
}

func (s *SubscriptionState) stopped(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if err != nil {
		s.lastError = err.Error()
	}
}

func (s *SubscriptionState) Status() SubscriptionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := SubscriptionStatus{
		Running:   s.running,
		Source:    s.source,
		LastError: s.lastError,
		Events:    s.events,
	}
	if !s.startedAt.IsZero() {
		startedAt := s.startedAt
		status.StartedAt = &startedAt
	}
	if !s.lastEventAt.IsZero() {
		lastEventAt := s.lastEventAt
		status.LastEventAt = &lastEventAt
	}
	return status
}

// InvoiceUpdateSubscription republishes the receiving node's invoice updates
// to the incoming topic until ctx is done or the stream fails. A failed
// stream is reported and not re-established.
func (svc *LnpayService) InvoiceUpdateSubscription(ctx context.Context) error {
	nodeName, client, err := svc.node("", svc.Nodes.Receiver())
	if err != nil {
		return err
	}
	svc.Logger.Infof("Starting invoice subscription on node %s", nodeName)
	stream, err := client.SubscribeInvoices(ctx, &lnrpc.InvoiceSubscription{})
	if err != nil {
		svc.Subscription.stopped(err)
		sentry.CaptureException(err)
		return wrapNodeError(nodeName, err)
	}
	svc.Subscription.started(common.SubscriptionConsumerGRPC, svc.now())
	for {
		rawInvoice, err := stream.Recv()
		if ctx.Err() != nil {
			svc.Subscription.stopped(nil)
			return ctx.Err()
		}
		if err != nil {
			svc.Logger.Errorf("Error processing invoice update subscription: %v", err)
			sentry.CaptureException(err)
			svc.Subscription.stopped(err)
			return err
		}
		if err := svc.ProcessInvoiceUpdate(ctx, rawInvoice); err != nil {
			svc.Logger.Errorf("Error processing invoice update: r_hash:%s %v", hex.EncodeToString(rawInvoice.RHash), err)
		}
	}
}

// ProcessInvoiceUpdate turns a raw node invoice into an event for live listeners.
// Nothing is persisted here; reconciliation owns the stored status.
func (svc *LnpayService) ProcessInvoiceUpdate(ctx context.Context, rawInvoice *lnrpc.Invoice) error {
	svc.Subscription.received(svc.now())
	event := InvoiceEventFromNode(rawInvoice)
	delivered := svc.InvoicePubSub.Publish(common.TopicIncoming, event)
	svc.Logger.Infof("Invoice update: payment_hash:%s status:%s listeners:%d", event.PaymentHash, event.Status, delivered)
	return nil
}

func InvoiceEventFromNode(rawInvoice *lnrpc.Invoice) models.InvoiceEvent {
	event := models.InvoiceEvent{
		Type:        common.TransactionTypeInvoice,
		PaymentHash: hex.EncodeToString(rawInvoice.RHash),
		Status:      InvoiceEventStatus(rawInvoice),
		Amount:      rawInvoice.Value,
	}
	if event.Status == common.StatusSucceeded {
		if rawInvoice.AmtPaidSat != 0 {
			event.Amount = rawInvoice.AmtPaidSat
		}
		event.Preimage = hex.EncodeToString(rawInvoice.RPreimage)
		if rawInvoice.SettleDate != 0 {
			settledAt := time.Unix(rawInvoice.SettleDate, 0).UTC()
			event.SettledAt = &settledAt
		}
	}
	return event
}
