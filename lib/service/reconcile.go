package service

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/uptrace/bun"
)

const unknownPaymentMessage = "payment not found on node"

// InvoiceView is an invoice together with where its status came from.
// Stale is set when the node could not be asked and the stored row is returned.
type InvoiceView struct {
	models.Invoice
	Source string `json:"source"`
	Stale  bool   `json:"stale"`
}

type PaymentView struct {
	models.Payment
	Source string `json:"source"`
	Stale  bool   `json:"stale"`
}

// ReconcileInvoice merges the stored invoice with the node's view and
// persists the difference. Terminal invoices are returned without asking the node.
func (svc *LnpayService) ReconcileInvoice(ctx context.Context, hash string) (*InvoiceView, error) {
	invoice, err := svc.FindInvoiceByPaymentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if IsTerminalInvoiceStatus(invoice.Status) {
		return &InvoiceView{Invoice: *invoice, Source: common.SourceStore}, nil
	}
	rawHash, err := hex.DecodeString(invoice.PaymentHash)
	if err != nil {
		return nil, err
	}
	nodeName, client, err := svc.node(invoice.Node, svc.Nodes.Receiver())
	if err != nil {
		svc.Logger.Errorf("Invoice node not configured: payment_hash:%s %v", hash, err)
		return &InvoiceView{Invoice: *invoice, Source: common.SourceStore, Stale: true}, nil
	}
	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	nodeInvoice, err := client.LookupInvoice(callCtx, &lnrpc.PaymentHash{RHash: rawHash})
	if err != nil {
		svc.logNodeLookupError(nodeName, hash, err)
		return &InvoiceView{Invoice: *invoice, Source: common.SourceStore, Stale: !lnd.IsNotFound(err)}, nil
	}

	now := svc.now()
	status := InvoiceStatusFromNode(nodeInvoice, invoice.ExpiresAt, now)
	if status == invoice.Status {
		return &InvoiceView{Invoice: *invoice, Source: common.SourceNode}, nil
	}

	previous := invoice.Status
	invoice.Status = status
	invoice.UpdatedAt = bun.NullTime{Time: now}
	columns := []string{"status", "updated_at"}
	if status == common.StatusSucceeded {
		invoice.Preimage = hex.EncodeToString(nodeInvoice.RPreimage)
		invoice.SettledAt = bun.NullTime{Time: now}
		columns = append(columns, "preimage", "settled_at")
	}
	res, err := svc.DB.NewUpdate().Model(invoice).
		Column(columns...).
		WherePK().
		Where("status = ?", previous).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// somebody else moved the row first, their write wins
		return svc.storedInvoiceView(ctx, hash)
	}
	svc.Logger.Infof("Invoice reconciled: payment_hash:%s status:%s->%s", hash, previous, status)
	return &InvoiceView{Invoice: *invoice, Source: common.SourceNode}, nil
}

// ReconcilePayment merges the stored payment with the node's payment tracker.
func (svc *LnpayService) ReconcilePayment(ctx context.Context, hash string) (*PaymentView, error) {
	payment, err := svc.FindPaymentByPaymentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return svc.reconcilePayment(ctx, payment)
}

func (svc *LnpayService) reconcilePayment(ctx context.Context, payment *models.Payment) (*PaymentView, error) {
	if IsTerminalPaymentStatus(payment.Status) {
		return &PaymentView{Payment: *payment, Source: common.SourceStore}, nil
	}
	rawHash, err := hex.DecodeString(payment.PaymentHash)
	if err != nil {
		return nil, err
	}
	nodeName, client, err := svc.node(payment.Node, svc.Nodes.Sender())
	if err != nil {
		svc.Logger.Errorf("Payment node not configured: payment_id:%d %v", payment.ID, err)
		return &PaymentView{Payment: *payment, Source: common.SourceStore, Stale: true}, nil
	}
	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	now := svc.now()
	unknownToNode := false
	nodePayment, err := client.TrackPayment(callCtx, rawHash)
	if err != nil {
		svc.logNodeLookupError(nodeName, payment.PaymentHash, err)
		if !lnd.IsNotFound(err) || !svc.neverStarted(payment, now) {
			return &PaymentView{Payment: *payment, Source: common.SourceStore, Stale: !lnd.IsNotFound(err)}, nil
		}
		svc.Logger.Infof("Payment never reached the node, marking it failed: payment_id:%d node:%s", payment.ID, nodeName)
		nodePayment = &lnrpc.Payment{Status: lnrpc.Payment_FAILED}
		unknownToNode = true
	}

	status := PaymentStatusFromNode(nodePayment.Status)
	if status == payment.Status {
		return &PaymentView{Payment: *payment, Source: common.SourceNode}, nil
	}

	previous := payment.Status
	payment.Status = status
	payment.UpdatedAt = bun.NullTime{Time: now}
	columns := []string{"status", "updated_at"}
	switch status {
	case common.StatusSucceeded:
		payment.Preimage = nodePayment.PaymentPreimage
		payment.Fee = nodePayment.FeeSat
		payment.SettledAt = bun.NullTime{Time: now}
		columns = append(columns, "preimage", "fee", "settled_at")
	case common.StatusFailed:
		payment.ErrorMessage = nodePayment.FailureReason.String()
		if unknownToNode {
			payment.ErrorMessage = unknownPaymentMessage
		}
		columns = append(columns, "error_message")
	}
	res, err := svc.DB.NewUpdate().Model(payment).
		Column(columns...).
		WherePK().
		Where("status = ?", previous).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		stored, err := svc.FindPaymentByPaymentHash(ctx, payment.PaymentHash)
		if err != nil {
			return nil, err
		}
		return &PaymentView{Payment: *stored, Source: common.SourceStore}, nil
	}
	svc.Logger.Infof("Payment reconciled: payment_id:%d status:%s->%s", payment.ID, previous, status)
	if status == common.StatusSucceeded {
		svc.markInvoicePaid(ctx, payment)
	}
	svc.InvoicePubSub.Publish(common.TopicOutgoing, paymentEvent(payment))
	return &PaymentView{Payment: *payment, Source: common.SourceNode}, nil
}

// neverStarted reports whether a pending payment the node does not know is old
// enough that the node can no longer pick it up.
func (svc *LnpayService) neverStarted(payment *models.Payment, now time.Time) bool {
	if svc.Config.UnknownPaymentFailAfter <= 0 {
		return false
	}
	return now.Sub(payment.CreatedAt) > time.Duration(svc.Config.UnknownPaymentFailAfter)*time.Second
}

func (svc *LnpayService) storedInvoiceView(ctx context.Context, hash string) (*InvoiceView, error) {
	invoice, err := svc.FindInvoiceByPaymentHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	return &InvoiceView{Invoice: *invoice, Source: common.SourceStore}, nil
}

func (svc *LnpayService) logNodeLookupError(node, hash string, err error) {
	switch {
	case lnd.IsNotFound(err):
		svc.Logger.Infof("Node %s does not know payment_hash:%s, keeping stored status", node, hash)
	case lnd.IsTransportError(err):
		svc.Logger.Errorf("Node %s unreachable, returning stored status for payment_hash:%s: %v", node, hash, err)
	default:
		svc.Logger.Errorf("Node %s lookup failed for payment_hash:%s: %v", node, hash, err)
		sentry.CaptureException(err)
	}
}
