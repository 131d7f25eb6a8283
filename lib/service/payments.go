package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getsentry/sentry-go"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/uptrace/bun"
)

const (
	minIdempotencyKeyLength = 8
	maxIdempotencyKeyLength = 64
)

type SubmitPaymentRequest struct {
	PaymentRequest string
	IdempotencyKey string
	Node           string
}

type PaymentResult struct {
	Payment *models.Payment
	// Cached is set when an earlier submission with the same idempotency key was returned.
	Cached bool
}

// ValidIdempotencyKey reports whether key is usable. An empty key is valid and
// disables deduplication.
func ValidIdempotencyKey(key string) bool {
	return key == "" || (len(key) >= minIdempotencyKeyLength && len(key) <= maxIdempotencyKeyLength)
}

// SubmitPayment pays a BOLT11 invoice at most once per idempotency key.
// A failed payment is a normal result with status failed, not an error.
func (svc *LnpayService) SubmitPayment(ctx context.Context, req SubmitPaymentRequest) (*PaymentResult, error) {
	key := req.IdempotencyKey
	if !ValidIdempotencyKey(key) {
		return nil, fmt.Errorf("%w: idempotency key must be %d to %d characters", ErrInvalidInput, minIdempotencyKeyLength, maxIdempotencyKeyLength)
	}
	if key != "" {
		existing, err := svc.FindPaymentByIdempotencyKey(ctx, key)
		if err == nil {
			svc.Logger.Infof("Returning cached payment for idempotency key: payment_id:%d", existing.ID)
			return &PaymentResult{Payment: existing, Cached: true}, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, err
		}
	}

	decoded, err := svc.DecodeInvoice(ctx, req.PaymentRequest, req.Node)
	if err != nil {
		return nil, err
	}
	if decoded.Expired {
		return nil, fmt.Errorf("%w: expired at %s", ErrInvoiceExpired, decoded.ExpiresAt.Format(time.RFC3339))
	}
	nodeName, client, err := svc.node(req.Node, svc.Nodes.Sender())
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		PaymentHash:    decoded.PaymentHash,
		PaymentRequest: decoded.PaymentRequest,
		Amount:         decoded.Amount,
		Destination:    decoded.Destination,
		Description:    decoded.Description,
		Node:           nodeName,
		Status:         common.StatusPending,
		IdempotencyKey: key,
		CreatedAt:      svc.now(),
	}
	if _, err := svc.DB.NewInsert().Model(&payment).Exec(ctx); err != nil {
		if key != "" && isUniqueViolation(err) {
			// a concurrent submission with the same key won the insert
			existing, findErr := svc.FindPaymentByIdempotencyKey(ctx, key)
			if findErr != nil {
				return nil, findErr
			}
			return &PaymentResult{Payment: existing, Cached: true}, nil
		}
		return nil, err
	}

	svc.Logger.Infof("Sending payment: payment_id:%d node:%s amount:%d destination:%s", payment.ID, nodeName, payment.Amount, payment.Destination)
	// once the row exists, neither the pay call nor recording its outcome may
	// be aborted by a disconnecting client
	persistCtx := context.WithoutCancel(ctx)
	payCtx, cancel := context.WithTimeout(persistCtx, time.Duration(svc.Config.PaymentTimeout)*time.Second)
	defer cancel()
	sendResponse, err := client.SendPaymentSync(payCtx, &lnrpc.SendRequest{
		PaymentRequest: payment.PaymentRequest,
		FeeLimit: &lnrpc.FeeLimit{
			Limit: &lnrpc.FeeLimit_Fixed{
				Fixed: svc.CalcFeeLimit(client.GetMainPubkey(), payment.Destination, payment.Amount),
			},
		},
	})
	if err != nil && lnd.IsTransportError(err) {
		// the outcome is unknown, keep the row pending for reconciliation
		svc.Logger.Errorf("Node unreachable during payment, payment stays pending: payment_id:%d %v", payment.ID, err)
		sentry.CaptureException(err)
		return nil, fmt.Errorf("%w: %s: %v", ErrNodeUnavailable, nodeName, err)
	}

	applyPaymentOutcome(&payment, sendResponse, err, svc.now())
	if _, err := svc.DB.NewUpdate().Model(&payment).
		Column("status", "preimage", "fee", "error_message", "settled_at", "updated_at").
		WherePK().Exec(persistCtx); err != nil {
		svc.Logger.Errorf("Could not update payment: payment_id:%d %v", payment.ID, err)
		sentry.CaptureException(err)
		return nil, err
	}
	svc.Logger.Infof("Payment finished: payment_id:%d status:%s fee:%d", payment.ID, payment.Status, payment.Fee)

	if payment.Status == common.StatusSucceeded {
		svc.markInvoicePaid(persistCtx, &payment)
	}
	svc.InvoicePubSub.Publish(common.TopicOutgoing, paymentEvent(&payment))
	return &PaymentResult{Payment: &payment}, nil
}

// applyPaymentOutcome normalizes the node's answer to a pay call.
func applyPaymentOutcome(payment *models.Payment, resp *lnrpc.SendResponse, err error, now time.Time) {
	payment.UpdatedAt = bun.NullTime{Time: now}
	switch {
	case err != nil:
		payment.Status = common.StatusFailed
		payment.ErrorMessage = err.Error()
	case resp == nil:
		payment.Status = common.StatusFailed
		payment.ErrorMessage = "empty payment response"
	case resp.PaymentError != "":
		payment.Status = common.StatusFailed
		payment.ErrorMessage = resp.PaymentError
	default:
		payment.Status = common.StatusSucceeded
		payment.Preimage = hex.EncodeToString(resp.PaymentPreimage)
		if resp.PaymentRoute != nil {
			payment.Fee = resp.PaymentRoute.TotalFees
		}
		payment.SettledAt = bun.NullTime{Time: now}
	}
}

// markInvoicePaid mirrors a successful payment onto our own invoice with the
// same hash. Failures are logged and otherwise ignored.
func (svc *LnpayService) markInvoicePaid(ctx context.Context, payment *models.Payment) {
	res, err := svc.DB.NewUpdate().Model((*models.Invoice)(nil)).
		Set("status = ?", common.StatusSucceeded).
		Set("preimage = ?", payment.Preimage).
		Set("settled_at = ?", payment.SettledAt.Time).
		Set("updated_at = ?", svc.now()).
		Where("payment_hash = ?", payment.PaymentHash).
		Where("status = ?", common.StatusPending).
		Exec(ctx)
	if err != nil {
		svc.Logger.Errorf("Could not update invoice for payment: payment_hash:%s %v", payment.PaymentHash, err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		svc.Logger.Infof("Marked invoice as paid: payment_hash:%s", payment.PaymentHash)
	}
}

func (svc *LnpayService) FindPaymentByIdempotencyKey(ctx context.Context, key string) (*models.Payment, error) {
	var payment models.Payment
	err := svc.DB.NewSelect().Model(&payment).Where("idempotency_key = ?", key).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: idempotency key", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// FindPaymentByPaymentHash returns the latest payment attempt for the hash.
func (svc *LnpayService) FindPaymentByPaymentHash(ctx context.Context, hash string) (*models.Payment, error) {
	var payment models.Payment
	err := svc.DB.NewSelect().Model(&payment).Where("payment_hash = ?", hash).OrderExpr("id DESC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// CalcFeeLimit returns the routing fee budget in sat. Paying our own node is free.
func (svc *LnpayService) CalcFeeLimit(ownPubkey, destination string, amount int64) int64 {
	if destination != "" && destination == ownPubkey {
		return 0
	}
	limit := int64(10)
	if amount > 1000 {
		limit = int64(math.Ceil(float64(amount)*float64(0.01)) + 1)
	}
	if svc.Config.MaxFeeAmount > 0 && limit > svc.Config.MaxFeeAmount {
		limit = svc.Config.MaxFeeAmount
	}
	return limit
}

func paymentEvent(payment *models.Payment) models.InvoiceEvent {
	event := models.InvoiceEvent{
		Type:        common.TransactionTypePayment,
		PaymentHash: payment.PaymentHash,
		Status:      payment.Status,
		Amount:      payment.Amount,
		Preimage:    payment.Preimage,
	}
	if !payment.SettledAt.IsZero() {
		settledAt := payment.SettledAt.Time
		event.SettledAt = &settledAt
	}
	return event
}
