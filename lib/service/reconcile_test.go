package service

import (
	"context"
	"testing"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getAlby/lnpay.go/lnd/lndmock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestReconcileInvoiceUnknownHash(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.ReconcileInvoice(context.Background(), "00ff")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.svc.ReconcilePayment(context.Background(), "00ff")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileInvoiceSettledAfterTenSeconds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 1000, "Coffee", 3600)
	assert.Equal(t, common.StatusPending, invoice.Status)
	assert.Equal(t, "alice", invoice.Node)
	assert.True(t, invoice.ExpiresAt.Equal(testStart.Add(time.Hour)))

	view, err := env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.Equal(t, common.SourceNode, view.Source)
	assert.False(t, view.Stale)

	env.advance(10 * time.Second)
	require.NoError(t, env.alice.SettleInvoice(invoice.PaymentHash))

	view, err = env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, view.Status)
	assert.Equal(t, common.SourceNode, view.Source)
	assert.NotEmpty(t, view.Preimage)
	assert.True(t, view.SettledAt.Time.Equal(testStart.Add(10*time.Second)))

	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, stored.Status)
	assert.Equal(t, view.Preimage, stored.Preimage)
	assert.True(t, stored.UpdatedAt.Time.Equal(testStart.Add(10*time.Second)))
}

func TestReconcileInvoiceWritesOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 500, "", 600)
	require.NoError(t, env.alice.SettleInvoice(invoice.PaymentHash))

	first, err := env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.SourceNode, first.Source)
	afterFirst, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.False(t, afterFirst.UpdatedAt.IsZero())

	// the node goes away; a terminal row no longer needs it
	env.alice.SetUnavailable(true)
	second, err := env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, second.Status)
	assert.Equal(t, common.SourceStore, second.Source)
	assert.False(t, second.Stale)

	afterSecond, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.True(t, afterFirst.UpdatedAt.Time.Equal(afterSecond.UpdatedAt.Time))
}

func TestReconcileInvoiceExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 100, "boundary", 3600)

	env.advance(time.Hour)
	view, err := env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)

	env.advance(time.Second)
	view, err = env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusExpired, view.Status)
	assert.True(t, view.SettledAt.IsZero())
}

func TestReconcileInvoiceCanceledIsExpired(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 100, "", 3600)
	require.NoError(t, env.alice.CancelInvoice(invoice.PaymentHash))

	view, err := env.svc.ReconcileInvoice(context.Background(), invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusExpired, view.Status)
}

func TestReconcileInvoiceNodeUnavailable(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 100, "", 3600)
	require.NoError(t, env.alice.SettleInvoice(invoice.PaymentHash))
	env.alice.SetUnavailable(true)

	view, err := env.svc.ReconcileInvoice(context.Background(), invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.Equal(t, common.SourceStore, view.Source)
	assert.True(t, view.Stale)

	env.alice.SetUnavailable(false)
	view, err = env.svc.ReconcileInvoice(context.Background(), invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, view.Status)
	assert.False(t, view.Stale)
}

func TestReconcileInvoiceUnknownToNode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := &models.Invoice{
		PaymentHash:    "aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11aa11",
		PaymentRequest: "lnbcrt1",
		Amount:         10,
		Node:           "alice",
		Status:         common.StatusPending,
		ExpiresAt:      testStart.Add(time.Hour),
		CreatedAt:      testStart,
	}
	_, err := env.svc.DB.NewInsert().Model(invoice).Exec(ctx)
	require.NoError(t, err)

	view, err := env.svc.ReconcileInvoice(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.Equal(t, common.SourceStore, view.Source)
	assert.False(t, view.Stale)
}

func TestReconcilePaymentAfterTimeout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 2000, "held", 3600)

	env.bob.HoldPayments(true)
	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "held-payment-1"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	view, err := env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.Equal(t, common.SourceNode, view.Source)

	env.advance(5 * time.Second)
	env.bob.SetPaymentStatus(invoice.PaymentHash, lnrpc.Payment_SUCCEEDED, "c0ffee", 3)
	view, err = env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, view.Status)
	assert.Equal(t, int64(3), view.Fee)
	assert.Equal(t, "c0ffee", view.Preimage)
	assert.True(t, view.SettledAt.Time.Equal(testStart.Add(5*time.Second)))
	assert.True(t, view.UpdatedAt.Time.Equal(testStart.Add(5*time.Second)))

	// the receiving invoice follows the payment
	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, stored.Status)
	assert.Equal(t, "c0ffee", stored.Preimage)
	assert.True(t, stored.UpdatedAt.Time.Equal(testStart.Add(5*time.Second)))
}

func TestReconcilePaymentFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 2000, "", 3600)

	env.bob.HoldPayments(true)
	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "held-payment-2"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	env.bob.SetPaymentStatus(invoice.PaymentHash, lnrpc.Payment_FAILED, "", 0)
	view, err := env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusFailed, view.Status)
	assert.Equal(t, lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE.String(), view.ErrorMessage)

	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, stored.Status)
}

func TestReconcilePaymentNodeUnavailable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 2000, "", 3600)

	env.bob.HoldPayments(true)
	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "held-payment-3"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	env.bob.SetUnavailable(true)
	view, err := env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.Equal(t, common.SourceStore, view.Source)
	assert.True(t, view.Stale)
}

func TestReconcilePaymentNeverStarted(t *testing.T) {
	env := newTestEnvWithSender(t, func(bob *lndmock.MockLND) lnd.LightningClientWrapper {
		return &sendHookLND{MockLND: bob, send: func(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
			// the connection drops before lnd registers the payment
			return nil, status.Error(codes.Unavailable, "connection reset")
		}}
	})
	ctx := context.Background()
	invoice := env.createInvoice(t, 2000, "", 3600)

	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "lost-payment"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	// still young, lnd might pick it up
	env.advance(600 * time.Second)
	view, err := env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
	assert.False(t, view.Stale)

	env.advance(time.Second)
	view, err = env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusFailed, view.Status)
	assert.Equal(t, "payment not found on node", view.ErrorMessage)

	// the key no longer returns a stuck pending row
	cached, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "lost-payment"})
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, common.StatusFailed, cached.Payment.Status)

	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, stored.Status)
}

func TestReconcilePaymentNeverStartedDisabled(t *testing.T) {
	env := newTestEnvWithSender(t, func(bob *lndmock.MockLND) lnd.LightningClientWrapper {
		return &sendHookLND{MockLND: bob, send: func(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
			return nil, status.Error(codes.Unavailable, "connection reset")
		}}
	})
	env.svc.Config.UnknownPaymentFailAfter = 0
	ctx := context.Background()
	invoice := env.createInvoice(t, 2000, "", 3600)

	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "lost-payment"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	env.advance(24 * time.Hour)
	view, err := env.svc.ReconcilePayment(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, view.Status)
}
