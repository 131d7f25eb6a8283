package service

import (
	"context"
	"testing"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPendingPayments(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	settled := env.createInvoice(t, 1000, "", 3600)
	inflight := env.createInvoice(t, 2000, "", 3600)

	env.bob.HoldPayments(true)
	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: settled.PaymentRequest, IdempotencyKey: "pending-one"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)
	_, err = env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: inflight.PaymentRequest, IdempotencyKey: "pending-two"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)
	env.bob.SetPaymentStatus(settled.PaymentHash, lnrpc.Payment_SUCCEEDED, "beef", 1)

	env.advance(time.Minute)
	pending, err := env.svc.GetPendingPaymentsUntil(ctx, env.svc.now().Add(-30*time.Second))
	require.NoError(t, err)
	require.Len(t, pending, 2)

	report, err := env.svc.CheckPendingPayments(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 2, Changed: 1}, report)

	pending, err = env.svc.GetPendingPaymentsUntil(ctx, env.svc.now())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, inflight.PaymentHash, pending[0].PaymentHash)

	// nothing is older than the creation time
	pending, err = env.svc.GetPendingPaymentsUntil(ctx, testStart.Add(-time.Second))
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCheckPendingInvoices(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	paid := env.createInvoice(t, 1000, "", 3600)
	env.createInvoice(t, 2000, "", 3600)
	require.NoError(t, env.alice.SettleInvoice(paid.PaymentHash))

	pending, err := env.svc.GetPendingInvoicesUntil(ctx, env.svc.now())
	require.NoError(t, err)
	require.Len(t, pending, 2)

	report, err := env.svc.CheckPendingInvoices(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 2, Changed: 1}, report)

	env.alice.SetUnavailable(true)
	pending, err = env.svc.GetPendingInvoicesUntil(ctx, env.svc.now())
	require.NoError(t, err)
	report, err = env.svc.CheckPendingInvoices(ctx, pending)
	require.NoError(t, err)
	assert.Equal(t, ReconcileReport{Checked: 1, Stale: 1}, report)
}

func TestStartPendingPaymentRoutineRunsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 1000, "", 3600)
	env.bob.HoldPayments(true)
	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "routine-key"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)
	env.bob.SetPaymentStatus(invoice.PaymentHash, lnrpc.Payment_FAILED, "", 0)

	env.svc.Config.PendingPaymentCheckInterval = 0
	require.NoError(t, env.svc.StartPendingPaymentRoutine(ctx))

	payment, err := env.svc.FindPaymentByIdempotencyKey(ctx, "routine-key")
	require.NoError(t, err)
	assert.Equal(t, common.StatusFailed, payment.Status)
}
