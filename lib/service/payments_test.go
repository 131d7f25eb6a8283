package service

import (
	"context"
	"strings"
	"sync"
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
)

func TestSubmitPaymentSucceeds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.bob.SetFee(2)
	invoice := env.createInvoice(t, 1000, "Coffee", 3600)

	outgoing := make(chan models.InvoiceEvent, 1)
	id := env.svc.InvoicePubSub.Subscribe(common.TopicOutgoing, outgoing)
	defer env.svc.InvoicePubSub.Unsubscribe(id, common.TopicOutgoing)

	result, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	require.NoError(t, err)
	assert.False(t, result.Cached)
	assert.Equal(t, common.StatusSucceeded, result.Payment.Status)
	assert.Equal(t, "bob", result.Payment.Node)
	assert.Equal(t, int64(1000), result.Payment.Amount)
	assert.Equal(t, int64(2), result.Payment.Fee)
	assert.Equal(t, invoice.PaymentHash, result.Payment.PaymentHash)
	assert.Equal(t, env.alice.GetMainPubkey(), result.Payment.Destination)
	assert.NotEmpty(t, result.Payment.Preimage)

	event := <-outgoing
	assert.Equal(t, common.TransactionTypePayment, event.Type)
	assert.Equal(t, common.StatusSucceeded, event.Status)
	assert.Equal(t, invoice.PaymentHash, event.PaymentHash)

	// our own invoice is marked paid right away
	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, stored.Status)
	assert.Equal(t, result.Payment.Preimage, stored.Preimage)
}

func TestSubmitPaymentSurvivesClientDisconnect(t *testing.T) {
	reqCtx, cancelReq := context.WithCancel(context.Background())
	defer cancelReq()
	env := newTestEnvWithSender(t, func(bob *lndmock.MockLND) lnd.LightningClientWrapper {
		return &sendHookLND{MockLND: bob, send: func(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
			resp, err := bob.SendPaymentSync(ctx, req, options...)
			// the client goes away while the node is paying
			cancelReq()
			return resp, err
		}}
	})
	invoice := env.createInvoice(t, 1000, "", 3600)

	outgoing := make(chan models.InvoiceEvent, 1)
	id := env.svc.InvoicePubSub.Subscribe(common.TopicOutgoing, outgoing)
	defer env.svc.InvoicePubSub.Unsubscribe(id, common.TopicOutgoing)

	result, err := env.svc.SubmitPayment(reqCtx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	require.NoError(t, err)
	assert.Error(t, reqCtx.Err())
	assert.Equal(t, common.StatusSucceeded, result.Payment.Status)

	ctx := context.Background()
	stored, err := env.svc.FindPaymentByIdempotencyKey(ctx, "abc12345")
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, stored.Status)
	assert.NotEmpty(t, stored.Preimage)
	assert.True(t, stored.UpdatedAt.Time.Equal(testStart))

	received, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusSucceeded, received.Status)

	event := <-outgoing
	assert.Equal(t, common.StatusSucceeded, event.Status)
}

func TestSubmitPaymentIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 1000, "", 3600)
	req := SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"}

	first, err := env.svc.SubmitPayment(ctx, req)
	require.NoError(t, err)
	assert.False(t, first.Cached)

	second, err := env.svc.SubmitPayment(ctx, req)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Payment.ID, second.Payment.ID)
	assert.Equal(t, first.Payment.Status, second.Payment.Status)
	assert.Equal(t, first.Payment.Preimage, second.Payment.Preimage)

	assert.Equal(t, 1, env.bob.SendPaymentCalls())
	assert.Equal(t, 1, env.countPayments(t))
}

func TestSubmitPaymentCachedEvenWithDifferentInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createInvoice(t, 1000, "", 3600)
	other := env.createInvoice(t, 50, "", 3600)

	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: first.PaymentRequest, IdempotencyKey: "same-key-1"})
	require.NoError(t, err)
	result, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: other.PaymentRequest, IdempotencyKey: "same-key-1"})
	require.NoError(t, err)
	assert.True(t, result.Cached)
	assert.Equal(t, first.PaymentHash, result.Payment.PaymentHash)
	assert.Equal(t, 1, env.bob.SendPaymentCalls())
}

func TestSubmitPaymentConcurrentSameKey(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 1000, "", 3600)
	req := SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "concurrent-key"}

	const workers = 8
	var wg sync.WaitGroup
	results := make([]*PaymentResult, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.svc.SubmitPayment(context.Background(), req)
		}(i)
	}
	wg.Wait()

	fresh := 0
	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		if !results[i].Cached {
			fresh++
		}
		assert.Equal(t, invoice.PaymentHash, results[i].Payment.PaymentHash)
	}
	assert.Equal(t, 1, fresh)
	assert.Equal(t, 1, env.bob.SendPaymentCalls())
	assert.Equal(t, 1, env.countPayments(t))
}

func TestSubmitPaymentWithoutKeyIsNotDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 1000, "", 3600)

	_, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest})
	require.NoError(t, err)
	result, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest})
	require.NoError(t, err)
	assert.False(t, result.Cached)
	// the second attempt reaches the node, which refuses a settled invoice
	assert.Equal(t, common.StatusFailed, result.Payment.Status)
	assert.Equal(t, 2, env.bob.SendPaymentCalls())
	assert.Equal(t, 2, env.countPayments(t))
}

func TestSubmitPaymentInvalidKey(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 1000, "", 3600)

	for _, key := range []string{"short", strings.Repeat("k", 65)} {
		_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: key})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 0, env.bob.SendPaymentCalls())
	assert.Equal(t, 0, env.countPayments(t))

	assert.True(t, ValidIdempotencyKey(""))
	assert.True(t, ValidIdempotencyKey("abc12345"))
	assert.True(t, ValidIdempotencyKey(strings.Repeat("k", 64)))
	assert.False(t, ValidIdempotencyKey("abc1234"))
}

func TestSubmitPaymentInvalidRequest(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: "lnbcrt1garbage", IdempotencyKey: "abc12345"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, 0, env.countPayments(t))
}

func TestSubmitPaymentExpiredInvoice(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 1000, "", 60)
	env.advance(61 * time.Second)

	_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	assert.ErrorIs(t, err, ErrInvoiceExpired)
	assert.Equal(t, 0, env.bob.SendPaymentCalls())
	assert.Equal(t, 0, env.countPayments(t))
}

func TestSubmitPaymentFailed(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	invoice := env.createInvoice(t, 1000, "", 3600)
	env.bob.FailPayments("no_route")

	result, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	require.NoError(t, err)
	assert.Equal(t, common.StatusFailed, result.Payment.Status)
	assert.Equal(t, "no_route", result.Payment.ErrorMessage)
	assert.Empty(t, result.Payment.Preimage)

	stored, err := env.svc.FindInvoiceByPaymentHash(ctx, invoice.PaymentHash)
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, stored.Status)

	// a retry with the same key returns the failure instead of paying again
	retry, err := env.svc.SubmitPayment(ctx, SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	require.NoError(t, err)
	assert.True(t, retry.Cached)
	assert.Equal(t, common.StatusFailed, retry.Payment.Status)
	assert.Equal(t, 1, env.bob.SendPaymentCalls())
}

func TestSubmitPaymentNodeUnavailable(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 1000, "", 3600)
	env.bob.HoldPayments(true)

	_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, IdempotencyKey: "abc12345"})
	assert.ErrorIs(t, err, ErrNodeUnavailable)

	payment, err := env.svc.FindPaymentByIdempotencyKey(context.Background(), "abc12345")
	require.NoError(t, err)
	assert.Equal(t, common.StatusPending, payment.Status)
}

func TestSubmitPaymentUnknownNode(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t, 1000, "", 3600)
	_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: invoice.PaymentRequest, Node: "carol"})
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestCalcFeeLimit(t *testing.T) {
	svc := &LnpayService{Config: &Config{MaxFeeAmount: 5000}}
	assert.Equal(t, int64(10), svc.CalcFeeLimit("own", "dest", 100))
	assert.Equal(t, int64(10), svc.CalcFeeLimit("own", "dest", 1000))
	assert.Equal(t, int64(12), svc.CalcFeeLimit("own", "dest", 1001))
	assert.Equal(t, int64(5000), svc.CalcFeeLimit("own", "dest", 10_000_000))
	assert.Equal(t, int64(0), svc.CalcFeeLimit("own", "own", 10_000))

	svc.Config.MaxFeeAmount = 0
	assert.Equal(t, int64(100001), svc.CalcFeeLimit("own", "dest", 10_000_000))
}
