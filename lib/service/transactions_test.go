package service

import (
	"context"
	"testing"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTransactions leaves three invoices and one payment, one second apart:
// invoice 100 (pending), invoice 200 (paid), payment 200, invoice 300 (pending).
func seedTransactions(t *testing.T, env *testEnv) {
	env.createInvoice(t, 100, "first", 3600)
	env.advance(time.Second)
	paid := env.createInvoice(t, 200, "second", 3600)
	env.advance(time.Second)
	_, err := env.svc.SubmitPayment(context.Background(), SubmitPaymentRequest{PaymentRequest: paid.PaymentRequest, IdempotencyKey: "seed-payment"})
	require.NoError(t, err)
	env.advance(time.Second)
	env.createInvoice(t, 300, "third", 3600)
}

func amounts(page *TransactionPage) []int64 {
	result := []int64{}
	for _, tx := range page.Transactions {
		result = append(result, tx.Amount)
	}
	return result
}

func TestListTransactionsMerged(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env)

	page, err := env.svc.ListTransactions(context.Background(), TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, common.DefaultPageSize, page.Limit)
	require.Len(t, page.Transactions, 4)
	assert.Equal(t, []int64{300, 200, 200, 100}, amounts(page))
	assert.Equal(t, common.TransactionTypePayment, page.Transactions[1].Type)
	assert.Equal(t, common.TransactionTypeInvoice, page.Transactions[2].Type)
	assert.NotNil(t, page.Transactions[0].ExpiresAt)
	assert.Nil(t, page.Transactions[1].ExpiresAt)
}

func TestListTransactionsPaging(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env)
	ctx := context.Background()

	page, err := env.svc.ListTransactions(ctx, TransactionFilter{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, common.TransactionTypeInvoice, page.Transactions[0].Type)
	assert.Equal(t, []int64{200, 100}, amounts(page))

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Page: 3, Limit: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.Equal(t, 4, page.Total)

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Type: common.TransactionTypeInvoice, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []int64{100}, amounts(page))
}

func TestListTransactionsFilters(t *testing.T) {
	env := newTestEnv(t)
	seedTransactions(t, env)
	ctx := context.Background()

	page, err := env.svc.ListTransactions(ctx, TransactionFilter{Type: common.TransactionTypePayment})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 1)
	assert.Equal(t, "bob", page.Transactions[0].Node)

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Status: common.StatusSucceeded})
	require.NoError(t, err)
	require.Len(t, page.Transactions, 2)
	assert.Equal(t, common.TransactionTypePayment, page.Transactions[0].Type)
	assert.Equal(t, common.TransactionTypeInvoice, page.Transactions[1].Type)
	assert.NotNil(t, page.Transactions[1].SettledAt)

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Status: common.StatusFailed})
	require.NoError(t, err)
	assert.Empty(t, page.Transactions)
	assert.Equal(t, 0, page.Total)

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Status: common.StatusPending, Node: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []int64{300, 100}, amounts(page))

	page, err = env.svc.ListTransactions(ctx, TransactionFilter{Node: "bob"})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestListTransactionsInvalidFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for _, filter := range []TransactionFilter{
		{Type: "refund"},
		{Status: "settled"},
		{Page: -1},
		{Limit: common.MaxPageSize + 1},
	} {
		_, err := env.svc.ListTransactions(ctx, filter)
		assert.ErrorIs(t, err, ErrInvalidInput, "%+v", filter)
	}
	_, err := env.svc.ListTransactions(ctx, TransactionFilter{Node: "carol"})
	assert.ErrorIs(t, err, ErrUnknownNode)
}
