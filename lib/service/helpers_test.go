package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/getAlby/lnpay.go/db/migrations"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getAlby/lnpay.go/lnd/lndmock"
	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/migrate"
	"github.com/ziflex/lecho/v3"
	"google.golang.org/grpc"
)

const (
	alicePrivkey = "0c7b0d0e2ac3e3b24a2b9bc28e8f9e1e2e9d87b5c1a7a0e8b2ff8f5d3d0d6b01"
	bobPrivkey   = "5a1c0e3f9d8b7a6c5e4d3c2b1a0f9e8d7c6b5a4e3d2c1b0a9f8e7d6c5b4a3921"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc   *LnpayService
	clock *clock.TestClock
	alice *lndmock.MockLND
	bob   *lndmock.MockLND
}

func testConfig() *Config {
	return &Config{
		DatabaseUri:             "sqlite::memory:",
		DefaultInvoiceExpiry:    3600,
		MinInvoiceExpiry:        60,
		MaxInvoiceExpiry:        86400,
		MaxFeeAmount:            5000,
		PaymentTimeout:          5,
		NodeCallTimeout:         5,
		UnknownPaymentFailAfter: 600,
	}
}

// openTestDB opens a private in-memory sqlite database with the schema applied.
func openTestDB(t *testing.T) *bun.DB {
	name := strings.ReplaceAll(t.Name(), "/", "_") + "_" + uuid.NewString()
	sqldb, err := sql.Open(sqliteshim.ShimName, fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	dbConn := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { dbConn.Close() })

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	require.NoError(t, migrator.Init(ctx))
	_, err = migrator.Migrate(ctx)
	require.NoError(t, err)
	return dbConn
}

// sendHookLND replaces SendPaymentSync of a mock node.
type sendHookLND struct {
	*lndmock.MockLND
	send func(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error)
}

func (h *sendHookLND) SendPaymentSync(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	return h.send(ctx, req, options...)
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithSender(t, nil)
}

// newTestEnvWithSender builds the test env with bob's client optionally
// wrapped, e.g. to intercept payments.
func newTestEnvWithSender(t *testing.T, wrap func(bob *lndmock.MockLND) lnd.LightningClientWrapper) *testEnv {
	testClock := clock.NewTestClock(testStart)
	network := lndmock.NewNetwork(testClock)
	alice, err := network.AddNode("alice", alicePrivkey)
	require.NoError(t, err)
	bob, err := network.AddNode("bob", bobPrivkey)
	require.NoError(t, err)
	var sender lnd.LightningClientWrapper = bob
	if wrap != nil {
		sender = wrap(bob)
	}
	nodes, err := lnd.NewNodeRegistry(map[string]lnd.LightningClientWrapper{
		"alice": alice,
		"bob":   sender,
	}, "alice", "bob")
	require.NoError(t, err)

	svc := NewLnpayService(testConfig(), openTestDB(t), nodes, lecho.New(io.Discard))
	svc.Clock = testClock
	return &testEnv{svc: svc, clock: testClock, alice: alice, bob: bob}
}

func (env *testEnv) advance(d time.Duration) {
	env.clock.SetTime(env.clock.Now().Add(d))
}

func (env *testEnv) createInvoice(t *testing.T, amount int64, description string, expiry int64) *models.Invoice {
	invoice, err := env.svc.CreateInvoice(context.Background(), CreateInvoiceRequest{
		Amount:      amount,
		Description: description,
		Expiry:      expiry,
	})
	require.NoError(t, err)
	return invoice
}

func (env *testEnv) countPayments(t *testing.T) int {
	count, err := env.svc.DB.NewSelect().Model((*models.Payment)(nil)).Count(context.Background())
	assert.NoError(t, err)
	return count
}
