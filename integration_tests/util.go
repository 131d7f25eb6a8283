package integration_tests

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/getAlby/lnpay.go/db"
	"github.com/getAlby/lnpay.go/db/migrations"
	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/getAlby/lnpay.go/lib/transport"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getAlby/lnpay.go/lnd/lndmock"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/uptrace/bun/migrate"
	"github.com/ziflex/lecho/v3"
)

const (
	alicePrivkey = "0c7b0d0e2ac3e3b24a2b9bc28e8f9e1e2e9d87b5c1a7a0e8b2ff8f5d3d0d6b01"
	bobPrivkey   = "5a1c0e3f9d8b7a6c5e4d3c2b1a0f9e8d7c6b5a4e3d2c1b0a9f8e7d6c5b4a3921"
)

var testStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testNetwork struct {
	clock *clock.TestClock
	alice *lndmock.MockLND
	bob   *lndmock.MockLND
}

// LnpayTestServiceInit wires the service against an in-memory sqlite database
// and a mock network where alice receives and bob pays.
func LnpayTestServiceInit(apiToken string) (svc *service.LnpayService, network *testNetwork, err error) {
	c := &service.Config{
		DatabaseUri:          fmt.Sprintf("sqlite:file:%s?mode=memory&cache=shared", uuid.NewString()),
		ApiToken:             apiToken,
		DefaultRateLimit:     1000,
		StrictRateLimit:      1000,
		BurstRateLimit:       1000,
		DefaultInvoiceExpiry: 3600,
		MinInvoiceExpiry:     60,
		MaxInvoiceExpiry:     86400,
		MaxFeeAmount:         5000,
		PaymentTimeout:       5,
		NodeCallTimeout:      5,
	}

	dbConn, err := db.Open(c)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx := context.Background()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init migrations: %w", err)
	}
	_, err = migrator.Migrate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to migrate: %w", err)
	}

	network = &testNetwork{clock: clock.NewTestClock(testStart)}
	mockNetwork := lndmock.NewNetwork(network.clock)
	network.alice, err = mockNetwork.AddNode("alice", alicePrivkey)
	if err != nil {
		return nil, nil, err
	}
	network.bob, err = mockNetwork.AddNode("bob", bobPrivkey)
	if err != nil {
		return nil, nil, err
	}
	nodes, err := lnd.NewNodeRegistry(map[string]lnd.LightningClientWrapper{
		"alice": network.alice,
		"bob":   network.bob,
	}, "alice", "bob")
	if err != nil {
		return nil, nil, err
	}

	svc = service.NewLnpayService(c, dbConn, nodes, lecho.New(io.Discard))
	svc.Clock = network.clock
	return svc, network, nil
}

func (network *testNetwork) advance(d time.Duration) {
	network.clock.SetTime(network.clock.Now().Add(d))
}

func initEcho(svc *service.LnpayService) (*echo.Echo, error) {
	e := transport.InitEcho(svc.Config, svc.Logger)
	if err := transport.RegisterV2Endpoints(svc, e, transport.CreateLoggingMiddleware(svc.Logger)); err != nil {
		return nil, err
	}
	return e, nil
}

type TestSuite struct {
	suite.Suite
	echo *echo.Echo
}

func (suite *TestSuite) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	suite.echo.ServeHTTP(rec, req)
	return rec
}

func (suite *TestSuite) decode(rec *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(suite.T(), expectedStatus, rec.Code, rec.Body.String())
	assert.NoError(suite.T(), json.NewDecoder(rec.Body).Decode(target))
}

func (suite *TestSuite) checkErrResponse(rec *httptest.ResponseRecorder, expected responses.ErrorResponse) *responses.ErrorResponse {
	errorResponse := &responses.ErrorResponse{}
	suite.decode(rec, expected.HttpStatusCode, errorResponse)
	assert.True(suite.T(), errorResponse.Error)
	assert.Equal(suite.T(), expected.Code, errorResponse.Code)
	return errorResponse
}

func (suite *TestSuite) createInvoiceReq(amount int64, description string, expiry int64) *ExpectedInvoiceResponseBody {
	rec := suite.do(http.MethodPost, "/v2/invoices", &ExpectedAddInvoiceRequestBody{
		Amount:      amount,
		Description: description,
		Expiry:      expiry,
	}, nil)
	invoice := &ExpectedInvoiceResponseBody{}
	suite.decode(rec, http.StatusCreated, invoice)
	return invoice
}

func (suite *TestSuite) payInvoiceReq(invoice, idempotencyKey string) *httptest.ResponseRecorder {
	return suite.do(http.MethodPost, "/v2/payments", &ExpectedPayInvoiceRequestBody{Invoice: invoice}, map[string]string{
		"Idempotency-Key": idempotencyKey,
	})
}
