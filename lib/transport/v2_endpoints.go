package transport

import (
	"time"

	v2controllers "github.com/getAlby/lnpay.go/controllers_v2"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/getAlby/lnpay.go/lib/tokens"
	"github.com/labstack/echo/v4"
)

const nodeInfoCacheTTL = 30 * time.Second

// RegisterV2Endpoints mounts the /v2 API. Every route but /v2/health sits
// behind the optional API token.
func RegisterV2Endpoints(svc *service.LnpayService, e *echo.Echo, logMw echo.MiddlewareFunc) error {
	strictRateLimitMiddleware := CreateRateLimitMiddleware(svc.Config.StrictRateLimit, svc.Config.BurstRateLimit)
	secured := e.Group("", tokens.ApiTokenMiddleware(svc.Config.ApiToken), logMw)
	securedWithStrictRateLimit := e.Group("", tokens.ApiTokenMiddleware(svc.Config.ApiToken), strictRateLimitMiddleware, logMw)

	cacheClient, err := CreateCacheClient(nodeInfoCacheTTL)
	if err != nil {
		return err
	}

	invoiceCtrl := v2controllers.NewInvoiceController(svc)
	paymentCtrl := v2controllers.NewPaymentController(svc)

	securedWithStrictRateLimit.POST("/v2/invoices", invoiceCtrl.AddInvoice)
	secured.POST("/v2/invoices/decode", invoiceCtrl.DecodeInvoice)
	secured.GET("/v2/invoices/stream", v2controllers.NewInvoiceStreamController(svc).StreamInvoices)
	secured.GET("/v2/invoices/:payment_hash", invoiceCtrl.GetInvoice)
	securedWithStrictRateLimit.POST("/v2/payments", paymentCtrl.PayInvoice)
	secured.GET("/v2/payments/:payment_hash", paymentCtrl.GetPayment)
	secured.GET("/v2/transactions", v2controllers.NewTransactionsController(svc).ListTransactions)
	secured.GET("/v2/balance", v2controllers.NewBalanceController(svc).Balance)
	secured.GET("/v2/node/info", v2controllers.NewNodeInfoController(svc).NodeInfo, cacheClient.Middleware())
	e.GET("/v2/health", v2controllers.NewHealthController(svc).Check)
	return nil
}
