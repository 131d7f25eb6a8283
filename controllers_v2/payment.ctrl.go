package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

// PaymentController : Payment controller struct
type PaymentController struct {
	svc *service.LnpayService
}

func NewPaymentController(svc *service.LnpayService) *PaymentController {
	return &PaymentController{svc: svc}
}

type PayInvoiceRequestBody struct {
	Invoice string `json:"invoice" validate:"required"`
	Node    string `json:"node"`
}

type PayInvoiceResponseBody struct {
	models.Payment
	// Cached is true when the Idempotency-Key was seen before and no new payment was made.
	Cached bool `json:"cached"`
}

// PayInvoice godoc
// @Summary      Pay an invoice
// @Description  Pays a BOLT11 invoice at most once per Idempotency-Key. Without the header every call is a new attempt. A failed payment is returned with status failed.
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        Idempotency-Key  header    string                 false  "8 to 64 characters"
// @Param        PayInvoiceRequest  body    PayInvoiceRequestBody  true  "Invoice to pay"
// @Success      200  {object}  PayInvoiceResponseBody
// @Failure      400  {object}  responses.ErrorResponse
// @Failure      503  {object}  responses.ErrorResponse
// @Failure      500  {object}  responses.ErrorResponse
// @Router       /v2/payments [post]
// @Security     ApiToken
func (controller *PaymentController) PayInvoice(c echo.Context) error {
	key := c.Request().Header.Get(common.IdempotencyKeyHeader)
	if !service.ValidIdempotencyKey(key) {
		c.Logger().Errorf("Invalid idempotency key length: %d", len(key))
		return c.JSON(http.StatusBadRequest, responses.InvalidIdempotencyKeyError)
	}

	var body PayInvoiceRequestBody
	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load payinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid payinvoice request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	result, err := controller.svc.SubmitPayment(c.Request().Context(), service.SubmitPaymentRequest{
		PaymentRequest: body.Invoice,
		IdempotencyKey: key,
		Node:           body.Node,
	})
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, &PayInvoiceResponseBody{
		Payment: *result.Payment,
		Cached:  result.Cached,
	})
}

// GetPayment godoc
// @Summary      Get a payment
// @Description  Reconciles the latest payment for a hash with the paying node and returns it
// @Accept       json
// @Produce      json
// @Tags         Payment
// @Param        payment_hash  path      string  true  "Payment hash"
// @Success      200           {object}  service.PaymentView
// @Failure      400           {object}  responses.ErrorResponse
// @Failure      404           {object}  responses.ErrorResponse
// @Failure      500           {object}  responses.ErrorResponse
// @Router       /v2/payments/{payment_hash} [get]
// @Security     ApiToken
func (controller *PaymentController) GetPayment(c echo.Context) error {
	hash, err := bindPaymentHash(c)
	if err != nil {
		c.Logger().Errorf("Invalid payment hash: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	view, err := controller.svc.ReconcilePayment(c.Request().Context(), hash)
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}
