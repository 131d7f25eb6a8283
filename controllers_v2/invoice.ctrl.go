package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

// InvoiceController : Invoice controller struct
type InvoiceController struct {
	svc *service.LnpayService
}

func NewInvoiceController(svc *service.LnpayService) *InvoiceController {
	return &InvoiceController{svc: svc}
}

type AddInvoiceRequestBody struct {
	Amount      int64  `json:"amount" validate:"gt=0"`
	Description string `json:"description" validate:"max=639"`
	Expiry      int64  `json:"expiry" validate:"gte=0"`
	Node        string `json:"node"`
}

type DecodeInvoiceRequestBody struct {
	Invoice string `json:"invoice" validate:"required"`
	Node    string `json:"node"`
}

// PaymentHashParams : hex encoded sha256, lower case
type PaymentHashParams struct {
	PaymentHash string `param:"payment_hash" validate:"len=64,hexadecimal,lowercase,excludes=x"`
}

func bindPaymentHash(c echo.Context) (string, error) {
	params := PaymentHashParams{PaymentHash: c.Param("payment_hash")}
	if err := c.Validate(&params); err != nil {
		return "", err
	}
	return params.PaymentHash, nil
}

// AddInvoice godoc
// @Summary      Create an invoice
// @Description  Asks the receiving node for a new BOLT11 invoice and stores it as pending
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        invoice  body      AddInvoiceRequestBody  true  "Add Invoice"
// @Success      201      {object}  models.Invoice
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      503      {object}  responses.ErrorResponse
// @Failure      500      {object}  responses.ErrorResponse
// @Router       /v2/invoices [post]
// @Security     ApiToken
func (controller *InvoiceController) AddInvoice(c echo.Context) error {
	var body AddInvoiceRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load addinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid addinvoice request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	invoice, err := controller.svc.CreateInvoice(c.Request().Context(), service.CreateInvoiceRequest{
		Amount:      body.Amount,
		Description: body.Description,
		Expiry:      body.Expiry,
		Node:        body.Node,
	})
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, invoice)
}

// GetInvoice godoc
// @Summary      Get an invoice
// @Description  Reconciles the stored invoice with the node and returns it. stale is set when the node could not be asked.
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        payment_hash  path      string  true  "Payment hash"
// @Success      200           {object}  service.InvoiceView
// @Failure      400           {object}  responses.ErrorResponse
// @Failure      404           {object}  responses.ErrorResponse
// @Failure      500           {object}  responses.ErrorResponse
// @Router       /v2/invoices/{payment_hash} [get]
// @Security     ApiToken
func (controller *InvoiceController) GetInvoice(c echo.Context) error {
	hash, err := bindPaymentHash(c)
	if err != nil {
		c.Logger().Errorf("Invalid payment hash: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	view, err := controller.svc.ReconcileInvoice(c.Request().Context(), hash)
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DecodeInvoice godoc
// @Summary      Decode a BOLT11 invoice
// @Description  Decodes a payment request through the paying node
// @Accept       json
// @Produce      json
// @Tags         Invoice
// @Param        invoice  body      DecodeInvoiceRequestBody  true  "Decode Invoice"
// @Success      200      {object}  service.DecodedInvoice
// @Failure      400      {object}  responses.ErrorResponse
// @Failure      503      {object}  responses.ErrorResponse
// @Router       /v2/invoices/decode [post]
// @Security     ApiToken
func (controller *InvoiceController) DecodeInvoice(c echo.Context) error {
	var body DecodeInvoiceRequestBody

	if err := c.Bind(&body); err != nil {
		c.Logger().Errorf("Failed to load decodeinvoice request body: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	if err := c.Validate(&body); err != nil {
		c.Logger().Errorf("Invalid decodeinvoice request body error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	decoded, err := controller.svc.DecodeInvoice(c.Request().Context(), body.Invoice, body.Node)
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, decoded)
}
