package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

type TransactionsController struct {
	svc *service.LnpayService
}

func NewTransactionsController(svc *service.LnpayService) *TransactionsController {
	return &TransactionsController{svc: svc}
}

type ListTransactionsParams struct {
	Type   string `query:"type" validate:"omitempty,oneof=invoice payment"`
	Status string `query:"status" validate:"omitempty,oneof=pending succeeded expired failed"`
	Node   string `query:"node"`
	Page   int    `query:"page" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"gte=0,lte=100"`
}

// ListTransactions godoc
// @Summary      List transactions
// @Description  Invoices and payments, newest first
// @Accept       json
// @Produce      json
// @Tags         Transaction
// @Param        type    query     string  false  "invoice or payment"
// @Param        status  query     string  false  "pending, succeeded, expired or failed"
// @Param        node    query     string  false  "node name"
// @Param        page    query     int     false  "page, starting at 1"
// @Param        limit   query     int     false  "page size, at most 100"
// @Success      200     {object}  service.TransactionPage
// @Failure      400     {object}  responses.ErrorResponse
// @Failure      500     {object}  responses.ErrorResponse
// @Router       /v2/transactions [get]
// @Security     ApiToken
func (controller *TransactionsController) ListTransactions(c echo.Context) error {
	var params ListTransactionsParams
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &params); err != nil {
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}
	if err := c.Validate(&params); err != nil {
		c.Logger().Errorf("Invalid transactions query error: %v", err)
		return c.JSON(http.StatusBadRequest, responses.BadArgumentsError)
	}

	page, err := controller.svc.ListTransactions(c.Request().Context(), service.TransactionFilter{
		Type:   params.Type,
		Status: params.Status,
		Node:   params.Node,
		Page:   params.Page,
		Limit:  params.Limit,
	})
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}
