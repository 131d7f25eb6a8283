package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

// BalanceController : BalanceController struct
type BalanceController struct {
	svc *service.LnpayService
}

func NewBalanceController(svc *service.LnpayService) *BalanceController {
	return &BalanceController{svc: svc}
}

// Balance godoc
// @Summary      Retrieve balance
// @Description  Wallet and channel balances of a node in satoshi, plus settled totals. stale is set when the node could not be reached.
// @Accept       json
// @Produce      json
// @Tags         Node
// @Param        node  query     string  false  "node name, defaults to the receiving node"
// @Success      200   {object}  service.BalanceSummary
// @Failure      400   {object}  responses.ErrorResponse
// @Failure      500   {object}  responses.ErrorResponse
// @Router       /v2/balance [get]
// @Security     ApiToken
func (controller *BalanceController) Balance(c echo.Context) error {
	balance, err := controller.svc.GetBalances(c.Request().Context(), c.QueryParam("node"))
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, balance)
}
