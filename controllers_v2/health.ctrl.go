package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

type HealthController struct {
	svc *service.LnpayService
}

func NewHealthController(svc *service.LnpayService) *HealthController {
	return &HealthController{svc: svc}
}

type HealthResponse struct {
	Result       string                     `json:"result"`
	Nodes        []string                   `json:"nodes"`
	Subscription service.SubscriptionStatus `json:"subscription"`
}

// Health godoc
// @Summary      Check system health
// @Description  Liveness and the state of the invoice update subscription
// @Accept       json
// @Produce      json
// @Tags         Health
// @Success      200  {object}  HealthResponse
// @Router       /v2/health [get]
func (controller *HealthController) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, &HealthResponse{
		Result:       "OK",
		Nodes:        controller.svc.Nodes.Names(),
		Subscription: controller.svc.Subscription.Status(),
	})
}
