package v2controllers

import (
	"net/http"

	"github.com/getAlby/lnpay.go/lib/responses"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/labstack/echo/v4"
)

type NodeInfoController struct {
	svc *service.LnpayService
}

func NewNodeInfoController(svc *service.LnpayService) *NodeInfoController {
	return &NodeInfoController{svc: svc}
}

// NodeInfo godoc
// @Summary      Node info
// @Description  Identity and sync state of a node
// @Accept       json
// @Produce      json
// @Tags         Node
// @Param        node  query     string  false  "node name, defaults to the receiving node"
// @Success      200   {object}  service.NodeInfo
// @Failure      400   {object}  responses.ErrorResponse
// @Failure      503   {object}  responses.ErrorResponse
// @Router       /v2/node/info [get]
// @Security     ApiToken
func (controller *NodeInfoController) NodeInfo(c echo.Context) error {
	info, err := controller.svc.GetNodeInfo(c.Request().Context(), c.QueryParam("node"))
	if err != nil {
		return responses.RespondWithServiceError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}
