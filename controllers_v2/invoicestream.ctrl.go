package v2controllers

import (
	"net/http"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	keepaliveInterval = 30 * time.Second
	// slow clients miss events rather than block the fan-out
	streamBufferSize = 16
)

type InvoiceStreamController struct {
	svc *service.LnpayService
}

func NewInvoiceStreamController(svc *service.LnpayService) *InvoiceStreamController {
	return &InvoiceStreamController{svc: svc}
}

type InvoiceEventWrapper struct {
	Type  string               `json:"type"`
	Event *models.InvoiceEvent `json:"event,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamInvoices godoc
// @Summary      Stream invoice updates
// @Description  WebSocket stream of invoice status changes reported by the receiving node
// @Tags         Invoice
// @Success      101  {object}  InvoiceEventWrapper
// @Router       /v2/invoices/stream [get]
// @Security     ApiToken
func (controller *InvoiceStreamController) StreamInvoices(c echo.Context) error {
	events := make(chan models.InvoiceEvent, streamBufferSize)
	subId := controller.svc.InvoicePubSub.Subscribe(common.TopicIncoming, events)
	defer controller.svc.InvoicePubSub.Unsubscribe(subId, common.TopicIncoming)

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	// drain client frames so close messages are noticed
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if err := ws.WriteJSON(&InvoiceEventWrapper{Type: "keepalive"}); err != nil {
		controller.svc.Logger.Error(err)
		return nil
	}
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			if err := ws.WriteJSON(&InvoiceEventWrapper{Type: "keepalive"}); err != nil {
				controller.svc.Logger.Error(err)
				return nil
			}
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := ws.WriteJSON(&InvoiceEventWrapper{Type: "invoice", Event: &event}); err != nil {
				controller.svc.Logger.Error(err)
				return nil
			}
		}
	}
}
