package service

import (
	"strings"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/lightningnetwork/lnd/lnrpc"
)

// InvoiceStatusFromNode derives the invoice status from the node's view.
// An unsettled invoice is expired only when now is strictly after expiresAt.
func InvoiceStatusFromNode(invoice *lnrpc.Invoice, expiresAt, now time.Time) string {
	if invoice.State == lnrpc.Invoice_SETTLED {
		return common.StatusSucceeded
	}
	if invoice.State == lnrpc.Invoice_CANCELED || now.After(expiresAt) {
		return common.StatusExpired
	}
	return common.StatusPending
}

// InvoiceEventStatus maps a pushed invoice update.
func InvoiceEventStatus(invoice *lnrpc.Invoice) string {
	switch invoice.State {
	case lnrpc.Invoice_SETTLED:
		return common.StatusSucceeded
	case lnrpc.Invoice_CANCELED:
		return common.StatusExpired
	default:
		return common.StatusPending
	}
}

func PaymentStatusFromNode(status lnrpc.Payment_PaymentStatus) string {
	return NormalizePaymentStatus(status.String())
}

// NormalizePaymentStatus maps any raw payment outcome label onto
// pending, succeeded or failed. Expired and canceled outcomes count as failed.
func NormalizePaymentStatus(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "succeeded", "success", "settled", "complete", "completed", "paid":
		return common.StatusSucceeded
	case "failed", "failure", "error", "expired", "canceled", "cancelled":
		return common.StatusFailed
	default:
		return common.StatusPending
	}
}

func IsTerminalInvoiceStatus(status string) bool {
	return status == common.StatusSucceeded || status == common.StatusExpired
}

func IsTerminalPaymentStatus(status string) bool {
	return status == common.StatusSucceeded || status == common.StatusFailed
}
