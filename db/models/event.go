package models

import (
	"time"
)

// InvoiceEvent is the normalized status change pushed to live listeners.
// It is never persisted.
type InvoiceEvent struct {
	Type        string     `json:"type"`
	PaymentHash string     `json:"payment_hash"`
	Status      string     `json:"status"`
	Amount      int64      `json:"amount"`
	Preimage    string     `json:"preimage,omitempty"`
	SettledAt   *time.Time `json:"settled_at,omitempty"`
}
