package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Invoice : an invoice issued by one of our nodes
type Invoice struct {
	ID             int64        `json:"id" bun:",pk,autoincrement"`
	PaymentHash    string       `json:"payment_hash" bun:",unique,notnull"`
	PaymentRequest string       `json:"payment_request" bun:",notnull"`
	Amount         int64        `json:"amount" validate:"gte=0"`
	Description    string       `json:"description" bun:",nullzero"`
	Node           string       `json:"node" bun:",notnull"`
	Status         string       `json:"status" bun:",notnull,default:'pending'"`
	Preimage       string       `json:"preimage,omitempty" bun:",nullzero"`
	ExpiresAt      time.Time    `json:"expires_at" bun:",notnull"`
	SettledAt      bun.NullTime `json:"settled_at"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
}
