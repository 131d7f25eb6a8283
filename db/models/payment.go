package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment : an outgoing payment attempt made by one of our nodes
type Payment struct {
	ID             int64        `json:"id" bun:",pk,autoincrement"`
	PaymentHash    string       `json:"payment_hash" bun:",notnull"`
	PaymentRequest string       `json:"payment_request" bun:",notnull"`
	Amount         int64        `json:"amount" validate:"gte=0"`
	Fee            int64        `json:"fee"`
	Destination    string       `json:"destination" bun:",nullzero"`
	Description    string       `json:"description" bun:",nullzero"`
	Node           string       `json:"node" bun:",notnull"`
	Status         string       `json:"status" bun:",notnull,default:'pending'"`
	Preimage       string       `json:"preimage,omitempty" bun:",nullzero"`
	ErrorMessage   string       `json:"error_message,omitempty" bun:",nullzero"`
	IdempotencyKey string       `json:"idempotency_key,omitempty" bun:",nullzero,unique"`
	RetryCount     int          `json:"retry_count"`
	CreatedAt      time.Time    `json:"created_at" bun:",nullzero,notnull,default:current_timestamp"`
	UpdatedAt      bun.NullTime `json:"updated_at"`
	SettledAt      bun.NullTime `json:"settled_at"`
}
