package integration_tests

import "time"

type ExpectedAddInvoiceRequestBody struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description,omitempty"`
	Expiry      int64  `json:"expiry,omitempty"`
	Node        string `json:"node,omitempty"`
}

type ExpectedPayInvoiceRequestBody struct {
	Invoice string `json:"invoice"`
	Node    string `json:"node,omitempty"`
}

type ExpectedInvoiceResponseBody struct {
	PaymentHash    string     `json:"payment_hash"`
	PaymentRequest string     `json:"payment_request"`
	Amount         int64      `json:"amount"`
	Description    string     `json:"description"`
	Node           string     `json:"node"`
	Status         string     `json:"status"`
	Preimage       string     `json:"preimage"`
	ExpiresAt      time.Time  `json:"expires_at"`
	SettledAt      *time.Time `json:"settled_at"`
	Source         string     `json:"source"`
	Stale          bool       `json:"stale"`
}

type ExpectedPaymentResponseBody struct {
	ID             int64  `json:"id"`
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
	Amount         int64  `json:"amount"`
	Fee            int64  `json:"fee"`
	Destination    string `json:"destination"`
	Node           string `json:"node"`
	Status         string `json:"status"`
	Preimage       string `json:"preimage"`
	ErrorMessage   string `json:"error_message"`
	IdempotencyKey string `json:"idempotency_key"`
	Cached         bool   `json:"cached"`
	Source         string `json:"source"`
	Stale          bool   `json:"stale"`
}

type ExpectedDecodeInvoiceResponseBody struct {
	PaymentHash string `json:"payment_hash"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Destination string `json:"destination"`
	Expiry      int64  `json:"expiry"`
	Expired     bool   `json:"expired"`
}

type ExpectedTransaction struct {
	Type        string `json:"type"`
	PaymentHash string `json:"payment_hash"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	Node        string `json:"node"`
}

type ExpectedTransactionsResponseBody struct {
	Transactions []ExpectedTransaction `json:"transactions"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
	Total        int                   `json:"total"`
}

type ExpectedBalanceResponseBody struct {
	Node             string `json:"node"`
	OnchainConfirmed int64  `json:"onchain_confirmed"`
	ChannelLocal     int64  `json:"channel_local"`
	TotalReceived    int64  `json:"total_received"`
	TotalSent        int64  `json:"total_sent"`
	TotalFees        int64  `json:"total_fees"`
	Stale            bool   `json:"stale"`
}

type ExpectedNodeInfoResponseBody struct {
	Name    string `json:"name"`
	Pubkey  string `json:"pubkey"`
	Alias   string `json:"alias"`
	Network string `json:"network"`
}

type ExpectedHealthResponseBody struct {
	Result       string   `json:"result"`
	Nodes        []string `json:"nodes"`
	Subscription struct {
		Running bool   `json:"running"`
		Source  string `json:"source"`
		Events  int64  `json:"events"`
	} `json:"subscription"`
}

type ExpectedStreamMessage struct {
	Type  string `json:"type"`
	Event *struct {
		Type        string `json:"type"`
		PaymentHash string `json:"payment_hash"`
		Status      string `json:"status"`
		Amount      int64  `json:"amount"`
		Preimage    string `json:"preimage"`
	} `json:"event"`
}
