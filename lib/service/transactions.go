package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/uptrace/bun"
)

type TransactionFilter struct {
	Type   string
	Status string
	Node   string
	Page   int
	Limit  int
}

// Transaction is the common listing shape of invoices and payments.
type Transaction struct {
	Type           string     `json:"type"`
	PaymentHash    string     `json:"payment_hash"`
	PaymentRequest string     `json:"payment_request"`
	Amount         int64      `json:"amount"`
	Fee            int64      `json:"fee"`
	Description    string     `json:"description"`
	Node           string     `json:"node"`
	Status         string     `json:"status"`
	Preimage       string     `json:"preimage,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
	id             int64
}

type TransactionPage struct {
	Transactions []Transaction `json:"transactions"`
	Page         int           `json:"page"`
	Limit        int           `json:"limit"`
	Total        int           `json:"total"`
}

var (
	invoiceStatuses = map[string]bool{common.StatusPending: true, common.StatusSucceeded: true, common.StatusExpired: true}
	paymentStatuses = map[string]bool{common.StatusPending: true, common.StatusSucceeded: true, common.StatusFailed: true}
)

// ListTransactions returns invoices and payments newest first. Without a type
// filter both tables are read up to the requested page and merged.
func (svc *LnpayService) ListTransactions(ctx context.Context, filter TransactionFilter) (*TransactionPage, error) {
	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.Limit == 0 {
		filter.Limit = common.DefaultPageSize
	}
	if filter.Page < 1 || filter.Limit < 1 || filter.Limit > common.MaxPageSize {
		return nil, fmt.Errorf("%w: page must be >= 1 and limit between 1 and %d", ErrInvalidInput, common.MaxPageSize)
	}
	includeInvoices := filter.Type == "" || filter.Type == common.TransactionTypeInvoice
	includePayments := filter.Type == "" || filter.Type == common.TransactionTypePayment
	if !includeInvoices && !includePayments {
		return nil, fmt.Errorf("%w: unknown transaction type %s", ErrInvalidInput, filter.Type)
	}
	if filter.Status != "" && !invoiceStatuses[filter.Status] && !paymentStatuses[filter.Status] {
		return nil, fmt.Errorf("%w: unknown status %s", ErrInvalidInput, filter.Status)
	}
	if filter.Node != "" {
		if _, ok := svc.Nodes.Get(filter.Node); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, filter.Node)
		}
	}
	// a status that only one side can have narrows the listing
	if filter.Status != "" {
		includeInvoices = includeInvoices && invoiceStatuses[filter.Status]
		includePayments = includePayments && paymentStatuses[filter.Status]
	}

	offset := (filter.Page - 1) * filter.Limit
	fetch := offset + filter.Limit
	if includeInvoices != includePayments {
		// a single table can page in the database directly
		fetch = filter.Limit
	}

	result := []Transaction{}
	total := 0
	if includeInvoices {
		invoices := []models.Invoice{}
		query := svc.DB.NewSelect().Model(&invoices).Apply(transactionFilter(filter)).OrderExpr("created_at DESC, id DESC").Limit(fetch)
		if !includePayments {
			query = query.Offset(offset)
		}
		count, err := query.ScanAndCount(ctx)
		if err != nil {
			return nil, err
		}
		total += count
		for i := range invoices {
			result = append(result, transactionFromInvoice(&invoices[i]))
		}
	}
	if includePayments {
		payments := []models.Payment{}
		query := svc.DB.NewSelect().Model(&payments).Apply(transactionFilter(filter)).OrderExpr("created_at DESC, id DESC").Limit(fetch)
		if !includeInvoices {
			query = query.Offset(offset)
		}
		count, err := query.ScanAndCount(ctx)
		if err != nil {
			return nil, err
		}
		total += count
		for i := range payments {
			result = append(result, transactionFromPayment(&payments[i]))
		}
	}

	if includeInvoices && includePayments {
		sort.SliceStable(result, func(i, j int) bool {
			if result[i].CreatedAt.Equal(result[j].CreatedAt) {
				return result[i].id > result[j].id
			}
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
		if offset >= len(result) {
			result = []Transaction{}
		} else {
			end := offset + filter.Limit
			if end > len(result) {
				end = len(result)
			}
			result = result[offset:end]
		}
	}
	return &TransactionPage{
		Transactions: result,
		Page:         filter.Page,
		Limit:        filter.Limit,
		Total:        total,
	}, nil
}

func transactionFilter(filter TransactionFilter) func(q *bun.SelectQuery) *bun.SelectQuery {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Node != "" {
			q = q.Where("node = ?", filter.Node)
		}
		return q
	}
}

func transactionFromInvoice(invoice *models.Invoice) Transaction {
	expiresAt := invoice.ExpiresAt
	return Transaction{
		Type:           common.TransactionTypeInvoice,
		PaymentHash:    invoice.PaymentHash,
		PaymentRequest: invoice.PaymentRequest,
		Amount:         invoice.Amount,
		Description:    invoice.Description,
		Node:           invoice.Node,
		Status:         invoice.Status,
		Preimage:       invoice.Preimage,
		CreatedAt:      invoice.CreatedAt,
		ExpiresAt:      &expiresAt,
		SettledAt:      nullTimePtr(invoice.SettledAt),
		id:             invoice.ID,
	}
}

func transactionFromPayment(payment *models.Payment) Transaction {
	return Transaction{
		Type:           common.TransactionTypePayment,
		PaymentHash:    payment.PaymentHash,
		PaymentRequest: payment.PaymentRequest,
		Amount:         payment.Amount,
		Fee:            payment.Fee,
		Description:    payment.Description,
		Node:           payment.Node,
		Status:         payment.Status,
		Preimage:       payment.Preimage,
		ErrorMessage:   payment.ErrorMessage,
		CreatedAt:      payment.CreatedAt,
		SettledAt:      nullTimePtr(payment.SettledAt),
		id:             payment.ID,
	}
}

func nullTimePtr(t bun.NullTime) *time.Time {
	if t.IsZero() {
		return nil
	}
	value := t.Time
	return &value
}
