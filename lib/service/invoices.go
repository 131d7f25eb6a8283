package service

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/zpay32"
)

const maxDescriptionLength = 639

type CreateInvoiceRequest struct {
	Amount      int64
	Description string
	Expiry      int64 // in seconds, 0 means the configured default
	Node        string
}

type DecodedInvoice struct {
	PaymentHash    string    `json:"payment_hash"`
	PaymentRequest string    `json:"payment_request"`
	Amount         int64     `json:"amount"`
	Description    string    `json:"description"`
	Destination    string    `json:"destination"`
	CreatedAt      time.Time `json:"created_at"`
	Expiry         int64     `json:"expiry"`
	ExpiresAt      time.Time `json:"expires_at"`
	Expired        bool      `json:"expired"`
}

func (svc *LnpayService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*models.Invoice, error) {
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if len(req.Description) > maxDescriptionLength {
		return nil, fmt.Errorf("%w: description too long", ErrInvalidInput)
	}
	expiry := req.Expiry
	if expiry == 0 {
		expiry = svc.Config.DefaultInvoiceExpiry
	}
	if expiry < svc.Config.MinInvoiceExpiry || expiry > svc.Config.MaxInvoiceExpiry {
		return nil, fmt.Errorf("%w: expiry must be between %d and %d seconds", ErrInvalidInput, svc.Config.MinInvoiceExpiry, svc.Config.MaxInvoiceExpiry)
	}
	nodeName, client, err := svc.node(req.Node, svc.Nodes.Receiver())
	if err != nil {
		return nil, err
	}

	svc.Logger.Infof("Adding invoice: node:%s amount:%d expiry:%d", nodeName, req.Amount, expiry)
	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	created := svc.now()
	res, err := client.AddInvoice(callCtx, &lnrpc.Invoice{
		Memo:   req.Description,
		Value:  req.Amount,
		Expiry: expiry,
	})
	if err != nil {
		return nil, wrapNodeError(nodeName, err)
	}

	invoice := models.Invoice{
		PaymentHash:    hex.EncodeToString(res.RHash),
		PaymentRequest: res.PaymentRequest,
		Amount:         req.Amount,
		Description:    req.Description,
		Node:           nodeName,
		Status:         common.StatusPending,
		ExpiresAt:      created.Add(time.Duration(expiry) * time.Second),
		CreatedAt:      created,
	}
	if _, err := svc.DB.NewInsert().Model(&invoice).Exec(ctx); err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (svc *LnpayService) FindInvoiceByPaymentHash(ctx context.Context, hash string) (*models.Invoice, error) {
	var invoice models.Invoice
	err := svc.DB.NewSelect().Model(&invoice).Where("payment_hash = ?", hash).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %s", ErrNotFound, hash)
	}
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

// DecodeInvoice validates the payment request locally and asks the node for
// the authoritative decoding.
func (svc *LnpayService) DecodeInvoice(ctx context.Context, paymentRequest string, node string) (*DecodedInvoice, error) {
	paymentRequest, err := svc.DecodePaymentRequest(paymentRequest)
	if err != nil {
		return nil, err
	}
	nodeName, client, err := svc.node(node, svc.Nodes.Sender())
	if err != nil {
		return nil, err
	}
	callCtx, cancel := svc.nodeCallContext(ctx)
	defer cancel()
	payReq, err := client.DecodeBolt11(callCtx, paymentRequest)
	if err != nil {
		err = wrapNodeError(nodeName, err)
		if errors.Is(err, ErrNodeUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	created := time.Unix(payReq.Timestamp, 0).UTC()
	expiresAt := created.Add(time.Duration(payReq.Expiry) * time.Second)
	return &DecodedInvoice{
		PaymentHash:    payReq.PaymentHash,
		PaymentRequest: paymentRequest,
		Amount:         payReq.NumSatoshis,
		Description:    payReq.Description,
		Destination:    payReq.Destination,
		CreatedAt:      created,
		Expiry:         payReq.Expiry,
		ExpiresAt:      expiresAt,
		Expired:        svc.now().After(expiresAt),
	}, nil
}

// DecodePaymentRequest normalizes a BOLT11 string and checks that it parses
// for the network named by its prefix.
func (svc *LnpayService) DecodePaymentRequest(bolt11 string) (string, error) {
	bolt11 = strings.ToLower(strings.TrimSpace(bolt11))
	bolt11 = strings.TrimPrefix(bolt11, "lightning:")
	if len(bolt11) < 4 || !strings.HasPrefix(bolt11, "ln") {
		return "", fmt.Errorf("%w: not a lightning payment request", ErrInvalidInput)
	}
	if _, err := zpay32.Decode(bolt11, ChainFromCurrency(bolt11[2:])); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return bolt11, nil
}

func ChainFromCurrency(currency string) *chaincfg.Params {
	if strings.HasPrefix(currency, "bcrt") {
		return &chaincfg.RegressionNetParams
	} else if strings.HasPrefix(currency, "tb") {
		return &chaincfg.TestNet3Params
	} else if strings.HasPrefix(currency, "sb") {
		return &chaincfg.SimNetParams
	} else {
		return &chaincfg.MainNetParams
	}
}
