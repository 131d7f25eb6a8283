// Package lndmock is an in-memory lightning network for tests. Nodes issue
// real regtest BOLT11 invoices and settle each other's invoices on payment.
package lndmock

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	btcec "github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnwire"
	"github.com/lightningnetwork/lnd/zpay32"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var ErrSubscriptionClosed = errors.New("invoice subscription closed")

type Network struct {
	mu    sync.Mutex
	clock clock.Clock
	nodes map[string]*MockLND
}

func NewNetwork(c clock.Clock) *Network {
	return &Network{clock: c, nodes: map[string]*MockLND{}}
}

// AddNode creates a node from a hex private key.
func (n *Network) AddNode(alias, privkey string) (*MockLND, error) {
	privKeyBytes, err := hex.DecodeString(privkey)
	if err != nil {
		return nil, err
	}
	privKey, pubKey := btcec.PrivKeyFromBytes(privKeyBytes)
	node := &MockLND{
		alias:    alias,
		network:  n,
		privKey:  privKey,
		pubKey:   hex.EncodeToString(pubKey.SerializeCompressed()),
		invoices: map[string]*mockInvoice{},
		payments: map[string]*lnrpc.Payment{},
		updates:  make(chan *lnrpc.Invoice, 100),
	}
	n.mu.Lock()
	n.nodes[node.pubKey] = node
	n.mu.Unlock()
	return node, nil
}

func (n *Network) lookup(pubkey string) (*MockLND, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	node, ok := n.nodes[pubkey]
	return node, ok
}

type mockInvoice struct {
	hash           []byte
	preimage       []byte
	value          int64
	memo           string
	paymentRequest string
	creationDate   time.Time
	expiry         int64
	state          lnrpc.Invoice_InvoiceState
	amtPaid        int64
	settleDate     time.Time
}

func (i *mockInvoice) rpc() *lnrpc.Invoice {
	inv := &lnrpc.Invoice{
		Memo:           i.memo,
		RHash:          i.hash,
		Value:          i.value,
		ValueMsat:      1000 * i.value,
		CreationDate:   i.creationDate.Unix(),
		PaymentRequest: i.paymentRequest,
		Expiry:         i.expiry,
		State:          i.state,
	}
	if i.state == lnrpc.Invoice_SETTLED {
		inv.Settled = true
		inv.RPreimage = i.preimage
		inv.AmtPaid = i.amtPaid
		inv.AmtPaidSat = i.amtPaid
		inv.AmtPaidMsat = 1000 * i.amtPaid
		inv.SettleDate = i.settleDate.Unix()
	}
	return inv
}

type MockLND struct {
	mu       sync.Mutex
	alias    string
	network  *Network
	privKey  *btcec.PrivateKey
	pubKey   string
	invoices map[string]*mockInvoice
	payments map[string]*lnrpc.Payment
	updates  chan *lnrpc.Invoice

	fee           int64
	unavailable   bool
	paymentError  string
	pendingPays   bool
	sendCalls     int
	subscriptions int
}

var _ lnd.LightningClientWrapper = (*MockLND)(nil)

func (mlnd *MockLND) signMsg(msg []byte) ([]byte, error) {
	hash := sha256.Sum256(msg)
	return ecdsa.SignCompact(mlnd.privKey, hash[:], true)
}

// SetFee sets the routing fee charged for outgoing payments.
func (mlnd *MockLND) SetFee(fee int64) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	mlnd.fee = fee
}

// SetUnavailable makes every call fail like an unreachable node.
func (mlnd *MockLND) SetUnavailable(unavailable bool) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	mlnd.unavailable = unavailable
}

// FailPayments makes outgoing payments fail with reason. An empty reason
// lets them succeed again.
func (mlnd *MockLND) FailPayments(reason string) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	mlnd.paymentError = reason
}

// HoldPayments makes the pay call time out while the payment stays in flight.
func (mlnd *MockLND) HoldPayments(hold bool) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	mlnd.pendingPays = hold
}

func (mlnd *MockLND) SendPaymentCalls() int {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	return mlnd.sendCalls
}

func (mlnd *MockLND) unavailableErr() error {
	if mlnd.unavailable {
		return status.Error(codes.Unavailable, "connection error: desc = \"transport: Error while dialing: connection refused\"")
	}
	return nil
}

// SettleInvoice marks an invoice paid as if an outside wallet paid it.
func (mlnd *MockLND) SettleInvoice(paymentHash string) error {
	mlnd.mu.Lock()
	inv, ok := mlnd.invoices[paymentHash]
	if !ok {
		mlnd.mu.Unlock()
		return fmt.Errorf("unknown invoice %s", paymentHash)
	}
	inv.state = lnrpc.Invoice_SETTLED
	inv.amtPaid = inv.value
	inv.settleDate = mlnd.network.clock.Now()
	update := inv.rpc()
	mlnd.mu.Unlock()

	mlnd.publish(update)
	return nil
}

func (mlnd *MockLND) CancelInvoice(paymentHash string) error {
	mlnd.mu.Lock()
	inv, ok := mlnd.invoices[paymentHash]
	if !ok {
		mlnd.mu.Unlock()
		return fmt.Errorf("unknown invoice %s", paymentHash)
	}
	inv.state = lnrpc.Invoice_CANCELED
	update := inv.rpc()
	mlnd.mu.Unlock()

	mlnd.publish(update)
	return nil
}

// SetPaymentStatus overrides what TrackPayment reports for a hash.
func (mlnd *MockLND) SetPaymentStatus(paymentHash string, st lnrpc.Payment_PaymentStatus, preimage string, fee int64) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	payment, ok := mlnd.payments[paymentHash]
	if !ok {
		payment = &lnrpc.Payment{PaymentHash: paymentHash}
		mlnd.payments[paymentHash] = payment
	}
	payment.Status = st
	payment.PaymentPreimage = preimage
	payment.FeeSat = fee
	if st == lnrpc.Payment_FAILED {
		payment.FailureReason = lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE
	}
}

// CloseSubscription ends the current invoice subscription stream.
func (mlnd *MockLND) CloseSubscription() {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	close(mlnd.updates)
	mlnd.updates = make(chan *lnrpc.Invoice, 100)
}

func (mlnd *MockLND) Subscriptions() int {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	return mlnd.subscriptions
}

func (mlnd *MockLND) publish(update *lnrpc.Invoice) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	select {
	case mlnd.updates <- update:
	default:
	}
}

func (mlnd *MockLND) AddInvoice(ctx context.Context, req *lnrpc.Invoice, options ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	preimage := make([]byte, 32)
	if _, err := rand.Read(preimage); err != nil {
		return nil, err
	}
	hash := sha256.Sum256(preimage)
	msat := lnwire.MilliSatoshi(1000 * req.Value)
	created := mlnd.network.clock.Now()
	invoice := &zpay32.Invoice{
		Net:         &chaincfg.RegressionNetParams,
		MilliSat:    &msat,
		Timestamp:   created,
		PaymentHash: &hash,
		PaymentAddr: &[32]byte{},
		Features:    lnwire.NewFeatureVector(nil, lnwire.Features),
	}
	zpay32.Expiry(time.Duration(req.Expiry) * time.Second)(invoice)
	memo := req.Memo
	invoice.Description = &memo
	pr, err := invoice.Encode(zpay32.MessageSigner{
		SignCompact: mlnd.signMsg,
	})
	if err != nil {
		return nil, err
	}
	mlnd.invoices[hex.EncodeToString(hash[:])] = &mockInvoice{
		hash:           hash[:],
		preimage:       preimage,
		value:          req.Value,
		memo:           req.Memo,
		paymentRequest: pr,
		creationDate:   created,
		expiry:         req.Expiry,
		state:          lnrpc.Invoice_OPEN,
	}
	return &lnrpc.AddInvoiceResponse{
		RHash:          hash[:],
		PaymentRequest: pr,
		AddIndex:       uint64(len(mlnd.invoices)),
	}, nil
}

func (mlnd *MockLND) LookupInvoice(ctx context.Context, req *lnrpc.PaymentHash, options ...grpc.CallOption) (*lnrpc.Invoice, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	inv, ok := mlnd.invoices[hex.EncodeToString(req.RHash)]
	if !ok {
		return nil, status.Error(codes.NotFound, "unable to locate invoice")
	}
	return inv.rpc(), nil
}

// SendPaymentSync pays an invoice of another node in the same network.
func (mlnd *MockLND) SendPaymentSync(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error) {
	mlnd.mu.Lock()
	mlnd.sendCalls++
	if err := mlnd.unavailableErr(); err != nil {
		mlnd.mu.Unlock()
		return nil, err
	}
	paymentError, hold, fee := mlnd.paymentError, mlnd.pendingPays, mlnd.fee
	mlnd.mu.Unlock()

	decoded, err := zpay32.Decode(req.PaymentRequest, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	paymentHash := hex.EncodeToString(decoded.PaymentHash[:])
	amount := int64(*decoded.MilliSat) / 1000

	record := func(st lnrpc.Payment_PaymentStatus, preimage string) {
		mlnd.mu.Lock()
		defer mlnd.mu.Unlock()
		payment := &lnrpc.Payment{
			PaymentHash:     paymentHash,
			Value:           amount,
			ValueSat:        amount,
			PaymentRequest:  req.PaymentRequest,
			Status:          st,
			PaymentPreimage: preimage,
		}
		if st == lnrpc.Payment_SUCCEEDED {
			payment.Fee = fee
			payment.FeeSat = fee
		}
		if st == lnrpc.Payment_FAILED {
			payment.FailureReason = lnrpc.PaymentFailureReason_FAILURE_REASON_NO_ROUTE
		}
		mlnd.payments[paymentHash] = payment
	}

	if hold {
		record(lnrpc.Payment_IN_FLIGHT, "")
		return nil, status.Error(codes.DeadlineExceeded, "context deadline exceeded")
	}
	if paymentError != "" {
		record(lnrpc.Payment_FAILED, "")
		return &lnrpc.SendResponse{PaymentError: paymentError, PaymentHash: decoded.PaymentHash[:]}, nil
	}

	destination := hex.EncodeToString(decoded.Destination.SerializeCompressed())
	receiver, ok := mlnd.network.lookup(destination)
	if !ok {
		record(lnrpc.Payment_FAILED, "")
		return &lnrpc.SendResponse{PaymentError: "no_route", PaymentHash: decoded.PaymentHash[:]}, nil
	}
	preimage, err := receiver.receive(paymentHash, amount)
	if err != nil {
		record(lnrpc.Payment_FAILED, "")
		return &lnrpc.SendResponse{PaymentError: err.Error(), PaymentHash: decoded.PaymentHash[:]}, nil
	}
	record(lnrpc.Payment_SUCCEEDED, hex.EncodeToString(preimage))
	return &lnrpc.SendResponse{
		PaymentPreimage: preimage,
		PaymentHash:     decoded.PaymentHash[:],
		PaymentRoute: &lnrpc.Route{
			TotalFees:     fee,
			TotalAmt:      amount + fee,
			TotalFeesMsat: 1000 * fee,
			TotalAmtMsat:  1000 * (amount + fee),
		},
	}, nil
}

func (mlnd *MockLND) receive(paymentHash string, amount int64) ([]byte, error) {
	mlnd.mu.Lock()
	inv, ok := mlnd.invoices[paymentHash]
	if !ok {
		mlnd.mu.Unlock()
		return nil, errors.New("incorrect_or_unknown_payment_details")
	}
	if inv.state != lnrpc.Invoice_OPEN {
		mlnd.mu.Unlock()
		return nil, errors.New("invoice is already paid or canceled")
	}
	now := mlnd.network.clock.Now()
	if now.After(inv.creationDate.Add(time.Duration(inv.expiry) * time.Second)) {
		mlnd.mu.Unlock()
		return nil, errors.New("invoice expired")
	}
	inv.state = lnrpc.Invoice_SETTLED
	inv.amtPaid = amount
	inv.settleDate = now
	update := inv.rpc()
	mlnd.mu.Unlock()

	mlnd.publish(update)
	return inv.preimage, nil
}

type mockSubscription struct {
	ctx     context.Context
	updates chan *lnrpc.Invoice
}

func (sub *mockSubscription) Recv() (*lnrpc.Invoice, error) {
	select {
	case <-sub.ctx.Done():
		return nil, status.FromContextError(sub.ctx.Err()).Err()
	case inv, ok := <-sub.updates:
		if !ok {
			return nil, ErrSubscriptionClosed
		}
		return inv, nil
	}
}

func (mlnd *MockLND) SubscribeInvoices(ctx context.Context, req *lnrpc.InvoiceSubscription, options ...grpc.CallOption) (lnd.SubscribeInvoicesWrapper, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	mlnd.subscriptions++
	return &mockSubscription{ctx: ctx, updates: mlnd.updates}, nil
}

func (mlnd *MockLND) GetInfo(ctx context.Context, req *lnrpc.GetInfoRequest, options ...grpc.CallOption) (*lnrpc.GetInfoResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	return &lnrpc.GetInfoResponse{
		Version:           "0.17.3-beta commit=v0.17.3-beta",
		CommitHash:        "abc123",
		IdentityPubkey:    mlnd.pubKey,
		Alias:             mlnd.alias,
		NumActiveChannels: 1,
		NumPeers:          1,
		BlockHeight:       1000,
		SyncedToChain:     true,
		SyncedToGraph:     true,
		Chains: []*lnrpc.Chain{{
			Chain:   "bitcoin",
			Network: "regtest",
		}},
		Uris: []string{mlnd.pubKey + "@" + mlnd.alias + ":9735"},
	}, nil
}

func (mlnd *MockLND) WalletBalance(ctx context.Context, req *lnrpc.WalletBalanceRequest, options ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	return &lnrpc.WalletBalanceResponse{
		TotalBalance:       1_000_000,
		ConfirmedBalance:   900_000,
		UnconfirmedBalance: 100_000,
	}, nil
}

func (mlnd *MockLND) ChannelBalance(ctx context.Context, req *lnrpc.ChannelBalanceRequest, options ...grpc.CallOption) (*lnrpc.ChannelBalanceResponse, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	return &lnrpc.ChannelBalanceResponse{
		LocalBalance:            &lnrpc.Amount{Sat: 500_000, Msat: 500_000_000},
		RemoteBalance:           &lnrpc.Amount{Sat: 250_000, Msat: 250_000_000},
		PendingOpenLocalBalance: &lnrpc.Amount{Sat: 10_000, Msat: 10_000_000},
	}, nil
}

func (mlnd *MockLND) DecodeBolt11(ctx context.Context, bolt11 string, options ...grpc.CallOption) (*lnrpc.PayReq, error) {
	mlnd.mu.Lock()
	err := mlnd.unavailableErr()
	mlnd.mu.Unlock()
	if err != nil {
		return nil, err
	}
	inv, err := zpay32.Decode(bolt11, &chaincfg.RegressionNetParams)
	if err != nil {
		return nil, status.Error(codes.Unknown, err.Error())
	}
	result := &lnrpc.PayReq{
		Destination: hex.EncodeToString(inv.Destination.SerializeCompressed()),
		PaymentHash: hex.EncodeToString(inv.PaymentHash[:]),
		Timestamp:   inv.Timestamp.Unix(),
		Expiry:      int64(inv.Expiry().Seconds()),
		CltvExpiry:  int64(inv.MinFinalCLTVExpiry()),
	}
	if inv.MilliSat != nil {
		result.NumMsat = int64(*inv.MilliSat)
		result.NumSatoshis = int64(*inv.MilliSat) / 1000
	}
	if inv.Description != nil {
		result.Description = *inv.Description
	}
	return result, nil
}

func (mlnd *MockLND) TrackPayment(ctx context.Context, hash []byte, options ...grpc.CallOption) (*lnrpc.Payment, error) {
	mlnd.mu.Lock()
	defer mlnd.mu.Unlock()
	if err := mlnd.unavailableErr(); err != nil {
		return nil, err
	}
	payment, ok := mlnd.payments[hex.EncodeToString(hash)]
	if !ok {
		return nil, status.Error(codes.NotFound, "payment isn't initiated")
	}
	return &lnrpc.Payment{
		PaymentHash:     payment.PaymentHash,
		Value:           payment.Value,
		ValueSat:        payment.ValueSat,
		Fee:             payment.Fee,
		FeeSat:          payment.FeeSat,
		PaymentPreimage: payment.PaymentPreimage,
		PaymentRequest:  payment.PaymentRequest,
		Status:          payment.Status,
		FailureReason:   payment.FailureReason,
	}, nil
}

func (mlnd *MockLND) GetMainPubkey() string {
	return mlnd.pubKey
}
