package lnd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/ziflex/lecho/v3"
	"google.golang.org/grpc"
)

type LightningClientWrapper interface {
	AddInvoice(ctx context.Context, req *lnrpc.Invoice, options ...grpc.CallOption) (*lnrpc.AddInvoiceResponse, error)
	LookupInvoice(ctx context.Context, req *lnrpc.PaymentHash, options ...grpc.CallOption) (*lnrpc.Invoice, error)
	SendPaymentSync(ctx context.Context, req *lnrpc.SendRequest, options ...grpc.CallOption) (*lnrpc.SendResponse, error)
	SubscribeInvoices(ctx context.Context, req *lnrpc.InvoiceSubscription, options ...grpc.CallOption) (SubscribeInvoicesWrapper, error)
	GetInfo(ctx context.Context, req *lnrpc.GetInfoRequest, options ...grpc.CallOption) (*lnrpc.GetInfoResponse, error)
	WalletBalance(ctx context.Context, req *lnrpc.WalletBalanceRequest, options ...grpc.CallOption) (*lnrpc.WalletBalanceResponse, error)
	ChannelBalance(ctx context.Context, req *lnrpc.ChannelBalanceRequest, options ...grpc.CallOption) (*lnrpc.ChannelBalanceResponse, error)
	DecodeBolt11(ctx context.Context, bolt11 string, options ...grpc.CallOption) (*lnrpc.PayReq, error)
	TrackPayment(ctx context.Context, hash []byte, options ...grpc.CallOption) (*lnrpc.Payment, error)
	GetMainPubkey() (pubkey string)
}

type SubscribeInvoicesWrapper interface {
	Recv() (*lnrpc.Invoice, error)
}

// NodeRegistry holds one client per named node together with the roles
// the nodes play in the demo: the receiver issues invoices, the sender pays them.
type NodeRegistry struct {
	nodes    map[string]LightningClientWrapper
	receiver string
	sender   string
}

func NewNodeRegistry(nodes map[string]LightningClientWrapper, receiver, sender string) (*NodeRegistry, error) {
	if _, ok := nodes[receiver]; !ok {
		return nil, fmt.Errorf("receiver node %s is not registered", receiver)
	}
	if _, ok := nodes[sender]; !ok {
		return nil, fmt.Errorf("sender node %s is not registered", sender)
	}
	return &NodeRegistry{
		nodes:    nodes,
		receiver: receiver,
		sender:   sender,
	}, nil
}

// Get returns the client for the node name. An empty name is not resolved here;
// callers pick the role default first.
func (r *NodeRegistry) Get(name string) (LightningClientWrapper, bool) {
	client, ok := r.nodes[name]
	return client, ok
}

func (r *NodeRegistry) Receiver() string { return r.receiver }

func (r *NodeRegistry) Sender() string { return r.sender }

func (r *NodeRegistry) Names() []string {
	names := make([]string, 0, len(r.nodes))
	for name := range r.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes the connections of all clients that hold one.
func (r *NodeRegistry) Close() error {
	var errs []error
	for _, client := range r.nodes {
		if closer, ok := client.(io.Closer); ok {
			errs = append(errs, closer.Close())
		}
	}
	return errors.Join(errs...)
}

// InitLNClients connects to every configured node. Nodes that are still
// booting are retried with an exponential backoff.
func InitLNClients(c *Config, logger *lecho.Logger, ctx context.Context) (*NodeRegistry, error) {
	options, err := c.NodeOptions()
	if err != nil {
		return nil, err
	}
	nodes := map[string]LightningClientWrapper{}
	for name, opts := range options {
		client, err := NewLNDclient(opts, ctx)
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		var getInfo *lnrpc.GetInfoResponse
		connect := func() error {
			getInfo, err = client.GetInfo(ctx, &lnrpc.GetInfoRequest{})
			if err != nil {
				logger.Infof("Node %s not reachable yet, retrying: %v", name, err)
			}
			return err
		}
		expBackoff := backoff.NewExponentialBackOff()
		expBackoff.MaxInterval = 10 * time.Second
		err = backoff.Retry(connect, backoff.WithContext(backoff.WithMaxRetries(expBackoff, c.ConnectRetries), ctx))
		if err != nil {
			return nil, fmt.Errorf("node %s: %w", name, err)
		}
		client.IdentityPubkey = getInfo.IdentityPubkey
		logger.Infof("Connected to node %s: %s", name, client.IdentityPubkey)
		nodes[name] = client
	}
	return NewNodeRegistry(nodes, c.ReceiverNode, c.SenderNode)
}
