package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getAlby/lnpay.go/rabbitmq"
	"github.com/lightningnetwork/lnd/clock"
	"github.com/uptrace/bun"
	"github.com/ziflex/lecho/v3"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvoiceExpired  = errors.New("invoice expired")
	ErrNodeUnavailable = errors.New("node unavailable")
	ErrUnknownNode     = errors.New("unknown node")
)

type LnpayService struct {
	Config         *Config
	DB             *bun.DB
	Nodes          *lnd.NodeRegistry
	Logger         *lecho.Logger
	Clock          clock.Clock
	InvoicePubSub  *Pubsub
	RabbitMQClient rabbitmq.Client
	Subscription   *SubscriptionState
}

func NewLnpayService(c *Config, db *bun.DB, nodes *lnd.NodeRegistry, logger *lecho.Logger) *LnpayService {
	return &LnpayService{
		Config:        c,
		DB:            db,
		Nodes:         nodes,
		Logger:        logger,
		Clock:         clock.NewDefaultClock(),
		InvoicePubSub: NewPubsub(),
		Subscription:  &SubscriptionState{},
	}
}

// now returns the current time in UTC so stored timestamps compare and sort
// the same way on every database.
func (svc *LnpayService) now() time.Time {
	return svc.Clock.Now().UTC()
}

// node resolves a node name, falling back to the given role default.
func (svc *LnpayService) node(name, fallback string) (string, lnd.LightningClientWrapper, error) {
	if name == "" {
		name = fallback
	}
	client, ok := svc.Nodes.Get(name)
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
	}
	return name, client, nil
}

func (svc *LnpayService) nodeCallContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, time.Duration(svc.Config.NodeCallTimeout)*time.Second)
}

// wrapNodeError classifies a failed node call.
func wrapNodeError(node string, err error) error {
	if lnd.IsTransportError(err) {
		return fmt.Errorf("%w: %s: %v", ErrNodeUnavailable, node, err)
	}
	return err
}
