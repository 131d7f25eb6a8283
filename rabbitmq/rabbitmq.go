package rabbitmq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getsentry/sentry-go"
	"github.com/labstack/gommon/log"
	"github.com/lightningnetwork/lnd/lnrpc"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/ziflex/lecho/v3"
)

// bufPool reuses encode buffers between published events.
var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

const (
	contentTypeJSON = "application/json"

	lndInvoiceRoutingKey = "invoice.incoming.#"
)

var ErrDisconnected = errors.New("disconnected from RabbitMQ")

type (
	IncomingInvoiceHandler = func(ctx context.Context, invoice *lnrpc.Invoice) error
	SubscribeToEventsFunc  = func(ctx context.Context) (in chan models.InvoiceEvent, out chan models.InvoiceEvent, err error)
	EncodeInvoiceEventFunc = func(ctx context.Context, w io.Writer, event models.InvoiceEvent) error
)

type Client interface {
	// SubscribeToLndInvoices consumes raw lnd invoice updates published by a
	// node side bridge and passes each one to handler.
	SubscribeToLndInvoices(context.Context, IncomingInvoiceHandler) error
	// StartPublishInvoiceEvents republishes normalized events to the event exchange.
	StartPublishInvoiceEvents(context.Context, SubscribeToEventsFunc, EncodeInvoiceEventFunc) error
	// Close will close all connections to rabbitmq
	Close() error
}

type DefaultClient struct {
	amqpClient AMQPClient

	logger *lecho.Logger

	lndInvoiceConsumerQueueName string
	lndInvoiceExchange          string
	lnpayEventExchange          string
}

type ClientOption = func(client *DefaultClient)

func WithLndInvoiceExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.lndInvoiceExchange = exchange
	}
}

func WithLnpayEventExchange(exchange string) ClientOption {
	return func(client *DefaultClient) {
		client.lnpayEventExchange = exchange
	}
}

func WithLndInvoiceConsumerQueueName(name string) ClientOption {
	return func(client *DefaultClient) {
		client.lndInvoiceConsumerQueueName = name
	}
}

func WithLogger(logger *lecho.Logger) ClientOption {
	return func(client *DefaultClient) {
		client.logger = logger
	}
}

func NewClient(amqpClient AMQPClient, options ...ClientOption) (Client, error) {
	client := &DefaultClient{
		amqpClient: amqpClient,

		logger: lecho.New(
			os.Stdout,
			lecho.WithLevel(log.DEBUG),
			lecho.WithTimestamp(),
		),

		lndInvoiceConsumerQueueName: "lnd_invoice_consumer",
		lndInvoiceExchange:          "lnd_invoice",
		lnpayEventExchange:          "lnpay_event",
	}

	for _, opt := range options {
		opt(client)
	}

	return client, nil
}

func (client *DefaultClient) Close() error { return client.amqpClient.Close() }

func (client *DefaultClient) SubscribeToLndInvoices(ctx context.Context, handler IncomingInvoiceHandler) error {
	deliveries, err := client.amqpClient.Listen(ctx, client.lndInvoiceExchange, lndInvoiceRoutingKey, client.lndInvoiceConsumerQueueName)
	if err != nil {
		return err
	}

	client.logger.Info("Starting RabbitMQ invoice consumer loop")
	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case delivery, ok := <-deliveries:
			if !ok {
				return ErrDisconnected
			}
			var invoice lnrpc.Invoice

			err := json.Unmarshal(delivery.Body, &invoice)
			if err != nil {
				captureErr(client.logger, err)

				// a message we cannot parse will never parse, drop it
				if err := delivery.Nack(false, false); err != nil {
					captureErr(client.logger, err)
				}
				continue
			}

			err = handler(ctx, &invoice)
			if err != nil {
				captureErr(client.logger, err)

				// no requeue, a handler error would loop forever
				if err := delivery.Nack(false, false); err != nil {
					captureErr(client.logger, err)
				}
				continue
			}

			if err := delivery.Ack(false); err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

func (client *DefaultClient) StartPublishInvoiceEvents(ctx context.Context, subscribeFunc SubscribeToEventsFunc, payloadFunc EncodeInvoiceEventFunc) error {
	err := client.amqpClient.ExchangeDeclare(
		client.lnpayEventExchange,
		// topic exchanges route on the event's routing key
		"topic",
		// durable
		true,
		// auto delete
		false,
		// internal
		false,
		// no wait
		false,
		nil,
	)
	if err != nil {
		return err
	}

	client.logger.Info("Starting RabbitMQ event publisher")

	in, out, err := subscribeFunc(ctx)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return context.Canceled
		case event, ok := <-in:
			if !ok {
				return ErrDisconnected
			}
			if err := client.publishToEventExchange(ctx, event, payloadFunc); err != nil {
				captureErr(client.logger, err)
			}
		case event, ok := <-out:
			if !ok {
				return ErrDisconnected
			}
			if err := client.publishToEventExchange(ctx, event, payloadFunc); err != nil {
				captureErr(client.logger, err)
			}
		}
	}
}

// RoutingKey is <type>.<status>, e.g. invoice.succeeded or payment.failed.
func RoutingKey(event models.InvoiceEvent) string {
	return fmt.Sprintf("%s.%s", event.Type, event.Status)
}

func (client *DefaultClient) publishToEventExchange(ctx context.Context, event models.InvoiceEvent, payloadFunc EncodeInvoiceEventFunc) error {
	payload := bufPool.Get().(*bytes.Buffer)
	payload.Reset()
	defer bufPool.Put(payload)

	if err := payloadFunc(ctx, payload, event); err != nil {
		return err
	}

	key := RoutingKey(event)
	err := client.amqpClient.PublishWithContext(ctx,
		client.lnpayEventExchange,
		key,
		false,
		false,
		amqp.Publishing{
			ContentType: contentTypeJSON,
			Body:        payload.Bytes(),
		},
	)
	if err != nil {
		return err
	}

	client.logger.Debugf("Successfully published event: routing_key:%s payment_hash:%s", key, event.PaymentHash)
	return nil
}

func captureErr(logger *lecho.Logger, err error) {
	logger.Error(err)
	sentry.CaptureException(err)
}
