package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/getAlby/lnpay.go/db"
	"github.com/getAlby/lnpay.go/db/migrations"
	"github.com/getAlby/lnpay.go/docs"
	"github.com/getAlby/lnpay.go/lib/logging"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/getAlby/lnpay.go/lib/transport"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getAlby/lnpay.go/rabbitmq"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/uptrace/bun/migrate"
	ddEcho "gopkg.in/DataDog/dd-trace-go.v1/contrib/labstack/echo.v4"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// @title        lnpay.go
// @version      0.1.0
// @description  Demo backend letting two Lightning nodes exchange payments, with status reconciliation and idempotent payment submission.

// @contact.name   Alby
// @contact.url    https://getalby.com
// @contact.email  hello@getalby.com

// @license.name  GNU GPLv3
// @license.url   https://www.gnu.org/licenses/gpl-3.0.en.html

// @BasePath  /

// @securityDefinitions.apikey  ApiToken
// @in                          header
// @name                        Authorization
// @schemes                     https http
func main() {
	c := &service.Config{}

	// Load configuration from environment variables
	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	logger := logging.Logger(c.LogFilePath)

	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStartup()
	migrator := migrate.NewMigrator(dbConn, migrations.Migrations)
	err = migrator.Init(startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing db migrator: %v", err)
	}
	group, err := migrator.Migrate(startupCtx)
	if err != nil {
		logger.Fatalf("Error migrating database: %v", err)
	}
	if !group.IsZero() {
		logger.Infof("Migrated database to %s", group)
	}

	// sentry init needs to happen before the echo middlewares are added
	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn:              c.SentryDSN,
			IgnoreErrors:     []string{"401"},
			EnableTracing:    c.SentryTracesSampleRate > 0,
			TracesSampleRate: c.SentryTracesSampleRate,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	lnCfg, err := lnd.LoadConfig()
	if err != nil {
		logger.Fatalf("Error loading LN config: %v", err)
	}
	nodes, err := lnd.InitLNClients(lnCfg, logger, startupCtx)
	if err != nil {
		logger.Fatalf("Error initializing the node connections: %v", err)
	}
	defer nodes.Close()

	// no rabbitmq features without a RABBITMQ_URI
	var rabbitmqClient rabbitmq.Client
	if c.RabbitMQUri != "" {
		amqpClient, err := rabbitmq.DialAMQP(c.RabbitMQUri, rabbitmq.WithAmqpLogger(logger))
		if err != nil {
			logger.Fatal(err)
		}

		rabbitmqClient, err = rabbitmq.NewClient(amqpClient,
			rabbitmq.WithLogger(logger),
			rabbitmq.WithLndInvoiceExchange(c.RabbitMQLndInvoiceExchange),
			rabbitmq.WithLnpayEventExchange(c.RabbitMQLnpayEventExchange),
			rabbitmq.WithLndInvoiceConsumerQueueName(c.RabbitMQInvoiceConsumerQueueName),
		)
		if err != nil {
			logger.Fatal(err)
		}

		defer rabbitmqClient.Close()
	}

	svc := service.NewLnpayService(c, dbConn, nodes, logger)
	svc.RabbitMQClient = rabbitmqClient

	e := transport.InitEcho(c, logger)
	if c.DatadogAgentUrl != "" {
		tracer.Start(tracer.WithAgentAddr(c.DatadogAgentUrl))
		defer tracer.Stop()
		e.Use(ddEcho.Middleware(ddEcho.WithServiceName("lnpay.go")))
	}

	logMw := transport.CreateLoggingMiddleware(logger)
	if err := transport.RegisterV2Endpoints(svc, e, logMw); err != nil {
		logger.Fatalf("Error registering endpoints: %v", err)
	}

	docs.SwaggerInfo.Host = c.Host
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	var backgroundWg sync.WaitGroup
	backGroundCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	backgroundWg.Add(1)
	go func() {
		defer backgroundWg.Done()
		// the fan-out is not restarted, /v2/health reports when it stopped
		if err := svc.StartInvoiceRoutine(backGroundCtx); err != nil {
			sentry.CaptureException(err)
			svc.Logger.Errorf("Invoice routine stopped: %v", err)
			return
		}
		svc.Logger.Info("Invoice routine done")
	}()

	backgroundWg.Add(1)
	go func() {
		defer backgroundWg.Done()
		err := svc.StartPendingPaymentRoutine(backGroundCtx)
		if err != nil && backGroundCtx.Err() == nil {
			sentry.CaptureException(err)
			svc.Logger.Error(err)
		}
		svc.Logger.Info("Pending payment check routine done")
	}()

	if c.WebhookUrl != "" {
		backgroundWg.Add(1)
		go func() {
			defer backgroundWg.Done()
			svc.StartWebhookSubscription(backGroundCtx, c.WebhookUrl)
			svc.Logger.Info("Webhook routine done")
		}()
	}

	if svc.RabbitMQClient != nil {
		backgroundWg.Add(1)
		go func() {
			defer backgroundWg.Done()
			err := svc.RabbitMQClient.StartPublishInvoiceEvents(backGroundCtx,
				svc.SubscribeIncomingOutgoingInvoices,
				svc.EncodeInvoiceEvent,
			)
			if err != nil && backGroundCtx.Err() == nil {
				svc.Logger.Error(err)
				sentry.CaptureException(err)
			}
			svc.Logger.Info("RabbitMQ event publisher done")
		}()
	}

	if c.EnablePrometheus {
		go transport.StartPrometheusEcho(logger, c.PrometheusPort, e)
	}

	go func() {
		if err := e.Start(fmt.Sprintf(":%v", c.Port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal("shutting down the server")
		}
	}()

	<-backGroundCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		e.Logger.Fatal(err)
	}
	backgroundWg.Wait()
	svc.Logger.Info("lnpay.go exiting gracefully. Goodbye.")
}
