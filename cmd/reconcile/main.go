package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/getAlby/lnpay.go/db"
	"github.com/getAlby/lnpay.go/lib/logging"
	"github.com/getAlby/lnpay.go/lib/service"
	"github.com/getAlby/lnpay.go/lnd"
	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// one-shot reconciliation of pending invoices and payments against the nodes
func main() {
	minAge := flag.Duration("min-age", time.Hour, "only check rows created at least this long ago, to skip in-flight payments")
	flag.Parse()

	c := &service.Config{}

	err := godotenv.Load(".env")
	if err != nil {
		fmt.Println("Failed to load .env file")
	}
	err = envconfig.Process("", c)
	if err != nil {
		log.Fatalf("Error loading environment variables: %v", err)
	}

	logger := logging.Logger(c.LogFilePath)

	if c.SentryDSN != "" {
		if err = sentry.Init(sentry.ClientOptions{
			Dsn: c.SentryDSN,
		}); err != nil {
			logger.Errorf("sentry init error: %v", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	dbConn, err := db.Open(c)
	if err != nil {
		logger.Fatalf("Error initializing db connection: %v", err)
	}
	defer dbConn.Close()

	ctx := context.Background()
	lnCfg, err := lnd.LoadConfig()
	if err != nil {
		logger.Fatalf("Failed to load lnd config %v", err)
	}
	nodes, err := lnd.InitLNClients(lnCfg, logger, ctx)
	if err != nil {
		logger.Fatalf("Error initializing the node connections: %v", err)
	}
	defer nodes.Close()

	svc := service.NewLnpayService(c, dbConn, nodes, logger)

	until := time.Now().UTC().Add(-*minAge)
	pendingInvoices, err := svc.GetPendingInvoicesUntil(ctx, until)
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatal(err)
	}
	report, err := svc.CheckPendingInvoices(ctx, pendingInvoices)
	if err != nil {
		sentry.CaptureException(err)
		logger.Error(err)
	}
	logger.Infof("Invoices: checked:%d changed:%d stale:%d", report.Checked, report.Changed, report.Stale)

	pendingPayments, err := svc.GetPendingPaymentsUntil(ctx, until)
	if err != nil {
		sentry.CaptureException(err)
		logger.Fatal(err)
	}
	report, err = svc.CheckPendingPayments(ctx, pendingPayments)
	if err != nil {
		sentry.CaptureException(err)
		logger.Error(err)
	}
	logger.Infof("Payments: checked:%d changed:%d stale:%d", report.Checked, report.Changed, report.Stale)
}
