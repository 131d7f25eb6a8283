package service

import (
	"context"
	"time"

	"github.com/getAlby/lnpay.go/common"
	"github.com/getAlby/lnpay.go/db/models"
	"github.com/getsentry/sentry-go"
)

type ReconcileReport struct {
	Checked int
	Changed int
	Stale   int
}

func (svc *LnpayService) GetPendingPaymentsUntil(ctx context.Context, until time.Time) ([]models.Payment, error) {
	payments := []models.Payment{}
	err := svc.DB.NewSelect().Model(&payments).
		Where("status = ?", common.StatusPending).
		Where("created_at <= ?", until).
		OrderExpr("id ASC").
		Scan(ctx)
	return payments, err
}

func (svc *LnpayService) GetPendingInvoicesUntil(ctx context.Context, until time.Time) ([]models.Invoice, error) {
	invoices := []models.Invoice{}
	err := svc.DB.NewSelect().Model(&invoices).
		Where("status = ?", common.StatusPending).
		Where("created_at <= ?", until).
		OrderExpr("id ASC").
		Scan(ctx)
	return invoices, err
}

// CheckPendingPayments asks the paying node about every pending payment.
func (svc *LnpayService) CheckPendingPayments(ctx context.Context, pending []models.Payment) (report ReconcileReport, err error) {
	for i := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		view, err := svc.reconcilePayment(ctx, &pending[i])
		if err != nil {
			svc.Logger.Errorf("Error checking pending payment: payment_id:%d %v", pending[i].ID, err)
			sentry.CaptureException(err)
			continue
		}
		report.Checked++
		if view.Stale {
			report.Stale++
		}
		if view.Status != common.StatusPending {
			report.Changed++
		}
	}
	return report, nil
}

func (svc *LnpayService) CheckPendingInvoices(ctx context.Context, pending []models.Invoice) (report ReconcileReport, err error) {
	for _, invoice := range pending {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		view, err := svc.ReconcileInvoice(ctx, invoice.PaymentHash)
		if err != nil {
			svc.Logger.Errorf("Error checking pending invoice: invoice_id:%d %v", invoice.ID, err)
			sentry.CaptureException(err)
			continue
		}
		report.Checked++
		if view.Stale {
			report.Stale++
		}
		if view.Status != common.StatusPending {
			report.Changed++
		}
	}
	return report, nil
}

// StartPendingPaymentRoutine reconciles pending payments once and then on the
// configured interval until ctx is done.
func (svc *LnpayService) StartPendingPaymentRoutine(ctx context.Context) error {
	check := func() error {
		pending, err := svc.GetPendingPaymentsUntil(ctx, svc.now())
		if err != nil {
			return err
		}
		svc.Logger.Infof("Found %d pending payments", len(pending))
		report, err := svc.CheckPendingPayments(ctx, pending)
		if err != nil {
			return err
		}
		svc.Logger.Infof("Pending payment check done: checked:%d changed:%d stale:%d", report.Checked, report.Changed, report.Stale)
		return nil
	}
	if err := check(); err != nil {
		return err
	}
	if svc.Config.PendingPaymentCheckInterval <= 0 {
		return nil
	}
	ticker := svc.Clock.TickAfter(time.Duration(svc.Config.PendingPaymentCheckInterval) * time.Second)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker:
			if err := check(); err != nil {
				return err
			}
			ticker = svc.Clock.TickAfter(time.Duration(svc.Config.PendingPaymentCheckInterval) * time.Second)
		}
	}
}
