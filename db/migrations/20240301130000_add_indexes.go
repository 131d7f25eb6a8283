package migrations

import (
	"context"

	"github.com/getAlby/lnpay.go/db/models"
	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateIndex().
			Model((*models.Payment)(nil)).
			Index("index_payments_on_payment_hash").
			IfNotExists().
			Column("payment_hash").
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*models.Payment)(nil)).
			Index("index_payments_on_status_created_at").
			IfNotExists().
			Column("status", "created_at").
			Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateIndex().
			Model((*models.Invoice)(nil)).
			Index("index_invoices_on_status_created_at").
			IfNotExists().
			Column("status", "created_at").
			Exec(ctx); err != nil {
			return err
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		for _, idx := range []string{
			"index_payments_on_payment_hash",
			"index_payments_on_status_created_at",
			"index_invoices_on_status_created_at",
		} {
			if _, err := db.NewDropIndex().Index(idx).IfExists().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
