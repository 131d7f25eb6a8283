package migrations

import (
	"context"

	"github.com/getAlby/lnpay.go/db/models"
	"github.com/uptrace/bun"
)

/*
This init reflects the latest model fields when run on a fresh db.
Subsequent migrations that add or remove columns must use IfNotExists/IfExists.
*/
func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewCreateTable().Model((*models.Invoice)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewCreateTable().Model((*models.Payment)(nil)).IfNotExists().Exec(ctx); err != nil {
			return err
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.NewDropTable().Model((*models.Payment)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		if _, err := db.NewDropTable().Model((*models.Invoice)(nil)).IfExists().Exec(ctx); err != nil {
			return err
		}
		return nil
	})
}
