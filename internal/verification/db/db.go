package db

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// ReplaceCode → drops every older code for the phone and stores the new one
func (d *DB) ReplaceCode(ctx context.Context, vc *models.VerificationCode) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*models.VerificationCode)(nil)).
			Where("phone = ?", vc.Phone).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewInsert().Model(vc).Exec(ctx)
		return err
	})
}

// LatestCode → nil when no code was issued for the phone
func (d *DB) LatestCode(ctx context.Context, phone string) (*models.VerificationCode, error) {
	var vc models.VerificationCode
	err := d.Bun.NewSelect().
		Model(&vc).
		Where("phone = ?", phone).
		Order("created_at DESC", "id DESC").
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &vc, nil
}

// ConsumeCode deletes the matching code and reports whether a row was removed.
// Two checkouts racing on one code see exactly one removal between them.
func ConsumeCode(ctx context.Context, idb bun.IDB, phone, code string) (bool, error) {
	res, err := idb.NewDelete().
		Model((*models.VerificationCode)(nil)).
		Where("phone = ?", phone).
		Where("code = ?", code).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
