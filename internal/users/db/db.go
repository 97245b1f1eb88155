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

// GetUserByPhone → nil when nobody registered that phone
func (d *DB) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().Model(&u).Where("phone = ?", phone).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := d.Bun.NewSelect().Model(&u).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := d.Bun.NewInsert().Model(u).Exec(ctx)
	return err
}

func (d *DB) UpdateUser(ctx context.Context, u *models.User, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(u).Column(columns...).WherePK().Exec(ctx)
	return err
}

// UpsertUser → insert or refresh name/address for the phone. Runs on db or inside a tx.
func UpsertUser(ctx context.Context, idb bun.IDB, u *models.User) error {
	_, err := idb.NewInsert().
		Model(u).
		On("CONFLICT (phone) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("address = EXCLUDED.address").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}
