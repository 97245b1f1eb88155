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

// ListCodes → every code in unlock order
func (d *DB) ListCodes(ctx context.Context) ([]models.TeamAccessCode, error) {
	codes := []models.TeamAccessCode{}
	err := d.Bun.NewSelect().Model(&codes).Order("sequence_order ASC", "id ASC").Scan(ctx)
	return codes, err
}

// ActiveCodes → the unlock sequence
func (d *DB) ActiveCodes(ctx context.Context) ([]models.TeamAccessCode, error) {
	codes := []models.TeamAccessCode{}
	err := d.Bun.NewSelect().
		Model(&codes).
		Where("is_active = ?", true).
		Order("sequence_order ASC", "id ASC").
		Scan(ctx)
	return codes, err
}

// GetCode → nil when missing
func (d *DB) GetCode(ctx context.Context, id int64) (*models.TeamAccessCode, error) {
	var c models.TeamAccessCode
	err := d.Bun.NewSelect().Model(&c).Where("id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (d *DB) CreateCode(ctx context.Context, c *models.TeamAccessCode) error {
	_, err := d.Bun.NewInsert().Model(c).Exec(ctx)
	return err
}

func (d *DB) UpdateCode(ctx context.Context, c *models.TeamAccessCode, columns ...string) error {
	_, err := d.Bun.NewUpdate().Model(c).Column(columns...).WherePK().Exec(ctx)
	return err
}

func (d *DB) DeleteCode(ctx context.Context, id int64) error {
	_, err := d.Bun.NewDelete().Model((*models.TeamAccessCode)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
