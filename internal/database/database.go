package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/models"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Models lists every table in creation order. Children come after their parents.
func Models() []interface{} {
	return []interface{}{
		(*models.Category)(nil),
		(*models.Product)(nil),
		(*models.ProductVariant)(nil),
		(*models.ProductSize)(nil),
		(*models.ProductImage)(nil),
		(*models.Order)(nil),
		(*models.OrderItem)(nil),
		(*models.User)(nil),
		(*models.VerificationCode)(nil),
		(*models.TeamAccessCode)(nil),
	}
}

// Connect opens PostgreSQL through lib/pq, retrying while the server comes up.
func Connect(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*bun.DB, error) {
	var sqldb *sql.DB
	var err error
	retries := cfg.ConnectRetry
	if retries < 1 {
		retries = 1
	}

	for i := 0; i < retries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, retries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.PingContext(ctx)
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		_ = sqldb.Close()
		if i < retries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect to postgres after %d attempts: %w", retries, err)
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New()), nil
}

// CreateSchema creates any missing table from the bun models.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropSchema drops every table, children first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	all := Models()
	for i := len(all) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(all[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("drop table for %T: %w", all[i], err)
		}
	}
	return nil
}
