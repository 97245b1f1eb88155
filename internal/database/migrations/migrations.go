package migrations

import (
	"errors"
	"fmt"
	"os"

	"storefront/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/uptrace/bun"
)

// Options configures the SQL migration runner.
type Options struct {
	// Dir holds NNNNNN_name.up.sql / .down.sql pairs
	Dir string
	// Steps limits Down to that many migrations; 0 rolls back everything
	Steps int
}

// Runner applies the versioned SQL files in Dir to the service database.
type Runner struct {
	db       *bun.DB
	opts     Options
	log      *logger.Logger
	migrator *migrate.Migrate
}

func NewRunner(db *bun.DB, opts Options, log *logger.Logger) *Runner {
	return &Runner{db: db, opts: opts, log: log}
}

func (r *Runner) init() error {
	if r.migrator != nil {
		return nil
	}
	if _, err := os.Stat(r.opts.Dir); os.IsNotExist(err) {
		return fmt.Errorf("migrations directory does not exist: %s", r.opts.Dir)
	}

	driver, err := postgres.WithInstance(r.db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+r.opts.Dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	r.migrator = m
	return nil
}

// Up applies pending migrations. A dirty version is forced clean and retried once.
func (r *Runner) Up() error {
	if err := r.init(); err != nil {
		return err
	}

	version, dirty, err := r.migrator.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		r.log.Warn("MIGRATE", fmt.Sprintf("Schema version %d is dirty, forcing it clean", version))
		if err := r.migrator.Force(int(version)); err != nil {
			return fmt.Errorf("failed to fix dirty migration: %w", err)
		}
	}

	if err := r.migrator.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	if v, _, err := r.migrator.Version(); err == nil {
		r.log.Info("MIGRATE", fmt.Sprintf("Current schema version: %d", v))
	}
	return nil
}

// Down rolls back Options.Steps migrations, or all of them.
func (r *Runner) Down() error {
	if err := r.init(); err != nil {
		return err
	}

	var err error
	if r.opts.Steps > 0 {
		err = r.migrator.Steps(-r.opts.Steps)
	} else {
		err = r.migrator.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down failed: %w", err)
	}
	return nil
}

func (r *Runner) Close() error {
	if r.migrator == nil {
		return nil
	}
	sourceErr, dbErr := r.migrator.Close()
	if sourceErr != nil {
		return fmt.Errorf("error closing migrator source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("error closing migrator database: %w", dbErr)
	}
	return nil
}
