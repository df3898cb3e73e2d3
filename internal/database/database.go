// internal/database/database.go
package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrationsFS embed.FS

// DB wraps the sqlx handle together with a squirrel builder using the driver's placeholders.
type DB struct {
	X       *sqlx.DB
	Driver  string
	builder sq.StatementBuilderType
}

// Open connects to the database and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var placeholders sq.PlaceholderFormat
	switch driver {
	case DriverSQLite:
		placeholders = sq.Question
	case DriverPostgres:
		placeholders = sq.Dollar
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids "database is locked" under load
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", driver, err)
	}

	slog.Debug("database: connected", "driver", driver)

	return &DB{
		X:       db,
		Driver:  driver,
		builder: sq.StatementBuilder.PlaceholderFormat(placeholders),
	}, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	slog.Debug("database: closing connection", "driver", d.Driver)
	return d.X.Close()
}

// Ping verifies the database is reachable.
func (d *DB) Ping(ctx context.Context) error {
	return d.X.PingContext(ctx)
}

func (d *DB) migrator() (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations/"+d.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	switch d.Driver {
	case DriverSQLite:
		driver, err := migratesqlite.WithInstance(d.X.DB, &migratesqlite.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare sqlite migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, DriverSQLite, driver)
	default:
		driver, err := migratepostgres.WithInstance(d.X.DB, &migratepostgres.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to prepare postgres migrations: %w", err)
		}
		return migrate.NewWithInstance("iofs", source, DriverPostgres, driver)
	}
}

// Migrate applies all pending migrations. The migrator is not closed because closing it
// would close the shared connection pool.
func (d *DB) Migrate() error {
	m, err := d.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		slog.Info("database: migrations applied", "version", version, "dirty", dirty)
	}
	return nil
}

// Rollback reverts the most recent migration.
func (d *DB) Rollback() error {
	m, err := d.migrator()
	if err != nil {
		return err
	}
	if err := m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}
	slog.Info("database: rolled back last migration")
	return nil
}

// count runs a "SELECT COUNT(*)" builder and returns the number.
func (d *DB) count(ctx context.Context, builder sq.SelectBuilder) (int, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := d.X.GetContext(ctx, &n, query, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// now is the timestamp stored for new rows; UTC keeps text timestamps comparable in SQLite.
func now() time.Time {
	return time.Now().UTC()
}
