package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"leveltx-service/internal/config"
	infraconfig "leveltx-service/internal/infrastructure/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	mysqldriver "github.com/golang-migrate/migrate/v4/database/mysql"
	pgdriver "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

//go:embed postgres/*.sql mysql/*.sql
var migrationFS embed.FS

// Dir returns the embedded migration directory for a driver.
func Dir(driver string) string {
	if driver == config.DriverMySQL {
		return "mysql"
	}
	return "postgres"
}

// waitForDB retries the ping; a fresh container may not accept
// connections yet.
func waitForDB(ctx context.Context, db *sql.DB) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(infraconfig.DefaultMigratePingWait), infraconfig.DefaultMigratePings)
	return backoff.Retry(func() error { return db.PingContext(ctx) }, backoff.WithContext(b, ctx))
}

// Up applies every pending migration to src.
func Up(ctx context.Context, src config.DataSource) error {
	dir := Dir(src.Driver)
	source, err := iofs.New(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("migrate src: %w", err)
	}
	driverName := src.Driver
	if driverName == "" {
		driverName = config.DriverPGX
	}
	sqldb, err := sql.Open(driverName, src.URL)
	if err != nil {
		return fmt.Errorf("open sql db: %w", err)
	}
	defer sqldb.Close()
	if err := waitForDB(ctx, sqldb); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	var driver database.Driver
	if dir == "mysql" {
		driver, err = mysqldriver.WithInstance(sqldb, &mysqldriver.Config{})
	} else {
		driver, err = pgdriver.WithInstance(sqldb, &pgdriver.Config{})
	}
	if err != nil {
		return fmt.Errorf("migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, dir, driver)
	if err != nil {
		return fmt.Errorf("migrate init: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("migrate up: %w", err)
	}
	return nil
}
