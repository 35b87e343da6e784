// Package sqldb runs the level repository over database/sql drivers
// (lib/pq, go-sql-driver/mysql, pgx stdlib).
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	infraconfig "leveltx-service/internal/infrastructure/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var _ application.ConnFactory = (*Factory)(nil)

// Factory keeps one *sql.DB per driver and DSN and hands out dedicated
// *sql.Conn sessions from it.
type Factory struct {
	mu   sync.Mutex
	dbs  map[string]*sql.DB
	open func(driver, dsn string) (*sql.DB, error)
	log  *zap.Logger
}

func NewFactory(log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{dbs: map[string]*sql.DB{}, open: sql.Open, log: log}
}

func (f *Factory) db(src config.DataSource) (*sql.DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := src.Driver + "|" + src.URL
	if db, ok := f.dbs[key]; ok {
		return db, nil
	}
	db, err := f.open(src.Driver, src.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(infraconfig.DefaultSQLMaxOpenConns)
	db.SetMaxIdleConns(infraconfig.DefaultSQLMaxIdleConns)
	db.SetConnMaxLifetime(infraconfig.DefaultConnMaxLifetime)
	f.log.Info("sqldb.pool_opened", zap.String("source", src.Name), zap.String("driver", src.Driver))
	f.dbs[key] = db
	return db, nil
}

func (f *Factory) Acquire(ctx context.Context, src config.DataSource) (application.Conn, error) {
	db, err := f.db(src)
	if err != nil {
		return nil, err
	}
	sc, err := db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: sc, dialect: DialectFor(src.Driver), source: src.Name}, nil
}

func (f *Factory) Ping(ctx context.Context, src config.DataSource) error {
	db, err := f.db(src)
	if err != nil {
		return err
	}
	return db.PingContext(ctx)
}

func (f *Factory) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var errs []error
	for key, db := range f.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(f.dbs, key)
	}
	f.log.Info("sqldb.pools_closed")
	return errors.Join(errs...)
}
