package pg

import (
	"context"
	"sync"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	infraconfig "leveltx-service/internal/infrastructure/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type DB struct{ Pool *pgxpool.Pool }

func Connect(ctx context.Context, url string) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns, cfg.MinConns = infraconfig.DefaultPGMaxConns, infraconfig.DefaultPGMinConns
	cfg.MaxConnIdleTime = infraconfig.DefaultPGMaxIdleTime
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &DB{Pool: pool}, nil
}

func (d *DB) Close()                         { d.Pool.Close() }
func (d *DB) Ping(ctx context.Context) error { return d.Pool.Ping(ctx) }

// Factory hands out pooled pgx connections, keeping one pool per DSN.
type Factory struct {
	mu  sync.Mutex
	dbs map[string]*DB
	log *zap.Logger
}

func NewFactory(log *zap.Logger) *Factory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Factory{dbs: map[string]*DB{}, log: log}
}

func (f *Factory) db(ctx context.Context, src config.DataSource) (*DB, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if db, ok := f.dbs[src.URL]; ok {
		return db, nil
	}
	db, err := Connect(ctx, src.URL)
	if err != nil {
		return nil, err
	}
	f.log.Info("pg.pool_opened", zap.String("source", src.Name))
	f.dbs[src.URL] = db
	return db, nil
}

var _ application.ConnFactory = (*Factory)(nil)

// Acquire takes a dedicated connection out of the pool for src.
func (f *Factory) Acquire(ctx context.Context, src config.DataSource) (application.Conn, error) {
	db, err := f.db(ctx, src)
	if err != nil {
		return nil, err
	}
	pc, err := db.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &Conn{conn: pc, source: src.Name}, nil
}

func (f *Factory) Ping(ctx context.Context, src config.DataSource) error {
	db, err := f.db(ctx, src)
	if err != nil {
		return err
	}
	return db.Ping(ctx)
}

func (f *Factory) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for dsn, db := range f.dbs {
		db.Close()
		delete(f.dbs, dsn)
	}
	f.log.Info("pg.pools_closed")
}
