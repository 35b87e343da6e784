package bootstrap

import (
	"context"
	"fmt"

	"leveltx-service/internal/application"
	"leveltx-service/internal/config"
	"leveltx-service/internal/domain"
	"leveltx-service/internal/infrastructure/logx"
	"leveltx-service/internal/infrastructure/pg"
	redisstore "leveltx-service/internal/infrastructure/redis"
	"leveltx-service/internal/infrastructure/sqldb"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Services struct {
	Idem application.IdempotencyStore
	// Ping is nil when idempotency is disabled.
	Ping func(ctx context.Context) error
}

// Conns routes each data source to the adapter for its driver: native
// pgx pools for "pgx", database/sql for everything else.
type Conns struct {
	PG  *pg.Factory
	SQL *sqldb.Factory
}

var _ application.ConnFactory = (*Conns)(nil)

func NewConns(log *zap.Logger) *Conns {
	return &Conns{PG: pg.NewFactory(log), SQL: sqldb.NewFactory(log)}
}

func nativePG(driver string) bool { return driver == "" || driver == config.DriverPGX }

func (c *Conns) Acquire(ctx context.Context, src config.DataSource) (application.Conn, error) {
	if nativePG(src.Driver) {
		return c.PG.Acquire(ctx, src)
	}
	return c.SQL.Acquire(ctx, src)
}

func (c *Conns) Ping(ctx context.Context, src config.DataSource) error {
	if nativePG(src.Driver) {
		return c.PG.Ping(ctx, src)
	}
	return c.SQL.Ping(ctx, src)
}

func (c *Conns) Close() error {
	c.PG.Close()
	return c.SQL.Close()
}

// LevelRepo dispatches to the repository matching the connection type.
type LevelRepo struct {
	PG  *pg.LevelRepo
	SQL *sqldb.LevelRepo
}

var _ application.LevelRepo = (*LevelRepo)(nil)

func NewLevelRepo() *LevelRepo {
	return &LevelRepo{PG: pg.NewLevelRepo(), SQL: sqldb.NewLevelRepo()}
}

func (r *LevelRepo) pick(conn application.Conn) application.LevelRepo {
	if _, ok := conn.(*pg.Conn); ok {
		return r.PG
	}
	return r.SQL
}

func (r *LevelRepo) Insert(ctx context.Context, conn application.Conn, name string) (int64, error) {
	return r.pick(conn).Insert(ctx, conn, name)
}

func (r *LevelRepo) DeleteByID(ctx context.Context, conn application.Conn, id int64) error {
	return r.pick(conn).DeleteByID(ctx, conn, id)
}

func (r *LevelRepo) UpdateByID(ctx context.Context, conn application.Conn, id int64, name string) error {
	return r.pick(conn).UpdateByID(ctx, conn, id, name)
}

func (r *LevelRepo) QueryAll(ctx context.Context, conn application.Conn) ([]domain.Level, error) {
	return r.pick(conn).QueryAll(ctx, conn)
}

// BuildRedis builds the idempotency store if enabled (defaults to redis; falls back to Noop).
func BuildRedis(cfg config.Config) (Services, func(), error) {
	if cfg.IdempotencyBackend != "redis" {
		return Services{Idem: application.NoopIdempotency{}}, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	store := redisstore.New(rdb, cfg.RedisTTL)
	cleanup := func() { _ = rdb.Close() }
	return Services{Idem: store, Ping: store.Ping}, cleanup, nil
}

// App holds everything a command needs to talk to the databases.
type App struct {
	Config  config.Config
	Conns   *Conns
	Service *application.LevelService
	Redis   Services
	cleanup []func()
}

// Build wires the connection router, repositories, idempotency store
// and the level service. uowOpts tune the unit of work.
func Build(cfg config.Config, uowOpts ...application.UoWOption) (*App, error) {
	log := logx.L()
	conns := NewConns(log)
	services, closeRedis, err := BuildRedis(cfg)
	if err != nil {
		_ = conns.Close()
		return nil, fmt.Errorf("bootstrap redis: %w", err)
	}
	uowOpts = append([]application.UoWOption{application.WithLogger(logx.Named("uow"))}, uowOpts...)
	svc := application.NewLevelService(conns, NewLevelRepo(),
		application.WithIdempotency(services.Idem),
		application.WithUnitOfWork(uowOpts...),
	)
	a := &App{Config: cfg, Conns: conns, Service: svc, Redis: services}
	a.cleanup = append(a.cleanup, closeRedis, func() {
		log.Info("closing database pools")
		if err := conns.Close(); err != nil {
			log.Warn("close pools", zap.Error(err))
		}
	})
	return a, nil
}

// Source resolves a named data source against the app config.
func (a *App) Source(name string) (config.DataSource, error) { return a.Config.Source(name) }

// Ready checks the default data source and, when enabled, Redis.
func (a *App) Ready(ctx context.Context) error {
	if a.Conns != nil {
		src, err := a.Source("")
		if err != nil {
			return err
		}
		if err := a.Conns.Ping(ctx, src); err != nil {
			return err
		}
	}
	if a.Redis.Ping != nil {
		return a.Redis.Ping(ctx)
	}
	return nil
}

func (a *App) Close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}
