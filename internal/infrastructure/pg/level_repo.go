package pg

import (
	"context"

	"leveltx-service/internal/application"
	"leveltx-service/internal/domain"
	"leveltx-service/internal/infrastructure/logx"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

var _ application.LevelRepo = (*LevelRepo)(nil)

type LevelRepo struct{}

func NewLevelRepo() *LevelRepo { return &LevelRepo{} }

func opLog(c *Conn, op, sql string) *zap.Logger {
	return logx.L().With(
		zap.String("repo", "level"),
		zap.String("operation", op),
		zap.String("sql", sql),
		zap.String("source", c.source),
		zap.Bool("in_tx", c.InTx()),
	)
}

func (r *LevelRepo) Insert(ctx context.Context, conn application.Conn, name string) (int64, error) {
	c, err := asConn(conn)
	if err != nil {
		return 0, err
	}
	const ins = `INSERT INTO levels(name) VALUES ($1) RETURNING id`
	log := opLog(c, "Insert", ins).With(zap.String("name", name))
	q, err := c.q()
	if err != nil {
		return 0, err
	}
	log.Info("sql.exec_start")
	var id int64
	if err := q.QueryRow(ctx, ins, name).Scan(&id); err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return 0, err
	}
	log.Info("sql.exec_success", zap.Int64("id", id))
	return id, nil
}

func (r *LevelRepo) DeleteByID(ctx context.Context, conn application.Conn, id int64) error {
	c, err := asConn(conn)
	if err != nil {
		return err
	}
	const del = `DELETE FROM levels WHERE id=$1`
	log := opLog(c, "DeleteByID", del).With(zap.Int64("id", id))
	q, err := c.q()
	if err != nil {
		return err
	}
	log.Info("sql.exec_start")
	tag, err := q.Exec(ctx, del, id)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *LevelRepo) UpdateByID(ctx context.Context, conn application.Conn, id int64, name string) error {
	c, err := asConn(conn)
	if err != nil {
		return err
	}
	const up = `UPDATE levels SET name=$2 WHERE id=$1`
	log := opLog(c, "UpdateByID", up).With(zap.Int64("id", id), zap.String("name", name))
	q, err := c.q()
	if err != nil {
		return err
	}
	log.Info("sql.exec_start")
	tag, err := q.Exec(ctx, up, id, name)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", tag.RowsAffected()))
	return nil
}

func (r *LevelRepo) QueryAll(ctx context.Context, conn application.Conn) ([]domain.Level, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, err
	}
	const sel = `SELECT id, name FROM levels ORDER BY id`
	log := opLog(c, "QueryAll", sel)
	q, err := c.q()
	if err != nil {
		return nil, err
	}
	log.Info("sql.query_start")
	rows, err := q.Query(ctx, sel)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.Level])
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success", zap.Int("rows", len(out)))
	return out, nil
}
