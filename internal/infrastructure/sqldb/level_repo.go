package sqldb

import (
	"context"

	"leveltx-service/internal/application"
	"leveltx-service/internal/domain"
	"leveltx-service/internal/infrastructure/logx"

	"go.uber.org/zap"
)

var _ application.LevelRepo = (*LevelRepo)(nil)

type LevelRepo struct{}

func NewLevelRepo() *LevelRepo { return &LevelRepo{} }

func (r *LevelRepo) prepare(conn application.Conn, op, query string) (*Conn, querier, string, *zap.Logger, error) {
	c, err := asConn(conn)
	if err != nil {
		return nil, nil, "", nil, err
	}
	q, err := c.q()
	if err != nil {
		return nil, nil, "", nil, err
	}
	query = c.dialect.Rebind(query)
	log := logx.L().With(
		zap.String("repo", "level"),
		zap.String("operation", op),
		zap.String("sql", query),
		zap.String("source", c.source),
		zap.Bool("in_tx", c.InTx()),
	)
	return c, q, query, log, nil
}

func (r *LevelRepo) Insert(ctx context.Context, conn application.Conn, name string) (int64, error) {
	c, err := asConn(conn)
	if err != nil {
		return 0, err
	}
	stmt := `INSERT INTO levels(name) VALUES ($1) RETURNING id`
	if c.dialect == DialectMySQL {
		stmt = `INSERT INTO levels(name) VALUES ($1)`
	}
	_, q, stmt, log, err := r.prepare(conn, "Insert", stmt)
	if err != nil {
		return 0, err
	}
	log = log.With(zap.String("name", name))
	log.Info("sql.exec_start")

	var id int64
	if c.dialect == DialectMySQL {
		res, err := q.ExecContext(ctx, stmt, name)
		if err != nil {
			log.Error("sql.exec_failed", zap.Error(err))
			return 0, err
		}
		if id, err = res.LastInsertId(); err != nil {
			log.Error("sql.exec_failed", zap.Error(err))
			return 0, err
		}
	} else if err := q.QueryRowContext(ctx, stmt, name).Scan(&id); err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return 0, err
	}
	log.Info("sql.exec_success", zap.Int64("id", id))
	return id, nil
}

func (r *LevelRepo) exec(ctx context.Context, conn application.Conn, op, stmt string, args ...any) error {
	_, q, stmt, log, err := r.prepare(conn, op, stmt)
	if err != nil {
		return err
	}
	log.Info("sql.exec_start")
	res, err := q.ExecContext(ctx, stmt, args...)
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		log.Error("sql.exec_failed", zap.Error(err))
		return err
	}
	if n == 0 {
		log.Warn("sql.exec_no_rows")
		return application.ErrNotFound
	}
	log.Info("sql.exec_success", zap.Int64("rows_affected", n))
	return nil
}

func (r *LevelRepo) DeleteByID(ctx context.Context, conn application.Conn, id int64) error {
	return r.exec(ctx, conn, "DeleteByID", `DELETE FROM levels WHERE id=$1`, id)
}

func (r *LevelRepo) UpdateByID(ctx context.Context, conn application.Conn, id int64, name string) error {
	return r.exec(ctx, conn, "UpdateByID", `UPDATE levels SET name=$1 WHERE id=$2`, name, id)
}

func (r *LevelRepo) QueryAll(ctx context.Context, conn application.Conn) ([]domain.Level, error) {
	_, q, stmt, log, err := r.prepare(conn, "QueryAll", `SELECT id, name FROM levels ORDER BY id`)
	if err != nil {
		return nil, err
	}
	log.Info("sql.query_start")
	rows, err := q.QueryContext(ctx, stmt)
	if err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()
	var out []domain.Level
	for rows.Next() {
		var l domain.Level
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			log.Error("sql.query_failed", zap.Error(err))
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		log.Error("sql.query_failed", zap.Error(err))
		return nil, err
	}
	log.Info("sql.query_success", zap.Int("rows", len(out)))
	return out, nil
}
