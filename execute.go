package sequel

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/internal/sqltext"
)

// session 是 *sql.Conn 和 *sql.Tx 的公共部分
type session interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ session = (*sql.Conn)(nil)
	_ session = (*sql.Tx)(nil)
)

type executeFunc func(ctx context.Context, sess session, qs []*Query) (any, error)

// ExecuteNonQuery 返回影响的行数, 批量语句的影响行数会累加
func (c *Command) ExecuteNonQuery(ctx context.Context) (int64, error) {
	res, err := c.execute(ctx, TypeNonQuery, false, func(ctx context.Context, sess session, qs []*Query) (any, error) {
		var affected int64
		for _, q := range qs {
			r, err := sess.ExecContext(ctx, q.SQL, q.Args...)
			if err != nil {
				return affected, err
			}
			n, err := r.RowsAffected()
			if err != nil {
				return affected, err
			}
			affected += n
		}
		return affected, nil
	})
	if err != nil {
		return 0, err
	}
	n, _ := res.(int64)
	return n, nil
}

// ExecuteScalar 返回第一行第一列, 没有数据时返回 nil
func (c *Command) ExecuteScalar(ctx context.Context) (any, error) {
	t, err := c.executeTable(ctx, TypeScalar)
	if err != nil {
		return nil, err
	}
	if len(t.Rows) == 0 || len(t.Columns) == 0 {
		return nil, nil
	}
	return t.Rows[0].values[0], nil
}

// ExecuteToDataTable 把所有结果集读进内存
func (c *Command) ExecuteToDataTable(ctx context.Context) (*DataTable, error) {
	return c.executeTable(ctx, TypeQuery)
}

func (c *Command) ExecuteToDynamicList(ctx context.Context) ([]DynamicRow, error) {
	t, err := c.executeTable(ctx, TypeQuery)
	if err != nil {
		return nil, err
	}
	return t.DynamicRows(), nil
}

// ExecuteReader 返回流式的结果, 调用者必须关闭 Rows.
// 命令自己打开的连接在 Rows 关闭时释放.
// 批量语句里只有最后一条的结果会被返回
func (c *Command) ExecuteReader(ctx context.Context) (*Rows, error) {
	res, err := c.execute(ctx, TypeReader, true, func(ctx context.Context, sess session, qs []*Query) (any, error) {
		last := len(qs) - 1
		for _, q := range qs[:last] {
			if _, err := sess.ExecContext(ctx, q.SQL, q.Args...); err != nil {
				return nil, err
			}
		}
		return sess.QueryContext(ctx, qs[last].SQL, qs[last].Args...)
	})
	if err != nil {
		return nil, err
	}
	rows, ok := res.(*sql.Rows)
	if !ok {
		_ = c.release(false)
		return nil, errs.NewErrUnexpectedResult(TypeReader, res)
	}
	return &Rows{
		Rows: rows,
		release: func() {
			_ = c.release(false)
		},
	}, nil
}

func (c *Command) executeTable(ctx context.Context, typ string) (*DataTable, error) {
	res, err := c.execute(ctx, typ, false, c.queryTable)
	if err != nil {
		return nil, err
	}
	t, ok := res.(*DataTable)
	if !ok {
		return nil, errs.NewErrUnexpectedResult(typ, res)
	}
	return t, nil
}

func (c *Command) queryTable(ctx context.Context, sess session, qs []*Query) (any, error) {
	t := &DataTable{}
	for _, q := range qs {
		if q.Identity != "" && c.db.dialect.identityFromResult() {
			r, err := sess.ExecContext(ctx, q.SQL, q.Args...)
			if err != nil {
				return nil, err
			}
			id, err := r.LastInsertId()
			if err != nil {
				return nil, err
			}
			t.addRow(t.columnIndexes([]string{q.Identity}), []any{id})
			continue
		}
		rows, err := sess.QueryContext(ctx, q.SQL, q.Args...)
		if err != nil {
			return nil, err
		}
		if err = t.load(rows); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// execute 是所有执行方法的公共流程:
// 编译, 获取连接, PreExecute, 中间件和数据库调用, PostExecute 或 UnhandledException, 释放连接.
// keepConn 为 true 时由调用者负责释放连接
func (c *Command) execute(ctx context.Context, typ string, keepConn bool, fn executeFunc) (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	qs, err := c.build()
	if err != nil {
		return nil, err
	}

	logger := c.db.logger.With(zap.String("command_id", c.id), zap.String("type", typ))
	sess, err := c.session(ctx)
	if err != nil {
		err = canceled(ctx, err)
		logger.Error("sequel: open connection failed", zap.Error(err))
		c.db.handlers.unhandledException(err, c)
		return nil, err
	}
	defer func() {
		// 事件处理函数 panic 时也要把连接还回去
		if r := recover(); r != nil {
			_ = c.release(false)
			panic(r)
		}
	}()

	c.db.handlers.preExecute(c)

	var root Handler = func(ctx context.Context, qc *QueryContext) *QueryResult {
		res, err := fn(ctx, sess, qc.Queries)
		return &QueryResult{Result: res, Err: err}
	}
	for i := len(c.db.mdls) - 1; i >= 0; i-- {
		root = c.db.mdls[i](root)
	}

	start := time.Now()
	qr := root(ctx, &QueryContext{Type: typ, Queries: qs, Command: c})
	if qr.Err != nil {
		err := canceled(ctx, qr.Err)
		logger.Error("sequel: execute failed", zap.String("sql", c.text), zap.Error(err))
		c.db.handlers.unhandledException(err, c)
		_ = c.release(false)
		return nil, err
	}
	logger.Debug("sequel: executed",
		zap.String("sql", c.text),
		zap.Int("statements", len(qs)),
		zap.Duration("elapsed", time.Since(start)))

	c.db.handlers.postExecute(c)
	if !keepConn {
		_ = c.release(false)
	}
	return qr.Result, nil
}

// build 把命令文本编译成驱动可以执行的语句
func (c *Command) build() ([]*Query, error) {
	stmts := c.statements
	if len(stmts) == 0 {
		if strings.TrimSpace(c.text) == "" {
			return nil, errs.NewErrEmptyCommandText()
		}
		stmts = []statement{{text: c.text}}
	}
	lookup := func(name string) (any, bool) {
		p := c.param(name)
		if p == nil {
			return nil, false
		}
		return c.db.dialect.bindValue(p.Value), true
	}
	qs := make([]*Query, 0, len(stmts))
	for _, st := range stmts {
		query, args := sqltext.Parse(st.text).Bind(lookup, c.db.dialect.bindVar, c.db.dialect.ordinal())
		qs = append(qs, &Query{SQL: query, Args: args, Identity: st.identity})
	}
	return qs, nil
}

func (c *Command) session(ctx context.Context) (session, error) {
	if c.tx != nil {
		return c.tx.tx, nil
	}
	if c.conn != nil {
		return c.conn, nil
	}
	conn, err := c.db.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.ownsConn = true
	return conn, nil
}

// canceled 在 context 已经结束时把错误标记为 ErrCanceled
func canceled(ctx context.Context, err error) error {
	ctxErr := ctx.Err()
	if ctxErr == nil || errors.Is(err, errs.ErrCanceled) {
		return err
	}
	return errs.NewErrCanceled(ctxErr, err)
}
