package sequel

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/internal/valuer"
	"github.com/startdusk/sequel/model"
)

type DBOption func(db *DB)

type DB struct {
	core
	db *sql.DB
}

type core struct {
	dialect  Dialect
	creator  valuer.Creator
	r        model.Registry
	handlers *EventHandlers
	logger   *zap.Logger

	mdls []Middleware
}

// Command 创建一条新的命令, 连接在执行时按需打开
func (db *DB) Command() *Command {
	return newCommand(db)
}

func (db *DB) BeginTx(ctx context.Context, opts *sql.TxOptions) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx, db: db}, nil
}

func (db *DB) DoTx(ctx context.Context, fn func(ctx context.Context, tx *Tx) error, opts *sql.TxOptions) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	panicked := true
	defer func() {
		if panicked || err != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				err = errs.NewErrFailedToRollbackTx(err, rollbackErr, panicked)
			}
		} else {
			err = tx.Commit()
		}
	}()
	err = fn(ctx, tx)
	// 执行过程中没有发生panic, 则标志位置为false
	panicked = false
	return err
}

// Conn 从连接池中取出一个连接, 调用者负责关闭.
// 配合 Command.SetConnection 使用
func (db *DB) Conn(ctx context.Context) (*sql.Conn, error) {
	return db.db.Conn(ctx)
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Open 根据驱动名推断方言, 推断不出来时使用 PostgreSQL
func Open(driver string, dataSourceName string, opts ...DBOption) (*DB, error) {
	db, err := sql.Open(driver, dataSourceName)
	if err != nil {
		return nil, err
	}
	if dialect, err := DialectOf(driver); err == nil {
		opts = append([]DBOption{DBWithDialect(dialect)}, opts...)
	}
	return OpenDB(db, opts...)
}

func OpenDB(db *sql.DB, opts ...DBOption) (*DB, error) {
	newDB := &DB{
		core: core{
			r:        model.NewRegistry(),
			creator:  valuer.NewReflectValue,
			dialect:  DialectPostgreSQL,
			handlers: DefaultEventHandlers,
			logger:   zap.NewNop(),
		},
		db: db,
	}

	for _, opt := range opts {
		opt(newDB)
	}

	return newDB, nil
}

func MustOpenDB(db *sql.DB, opts ...DBOption) *DB {
	newDB, err := OpenDB(db, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func MustOpen(driver string, dataSourceName string, opts ...DBOption) *DB {
	newDB, err := Open(driver, dataSourceName, opts...)
	if err != nil {
		panic(err)
	}
	return newDB
}

func DBUseUnsafe() DBOption {
	return func(db *DB) {
		db.creator = valuer.NewUnsafeValue
	}
}

func DBWithRegistry(r model.Registry) DBOption {
	return func(db *DB) {
		db.r = r
	}
}

func DBWithDialect(dialect Dialect) DBOption {
	return func(db *DB) {
		db.dialect = dialect
	}
}

func DBWithMiddlewares(mdls ...Middleware) DBOption {
	return func(db *DB) {
		db.mdls = mdls
	}
}

// DBWithEventHandlers 使用独立的事件注册表, 默认是 DefaultEventHandlers
func DBWithEventHandlers(handlers *EventHandlers) DBOption {
	return func(db *DB) {
		db.handlers = handlers
	}
}

func DBWithLogger(logger *zap.Logger) DBOption {
	return func(db *DB) {
		db.logger = logger
	}
}
