package sequel

import (
	"database/sql"
	"errors"
	"sync"

	"github.com/patrickmn/go-cache"

	"github.com/startdusk/sequel/config"
)

// Connections 按名字管理数据库, 每个名字只打开一次
type Connections struct {
	cfg  *config.Config
	opts []DBOption

	mu  sync.Mutex
	dbs *cache.Cache
}

// NewConnections opts 会作用在每一个打开的 DB 上
func NewConnections(cfg *config.Config, opts ...DBOption) *Connections {
	return &Connections{
		cfg:  cfg,
		opts: opts,
		dbs:  cache.New(cache.NoExpiration, 0),
	}
}

// DB 返回名字对应的数据库, 名字为空时使用默认连接
func (c *Connections) DB(name string) (*DB, error) {
	if name == "" {
		name = c.cfg.Default
	}
	if db, ok := c.dbs.Get(name); ok {
		return db.(*DB), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if db, ok := c.dbs.Get(name); ok {
		return db.(*DB), nil
	}

	conn, err := c.cfg.Connection(name)
	if err != nil {
		return nil, err
	}
	dialectName := conn.Dialect
	if dialectName == "" {
		dialectName = conn.Driver
	}
	dialect, err := DialectOf(dialectName)
	if err != nil {
		return nil, err
	}
	sqlDB, err := sql.Open(conn.Driver, conn.DSN)
	if err != nil {
		return nil, err
	}
	if conn.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(conn.MaxOpenConns)
	}
	if conn.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(conn.MaxIdleConns)
	}
	if conn.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(conn.ConnMaxLifetime)
	}

	opts := append([]DBOption{DBWithDialect(dialect)}, c.opts...)
	db, err := OpenDB(sqlDB, opts...)
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	c.dbs.Set(name, db, cache.NoExpiration)
	return db, nil
}

// Command 返回一条在名字对应的数据库上执行的新命令
func (c *Connections) Command(name string) (*Command, error) {
	db, err := c.DB(name)
	if err != nil {
		return nil, err
	}
	return db.Command(), nil
}

// Close 关闭所有已经打开的数据库
func (c *Connections) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	for name, item := range c.dbs.Items() {
		err = errors.Join(err, item.Object.(*DB).Close())
		c.dbs.Delete(name)
	}
	return err
}
