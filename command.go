package sequel

import (
	"database/sql"
	"strings"

	"github.com/google/uuid"
)

// Command 是一次数据库交互的构建器: SQL 文本, 参数, 可选的事务和连接.
// 所有的 Set 和 Add 方法都返回自身, 可以链式调用.
// 构建过程中的错误会被记录下来, 在执行时返回, 此时不会访问数据库.
//
// Command 不是并发安全的, 一条命令同一时间只能被一个 goroutine 使用.
type Command struct {
	id string
	db *DB

	text string
	// statements 非空时逐条执行, 由 GenerateInserts 生成
	statements []statement
	params     []*Parameter

	tx   *Tx
	conn *sql.Conn
	// ownsConn 为 true 表示 conn 是执行时自己打开的, 需要自己关闭
	ownsConn bool
	keepOpen bool

	err error
}

type statement struct {
	text string
	// identity 是插入语句的主键列
	identity string
}

func newCommand(db *DB) *Command {
	return &Command{
		id: uuid.NewString(),
		db: db,
	}
}

// ID 用于在日志和链路里面关联同一条命令
func (c *Command) ID() string {
	return c.id
}

func (c *Command) SetCommandText(text string) *Command {
	c.text = text
	c.statements = nil
	return c
}

// AppendCommandText 在已有的 SQL 之后追加
func (c *Command) AppendCommandText(text string) *Command {
	if len(c.statements) > 0 {
		c.statements = append(c.statements, statement{text: text})
		c.text += "\n" + text
		return c
	}
	c.text += text
	return c
}

func (c *Command) CommandText() string {
	return c.text
}

// SetTransaction 设置之后, 命令在事务里执行, 连接的生命周期归事务管理
func (c *Command) SetTransaction(tx *Tx) *Command {
	c.tx = tx
	return c
}

func (c *Command) Transaction() *Tx {
	return c.tx
}

// SetConnection 使用调用者提供的连接, 命令永远不会关闭它
func (c *Command) SetConnection(conn *sql.Conn) *Command {
	c.release(true)
	c.conn = conn
	return c
}

// Conn 返回当前关联的连接, 可能为 nil
func (c *Command) Conn() *sql.Conn {
	return c.conn
}

// KeepConnectionOpen 为 true 时, 执行完之后不关闭自己打开的连接, 直到调用 Close
func (c *Command) KeepConnectionOpen(keep bool) *Command {
	c.keepOpen = keep
	return c
}

// Parameters 返回参数的副本, 顺序和添加的顺序一致
func (c *Command) Parameters() []Parameter {
	res := make([]Parameter, 0, len(c.params))
	for _, p := range c.params {
		res = append(res, *p)
	}
	return res
}

// Err 返回构建过程中记录的第一个错误
func (c *Command) Err() error {
	return c.err
}

// Close 释放命令打开的连接. 调用者提供的连接只解除关联, 不会被关闭
func (c *Command) Close() error {
	return c.release(true)
}

func (c *Command) release(force bool) error {
	if c.conn == nil {
		return nil
	}
	if !c.ownsConn {
		if force {
			c.conn = nil
		}
		return nil
	}
	if c.keepOpen && !force {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.ownsConn = false
	return err
}

func (c *Command) setErr(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *Command) param(name string) *Parameter {
	for _, p := range c.params {
		if strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}
