package sequel

import (
	"database/sql/driver"
	"reflect"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/startdusk/sequel/internal/errs"
)

var (
	DialectMySQL      Dialect = &mysqlDialect{}
	DialectPostgreSQL Dialect = &postgresDialect{}
	DialectSQLite     Dialect = &sqliteDialect{}
)

type Dialect interface {
	Name() string

	// bindVar 返回第 n 个绑定变量, n 从 1 开始
	// MySQL, SQLite 是 ?
	// PostgreSQL 是 $n
	bindVar(n int) string
	// ordinal 为 true 时同名参数复用同一个绑定变量
	ordinal() bool
	// bindValue 在绑定前转换参数值, 例如 PostgreSQL 的数组
	bindValue(val any) any

	// buildReturning 为插入语句追加返回自增主键的子句
	buildReturning(sb *strings.Builder, pk string)
	// identityFromResult 为 true 时自增主键从 sql.Result.LastInsertId 获取
	identityFromResult() bool
}

// DialectOf 按名字查找方言, 驱动名也可以
func DialectOf(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return DialectMySQL, nil
	case "postgres", "postgresql", "pgx", "pq":
		return DialectPostgreSQL, nil
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	}
	return nil, errs.NewErrUnknownDialect(name)
}

type standardSQL struct{}

func (d standardSQL) bindVar(int) string {
	return "?"
}

func (d standardSQL) ordinal() bool {
	return false
}

func (d standardSQL) bindValue(val any) any {
	return val
}

func (d standardSQL) buildReturning(sb *strings.Builder, pk string) {
	sb.WriteString(" RETURNING ")
	sb.WriteString(pk)
}

func (d standardSQL) identityFromResult() bool {
	return false
}

type mysqlDialect struct {
	standardSQL
}

func (d mysqlDialect) Name() string {
	return "mysql"
}

// MySQL 不支持 RETURNING
func (d mysqlDialect) buildReturning(*strings.Builder, string) {}

func (d mysqlDialect) identityFromResult() bool {
	return true
}

type postgresDialect struct {
	standardSQL
}

func (d postgresDialect) Name() string {
	return "postgres"
}

func (d postgresDialect) bindVar(n int) string {
	return "$" + strconv.Itoa(n)
}

func (d postgresDialect) ordinal() bool {
	return true
}

func (d postgresDialect) bindValue(val any) any {
	if val == nil {
		return nil
	}
	if _, ok := val.(driver.Valuer); ok {
		return val
	}
	typ := reflect.TypeOf(val)
	if (typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array) && typ.Elem().Kind() != reflect.Uint8 {
		return pq.Array(val)
	}
	return val
}

type sqliteDialect struct {
	standardSQL
}

func (d sqliteDialect) Name() string {
	return "sqlite3"
}
