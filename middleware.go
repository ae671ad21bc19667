package sequel

import (
	"context"
)

const (
	TypeNonQuery = "NONQUERY"
	TypeScalar   = "SCALAR"
	TypeReader   = "READER"
	TypeQuery    = "QUERY"
)

type QueryContext struct {
	// Type 声明执行类型, 即 NONQUERY, SCALAR, READER 和 QUERY
	Type string

	// Queries 是编译好的语句, 批量插入时每条记录一条.
	// 中间件可以篡改它们
	Queries []*Query

	Command *Command
}

type QueryResult struct {
	// Result 在不同的执行类型里面, 类型是不同的
	// NONQUERY 是 int64 影响行数
	// READER 是 *sql.Rows
	// 其他情况下, 它是 *DataTable
	Result any
	Err    error
}

type Middleware func(next Handler) Handler

type Handler func(ctx context.Context, qc *QueryContext) *QueryResult
