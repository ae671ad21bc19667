package sequel

import (
	"github.com/startdusk/sequel/internal/errs"
)

// 通过桥接的方式将内部错误导出
var (
	// ErrArgument 参数不合法, 例如参数名为空, 匿名类型没有指定表名
	ErrArgument = errs.ErrArgument
	// ErrConversion 值无法转换成目标类型
	ErrConversion = errs.ErrConversion
	// ErrMapping 目标类型无法构造或者填充
	ErrMapping = errs.ErrMapping
	// ErrCanceled 执行过程中 context 被取消或超时
	ErrCanceled = errs.ErrCanceled
	// ErrInsertZeroRows 批量插入时没有任何记录
	ErrInsertZeroRows = errs.ErrInsertZeroRows
)
