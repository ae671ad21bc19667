package valuer

import (
	"github.com/startdusk/sequel/model"
)

// Value 是对结构体实例的内部抽象
type Value interface {
	// Field 返回字段对应的值
	Field(name string) (any, error)
	// SetColumns 按列名把一行数据写入结构体, 没有对应字段的列会被忽略
	SetColumns(columns []string, vals []any) error
}

type Creator func(model *model.Model, entity any) Value
