package valuer

import (
	"reflect"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/model"
)

type reflectValue struct {
	model *model.Model

	// val 是泛型 T 指针指向的结构体
	val reflect.Value
}

// 确保类型变更 我们能得到通知
var _ Creator = NewReflectValue

func NewReflectValue(model *model.Model, val any) Value {
	return reflectValue{
		model: model,
		val:   reflect.ValueOf(val).Elem(),
	}
}

func (r reflectValue) Field(name string) (any, error) {
	fd, ok := r.model.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return r.val.FieldByIndex(fd.Index).Interface(), nil
}

func (r reflectValue) SetColumns(columns []string, vals []any) error {
	for i, colName := range columns {
		fd, ok := r.model.FieldByColumn(colName)
		if !ok {
			continue
		}
		if err := Assign(r.val.FieldByIndex(fd.Index), vals[i]); err != nil {
			return err
		}
	}
	return nil
}
