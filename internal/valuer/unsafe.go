package valuer

import (
	"reflect"
	"unsafe"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/model"
)

type unsafeValue struct {
	model *model.Model

	// 结构体的起始地址
	address unsafe.Pointer
}

var _ Creator = NewUnsafeValue

func NewUnsafeValue(model *model.Model, val any) Value {
	return unsafeValue{
		model:   model,
		address: reflect.ValueOf(val).UnsafePointer(),
	}
}

func (u unsafeValue) Field(name string) (any, error) {
	fd, ok := u.model.FieldMap[name]
	if !ok {
		return nil, errs.NewErrUnknownField(name)
	}
	return u.fieldAt(fd).Interface(), nil
}

func (u unsafeValue) SetColumns(columns []string, vals []any) error {
	for i, colName := range columns {
		fd, ok := u.model.FieldByColumn(colName)
		if !ok {
			continue
		}
		if err := Assign(u.fieldAt(fd), vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// fieldAt 字段地址 = 起始地址 + 偏移量
func (u unsafeValue) fieldAt(fd *model.Field) reflect.Value {
	return reflect.NewAt(fd.Type, unsafe.Add(u.address, fd.Offset)).Elem()
}
