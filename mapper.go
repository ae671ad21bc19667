package sequel

import (
	"context"
	"database/sql"
	"reflect"
	"time"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/internal/valuer"
)

var (
	scannerType    = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType       = reflect.TypeOf(time.Time{})
	dynamicRowType = reflect.TypeOf(DynamicRow{})
	mapType        = reflect.TypeOf(map[string]any{})
)

// RowMapper 把一行数据转换成 T
type RowMapper[T any] func(row DataRow) (T, error)

// NewRowMapper 根据 T 的类型选择默认的映射方式:
//   - 结构体和结构体指针: 按列名 (忽略大小写) 填充字段, 没有对应字段的列被忽略
//   - 基本类型, time.Time 以及实现了 sql.Scanner 的类型: 取第一列
//   - DynamicRow 或者 map[string]any: 列名 => 值
//
// 其他类型, 例如接口, 返回 ErrMapping
func NewRowMapper[T any](db *DB) (RowMapper[T], error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	switch {
	case isScalar(typ):
		return scalarMapper[T], nil
	case typ == dynamicRowType:
		return func(row DataRow) (T, error) {
			return any(row.Dynamic()).(T), nil
		}, nil
	case typ == mapType:
		return func(row DataRow) (T, error) {
			return any(map[string]any(row.Dynamic())).(T), nil
		}, nil
	case typ.Kind() == reflect.Struct:
		m, err := db.r.Get(reflect.New(typ).Interface())
		if err != nil {
			return nil, err
		}
		return func(row DataRow) (T, error) {
			var t T
			err := db.creator(m, &t).SetColumns(row.table.ColumnNames(), row.values)
			return t, err
		}, nil
	case typ.Kind() == reflect.Pointer && typ.Elem().Kind() == reflect.Struct:
		m, err := db.r.Get(reflect.New(typ.Elem()).Interface())
		if err != nil {
			return nil, err
		}
		return func(row DataRow) (T, error) {
			entity := reflect.New(typ.Elem()).Interface()
			err := db.creator(m, entity).SetColumns(row.table.ColumnNames(), row.values)
			return entity.(T), err
		}, nil
	}
	return nil, errs.NewErrUnconstructable(typ)
}

func scalarMapper[T any](row DataRow) (T, error) {
	var t T
	if len(row.values) == 0 {
		return t, errs.NewErrNoColumns()
	}
	err := valuer.Assign(reflect.ValueOf(&t).Elem(), row.values[0])
	return t, err
}

func isScalar(typ reflect.Type) bool {
	if typ == timeType || reflect.PointerTo(typ).Implements(scannerType) {
		return true
	}
	switch typ.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	case reflect.Slice:
		return typ.Elem().Kind() == reflect.Uint8
	case reflect.Pointer:
		return typ.Elem().Kind() != reflect.Struct || typ.Elem() == timeType ||
			typ.Implements(scannerType)
	}
	return false
}

// ExecuteScalarAs 返回第一行第一列并转换成 T, 没有数据时返回 T 的零值
func ExecuteScalarAs[T any](ctx context.Context, c *Command) (T, error) {
	var t T
	val, err := c.ExecuteScalar(ctx)
	if err != nil {
		return t, err
	}
	err = valuer.Assign(reflect.ValueOf(&t).Elem(), val)
	return t, err
}

// ExecuteToList 用默认的映射方式把每一行转换成 T.
// T 无法构造时不会访问数据库
func ExecuteToList[T any](ctx context.Context, c *Command) ([]T, error) {
	mapper, err := NewRowMapper[T](c.db)
	if err != nil {
		return nil, err
	}
	return ExecuteToListWith(ctx, c, mapper)
}

func ExecuteToListWith[T any](ctx context.Context, c *Command, mapper RowMapper[T]) ([]T, error) {
	t, err := c.ExecuteToDataTable(ctx)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(t.Rows))
	for _, row := range t.Rows {
		val, err := mapper(row)
		if err != nil {
			return nil, err
		}
		res = append(res, val)
	}
	return res, nil
}
