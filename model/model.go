package model

import (
	"reflect"
	"strings"
)

const (
	tagName    = "sequel"
	tagColumn  = "column"
	tagPrimary = "pk"
)

type Model struct {
	// TableName 默认是 Go 类型名, 匿名结构体为空
	TableName string
	Anonymous bool

	// Fields 按结构体声明顺序排列, 嵌入结构体的字段被展开
	Fields []*Field
	// FieldMap Go 字段名 => 字段
	FieldMap map[string]*Field
	// ColumnMap 小写列名 => 字段, 用于大小写不敏感的列匹配
	ColumnMap map[string]*Field
}

type Field struct {
	ColName string
	GoName  string
	Type    reflect.Type
	// Offset 相对于结构体起始地址的偏移量, 嵌入结构体的字段已累加
	Offset uintptr
	// Index 用于 reflect.Value.FieldByIndex
	Index      []int
	PrimaryKey bool
}

// FieldByColumn 按列名查找字段, 忽略大小写
func (m *Model) FieldByColumn(col string) (*Field, bool) {
	fd, ok := m.ColumnMap[strings.ToLower(col)]
	return fd, ok
}

type ModelOption func(m *Model) error

func ModelWithTableName(tableName string) ModelOption {
	return func(m *Model) error {
		m.TableName = tableName
		m.Anonymous = false
		return nil
	}
}

func ModelWithColumnName(field string, colName string) ModelOption {
	return func(m *Model) error {
		fd, ok := m.FieldMap[field]
		if !ok {
			return errUnknownField(field)
		}
		delete(m.ColumnMap, strings.ToLower(fd.ColName))
		fd.ColName = colName
		m.ColumnMap[strings.ToLower(colName)] = fd
		return nil
	}
}

func ModelWithPrimaryKey(field string) ModelOption {
	return func(m *Model) error {
		fd, ok := m.FieldMap[field]
		if !ok {
			return errUnknownField(field)
		}
		fd.PrimaryKey = true
		return nil
	}
}
