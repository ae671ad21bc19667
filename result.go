package sequel

import (
	"database/sql"
	"reflect"
	"strings"
	"sync"
)

type DataColumn struct {
	Ordinal int
	Name    string
	// Type 由该列第一个非 NULL 的值推断, 全部为 NULL 时是 nil
	Type reflect.Type
}

// DataTable 是查询结果的内存表示, 列和行都保持数据库返回的顺序.
// 多个结果集会被合并, 同名的列共用一列
type DataTable struct {
	Columns []DataColumn
	Rows    []DataRow
}

type DataRow struct {
	table  *DataTable
	values []any
}

// DynamicRow 列名 => 值, 列名保持数据库返回的大小写
type DynamicRow map[string]any

func (r DataRow) Len() int {
	return len(r.values)
}

func (r DataRow) Value(i int) any {
	return r.values[i]
}

func (r DataRow) Values() []any {
	return r.values
}

// Get 按列名取值, 忽略大小写
func (r DataRow) Get(name string) (any, bool) {
	for i, col := range r.table.Columns {
		if strings.EqualFold(col.Name, name) {
			return r.values[i], true
		}
	}
	return nil, false
}

func (r DataRow) Dynamic() DynamicRow {
	res := make(DynamicRow, len(r.values))
	for i, col := range r.table.Columns {
		res[col.Name] = r.values[i]
	}
	return res
}

func (t *DataTable) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

func (t *DataTable) Column(name string) (DataColumn, bool) {
	for _, col := range t.Columns {
		if strings.EqualFold(col.Name, name) {
			return col, true
		}
	}
	return DataColumn{}, false
}

func (t *DataTable) DynamicRows() []DynamicRow {
	res := make([]DynamicRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		res = append(res, row.Dynamic())
	}
	return res
}

// load 读取 rows 的全部结果集, 然后关闭 rows
func (t *DataTable) load(rows *sql.Rows) error {
	defer func() {
		_ = rows.Close()
	}()
	for {
		cols, err := rows.Columns()
		if err != nil {
			return err
		}
		idx := t.columnIndexes(cols)
		for rows.Next() {
			vals := make([]any, len(cols))
			dest := make([]any, len(cols))
			for i := range vals {
				dest[i] = &vals[i]
			}
			if err = rows.Scan(dest...); err != nil {
				return err
			}
			t.addRow(idx, vals)
		}
		if err = rows.Err(); err != nil {
			return err
		}
		if !rows.NextResultSet() {
			break
		}
	}
	return rows.Err()
}

// columnIndexes 把结果集里的列映射到表的列上, 没有的列追加到末尾.
// 同一个结果集里面重名的列各自占一列
func (t *DataTable) columnIndexes(cols []string) []int {
	idx := make([]int, len(cols))
	used := make(map[int]bool, len(cols))
	for i, name := range cols {
		idx[i] = -1
		for j, col := range t.Columns {
			if !used[j] && strings.EqualFold(col.Name, name) {
				idx[i] = j
				break
			}
		}
		if idx[i] < 0 {
			idx[i] = len(t.Columns)
			t.Columns = append(t.Columns, DataColumn{Ordinal: len(t.Columns), Name: name})
			for k := range t.Rows {
				t.Rows[k].values = append(t.Rows[k].values, nil)
			}
		}
		used[idx[i]] = true
	}
	return idx
}

func (t *DataTable) addRow(idx []int, vals []any) {
	values := make([]any, len(t.Columns))
	for i, v := range vals {
		values[idx[i]] = v
		if v != nil && t.Columns[idx[i]].Type == nil {
			t.Columns[idx[i]].Type = reflect.TypeOf(v)
		}
	}
	t.Rows = append(t.Rows, DataRow{table: t, values: values})
}

// Rows 在 sql.Rows 的基础上, 关闭时一并释放命令打开的连接
type Rows struct {
	*sql.Rows
	release func()
	once    sync.Once
}

func (r *Rows) Close() error {
	err := r.Rows.Close()
	r.once.Do(r.release)
	return err
}
