package sequel

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/startdusk/sequel/internal/errs"
)

// Record 是批量插入的一条记录, 只有 Typed 和 FieldBag 两种
type Record interface {
	isRecord()
}

// Typed 包装一个结构体或者结构体指针, 列来自它的字段
type Typed struct {
	Value any
}

// FieldBag 列名 => 值, 列按名字排序
type FieldBag map[string]any

func (Typed) isRecord()    {}
func (FieldBag) isRecord() {}

// RecordsOf 把任意切片转换成记录, map[string]any 会被当成 FieldBag
func RecordsOf[T any](values []T) []Record {
	records := make([]Record, 0, len(values))
	for _, v := range values {
		switch val := any(v).(type) {
		case Record:
			records = append(records, val)
		case map[string]any:
			records = append(records, FieldBag(val))
		default:
			records = append(records, Typed{Value: val})
		}
	}
	return records
}

// GenerateInserts 是 Command.GenerateInserts 的泛型版本
func GenerateInserts[T any](c *Command, values []T, tableName ...string) *Command {
	return c.GenerateInserts(RecordsOf(values), tableName...)
}

// GenerateInserts 为每条记录生成一条插入语句, 并返回插入的自增主键.
// 生成的语句形如
//
//	INSERT INTO Customer (FirstName, LastName) VALUES (@FirstName0, @LastName0) RETURNING CustomerId;
//
// 参数名是列名加上一个数字后缀, 后缀在同一条命令里不会重复, 多次调用也不会覆盖已有的参数.
// 主键列不会出现在插入的列里面, 主键是带 pk 标签的字段, 或者名字是 <表名>Id, Id 的列,
// 结构体还会识别 <类型名>Id, 所以可以把 Customer 插入到别的表.
// 执行时每条语句依次执行, 结果合并成一张表, 每条记录一行.
// 没有指定表名时使用第一条记录的类型名, 匿名结构体和 FieldBag 必须指定表名.
// 命令里已有的 SQL 会在这些插入语句之前执行.
func (c *Command) GenerateInserts(records []Record, tableName ...string) *Command {
	if c.err != nil {
		return c
	}
	var table string
	if len(tableName) > 0 {
		table = tableName[0]
	}
	stmts, err := c.buildInserts(records, table)
	if err != nil {
		c.setErr(err)
		return c
	}

	if len(c.statements) == 0 && strings.TrimSpace(c.text) != "" {
		c.statements = append(c.statements, statement{text: c.text})
	}
	texts := make([]string, 0, len(c.statements)+len(stmts))
	for _, st := range c.statements {
		texts = append(texts, st.text)
	}
	for _, st := range stmts {
		texts = append(texts, st.text)
	}
	c.statements = append(c.statements, stmts...)
	c.text = strings.Join(texts, "\n")
	return c
}

type insertBuilder struct {
	c     *Command
	sb    strings.Builder
	table string
	// base 是去掉 schema 的表名, 用于推断主键
	base string
	// next 是下一个候选的参数后缀
	next int
}

func (c *Command) buildInserts(records []Record, table string) ([]statement, error) {
	if len(records) == 0 {
		return nil, errs.ErrInsertZeroRows
	}
	if table == "" {
		var err error
		table, err = c.tableNameOf(records[0])
		if err != nil {
			return nil, err
		}
	}
	b := &insertBuilder{c: c, table: table, base: table, next: c.inserts()}
	if i := strings.LastIndexByte(table, '.'); i >= 0 {
		b.base = table[i+1:]
	}

	// 先检查全部记录, 避免生成一半的参数
	type row struct {
		cols []string
		vals []any
		pk   string
	}
	rows := make([]row, 0, len(records))
	for idx, rec := range records {
		cols, vals, pk, err := b.columns(idx, rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row{cols: cols, vals: vals, pk: pk})
	}

	stmts := make([]statement, 0, len(rows))
	for _, r := range rows {
		pk := r.pk
		if pk == "" {
			pk = b.base + "Id"
		}
		stmts = append(stmts, statement{text: b.build(r.cols, r.vals, pk), identity: pk})
	}
	return stmts, nil
}

func (c *Command) tableNameOf(rec Record) (string, error) {
	typed, ok := rec.(Typed)
	if !ok {
		return "", errs.NewErrTableNameRequired()
	}
	entity, err := entityOf(0, typed.Value)
	if err != nil {
		return "", err
	}
	m, err := c.db.r.Get(entity)
	if err != nil {
		return "", err
	}
	if m.Anonymous {
		return "", errs.NewErrTableNameRequired()
	}
	return m.TableName, nil
}

// columns 返回要插入的列和值, 以及被排除的主键列
func (b *insertBuilder) columns(idx int, rec Record) ([]string, []any, string, error) {
	var (
		cols []string
		vals []any
		pk   string
	)
	switch r := rec.(type) {
	case Typed:
		entity, err := entityOf(idx, r.Value)
		if err != nil {
			return nil, nil, "", err
		}
		m, err := b.c.db.r.Get(entity)
		if err != nil {
			return nil, nil, "", err
		}
		val := b.c.db.creator(m, entity)
		typeName := reflect.TypeOf(entity).Elem().Name()
		for _, fd := range m.Fields {
			if b.isPrimaryKey(fd.PrimaryKey, fd.ColName, typeName) {
				pk = fd.ColName
				continue
			}
			v, err := val.Field(fd.GoName)
			if err != nil {
				return nil, nil, "", err
			}
			cols = append(cols, fd.ColName)
			vals = append(vals, v)
		}
	case FieldBag:
		names := make([]string, 0, len(r))
		for name := range r {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if b.isPrimaryKey(false, name, "") {
				pk = name
				continue
			}
			cols = append(cols, name)
			vals = append(vals, r[name])
		}
	case nil:
		return nil, nil, "", errs.NewErrInvalidRecord(idx, "is nil")
	}
	if len(cols) == 0 {
		return nil, nil, "", errs.NewErrInvalidRecord(idx, "has no columns to insert")
	}
	for _, col := range cols {
		if !isIdentifier(col) {
			return nil, nil, "", errs.NewErrInvalidIdentifier(col)
		}
	}
	return cols, vals, pk, nil
}

func (b *insertBuilder) build(cols []string, vals []any, pk string) string {
	b.sb.Reset()
	suffix := b.suffix(cols)
	b.sb.WriteString("INSERT INTO ")
	b.sb.WriteString(b.table)
	b.sb.WriteString(" (")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteString(col)
	}
	b.sb.WriteString(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			b.sb.WriteString(", ")
		}
		b.sb.WriteByte('@')
		b.sb.WriteString(col)
		b.sb.WriteString(suffix)
		b.c.AddParameter(col+suffix, vals[i])
	}
	b.sb.WriteByte(')')
	b.c.db.dialect.buildReturning(&b.sb, pk)
	b.sb.WriteByte(';')
	return b.sb.String()
}

// suffix 返回一个后缀, 这条记录的所有参数名加上它之后都还没有被使用
func (b *insertBuilder) suffix(cols []string) string {
	for {
		suffix := strconv.Itoa(b.next)
		b.next++
		taken := false
		for _, col := range cols {
			if b.c.param(col+suffix) != nil {
				taken = true
				break
			}
		}
		if !taken {
			return suffix
		}
	}
}

// isPrimaryKey typeName 是结构体的类型名, FieldBag 为空
func (b *insertBuilder) isPrimaryKey(tagged bool, col string, typeName string) bool {
	return tagged ||
		strings.EqualFold(col, b.base+"Id") ||
		strings.EqualFold(col, "Id") ||
		(typeName != "" && strings.EqualFold(col, typeName+"Id"))
}

// inserts 返回命令里已有的插入语句数量
func (c *Command) inserts() int {
	var n int
	for _, st := range c.statements {
		if st.identity != "" {
			n++
		}
	}
	return n
}

// entityOf 返回结构体指针, 值类型会被复制一份
func entityOf(idx int, val any) (any, error) {
	rv := reflect.ValueOf(val)
	if !rv.IsValid() {
		return nil, errs.NewErrInvalidRecord(idx, "is nil")
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errs.NewErrInvalidRecord(idx, "is nil")
		}
		if rv.Elem().Kind() != reflect.Struct {
			return nil, errs.NewErrInvalidRecord(idx, "is not a struct")
		}
		return val, nil
	}
	if rv.Kind() != reflect.Struct {
		return nil, errs.NewErrInvalidRecord(idx, "is not a struct")
	}
	p := reflect.New(rv.Type())
	p.Elem().Set(rv)
	return p.Interface(), nil
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
