package sequel

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/startdusk/sequel/internal/errs"
	"github.com/startdusk/sequel/internal/valuer"
)

// DbType 显式声明参数的数据库类型, 值会在添加时转换成对应的 Go 类型.
// 零值表示由驱动自己推断
type DbType int

const (
	DbTypeString DbType = iota + 1
	DbTypeInt32
	DbTypeInt64
	DbTypeDouble
	DbTypeDecimal
	DbTypeBoolean
	DbTypeDateTime
	DbTypeBinary
	DbTypeGuid
)

var dbTypes = map[DbType]reflect.Type{
	DbTypeString:   reflect.TypeOf(""),
	DbTypeInt32:    reflect.TypeOf(int32(0)),
	DbTypeInt64:    reflect.TypeOf(int64(0)),
	DbTypeDouble:   reflect.TypeOf(float64(0)),
	DbTypeDecimal:  reflect.TypeOf(decimal.Decimal{}),
	DbTypeBoolean:  reflect.TypeOf(false),
	DbTypeDateTime: reflect.TypeOf(time.Time{}),
	DbTypeBinary:   reflect.TypeOf([]byte(nil)),
	DbTypeGuid:     reflect.TypeOf(uuid.UUID{}),
}

func (t DbType) String() string {
	switch t {
	case DbTypeString:
		return "String"
	case DbTypeInt32:
		return "Int32"
	case DbTypeInt64:
		return "Int64"
	case DbTypeDouble:
		return "Double"
	case DbTypeDecimal:
		return "Decimal"
	case DbTypeBoolean:
		return "Boolean"
	case DbTypeDateTime:
		return "DateTime"
	case DbTypeBinary:
		return "Binary"
	case DbTypeGuid:
		return "Guid"
	}
	return "Unspecified"
}

func (t DbType) coerce(val any) (any, error) {
	typ, ok := dbTypes[t]
	if !ok || val == nil {
		return val, nil
	}
	dst := reflect.New(typ).Elem()
	if err := valuer.Assign(dst, val); err != nil {
		return nil, err
	}
	return dst.Interface(), nil
}

type Parameter struct {
	// Name 不带前缀 @
	Name   string
	Value  any
	DbType DbType
}

// AddParameter 添加一个命名参数, 名字可以带 @ 或者 : 前缀.
// 同名参数 (忽略大小写) 会覆盖之前的值, 但保留原来的位置
func (c *Command) AddParameter(name string, value any, dbType ...DbType) *Command {
	name, ok := normalizeName(name)
	if !ok {
		c.setErr(errs.NewErrEmptyParameterName())
		return c
	}
	p := &Parameter{Name: name, Value: value}
	if len(dbType) > 0 {
		p.DbType = dbType[0]
		v, err := p.DbType.coerce(value)
		if err != nil {
			c.setErr(err)
			return c
		}
		p.Value = v
	}
	c.setParam(p)
	return c
}

// AddParameters 添加一组值.
// 如果 SQL 里面有 IN (@name), 那么占位符会被展开成 @name_p0, @name_p1 ...,
// 每个元素一个参数, 空集合展开成 NULL.
// 否则整个集合作为一个参数, 在 PostgreSQL 上会以数组的形式绑定.
func (c *Command) AddParameters(name string, values any, dbType ...DbType) *Command {
	name, ok := normalizeName(name)
	if !ok {
		c.setErr(errs.NewErrEmptyParameterName())
		return c
	}
	rv := reflect.ValueOf(values)
	if !rv.IsValid() ||
		(rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) ||
		rv.Type().Elem().Kind() == reflect.Uint8 {
		c.setErr(errs.NewErrNotASequence(name, values))
		return c
	}

	re := inClause(name)
	if !re.MatchString(c.text) {
		if len(dbType) == 0 {
			return c.AddParameter(name, values)
		}
		vals := make([]any, rv.Len())
		for i := range vals {
			v, err := dbType[0].coerce(rv.Index(i).Interface())
			if err != nil {
				c.setErr(err)
				return c
			}
			vals[i] = v
		}
		c.setParam(&Parameter{Name: name, Value: vals, DbType: dbType[0]})
		return c
	}

	placeholders := make([]string, rv.Len())
	for i := range placeholders {
		pname := fmt.Sprintf("%s_p%d", name, i)
		c.AddParameter(pname, rv.Index(i).Interface(), dbType...)
		placeholders[i] = "@" + pname
	}
	repl := "NULL"
	if len(placeholders) > 0 {
		repl = strings.Join(placeholders, ", ")
	}
	c.text = re.ReplaceAllString(c.text, "${1}"+repl+"${2}")
	return c
}

func (c *Command) setParam(p *Parameter) {
	for i, old := range c.params {
		if strings.EqualFold(old.Name, p.Name) {
			c.params[i] = p
			return
		}
	}
	c.params = append(c.params, p)
}

func inClause(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(\bIN\s*\(\s*)@` + regexp.QuoteMeta(name) + `(\s*\))`)
}

func normalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, "@") || strings.HasPrefix(name, ":") {
		name = name[1:]
	}
	return name, name != ""
}
