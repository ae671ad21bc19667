package model

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/startdusk/sequel/internal/errs"
)

var errUnknownField = errs.NewErrUnknownField

type Registry interface {
	Get(val any) (*Model, error)
	Register(val any, opts ...ModelOption) (*Model, error)
}

// registry 代表元数据的注册中心
type registry struct {
	// 用 reflect.Type 作为 key, 同名但不同包的结构体不会冲突
	models map[reflect.Type]*Model
	lock   sync.RWMutex
}

func NewRegistry() Registry {
	return &registry{
		models: make(map[reflect.Type]*Model, 64),
	}
}

func (r *registry) Get(val any) (*Model, error) {
	typ := reflect.TypeOf(val)
	r.lock.RLock()
	m, ok := r.models[typ]
	r.lock.RUnlock()
	if ok {
		return m, nil
	}

	r.lock.Lock()
	defer r.lock.Unlock()
	// double check, 避免重复解析
	m, ok = r.models[typ]
	if ok {
		return m, nil
	}
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	r.models[typ] = m
	return m, nil
}

func (r *registry) Register(val any, opts ...ModelOption) (*Model, error) {
	typ := reflect.TypeOf(val)
	m, err := r.parseModel(typ)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		if err = opt(m); err != nil {
			return nil, err
		}
	}
	r.lock.Lock()
	r.models[typ] = m
	r.lock.Unlock()
	return m, nil
}

// parseModel 只支持指向结构体的一级指针
func (r *registry) parseModel(typ reflect.Type) (*Model, error) {
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return nil, errs.ErrPointerOnly
	}
	typ = typ.Elem()
	m := &Model{
		TableName: typ.Name(),
		Anonymous: typ.Name() == "",
		FieldMap:  make(map[string]*Field, typ.NumField()),
		ColumnMap: make(map[string]*Field, typ.NumField()),
	}
	if err := r.parseFields(m, typ, nil, 0); err != nil {
		return nil, err
	}
	return m, nil
}

func (r *registry) parseFields(m *Model, typ reflect.Type, index []int, offset uintptr) error {
	for i := 0; i < typ.NumField(); i++ {
		fd := typ.Field(i)
		idx := append(append(make([]int, 0, len(index)+1), index...), i)
		if fd.Anonymous && fd.Type.Kind() == reflect.Struct {
			if err := r.parseFields(m, fd.Type, idx, offset+fd.Offset); err != nil {
				return err
			}
			continue
		}
		if !fd.IsExported() {
			continue
		}
		pair, err := r.parseTag(fd.Tag)
		if err != nil {
			return err
		}
		colName := pair[tagColumn]
		if colName == "" {
			colName = fd.Name
		}
		_, pk := pair[tagPrimary]
		f := &Field{
			ColName:    colName,
			GoName:     fd.Name,
			Type:       fd.Type,
			Offset:     offset + fd.Offset,
			Index:      idx,
			PrimaryKey: pk,
		}
		// 同名字段以先声明的为准
		if _, ok := m.FieldMap[fd.Name]; ok {
			continue
		}
		m.Fields = append(m.Fields, f)
		m.FieldMap[f.GoName] = f
		m.ColumnMap[strings.ToLower(colName)] = f
	}
	return nil
}

// parseTag 解析形如 `sequel:"column=first_name,pk"` 的标签
func (r *registry) parseTag(tag reflect.StructTag) (map[string]string, error) {
	ormTag, ok := tag.Lookup(tagName)
	if !ok {
		return nil, nil
	}
	pairs := strings.Split(ormTag, ",")
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		segs := strings.Split(pair, "=")
		switch {
		case len(segs) == 1 && isIdent(segs[0]):
			tags[segs[0]] = ""
		case len(segs) == 2 && segs[0] != "":
			tags[segs[0]] = segs[1]
		default:
			return nil, errs.NewErrInvalidTagContent(pair)
		}
	}
	return tags, nil
}

func isIdent(s string) bool {
	for i, c := range s {
		if c == '_' || unicode.IsLetter(c) || (i > 0 && unicode.IsDigit(c)) {
			continue
		}
		return false
	}
	return s != ""
}
