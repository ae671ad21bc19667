package valuer

import (
	"database/sql"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/startdusk/sequel/internal/errs"
)

var (
	scannerType = reflect.TypeOf((*sql.Scanner)(nil)).Elem()
	timeType    = reflect.TypeOf(time.Time{})
)

var timeFormats = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Assign 把数据库返回的值写入 dst, dst 必须是可设置的.
// NULL 写入零值, 实现了 sql.Scanner 的类型交给 Scan 处理,
// 其余按 strconv 的规则在数字, 字符串, 布尔和时间之间转换.
func Assign(dst reflect.Value, src any) error {
	if src == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	sv := reflect.ValueOf(src)
	if b, ok := src.([]byte); ok && dst.Kind() == reflect.Slice && dst.Type().Elem().Kind() == reflect.Uint8 {
		// driver 可能复用 []byte 的底层数组
		dst.SetBytes(append([]byte(nil), b...))
		return nil
	}
	if sv.Type().AssignableTo(dst.Type()) {
		dst.Set(sv)
		return nil
	}
	if dst.CanAddr() && dst.Addr().Type().Implements(scannerType) {
		if err := dst.Addr().Interface().(sql.Scanner).Scan(src); err != nil {
			return errs.NewErrConversionCause(src, dst.Type(), err)
		}
		return nil
	}
	if dst.Kind() == reflect.Pointer {
		p := reflect.New(dst.Type().Elem())
		if err := Assign(p.Elem(), src); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	}

	switch dst.Kind() {
	case reflect.String:
		if s, ok := asString(sv); ok {
			dst.SetString(s)
			return nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return assignInt(dst, sv, src)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return assignUint(dst, sv, src)
	case reflect.Float32, reflect.Float64:
		return assignFloat(dst, sv, src)
	case reflect.Bool:
		switch {
		case isInt(sv):
			dst.SetBool(sv.Int() != 0)
			return nil
		case isText(sv):
			b, err := strconv.ParseBool(strings.TrimSpace(textOf(sv)))
			if err != nil {
				return errs.NewErrConversionCause(src, dst.Type(), err)
			}
			dst.SetBool(b)
			return nil
		}
	case reflect.Slice:
		if dst.Type().Elem().Kind() == reflect.Uint8 && sv.Kind() == reflect.String {
			dst.SetBytes([]byte(sv.String()))
			return nil
		}
	case reflect.Struct:
		if dst.Type() == timeType && isText(sv) {
			t, err := parseTime(textOf(sv))
			if err != nil {
				return errs.NewErrConversionCause(src, dst.Type(), err)
			}
			dst.Set(reflect.ValueOf(t))
			return nil
		}
	}
	if sv.Kind() == dst.Kind() && sv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(sv.Convert(dst.Type()))
		return nil
	}
	return errs.NewErrConversion(src, dst.Type())
}

func assignInt(dst, sv reflect.Value, src any) error {
	var i int64
	switch {
	case isInt(sv):
		i = sv.Int()
	case isUint(sv):
		u := sv.Uint()
		if u > math.MaxInt64 {
			return errs.NewErrConversion(src, dst.Type())
		}
		i = int64(u)
	case isFloat(sv):
		f := sv.Float()
		if f != math.Trunc(f) || f >= 1<<63 || f < -(1<<63) {
			return errs.NewErrConversion(src, dst.Type())
		}
		i = int64(f)
	case isText(sv):
		var err error
		i, err = strconv.ParseInt(strings.TrimSpace(textOf(sv)), 10, dst.Type().Bits())
		if err != nil {
			return errs.NewErrConversionCause(src, dst.Type(), err)
		}
	default:
		return errs.NewErrConversion(src, dst.Type())
	}
	if dst.OverflowInt(i) {
		return errs.NewErrConversion(src, dst.Type())
	}
	dst.SetInt(i)
	return nil
}

func assignUint(dst, sv reflect.Value, src any) error {
	var u uint64
	switch {
	case isInt(sv):
		i := sv.Int()
		if i < 0 {
			return errs.NewErrConversion(src, dst.Type())
		}
		u = uint64(i)
	case isUint(sv):
		u = sv.Uint()
	case isFloat(sv):
		f := sv.Float()
		if f != math.Trunc(f) || f < 0 || f >= 1<<64 {
			return errs.NewErrConversion(src, dst.Type())
		}
		u = uint64(f)
	case isText(sv):
		var err error
		u, err = strconv.ParseUint(strings.TrimSpace(textOf(sv)), 10, dst.Type().Bits())
		if err != nil {
			return errs.NewErrConversionCause(src, dst.Type(), err)
		}
	default:
		return errs.NewErrConversion(src, dst.Type())
	}
	if dst.OverflowUint(u) {
		return errs.NewErrConversion(src, dst.Type())
	}
	dst.SetUint(u)
	return nil
}

func assignFloat(dst, sv reflect.Value, src any) error {
	var f float64
	switch {
	case isInt(sv):
		f = float64(sv.Int())
	case isUint(sv):
		f = float64(sv.Uint())
	case isFloat(sv):
		f = sv.Float()
	case isText(sv):
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(textOf(sv)), dst.Type().Bits())
		if err != nil {
			return errs.NewErrConversionCause(src, dst.Type(), err)
		}
	default:
		return errs.NewErrConversion(src, dst.Type())
	}
	if dst.OverflowFloat(f) {
		return errs.NewErrConversion(src, dst.Type())
	}
	dst.SetFloat(f)
	return nil
}

func asString(sv reflect.Value) (string, bool) {
	switch {
	case isText(sv):
		return textOf(sv), true
	case isInt(sv):
		return strconv.FormatInt(sv.Int(), 10), true
	case isUint(sv):
		return strconv.FormatUint(sv.Uint(), 10), true
	case isFloat(sv):
		return strconv.FormatFloat(sv.Float(), 'g', -1, sv.Type().Bits()), true
	case sv.Kind() == reflect.Bool:
		return strconv.FormatBool(sv.Bool()), true
	case sv.Type() == timeType:
		return sv.Interface().(time.Time).Format(time.RFC3339Nano), true
	}
	return "", false
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var err error
	for _, layout := range timeFormats {
		t, perr := time.ParseInLocation(layout, s, time.UTC)
		if perr == nil {
			return t, nil
		}
		err = perr
	}
	return time.Time{}, err
}

func isInt(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return true
	}
	return false
}

func isUint(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isFloat(v reflect.Value) bool {
	return v.Kind() == reflect.Float32 || v.Kind() == reflect.Float64
}

// isText 字符串或者 []byte
func isText(v reflect.Value) bool {
	return v.Kind() == reflect.String ||
		(v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8)
}

func textOf(v reflect.Value) string {
	if v.Kind() == reflect.String {
		return v.String()
	}
	return string(v.Bytes())
}
