package sequel

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSON 把任意值以 JSON 的形式存进一列
type JSON[T any] struct {
	Val T

	// 处理NULL的问题
	Valid bool
}

func (j JSON[T]) Value() (driver.Value, error) {
	if !j.Valid {
		// NULL
		return nil, nil
	}
	return json.Marshal(j.Val)
}

func (j *JSON[T]) Scan(src any) error {
	var bs []byte
	switch data := src.(type) {
	case string:
		bs = []byte(data)
	case []byte:
		bs = data
	case nil:
		// 说明数据库里面存的就是 NULL
		var zero T
		j.Val, j.Valid = zero, false
		return nil
	default:
		return fmt.Errorf("sequel: JSON column does not support %T", src)
	}
	err := json.Unmarshal(bs, &j.Val)
	// 代表有数据 不为 NULL
	j.Valid = err == nil
	return err
}
