package sequel

// Query 是编译后可以直接交给驱动执行的语句
type Query struct {
	SQL  string
	Args []any

	// Identity 不为空表示这是一条插入语句, 执行后返回该列的自增值
	Identity string
}
