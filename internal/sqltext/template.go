// Package sqltext 把带 @name 占位符的 SQL 编译成模板, 再按方言替换成绑定变量
package sqltext

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const cacheSize = 512

// 同一条 SQL 往往会被反复执行, 编译结果是只读的, 可以安全共享
var cache, _ = lru.New[string, *Template](cacheSize)

type part struct {
	// name 不为空时表示占位符, 否则是原样输出的 text
	name string
	text string
}

type Template struct {
	text  string
	parts []part
}

// Parse 编译 SQL, 字符串字面量, 带引号的标识符, 注释, PostgreSQL 的 $tag$ 字符串
// 以及 @@ 系统变量都会原样保留
func Parse(text string) *Template {
	if t, ok := cache.Get(text); ok {
		return t
	}
	t := parse(text)
	cache.Add(text, t)
	return t
}

// Names 按出现顺序返回占位符名字, 可能重复
func (t *Template) Names() []string {
	names := make([]string, 0, len(t.parts))
	for _, p := range t.parts {
		if p.name != "" {
			names = append(names, p.name)
		}
	}
	return names
}

// Bind 用 bindVar 生成的绑定变量替换占位符.
// lookup 找不到的占位符保持原样. reuse 为 true 时同名占位符复用同一个序号 (PostgreSQL 的 $n),
// 否则每次出现都追加一个参数 (MySQL 和 SQLite 的 ?).
func (t *Template) Bind(lookup func(name string) (any, bool), bindVar func(n int) string, reuse bool) (string, []any) {
	var sb strings.Builder
	sb.Grow(len(t.text) + 8)
	var args []any
	var seen map[string]int
	if reuse {
		seen = make(map[string]int, len(t.parts))
	}
	for _, p := range t.parts {
		if p.name == "" {
			sb.WriteString(p.text)
			continue
		}
		val, ok := lookup(p.name)
		if !ok {
			sb.WriteByte('@')
			sb.WriteString(p.name)
			continue
		}
		if reuse {
			key := strings.ToLower(p.name)
			if n, ok := seen[key]; ok {
				sb.WriteString(bindVar(n))
				continue
			}
			args = append(args, val)
			seen[key] = len(args)
		} else {
			args = append(args, val)
		}
		sb.WriteString(bindVar(len(args)))
	}
	return sb.String(), args
}

func parse(text string) *Template {
	t := &Template{text: text}
	var sb strings.Builder
	flush := func() {
		if sb.Len() > 0 {
			t.parts = append(t.parts, part{text: sb.String()})
			sb.Reset()
		}
	}
	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			j := skipQuoted(text, i)
			sb.WriteString(text[i:j])
			i = j
		case c == '-' && peek(text, i+1) == '-':
			j := strings.IndexByte(text[i:], '\n')
			if j < 0 {
				j = len(text)
			} else {
				j += i
			}
			sb.WriteString(text[i:j])
			i = j
		case c == '/' && peek(text, i+1) == '*':
			j := strings.Index(text[i+2:], "*/")
			if j < 0 {
				j = len(text)
			} else {
				j += i + 4
			}
			sb.WriteString(text[i:j])
			i = j
		case c == '$' && (i == 0 || !isIdentChar(text[i-1])):
			j := skipDollarQuoted(text, i)
			sb.WriteString(text[i:j])
			i = j
		case c == '@' && peek(text, i+1) == '@':
			j := scanIdent(text, i+2)
			sb.WriteString(text[i:j])
			i = j
		case c == '@' && isIdentStart(peek(text, i+1)):
			j := scanIdent(text, i+1)
			flush()
			t.parts = append(t.parts, part{name: text[i+1 : j]})
			i = j
		default:
			sb.WriteByte(c)
			i++
		}
	}
	flush()
	return t
}

// skipQuoted 返回闭合引号之后的位置, 连写两个引号视为转义
func skipQuoted(text string, start int) int {
	q := text[start]
	for i := start + 1; i < len(text); i++ {
		if text[i] != q {
			continue
		}
		if peek(text, i+1) == q {
			i++
			continue
		}
		return i + 1
	}
	return len(text)
}

// skipDollarQuoted 跳过 $tag$ ... $tag$, 不是这种形式时 (例如 $1) 只跳过 $ 本身
func skipDollarQuoted(text string, start int) int {
	end := start + 1
	if isIdentStart(peek(text, end)) {
		end = scanIdent(text, end)
	}
	if peek(text, end) != '$' {
		return start + 1
	}
	tag := text[start : end+1]
	j := strings.Index(text[end+1:], tag)
	if j < 0 {
		return len(text)
	}
	return end + 1 + j + len(tag)
}

func scanIdent(text string, i int) int {
	for i < len(text) && isIdentChar(text[i]) {
		i++
	}
	return i
}

func peek(text string, i int) byte {
	if i < len(text) {
		return text[i]
	}
	return 0
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
