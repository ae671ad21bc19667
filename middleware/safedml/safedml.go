package safedml

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/startdusk/sequel"
)

var (
	ErrMissingWhere = errors.New("safedml: UPDATE or DELETE without WHERE")
	ErrDeleteBanned = errors.New("safedml: DELETE is not allowed")
)

var whereClause = regexp.MustCompile(`(?i)\bWHERE\b`)

// 强制要执行的SQL语句
// UPDATE, DELETE必须带WHERE, SELECT要不要带自己抉择
// 可选地禁用 DELETE 语句
type MiddlewareBuilder struct {
	banDelete bool
}

func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{}
}

// BanDelete 禁用 DELETE 语句
func (m *MiddlewareBuilder) BanDelete() *MiddlewareBuilder {
	m.banDelete = true
	return m
}

func (m MiddlewareBuilder) Build() sequel.Middleware {
	return func(next sequel.Handler) sequel.Handler {
		return func(ctx context.Context, qc *sequel.QueryContext) *sequel.QueryResult {
			for _, q := range qc.Queries {
				if err := m.check(q.SQL); err != nil {
					return &sequel.QueryResult{Err: err}
				}
			}
			return next(ctx, qc)
		}
	}
}

func (m MiddlewareBuilder) check(query string) error {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return nil
	}
	verb := strings.ToUpper(fields[0])
	if verb != "UPDATE" && verb != "DELETE" {
		return nil
	}
	if verb == "DELETE" && m.banDelete {
		return ErrDeleteBanned
	}
	if !whereClause.MatchString(query) {
		return fmt.Errorf("%w: %s", ErrMissingWhere, query)
	}
	return nil
}
