package querylog

import (
	"context"

	"go.uber.org/zap"

	"github.com/startdusk/sequel"
)

type MiddlewareBuilder struct {
	// 存在问题, SQL参数存在敏感数据不应该被打印出来
	// 使用 debug 标记为标记是否打印出参数(不推荐做法, 会入侵大面积代码)
	logFunc func(query string, args []any)
}

// NewMiddlewareBuilder fn 为 nil 时用 zap 的全局 logger 输出
func NewMiddlewareBuilder(fn func(query string, args []any)) *MiddlewareBuilder {
	if fn == nil {
		fn = func(query string, args []any) {
			zap.L().Info("sequel: query", zap.String("sql", query), zap.Int("args", len(args)))
		}
	}
	return &MiddlewareBuilder{
		logFunc: fn,
	}
}

func (m MiddlewareBuilder) Build() sequel.Middleware {
	return func(next sequel.Handler) sequel.Handler {
		return func(ctx context.Context, qc *sequel.QueryContext) *sequel.QueryResult {
			for _, q := range qc.Queries {
				m.logFunc(q.SQL, q.Args)
			}
			return next(ctx, qc)
		}
	}
}
