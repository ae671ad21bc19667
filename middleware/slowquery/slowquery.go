package slowquery

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/startdusk/sequel"
)

type MiddlewareBuilder struct {
	// 存在问题, SQL参数存在敏感数据不应该被打印出来
	// 使用 debug 标记为标记是否打印出参数(不推荐做法, 会入侵大面积代码)
	logFunc func(query string, args []any, duration time.Duration)

	// 慢查询阈值, 设置需要考虑公司实际情况, 如100ms
	threshold time.Duration
}

// NewMiddlewareBuilder fn 为 nil 时用 zap 的全局 logger 输出
func NewMiddlewareBuilder(threshold time.Duration, fn func(query string, args []any, duration time.Duration)) *MiddlewareBuilder {
	if fn == nil {
		fn = func(query string, _ []any, duration time.Duration) {
			zap.L().Warn("sequel: slow query", zap.String("sql", query), zap.Duration("duration", duration))
		}
	}
	return &MiddlewareBuilder{
		logFunc:   fn,
		threshold: threshold,
	}
}

func (m MiddlewareBuilder) Build() sequel.Middleware {
	return func(next sequel.Handler) sequel.Handler {
		return func(ctx context.Context, qc *sequel.QueryContext) *sequel.QueryResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				// 不是慢查询
				if duration <= m.threshold {
					return
				}
				for _, q := range qc.Queries {
					m.logFunc(q.SQL, q.Args, duration)
				}
			}()

			// 不调用next就是dry run
			return next(ctx, qc)
		}
	}
}
