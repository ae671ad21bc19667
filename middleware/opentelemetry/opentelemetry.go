package opentelemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/startdusk/sequel"
)

const instrumentationName = "github.com/startdusk/sequel/middleware/opentelemetry"

type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

func (m MiddlewareBuilder) Build() sequel.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next sequel.Handler) sequel.Handler {
		return func(ctx context.Context, qc *sequel.QueryContext) *sequel.QueryResult {
			// span name: sequel-NONQUERY
			spanCtx, span := m.Tracer.Start(ctx, fmt.Sprintf("sequel-%s", qc.Type))
			defer span.End()

			// tracing这里没必要记录参数, 防止数据过大(如 blob), 防止敏感数据被记录到tracing(如 用户密码)
			sqls := make([]string, 0, len(qc.Queries))
			for _, q := range qc.Queries {
				sqls = append(sqls, q.SQL)
			}
			span.SetAttributes(
				attribute.String("sql", strings.Join(sqls, "\n")),
				attribute.Int("statements", len(qc.Queries)),
				attribute.String("command.id", qc.Command.ID()),
				attribute.String("component", "sequel"),
			)

			res := next(spanCtx, qc)
			if res.Err != nil {
				span.RecordError(res.Err)
				span.SetStatus(codes.Error, res.Err.Error())
			}
			return res
		}
	}
}
