package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/startdusk/sequel"
)

type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string

	// Registerer 为 nil 时注册到 prometheus.DefaultRegisterer
	Registerer prometheus.Registerer
}

func (m MiddlewareBuilder) Build() sequel.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Name:      m.Name,
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      m.Help,

		// 设置指标 如 0.5: 0.01 0.5是一个指标，0.01是一个误差值，表示0.5上下0.01 即误差范围为 0.49-0.51
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{
		"type",   // NONQUERY, SCALAR, READER, QUERY
		"status", // ok 或者 error
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:      m.Name + "_errors_total",
		Subsystem: m.Subsystem,
		Namespace: m.Namespace,
		Help:      "Number of failed commands.",
	}, []string{"type"})

	reg := m.Registerer
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(vector, failures)

	return func(next sequel.Handler) sequel.Handler {
		return func(ctx context.Context, qc *sequel.QueryContext) *sequel.QueryResult {
			startTime := time.Now()
			res := next(ctx, qc)
			status := "ok"
			if res.Err != nil {
				status = "error"
				failures.WithLabelValues(qc.Type).Inc()
			}
			// 记录执行时间, 单位毫秒
			vector.WithLabelValues(qc.Type, status).Observe(float64(time.Since(startTime).Milliseconds()))
			return res
		}
	}
}
