// Package context 拓展上下文功能，在请求链路中传递操作人与追踪信息.
package context

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

type ContextKey string

const (
	OperatorKey ContextKey = "operator"

	// DefaultOperator 审核人缺省值.
	DefaultOperator = "admin"
)

// WithOperator 将操作人写入 context，空值忽略.
func WithOperator(ctx context.Context, operator string) context.Context {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return ctx
	}

	return context.WithValue(ctx, OperatorKey, operator)
}

// Operator 从 context 中获取操作人，未设置时返回 DefaultOperator.
func Operator(ctx context.Context) string {
	if op, ok := ctx.Value(OperatorKey).(string); ok && op != "" {
		return op
	}

	return DefaultOperator
}

// WithTraceContext 创建带有追踪上下文的logger.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return logger.With().
			Str("trace_id", span.SpanContext().TraceID().String()).
			Str("span_id", span.SpanContext().SpanID().String()).
			Logger()
	}

	return logger
}
