package postgres

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/imagerisk/imagerisk/pkg/postgres"

// queryTracer implements pgx.QueryTracer with one client span per statement.
type queryTracer struct {
	tracer trace.Tracer
}

func newQueryTracer() *queryTracer {
	return &queryTracer{tracer: otel.Tracer(tracerName)}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = t.tracer.Start(ctx, spanName(data.SQL),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("db.statement", data.SQL),
		),
	)
	return ctx
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)
	if data.Err != nil {
		span.RecordError(data.Err)
		span.SetStatus(codes.Error, data.Err.Error())
	} else {
		span.SetAttributes(attribute.Int64("db.rows_affected", data.CommandTag.RowsAffected()))
	}
	span.End()
}

// spanName is the leading SQL keyword, e.g. "postgres SELECT".
func spanName(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "postgres"
	}
	return "postgres " + strings.ToUpper(fields[0])
}
