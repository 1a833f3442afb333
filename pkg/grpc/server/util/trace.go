package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/trace"
)

const TraceIDHeader = "Psm-Trace-Id"

// NewTraceIDInterceptor reports the trace id of the server span in the
// response headers, also for failed calls.
func NewTraceIDInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			sc := trace.SpanContextFromContext(ctx)
			res, err := next(ctx, req)
			if !sc.IsValid() {
				return res, err
			}
			traceID := sc.TraceID().String()
			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) {
					connectErr.Meta().Set(TraceIDHeader, traceID)
				}
				return nil, err
			}
			res.Header().Set(TraceIDHeader, traceID)
			return res, nil
		})
	}
}
