package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limit exceeded")

// NewRateLimitInterceptor shares one token bucket between all callers.
// A limit <= 0 disables the check.
func NewRateLimitInterceptor(limit float64, burst int, m *Metrics) connect.UnaryInterceptorFunc {
	var limiter *rate.Limiter
	if limit > 0 {
		limiter = rate.NewLimiter(rate.Limit(limit), max(burst, 1))
	}
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			if limiter != nil && !req.Spec().IsClient && !limiter.Allow() {
				m.rateLimited()
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		})
	}
}
