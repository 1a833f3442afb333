package util

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

type configInjector struct {
	config *config.Config
}

// NewAppContextInterceptor makes cfg available via config.FromContext.
func NewAppContextInterceptor(cfg *config.Config) connect.Interceptor {
	return &configInjector{config: cfg}
}

//nolint:whitespace // better readability
func (i *configInjector) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		return next(config.NewContext(ctx, i.config), req)
	})
}

//nolint:whitespace // editor/linter
func (i *configInjector) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//nolint:whitespace // editor/linter
func (i *configInjector) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		return next(config.NewContext(ctx, i.config), conn)
	})
}

// NewSessionIDInterceptor moves the session id header into the context.
// Requests with a malformed id are rejected.
func NewSessionIDInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			id := req.Header().Get(session.SessionIDHeader)
			if id == "" || req.Spec().IsClient {
				return next(ctx, req)
			}
			if err := session.ValidateID(id); err != nil {
				return nil, connect.NewError(connect.CodeInvalidArgument, err)
			}
			return next(session.AddIDToContext(ctx, id), req)
		})
	}
}
