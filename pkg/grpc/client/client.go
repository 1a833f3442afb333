// Package client creates StrategyService clients which send the client
// version and the session id of the context.
package client

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/server/util"
	x "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/version"
)

type (
	Option func(*config)
	config struct {
		httpClient connect.HTTPClient
		version    string
		opts       []connect.ClientOption
	}
)

func WithHTTPClient(c connect.HTTPClient) Option {
	return func(cfg *config) {
		cfg.httpClient = c
	}
}

// WithVersion overrides the reported client version.
func WithVersion(v string) Option {
	return func(cfg *config) {
		cfg.version = v
	}
}

func WithClientOptions(opts ...connect.ClientOption) Option {
	return func(cfg *config) {
		cfg.opts = append(cfg.opts, opts...)
	}
}

func New(baseURL string, opts ...Option) x.StrategyServiceClient {
	cfg := &config{httpClient: http.DefaultClient, version: version.Version}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.version == "dev" {
		// development builds don't report a version
		cfg.version = ""
	}
	clientOpts := append([]connect.ClientOption{
		connect.WithInterceptors(headerInterceptor(cfg.version)),
	}, cfg.opts...)
	return x.NewStrategyServiceClient(cfg.httpClient, baseURL, clientOpts...)
}

func headerInterceptor(clientVersion string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return connect.UnaryFunc(func(
			ctx context.Context,
			req connect.AnyRequest,
		) (connect.AnyResponse, error) {
			if req.Spec().IsClient {
				if clientVersion != "" {
					req.Header().Set(util.ClientVersionHeader, clientVersion)
				}
				if id := session.IDFromContext(ctx); id != "" {
					req.Header().Set(session.SessionIDHeader, id)
				}
			}
			return next(ctx, req)
		})
	}
}
