// Package strategyv1connect wires the StrategyService messages to connect
// handlers and clients. All handlers and clients use the JSON codec.
package strategyv1connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/codec"
	strategyv1 "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1"
)

const StrategyServiceName = "psm.strategy.v1.StrategyService"

//nolint:lll // generated style names
const (
	StrategyServiceGetCalendarProcedure       = "/psm.strategy.v1.StrategyService/GetCalendar"
	StrategyServiceGetRaceProcedure           = "/psm.strategy.v1.StrategyService/GetRace"
	StrategyServiceRecommendStrategyProcedure = "/psm.strategy.v1.StrategyService/RecommendStrategy"
	StrategyServiceExplainStrategyProcedure   = "/psm.strategy.v1.StrategyService/ExplainStrategy"
)

//nolint:lll // generated style signatures
type (
	StrategyServiceHandler interface {
		GetCalendar(context.Context, *connect.Request[strategyv1.GetCalendarRequest]) (*connect.Response[strategyv1.GetCalendarResponse], error)
		GetRace(context.Context, *connect.Request[strategyv1.GetRaceRequest]) (*connect.Response[strategyv1.GetRaceResponse], error)
		RecommendStrategy(context.Context, *connect.Request[strategyv1.RecommendStrategyRequest]) (*connect.Response[strategyv1.RecommendStrategyResponse], error)
		ExplainStrategy(context.Context, *connect.Request[strategyv1.ExplainStrategyRequest]) (*connect.Response[strategyv1.ExplainStrategyResponse], error)
	}
	StrategyServiceClient interface {
		GetCalendar(context.Context, *connect.Request[strategyv1.GetCalendarRequest]) (*connect.Response[strategyv1.GetCalendarResponse], error)
		GetRace(context.Context, *connect.Request[strategyv1.GetRaceRequest]) (*connect.Response[strategyv1.GetRaceResponse], error)
		RecommendStrategy(context.Context, *connect.Request[strategyv1.RecommendStrategyRequest]) (*connect.Response[strategyv1.RecommendStrategyResponse], error)
		ExplainStrategy(context.Context, *connect.Request[strategyv1.ExplainStrategyRequest]) (*connect.Response[strategyv1.ExplainStrategyResponse], error)
	}
	strategyServiceClient struct {
		getCalendar       *connect.Client[strategyv1.GetCalendarRequest, strategyv1.GetCalendarResponse]
		getRace           *connect.Client[strategyv1.GetRaceRequest, strategyv1.GetRaceResponse]
		recommendStrategy *connect.Client[strategyv1.RecommendStrategyRequest, strategyv1.RecommendStrategyResponse]
		explainStrategy   *connect.Client[strategyv1.ExplainStrategyRequest, strategyv1.ExplainStrategyResponse]
	}
)

// NewStrategyServiceHandler returns the path on which to mount the handler
// and the handler itself.
//
//nolint:whitespace // editor/linter issue
func NewStrategyServiceHandler(
	svc StrategyServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(codec.NewJSONCodec())}, opts...)
	getCalendarHandler := connect.NewUnaryHandler(
		StrategyServiceGetCalendarProcedure,
		svc.GetCalendar,
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
		connect.WithHandlerOptions(opts...),
	)
	getRaceHandler := connect.NewUnaryHandler(
		StrategyServiceGetRaceProcedure,
		svc.GetRace,
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
		connect.WithHandlerOptions(opts...),
	)
	recommendStrategyHandler := connect.NewUnaryHandler(
		StrategyServiceRecommendStrategyProcedure,
		svc.RecommendStrategy,
		connect.WithHandlerOptions(opts...),
	)
	explainStrategyHandler := connect.NewUnaryHandler(
		StrategyServiceExplainStrategyProcedure,
		svc.ExplainStrategy,
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
		connect.WithHandlerOptions(opts...),
	)
	return "/" + StrategyServiceName + "/", http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case StrategyServiceGetCalendarProcedure:
				getCalendarHandler.ServeHTTP(w, r)
			case StrategyServiceGetRaceProcedure:
				getRaceHandler.ServeHTTP(w, r)
			case StrategyServiceRecommendStrategyProcedure:
				recommendStrategyHandler.ServeHTTP(w, r)
			case StrategyServiceExplainStrategyProcedure:
				explainStrategyHandler.ServeHTTP(w, r)
			default:
				http.NotFound(w, r)
			}
		})
}

// NewStrategyServiceClient creates a client for the service at baseURL, for
// example http://localhost:8080.
//
//nolint:whitespace // editor/linter issue
func NewStrategyServiceClient(
	httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption,
) StrategyServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(codec.NewJSONCodec())}, opts...)
	return &strategyServiceClient{
		getCalendar: connect.NewClient[strategyv1.GetCalendarRequest, strategyv1.GetCalendarResponse](
			httpClient, baseURL+StrategyServiceGetCalendarProcedure, opts...),
		getRace: connect.NewClient[strategyv1.GetRaceRequest, strategyv1.GetRaceResponse](
			httpClient, baseURL+StrategyServiceGetRaceProcedure, opts...),
		recommendStrategy: connect.NewClient[strategyv1.RecommendStrategyRequest, strategyv1.RecommendStrategyResponse](
			httpClient, baseURL+StrategyServiceRecommendStrategyProcedure, opts...),
		explainStrategy: connect.NewClient[strategyv1.ExplainStrategyRequest, strategyv1.ExplainStrategyResponse](
			httpClient, baseURL+StrategyServiceExplainStrategyProcedure, opts...),
	}
}

//nolint:lll // generated style signatures
func (c *strategyServiceClient) GetCalendar(ctx context.Context, req *connect.Request[strategyv1.GetCalendarRequest]) (*connect.Response[strategyv1.GetCalendarResponse], error) {
	return c.getCalendar.CallUnary(ctx, req)
}

//nolint:lll // generated style signatures
func (c *strategyServiceClient) GetRace(ctx context.Context, req *connect.Request[strategyv1.GetRaceRequest]) (*connect.Response[strategyv1.GetRaceResponse], error) {
	return c.getRace.CallUnary(ctx, req)
}

//nolint:lll // generated style signatures
func (c *strategyServiceClient) RecommendStrategy(ctx context.Context, req *connect.Request[strategyv1.RecommendStrategyRequest]) (*connect.Response[strategyv1.RecommendStrategyResponse], error) {
	return c.recommendStrategy.CallUnary(ctx, req)
}

//nolint:lll // generated style signatures
func (c *strategyServiceClient) ExplainStrategy(ctx context.Context, req *connect.Request[strategyv1.ExplainStrategyRequest]) (*connect.Response[strategyv1.ExplainStrategyResponse], error) {
	return c.explainStrategy.CallUnary(ctx, req)
}
