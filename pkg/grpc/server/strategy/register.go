package strategy

import (
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"

	x "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
)

// Register mounts the strategy service and the gRPC health check on mux.
//
//nolint:whitespace // can't make both editor and linter happy
func Register(
	mux *http.ServeMux,
	svc *service.StrategyService,
	interceptors ...connect.Interceptor,
) {
	path, handler := x.NewStrategyServiceHandler(
		NewServer(WithService(svc)),
		connect.WithInterceptors(interceptors...),
	)
	mux.Handle(path, handler)
	mux.Handle(grpchealth.NewHandler(grpchealth.NewStaticChecker(x.StrategyServiceName)))
}
