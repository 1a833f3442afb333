package strategy

import (
	"context"

	"connectrpc.com/connect"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	strategyv1 "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1"
	x "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
)

func NewServer(opts ...Option) *strategyServer {
	ret := &strategyServer{
		log: log.Default().Named("grpc.strategy"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*strategyServer)

func WithService(svc *service.StrategyService) Option {
	return func(srv *strategyServer) {
		srv.svc = svc
	}
}

type strategyServer struct {
	svc *service.StrategyService
	log *log.Logger
}

var _ x.StrategyServiceHandler = (*strategyServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) GetCalendar(
	ctx context.Context,
	req *connect.Request[strategyv1.GetCalendarRequest],
) (*connect.Response[strategyv1.GetCalendarResponse], error) {
	return connect.NewResponse(s.svc.Calendar(ctx, req.Msg.Season)), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) GetRace(
	ctx context.Context,
	req *connect.Request[strategyv1.GetRaceRequest],
) (*connect.Response[strategyv1.GetRaceResponse], error) {
	return connect.NewResponse(s.svc.Race(ctx, req.Msg.RaceID)), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) RecommendStrategy(
	ctx context.Context,
	req *connect.Request[strategyv1.RecommendStrategyRequest],
) (*connect.Response[strategyv1.RecommendStrategyResponse], error) {
	sessionID := session.IDFromContext(ctx)
	s.log.Debug("recommend",
		log.String("race_id", req.Msg.RaceID),
		log.String("session", sessionID))
	res := s.svc.Recommend(ctx, req.Msg.ToService(sessionID))
	return connect.NewResponse(res), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *strategyServer) ExplainStrategy(
	ctx context.Context,
	req *connect.Request[strategyv1.ExplainStrategyRequest],
) (*connect.Response[strategyv1.ExplainStrategyResponse], error) {
	sessionID := req.Msg.SessionID
	if sessionID == "" {
		sessionID = session.IDFromContext(ctx)
	}
	return connect.NewResponse(s.svc.Explain(ctx, sessionID)), nil
}
