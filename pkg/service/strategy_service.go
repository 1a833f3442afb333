package service

import (
	"context"
	"errors"
	"time"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/catalog"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/strategy"
)

var ErrNoStrategy = errors.New("no strategy in session")

const instrumentationName = "github.com/mpapenbr/pitstop-strategy-manager/pkg/service"

type (
	// Recorder receives one entry per handled operation.
	Recorder interface {
		Record(event string, fields ...log.Field)
	}
	Option          func(*StrategyService)
	StrategyService struct {
		catalog       catalog.RaceCatalog
		sessions      session.Store
		recorder      Recorder
		maxCandidates int
		log           *log.Logger
		tracer        trace.Tracer
		requests      metric.Int64Counter
		solveDuration metric.Float64Histogram
	}
)

func WithSessionStore(store session.Store) Option {
	return func(s *StrategyService) {
		s.sessions = store
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *StrategyService) {
		s.recorder = r
	}
}

// WithMaxCandidates is used when the request context carries no limit.
func WithMaxCandidates(n int) Option {
	return func(s *StrategyService) {
		s.maxCandidates = n
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *StrategyService) {
		s.log = l
	}
}

func NewStrategyService(c catalog.RaceCatalog, opts ...Option) *StrategyService {
	ret := &StrategyService{
		catalog: c,
		log:     log.Default().Named("service"),
		tracer:  otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(ret)
	}
	meter := otel.Meter(instrumentationName)
	var err error
	if ret.requests, err = meter.Int64Counter("psm.strategy.requests",
		metric.WithDescription("number of handled strategy operations")); err != nil {
		ret.log.Warn("could not create counter", log.ErrorField(err))
	}
	if ret.solveDuration, err = meter.Float64Histogram("psm.strategy.solve.duration",
		metric.WithUnit("s"),
		metric.WithDescription("duration of a strategy search")); err != nil {
		ret.log.Warn("could not create histogram", log.ErrorField(err))
	}
	return ret
}

// Calendar lists the races of a season in catalog order.
func (s *StrategyService) Calendar(ctx context.Context, season int) *CalendarResult {
	_, span := s.tracer.Start(ctx, "get_calendar",
		trace.WithAttributes(attribute.Int("season", season)))
	defer span.End()
	s.count(ctx, "get_calendar", true)

	ret := &CalendarResult{
		Season: season,
		Races: lo.Map(s.catalog.Calendar(season),
			func(r *model.Race, _ int) CalendarEntry {
				return CalendarEntry{RaceID: r.RaceID, Name: r.Name, Laps: r.TotalLaps}
			}),
	}
	s.record("get_calendar", log.Int("season", season), log.Any("response", ret))
	return ret
}

func (s *StrategyService) Race(ctx context.Context, raceID string) *RaceResult {
	_, span := s.tracer.Start(ctx, "get_race",
		trace.WithAttributes(attribute.String("race_id", raceID)))
	defer span.End()

	var ret *RaceResult
	race, err := s.catalog.Lookup(raceID)
	if err != nil {
		ret = &RaceResult{OK: false, Error: err.Error()}
	} else {
		ret = &RaceResult{
			OK:        true,
			RaceID:    race.RaceID,
			Name:      race.Name,
			Season:    race.Season,
			Laps:      race.TotalLaps,
			PitLossS:  race.PitLossSeconds,
			Compounds: lo.Map(race.Compounds, func(c model.CompoundKind, _ int) string { return c.String() }),
		}
	}
	s.count(ctx, "get_race", ret.OK)
	s.record("get_race", log.String("race_id", raceID), log.Any("response", ret))
	return ret
}

// Recommend searches the best strategy for the request. All failures are
// reported in the result.
func (s *StrategyService) Recommend(ctx context.Context, req *RecommendRequest) *strategy.Result {
	ctx, span := s.tracer.Start(ctx, "recommend_strategy",
		trace.WithAttributes(attribute.String("race_id", req.RaceID)))
	defer span.End()

	ret := s.recommend(ctx, req)
	if !ret.OK {
		span.SetStatus(codes.Error, ret.Error)
	}
	s.count(ctx, "recommend_strategy", ret.OK)
	s.record("recommend_strategy", log.Any("request", s.planRequest(req)), log.Any("response", ret))
	return ret
}

func (s *StrategyService) recommend(ctx context.Context, req *RecommendRequest) *strategy.Result {
	race, err := s.catalog.Lookup(req.RaceID)
	if err != nil {
		return strategy.FormatError(err)
	}
	p := s.params(req)
	opt := strategy.NewOptimizer(
		strategy.WithMaxCandidates(s.candidateLimit(ctx)),
		strategy.WithLogger(s.log.Named("strategy")))

	start := time.Now()
	solved, err := opt.Solve(race, p)
	if s.solveDuration != nil {
		s.solveDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("race_id", race.RaceID)))
	}
	if err != nil {
		s.log.Debug("no strategy", log.String("race_id", race.RaceID), log.ErrorField(err))
		return strategy.FormatError(err)
	}
	ret := strategy.FormatStrategy(race, p, solved)
	if req.SessionID != "" && s.sessions != nil {
		plan := &session.Plan{
			RaceID:  race.RaceID,
			Request: s.planRequest(req),
			Result:  ret,
			Parts:   strategy.FormatParts(solved.Parts(race.PitLossSeconds)),
		}
		if err := s.sessions.Put(ctx, &session.Session{ID: req.SessionID, Plan: plan}); err != nil {
			s.log.Warn("could not store session",
				log.String("session", req.SessionID), log.ErrorField(err))
		}
	}
	return ret
}

// Explain returns the last strategy stored in the session including the
// stint and pit breakdown.
func (s *StrategyService) Explain(ctx context.Context, sessionID string) *ExplainResult {
	ctx, span := s.tracer.Start(ctx, "explain_strategy")
	defer span.End()

	ret := &ExplainResult{OK: false, Error: ErrNoStrategy.Error()}
	if s.sessions != nil && sessionID != "" {
		sess, err := s.sessions.Get(ctx, sessionID)
		switch {
		case err == nil && sess.Plan != nil:
			ret = &ExplainResult{OK: true, Plan: sess.Plan}
		case err != nil && !errors.Is(err, session.ErrSessionNotFound):
			s.log.Warn("could not read session",
				log.String("session", sessionID), log.ErrorField(err))
		}
	}
	s.count(ctx, "explain_strategy", ret.OK)
	s.record("explain_strategy", log.String("session", sessionID), log.Any("response", ret))
	return ret
}

func (s *StrategyService) params(req *RecommendRequest) strategy.Params {
	p := strategy.DefaultParams()
	p.BaseLaptime = req.BaseLaptimeS
	p.Degradation = model.DegradationProfile{
		model.CompoundSoft:   req.DegSoftS,
		model.CompoundMedium: req.DegMediumS,
		model.CompoundHard:   req.DegHardS,
	}
	p.MinStintLaps = req.MinStintLaps
	p.MaxStintLaps = req.MaxStintLaps
	p.MaxStops = req.MaxStops.GetOr(strategy.DefaultMaxStops)
	p.EnforceTwoCompoundRule = req.EnforceTwoCompoundRule.GetOr(true)
	return p
}

func (s *StrategyService) planRequest(req *RecommendRequest) session.PlanRequest {
	p := s.params(req)
	return session.PlanRequest{
		RaceID:                 req.RaceID,
		BaseLaptimeS:           req.BaseLaptimeS,
		DegSoftS:               req.DegSoftS,
		DegMediumS:             req.DegMediumS,
		DegHardS:               req.DegHardS,
		MinStintLaps:           req.MinStintLaps,
		MaxStintLaps:           req.MaxStintLaps,
		MaxStops:               p.MaxStops,
		EnforceTwoCompoundRule: p.EnforceTwoCompoundRule,
	}
}

func (s *StrategyService) candidateLimit(ctx context.Context) int {
	if n := config.FromContext(ctx).MaxCandidates; n > 0 {
		return n
	}
	return s.maxCandidates
}

func (s *StrategyService) count(ctx context.Context, op string, ok bool) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.Bool("ok", ok)))
}

func (s *StrategyService) record(event string, fields ...log.Field) {
	if s.recorder != nil {
		s.recorder.Record(event, fields...)
	}
}
