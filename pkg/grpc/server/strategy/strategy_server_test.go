//nolint:funlen // test setup
package strategy_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/catalog"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/client"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/server/strategy"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/server/util"
	strategyv1 "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1"
	x "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/strategy/v1/strategyv1connect"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session/memory"
)

type testServer struct {
	*httptest.Server
	metrics *util.Metrics
}

func startServer(t *testing.T, rateLimit float64, minVersion string) *testServer {
	t.Helper()
	c, err := catalog.New(catalog.BuiltinRaces()...)
	require.NoError(t, err)
	svc := service.NewStrategyService(c, service.WithSessionStore(memory.NewStore()))
	metrics := util.NewMetrics()
	mux := http.NewServeMux()
	strategy.Register(mux, svc,
		metrics.Interceptor(),
		util.NewTraceIDInterceptor(),
		util.NewRateLimitInterceptor(rateLimit, 1, metrics),
		util.NewVersionCheckInterceptor(minVersion),
		util.NewSessionIDInterceptor(),
		util.NewAppContextInterceptor(&config.Config{}),
	)
	mux.Handle("/metrics", metrics.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, metrics: metrics}
}

func newClient(ts *testServer, opts ...client.Option) x.StrategyServiceClient {
	return client.New(ts.URL, append([]client.Option{client.WithHTTPClient(ts.Client())}, opts...)...)
}

func TestCalendarAndRace(t *testing.T) {
	ts := startServer(t, 0, "")
	c := newClient(ts)
	ctx := context.Background()

	cal, err := c.GetCalendar(ctx, connect.NewRequest(&strategyv1.GetCalendarRequest{Season: 2024}))
	require.NoError(t, err)
	assert.Len(t, cal.Msg.Races, 2)

	race, err := c.GetRace(ctx, connect.NewRequest(&strategyv1.GetRaceRequest{RaceID: "nope"}))
	require.NoError(t, err)
	assert.False(t, race.Msg.OK)
	assert.Equal(t, "race_id not found", race.Msg.Error)

	race, err = c.GetRace(ctx, connect.NewRequest(&strategyv1.GetRaceRequest{RaceID: "demo_mexico_2024"}))
	require.NoError(t, err)
	assert.True(t, race.Msg.OK)
	assert.Equal(t, 57, race.Msg.Laps)
	assert.Equal(t, []string{"SOFT", "MEDIUM", "HARD"}, race.Msg.Compounds)
}

func TestRecommendAndExplain(t *testing.T) {
	ts := startServer(t, 0, "")
	c := newClient(ts)
	id := session.NewID()
	ctx := session.AddIDToContext(context.Background(), id)

	res, err := c.RecommendStrategy(ctx, connect.NewRequest(&strategyv1.RecommendStrategyRequest{
		RaceID:       "demo_mexico_2024",
		BaseLaptimeS: 80,
		DegSoftS:     0.12,
		DegMediumS:   0.08,
		DegHardS:     0.05,
		MinStintLaps: 10,
		MaxStintLaps: 30,
	}))
	require.NoError(t, err)
	require.True(t, res.Msg.OK, res.Msg.Error)
	assert.Equal(t, []string{"MEDIUM: 14", "HARD: 21", "HARD: 22"}, res.Msg.Strategy)

	explained, err := c.ExplainStrategy(ctx, connect.NewRequest(&strategyv1.ExplainStrategyRequest{}))
	require.NoError(t, err)
	require.True(t, explained.Msg.OK, explained.Msg.Error)
	assert.Equal(t, "demo_mexico_2024", explained.Msg.Plan.RaceID)
	assert.Len(t, explained.Msg.Plan.Parts, 5)

	other, err := c.ExplainStrategy(context.Background(), connect.NewRequest(
		&strategyv1.ExplainStrategyRequest{SessionID: session.NewID()}))
	require.NoError(t, err)
	assert.False(t, other.Msg.OK)
	assert.Equal(t, "no strategy in session", other.Msg.Error)
}

func TestInvalidSessionID(t *testing.T) {
	ts := startServer(t, 0, "")
	c := newClient(ts)
	ctx := session.AddIDToContext(context.Background(), "not-a-session")
	_, err := c.ExplainStrategy(ctx, connect.NewRequest(&strategyv1.ExplainStrategyRequest{}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestVersionCheck(t *testing.T) {
	ts := startServer(t, 0, "v1.2.0")
	req := &strategyv1.GetRaceRequest{RaceID: "demo_monza_2024"}

	_, err := newClient(ts, client.WithVersion("1.1.9")).
		GetRace(context.Background(), connect.NewRequest(req))
	require.Error(t, err)
	assert.Equal(t, connect.CodeFailedPrecondition, connect.CodeOf(err))

	_, err = newClient(ts, client.WithVersion("v1.2.0")).
		GetRace(context.Background(), connect.NewRequest(req))
	require.NoError(t, err)

	// no header at all is accepted
	_, err = newClient(ts, client.WithVersion("")).
		GetRace(context.Background(), connect.NewRequest(req))
	require.NoError(t, err)
}

func TestRateLimit(t *testing.T) {
	ts := startServer(t, 0.001, "")
	c := newClient(ts)
	req := &strategyv1.GetCalendarRequest{Season: 2024}
	_, err := c.GetCalendar(context.Background(), connect.NewRequest(req))
	require.NoError(t, err)
	_, err = c.GetCalendar(context.Background(), connect.NewRequest(req))
	require.Error(t, err)
	assert.Equal(t, connect.CodeResourceExhausted, connect.CodeOf(err))
}

func TestMetricsEndpoint(t *testing.T) {
	ts := startServer(t, 0, "")
	c := newClient(ts)
	_, err := c.GetCalendar(context.Background(),
		connect.NewRequest(&strategyv1.GetCalendarRequest{Season: 2024}))
	require.NoError(t, err)

	resp, err := ts.Client().Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body),
		`psm_rpc_requests_total{code="ok",procedure="/psm.strategy.v1.StrategyService/GetCalendar"} 1`)
}
