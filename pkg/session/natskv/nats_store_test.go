package natskv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/strategy"
	"github.com/mpapenbr/pitstop-strategy-manager/testsupport/tcnats"
)

func TestNatsStore(t *testing.T) {
	nc := tcnats.SetupTestNats()
	defer nc.Close()
	ctx := context.Background()
	store, err := NewStore(ctx, nc, WithBucket("psm_sessions_test"), WithTTL(time.Minute))
	require.NoError(t, err)

	id := session.NewID()
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)

	sess := &session.Session{
		ID: id,
		Plan: &session.Plan{
			RaceID:  "demo_mexico_2024",
			Request: session.PlanRequest{RaceID: "demo_mexico_2024", MaxStops: 2},
			Result: &strategy.Result{
				OK:              true,
				RaceID:          "demo_mexico_2024",
				Strategy:        []string{"SOFT: 27", "MEDIUM: 30"},
				StopLaps:        []int{27},
				StintBreakdownS: []float64{2295.66, 2328.6},
			},
		},
	}
	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, sess.Plan.Result, got.Plan.Result)
	assert.Equal(t, 2, got.Plan.Request.MaxStops)
	assert.False(t, got.Updated.IsZero())

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
}

func TestNatsStoreInvalidID(t *testing.T) {
	nc := tcnats.SetupTestNats()
	defer nc.Close()
	store, err := NewStore(context.Background(), nc, WithBucket("psm_sessions_test"))
	require.NoError(t, err)
	assert.ErrorIs(t,
		store.Put(context.Background(), &session.Session{ID: "x y"}),
		session.ErrInvalidID)
}
