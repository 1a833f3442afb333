package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
	raceRepo "github.com/mpapenbr/pitstop-strategy-manager/pkg/repository/race"
	"github.com/mpapenbr/pitstop-strategy-manager/testsupport/testdb"
)

func TestLoadFromDatabase(t *testing.T) {
	pool := testdb.InitTestDb()
	ctx := context.Background()
	spa := &model.Race{
		RaceID: "spa_2024", Season: 2024, Name: "Belgian GP", TotalLaps: 44,
		PitLossSeconds: 21.5, Compounds: []model.CompoundKind{model.CompoundMedium, model.CompoundHard},
	}
	_, err := raceRepo.Upsert(ctx, pool, spa)
	require.NoError(t, err)

	c, err := Load(ctx, FromBuiltin(), FromDatabase(pool))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())
	got, err := c.Lookup("spa_2024")
	require.NoError(t, err)
	assert.Equal(t, spa, got)
	assert.Len(t, c.Calendar(2024), 3)

	_, err = raceRepo.Upsert(ctx, pool, BuiltinRaces()[0])
	require.NoError(t, err)
	_, err = Load(ctx, FromBuiltin(), FromDatabase(pool))
	assert.ErrorIs(t, err, ErrDuplicateID)
}
