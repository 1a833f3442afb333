//nolint:whitespace //can't make both the linter and editor happy :(
package race

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/samber/lo"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/repository"
)

const selectRace = `
	select race_id, season, name, laps, pit_loss_s, compounds
	from race
	`

// Upsert creates the race or replaces the values of an existing race_id.
// It returns the row id, which stays the same on updates.
func Upsert(ctx context.Context, conn repository.Querier, race *model.Race) (
	uuid.UUID, error,
) {
	row := conn.QueryRow(ctx, `
	insert into race (race_id, season, name, laps, pit_loss_s, compounds)
	values ($1,$2,$3,$4,$5,$6)
	on conflict (race_id) do update set
		season=excluded.season, name=excluded.name, laps=excluded.laps,
		pit_loss_s=excluded.pit_loss_s, compounds=excluded.compounds
	returning id
	`,
		race.RaceID, race.Season, race.Name, race.TotalLaps, race.PitLossSeconds,
		toStrings(race.Compounds),
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func LoadByRaceID(ctx context.Context, conn repository.Querier, raceID string) (
	*model.Race, error,
) {
	row := conn.QueryRow(ctx, selectRace+" where race_id=$1", raceID)
	item, err := scanRace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrRaceNotFound
	}
	return item, err
}

// LoadAll returns all races ordered by season and creation time.
func LoadAll(ctx context.Context, conn repository.Querier) ([]*model.Race, error) {
	rows, err := conn.Query(ctx, selectRace+" order by season asc, created asc, race_id asc")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Race, 0)
	for rows.Next() {
		item, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

// deletes an entry from the database, returns number of rows deleted.
func DeleteByRaceID(ctx context.Context, conn repository.Querier, raceID string) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from race where race_id=$1", raceID)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func scanRace(row pgx.Row) (*model.Race, error) {
	var item model.Race
	var compounds []string
	if err := row.Scan(
		&item.RaceID, &item.Season, &item.Name, &item.TotalLaps,
		&item.PitLossSeconds, &compounds,
	); err != nil {
		return nil, err
	}
	item.Compounds = lo.Map(compounds, func(c string, _ int) model.CompoundKind {
		return model.CompoundKind(c)
	})
	return &item, nil
}

func toStrings(c []model.CompoundKind) []string {
	return lo.Map(c, func(item model.CompoundKind, _ int) string { return string(item) })
}
