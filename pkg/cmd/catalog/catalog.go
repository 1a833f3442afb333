package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/catalog"
	cmdutil "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/db/migrate"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/db/postgres"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/model"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/repository"
	raceRepo "github.com/mpapenbr/pitstop-strategy-manager/pkg/repository/race"
)

var ErrNoDatabase = errors.New("no database configured (use --db)")

var runMigration bool

func NewCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "manages the race catalog",
	}
	cmd.AddCommand(newImportCmd(), newListCmd(), newShowCmd(), newDeleteCmd())
	return cmd
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yml>",
		Short: "imports races from a YAML file into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return importFile(cmd.Context(), args[0])
		},
	}
	cmd.Flags().BoolVar(&runMigration, "migrate", false,
		"apply the database migrations before importing")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "prints the races of the configured catalog sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRaces(cmd.Context())
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <race_id>",
		Short: "prints a race stored in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				return showRace(ctx, pool, args[0], os.Stdout)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <race_id>",
		Short: "removes a race from the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				return deleteRace(ctx, pool, args[0])
			})
		},
	}
}

//nolint:whitespace // can't make both editor and linter happy
func withPool(
	ctx context.Context,
	fn func(ctx context.Context, pool *pgxpool.Pool) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmdutil.SetupLogger()
	if config.DB == "" {
		return ErrNoDatabase
	}
	cmdutil.WaitForRequiredServices()
	pool, err := postgres.InitWithURL(ctx, config.DB,
		postgres.WithTracer(cmdutil.SQLLogger(), log.DebugLevel))
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func showRace(ctx context.Context, conn repository.Querier, raceID string, w io.Writer) error {
	race, err := raceRepo.LoadByRaceID(ctx, conn, raceID)
	if err != nil {
		return fmt.Errorf("%s: %w", raceID, err)
	}
	data, err := json.MarshalIndent(race, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func deleteRace(ctx context.Context, conn repository.Querier, raceID string) error {
	n, err := raceRepo.DeleteByRaceID(ctx, conn, raceID)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", raceID, model.ErrRaceNotFound)
	}
	log.Info("race deleted", log.String("race_id", raceID))
	return nil
}

func importFile(ctx context.Context, file string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmdutil.SetupLogger()
	if config.DB == "" {
		return ErrNoDatabase
	}
	races, err := catalog.LoadYAMLFile(file)
	if err != nil {
		return err
	}
	// validate the whole file before anything is written
	if _, err := catalog.New(races...); err != nil {
		return err
	}
	cmdutil.WaitForRequiredServices()
	if runMigration {
		if err := migrate.MigrateDb(config.DB); err != nil {
			return err
		}
	}
	pool, err := postgres.InitWithURL(ctx, config.DB,
		postgres.WithTracer(cmdutil.SQLLogger(), log.DebugLevel))
	if err != nil {
		return err
	}
	defer pool.Close()

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, r := range races {
			id, err := raceRepo.Upsert(ctx, tx, r)
			if err != nil {
				return fmt.Errorf("race %s: %w", r.RaceID, err)
			}
			log.Debug("race stored", log.String("race_id", r.RaceID), log.String("id", id.String()))
		}
		return nil
	})
	if err != nil {
		return err
	}
	log.Info("races imported",
		log.String("file", file),
		log.Strings("races", lo.Map(races, func(r *model.Race, _ int) string { return r.RaceID })))
	return nil
}

func listRaces(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cmdutil.SetupLogger()
	env, err := cmdutil.NewEnvironment(ctx)
	if err != nil {
		return err
	}
	defer env.Close()
	data, err := json.MarshalIndent(env.Catalog.Races(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}
