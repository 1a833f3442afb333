//nolint:errcheck // testsetup
package tcpostgres

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mpapenbr/pitstop-strategy-manager/pkg/db/migrate"
	database "github.com/mpapenbr/pitstop-strategy-manager/pkg/db/postgres"
)

// create a pg connection pool for the strategy testdatabase
func SetupTestDb() *pgxpool.Pool {
	ctx := context.Background()
	container, err := SetupPostgres(ctx,
		WithName("pitstop-strategy-manager-test"),
	)
	if err != nil {
		log.Fatal(err)
	}
	dbURL, err := container.ConnectionString(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return setupPool(dbURL)
}

// uses the database referenced by TESTDB_URL instead of a container
func SetupExternalTestDb() *pgxpool.Pool {
	return setupPool(os.Getenv("TESTDB_URL"))
}

func setupPool(dbURL string) *pgxpool.Pool {
	if err := migrate.MigrateDb(dbURL); err != nil {
		log.Fatal(err)
	}
	pool, err := database.InitWithURL(context.Background(), dbURL)
	if err != nil {
		log.Fatal(err)
	}
	return pool
}

func ClearRaceTable(pool *pgxpool.Pool) {
	pool.Exec(context.Background(), "delete from race")
}

func ClearAllTables(pool *pgxpool.Pool) {
	ClearRaceTable(pool)
}
