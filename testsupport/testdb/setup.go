package testdb

import (
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/pitstop-strategy-manager/testsupport/tcpostgres"
)

var (
	once sync.Once
	pool *pgxpool.Pool
)

// InitTestDb returns a migrated database with empty tables.
// The pool is created once per test binary, TESTDB_URL selects an external
// database instead of a container.
func InitTestDb() *pgxpool.Pool {
	once.Do(func() {
		if os.Getenv("TESTDB_URL") != "" {
			pool = tcpg.SetupExternalTestDb()
		} else {
			pool = tcpg.SetupTestDb()
		}
	})
	tcpg.ClearAllTables(pool)
	return pool
}
