package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPgxURL(t *testing.T) {
	assert.Equal(t, "pgx://u:p@db:5432/psm", pgxURL("postgresql://u:p@db:5432/psm"))
	assert.Equal(t, "pgx://u:p@db/psm", pgxURL("postgres://u:p@db/psm"))
	assert.Equal(t, "pgx://db/psm", pgxURL("pgx://db/psm"))
}

func TestEmbeddedMigrations(t *testing.T) {
	entries, err := migrations.ReadDir("migrations")
	assert.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "1_race.up.sql")
	assert.Contains(t, names, "1_race.down.sql")
}
