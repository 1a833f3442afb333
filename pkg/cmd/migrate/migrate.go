package migrate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	cmdutil "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	dbmigrate "github.com/mpapenbr/pitstop-strategy-manager/pkg/db/migrate"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/utils"
)

var ErrNoDatabase = errors.New("no database configured (use --db)")

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "performs database migration",
		Long: `Creates or updates the race catalog tables.
The embedded migrations are used unless --migration-source-url is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return startMigration()
		},
	}

	cmd.Flags().StringVarP(&config.MigrationSourceURL,
		"migration-source-url",
		"m",
		"",
		"url to migration files, for example file:///migrations")

	return cmd
}

func startMigration() error {
	cmdutil.SetupLogger()
	if config.DB == "" {
		return ErrNoDatabase
	}
	// wait for database
	timeout := config.ParseDuration(config.WaitForServices, 60*time.Second)
	postgresAddr := utils.ExtractFromDBURL(config.DB)
	if err := utils.WaitForTCP(postgresAddr, timeout); err != nil {
		log.Error("database not ready", log.ErrorField(err))
		return err
	}

	if config.MigrationSourceURL == "" {
		log.Info("Using embedded migrations")
		if err := dbmigrate.MigrateDb(config.DB); err != nil {
			return err
		}
		version, dirty, err := dbmigrate.Version(config.DB)
		if err != nil {
			return err
		}
		log.Info("Database migrated", log.Int("version", int(version)), log.Bool("dirty", dirty))
		return nil
	}

	log.Info("Using migrations files at", log.String("source", config.MigrationSourceURL))
	dbURL := prepareURLForDB(config.DB)
	log.Debug("Using dbUrl", log.String("url", dbURL))

	m, err := migrate.New(config.MigrationSourceURL, dbURL)
	if err != nil {
		log.Error("Could not create migration", log.ErrorField(err))
		return err
	}
	defer m.Close()
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("No Migration required")
		return nil
	}
	return err
}

func prepareURLForDB(url string) string {
	options := "sslmode=disable"
	if strings.Contains(url, "sslmode=") {
		return url
	}
	if strings.Contains(url, "?") {
		return fmt.Sprintf("%s&%s", url, options)
	}
	return fmt.Sprintf("%s?%s", url, options)
}
