/*
	Copyright 2023 Markus Papenbrock
*/

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	catalogCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/catalog"
	chatCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/chat"
	clientCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/client"
	mcpCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/mcp"
	migrateCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/migrate"
	serverCmd "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/server"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/journal"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session/natskv"
	"github.com/mpapenbr/pitstop-strategy-manager/version"
)

const envPrefix = "PSM"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "psm",
	Short:   "Pit stop strategy manager",
	Long:    `Recommends race pit stop strategies via RPC, MCP and an interactive chat.`,
	Version: version.FullVersion,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

//nolint:funlen // flag definitions
func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.psm.yml)")

	rootCmd.PersistentFlags().StringVar(&config.DB, "db",
		"",
		"Connection string for the database, for example "+
			"postgresql://DB_USERNAME:DB_USER_PASSWORD@DB_HOST:5432/psm")
	rootCmd.PersistentFlags().StringVar(&config.CatalogFile, "catalog-file",
		"",
		"YAML file with additional races")
	rootCmd.PersistentFlags().BoolVar(&config.NoBuiltinRaces, "no-builtin-races",
		false,
		"do not include the demo races in the catalog")
	rootCmd.PersistentFlags().StringVar(&config.WaitForServices,
		"wait-for-services",
		"15s",
		"Duration to wait for other services to be ready")
	rootCmd.PersistentFlags().StringVar(&config.LogLevel,
		"log-level",
		"info",
		"controls the log level (debug, info, warn, error, fatal)")
	rootCmd.PersistentFlags().StringVar(&config.SQLLogLevel,
		"sql-log-level",
		"debug",
		"controls the log level for sql methods")
	rootCmd.PersistentFlags().StringVar(&config.LogFormat,
		"log-format",
		"json",
		"controls the log output format (json, text)")
	rootCmd.PersistentFlags().StringVar(&config.LogConfig,
		"log-config",
		"",
		"per logger rules, for example \"info+:* debug+:strategy\"")
	rootCmd.PersistentFlags().IntVar(&config.MaxCandidates,
		"max-candidates",
		0,
		"max evaluated candidates per request (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&config.SessionStore,
		"session-store",
		"memory",
		"where strategy sessions are kept (memory, nats)")
	rootCmd.PersistentFlags().StringVar(&config.SessionTTL,
		"session-ttl",
		"30m",
		"duration a session is kept after its last update")
	rootCmd.PersistentFlags().StringVar(&config.NatsURL,
		"nats-url",
		"nats://localhost:4222",
		"URL of the NATS server (session store nats)")
	rootCmd.PersistentFlags().StringVar(&config.NatsBucket,
		"nats-bucket",
		natskv.DefaultBucket,
		"name of the key value bucket for sessions")
	rootCmd.PersistentFlags().StringVar(&config.JournalFile,
		"journal-file",
		"",
		fmt.Sprintf("JSONL interaction journal, for example %s (disabled if empty)",
			journal.DefaultFile))

	// add commands here
	rootCmd.AddCommand(serverCmd.NewServerCmd())
	rootCmd.AddCommand(mcpCmd.NewMCPCmd())
	rootCmd.AddCommand(clientCmd.NewClientCmd())
	rootCmd.AddCommand(chatCmd.NewChatCmd())
	rootCmd.AddCommand(migrateCmd.NewMigrateCmd())
	rootCmd.AddCommand(catalogCmd.NewCatalogCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".psm" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".psm")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd, viper.GetViper())
	visitCommands(rootCmd, func(cmd *cobra.Command) {
		bindFlags(cmd, viper.GetViper())
	})
}

func visitCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	for _, c := range cmd.Commands() {
		fn(c)
		visitCommands(c, fn)
	}
}

// Bind each cobra flag to its associated viper configuration
// (config file and environment variable)
func bindFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		// Environment variables can't have dashes in them, so bind them to their
		// equivalent keys with underscores, e.g. --log-level to PSM_LOG_LEVEL
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v", f.Name, err)
			}
		}
		// Apply the viper config value to the flag when the flag is not set and viper
		// has a value
		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				fmt.Fprintf(os.Stderr, "Could set flag value for %s: %v", f.Name, err)
			}
		}
	})
}
