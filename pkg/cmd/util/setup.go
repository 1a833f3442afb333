package util

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/catalog"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/db/postgres"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/journal"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session/memory"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/session/natskv"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/utils"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreNats   = "nats"
)

var ErrUnknownSessionStore = errors.New("unknown session store")

// Environment holds the resources needed to run the strategy service.
type Environment struct {
	Service *service.StrategyService
	Catalog *catalog.Catalog
	Pool    *pgxpool.Pool
	nc      *nats.Conn
	journal *journal.Journal
}

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// SetupLogger creates the application logger from the log flags and
// installs it as default logger.
func SetupLogger() *log.Logger {
	defaultLevel := log.InfoLevel
	if config.LogFormat != "json" {
		defaultLevel = log.DebugLevel
	}
	logger := log.NewWithRules(
		os.Stderr,
		config.LogFormat,
		ParseLogLevel(config.LogLevel, defaultLevel),
		config.LogConfig,
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)
	return logger
}

// SQLLogger creates the logger used for the sql tracer.
func SQLLogger() *log.Logger {
	return log.NewWithRules(
		os.Stderr,
		config.LogFormat,
		ParseLogLevel(config.SQLLogLevel, log.InfoLevel),
		"",
		log.WithCaller(true),
		log.AddCallerSkip(1))
}

// WaitForRequiredServices blocks until the configured database and NATS
// server accept tcp connections. The process exits if they do not.
func WaitForRequiredServices() {
	timeout := config.ParseDuration(config.WaitForServices, 60*time.Second)

	wg := sync.WaitGroup{}
	checkTCP := func(addr string) {
		defer wg.Done()
		if err := utils.WaitForTCP(addr, timeout); err != nil {
			log.Fatal("required services not ready", log.ErrorField(err))
		}
	}

	if postgresAddr := utils.ExtractFromDBURL(config.DB); postgresAddr != "" {
		wg.Add(1)
		go checkTCP(postgresAddr)
	}
	if config.SessionStore == SessionStoreNats {
		if natsAddr := utils.ExtractFromNatsURL(config.NatsURL); natsAddr != "" {
			wg.Add(1)
			go checkTCP(natsAddr)
		}
	}
	log.Debug("Waiting for connection checks to return")
	wg.Wait()
	log.Debug("Required services are available")
}

// NewEnvironment builds catalog, session store, journal and service from
// the resolved configuration values.
//
//nolint:funlen,cyclop // by design
func NewEnvironment(ctx context.Context, poolOpts ...postgres.PoolConfigOption) (
	*Environment, error,
) {
	env := &Environment{}
	sources := []catalog.Source{}
	if !config.NoBuiltinRaces {
		sources = append(sources, catalog.FromBuiltin())
	}
	if config.CatalogFile != "" {
		sources = append(sources, catalog.FromYAMLFile(config.CatalogFile))
	}
	if config.DB != "" {
		pool, err := postgres.InitWithURL(ctx, config.DB, poolOpts...)
		if err != nil {
			return nil, err
		}
		env.Pool = pool
		sources = append(sources, catalog.FromDatabase(pool))
	}
	c, err := catalog.Load(ctx, sources...)
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Catalog = c

	store, err := env.sessionStore(ctx)
	if err != nil {
		env.Close()
		return nil, err
	}

	opts := []service.Option{
		service.WithSessionStore(store),
		service.WithMaxCandidates(config.MaxCandidates),
	}
	if config.JournalFile != "" {
		j, err := journal.Open(config.JournalFile)
		if err != nil {
			env.Close()
			return nil, err
		}
		env.journal = j
		opts = append(opts, service.WithRecorder(j))
	}
	env.Service = service.NewStrategyService(c, opts...)
	log.Info("strategy service ready",
		log.Int("races", c.Len()),
		log.String("sessionStore", config.SessionStore))
	return env, nil
}

// Journal returns the interaction journal, nil if not configured.
func (e *Environment) Journal() *journal.Journal { return e.journal }

func (e *Environment) sessionStore(ctx context.Context) (session.Store, error) {
	ttl := config.ParseDuration(config.SessionTTL, 30*time.Minute)
	switch config.SessionStore {
	case "", SessionStoreMemory:
		return memory.NewStore(memory.WithTTL(ttl)), nil
	case SessionStoreNats:
		nc, err := nats.Connect(config.NatsURL)
		if err != nil {
			return nil, fmt.Errorf("connect nats: %w", err)
		}
		e.nc = nc
		return natskv.NewStore(ctx, nc,
			natskv.WithBucket(config.NatsBucket),
			natskv.WithTTL(ttl))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownSessionStore, config.SessionStore)
	}
}

func (e *Environment) Close() {
	if e.journal != nil {
		if err := e.journal.Close(); err != nil {
			log.Warn("could not close journal", log.ErrorField(err))
		}
	}
	if e.nc != nil {
		e.nc.Close()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
}
