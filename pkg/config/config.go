package config

import (
	"context"
	"time"
)

// this holds the resolved configuration values from CLI
//
//nolint:lll // readablity
var (
	DB                 string  // connection string for the database (optional catalog source)
	CatalogFile        string  // path to a YAML catalog file (optional catalog source)
	NoBuiltinRaces     bool    // if true, the demo races are not part of the catalog
	WaitForServices    string  // duration to wait for other services to be ready
	LogLevel           string  // sets the log level (zap log level values)
	SQLLogLevel        string  // sets the log level for sql subsystem
	LogFormat          string  // text vs json
	LogConfig          string  // zapfilter rules, for example "info+:* debug+:strategy"
	EnableTelemetry    bool    // enable telemetry
	TelemetryEndpoint  string  // endpoint for telemetry ("stdout" writes to stdout)
	ProfilingPort      int     // port for profiling
	GrpcServerAddr     string  // listen addr for connect server (insecure)
	MCPAddr            string  // listen addr for MCP streamable HTTP server
	MaxCandidates      int     // max evaluated (plan,sequence) pairs per solve, 0 = unlimited
	SessionStore       string  // memory or nats
	SessionTTL         string  // duration a session is kept
	NatsURL            string  // URL of the NATS server (session store nats)
	NatsBucket         string  // name of the jetstream KV bucket
	RateLimit          float64 // requests per second (all clients), 0 disables the limit
	RateBurst          int     // burst for the rate limit
	MinClientVersion   string  // clients reporting an older version are rejected
	JournalFile        string  // path to the interaction journal, empty disables it
	MigrationSourceURL string  // url to external migration files
	TLSCertFile        string  // server certificate (PEM)
	TLSKeyFile         string  // server key (PEM)
	TLSCAFile          string  // CA for optional client certificates
	TraefikCerts       string  // traefik acme.json to read the certificate from
	TraefikCertDomain  string  // domain to look up in TraefikCerts
)

// Config holds the configuration values which are used by the application
type Config struct {
	MaxCandidates int           // candidate cap passed to the optimizer
	SessionTTL    time.Duration // how long a session is kept after the last update
}

type ctxKey struct{}

func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the config stored in ctx or an empty config.
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(ctxKey{}).(*Config); ok {
		return cfg
	}
	return &Config{}
}

// ParseDuration returns the parsed value or def if the value is not a valid
// duration.
func ParseDuration(value string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
