package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" //nolint:gosec // by design
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	otlpruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	cmdutil "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/db/postgres"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/server/strategy"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/mcp"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/utils/certs"
)

var appConfig config.Config // holds processed config values

//nolint:funlen // by design
func NewServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "starts the strategy server",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			appConfig = config.Config{
				MaxCandidates: config.MaxCandidates,
				SessionTTL:    config.ParseDuration(config.SessionTTL, 30*time.Minute),
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return startServer(cmd.Context())
		},
	}
	cmd.Flags().StringVarP(&config.GrpcServerAddr,
		"grpc-server-addr",
		"a",
		"localhost:8080",
		"connect/gRPC server listen address")
	cmd.Flags().StringVar(&config.MCPAddr,
		"mcp-addr",
		"",
		"listen address for the MCP streamable HTTP server (disabled if empty)")
	cmd.Flags().BoolVar(&config.EnableTelemetry,
		"enable-telemetry",
		false,
		"enables telemetry")
	cmd.Flags().StringVar(&config.TelemetryEndpoint,
		"telemetry-endpoint",
		"localhost:4317",
		"Endpoint that receives open telemetry data (use stdout for local output)")
	cmd.Flags().IntVar(&config.ProfilingPort,
		"profiling-port",
		0,
		"port to use for providing profiling data")
	cmd.Flags().Float64Var(&config.RateLimit,
		"rate-limit",
		0,
		"max requests per second (0 disables the limit)")
	cmd.Flags().IntVar(&config.RateBurst,
		"rate-burst",
		10,
		"burst size for the rate limit")
	cmd.Flags().StringVar(&config.TLSCertFile,
		"tls-cert",
		"",
		"file with the server certificate (enables TLS)")
	cmd.Flags().StringVar(&config.TLSKeyFile,
		"tls-key",
		"",
		"file with the server key")
	cmd.Flags().StringVar(&config.TLSCAFile,
		"tls-ca",
		"",
		"file with the root CA for client certificates")
	cmd.Flags().StringVar(&config.TraefikCerts,
		"traefik-certs",
		"",
		"traefik acme.json file to read the certificate from (enables TLS)")
	cmd.Flags().StringVar(&config.TraefikCertDomain,
		"traefik-cert-domain",
		"",
		"domain of the certificate in the traefik file")
	cmd.Flags().StringVar(&config.MinClientVersion,
		"min-client-version",
		"",
		"clients reporting an older version are rejected")
	return cmd
}

//nolint:funlen,cyclop // by design
func startServer(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	var telemetry *config.Telemetry
	cmdutil.SetupLogger()

	log.Debug("Config:",
		log.String("db", config.DB),
		log.String("catalogFile", config.CatalogFile),
		log.String("sessionStore", config.SessionStore),
		log.String("grpcAddr", config.GrpcServerAddr),
		log.String("mcpAddr", config.MCPAddr),
	)

	if config.ProfilingPort > 0 {
		log.Info("Starting profiling server on port", log.Int("port", config.ProfilingPort))
		go func() {
			//nolint:gosec // by design
			err := http.ListenAndServe(
				fmt.Sprintf("localhost:%d", config.ProfilingPort),
				nil)
			if err != nil {
				log.Error("Profiling server stopped", log.ErrorField(err))
			}
		}()
	}

	cmdutil.WaitForRequiredServices()

	pgTraceOption := postgres.WithTracer(cmdutil.SQLLogger(), log.DebugLevel)
	if config.EnableTelemetry {
		log.Info("Enabling telemetry")
		var err error
		if telemetry, err = config.SetupTelemetry(ctx); err == nil {
			pgTraceOption = postgres.WithOtlpTracer()
		} else {
			log.Warn("Could not setup telemetry", log.ErrorField(err))
		}
		err = otlpruntime.Start(otlpruntime.WithMinimumReadMemStatsInterval(time.Second))
		if err != nil {
			log.Warn("Could not start runtime metrics", log.ErrorField(err))
		}
	}
	if telemetry != nil {
		defer telemetry.Shutdown()
	}

	log.Info("Starting server")
	env, err := cmdutil.NewEnvironment(ctx, pgTraceOption)
	if err != nil {
		log.Error("server could not be started", log.ErrorField(err))
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	setupGoRoutinesDump()

	servers := []*http.Server{
		//nolint:gosec // by design
		{
			Addr:    config.GrpcServerAddr,
			Handler: h2c.NewHandler(newCORS().Handler(registerServices(env.Service)), &http2.Server{}),
		},
	}
	if config.MCPAddr != "" {
		mcpHandler := mcpserver.NewStreamableHTTPServer(mcp.NewServer(env.Service))
		mux := http.NewServeMux()
		mux.Handle("/mcp", mcpHandler)
		//nolint:gosec // by design
		servers = append(servers, &http.Server{Addr: config.MCPAddr, Handler: mux})
	}

	g, gctx := errgroup.WithContext(ctx)
	certSource := certs.Source{
		CertFile:      config.TLSCertFile,
		KeyFile:       config.TLSKeyFile,
		CAFile:        config.TLSCAFile,
		TraefikFile:   config.TraefikCerts,
		TraefikDomain: config.TraefikCertDomain,
	}
	if certSource.Enabled() {
		provider, err := certs.NewProvider(certSource)
		if err != nil {
			log.Error("could not load certificate", log.ErrorField(err))
			return err
		}
		tlsConfig, err := provider.TLSConfig()
		if err != nil {
			log.Error("could not create tls config", log.ErrorField(err))
			return err
		}
		for _, srv := range servers {
			srv.TLSConfig = tlsConfig
		}
		g.Go(func() error {
			if err := provider.Watch(gctx); err != nil {
				log.Warn("certificate reload disabled", log.ErrorField(err))
			}
			return nil
		})
	}
	for _, srv := range servers {
		g.Go(func() error {
			log.Info("Starting listener",
				log.String("addr", srv.Addr), log.Bool("tls", srv.TLSConfig != nil))
			var err error
			if srv.TLSConfig != nil {
				err = srv.ListenAndServeTLS("", "")
			} else {
				err = srv.ListenAndServe()
			}
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Debug("Shutting down listeners")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown failed", log.String("addr", srv.Addr), log.ErrorField(err))
			}
		}
		return nil
	})
	log.Info("Server started")
	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", log.ErrorField(err))
		return err
	}
	log.Info("Server terminated")
	return nil
}

func registerServices(svc *service.StrategyService) *http.ServeMux {
	mux := http.NewServeMux()
	metrics := util.NewMetrics()
	interceptors := []connect.Interceptor{metrics.Interceptor()}
	if myOtel, err := otelconnect.NewInterceptor(); err == nil {
		interceptors = append(interceptors, myOtel)
	} else {
		log.Warn("Could not create otel interceptor", log.ErrorField(err))
	}
	interceptors = append(interceptors,
		util.NewTraceIDInterceptor(),
		util.NewRateLimitInterceptor(config.RateLimit, config.RateBurst, metrics),
		util.NewVersionCheckInterceptor(config.MinClientVersion),
		util.NewSessionIDInterceptor(),
		util.NewAppContextInterceptor(&appConfig),
	)
	strategy.Register(mux, svc, interceptors...)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func setupGoRoutinesDump() {
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGQUIT)
		buf := make([]byte, 1<<20)
		for {
			<-sigs
			stacklen := runtime.Stack(buf, true)
			fmt.Printf("=== received SIGQUIT ===\n*** goroutine dump...\n%s\n*** end\n",
				buf[:stacklen])
		}
	}()
}

func newCORS() *cors.Cors {
	// To let web developers play with the service from browsers, we need a
	// very permissive CORS setup.
	return cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
		},
		AllowOriginFunc: func(origin string) bool {
			// Allow all origins, which effectively disables CORS.
			return true
		},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{
			// Content-Type is in the default safelist.
			"Accept",
			"Accept-Encoding",
			"Accept-Post",
			"Connect-Accept-Encoding",
			"Connect-Content-Encoding",
			"Content-Encoding",
			"Grpc-Accept-Encoding",
			"Grpc-Encoding",
			"Grpc-Message",
			"Grpc-Status",
			"Grpc-Status-Details-Bin",
			util.TraceIDHeader,
		},
		// Let browsers cache CORS information for longer, which reduces the number
		// of preflight requests.
		MaxAge: int(2 * time.Hour / time.Second),
	})
}
