package mcp

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	cmdutil "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/mcp"
)

func NewMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "serves the strategy tools via MCP",
		Long: `Serves the strategy tools via the model context protocol.
Without --mcp-addr the server talks via stdin/stdout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveMCP(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&config.MCPAddr,
		"mcp-addr",
		"",
		"listen address for the streamable HTTP transport (stdio if empty)")
	return cmd
}

func serveMCP(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// stdout belongs to the protocol, logs go to stderr
	cmdutil.SetupLogger()
	cmdutil.WaitForRequiredServices()

	env, err := cmdutil.NewEnvironment(ctx)
	if err != nil {
		log.Error("could not setup strategy service", log.ErrorField(err))
		return err
	}
	defer env.Close()
	s := mcp.NewServer(env.Service)

	if config.MCPAddr == "" {
		log.Info("Serving MCP via stdio")
		return server.ServeStdio(s)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	httpServer := server.NewStreamableHTTPServer(s)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("shutdown failed", log.ErrorField(err))
		}
	}()
	log.Info("Serving MCP via streamable HTTP", log.String("addr", config.MCPAddr))
	if err := httpServer.Start(config.MCPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
