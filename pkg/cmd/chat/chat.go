package chat

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/chat"
	cmdutil "github.com/mpapenbr/pitstop-strategy-manager/pkg/cmd/util"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/config"
	grpcclient "github.com/mpapenbr/pitstop-strategy-manager/pkg/grpc/client"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/mcp"
	"github.com/mpapenbr/pitstop-strategy-manager/pkg/service"
)

const (
	backendInProcess = "inproc"
	backendStdio     = "stdio"
	backendRPC       = "rpc"
)

var (
	backendKind string
	serverAddr  string
	mcpCommand  []string
)

func NewChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "interactive /f1 command loop",
		Long: `Starts an interactive loop accepting /f1 commands:

  /f1 tools
  /f1 calendar <season>
  /f1 race <race_id>
  /f1 plan <race_id> <base> <degS> <degM> <degH> <minStint> <maxStint> <maxStops>
  /f1 explain
  /f1 report <file.pdf>

Type exit or quit to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&backendKind,
		"backend",
		backendInProcess,
		"where the tools are executed (inproc, stdio, rpc)")
	cmd.Flags().StringVar(&serverAddr,
		"addr",
		"http://localhost:8080",
		"base url of the psm server (backend rpc)")
	cmd.Flags().StringSliceVar(&mcpCommand,
		"mcp-command",
		nil,
		"command starting the MCP server (backend stdio, default: this binary with 'mcp')")
	return cmd
}

func runChat(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.DevLogger(
		os.Stderr,
		cmdutil.ParseLogLevel(config.LogLevel, log.WarnLevel),
		log.WithCaller(true),
		log.AddCallerSkip(1))
	log.ResetDefault(logger)

	backend, recorder, closer, err := newBackend(ctx)
	if err != nil {
		log.Error("could not create chat backend", log.ErrorField(err))
		return err
	}
	defer closer()
	defer backend.Close()

	opts := []chat.Option{}
	if recorder != nil {
		opts = append(opts, chat.WithRecorder(recorder))
	}
	return chat.NewConversation(backend, opts...).Run(ctx, os.Stdin, os.Stdout)
}

//nolint:whitespace // can't make both editor and linter happy
func newBackend(ctx context.Context) (
	chat.Backend, service.Recorder, func(), error,
) {
	noop := func() {}
	switch backendKind {
	case backendInProcess:
		env, err := cmdutil.NewEnvironment(ctx)
		if err != nil {
			return nil, nil, noop, err
		}
		b, err := chat.NewInProcessBackend(ctx, mcp.NewServer(env.Service))
		if err != nil {
			env.Close()
			return nil, nil, noop, err
		}
		var recorder service.Recorder
		if j := env.Journal(); j != nil {
			recorder = j
		}
		return b, recorder, env.Close, nil
	case backendStdio:
		command := mcpCommand
		if len(command) == 0 {
			command = []string{os.Args[0], "mcp"}
		}
		b, err := chat.NewStdioBackend(ctx, command[0], command[1:]...)
		return b, nil, noop, err
	case backendRPC:
		return chat.NewRPCBackend(grpcclient.New(serverAddr)), nil, noop, nil
	default:
		return nil, nil, noop, fmt.Errorf("unknown backend %q", backendKind)
	}
}
