package cmd

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lanonasis-gateway/internal/config"
	"lanonasis-gateway/internal/gateway"
	"lanonasis-gateway/pkg/logging"
)

// serveCmd defines the serve command, the gateway's main run mode.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP gateway",
	Long: `Starts the MCP gateway in one of two modes:

1. HTTP mode (default):
   One listener serves single-shot MCP (POST /mcp), streaming sessions
   (GET/POST /sse), health and metrics endpoints, the admin surface, and the
   OAuth/MCP discovery documents.

2. Stdio mode (--mode stdio):
   A single MCP session tied to stdin/stdout, for running the gateway as a
   subprocess of an AI client. Logs go to stderr so the protocol stream
   stays clean.

Configuration comes from flags, then the environment, then a local .env
file. LANONASIS_API_URL and LANONASIS_FUNCTIONS_URL are required; credentials
(LANONASIS_API_KEY or LANONASIS_BEARER_TOKEN), timeouts, and retry budgets
are optional.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe backs both `serve` and a bare invocation of the root command.
func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.Overrides{
		Mode:      flagMode,
		Port:      flagPort,
		LogLevel:  flagLogLevel,
		LogFormat: flagLogFormat,
	})
	if err != nil {
		return err
	}

	// Values survived config validation, so the parses cannot fail here.
	level, _ := logging.ParseLevel(cfg.LogLevel)
	format, _ := logging.ParseFormat(cfg.LogFormat)
	var out io.Writer = os.Stdout
	if cfg.Mode == config.ModeStdio {
		// Stdout carries the MCP stream in stdio mode.
		out = os.Stderr
	}
	logging.Init(level, format, out)

	gw, err := gateway.New(cfg, GetVersion())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return gw.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
