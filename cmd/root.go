package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"lanonasis-gateway/internal/config"
)

// Exit codes, stable for wrappers and process supervisors.
const (
	// ExitCodeSuccess indicates a clean shutdown.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a runtime failure (bind error, transport fault).
	ExitCodeError = 1
	// ExitCodeConfig indicates invalid or missing configuration.
	ExitCodeConfig = 2
)

// Build metadata injected by main at startup.
var (
	buildCommit = "none"
	buildDate   = "unknown"
)

// Global flag values. Empty or zero means "not set": the environment and
// defaults take over in config.Load.
var (
	flagMode      string
	flagPort      int
	flagLogLevel  string
	flagLogFormat string
)

// rootCmd is the base command. Invoked bare it serves, so the binary works
// as a container entrypoint without arguments.
var rootCmd = &cobra.Command{
	Use:   "lanonasis-gateway",
	Short: "MCP gateway for the Lanonasis memory platform",
	Long: `lanonasis-gateway fronts the Lanonasis REST API and serverless functions
with a Model Context Protocol tool server. AI clients connect over stdio or
HTTP and call memory, API key, project, and intelligence tools without
talking to the upstreams directly.`,
	Args: cobra.NoArgs,
	// SilenceUsage keeps error output clean: a failed boot should print the
	// failure, not the flag reference.
	SilenceUsage: true,
}

// SetBuildInfo records the metadata injected via -ldflags. The version feeds
// the MCP server card, the health payloads, and the upstream User-Agent.
func SetBuildInfo(version, commit, date string) {
	rootCmd.Version = version
	buildCommit = commit
	buildDate = date
}

// GetVersion returns the injected version, or "dev" when run from source.
func GetVersion() string {
	if rootCmd.Version == "" {
		return "dev"
	}
	return rootCmd.Version
}

// Execute runs the CLI and exits the process with a semantic code on
// failure. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "lanonasis-gateway version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode separates configuration mistakes from runtime failures so a
// supervisor can tell a bad deployment from a crashed process.
func getExitCode(err error) int {
	var verrs config.ValidationErrors
	if errors.As(err, &verrs) {
		return ExitCodeConfig
	}
	return ExitCodeError
}

func init() {
	// Set here rather than in the rootCmd literal: runServe's reference to
	// GetVersion would otherwise form an initialization cycle with rootCmd.
	rootCmd.RunE = runServe

	rootCmd.AddCommand(newVersionCmd())

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagMode, "mode", "", "transport mode: http or stdio (default http)")
	pf.IntVar(&flagPort, "port", 0, "HTTP listen port (default $PORT or 8080)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn or error (default $LOG_LEVEL or info)")
	pf.StringVar(&flagLogFormat, "log-format", "", "log format: machine or human (default $LOG_FORMAT or machine)")
}
