package cmd

import (
	"errors"
	"fmt"
	"testing"

	"lanonasis-gateway/internal/config"
)

func TestSetBuildInfo(t *testing.T) {
	originalVersion := rootCmd.Version
	originalCommit := buildCommit
	originalDate := buildDate
	defer func() {
		rootCmd.Version = originalVersion
		buildCommit = originalCommit
		buildDate = originalDate
	}()

	SetBuildInfo("1.2.3-test", "abc1234", "2026-01-02")

	if rootCmd.Version != "1.2.3-test" {
		t.Errorf("expected version 1.2.3-test, got %s", rootCmd.Version)
	}
	if GetVersion() != "1.2.3-test" {
		t.Errorf("expected GetVersion to return 1.2.3-test, got %s", GetVersion())
	}
	if buildCommit != "abc1234" || buildDate != "2026-01-02" {
		t.Errorf("expected build metadata to be recorded, got commit=%s date=%s", buildCommit, buildDate)
	}
}

func TestGetVersionDefaultsToDev(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	rootCmd.Version = ""
	if GetVersion() != "dev" {
		t.Errorf("expected dev fallback, got %s", GetVersion())
	}
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "lanonasis-gateway" {
		t.Errorf("expected Use to be 'lanonasis-gateway', got %s", rootCmd.Use)
	}
	if !rootCmd.SilenceUsage {
		t.Error("expected SilenceUsage to be true")
	}
	if rootCmd.RunE == nil {
		t.Error("expected a bare invocation to serve")
	}

	// serve and version are registered as subcommands.
	var haveServe, haveVersion bool
	for _, sub := range rootCmd.Commands() {
		switch sub.Use {
		case "serve":
			haveServe = true
		case "version":
			haveVersion = true
		}
	}
	if !haveServe {
		t.Error("expected serve subcommand to be registered")
	}
	if !haveVersion {
		t.Error("expected version subcommand to be registered")
	}
}

func TestRootCommandFlags(t *testing.T) {
	for _, name := range []string{"mode", "port", "log-level", "log-format"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s to be defined", name)
		}
	}
}

func TestGetExitCode(t *testing.T) {
	var verrs config.ValidationErrors
	verrs.Add(config.EnvAPIBaseURL, "required but not set")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation errors", err: verrs, want: ExitCodeConfig},
		{name: "wrapped validation errors", err: fmt.Errorf("loading config: %w", verrs), want: ExitCodeConfig},
		{name: "runtime error", err: errors.New("bind: address already in use"), want: ExitCodeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getExitCode(tt.err); got != tt.want {
				t.Errorf("getExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
