package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/alnah/go-edgecli/internal/apierr"
	"github.com/alnah/go-edgecli/internal/cli"
	"github.com/alnah/go-edgecli/internal/config"
	"github.com/alnah/go-edgecli/internal/edgegrid"
	"github.com/alnah/go-edgecli/internal/interrupt"
)

// Injected at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitGeneral   = 1
	ExitUsage     = 2
	ExitSetup     = 3
	ExitAPI       = 4
	ExitTimeout   = 5
	ExitInterrupt = interrupt.ExitInterrupt
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	// First Ctrl+C cancels in-flight requests, a second one exits.
	handler, ctx := interrupt.NewHandler(context.Background())

	env := cli.NewEnv(cli.WithVersion(version))
	rootCmd := newRootCmd(env)

	err := rootCmd.ExecuteContext(ctx)
	interrupted := handler.WasInterrupted()
	handler.Stop()

	if err != nil {
		if interrupted && !errors.Is(err, context.Canceled) {
			err = fmt.Errorf("%w: %w", context.Canceled, err)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// newRootCmd builds the edgecli command tree.
func newRootCmd(env *cli.Env) *cobra.Command {
	globals := &cli.Globals{}

	rootCmd := &cobra.Command{
		Use:   "edgecli",
		Short: "Call the EdgeWorkers and EdgeKV APIs with EdgeGrid authentication",
		Long: `edgecli sends signed requests to the EdgeWorkers (/edgeworkers/v1) and
EdgeKV (/edgekv/v1) APIs and prints the response bodies.

Credentials are read from an .edgerc file. Settings come from flags, then
~/.config/go-edgecli/config, then EDGECLI_* environment variables.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		// Silence Cobra's default error/usage printing; we handle it ourselves.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	globals.Register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(cli.GetCmd(env, globals))
	rootCmd.AddCommand(cli.PostCmd(env, globals))
	rootCmd.AddCommand(cli.PutCmd(env, globals))
	rootCmd.AddCommand(cli.DeleteCmd(env, globals))
	rootCmd.AddCommand(cli.ConfigCmd(env))

	return rootCmd
}

// exitCode maps errors to process exit codes.
func exitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	// Check for context cancellation (interrupt).
	if errors.Is(err, context.Canceled) {
		return ExitInterrupt
	}

	if errors.Is(err, apierr.ErrTimeout) {
		return ExitTimeout
	}

	// API errors are matched before usage patterns; their messages are
	// server-provided text.
	if errors.Is(err, apierr.ErrAPI) || errors.Is(err, apierr.ErrMalformed) {
		return ExitAPI
	}

	// Usage errors: Cobra flag/arg parsing and invalid flag values.
	if isCobraUsageError(err) || errors.Is(err, cli.ErrInvalidFormat) ||
		errors.Is(err, cli.ErrInvalidTimeout) || errors.Is(err, cli.ErrInvalidData) {
		return ExitUsage
	}

	// Setup errors: credentials and configuration.
	if errors.Is(err, edgegrid.ErrCredentialsMissing) || errors.Is(err, config.ErrInvalidKey) ||
		errors.Is(err, config.ErrInvalidSyntax) || errors.Is(err, config.ErrInvalidValue) {
		return ExitSetup
	}

	return ExitGeneral
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",             // Missing required flag
	"unknown flag",              // Flag doesn't exist
	"unknown shorthand",         // Short flag doesn't exist
	"unknown command",           // Subcommand doesn't exist
	"flag needs an argument",    // Flag provided without value
	"invalid argument",          // Invalid flag value type
	"if any flags in the group", // Mutually exclusive flag violation
	"accepts ",                  // Wrong number of arguments (e.g., "accepts 1 arg(s)")
	"requires at least",         // Too few arguments
	"requires at most",          // Too many arguments
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	if err == nil {
		return false
	}
	errMsg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
