package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-edgecli/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-edgecli/config.
Command-line flags override the file, which overrides environment variables.

Supported settings:
  edgerc        Path to the .edgerc credentials file (env: EDGECLI_EDGERC)
  section       Credentials section to use (env: EDGECLI_SECTION)
  account-key   Account switch key (env: EDGECLI_ACCOUNT_KEY)
  timeout       Request timeout, ms or duration (env: EDGECLI_TIMEOUT)
  log-level     debug, info, warn or error (env: EDGECLI_LOG_LEVEL)`,
		Example: `  edgecli config set section ccu
  edgecli config set timeout 30s
  edgecli config get account-key
  edgecli config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Values are validated before being written: timeouts must be positive,
log levels must be known to the logger.`,
		Example: `  edgecli config set edgerc ~/.edgerc
  edgecli config set log-level debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.
Falls back to the matching environment variable.`,
		Example: `  edgecli config get section`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable fallbacks.`,
		Example: `  edgecli config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if err := config.Validate(key, value); err != nil {
		return err
	}

	// Store expanded paths for consistency.
	if key == config.KeyEdgerc {
		value = config.ExpandPath(value)
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v): %w", key, config.Keys(), config.ErrInvalidKey)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Check environment variable fallback.
	if value == "" {
		value = env.Getenv(config.EnvFor(key))
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	// Add environment variable values for completeness.
	for _, key := range config.Keys() {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(config.EnvFor(key)); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, strings.Compare)

	for _, key := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}

	return nil
}
