package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config keys.
const (
	KeyEdgerc     = "edgerc"
	KeySection    = "section"
	KeyAccountKey = "account-key"
	KeyTimeout    = "timeout"
	KeyLogLevel   = "log-level"
)

// Environment variable fallbacks.
const (
	EnvEdgerc     = "EDGECLI_EDGERC"
	EnvSection    = "EDGECLI_SECTION"
	EnvAccountKey = "EDGECLI_ACCOUNT_KEY"
	EnvTimeout    = "EDGECLI_TIMEOUT"
	EnvLogLevel   = "EDGECLI_LOG_LEVEL"
)

// Sentinel errors.
var (
	// ErrInvalidKey indicates a key that cannot be stored in the config file.
	ErrInvalidKey = errors.New("invalid config key")

	// ErrInvalidSyntax indicates a malformed line in the config file.
	ErrInvalidSyntax = errors.New("invalid config syntax")

	// ErrInvalidValue indicates a value rejected by key-specific validation.
	ErrInvalidValue = errors.New("invalid config value")
)

// keyEnv maps each supported key to its environment fallback, in display order.
var keyEnv = []struct{ key, env string }{
	{KeyEdgerc, EnvEdgerc},
	{KeySection, EnvSection},
	{KeyAccountKey, EnvAccountKey},
	{KeyTimeout, EnvTimeout},
	{KeyLogLevel, EnvLogLevel},
}

// Config holds user configuration loaded from ~/.config/go-edgecli/config.
// Zero values mean "not configured"; callers apply their own defaults.
type Config struct {
	Edgerc     string
	Section    string
	AccountKey string
	Timeout    time.Duration
	LogLevel   string
}

// Keys returns the supported configuration keys.
func Keys() []string {
	keys := make([]string, len(keyEnv))
	for i, ke := range keyEnv {
		keys[i] = ke.key
	}
	return keys
}

// EnvFor returns the environment variable backing key, or "".
func EnvFor(key string) string {
	for _, ke := range keyEnv {
		if ke.key == key {
			return ke.env
		}
	}
	return ""
}

// IsValidKey reports whether key is a supported configuration key.
func IsValidKey(key string) bool {
	return slices.Contains(Keys(), key)
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-edgecli.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "go-edgecli"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", "go-edgecli"), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	value := func(key string) string {
		if v := data[key]; v != "" {
			return v
		}
		return os.Getenv(EnvFor(key))
	}

	cfg.Edgerc = ExpandPath(value(KeyEdgerc))
	cfg.Section = value(KeySection)
	cfg.AccountKey = value(KeyAccountKey)
	cfg.LogLevel = value(KeyLogLevel)
	if raw := value(KeyTimeout); raw != "" {
		d, err := ParseTimeout(raw)
		if err != nil {
			return cfg, err
		}
		cfg.Timeout = d
	}

	return cfg, nil
}

// ParseTimeout parses a timeout given either as integer milliseconds
// ("120000") or as a Go duration ("2m"). The result must be positive.
func ParseTimeout(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	var d time.Duration
	if ms, err := strconv.Atoi(raw); err == nil {
		d = time.Duration(ms) * time.Millisecond
	} else {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("timeout %q: %w", raw, ErrInvalidValue)
		}
		d = parsed
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout %q must be positive: %w", raw, ErrInvalidValue)
	}
	return d, nil
}

// Validate checks a value for a supported key.
func Validate(key, value string) error {
	if !IsValidKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v): %w", key, Keys(), ErrInvalidKey)
	}
	switch key {
	case KeyTimeout:
		_, err := ParseTimeout(value)
		return err
	case KeyLogLevel:
		if _, err := zerolog.ParseLevel(strings.ToLower(value)); err != nil {
			return fmt.Errorf("log level %q: %w", value, ErrInvalidValue)
		}
	case KeyEdgerc, KeySection:
		if value == "" {
			return fmt.Errorf("%s cannot be empty: %w", key, ErrInvalidValue)
		}
	}
	return nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: %q: %w", lineNum, line, ErrInvalidSyntax)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		data[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\n\r") {
		return fmt.Errorf("%q: %w", key, ErrInvalidKey)
	}

	p, err := path()
	if err != nil {
		return err
	}

	// Ensure config directory exists.
	d := filepath.Dir(p)
	if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	// Read existing config (if any).
	existing, _ := parseFile(p)
	if existing == nil {
		existing = make(map[string]string)
	}

	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file holds an account key, owner-only permissions
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, data[key]); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return p
		}
		return filepath.Join(home, p[1:])
	}
	return p
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
