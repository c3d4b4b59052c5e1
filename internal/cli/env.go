package cli

import (
	"io"
	"os"
	"time"

	"github.com/alnah/go-edgecli/internal/config"
	"github.com/alnah/go-edgecli/internal/edgegrid"
	"github.com/alnah/go-edgecli/internal/request"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Version is sent in the key-value CLI version header.
	Version string

	// Factories for domain objects
	ConfigLoader         ConfigLoader
	AuthenticatorFactory AuthenticatorFactory
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// AuthenticatorFactory creates the authenticator that signs API requests.
type AuthenticatorFactory interface {
	NewAuthenticator(edgercPath, section string) (request.Authenticator, error)
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithVersion sets the version reported to the key-value API.
func WithVersion(v string) EnvOption {
	return func(e *Env) {
		e.Version = v
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithAuthenticatorFactory sets the authenticator factory.
func WithAuthenticatorFactory(f AuthenticatorFactory) EnvOption {
	return func(e *Env) {
		e.AuthenticatorFactory = f
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout:               os.Stdout,
		Stderr:               os.Stderr,
		Getenv:               os.Getenv,
		Now:                  time.Now,
		Version:              "dev",
		ConfigLoader:         &defaultConfigLoader{},
		AuthenticatorFactory: &defaultAuthenticatorFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultAuthenticatorFactory implements AuthenticatorFactory with EdgeGrid
// credentials read from an .edgerc file.
type defaultAuthenticatorFactory struct{}

func (defaultAuthenticatorFactory) NewAuthenticator(edgercPath, section string) (request.Authenticator, error) {
	creds, err := edgegrid.LoadEdgerc(edgercPath, section)
	if err != nil {
		return nil, err
	}
	return edgegrid.NewSigner(creds)
}

// Compile-time interface verification.
var (
	_ ConfigLoader         = (*defaultConfigLoader)(nil)
	_ AuthenticatorFactory = (*defaultAuthenticatorFactory)(nil)
)
