package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/alnah/go-edgecli/internal/config"
	"github.com/alnah/go-edgecli/internal/dispatch"
	"github.com/alnah/go-edgecli/internal/format"
	"github.com/alnah/go-edgecli/internal/logging"
	"github.com/alnah/go-edgecli/internal/request"
)

// Globals holds the persistent flags shared by every API command.
// Empty values fall back to the config file, then the environment.
type Globals struct {
	Edgerc     string
	Section    string
	AccountKey string
	Timeout    string
	Format     string
	LogLevel   string
	Output     string
}

// Register binds the global flags to fs.
func (g *Globals) Register(fs *pflag.FlagSet) {
	fs.StringVar(&g.Edgerc, "edgerc", "", "path to the .edgerc credentials file (default ~/.edgerc)")
	fs.StringVar(&g.Section, "section", "", "credentials section in the .edgerc file (default \"default\")")
	fs.StringVar(&g.AccountKey, "account-key", "", "account switch key for cross-account access")
	fs.StringVar(&g.Timeout, "timeout", "", "request timeout, in milliseconds or as a duration (default 2m)")
	fs.StringVarP(&g.Format, "format", "f", format.KindJSON, "output format: json or yaml")
	fs.StringVar(&g.LogLevel, "log-level", "", "log level: debug, info, warn, error (default warn)")
	fs.StringVarP(&g.Output, "output", "o", "", "write the response to a new file instead of stdout")
}

// session is the resolved state for one command invocation.
type session struct {
	dispatcher *dispatch.Dispatcher
	logger     zerolog.Logger
	timeout    time.Duration
	format     string
	output     string
}

// settings is the outcome of merging flags, config and defaults.
type settings struct {
	edgerc     string
	section    string
	accountKey string
	timeout    time.Duration
	format     string
	logLevel   string
}

// resolveSettings merges flags over the loaded config.
// The config loader already applies environment fallbacks.
func resolveSettings(g *Globals, cfg config.Config) (settings, error) {
	s := settings{
		edgerc:     firstNonEmpty(config.ExpandPath(g.Edgerc), cfg.Edgerc),
		section:    firstNonEmpty(g.Section, cfg.Section),
		accountKey: firstNonEmpty(g.AccountKey, cfg.AccountKey),
		timeout:    cfg.Timeout,
		format:     firstNonEmpty(g.Format, format.KindJSON),
		logLevel:   firstNonEmpty(g.LogLevel, cfg.LogLevel),
	}

	if g.Timeout != "" {
		d, err := config.ParseTimeout(g.Timeout)
		if err != nil {
			return settings{}, fmt.Errorf("--timeout %q: %w", g.Timeout, ErrInvalidTimeout)
		}
		s.timeout = d
	}
	if s.timeout <= 0 {
		s.timeout = dispatch.DefaultTimeout
	}

	if s.format != format.KindJSON && s.format != format.KindYAML {
		return settings{}, fmt.Errorf("%q (valid: %s, %s): %w", s.format, format.KindJSON, format.KindYAML, ErrInvalidFormat)
	}

	return s, nil
}

// newSession loads configuration, builds the logger and authenticator,
// and returns a dispatcher scoped to the resolved account.
func newSession(env *Env, g *Globals) (*session, error) {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		return nil, err
	}

	s, err := resolveSettings(g, cfg)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(env.Stderr, s.logLevel)
	if err != nil {
		return nil, err
	}

	auth, err := env.AuthenticatorFactory.NewAuthenticator(s.edgerc, s.section)
	if err != nil {
		return nil, err
	}

	reqCtx := request.NewContext(s.accountKey, env.Version)
	return &session{
		dispatcher: dispatch.New(reqCtx, auth, dispatch.WithLogger(logger)),
		logger:     logger,
		timeout:    s.timeout,
		format:     s.format,
		output:     config.ExpandPath(g.Output),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
