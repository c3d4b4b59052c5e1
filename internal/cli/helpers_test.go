package cli

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/alnah/go-edgecli/internal/config"
	"github.com/alnah/go-edgecli/internal/request"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// Compile-time check that syncBuffer implements io.Writer.
var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// testMocks - convenience struct for grouping all mocks
// ---------------------------------------------------------------------------

type testMocks struct {
	configLoader *mockConfigLoader
	authFactory  *mockAuthenticatorFactory
	auth         *mockAuthenticator
	stdout       *syncBuffer
	stderr       *syncBuffer
}

// testEnvOptions configures a test environment.
type testEnvOptions struct {
	getenv  func(string) string
	config  config.Config
	respond respondFunc
}

// testEnvOption configures testEnv.
type testEnvOption func(*testEnvOptions)

func withConfig(cfg config.Config) testEnvOption {
	return func(o *testEnvOptions) { o.config = cfg }
}

func withRespond(fn respondFunc) testEnvOption {
	return func(o *testEnvOptions) { o.respond = fn }
}

func withGetenv(fn func(string) string) testEnvOption {
	return func(o *testEnvOptions) { o.getenv = fn }
}

// testEnv creates a test Env with all dependencies mocked.
// Returns the Env and the mocks for assertions.
func testEnv(opts ...testEnvOption) (*Env, *testMocks) {
	options := &testEnvOptions{
		getenv: staticEnv(nil),
	}
	for _, opt := range opts {
		opt(options)
	}

	cfg := options.config
	mocks := &testMocks{
		configLoader: &mockConfigLoader{
			LoadFunc: func() (config.Config, error) { return cfg, nil },
		},
		auth:   &mockAuthenticator{RespondFunc: options.respond},
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
	}
	mocks.authFactory = &mockAuthenticatorFactory{mockAuthenticator: mocks.auth}

	env := &Env{
		Stdout:               mocks.stdout,
		Stderr:               mocks.stderr,
		Getenv:               options.getenv,
		Now:                  fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		Version:              "1.2.3",
		ConfigLoader:         mocks.configLoader,
		AuthenticatorFactory: mocks.authFactory,
	}

	return env, mocks
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// jsonResponse returns a respondFunc answering every call with status and body.
func jsonResponse(status int, body string) respondFunc {
	return func(ctx context.Context, d request.Descriptor) (*request.Response, string, error) {
		return &request.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": {"application/json"}},
		}, body, nil
	}
}

// newRoot builds a root command wired like cmd/edgecli, for flag parsing tests.
func newRoot(env *Env) *cobra.Command {
	g := &Globals{}
	root := &cobra.Command{
		Use:           "edgecli",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	g.Register(root.PersistentFlags())
	root.AddCommand(GetCmd(env, g), DeleteCmd(env, g), PostCmd(env, g), PutCmd(env, g), ConfigCmd(env))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	return root
}
