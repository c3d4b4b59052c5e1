package cli

import (
	"context"
	"net/http"
	"sync"

	"github.com/alnah/go-edgecli/internal/config"
	"github.com/alnah/go-edgecli/internal/request"
)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	LoadFunc func() (config.Config, error)

	mu        sync.Mutex
	loadCalls int
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()

	if m.LoadFunc != nil {
		return m.LoadFunc()
	}
	return config.Config{}, nil
}

func (m *mockConfigLoader) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// ---------------------------------------------------------------------------
// Mock AuthenticatorFactory + Authenticator
// ---------------------------------------------------------------------------

type authenticatorCall struct {
	EdgercPath string
	Section    string
}

type mockAuthenticatorFactory struct {
	NewAuthenticatorFunc func(edgercPath, section string) (request.Authenticator, error)
	mockAuthenticator    *mockAuthenticator

	mu    sync.Mutex
	calls []authenticatorCall
}

func (m *mockAuthenticatorFactory) NewAuthenticator(edgercPath, section string) (request.Authenticator, error) {
	m.mu.Lock()
	m.calls = append(m.calls, authenticatorCall{EdgercPath: edgercPath, Section: section})
	m.mu.Unlock()

	if m.NewAuthenticatorFunc != nil {
		return m.NewAuthenticatorFunc(edgercPath, section)
	}
	if m.mockAuthenticator == nil {
		m.mockAuthenticator = &mockAuthenticator{}
	}
	return m.mockAuthenticator, nil
}

func (m *mockAuthenticatorFactory) NewAuthenticatorCalls() []authenticatorCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]authenticatorCall(nil), m.calls...)
}

// respondFunc produces the outcome of one call from its descriptor.
type respondFunc func(ctx context.Context, d request.Descriptor) (*request.Response, string, error)

type mockAuthenticator struct {
	RespondFunc respondFunc

	mu    sync.Mutex
	descs []request.Descriptor
}

func (m *mockAuthenticator) Auth(d request.Descriptor) (request.Call, error) {
	m.mu.Lock()
	m.descs = append(m.descs, d)
	m.mu.Unlock()

	return mockCall{desc: d, fn: m.RespondFunc}, nil
}

func (m *mockAuthenticator) Descriptors() []request.Descriptor {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]request.Descriptor(nil), m.descs...)
}

type mockCall struct {
	desc request.Descriptor
	fn   respondFunc
}

func (c mockCall) Send(ctx context.Context) (*request.Response, string, error) {
	if c.fn == nil {
		return &request.Response{StatusCode: http.StatusOK, Header: http.Header{}}, "", nil
	}
	return c.fn(ctx, c.desc)
}

// Compile-time interface verification.
var (
	_ ConfigLoader          = (*mockConfigLoader)(nil)
	_ AuthenticatorFactory  = (*mockAuthenticatorFactory)(nil)
	_ request.Authenticator = (*mockAuthenticator)(nil)
)
