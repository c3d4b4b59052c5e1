// Package request builds the outgoing request for the workers and
// key-value APIs: account scoping of the path and the API-specific
// identification headers.
package request

import (
	"context"
	"net/http"
	"strings"
)

// API base paths. A request targets an API when its path contains the base.
const (
	WorkersAPIBase = "/edgeworkers/v1"
	KVAPIBase      = "/edgekv/v1"
)

// Header names, exact case.
const (
	HeaderWorkersClient = "X-EW-CLI"
	HeaderKVVersion     = "X-AK-EDGEKV-CLI-VER"
	HeaderKVMetricType  = "X-AK-EDGEKV-CLI"
	HeaderContentType   = "Content-Type"

	workersClientValue = "CLI"
)

// ContentTypeJSON is the content type sent with POST and PUT bodies.
const ContentTypeJSON = "application/json"

// accountSwitchParam is the query parameter scoping a call to an account.
const accountSwitchParam = "accountSwitchKey"

// Context carries process-wide request settings. It is created once at
// startup and only read afterwards.
type Context struct {
	// AccountKey scopes every request to a customer account when non-empty.
	AccountKey string

	// Version identifies the client in key-value API headers.
	Version string
}

// NewContext returns a Context for the given account switch key and client version.
func NewContext(accountKey, version string) Context {
	return Context{AccountKey: accountKey, Version: version}
}

// Descriptor is the request handed to the authenticator.
// Body is a string, []byte, a JSON-serializable value, or nil.
// Extra carries caller configuration the authenticator may inspect.
type Descriptor struct {
	Path    string
	Method  string
	Headers map[string]string
	Body    any
	Extra   map[string]any
}

// Response is the transport response metadata.
type Response struct {
	StatusCode int
	Header     http.Header
}

// IsOK reports whether code is a success status, in [200, 300).
func IsOK(code int) bool {
	return code >= 200 && code < 300
}

// API identifies which API surface a path targets.
type API string

// API surfaces.
const (
	APIWorkers API = "workers"
	APIKV      API = "kv"
	APIOther   API = "other"
)

// Target returns the API a path targets. A path matching both bases
// reports workers; header injection still applies both sets.
func Target(path string) API {
	switch {
	case strings.Contains(path, WorkersAPIBase):
		return APIWorkers
	case strings.Contains(path, KVAPIBase):
		return APIKV
	default:
		return APIOther
	}
}

// ScopePath appends the account switch key to path when one is set.
// The separator is '?' unless the path already has a query string.
func (c Context) ScopePath(path string) string {
	if c.AccountKey == "" {
		return path
	}
	sep := "&"
	if !strings.Contains(path, "?") {
		sep = "?"
	}
	return path + sep + accountSwitchParam + "=" + c.AccountKey
}

// Headers returns a copy of headers with the API identification headers
// added for path. The caller's map is never modified.
func (c Context) Headers(path string, headers map[string]string, metricType string) map[string]string {
	out := make(map[string]string, len(headers)+3)
	for k, v := range headers {
		out[k] = v
	}
	if strings.Contains(path, WorkersAPIBase) {
		out[HeaderWorkersClient] = workersClientValue
	}
	if strings.Contains(path, KVAPIBase) {
		out[HeaderKVVersion] = c.Version
		out[HeaderKVMetricType] = metricType
	}
	return out
}

// Build returns the descriptor for one call: account-scoped path and
// API-specific headers. Header matching runs on the scoped path.
func (c Context) Build(path, method string, body any, headers map[string]string, metricType string) Descriptor {
	scoped := c.ScopePath(path)
	return Descriptor{
		Path:    scoped,
		Method:  method,
		Headers: c.Headers(scoped, headers, metricType),
		Body:    body,
	}
}

// Merge applies extra caller configuration onto d. The keys path, method,
// headers and body override the built fields; every other key is kept in
// Extra for the authenticator. Values of an unexpected type are kept in
// Extra unchanged.
func (d Descriptor) Merge(extra map[string]any) Descriptor {
	if len(extra) == 0 {
		return d
	}
	out := d
	out.Extra = make(map[string]any, len(d.Extra)+len(extra))
	for k, v := range d.Extra {
		out.Extra[k] = v
	}
	for k, v := range extra {
		switch k {
		case "path":
			if s, ok := v.(string); ok {
				out.Path = s
				continue
			}
		case "method":
			if s, ok := v.(string); ok {
				out.Method = s
				continue
			}
		case "headers":
			if h, ok := toHeaders(v); ok {
				out.Headers = h
				continue
			}
		case "body":
			out.Body = v
			continue
		}
		out.Extra[k] = v
	}
	return out
}

// toHeaders accepts map[string]string or map[string]any with string values.
func toHeaders(v any) (map[string]string, bool) {
	switch h := v.(type) {
	case map[string]string:
		out := make(map[string]string, len(h))
		for k, val := range h {
			out[k] = val
		}
		return out, true
	case map[string]any:
		out := make(map[string]string, len(h))
		for k, val := range h {
			s, ok := val.(string)
			if !ok {
				return nil, false
			}
			out[k] = s
		}
		return out, true
	default:
		return nil, false
	}
}

// Authenticator signs a descriptor and returns the prepared call.
type Authenticator interface {
	Auth(d Descriptor) (Call, error)
}

// Call performs the network I/O of one signed request. Send reports a
// failed call through err; resp and body are whatever was received.
type Call interface {
	Send(ctx context.Context) (resp *Response, body string, err error)
}
