// Package edgegrid signs and sends requests with the EdgeGrid v1
// (EG1-HMAC-SHA256) authentication scheme shared by the workers and
// key-value APIs.
package edgegrid

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alnah/go-edgecli/internal/apierr"
	"github.com/alnah/go-edgecli/internal/request"
)

const (
	authScheme      = "EG1-HMAC-SHA256"
	timestampLayout = "20060102T15:04:05+0000"

	// Response size limit to prevent OOM from malformed responses (10MB)
	maxResponseSize = 10 * 1024 * 1024
)

// Extra keys the signer inspects on a descriptor.
const (
	ExtraMaxBody = "maxBody"
	ExtraHost    = "host"
)

// httpDoer abstracts HTTP client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Compile-time interface compliance checks.
var (
	_ request.Authenticator = (*Signer)(nil)
	_ request.Call          = (*Call)(nil)
)

// Signer prepares EdgeGrid-signed calls from request descriptors.
// A Signer is safe for concurrent use; each Auth returns an independent Call.
type Signer struct {
	creds      Credentials
	httpClient httpDoer
	now        func() time.Time
	nonce      func() string
}

// Option configures a Signer.
type Option func(*Signer)

// WithClock sets the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) {
		s.now = now
	}
}

// withHTTPClient sets a custom HTTP client (for testing).
func withHTTPClient(client httpDoer) Option {
	return func(s *Signer) {
		s.httpClient = client
	}
}

// withNonce sets the nonce generator (for testing).
func withNonce(fn func() string) Option {
	return func(s *Signer) {
		s.nonce = fn
	}
}

// NewSigner creates a Signer for creds.
// Returns ErrCredentialsMissing if a required credential is empty.
func NewSigner(creds Credentials, opts ...Option) (*Signer, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	if creds.MaxBody <= 0 {
		creds.MaxBody = DefaultMaxBody
	}

	s := &Signer{
		creds: creds,
		now:   time.Now,
		nonce: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	// No client-level timeout: the dispatcher owns the deadline.
	if s.httpClient == nil {
		s.httpClient = &http.Client{}
	}
	return s, nil
}

// Call is one signed request, ready to send.
type Call struct {
	client httpDoer
	method string
	url    string
	header http.Header
	body   []byte
}

// Auth serializes the body, computes the EdgeGrid signature and returns
// the prepared call. Extra may override the host and the signed body limit.
func (s *Signer) Auth(d request.Descriptor) (request.Call, error) {
	body, err := encodeBody(d.Body)
	if err != nil {
		return nil, err
	}

	scheme, host := splitHost(s.creds.Host)
	if h, ok := d.Extra[ExtraHost].(string); ok && h != "" {
		scheme, host = splitHost(h)
	}
	maxBody := s.creds.MaxBody
	if n, ok := toInt(d.Extra[ExtraMaxBody]); ok && n > 0 {
		maxBody = n
	}

	method := strings.ToUpper(d.Method)
	path := d.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	timestamp := s.now().UTC().Format(timestampLayout)
	authHeader := fmt.Sprintf("%s client_token=%s;access_token=%s;timestamp=%s;nonce=%s;",
		authScheme, s.creds.ClientToken, s.creds.AccessToken, timestamp, s.nonce())

	signingKey := sign(timestamp, s.creds.ClientSecret)
	dataToSign := strings.Join([]string{
		method,
		scheme,
		host,
		path,
		"", // no canonicalized headers
		contentHash(method, body, maxBody),
		authHeader,
	}, "\t")
	signature := sign(dataToSign, signingKey)

	header := make(http.Header, len(d.Headers)+1)
	for k, v := range d.Headers {
		header[k] = []string{v}
	}
	header.Set("Authorization", authHeader+"signature="+signature)

	return &Call{
		client: s.httpClient,
		method: method,
		url:    scheme + "://" + host + path,
		header: header,
		body:   body,
	}, nil
}

// Send performs the request. A non-2xx status is reported as an
// *apierr.TransportError carrying the response section; a network
// failure as an *apierr.TransportError without one.
func (c *Call) Send(ctx context.Context) (*request.Response, string, error) {
	var reader io.Reader
	if len(c.body) > 0 {
		reader = bytes.NewReader(c.body)
	}
	req, err := http.NewRequestWithContext(ctx, c.method, c.url, reader)
	if err != nil {
		return nil, "", &apierr.TransportError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header = c.header.Clone()

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", &apierr.TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	meta := &request.Response{StatusCode: resp.StatusCode, Header: resp.Header}

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	body := string(raw)
	if readErr != nil {
		return meta, body, &apierr.TransportError{
			Err:      fmt.Errorf("failed to read response: %w", readErr),
			Response: &apierr.ErrorResponse{Status: resp.StatusCode, Header: resp.Header},
		}
	}

	if !request.IsOK(resp.StatusCode) {
		return meta, body, &apierr.TransportError{
			Response: &apierr.ErrorResponse{
				Status: resp.StatusCode,
				Header: resp.Header,
				Data:   decodeData(raw),
			},
		}
	}

	return meta, body, nil
}

// encodeBody serializes a descriptor body. Strings and byte slices are
// sent verbatim; other values are encoded as JSON.
func encodeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(b), nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		out, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
		}
		return out, nil
	}
}

// decodeData decodes an error body as JSON, falling back to the raw
// string, or nil when empty.
func decodeData(raw []byte) any {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	return v
}

// contentHash is the base64 SHA-256 of the first maxBody bytes of a POST
// body, or "" for other methods and empty bodies.
func contentHash(method string, body []byte, maxBody int) string {
	if method != http.MethodPost || len(body) == 0 {
		return ""
	}
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	sum := sha256.Sum256(body)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// sign returns base64(HMAC-SHA256(key, data)).
func sign(data, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// splitHost separates an optional scheme from host; the default is https.
func splitHost(h string) (scheme, host string) {
	h = strings.TrimSuffix(h, "/")
	if i := strings.Index(h, "://"); i >= 0 {
		return h[:i], h[i+3:]
	}
	return "https", h
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
