// Package transport implements the HTTP collaborator that performs one
// round trip against a legacy endpoint. Retry wrapping lives a layer
// above; this package only decides what a single attempt looks like and
// what counts as a failure.
package transport

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/madcok-co/bridgekit/pkg/codec"
	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// Error is a transport failure: a network error, a timeout, or a
// non-2xx status. StatusCode is 0 when the request never completed.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport: unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// IsStatusRetryable reports whether a transport error is worth retrying:
// network failures and 5xx statuses are, 4xx are not. Plug it into
// resilience.RetryPolicy.RetryIf to tighten the default retry-everything
// behavior.
func IsStatusRetryable(err error) bool {
	var te *Error
	if !errors.As(err, &te) {
		return err != nil
	}
	return te.StatusCode == 0 || te.StatusCode >= 500
}

// Config for the HTTP transport.
type Config struct {
	// SourceFormat drives the default Accept header
	SourceFormat codec.Format

	// Timeout bounds one attempt end to end. Default 30s.
	Timeout time.Duration

	// DefaultHeaders are added to every request unless overridden
	DefaultHeaders map[string]string

	// OAuth2 enables client-credentials authentication when set
	OAuth2 *OAuth2Config

	// Client overrides the underlying http.Client (tests, custom TLS)
	Client *http.Client
}

// OAuth2Config holds client-credentials settings for protected endpoints.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SourceFormat: codec.FormatJSON,
		Timeout:      30 * time.Second,
	}
}

// HTTP implements contracts.Transport over net/http.
type HTTP struct {
	config *Config
	client *http.Client
}

// New creates an HTTP transport.
func New(config *Config) *HTTP {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}

	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	if config.OAuth2 != nil {
		cc := clientcredentials.Config{
			TokenURL:     config.OAuth2.TokenURL,
			ClientID:     config.OAuth2.ClientID,
			ClientSecret: config.OAuth2.ClientSecret,
			Scopes:       config.OAuth2.Scopes,
		}
		client = &http.Client{
			Transport: &oauthRoundTripper{
				source: cc.TokenSource(context.Background()),
				base:   client.Transport,
			},
		}
	}
	client.Timeout = config.Timeout

	return &HTTP{config: config, client: client}
}

// Do performs a single request. Non-2xx responses fail with a transport
// Error carrying the status code; response bodies compressed with
// brotli or gzip are decoded transparently.
func (t *HTTP) Do(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
	u, err := buildURL(req.URL, req.QueryParams)
	if err != nil {
		return nil, &Error{Err: err}
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return nil, &Error{Err: err}
	}

	httpReq.Header.Set("Accept", t.config.SourceFormat.AcceptHeader())
	httpReq.Header.Set("Accept-Encoding", "br, gzip")
	for k, v := range t.config.DefaultHeaders {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer resp.Body.Close()

	raw, err := readBody(resp)
	if err != nil {
		return nil, &Error{Err: err}
	}

	result := &contracts.RawResult{
		Body:       raw,
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return result, &Error{StatusCode: resp.StatusCode}
	}
	return result, nil
}

func buildURL(rawURL string, query map[string]string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = resp.Body
	switch strings.ToLower(resp.Header.Get("Content-Encoding")) {
	case "br":
		r = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		r = gz
	}
	return io.ReadAll(r)
}

func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

// oauthRoundTripper injects client-credentials bearer tokens. The token
// source caches and refreshes tokens across requests.
type oauthRoundTripper struct {
	source oauth2.TokenSource
	base   http.RoundTripper
}

func (rt *oauthRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	tok, err := rt.source.Token()
	if err != nil {
		return nil, err
	}
	clone := req.Clone(req.Context())
	tok.SetAuthHeader(clone)

	base := rt.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
