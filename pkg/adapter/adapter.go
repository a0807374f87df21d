// Package adapter provides the process-wide entry point that bridges a
// caller to a legacy remote endpoint: a retry-wrapped transport call
// followed by the decode → map → encode pipeline, with per-instance
// metrics.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/madcok-co/bridgekit/pkg/codec"
	"github.com/madcok-co/bridgekit/pkg/contracts"
	"github.com/madcok-co/bridgekit/pkg/pipeline"
	"github.com/madcok-co/bridgekit/pkg/resilience"
	"github.com/madcok-co/bridgekit/pkg/schema"
	"github.com/madcok-co/bridgekit/pkg/transport"
	"github.com/madcok-co/bridgekit/pkg/value"
)

// Request is one logical request through the adapter. URL takes
// precedence over Path; Path resolves against the configured endpoint.
type Request struct {
	Method      string
	Path        string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        []byte
}

// ResponseMetadata summarizes one Execute call.
type ResponseMetadata struct {
	RequestID string             `json:"requestId"`
	Duration  time.Duration      `json:"duration"`
	Timestamp time.Time          `json:"timestamp"`
	Transform *pipeline.Metadata `json:"transform,omitempty"`
	CacheHit  bool               `json:"cacheHit,omitempty"`
}

// Response is the structured result of Execute. Execute never returns
// an error: failures come back with Success false and Error set.
type Response struct {
	Success    bool              `json:"success"`
	Data       value.Value       `json:"data"`
	Body       []byte            `json:"-"`
	StatusCode int               `json:"statusCode,omitempty"`
	Headers    map[string]string `json:"headers,omitempty"`
	Error      string            `json:"error,omitempty"`
	Metadata   ResponseMetadata  `json:"metadata"`
}

// HealthStatus reports endpoint reachability.
type HealthStatus struct {
	Healthy    bool          `json:"healthy"`
	StatusCode int           `json:"statusCode,omitempty"`
	Latency    time.Duration `json:"latency"`
	Error      string        `json:"error,omitempty"`
}

// Adapter owns one immutable Config and one mutable Metrics set, and
// delegates to the retry executor and transformation pipeline.
type Adapter struct {
	config    Config
	transport contracts.Transport
	pipeline  *pipeline.Pipeline
	retryer   *resilience.Retryer
	breaker   *resilience.CircuitBreaker
	logger    contracts.Logger
	cache     contracts.Cache
	sink      contracts.Sink
	history   contracts.History

	metrics metricsState
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTransport overrides the HTTP transport (tests, custom auth).
func WithTransport(t contracts.Transport) Option {
	return func(a *Adapter) { a.transport = t }
}

// WithLogger sets the structured logger.
func WithLogger(l contracts.Logger) Option {
	return func(a *Adapter) { a.logger = l }
}

// WithCache wires a response cache for GET requests. Only effective
// together with Config.CacheTTL.
func WithCache(c contracts.Cache) Option {
	return func(a *Adapter) { a.cache = c }
}

// WithSink wires a sink that receives every transformed payload. Only
// effective together with Config.SinkTopic.
func WithSink(s contracts.Sink) Option {
	return func(a *Adapter) { a.sink = s }
}

// WithHistory wires an execution history store.
func WithHistory(h contracts.History) Option {
	return func(a *Adapter) { a.history = h }
}

// WithCircuitBreaker guards transport attempts with a breaker.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(a *Adapter) { a.breaker = cb }
}

// WithRetryPredicate tightens which failures are retried. The default
// retries everything.
func WithRetryPredicate(pred func(error) bool) Option {
	return func(a *Adapter) { a.retryer.Policy().RetryIf = pred }
}

// New creates an adapter for the given config.
func New(config Config, opts ...Option) *Adapter {
	a := &Adapter{
		config: config,
		pipeline: pipeline.New(pipeline.Config{
			SourceFormat: config.Source(),
			TargetFormat: config.Target(),
			Mapping:      config.Mapping,
			UnwrapSOAP:   config.UnwrapSOAP,
		}),
		retryer: resilience.NewRetryer(config.RetryPolicy.Policy()),
		logger:  contracts.NopLogger{},
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.transport == nil {
		a.transport = transport.New(&transport.Config{
			SourceFormat: config.Source(),
			Timeout:      config.Timeout(),
		})
	}

	a.logger = a.logger.Named("adapter").With("adapter", config.Name)
	return a
}

// Config returns a copy of the adapter configuration.
func (a *Adapter) Config() Config { return a.config }

// Metrics returns a snapshot of the running counters.
func (a *Adapter) Metrics() Metrics { return a.metrics.snapshot() }

// Execute runs one logical request: retry-wrapped transport call, then
// the transformation pipeline for reads. All failures are converted to
// a structured failure response; nothing propagates to the caller.
func (a *Adapter) Execute(ctx context.Context, req *Request) *Response {
	start := time.Now()
	requestID := uuid.NewString()

	a.metrics.recordRequest()

	url, err := a.resolveURL(req)
	if err != nil {
		return a.failure(requestID, start, err)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	if resp := a.cachedResponse(ctx, requestID, start, method, url); resp != nil {
		return resp
	}

	raw, err := a.fetch(ctx, &contracts.TransportRequest{
		Method:      method,
		URL:         url,
		Headers:     req.Headers,
		QueryParams: req.QueryParams,
		Body:        req.Body,
	})
	if err != nil {
		a.logger.Warn("request failed", "method", method, "url", url, "error", err)
		return a.failure(requestID, start, err)
	}

	resp := &Response{
		Success:    true,
		Body:       raw.Body,
		Data:       value.String(string(raw.Body)),
		StatusCode: raw.StatusCode,
		Headers:    raw.Headers,
		Metadata: ResponseMetadata{
			RequestID: requestID,
			Timestamp: time.Now().UTC(),
		},
	}

	// Only reads go through the pipeline; writes are assumed to already
	// be in the target shape.
	if method == http.MethodGet {
		result, err := a.pipeline.Transform(raw.Body)
		if err != nil {
			return a.failure(requestID, start, err)
		}
		resp.Data = result.Data
		resp.Body = result.Body()
		resp.Metadata.Transform = &result.Metadata
	}

	duration := time.Since(start)
	resp.Metadata.Duration = duration
	a.metrics.recordSuccess(duration, len(resp.Body))

	a.storeCache(ctx, method, url, resp)
	a.publish(ctx, requestID, resp)
	a.record(ctx, requestID, method, url, resp, "")

	a.logger.Debug("request completed",
		"method", method, "url", url,
		"status", resp.StatusCode, "duration", duration)

	return resp
}

// fetch runs one transport round trip under the retry policy, with the
// circuit breaker (when wired) guarding each attempt.
func (a *Adapter) fetch(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
	var raw *contracts.RawResult

	err := a.retryer.DoWithContext(ctx, func(ctx context.Context) error {
		attempt := func() error {
			res, err := a.transport.Do(ctx, req)
			if err != nil {
				return err
			}
			raw = res
			return nil
		}
		if a.breaker != nil {
			return a.breaker.Execute(attempt)
		}
		return attempt()
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// HealthCheck probes the configured endpoint: a single attempt,
// independent of the retry policy.
func (a *Adapter) HealthCheck(ctx context.Context) *HealthStatus {
	if a.config.Endpoint == "" {
		return &HealthStatus{Error: "no endpoint configured"}
	}

	start := time.Now()
	raw, err := a.transport.Do(ctx, &contracts.TransportRequest{
		Method: http.MethodHead,
		URL:    a.config.Endpoint,
	})
	status := &HealthStatus{Latency: time.Since(start)}
	if raw != nil {
		status.StatusCode = raw.StatusCode
	}
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Healthy = true
	return status
}

// AnalyzeEndpoint fetches a sample from the configured endpoint, decodes
// it by source format and infers its schema. As a one-shot diagnostic it
// propagates failures instead of recovering: single attempt, no retry.
func (a *Adapter) AnalyzeEndpoint(ctx context.Context) (*schema.InferredSchema, error) {
	if a.config.Endpoint == "" {
		return nil, &ConfigurationError{Reason: "no endpoint configured"}
	}

	raw, err := a.transport.Do(ctx, &contracts.TransportRequest{
		Method: http.MethodGet,
		URL:    a.config.Endpoint,
	})
	if err != nil {
		return nil, err
	}

	probe := pipeline.New(pipeline.Config{
		SourceFormat: a.config.Source(),
		TargetFormat: codec.FormatJSON,
		UnwrapSOAP:   a.config.UnwrapSOAP,
	})
	result, err := probe.Transform(raw.Body)
	if err != nil {
		return nil, err
	}

	inferred := schema.Infer(result.Data)
	return &inferred, nil
}

func (a *Adapter) resolveURL(req *Request) (string, error) {
	switch {
	case req.URL != "":
		return req.URL, nil
	case a.config.Endpoint != "":
		return strings.TrimRight(a.config.Endpoint, "/") + "/" + strings.TrimLeft(req.Path, "/"), nil
	}
	return "", &ConfigurationError{Reason: "no endpoint configured and request has no URL"}
}

func (a *Adapter) failure(requestID string, start time.Time, err error) *Response {
	duration := time.Since(start)
	a.metrics.recordFailure()

	var te *transport.Error
	resp := &Response{
		Data:  value.Null(),
		Error: err.Error(),
		Metadata: ResponseMetadata{
			RequestID: requestID,
			Duration:  duration,
			Timestamp: time.Now().UTC(),
		},
	}
	if errors.As(err, &te) {
		resp.StatusCode = te.StatusCode
	}

	a.record(context.Background(), requestID, "", "", resp, err.Error())
	return resp
}

func (a *Adapter) cacheKey(method, url string) string {
	return fmt.Sprintf("%s:%s:%s", a.config.Name, method, url)
}

func (a *Adapter) cachedResponse(ctx context.Context, requestID string, start time.Time, method, url string) *Response {
	if a.cache == nil || a.config.CacheTTL <= 0 || method != http.MethodGet {
		return nil
	}
	body, err := a.cache.Get(ctx, a.cacheKey(method, url))
	if err != nil {
		if !errors.Is(err, contracts.ErrCacheMiss) {
			a.logger.Warn("cache read failed", "error", err)
		}
		return nil
	}

	data, err := value.ParseJSON(body)
	if err != nil {
		data = value.String(string(body))
	}

	duration := time.Since(start)
	a.metrics.recordSuccess(duration, len(body))

	return &Response{
		Success:    true,
		Data:       data,
		Body:       body,
		StatusCode: http.StatusOK,
		Metadata: ResponseMetadata{
			RequestID: requestID,
			Duration:  duration,
			Timestamp: time.Now().UTC(),
			CacheHit:  true,
		},
	}
}

func (a *Adapter) storeCache(ctx context.Context, method, url string, resp *Response) {
	if a.cache == nil || a.config.CacheTTL <= 0 || method != http.MethodGet {
		return
	}
	if err := a.cache.Set(ctx, a.cacheKey(method, url), resp.Body, a.config.CacheTTL); err != nil {
		a.logger.Warn("cache write failed", "error", err)
	}
}

func (a *Adapter) publish(ctx context.Context, requestID string, resp *Response) {
	if a.sink == nil || a.config.SinkTopic == "" {
		return
	}
	err := a.sink.Publish(ctx, a.config.SinkTopic, &contracts.SinkMessage{
		ID:        requestID,
		Body:      resp.Body,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		a.logger.Warn("sink publish failed", "topic", a.config.SinkTopic, "error", err)
	}
}

func (a *Adapter) record(ctx context.Context, requestID, method, url string, resp *Response, errMsg string) {
	if a.history == nil {
		return
	}
	entry := &contracts.ExecutionEntry{
		RequestID:  requestID,
		Adapter:    a.config.Name,
		Method:     method,
		URL:        url,
		Success:    resp.Success,
		StatusCode: resp.StatusCode,
		Duration:   resp.Metadata.Duration,
		Error:      errMsg,
		CreatedAt:  time.Now().UTC(),
	}
	if resp.Metadata.Transform != nil {
		entry.FieldsMapped = resp.Metadata.Transform.FieldsMapped
		entry.FieldsTransformed = resp.Metadata.Transform.FieldsTransformed
	}
	if err := a.history.Record(ctx, entry); err != nil {
		a.logger.Warn("history write failed", "error", err)
	}
}
