package adapter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	sinkmem "github.com/madcok-co/bridgekit/contrib/sink/memory"
	"github.com/madcok-co/bridgekit/pkg/contracts"
	"github.com/madcok-co/bridgekit/pkg/resilience"
	"github.com/madcok-co/bridgekit/pkg/schema"
	"github.com/madcok-co/bridgekit/pkg/transport"
	"github.com/madcok-co/bridgekit/pkg/value"
)

// fastRetry keeps test retries in the microsecond range.
func fastRetry(maxRetries int) *RetryPolicyConfig {
	return &RetryPolicyConfig{
		MaxRetries:        maxRetries,
		InitialDelayMS:    1,
		MaxDelayMS:        2,
		BackoffMultiplier: 2.0,
	}
}

func jsonTransport(body string) contracts.TransportFunc {
	return func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		return &contracts.RawResult{
			Body:       []byte(body),
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
}

type memCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMemCache() *memCache { return &memCache{entries: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		return v, nil
	}
	return nil, contracts.ErrCacheMiss
}

func (c *memCache) Set(ctx context.Context, key string, v []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = v
	return nil
}

func (c *memCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *memCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok, nil
}

type memHistory struct {
	mu      sync.Mutex
	entries []contracts.ExecutionEntry
}

func (h *memHistory) Record(ctx context.Context, entry *contracts.ExecutionEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, *entry)
	return nil
}

func (h *memHistory) Recent(ctx context.Context, limit int) ([]contracts.ExecutionEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if limit > len(h.entries) {
		limit = len(h.entries)
	}
	out := make([]contracts.ExecutionEntry, limit)
	copy(out, h.entries[len(h.entries)-limit:])
	return out, nil
}

func baseConfig() Config {
	return Config{
		Name:         "legacy-users",
		SourceFormat: "json",
		TargetFormat: "json",
		Endpoint:     "http://legacy.internal",
		RetryPolicy:  fastRetry(3),
	}
}

func TestExecuteSuccess(t *testing.T) {
	cfg := baseConfig()
	cfg.Mapping = &schema.Mapping{
		SourceFields: map[string]string{"user_id": "id", "user_name": "name"},
	}

	a := New(cfg, WithTransport(jsonTransport(`{"user_id":7,"user_name":"alice","junk":true}`)))

	resp := a.Execute(context.Background(), &Request{Path: "/users/7"})

	if !resp.Success {
		t.Fatalf("Execute failed: %s", resp.Error)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	id, _ := resp.Data.Get("id")
	if id.NumberValue() != 7 {
		t.Errorf("mapped data = %s", resp.Body)
	}
	if _, ok := resp.Data.Get("junk"); ok {
		t.Error("unmapped field survived")
	}

	if resp.Metadata.RequestID == "" {
		t.Error("request id not assigned")
	}
	if resp.Metadata.Transform == nil || resp.Metadata.Transform.FieldsMapped != 2 {
		t.Errorf("transform metadata = %+v", resp.Metadata.Transform)
	}

	m := a.Metrics()
	if m.RequestsTotal != 1 || m.RequestsSuccess != 1 || m.RequestsFailed != 0 {
		t.Errorf("metrics = %+v", m)
	}
	if m.AvgLatency <= 0 {
		t.Error("avg latency not recorded")
	}
	if m.BytesProcessed == 0 {
		t.Error("bytes processed not recorded")
	}
}

func TestExecuteNeverPanicsOrErrorsOnFailure(t *testing.T) {
	calls := 0
	failing := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		return nil, &transport.Error{Err: errors.New("connection refused")}
	})

	a := New(baseConfig(), WithTransport(failing))
	resp := a.Execute(context.Background(), &Request{Path: "/users"})

	if resp.Success {
		t.Fatal("expected failure response")
	}
	if resp.Error == "" {
		t.Error("failure response must carry the error message")
	}
	if !resp.Data.IsNull() {
		t.Error("failure response data should be null")
	}
	if calls != 4 {
		t.Errorf("transport calls = %d, want maxRetries+1 = 4", calls)
	}

	m := a.Metrics()
	if m.RequestsTotal != 1 || m.RequestsFailed != 1 || m.RequestsSuccess != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestExecuteRecoversMidRetry(t *testing.T) {
	calls := 0
	flaky := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		if calls < 3 {
			return nil, &transport.Error{StatusCode: http.StatusServiceUnavailable}
		}
		return &contracts.RawResult{Body: []byte(`{"ok":true}`), StatusCode: http.StatusOK}, nil
	})

	a := New(baseConfig(), WithTransport(flaky))
	resp := a.Execute(context.Background(), &Request{Path: "/users"})

	if !resp.Success {
		t.Fatalf("Execute failed after recovery: %s", resp.Error)
	}
	if calls != 3 {
		t.Errorf("transport calls = %d, want 3", calls)
	}
}

func TestExecuteRetryPredicateStopsOn4xx(t *testing.T) {
	calls := 0
	notFound := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		return &contracts.RawResult{StatusCode: http.StatusNotFound},
			&transport.Error{StatusCode: http.StatusNotFound}
	})

	a := New(baseConfig(),
		WithTransport(notFound),
		WithRetryPredicate(transport.IsStatusRetryable))

	resp := a.Execute(context.Background(), &Request{Path: "/users/404"})

	if resp.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("transport calls = %d, 4xx must not be retried", calls)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("failure status = %d", resp.StatusCode)
	}
}

func TestExecutePassthroughForWrites(t *testing.T) {
	cfg := baseConfig()
	cfg.Mapping = &schema.Mapping{SourceFields: map[string]string{"a": "x"}}

	a := New(cfg, WithTransport(jsonTransport(`{"a":1,"created":true}`)))
	resp := a.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/users", Body: []byte(`{}`)})

	if !resp.Success {
		t.Fatalf("Execute failed: %s", resp.Error)
	}
	if resp.Metadata.Transform != nil {
		t.Error("writes must bypass the pipeline")
	}
	if string(resp.Body) != `{"a":1,"created":true}` {
		t.Errorf("body = %q, want raw passthrough", resp.Body)
	}
}

func TestExecuteResolveURL(t *testing.T) {
	var seen string
	capture := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		seen = req.URL
		return &contracts.RawResult{Body: []byte(`{}`), StatusCode: http.StatusOK}, nil
	})

	t.Run("path joins the endpoint", func(t *testing.T) {
		a := New(baseConfig(), WithTransport(capture))
		a.Execute(context.Background(), &Request{Path: "users/1"})
		if seen != "http://legacy.internal/users/1" {
			t.Errorf("url = %q", seen)
		}
	})

	t.Run("absolute url wins over endpoint", func(t *testing.T) {
		a := New(baseConfig(), WithTransport(capture))
		a.Execute(context.Background(), &Request{URL: "http://other.internal/x"})
		if seen != "http://other.internal/x" {
			t.Errorf("url = %q", seen)
		}
	})

	t.Run("no endpoint and no url fails without calling the transport", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Endpoint = ""
		called := false
		a := New(cfg, WithTransport(contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
			called = true
			return nil, nil
		})))

		resp := a.Execute(context.Background(), &Request{Path: "/x"})
		if resp.Success || called {
			t.Error("expected configuration failure before transport")
		}
		if resp.Error == "" {
			t.Error("expected a configuration error message")
		}
	})
}

func TestExecuteCaching(t *testing.T) {
	calls := 0
	counting := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		return &contracts.RawResult{Body: []byte(`{"n":1}`), StatusCode: http.StatusOK}, nil
	})

	cfg := baseConfig()
	cfg.CacheTTL = time.Minute

	a := New(cfg, WithTransport(counting), WithCache(newMemCache()))

	first := a.Execute(context.Background(), &Request{Path: "/users"})
	second := a.Execute(context.Background(), &Request{Path: "/users"})

	if !first.Success || !second.Success {
		t.Fatal("expected both calls to succeed")
	}
	if calls != 1 {
		t.Errorf("transport calls = %d, second call should hit the cache", calls)
	}
	if first.Metadata.CacheHit {
		t.Error("first call must not be a cache hit")
	}
	if !second.Metadata.CacheHit {
		t.Error("second call should be a cache hit")
	}
	if !value.Equal(first.Data, second.Data) {
		t.Error("cached data differs from origin data")
	}

	m := a.Metrics()
	if m.RequestsTotal != 2 || m.RequestsSuccess != 2 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestExecuteCacheSkippedForWrites(t *testing.T) {
	calls := 0
	counting := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		return &contracts.RawResult{Body: []byte(`{}`), StatusCode: http.StatusOK}, nil
	})

	cfg := baseConfig()
	cfg.CacheTTL = time.Minute

	a := New(cfg, WithTransport(counting), WithCache(newMemCache()))
	a.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/users"})
	a.Execute(context.Background(), &Request{Method: http.MethodPost, Path: "/users"})

	if calls != 2 {
		t.Errorf("transport calls = %d, writes must not be cached", calls)
	}
}

func TestExecutePublishesToSink(t *testing.T) {
	sink := sinkmem.New()

	cfg := baseConfig()
	cfg.SinkTopic = "legacy.users"

	a := New(cfg, WithTransport(jsonTransport(`{"id":1}`)), WithSink(sink))
	resp := a.Execute(context.Background(), &Request{Path: "/users/1"})

	msgs := sink.Messages("legacy.users")
	if len(msgs) != 1 {
		t.Fatalf("published messages = %d, want 1", len(msgs))
	}
	if msgs[0].ID != resp.Metadata.RequestID {
		t.Error("sink message should carry the request id")
	}
	if string(msgs[0].Body) != string(resp.Body) {
		t.Error("sink message body should be the transformed payload")
	}
}

func TestExecuteRecordsHistory(t *testing.T) {
	hist := &memHistory{}

	a := New(baseConfig(), WithTransport(jsonTransport(`{"id":1}`)), WithHistory(hist))
	a.Execute(context.Background(), &Request{Path: "/users/1"})

	failing := New(baseConfig(), WithTransport(contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		return nil, errors.New("down")
	})), WithHistory(hist))
	failing.Execute(context.Background(), &Request{Path: "/users/2"})

	entries, err := hist.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("history entries = %d, want 2", len(entries))
	}
	if !entries[0].Success || entries[0].Adapter != "legacy-users" {
		t.Errorf("success entry = %+v", entries[0])
	}
	if entries[1].Success || entries[1].Error == "" {
		t.Errorf("failure entry = %+v", entries[1])
	}
}

func TestExecuteCircuitBreakerOpens(t *testing.T) {
	calls := 0
	failing := contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
		calls++
		return nil, errors.New("down")
	})

	cb := resilience.NewCircuitBreaker(&resilience.BreakerConfig{
		Name:             "legacy",
		FailureThreshold: 2,
		ResetTimeout:     time.Minute,
	})

	cfg := baseConfig()
	cfg.RetryPolicy = fastRetry(5)

	a := New(cfg, WithTransport(failing), WithCircuitBreaker(cb))
	resp := a.Execute(context.Background(), &Request{Path: "/users"})

	if resp.Success {
		t.Fatal("expected failure")
	}
	// After two failed attempts the breaker opens and short-circuits the
	// remaining retries without touching the transport.
	if calls != 2 {
		t.Errorf("transport calls = %d, want 2 before the breaker opened", calls)
	}
	if cb.State() != resilience.BreakerOpen {
		t.Errorf("breaker state = %v, want open", cb.State())
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy endpoint", func(t *testing.T) {
		var method string
		a := New(baseConfig(), WithTransport(contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
			method = req.Method
			return &contracts.RawResult{StatusCode: http.StatusOK}, nil
		})))

		status := a.HealthCheck(context.Background())
		if !status.Healthy {
			t.Errorf("status = %+v", status)
		}
		if method != http.MethodHead {
			t.Errorf("probe method = %q, want HEAD", method)
		}
	})

	t.Run("unreachable endpoint is a single attempt", func(t *testing.T) {
		calls := 0
		a := New(baseConfig(), WithTransport(contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
			calls++
			return nil, errors.New("down")
		})))

		status := a.HealthCheck(context.Background())
		if status.Healthy {
			t.Error("expected unhealthy")
		}
		if status.Error == "" {
			t.Error("expected error detail")
		}
		if calls != 1 {
			t.Errorf("probe calls = %d, health checks must not retry", calls)
		}
	})

	t.Run("no endpoint configured", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Endpoint = ""
		a := New(cfg, WithTransport(jsonTransport(`{}`)))

		status := a.HealthCheck(context.Background())
		if status.Healthy || status.Error == "" {
			t.Errorf("status = %+v", status)
		}
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Run("infers from the fetched sample", func(t *testing.T) {
		a := New(baseConfig(), WithTransport(jsonTransport(`[{"id":1,"name":"a"},{"id":2,"name":null}]`)))

		inferred, err := a.AnalyzeEndpoint(context.Background())
		if err != nil {
			t.Fatalf("AnalyzeEndpoint: %v", err)
		}
		if len(inferred.Fields) != 2 {
			t.Fatalf("fields = %+v", inferred.Fields)
		}
		if inferred.Fields[0].Name != "id" || inferred.Fields[0].Type != schema.FieldNumber {
			t.Errorf("id field = %+v", inferred.Fields[0])
		}
		if !inferred.Fields[1].Nullable {
			t.Error("name should be nullable")
		}
	})

	t.Run("propagates transport failures", func(t *testing.T) {
		a := New(baseConfig(), WithTransport(contracts.TransportFunc(func(ctx context.Context, req *contracts.TransportRequest) (*contracts.RawResult, error) {
			return nil, errors.New("down")
		})))

		if _, err := a.AnalyzeEndpoint(context.Background()); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("requires an endpoint", func(t *testing.T) {
		cfg := baseConfig()
		cfg.Endpoint = ""
		a := New(cfg, WithTransport(jsonTransport(`{}`)))

		_, err := a.AnalyzeEndpoint(context.Background())
		var ce *ConfigurationError
		if !errors.As(err, &ce) {
			t.Errorf("error = %v, want ConfigurationError", err)
		}
	})
}

func TestMetricsAverageLatency(t *testing.T) {
	var s metricsState
	s.recordSuccess(100*time.Millisecond, 10)
	s.recordSuccess(300*time.Millisecond, 20)

	m := s.snapshot()
	if m.AvgLatency != 200*time.Millisecond {
		t.Errorf("avg latency = %v, want 200ms", m.AvgLatency)
	}
	if m.BytesProcessed != 30 {
		t.Errorf("bytes = %d", m.BytesProcessed)
	}
}
