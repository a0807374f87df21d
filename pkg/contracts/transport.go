package contracts

import "context"

// Transport performs a single HTTP round trip against a remote endpoint.
// Implementations decide what counts as a failure (timeouts, connection
// errors, non-2xx statuses); the retry layer treats all failures alike
// unless given a predicate.
type Transport interface {
	Do(ctx context.Context, req *TransportRequest) (*RawResult, error)
}

// TransportRequest describes one outbound request.
type TransportRequest struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        []byte
}

// RawResult is the untransformed response from the remote endpoint.
type RawResult struct {
	Body       []byte
	StatusCode int
	Headers    map[string]string
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, req *TransportRequest) (*RawResult, error)

func (f TransportFunc) Do(ctx context.Context, req *TransportRequest) (*RawResult, error) {
	return f(ctx, req)
}
