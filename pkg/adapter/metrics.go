package adapter

import (
	"sync"
	"time"
)

// Metrics are per-instance running counters, initialized to zero at
// construction and mutated only by that instance's Execute calls.
type Metrics struct {
	RequestsTotal   int64         `json:"requestsTotal"`
	RequestsSuccess int64         `json:"requestsSuccess"`
	RequestsFailed  int64         `json:"requestsFailed"`
	AvgLatency      time.Duration `json:"avgLatency"`
	BytesProcessed  int64         `json:"bytesProcessed"`
}

// metricsState guards the read-modify-write updates (the running
// average in particular) against concurrent Execute callers.
type metricsState struct {
	mu sync.Mutex
	m  Metrics
}

func (s *metricsState) recordRequest() {
	s.mu.Lock()
	s.m.RequestsTotal++
	s.mu.Unlock()
}

func (s *metricsState) recordSuccess(latency time.Duration, bytes int) {
	s.mu.Lock()
	s.m.RequestsSuccess++
	n := s.m.RequestsSuccess
	s.m.AvgLatency = time.Duration((int64(s.m.AvgLatency)*(n-1) + int64(latency)) / n)
	s.m.BytesProcessed += int64(bytes)
	s.mu.Unlock()
}

func (s *metricsState) recordFailure() {
	s.mu.Lock()
	s.m.RequestsFailed++
	s.mu.Unlock()
}

func (s *metricsState) snapshot() Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m
}
