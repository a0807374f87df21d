// Package memory provides an in-memory Sink for testing and
// development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// Sink buffers published messages per topic.
type Sink struct {
	mu     sync.RWMutex
	topics map[string][]*contracts.SinkMessage
	closed bool
}

// New creates an in-memory sink.
func New() *Sink {
	return &Sink{topics: make(map[string][]*contracts.SinkMessage)}
}

// Publish appends the message to the topic buffer.
func (s *Sink) Publish(ctx context.Context, topic string, msg *contracts.SinkMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("memory sink: closed")
	}
	s.topics[topic] = append(s.topics[topic], msg)
	return nil
}

// Ping reports whether the sink accepts messages.
func (s *Sink) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("memory sink: closed")
	}
	return nil
}

// Close stops accepting messages. Buffered messages stay readable.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Messages returns the messages published to a topic.
func (s *Sink) Messages(topic string) []*contracts.SinkMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*contracts.SinkMessage, len(s.topics[topic]))
	copy(out, s.topics[topic])
	return out
}
