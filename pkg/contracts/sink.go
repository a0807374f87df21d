package contracts

import (
	"context"
	"time"
)

// Sink receives transformed payloads after a successful execution.
// Implementations can be Kafka, NATS, an in-memory buffer, etc.
type Sink interface {
	Publish(ctx context.Context, topic string, msg *SinkMessage) error
	Ping(ctx context.Context) error
	Close() error
}

// SinkMessage is a single published payload.
type SinkMessage struct {
	// ID correlates this message with the originating request
	ID string

	// Key is the partition/routing key, may be empty
	Key []byte

	Body      []byte
	Headers   map[string]string
	Timestamp time.Time
}
