// Package kafka provides a Kafka implementation of the bridgekit Sink
// interface using Sarama. Transformed payloads are published to a topic
// after each successful execution.
//
// Usage:
//
//	driver, err := kafka.NewDriver(&kafka.Config{
//	    Brokers: []string{"localhost:9092"},
//	})
//	a := adapter.New(cfg, adapter.WithSink(driver))
package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// Driver implements contracts.Sink using a Sarama sync producer.
type Driver struct {
	config   *Config
	producer sarama.SyncProducer

	mu     sync.Mutex
	closed bool
}

// Config for the Kafka sink.
type Config struct {
	Brokers  []string
	ClientID string

	RequiredAcks    sarama.RequiredAcks
	Compression     sarama.CompressionCodec
	MaxMessageBytes int
	DialTimeout     time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Brokers:         []string{"localhost:9092"},
		ClientID:        "bridgekit-sink",
		RequiredAcks:    sarama.WaitForAll,
		Compression:     sarama.CompressionSnappy,
		MaxMessageBytes: 1024 * 1024, // 1MB
		DialTimeout:     10 * time.Second,
	}
}

// NewDriver creates a Kafka sink and connects the producer.
func NewDriver(cfg *Config) (*Driver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	sc := sarama.NewConfig()
	sc.ClientID = cfg.ClientID
	sc.Producer.Return.Successes = true
	sc.Producer.RequiredAcks = cfg.RequiredAcks
	sc.Producer.Compression = cfg.Compression
	if cfg.MaxMessageBytes > 0 {
		sc.Producer.MaxMessageBytes = cfg.MaxMessageBytes
	}
	if cfg.DialTimeout > 0 {
		sc.Net.DialTimeout = cfg.DialTimeout
	}

	producer, err := sarama.NewSyncProducer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("kafka sink: %w", err)
	}

	return &Driver{config: cfg, producer: producer}, nil
}

// NewDriverWithProducer wraps an existing producer (tests, custom setup).
func NewDriverWithProducer(producer sarama.SyncProducer) *Driver {
	return &Driver{config: DefaultConfig(), producer: producer}
}

// Publish sends one message to the topic.
func (d *Driver) Publish(ctx context.Context, topic string, msg *contracts.SinkMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	pm := &sarama.ProducerMessage{
		Topic:     topic,
		Value:     sarama.ByteEncoder(msg.Body),
		Timestamp: msg.Timestamp,
	}
	if len(msg.Key) > 0 {
		pm.Key = sarama.ByteEncoder(msg.Key)
	}
	for k, v := range msg.Headers {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}
	if msg.ID != "" {
		pm.Headers = append(pm.Headers, sarama.RecordHeader{
			Key:   []byte("request-id"),
			Value: []byte(msg.ID),
		})
	}

	if _, _, err := d.producer.SendMessage(pm); err != nil {
		return fmt.Errorf("kafka sink: publish to %s: %w", topic, err)
	}
	return nil
}

// Ping reports whether the producer is usable.
func (d *Driver) Ping(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return fmt.Errorf("kafka sink: closed")
	}
	return nil
}

// Close shuts down the producer.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.producer.Close()
}
