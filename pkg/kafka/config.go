package kafka

import (
	"fmt"
	"time"
)

// ProducerConfig describes the writer shared by the bar relay and the signal
// publisher. Both key messages by symbol and the writer always hashes by key,
// so bars and signals of one symbol stay ordered within a partition.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int

	// Linger is how long the writer waits to fill a batch.
	Linger     time.Duration
	BatchSize  int
	BatchBytes int

	WriteTimeout time.Duration
	ReadTimeout  time.Duration

	// Async returns from Publish before the broker acknowledges.
	Async bool
}

// DefaultProducerConfig returns acks=all gzip batches of up to 100 bars.
func DefaultProducerConfig() ProducerConfig {
	return ProducerConfig{
		RequiredAcks: -1,
		Compression:  "gzip",
		MaxAttempts:  3,
		Linger:       100 * time.Millisecond,
		BatchSize:    100,
		BatchBytes:   1 << 20,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
	}
}

// Validate checks the fields NewProducer depends on.
func (c ProducerConfig) Validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("brokers are required")
	}
	switch c.RequiredAcks {
	case -1, 0, 1:
	default:
		return fmt.Errorf("invalid required_acks %d", c.RequiredAcks)
	}
	switch c.Compression {
	case "gzip", "snappy", "lz4", "zstd":
	default:
		return fmt.Errorf("unsupported compression %q", c.Compression)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	return nil
}
