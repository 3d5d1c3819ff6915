package kafka

import "time"

// Config holds Kafka connection parameters.
type Config struct {
	Brokers []string

	// ClientID identifies this producer to the brokers.
	ClientID string

	// WriteTimeout bounds a single publish. Zero uses kafka-go's default.
	WriteTimeout time.Duration

	// SASL configuration for authentication.
	SASLEnabled   bool
	SASLMechanism string // "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string

	// TLS enables TLS for Kafka connections.
	TLS bool
}

// Enabled reports whether any broker is configured.
func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}
