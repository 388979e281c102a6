// internal/workers/application/submit-application/config.go
package submitapplication

import "time"

type Config struct {
	Timeout time.Duration
	// Tolerance is the largest accepted gap between the submitted and
	// the recalculated fee.
	Tolerance float64
	// IdempotencyTTL is how long a stored result is replayed for its token.
	IdempotencyTTL time.Duration
	// InFlightTTL bounds how long a crashed attempt can hold a token.
	InFlightTTL time.Duration
	KeyPrefix   string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        20 * time.Second,
		Tolerance:      0.01,
		IdempotencyTTL: 24 * time.Hour,
		InFlightTTL:    time.Minute,
		KeyPrefix:      "admissions",
	}
}
