// internal/workers/application/validate-application/config.go
package validateapplication

import "time"

type Config struct {
	Timeout time.Duration
	// CandidateLimit caps the organization search used for ambiguity warnings.
	CandidateLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:        15 * time.Second,
		CandidateLimit: 5,
	}
}
