// internal/workers/application/lookup-participants/config.go
package lookupparticipants

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		DefaultLimit: 20,
		MaxLimit:     100,
	}
}
