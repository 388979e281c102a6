// internal/workers/application/lookup-organizations/config.go
package lookuporganizations

import "time"

type Config struct {
	Timeout time.Duration
	Limit   int
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
		Limit:   10,
	}
}
