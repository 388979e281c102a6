// internal/workers/application/calculate-application-fee/config.go
package calculateapplicationfee

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
