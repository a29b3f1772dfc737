package dispatcher

import (
	"time"

	"fanout/internal/config"
)

// MemoryConfig holds configuration for the in-memory dispatcher.
type MemoryConfig struct {
	BufferSize     int           // pending events buffer (default: 1000)
	Workers        int           // concurrent delivery goroutines (default: 4)
	HTTPTimeout    time.Duration // per-request timeout (default: 10s)
	MaxRetries     int           // retries after the first attempt (default: 3)
	InitialBackoff time.Duration // delay before the first retry (default: 100ms)
	MaxBackoff     time.Duration // cap on the retry delay (default: 5s)
}

// LoadConfigFromEnv loads dispatcher configuration from environment variables.
func LoadConfigFromEnv() MemoryConfig {
	cfg := MemoryConfig{
		BufferSize:     config.GetIntEnv("FANOUT_DISPATCHER_BUFFER_SIZE", 1000),
		Workers:        config.GetIntEnv("FANOUT_DISPATCHER_WORKERS", 4),
		HTTPTimeout:    config.GetDurationEnv("FANOUT_DISPATCHER_HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:     config.GetIntEnv("FANOUT_DISPATCHER_MAX_RETRIES", 3),
		InitialBackoff: config.GetDurationEnv("FANOUT_DISPATCHER_INITIAL_BACKOFF", 100*time.Millisecond),
		MaxBackoff:     config.GetDurationEnv("FANOUT_DISPATCHER_MAX_BACKOFF", 5*time.Second),
	}
	return cfg.withDefaults()
}

// withDefaults fills in zero values with defaults. MaxRetries is kept when
// zero so retries can be disabled.
func (c MemoryConfig) withDefaults() MemoryConfig {
	if c.BufferSize <= 0 {
		c.BufferSize = 1000
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = 100 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 5 * time.Second
	}
	if c.MaxBackoff < c.InitialBackoff {
		c.MaxBackoff = c.InitialBackoff
	}
	return c
}
