package redisstore

import "time"

// Config holds Redis connection and behavior settings.
type Config struct {
	// URL is the Redis connection URL (e.g. redis://localhost:6379).
	URL string

	PoolSize     int
	MinIdleConns int

	// ConnectionTTL bounds how long an orphaned connection record can
	// outlive a disconnect that was never delivered.
	ConnectionTTL time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           "redis://localhost:6379",
		PoolSize:      10,
		MinIdleConns:  2,
		ConnectionTTL: 24 * time.Hour,
	}
}
