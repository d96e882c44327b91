package nalssi

import (
	"fmt"
	"time"

	"github.com/mrchypark/nalssi/pkg/archive"
	"github.com/mrchypark/nalssi/pkg/store"
	"github.com/mrchypark/nalssi/pkg/transport"
)

// ConfigError represents an error that occurs during the configuration process.
type ConfigError struct {
	Message string
}

// Error returns the error message for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("nalssi: configuration error: %s", e.Message)
}

// Config holds all the configurable settings for the weather client.
// Option functions modify fields within this struct.
type Config struct {
	APIKey    string
	Host      string
	UserAgent string

	Transport transport.Capability
	ChunkSize int

	// WaitTimeout bounds the blocking wait on the transport handle.
	// Zero means the wait is unbounded.
	WaitTimeout time.Duration

	CacheStore    store.Store
	CacheFreshFor time.Duration

	Archiver *archive.Archiver

	WorkerStrategy   string
	WorkerPoolSize   int
	WorkerQueueSize  int
	WorkerJobTimeout time.Duration

	ShutdownTimeout time.Duration
}

// Option is a function type that modifies the Config.
type Option func(cfg *Config) error

// WithAPIKey sets the OpenWeather credential explicitly. When unset, the
// client falls back to the OPENWEATHER_API_KEY environment variable at
// call time.
func WithAPIKey(key string) Option {
	return func(cfg *Config) error {
		cfg.APIKey = key
		return nil
	}
}

// WithHost overrides the OpenWeather endpoint authority.
func WithHost(host string) Option {
	return func(cfg *Config) error {
		if host == "" {
			return &ConfigError{"host cannot be empty"}
		}
		cfg.Host = host
		return nil
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(cfg *Config) error {
		if ua == "" {
			return &ConfigError{"user agent cannot be empty"}
		}
		cfg.UserAgent = ua
		return nil
	}
}

// WithTransport sets the transport capability the pipeline drives.
// If not set, the net/http driver is used.
func WithTransport(cap transport.Capability) Option {
	return func(cfg *Config) error {
		if cap == nil {
			return &ConfigError{"transport capability cannot be nil"}
		}
		cfg.Transport = cap
		return nil
	}
}

// WithChunkSize sets the bounded read size for body streaming.
func WithChunkSize(size int) Option {
	return func(cfg *Config) error {
		if size <= 0 {
			return &ConfigError{"chunk size must be positive"}
		}
		cfg.ChunkSize = size
		return nil
	}
}

// WithWaitTimeout sets the deadline for the blocking transport wait.
// Passing zero preserves the legacy unbounded wait.
func WithWaitTimeout(timeout time.Duration) Option {
	return func(cfg *Config) error {
		if timeout < 0 {
			return &ConfigError{"wait timeout cannot be negative"}
		}
		cfg.WaitTimeout = timeout
		return nil
	}
}

// WithCache enables the optional response cache. A fresh entry is served
// without a network step; a stale entry is served while a background
// refresh is scheduled.
func WithCache(s store.Store, freshFor time.Duration) Option {
	return func(cfg *Config) error {
		if s == nil {
			return &ConfigError{"cache store cannot be nil"}
		}
		if freshFor <= 0 {
			return &ConfigError{"cache freshness duration must be positive"}
		}
		cfg.CacheStore = s
		cfg.CacheFreshFor = freshFor
		return nil
	}
}

// WithArchive enables raw payload archiving after each successful fetch.
func WithArchive(a *archive.Archiver) Option {
	return func(cfg *Config) error {
		if a == nil {
			return &ConfigError{"archiver cannot be nil"}
		}
		cfg.Archiver = a
		return nil
	}
}

// WithWorker specifies the worker strategy and detailed settings for
// background tasks (cache refresh, archive uploads). If not set,
// reasonable defaults ("pool", size 2) are used.
func WithWorker(strategyType string, poolSize int, queueSize int, jobTimeout time.Duration) Option {
	return func(cfg *Config) error {
		if strategyType == "" {
			return &ConfigError{"worker strategy type cannot be empty"}
		}
		if poolSize <= 0 {
			return &ConfigError{"worker pool size must be positive"}
		}
		if jobTimeout <= 0 {
			return &ConfigError{"worker job timeout must be positive"}
		}
		cfg.WorkerStrategy = strategyType
		cfg.WorkerPoolSize = poolSize
		cfg.WorkerQueueSize = queueSize
		cfg.WorkerJobTimeout = jobTimeout
		return nil
	}
}

// WithShutdownTimeout sets the timeout for graceful shutdown of the client.
func WithShutdownTimeout(timeout time.Duration) Option {
	return func(cfg *Config) error {
		if timeout <= 0 {
			return &ConfigError{"shutdown timeout must be positive"}
		}
		cfg.ShutdownTimeout = timeout
		return nil
	}
}
