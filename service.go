package fileref

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gobeaver/beaver-kit/config"
)

// Global instance
var (
	defaultHost *Host
	defaultOnce sync.Once
	defaultErr  error
	defaultMu   sync.RWMutex
)

// Builder provides a way to create Host instances with custom prefixes
type Builder struct {
	prefix string
}

// WithPrefix creates a new Builder with the specified prefix
func WithPrefix(prefix string) *Builder {
	return &Builder{prefix: prefix}
}

// Init initializes the global Host using the builder's prefix
func (b *Builder) Init() error {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return err
	}
	return Init(cfg)
}

// New creates a new Host using the builder's prefix
func (b *Builder) New() (*Host, error) {
	cfg := &Config{}
	if err := config.Load(cfg, config.LoadOptions{Prefix: b.prefix}); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Init initializes the global host
func Init(configs ...*Config) error {
	defaultOnce.Do(func() {
		var cfg *Config
		if len(configs) > 0 {
			cfg = configs[0]
		} else {
			cfg, defaultErr = GetConfig()
			if defaultErr != nil {
				return
			}
		}

		var h *Host
		h, defaultErr = New(cfg)

		defaultMu.Lock()
		defaultHost = h
		defaultMu.Unlock()
	})

	return defaultErr
}

// New creates a new Host with given config. The driver named by the config
// must be registered, usually by importing its package.
func New(cfg *Config) (*Host, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	fs, err := CreateDriver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	log, err := newLevelLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	return NewHost(
		WithSource(cfg.Source, fs),
		WithSnapshotVerification(cfg.VerifySnapshot),
		WithMaxReadSize(cfg.MaxReadSize),
		WithLogger(log),
	), nil
}

// validateConfig checks configuration validity
func validateConfig(cfg *Config) error {
	if cfg.Driver == "" {
		return errors.New("driver is required")
	}
	if cfg.Source == "" {
		return errors.New("source name is required")
	}
	if cfg.MaxReadSize < 0 {
		return errors.New("max read size must not be negative")
	}

	switch cfg.Driver {
	case "local":
		if cfg.LocalBasePath == "" {
			return errors.New("local base path is required for local driver")
		}
	case "memory":
		if cfg.MemoryMaxSize < 0 {
			return errors.New("memory max size must not be negative")
		}
	default:
		if !driverRegistered(cfg.Driver) {
			return fmt.Errorf("unknown driver: %s", cfg.Driver)
		}
	}

	return nil
}

// Default returns the global host, initializing it from the environment if
// needed.
func Default() (*Host, error) {
	defaultMu.RLock()
	h := defaultHost
	defaultMu.RUnlock()
	if h != nil {
		return h, nil
	}

	if err := Init(); err != nil {
		return nil, err
	}

	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultHost == nil {
		return nil, errors.New("default host not initialized")
	}
	return defaultHost, nil
}

// SetDefault installs h as the global host.
func SetDefault(h *Host) {
	defaultMu.Lock()
	defaultHost = h
	defaultMu.Unlock()
}

// NewFromEnv creates instance from environment variables (convenience constructor)
func NewFromEnv() (*Host, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// Reset clears the global instance (for testing)
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHost = nil
	defaultOnce = sync.Once{}
	defaultErr = nil
}
