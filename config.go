package fileref

import (
	"github.com/gobeaver/beaver-kit/config"
)

type Config struct {
	// Driver backing the default source (local, memory)
	Driver string `env:"FILEREF_DRIVER,default:local"`

	// Name the default source is mounted under. Serialized files carry it.
	Source string `env:"FILEREF_SOURCE,default:default"`

	// Local driver configuration
	LocalBasePath string `env:"FILEREF_LOCAL_BASE_PATH,default:."`

	// Memory driver configuration
	MemoryMaxSize int64 `env:"FILEREF_MEMORY_MAX_SIZE,default:0"` // 0 = unlimited

	// Reject reads of files modified after selection
	VerifySnapshot bool `env:"FILEREF_VERIFY_SNAPSHOT,default:true"`

	// Largest file content reads will load, in bytes
	MaxReadSize int64 `env:"FILEREF_MAX_READ_SIZE,default:0"` // 0 = unlimited

	// Log level (debug, info, warn, error); empty disables logging
	LogLevel string `env:"FILEREF_LOG_LEVEL"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
