package memory

import "github.com/gobeaver/fileref"

func init() {
	fileref.RegisterDriver("memory", func(cfg *fileref.Config) (fileref.FileReader, error) {
		return New(Config{MaxSize: cfg.MemoryMaxSize}), nil
	})
}
