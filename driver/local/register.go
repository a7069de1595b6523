package local

import "github.com/gobeaver/fileref"

func init() {
	fileref.RegisterDriver("local", func(cfg *fileref.Config) (fileref.FileReader, error) {
		return New(cfg.LocalBasePath)
	})
}
