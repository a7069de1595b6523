package fileref_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gobeaver/fileref"
	"github.com/gobeaver/fileref/driver/memory"
	"github.com/stretchr/testify/require"
)

// testModTime is the modification time of every fixture file.
var testModTime = time.UnixMilli(1700000000000)

// newTestHost returns a host with a single memory source named "uploads"
// holding files (path to content).
func newTestHost(t *testing.T, files map[string]string, opts ...fileref.HostOption) (*fileref.Host, *memory.Adapter) {
	t.Helper()

	src := memory.New()
	for p, content := range files {
		writeFile(t, src, p, content)
	}

	opts = append([]fileref.HostOption{fileref.WithSource("uploads", src)}, opts...)
	return fileref.NewHost(opts...), src
}

func writeFile(t *testing.T, src *memory.Adapter, p, content string, opts ...memory.WriteOption) {
	t.Helper()
	opts = append([]memory.WriteOption{memory.WithModTime(testModTime)}, opts...)
	require.NoError(t, src.Write(context.Background(), p, strings.NewReader(content), opts...))
}

// selectOne selects key on the "uploads" source and returns the serialized
// handle.
func selectOne(t *testing.T, host *fileref.Host, key string) []byte {
	t.Helper()
	sel, err := host.Select(context.Background(), "uploads", key)
	require.NoError(t, err)
	require.Equal(t, 1, sel.Len())
	return sel.Files[0]
}
