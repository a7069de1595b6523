package fileref_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/gobeaver/fileref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_EncodeIsVerbatim(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"docs/a.txt": "hello"})

	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "host output",
			input: string(selectOne(t, host, "docs/a.txt")),
		},
		{
			name: "whitespace and field order",
			input: `{ "lastModified": 1700000000000, "size": 5,
				"name": "a.txt", "key": "docs/a.txt", "source": "uploads", "kind": "file" }`,
		},
		{
			name:  "unknown fields",
			input: `{"kind":"file","source":"uploads","key":"docs/a.txt","name":"a.txt","type":"text/plain","size":5,"lastModified":1700000000000,"webkitRelativePath":"docs/a.txt","x":{"nested":[1,2]}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := host.Decode([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.input, string(f.Encode()))

			// Encoding twice gives the same bytes and does not alias.
			first := f.Encode()
			first[0] = 'X'
			assert.Equal(t, tt.input, string(f.Encode()))

			again, err := host.Decode(f.Encode())
			require.NoError(t, err)
			assert.True(t, f.Equal(again))
		})
	}
}

func TestFile_DecodeCopiesInput(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"a.txt": "hello"})

	input := selectOne(t, host, "a.txt")
	want := string(input)

	f, err := host.Decode(input)
	require.NoError(t, err)

	for i := range input {
		input[i] = ' '
	}
	assert.Equal(t, want, string(f.Encode()))
}

func TestFile_DecodeRejectsNonFiles(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"a.txt": "hello"})

	tests := []struct {
		name    string
		input   string
		field   string
		wantErr error
	}{
		{name: "number", input: `42`, wantErr: fileref.ErrNotAFile},
		{name: "string", input: `"a.txt"`, wantErr: fileref.ErrNotAFile},
		{name: "null", input: `null`, wantErr: fileref.ErrNotAFile},
		{name: "array", input: `[]`, wantErr: fileref.ErrNotAFile},
		{name: "invalid json", input: `{"kind":`, wantErr: fileref.ErrNotAFile},
		{name: "empty object", input: `{}`, field: "kind", wantErr: fileref.ErrNotAFile},
		{
			name:    "wrong kind",
			input:   `{"kind":"blob","source":"uploads","key":"a.txt","name":"a.txt","size":5,"lastModified":0}`,
			field:   "kind",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "missing name",
			input:   `{"kind":"file","source":"uploads","key":"a.txt","size":5,"lastModified":0}`,
			field:   "name",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "size as string",
			input:   `{"kind":"file","source":"uploads","key":"a.txt","name":"a.txt","size":"5","lastModified":0}`,
			field:   "size",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "fractional size",
			input:   `{"kind":"file","source":"uploads","key":"a.txt","name":"a.txt","size":5.5,"lastModified":0}`,
			field:   "size",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "negative size",
			input:   `{"kind":"file","source":"uploads","key":"a.txt","name":"a.txt","size":-1,"lastModified":0}`,
			field:   "size",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "null type",
			input:   `{"kind":"file","source":"uploads","key":"a.txt","name":"a.txt","type":null,"size":5,"lastModified":0}`,
			field:   "type",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "empty key",
			input:   `{"kind":"file","source":"uploads","key":"","name":"a.txt","size":5,"lastModified":0}`,
			field:   "key",
			wantErr: fileref.ErrNotAFile,
		},
		{
			name:    "unknown source",
			input:   `{"kind":"file","source":"elsewhere","key":"a.txt","name":"a.txt","size":5,"lastModified":0}`,
			field:   "source",
			wantErr: fileref.ErrUnknownSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := host.Decode([]byte(tt.input))
			require.Error(t, err)
			assert.False(t, f.Valid())
			assert.ErrorIs(t, err, tt.wantErr)

			var de *fileref.DecodeError
			require.True(t, errors.As(err, &de), "expected *DecodeError, got %T", err)
			assert.Equal(t, -1, de.Index)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestFile_Metadata(t *testing.T) {
	host, src := newTestHost(t, map[string]string{
		"docs/report.csv": "a,b\n1,2\n",
		"empty.txt":       "",
	})
	writeFile(t, src, "blob", "\x00\x01")

	t.Run("attributes come from the handle", func(t *testing.T) {
		f, err := host.Decode(selectOne(t, host, "docs/report.csv"))
		require.NoError(t, err)

		assert.True(t, f.Valid())
		assert.Equal(t, "report.csv", f.Name())
		assert.Equal(t, "text/csv", f.MIME())
		assert.Equal(t, int64(8), f.Size())
		assert.True(t, f.LastModified().Equal(testModTime))

		hd := f.Handle()
		require.NotNil(t, hd)
		assert.Same(t, hd, f.Handle())
		assert.Equal(t, "uploads", hd.Source())
		assert.Equal(t, "docs/report.csv", hd.Key())
		assert.Equal(t, "uploads:docs/report.csv", hd.String())
	})

	t.Run("empty MIME is kept empty", func(t *testing.T) {
		f, err := host.Decode(selectOne(t, host, "blob"))
		require.NoError(t, err)
		assert.Equal(t, "", f.MIME())
	})

	t.Run("zero size", func(t *testing.T) {
		f, err := host.Decode(selectOne(t, host, "empty.txt"))
		require.NoError(t, err)
		assert.Equal(t, int64(0), f.Size())

		text, err := f.Text(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "", text)
	})

	t.Run("missing type decodes as empty", func(t *testing.T) {
		f, err := host.Decode([]byte(`{"kind":"file","source":"uploads","key":"blob","name":"blob","size":2,"lastModified":1700000000000}`))
		require.NoError(t, err)
		assert.Equal(t, "", f.MIME())
	})
}

func TestFile_ZeroValue(t *testing.T) {
	var f fileref.File
	ctx := context.Background()

	assert.False(t, f.Valid())
	assert.Nil(t, f.Handle())
	assert.Equal(t, "", f.Name())
	assert.Equal(t, "", f.MIME())
	assert.Equal(t, int64(0), f.Size())
	assert.True(t, f.LastModified().IsZero())
	assert.Nil(t, f.Encode())

	_, err := f.Text(ctx)
	assert.ErrorIs(t, err, fileref.ErrInvalidFile)
	_, err = f.Bytes(ctx)
	assert.ErrorIs(t, err, fileref.ErrInvalidFile)
	_, err = f.DataURL(ctx)
	assert.ErrorIs(t, err, fileref.ErrInvalidFile)

	data, err := json.Marshal(f)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestFile_ReadContent(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"hello.txt": "Hello, World!"})
	ctx := context.Background()

	f, err := host.Decode(selectOne(t, host, "hello.txt"))
	require.NoError(t, err)

	text, err := f.Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", text)

	data, err := f.Bytes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello, World!"), data)

	url, err := f.DataURL(ctx)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^data:text/plain;base64,[A-Za-z0-9+/=]+$`), url)

	mimeType, decoded, err := fileref.ParseDataURL(url)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mimeType)
	assert.Equal(t, "Hello, World!", string(decoded))
}

func TestFile_DataURLWithoutType(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"blob": "\x00\xff"})

	f, err := host.Decode(selectOne(t, host, "blob"))
	require.NoError(t, err)

	url, err := f.DataURL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "data:application/octet-stream;base64,AP8=", url)
}

func TestFile_ConcurrentReads(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"shared.txt": "shared content"})

	f, err := host.Decode(selectOne(t, host, "shared.txt"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text, err := f.Text(context.Background())
			if err != nil {
				errs <- err
				return
			}
			if text != "shared content" {
				errs <- errors.New("unexpected content: " + text)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestFile_JSON(t *testing.T) {
	host, _ := newTestHost(t, map[string]string{"a.txt": "hello"})
	fileref.SetDefault(host)
	t.Cleanup(fileref.Reset)

	type message struct {
		ID   string         `json:"id"`
		File fileref.File   `json:"file"`
		More []fileref.File `json:"more"`
	}

	raw := selectOne(t, host, "a.txt")
	in := message{ID: "job-1"}
	var err error
	in.File, err = host.Decode(raw)
	require.NoError(t, err)

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), string(raw))
	assert.Contains(t, string(data), `"more":null`)

	var out message
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "job-1", out.ID)
	assert.True(t, out.File.Equal(in.File))
	assert.Equal(t, "a.txt", out.File.Name())
	assert.Nil(t, out.More)

	t.Run("null leaves the file unset", func(t *testing.T) {
		var m message
		require.NoError(t, json.Unmarshal([]byte(`{"id":"x","file":null}`), &m))
		assert.False(t, m.File.Valid())
	})

	t.Run("non-file fails", func(t *testing.T) {
		var m message
		err := json.Unmarshal([]byte(`{"id":"x","file":{"kind":"dir"}}`), &m)
		require.Error(t, err)
		assert.True(t, fileref.IsDecodeError(err))
	})
}
