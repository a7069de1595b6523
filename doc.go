// Package fileref passes file references across serialization boundaries
// without turning them into something else on the way.
//
// A host environment (a [Host]) owns named content sources. When files are
// selected, the host emits a selection event whose entries are serialized
// handles. Anything on the far side of a message boundary (another goroutine,
// process, or service) decodes those entries into [File] values: opaque
// envelopes pairing the native [Handle] with the exact bytes it was decoded
// from. Encoding a File returns those bytes unchanged, so a File can be
// forwarded any number of times and still decode to the same handle.
//
// # Sources
//
// Sources implement [FileReader]. Two drivers ship with the module:
//
//   - Local filesystem (github.com/gobeaver/fileref/driver/local)
//   - In-memory (github.com/gobeaver/fileref/driver/memory)
//
// # Basic Usage
//
//	uploads := memory.New()
//	host := fileref.NewHost(fileref.WithSource("uploads", uploads))
//
//	// Selecting side
//	sel, err := host.Select(ctx, "uploads", "report.csv")
//	msg, err := sel.Marshal()
//
//	// Receiving side
//	file, err := host.DecodeFirst(msg)
//	fmt.Println(file.Name(), file.MIME(), file.Size())
//	text, err := file.Text(ctx)
//
// Content is read only when Text, Bytes or DataURL is called. Before every
// read the host checks that the file still matches the size and modification
// time captured at selection; otherwise the read fails with
// [ErrSnapshotChanged].
//
// # Messages
//
// File implements json.Marshaler and json.Unmarshaler, so it can be embedded
// in larger messages. Unmarshaling uses the default host (see [Default] and
// [SetDefault]):
//
//	type job struct {
//	    ID   string       `json:"id"`
//	    File fileref.File `json:"file"`
//	}
//
// # Selecting by Type
//
// [Selector] values filter what [Host.SelectMatching] offers, with the same
// tokens as a file input's accept attribute:
//
//	sel, err := host.SelectMatching(ctx, "uploads", "/photos",
//	    fileref.And(fileref.Accept("image/*", ".heic"), fileref.MaxSize(10<<20)),
//	    true)
//
// # Error Handling
//
// Values that are not serialized files fail with a [*DecodeError] wrapping
// [ErrNotAFile]; content reads fail with a [*PathError]:
//
//	_, err := host.DecodeList(data)
//	var de *fileref.DecodeError
//	if errors.As(err, &de) {
//	    fmt.Printf("element %d, field %s\n", de.Index, de.Field)
//	}
//
// # Configuration
//
// The default host can be configured via environment variables with the
// BEAVER_FILEREF_ prefix, or programmatically via the [Config] struct:
//
//	cfg := fileref.Config{
//	    Driver:        "local",
//	    Source:        "uploads",
//	    LocalBasePath: "/srv/uploads",
//	}
//	host, err := fileref.New(&cfg)
package fileref
