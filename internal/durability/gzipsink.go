package durability

import (
	"os"

	"github.com/klauspost/compress/gzip"
)

// GzipSink wraps a target file in a gzip container. The uncompressed bytes still flow through the
// hash accumulator and the chunk loop unchanged; only the physical bytes
// landing on disk differ.
type GzipSink struct {
	f  *os.File
	zw *gzip.Writer
}

// NewGzipSink builds a sink writing the gzip container to f.
func NewGzipSink(f *os.File) *GzipSink {
	return &GzipSink{f: f, zw: gzip.NewWriter(f)}
}

func (g *GzipSink) Write(p []byte) (int, error) {
	return g.zw.Write(p)
}

// Flush pushes any buffered compressed bytes to the underlying file
// without closing the stream, used by the periodic fsync cadence.
func (g *GzipSink) Flush() error {
	return g.zw.Flush()
}

// Close writes the gzip footer. It does not close the underlying file —
// the caller still owns that handle.
func (g *GzipSink) Close() error {
	return g.zw.Close()
}
