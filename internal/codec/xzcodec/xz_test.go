package xzcodec

import (
	"bytes"
	"io"
	"testing"
)

func TestCodec_Extension(t *testing.T) {
	c := New()
	if got := c.Extension(); got != "xz" {
		t.Errorf("Extension() = %q, want %q", got, "xz")
	}
}

// Parallel xz output is a concatenation of independent streams; the
// reader must consume it as a single logical stream.
func TestCodec_RoundTrip_Workers(t *testing.T) {
	original := bytes.Repeat([]byte("@read/1\nACGTNACGTN\n+\nFFFFFFFFFF\n"), 10000)

	for _, workers := range []int{1, 2, 4} {
		c := New(WithWorkers(workers), WithBlockSize(32*1024))

		var compressed bytes.Buffer
		writer, err := c.Writer(&compressed)
		if err != nil {
			t.Fatalf("workers=%d: Writer() error = %v", workers, err)
		}
		if _, err := writer.Write(original); err != nil {
			t.Fatalf("workers=%d: Write() error = %v", workers, err)
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("workers=%d: Close() error = %v", workers, err)
		}

		reader, err := c.Reader(&compressed)
		if err != nil {
			t.Fatalf("workers=%d: Reader() error = %v", workers, err)
		}
		decompressed, err := io.ReadAll(reader)
		if err != nil {
			t.Fatalf("workers=%d: ReadAll() error = %v", workers, err)
		}
		reader.Close()

		if !bytes.Equal(decompressed, original) {
			t.Errorf("workers=%d: round-trip does not reproduce input", workers)
		}
	}
}
