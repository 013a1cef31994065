package zstdcodec

import (
	"bytes"
	"io"
	"testing"
)

func TestCodec_Extension(t *testing.T) {
	c := New()
	if got := c.Extension(); got != "zst" {
		t.Errorf("Extension() = %q, want %q", got, "zst")
	}
}

func TestCodec_RoundTrip_Workers(t *testing.T) {
	original := bytes.Repeat([]byte(">r1\nACGTACGTACGTACGT\n"), 50000)

	for _, workers := range []int{1, 2, 4} {
		c := New(WithWorkers(workers))

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

func TestCodec_RoundTrip_Empty(t *testing.T) {
	c := New()

	var compressed bytes.Buffer
	writer, err := c.Writer(&compressed)
	if err != nil {
		t.Fatalf("Writer() error = %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reader, err := c.Reader(&compressed)
	if err != nil {
		t.Fatalf("Reader() error = %v", err)
	}
	decompressed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	reader.Close()

	if len(decompressed) != 0 {
		t.Errorf("round-trip of empty input = %d bytes, want 0", len(decompressed))
	}
}
