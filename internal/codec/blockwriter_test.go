package codec

import (
	"bytes"
	"errors"
	"testing"
)

// identityEncode frames each block verbatim so order is observable.
func identityEncode(block []byte) ([]byte, error) {
	out := make([]byte, len(block))
	copy(out, block)
	return out, nil
}

func TestBlockWriter_OrderPreserved(t *testing.T) {
	for _, workers := range []int{1, 2, 4} {
		var out bytes.Buffer
		bw := NewBlockWriter(&out, identityEncode, workers, 8)

		var want bytes.Buffer
		for i := 0; i < 100; i++ {
			chunk := bytes.Repeat([]byte{byte(i)}, 5)
			want.Write(chunk)
			if _, err := bw.Write(chunk); err != nil {
				t.Fatalf("workers=%d: Write() error = %v", workers, err)
			}
		}
		if err := bw.Close(); err != nil {
			t.Fatalf("workers=%d: Close() error = %v", workers, err)
		}
		if !bytes.Equal(out.Bytes(), want.Bytes()) {
			t.Errorf("workers=%d: output does not match input order", workers)
		}
	}
}

func TestBlockWriter_CloseIdempotent(t *testing.T) {
	var out bytes.Buffer
	bw := NewBlockWriter(&out, identityEncode, 2, 8)
	if _, err := bw.Write([]byte("abc")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := bw.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if got := out.String(); got != "abc" {
		t.Errorf("output = %q, want %q", got, "abc")
	}
}

func TestBlockWriter_EncodeError(t *testing.T) {
	wantErr := errors.New("boom")
	failEncode := func(block []byte) ([]byte, error) { return nil, wantErr }

	var out bytes.Buffer
	bw := NewBlockWriter(&out, failEncode, 2, 4)
	// Enough data to force at least one block through the failing encoder.
	bw.Write(bytes.Repeat([]byte("x"), 64))
	if err := bw.Close(); !errors.Is(err, wantErr) {
		t.Errorf("Close() error = %v, want %v", err, wantErr)
	}
}
