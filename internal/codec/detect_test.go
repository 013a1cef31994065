package codec

import (
	"bufio"
	"bytes"
	"io"
	"testing"
)

// bgzfEOF is the fixed empty BGZF block used as an end-of-file marker;
// its header carries the BC extra subfield at byte 12.
var bgzfEOF = []byte{
	0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff,
	0x06, 0x00, 0x42, 0x43, 0x02, 0x00, 0x1b, 0x00, 0x03, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want Format
	}{
		{"gzip", []byte{0x1f, 0x8b, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x03, 0x4b, 0xcb, 0xcf, 0x57, 0x00, 0x00}, FormatGzip},
		{"bgzf", bgzfEOF, FormatBgzf},
		{"bzip2", []byte("BZh91AY&SY"), FormatBzip2},
		{"xz", []byte{0xfd, '7', 'z', 'X', 'Z', 0x00, 0x00, 0x04}, FormatXz},
		{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd, 0x24, 0x08, 0x41, 0x00}, FormatZstd},
		{"plain", []byte("@read1\nACGT\n+\nIIII\n"), FormatNone},
		{"empty", nil, FormatNone},
		{"one byte", []byte{0x1f}, FormatNone},
		{"short gzip", []byte{0x1f, 0x8b}, FormatGzip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			br := bufio.NewReader(bytes.NewReader(tt.data))
			if got := Detect(br); got != tt.want {
				t.Errorf("Detect() = %v, want %v", got, tt.want)
			}
			// Sniffing must not consume the stream.
			rest, err := io.ReadAll(br)
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if !bytes.Equal(rest, tt.data) {
				t.Errorf("Detect() consumed bytes: got %d remaining, want %d", len(rest), len(tt.data))
			}
		})
	}
}

func TestFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"reads.fq", FormatNone},
		{"reads.fq.gz", FormatGzip},
		{"reads.fq.bgz", FormatBgzf},
		{"reads.fq.bz2", FormatBzip2},
		{"reads.fq.xz", FormatXz},
		{"reads.fq.zst", FormatZstd},
		{"reads.fq.zstd", FormatZstd},
		{"reads.FQ.GZ", FormatGzip},
		{"reads", FormatNone},
	}
	for _, tt := range tests {
		if got := FromPath(tt.path); got != tt.want {
			t.Errorf("FromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"g", FormatGzip, true},
		{"B", FormatBzip2, true},
		{"x", FormatXz, true},
		{"z", FormatZstd, true},
		{"u", FormatNone, true},
		{"gzip", FormatGzip, true},
		{"bgzf", FormatBgzf, true},
		{"ZSTD", FormatZstd, true},
		{"J", FormatNone, false},
	}
	for _, tt := range tests {
		got, ok := ParseFormat(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseFormat(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestTrimExtension(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"reads.fq.gz", "reads.fq"},
		{"reads.fq", "reads.fq"},
		{"reads.fasta.zst", "reads.fasta"},
	}
	for _, tt := range tests {
		if got := TrimExtension(tt.path); got != tt.want {
			t.Errorf("TrimExtension(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
