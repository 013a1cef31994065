// Package fastx streams FASTA and FASTQ read records.
package fastx

import (
	"fmt"
	"io"
	"strings"
)

// Record is one sequencing read. Header holds the original header line
// verbatim (sentinel included, newline excluded) so output reproduces
// the input byte for byte. Qual is nil for FASTA records.
type Record struct {
	Header []byte
	ID     string
	Seq    []byte
	Qual   []byte
}

// WriteTo re-emits the record in its source layout. It returns the
// number of bytes written.
func (r *Record) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(p []byte) error {
		n, err := w.Write(p)
		total += int64(n)
		return err
	}

	if err := write(r.Header); err != nil {
		return total, err
	}
	if err := write(nl); err != nil {
		return total, err
	}
	if err := write(r.Seq); err != nil {
		return total, err
	}
	if err := write(nl); err != nil {
		return total, err
	}
	if r.Qual != nil {
		if err := write(plusLine); err != nil {
			return total, err
		}
		if err := write(r.Qual); err != nil {
			return total, err
		}
		if err := write(nl); err != nil {
			return total, err
		}
	}
	return total, nil
}

var (
	nl       = []byte{'\n'}
	plusLine = []byte{'+', '\n'}
)

// MateSuffixRule decides how a read id is normalized for pairing. A
// trailing mate marker is a separator character followed by a single
// digit 1-3 at the very end of the id token. Which separators count is
// a configuration point: id conventions vary between instruments and
// there is no single documented rule.
type MateSuffixRule struct {
	// Separators holds the characters that may introduce a mate marker.
	Separators string
}

// DefaultMateSuffix strips the common "/1", "/2" and ".1", ".2" markers.
var DefaultMateSuffix = MateSuffixRule{Separators: "/."}

// Canonical returns id with a trailing mate marker removed. Ids without
// a marker, including ids that merely end in a digit, pass unchanged.
func (m MateSuffixRule) Canonical(id string) string {
	if len(id) < 3 {
		return id
	}
	last := id[len(id)-1]
	if last < '1' || last > '3' {
		return id
	}
	if strings.IndexByte(m.Separators, id[len(id)-2]) < 0 {
		return id
	}
	return id[:len(id)-2]
}

// ParseError reports an unparseable record, naming the input and the
// offending line.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: line %d: %s", e.Path, e.Line, e.Msg)
}
