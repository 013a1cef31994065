package fastx

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

const (
	// maxLine bounds a single header, sequence, or quality line.
	maxLine = 64 * 1024 * 1024

	initialBuf = 1024 * 1024
)

// Scanner produces a lazy, single-pass sequence of records from a
// decoded byte stream. The layout (FASTA two-line, FASTQ four-line) is
// selected by the sentinel character of the first record and must stay
// consistent for the whole stream. A Scanner cannot be restarted; reopen
// the source stream instead.
type Scanner struct {
	s    *bufio.Scanner
	path string
	rule MateSuffixRule

	line     int
	sentinel byte // 0 until the first record is seen
	rec      Record
	bytes    int64
	err      error
	done     bool
}

// NewScanner returns a Scanner reading records from r. path is used in
// error messages only.
func NewScanner(r io.Reader, path string, rule MateSuffixRule) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, initialBuf), maxLine)
	return &Scanner{s: s, path: path, rule: rule}
}

// Scan advances to the next record. It returns false at end of stream
// or on error; Err tells the two apart.
func (s *Scanner) Scan() bool {
	if s.done || s.err != nil {
		return false
	}

	header, ok := s.nextLine()
	if !ok {
		s.done = true
		if s.err == nil && s.s.Err() != nil {
			s.err = fmt.Errorf("%s: %w", s.path, s.s.Err())
		}
		return false
	}

	if len(header) == 0 || (header[0] != '@' && header[0] != '>') {
		s.fail("expected record header starting with '@' or '>'")
		return false
	}
	if s.sentinel == 0 {
		s.sentinel = header[0]
	} else if header[0] != s.sentinel {
		s.fail(fmt.Sprintf("record sentinel %q does not match stream layout %q", header[0], s.sentinel))
		return false
	}

	seq, ok := s.nextLine()
	if !ok {
		s.fail("missing sequence line")
		return false
	}

	s.rec = Record{
		Header: append([]byte(nil), header...),
		ID:     headerID(header),
		Seq:    append([]byte(nil), seq...),
		Qual:   nil,
	}
	s.bytes += int64(len(header) + len(seq) + 2)

	if s.sentinel == '@' {
		marker, ok := s.nextLine()
		if !ok || len(marker) == 0 || marker[0] != '+' {
			s.fail("missing '+' separator line")
			return false
		}
		qual, ok := s.nextLine()
		if !ok {
			s.fail("missing quality line")
			return false
		}
		if len(qual) != len(seq) {
			s.fail(fmt.Sprintf("quality length %d does not match sequence length %d", len(qual), len(seq)))
			return false
		}
		s.rec.Qual = append([]byte(nil), qual...)
		s.bytes += int64(len(marker) + len(qual) + 2)
	}

	return true
}

// Record returns the current record. It is valid until the next Scan.
func (s *Scanner) Record() *Record { return &s.rec }

// CanonicalID returns the current record's id with the mate suffix
// stripped for pairing comparisons.
func (s *Scanner) CanonicalID() string { return s.rule.Canonical(s.rec.ID) }

// Bytes returns the decoded bytes consumed so far.
func (s *Scanner) Bytes() int64 { return s.bytes }

// Err returns the first error encountered, or nil at clean end of stream.
func (s *Scanner) Err() error { return s.err }

func (s *Scanner) nextLine() ([]byte, bool) {
	if !s.s.Scan() {
		return nil, false
	}
	s.line++
	line := s.s.Bytes()
	// Tolerate CRLF input.
	line = bytes.TrimSuffix(line, []byte{'\r'})
	return line, true
}

func (s *Scanner) fail(msg string) {
	s.err = &ParseError{Path: s.path, Line: s.line, Msg: msg}
	s.done = true
}

// headerID extracts the id token: everything after the sentinel up to
// the first whitespace.
func headerID(header []byte) string {
	id := header[1:]
	if i := bytes.IndexAny(id, " \t"); i >= 0 {
		id = id[:i]
	}
	return string(id)
}
