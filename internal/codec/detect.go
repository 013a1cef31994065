package codec

import "bufio"

// sniffLen is the number of header bytes needed to tell BGZF apart from
// plain gzip: a BGZF member carries a "BC" extra subfield starting at
// byte 12 of the gzip header.
const sniffLen = 16

// Detect sniffs the compression format from the leading bytes of br.
// Peeked bytes are not consumed and remain available to the first read.
// Detection never fails: streams with unknown magic, short streams, and
// peek errors all report FormatNone.
func Detect(br *bufio.Reader) Format {
	magic, _ := br.Peek(sniffLen)
	if len(magic) < 2 {
		return FormatNone
	}
	switch {
	case magic[0] == 0x1f && magic[1] == 0x8b:
		if isBGZF(magic) {
			return FormatBgzf
		}
		return FormatGzip
	case magic[0] == 'B' && magic[1] == 'Z' && len(magic) >= 3 && magic[2] == 'h':
		return FormatBzip2
	case len(magic) >= 4 && magic[0] == 0x28 && magic[1] == 0xb5 && magic[2] == 0x2f && magic[3] == 0xfd:
		return FormatZstd
	case len(magic) >= 6 && magic[0] == 0xfd && magic[1] == '7' && magic[2] == 'z' && magic[3] == 'X' && magic[4] == 'Z' && magic[5] == 0x00:
		return FormatXz
	default:
		return FormatNone
	}
}

// isBGZF reports whether a gzip header carries the BGZF "BC" extra
// subfield. The subfield sits at a fixed offset because BGZF writes it
// first in the extra field.
func isBGZF(magic []byte) bool {
	const flgExtra = 0x04
	return len(magic) >= 14 &&
		magic[3]&flgExtra != 0 &&
		magic[12] == 'B' && magic[13] == 'C'
}
