package tclbc

import (
	"bytes"
	"fmt"
)

// encodeLineWidth is the maximum number of encoded symbols per output line
// before a separator is written.
const encodeLineWidth = 72

// safeAlphabet is the modified ASCII85 alphabet used by the writer. It
// excludes the target scripting language's interpolation/grouping
// metacharacters (" $ { } [ ] \) by remapping their natural positions to
// otherwise-unused letters. This table must be reproduced bit-for-bit to
// stay wire-compatible with a companion loader; position i holds the
// symbol for digit value i.
var safeAlphabet = [85]byte{
	'!', 'v', '#', 'w', '%', '&', '\'', '(', ')', '*',
	'+', ',', '-', '.', '/', '0', '1', '2', '3', '4',
	'5', '6', '7', '8', '9', ':', ';', '<', '=', '>',
	'?', '@', 'A', 'B', 'C', 'D', 'E', 'F', 'G', 'H',
	'I', 'J', 'K', 'L', 'M', 'N', 'O', 'P', 'Q', 'R',
	'S', 'T', 'U', 'V', 'W', 'X', 'Y', 'Z', 'x', 'y',
	'|', '^', '_', '`', 'a', 'b', 'c', 'd', 'e', 'f',
	'g', 'h', 'i', 'j', 'k', 'l', 'm', 'n', 'o', 'p',
	'q', 'r', 's', 't', 'u',
}

// decodeAlphabet is the inverse of safeAlphabet, built once at init.
var decodeAlphabet [256]int8

func init() {
	for i := range decodeAlphabet {
		decodeAlphabet[i] = -1
	}
	for digit, sym := range safeAlphabet {
		decodeAlphabet[sym] = int8(digit)
	}
}

// forbiddenChars are the characters safeAlphabet is specifically
// constructed to never emit.
var forbiddenChars = map[byte]bool{
	'"': true, '$': true, '{': true, '}': true, '[': true, ']': true, '\\': true,
}

// a85Encoder implements the line-wrapped safe-ASCII85 codec. It buffers
// encoded symbols and flushes full lines to an io.Writer-like sink
// through emit, mirroring the classic A85EncodeContext / A85EmitChar /
// A85Flush trio this format's ASCII85 variant is modeled on.
type a85Encoder struct {
	sink      *bytes.Buffer
	separator byte
	lineBuf   []byte
}

func newA85Encoder(sink *bytes.Buffer, separator byte) *a85Encoder {
	return &a85Encoder{sink: sink, separator: separator, lineBuf: make([]byte, 0, encodeLineWidth)}
}

// emitChar appends one encoded symbol, flushing a full line as needed.
func (e *a85Encoder) emitChar(c byte) error {
	e.lineBuf = append(e.lineBuf, c)
	if len(e.lineBuf) >= encodeLineWidth {
		return e.flush()
	}
	return nil
}

// flush writes out any buffered symbols followed by the line separator.
func (e *a85Encoder) flush() error {
	if _, err := e.sink.Write(e.lineBuf); err != nil {
		return fmt.Errorf("ascii85 encode: %w", err)
	}
	e.lineBuf = e.lineBuf[:0]
	if e.separator != 0 {
		if err := e.sink.WriteByte(e.separator); err != nil {
			return fmt.Errorf("ascii85 encode: %w", err)
		}
	}
	return nil
}

// encodeTuple encodes up to 4 bytes of b (b may be shorter than 4 for the
// final, partial group of a byte sequence).
func (e *a85Encoder) encodeTuple(b []byte) error {
	var padded [4]byte
	n := copy(padded[:], b)

	var word uint32
	for i := 3; i >= 0; i-- {
		word <<= 8
		word |= uint32(padded[i])
	}

	if word == 0 {
		return e.emitChar('z')
	}

	var toEmit [5]byte
	for i := 0; i < 5; i++ {
		toEmit[i] = safeAlphabet[word%85]
		word /= 85
	}

	// Emit least-significant symbol first; a short final tuple only needs
	// n+1 symbols, the rest being recoverable trailing '!' (digit 0).
	for i := 0; i <= n; i++ {
		if err := e.emitChar(toEmit[i]); err != nil {
			return err
		}
	}
	return nil
}

// encodeASCII85 encodes all of b into the safe alphabet, line-wrapped at
// encodeLineWidth symbols per line, each line terminated by separator.
func encodeASCII85(b []byte, separator byte) []byte {
	var out bytes.Buffer
	enc := newA85Encoder(&out, separator)
	for i := 0; i < len(b); i += 4 {
		end := i + 4
		if end > len(b) {
			end = len(b)
		}
		// encodeTuple never errors against a bytes.Buffer sink.
		_ = enc.encodeTuple(b[i:end])
	}
	if len(enc.lineBuf) > 0 || len(b) == 0 {
		_ = enc.flush()
	}
	return out.Bytes()
}

// decodeASCII85 reverses encodeASCII85 given the exact original byte
// length n (the format always precedes a byte-sequence field with its
// decimal length, so n is known before decoding starts).
func decodeASCII85(enc []byte, n int) ([]byte, error) {
	out := make([]byte, 0, n)
	var tuple [5]byte
	tlen := 0

	flushTuple := func(count int) error {
		// Digits are emitted least-significant-first (see encodeTuple), so
		// digit i contributes digit_i * 85^i; digits beyond count (a short
		// final tuple) are the omitted, reconstructible '!' (value 0).
		var word uint32
		mult := uint32(1)
		for i := 0; i < count; i++ {
			d := decodeAlphabet[tuple[i]]
			if d < 0 {
				return fmt.Errorf("ascii85 decode: invalid symbol %q", tuple[i])
			}
			word += uint32(d) * mult
			mult *= 85
		}
		var b [4]byte
		for i := 0; i < 4; i++ {
			b[i] = byte(word)
			word >>= 8
		}
		take := count - 1
		if take > 4 {
			take = 4
		}
		out = append(out, b[:take]...)
		return nil
	}

	for _, c := range enc {
		if c == '\n' || c == '\r' {
			continue
		}
		if c == 'z' {
			if tlen != 0 {
				return nil, fmt.Errorf("ascii85 decode: 'z' inside a partial tuple")
			}
			out = append(out, 0, 0, 0, 0)
			continue
		}
		tuple[tlen] = c
		tlen++
		if tlen == 5 {
			if err := flushTuple(5); err != nil {
				return nil, err
			}
			tlen = 0
		}
	}
	if tlen > 0 {
		if err := flushTuple(tlen); err != nil {
			return nil, err
		}
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}
