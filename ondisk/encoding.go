package ondisk

import (
	"encoding/binary"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
)

// TextEncoding is the database text encoding stored at header offset 56.
type TextEncoding uint32

const (
	EncodingUTF8    TextEncoding = 1
	EncodingUTF16LE TextEncoding = 2
	EncodingUTF16BE TextEncoding = 3
)

func (e TextEncoding) String() string {
	switch e {
	case EncodingUTF8:
		return "UTF-8"
	case EncodingUTF16LE:
		return "UTF-16le"
	case EncodingUTF16BE:
		return "UTF-16be"
	default:
		return "unknown"
	}
}

func (e TextEncoding) decode(b []byte) (string, error) {
	var (
		enc   encoding.Encoding
		order binary.ByteOrder
	)
	switch e {
	case EncodingUTF8, 0:
		if !utf8.Valid(b) {
			return "", errors.Wrapf(ErrInvalidEncoding, "%d bytes are not valid UTF-8", len(b))
		}
		return string(b), nil
	case EncodingUTF16LE:
		enc = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
		order = binary.LittleEndian
	case EncodingUTF16BE:
		enc = unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		order = binary.BigEndian
	default:
		return "", errors.Wrapf(ErrInvalidEncoding, "text encoding %d", uint32(e))
	}
	if len(b)%2 != 0 {
		return "", errors.Wrapf(ErrInvalidEncoding, "odd length %d for %s", len(b), e)
	}
	// the x/text decoder replaces unpaired surrogates with U+FFFD
	if at := unpairedSurrogate(b, order); at >= 0 {
		return "", errors.Wrapf(ErrInvalidEncoding, "%s: unpaired surrogate at byte %d", e, at)
	}
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidEncoding, "%s: %v", e, err)
	}
	return string(out), nil
}

// unpairedSurrogate returns the byte offset of the first surrogate code
// unit that is not part of a high-low pair, or -1.
func unpairedSurrogate(b []byte, order binary.ByteOrder) int {
	for i := 0; i+1 < len(b); i += 2 {
		u := rune(order.Uint16(b[i:]))
		if !utf16.IsSurrogate(u) {
			continue
		}
		if u >= 0xdc00 || i+3 >= len(b) {
			return i
		}
		next := rune(order.Uint16(b[i+2:]))
		if next < 0xdc00 || next > 0xdfff {
			return i
		}
		i += 2
	}
	return -1
}

// Decoder carries the per-database settings the decode functions need.
// The zero value decodes text as UTF-8.
type Decoder struct {
	Encoding TextEncoding
}

var defaultDecoder = Decoder{Encoding: EncodingUTF8}

// NewDecoder returns a Decoder for the text encoding declared in h.
func NewDecoder(h *DatabaseHeader) Decoder {
	return Decoder{Encoding: TextEncoding(h.TextEncoding)}
}
