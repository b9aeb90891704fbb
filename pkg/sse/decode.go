package sse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DefaultEncoding is the text encoding assumed for the byte stream.
const DefaultEncoding = "utf-8"

var (
	// ErrMalformedInput is returned when the byte stream is not valid in the
	// configured encoding. Decoding never substitutes replacement characters.
	ErrMalformedInput = errors.New("malformed input for text encoding")

	// ErrUnknownEncoding is returned for an encoding label that is not a
	// WHATWG encoding label.
	ErrUnknownEncoding = errors.New("unknown text encoding")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// newDecodingReader wraps r so reads return UTF-8 text decoded from the named
// encoding. A sequence split across two source reads is validated once it is
// complete. A read into a buffer shorter than a code point may still return
// part of one; the rest follows on the next read.
func newDecodingReader(r io.Reader, label string) (io.Reader, error) {
	enc, err := htmlindex.Get(strings.TrimSpace(label))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}

	name, err := htmlindex.Name(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEncoding, label)
	}

	if name == "utf-8" {
		return transform.NewReader(r, &strictText{skipBOM: true}), nil
	}

	// x/text decoders substitute U+FFFD for undecodable input; the chained
	// strictText turns that into an error instead.
	return transform.NewReader(r, transform.Chain(
		enc.NewDecoder(),
		&strictText{rejectReplacement: true},
	)), nil
}

// strictText is a validating UTF-8 pass-through transformer.
type strictText struct {
	skipBOM           bool
	rejectReplacement bool

	bomChecked bool
}

// Reset implements transform.Transformer.
func (t *strictText) Reset() {
	t.bomChecked = false
}

// Transform implements transform.Transformer.
func (t *strictText) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	if t.skipBOM && !t.bomChecked {
		if len(src) < len(utf8BOM) && !atEOF && bytes.HasPrefix(utf8BOM, src) {
			return 0, 0, transform.ErrShortSrc
		}
		t.bomChecked = true
		if bytes.HasPrefix(src, utf8BOM) {
			nSrc = len(utf8BOM)
		}
	}

	for nSrc < len(src) {
		size := 1
		if c := src[nSrc]; c >= utf8.RuneSelf {
			if !utf8.FullRune(src[nSrc:]) {
				if !atEOF {
					return nDst, nSrc, transform.ErrShortSrc
				}
				return nDst, nSrc, ErrMalformedInput
			}

			var r rune
			r, size = utf8.DecodeRune(src[nSrc:])
			if r == utf8.RuneError && (size == 1 || t.rejectReplacement) {
				return nDst, nSrc, ErrMalformedInput
			}
		}

		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}

	return nDst, nSrc, nil
}
