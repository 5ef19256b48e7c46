package tamehtml

import (
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReplacementEncoding is the label that maps to the single-U+FFFD decoder,
// used for charset labels that must reject their input entirely.
const ReplacementEncoding = "replacement"

// playbackReader records every byte read from the underlying reader so the
// stream can be replayed after a mid-parse encoding switch. Recording stops
// once body content is reached or the replacement encoding is selected; a
// refused incompatible switch leaves it running.
type playbackReader struct {
	r         io.Reader
	buf       []byte
	pos       int
	recording bool
}

func newPlaybackReader(r io.Reader) *playbackReader {
	return &playbackReader{r: r, recording: true}
}

func (p *playbackReader) Read(b []byte) (int, error) {
	if p.pos < len(p.buf) {
		n := copy(b, p.buf[p.pos:])
		p.pos += n
		return n, nil
	}
	n, err := p.r.Read(b)
	if n > 0 && p.recording {
		p.buf = append(p.buf, b[:n]...)
		p.pos = len(p.buf)
	}
	return n, err
}

// Rewind restarts reading from the first recorded byte.
func (p *playbackReader) Rewind() {
	p.pos = 0
}

// Discard drops the recording; replay is no longer possible.
func (p *playbackReader) Discard() {
	p.buf = nil
	p.pos = 0
	p.recording = false
}

func (p *playbackReader) Recording() bool { return p.recording }

// EncodingTranslator resolves a charset label to a decoder. The default
// uses the WHATWG label registry; hosts may substitute their own table.
type EncodingTranslator func(label string) (encoding.Encoding, string)

// lookupEncoding resolves a label, falling back to the WHATWG registry.
func lookupEncoding(translator EncodingTranslator, label string) (encoding.Encoding, string) {
	label = strings.TrimSpace(strings.ToLower(label))
	if translator != nil {
		if e, name := translator(label); e != nil {
			return e, name
		}
	}
	return charset.Lookup(label)
}

// defaultEncoding returns the decoder for a configured default label,
// hard-falling back to Windows-1252, the historical default for HTML.
func defaultEncoding(translator EncodingTranslator, label string) (encoding.Encoding, string) {
	if e, name := lookupEncoding(translator, label); e != nil {
		return e, name
	}
	return charmap.Windows1252, "windows-1252"
}

// compatibleEncodings reports whether two encodings decode a canonical
// ASCII header identically, which is the precondition for replaying the
// recorded bytes under the new decoder.
func compatibleEncodings(a, b encoding.Encoding) bool {
	const probe = "<!DOCTYPE html><HTML><head><META charset=x>"
	da, err := a.NewDecoder().String(probe)
	if err != nil {
		return false
	}
	db, err := b.NewDecoder().String(probe)
	if err != nil {
		return false
	}
	return da == db
}

// decodedReader builds a fresh decoding reader over r.
func decodedReader(r io.Reader, e encoding.Encoding) io.Reader {
	return transform.NewReader(r, e.NewDecoder())
}
