package entity

import (
	"strings"
	"unicode/utf8"
)

// NumericParser recognizes numeric character references one character at a
// time. The caller consumes the leading "&#" before feeding characters; the
// parser reports how many of the fed characters belong to the reference and
// how many must be pushed back.
type NumericParser struct {
	state    numState
	value    int
	overflow bool
	consumed int

	// Match is the replacement text, or "" when the reference was invalid.
	Match string
	// MatchLength is the number of fed characters that form the match.
	MatchLength int
	// RewindCount is consumed−matched: the characters the caller must push
	// back onto the source.
	RewindCount int
	// MissingSemicolon is set when the reference terminated on a character
	// other than ';'.
	MissingSemicolon bool
	// BadCodePoint is set when the value was remapped to U+FFFD because it
	// was zero, a surrogate, or beyond U+10FFFF.
	BadCodePoint bool
}

type numState int

const (
	numStart numState = iota
	numHexStart
	numHexChar
	numDecChar
)

// Parse feeds one character. It returns true while the parser wants more
// input; false once the reference is complete (successfully or not), at
// which point the result fields are valid. Feeding utf8.RuneError with an
// exhausted source finishes the parse.
func (p *NumericParser) Parse(c rune) bool {
	p.consumed++
	switch p.state {
	case numStart:
		switch {
		case c == 'x' || c == 'X':
			p.state = numHexStart
			return true
		case c >= '0' && c <= '9':
			p.state = numDecChar
			p.value = int(c - '0')
			return true
		}
		// Absence of digits: nothing matched, everything fed goes back.
		p.fail()
		return false
	case numHexStart:
		if d, ok := hexDigit(c); ok {
			p.state = numHexChar
			p.value = d
			return true
		}
		p.fail()
		return false
	case numHexChar:
		if d, ok := hexDigit(c); ok {
			p.add(16, d)
			return true
		}
	case numDecChar:
		if c >= '0' && c <= '9' {
			p.add(10, int(c-'0'))
			return true
		}
	}
	// A non-digit terminator in HexChar or DecChar completes the
	// reference. Only ';' is consumed; anything else is pushed back.
	if c == ';' {
		p.MatchLength = p.consumed
	} else {
		p.MatchLength = p.consumed - 1
		p.RewindCount = 1
		p.MissingSemicolon = true
	}
	p.Match = p.resolve()
	return false
}

// Done finishes a parse interrupted by end of input. It reports whether a
// match was produced.
func (p *NumericParser) Done() bool {
	if p.state == numHexChar || p.state == numDecChar {
		p.MatchLength = p.consumed
		p.MissingSemicolon = true
		p.Match = p.resolve()
		return p.Match != ""
	}
	p.fail()
	return false
}

func (p *NumericParser) add(base, d int) {
	if p.value > 0x10FFFF {
		p.overflow = true
		return
	}
	p.value = p.value*base + d
}

func (p *NumericParser) fail() {
	p.Match = ""
	p.MatchLength = 0
	p.RewindCount = p.consumed
}

// resolve applies the code-point remapping rules and renders the
// replacement text.
func (p *NumericParser) resolve() string {
	cp := p.value
	switch {
	case p.overflow || cp == 0 || cp > 0x10FFFF:
		p.BadCodePoint = true
		return "�"
	case cp >= 0xD800 && cp <= 0xDFFF:
		p.BadCodePoint = true
		return "�"
	}
	if r, ok := windows1252[cp]; ok {
		return string(r)
	}
	if !utf8.ValidRune(rune(cp)) {
		p.BadCodePoint = true
		return "�"
	}
	var b strings.Builder
	b.WriteRune(rune(cp))
	return b.String()
}

func hexDigit(c rune) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

// windows1252 maps the C1 control range code points that HTML documents use
// for Windows-1252 glyphs to their Unicode equivalents. The five holes in
// the range (0x81, 0x8D, 0x8F, 0x90, 0x9D) pass through unmapped.
var windows1252 = map[int]rune{
	0x80: 0x20AC, // €
	0x82: 0x201A,
	0x83: 0x0192,
	0x84: 0x201E,
	0x85: 0x2026,
	0x86: 0x2020,
	0x87: 0x2021,
	0x88: 0x02C6,
	0x89: 0x2030,
	0x8A: 0x0160,
	0x8B: 0x2039,
	0x8C: 0x0152,
	0x8E: 0x017D,
	0x91: 0x2018,
	0x92: 0x2019,
	0x93: 0x201C,
	0x94: 0x201D,
	0x95: 0x2022,
	0x96: 0x2013,
	0x97: 0x2014,
	0x98: 0x02DC,
	0x99: 0x2122,
	0x9A: 0x0161,
	0x9B: 0x203A,
	0x9C: 0x0153,
	0x9E: 0x017E,
	0x9F: 0x0178,
}
