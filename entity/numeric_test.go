package entity

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// feed runs a parser over the input, returning it when it reports
// completion. ok is false if the input ran out first.
func feed(s string) (p *NumericParser, ok bool) {
	p = &NumericParser{}
	for _, c := range s {
		if !p.Parse(c) {
			return p, true
		}
	}
	p.Done()
	return p, false
}

func TestNumericParser(t *testing.T) {
	tests := []struct {
		input    string
		match    string
		length   int
		rewind   int
		noSemi   bool
		badPoint bool
	}{
		{"x80;", "€", 4, 0, false, false},
		{"x80<", "€", 3, 1, true, false},
		{"X20AC;", "€", 6, 0, false, false},
		{"8364;", "€", 5, 0, false, false},
		{"65;", "A", 3, 0, false, false},
		{"x41;", "A", 4, 0, false, false},
		{"151;", "—", 4, 0, false, false}, // 0x97, Windows-1252 em dash
		{"0;", "�", 2, 0, false, true},
		{"xD800;", "�", 6, 0, false, true},
		{"xDFFF;", "�", 6, 0, false, true},
		{"x110000;", "�", 8, 0, false, true},
		{"99999999999999;", "�", 15, 0, false, true},
		{"x;", "", 0, 2, false, false},  // no hex digits
		{"q", "", 0, 1, false, false},   // no digits at all
		{";", "", 0, 1, false, false},   // empty reference
		{"xG;", "", 0, 2, false, false}, // hex start then junk
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			p, done := feed(tt.input)
			_ = done
			assert.Equal(t, tt.match, p.Match)
			assert.Equal(t, tt.length, p.MatchLength)
			assert.Equal(t, tt.rewind, p.RewindCount)
			if tt.match != "" {
				assert.Equal(t, tt.noSemi, p.MissingSemicolon)
			}
			assert.Equal(t, tt.badPoint, p.BadCodePoint)
		})
	}
}

func TestNumericWindows1252Table(t *testing.T) {
	for cp, want := range windows1252 {
		p, _ := feed(fmt.Sprintf("%d;", cp))
		assert.Equal(t, string(want), p.Match, "&#%d;", cp)
		p, _ = feed(fmt.Sprintf("x%X;", cp))
		assert.Equal(t, string(want), p.Match, "&#x%X;", cp)
	}
}

func TestNumericSurrogateRange(t *testing.T) {
	for _, cp := range []int{0xD800, 0xDABC, 0xDFFF} {
		p, _ := feed(fmt.Sprintf("x%X;", cp))
		assert.Equal(t, "�", p.Match)
		assert.True(t, p.BadCodePoint)
	}
}

func TestNumericAstralPlane(t *testing.T) {
	p, _ := feed("x1D504;")
	assert.Equal(t, "𝔄", p.Match)
	assert.False(t, p.BadCodePoint)
}

func TestNumericEOF(t *testing.T) {
	p, done := feed("x80")
	assert.False(t, done)
	assert.Equal(t, "€", p.Match)
	assert.Equal(t, 3, p.MatchLength)
	assert.Equal(t, 0, p.RewindCount)
	assert.True(t, p.MissingSemicolon)
}
