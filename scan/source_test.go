package scan

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, s *Source) string {
	t.Helper()
	var b strings.Builder
	for {
		c, err := s.Read()
		if err == io.EOF {
			return b.String()
		}
		require.NoError(t, err)
		b.WriteRune(c)
	}
}

func TestSourceRead(t *testing.T) {
	s := NewSource(strings.NewReader("ab\ncd"), 0)
	assert.Equal(t, 1, s.Line())
	assert.Equal(t, 1, s.Column())
	assert.Equal(t, "ab\ncd", readAll(t, s))
	assert.Equal(t, 2, s.Line())
	assert.Equal(t, 3, s.Column())
	assert.Equal(t, 5, s.CharOffset())
	_, err := s.Read()
	assert.Equal(t, io.EOF, err)
}

func TestSourceCRLFCountsOneLine(t *testing.T) {
	s := NewSource(strings.NewReader("a\r\nb\rc\nd"), 0)
	readAll(t, s)
	// a, CRLF, b, CR, c, LF, d: three line breaks -> line 4.
	assert.Equal(t, 4, s.Line())
	assert.Equal(t, 2, s.Column())
}

func TestSourceRewind(t *testing.T) {
	s := NewSource(strings.NewReader("abcdef"), 0)
	for i := 0; i < 4; i++ {
		_, err := s.ReadPreserving()
		require.NoError(t, err)
	}
	s.Rewind(2)
	assert.Equal(t, 2, s.CharOffset())
	c, err := s.Read()
	require.NoError(t, err)
	assert.Equal(t, 'c', c)
}

func TestSourceSkip(t *testing.T) {
	s := NewSource(strings.NewReader("DocType html"), 0)
	ok, err := s.Skip("DOCTYPE")
	require.NoError(t, err)
	assert.True(t, ok)
	c, _ := s.Read()
	assert.Equal(t, ' ', c)

	s = NewSource(strings.NewReader("DOCTYPO"), 0)
	ok, err = s.Skip("DOCTYPE")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.CharOffset(), "mismatch must restore the position exactly")
	assert.Equal(t, "DOCTYPO", readAll(t, s))
}

func TestSourceSkipSpacesAndNewlines(t *testing.T) {
	s := NewSource(strings.NewReader(" \t x"), 0)
	n, err := s.SkipSpaces()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	c, _ := s.Read()
	assert.Equal(t, 'x', c)

	s = NewSource(strings.NewReader("\r\n\n\rx"), 0)
	n, err = s.SkipNewlines()
	require.NoError(t, err)
	assert.Equal(t, 3, n, "CRLF counts once")
	c, _ = s.Read()
	assert.Equal(t, 'x', c)
	assert.Equal(t, 4, s.Line())
}

func TestSourceSkipMarkup(t *testing.T) {
	s := NewSource(strings.NewReader("a b='c>d' x/>rest"), 0)
	// Unbalanced scan stops at the first '>'.
	slash, err := s.SkipMarkup(false)
	require.NoError(t, err)
	assert.False(t, slash)

	s = NewSource(strings.NewReader("foo <bar> baz/>tail"), 0)
	slash, err = s.SkipMarkup(true)
	require.NoError(t, err)
	assert.True(t, slash, "balanced scan ends at the outer '/>'")
	assert.Equal(t, "tail", readAll(t, s))
}

func TestSourceNextContent(t *testing.T) {
	s := NewSource(strings.NewReader("abcdef"), 0)
	peek, err := s.NextContent(4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", peek)
	assert.Equal(t, 0, s.CharOffset())
	assert.Equal(t, "abcdef", readAll(t, s))

	s = NewSource(strings.NewReader("ab"), 0)
	peek, err = s.NextContent(10)
	require.NoError(t, err)
	assert.Equal(t, "ab", peek)
}

func TestSourceSmallBufferGrows(t *testing.T) {
	input := strings.Repeat("0123456789", 50)
	s := NewSource(strings.NewReader(input), 4)
	// Preserve everything so the buffer must grow instead of recycling.
	var b strings.Builder
	for {
		c, err := s.ReadPreserving()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		b.WriteRune(c)
	}
	assert.Equal(t, input, b.String())
	s.Rewind(500)
	assert.Equal(t, input, readAll(t, s))
}

func TestSourceSetReaderResetsCounters(t *testing.T) {
	s := NewSource(strings.NewReader("one\ntwo"), 0)
	readAll(t, s)
	s.SetReader(strings.NewReader("x"))
	assert.Equal(t, 1, s.Line())
	assert.Equal(t, 1, s.Column())
	assert.Equal(t, 0, s.CharOffset())
	assert.Equal(t, "x", readAll(t, s))
}

func TestSourceNonASCII(t *testing.T) {
	s := NewSource(strings.NewReader("héllo€"), 0)
	assert.Equal(t, "héllo€", readAll(t, s))
	assert.Equal(t, 6, s.CharOffset(), "offsets count characters, not bytes")
}
