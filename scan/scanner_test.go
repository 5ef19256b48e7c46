package scan

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamehtml/tamehtml/sax"
)

// fmtEvent renders an event compactly for comparison.
func fmtEvent(ev sax.Event) string {
	switch ev.Type {
	case sax.StartDocument:
		return "(doc"
	case sax.EndDocument:
		return ")doc"
	case sax.StartElement, sax.EmptyElement:
		var b strings.Builder
		b.WriteByte('<')
		b.WriteString(ev.Name)
		for _, a := range ev.Attrs {
			fmt.Fprintf(&b, " %s=%q", a.Name, a.Value)
		}
		if ev.Type == sax.EmptyElement {
			b.WriteByte('/')
		}
		b.WriteByte('>')
		return b.String()
	case sax.EndElement:
		return "</" + ev.Name + ">"
	case sax.Characters:
		return fmt.Sprintf("%q", ev.Text)
	case sax.Comment:
		return "<!--" + ev.Text + "-->"
	case sax.DoctypeDecl:
		s := "<!DOCTYPE " + ev.Name
		if ev.PublicID != "" {
			s += " PUBLIC " + ev.PublicID
		}
		if ev.SystemID != "" {
			s += " SYSTEM " + ev.SystemID
		}
		return s + ">"
	case sax.ProcessingInstruction:
		return "<?" + ev.Target + " " + ev.Data + "?>"
	case sax.XMLDecl:
		return fmt.Sprintf("<?xml version=%s encoding=%s?>", ev.Version, ev.Encoding)
	case sax.StartCDATA:
		return "<![CDATA["
	case sax.EndCDATA:
		return "]]>"
	}
	return "?"
}

// scanEvents runs the scanner over input and returns the events between
// startDocument and endDocument.
func scanEvents(t *testing.T, input string, opts Options) []string {
	t.Helper()
	rec := &sax.Recorder{}
	s := NewScanner(NewSource(strings.NewReader(input), 0), rec, opts)
	_, err := s.Scan(true)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Events)
	require.Equal(t, sax.StartDocument, rec.Events[0].Type)
	require.Equal(t, sax.EndDocument, rec.Events[len(rec.Events)-1].Type)
	var out []string
	for _, ev := range rec.Events[1 : len(rec.Events)-1] {
		out = append(out, fmtEvent(ev))
	}
	return out
}

func TestScannerBasics(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"text and tags", `<p>hi</p>`, []string{`<p>`, `"hi"`, `</p>`}},
		{"nested", `<div><span>x</span></div>`, []string{`<div>`, `<span>`, `"x"`, `</span>`, `</div>`}},
		{"entity in content", `a&amp;b`, []string{`"a&b"`}},
		{"legacy entity", `a&ltb`, []string{`"a<b"`}},
		{"legacy overread rescans tail", `&notin`, []string{`"¬in"`}},
		{"canonical notin", `&notin;`, []string{`"∉"`}},
		{"numeric hex", `&#x80;`, []string{`"€"`}},
		{"numeric decimal", `&#65;x`, []string{`"Ax"`}},
		{"bare ampersand", `a & b`, []string{`"a & b"`}},
		{"bare numeric", `a &# b`, []string{`"a &# b"`}},
		{"stray bracket", `a < b`, []string{`"a < b"`}},
		{"newline normalization", "a\r\nb\rc", []string{`"a\nb\nc"`}},
		{"self-closing empty", `<br/>`, []string{`<br/>`}},
		{"self-closing non-empty ignored", `<div/>x`, []string{`<div>`, `"x"`}},
		{"empty end tag dropped", `a</>b`, []string{`"a"`, `"b"`}},
		{"comment", `<!-- x -->`, []string{`<!-- x -->`}},
		{"comment with dashes", `<!-- a--b -->`, []string{`<!-- a--b -->`}},
		{"empty comment", `<!-->`, []string{`<!---->`}},
		{"degenerate comment", `<!>`, []string{`<!---->`}},
		{"bang comment", `<!-!>`, []string{`<!---!-->`}},
		{"bang closer", `<!--x--!>y`, []string{`<!--x-->`, `"y"`}},
		{"unterminated comment", `<!--x`, []string{`<!--x-->`}},
		{"cdata as comment", `<![CDATA[x]]>`, []string{`<!--[CDATA[x]]-->`}},
		{"pi", `<?php echo ?>`, []string{`<?php echo ?>`}},
		{"pi gt terminated", `<?foo bar>x`, []string{`<?foo bar?>`, `"x"`}},
		{"doctype", `<!DOCTYPE html>`, []string{`<!DOCTYPE html>`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanEvents(t, tt.input, DefaultOptions())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScannerDoctypeIdentifiers(t *testing.T) {
	input := `<!DOCTYPE HTML PUBLIC "-//W3C//DTD HTML 4.01//EN" "http://www.w3.org/TR/html4/strict.dtd">`
	rec := &sax.Recorder{}
	s := NewScanner(NewSource(strings.NewReader(input), 0), rec, DefaultOptions())
	_, err := s.Scan(true)
	require.NoError(t, err)
	var dt *sax.Event
	for i := range rec.Events {
		if rec.Events[i].Type == sax.DoctypeDecl {
			dt = &rec.Events[i]
		}
	}
	require.NotNil(t, dt)
	assert.Equal(t, "HTML", dt.Name)
	assert.Equal(t, "-//W3C//DTD HTML 4.01//EN", dt.PublicID)
	assert.Equal(t, "http://www.w3.org/TR/html4/strict.dtd", dt.SystemID)
}

func TestScannerAttributes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  func(*Options)
		want  []string
	}{
		{"quoted", `<a href="x" title='y'>`, nil, []string{`<a href="x" title="y">`}},
		{"unquoted", `<a href=x>`, nil, []string{`<a href="x">`}},
		{"valueless", `<input checked>`, nil, []string{`<input checked="">`}},
		{"spaces around eq", `<a href = "x">`, nil, []string{`<a href="x">`}},
		{"entity in value", `<a t="1&amp;2">`, nil, []string{`<a t="1&2">`}},
		{"legacy entity kept before alnum", `<a href="?x=1&not2">`, nil, []string{`<a href="?x=1&not2">`}},
		{"legacy entity kept before eq", `<a href="?x=1&lt=2">`, nil, []string{`<a href="?x=1&lt=2">`}},
		{"legacy entity resolved at boundary", `<a t="x&lt y">`, nil, []string{`<a t="x< y">`}},
		{"duplicate keeps first", `<a id=1 id=2>`, nil, []string{`<a id="1">`}},
		{"stray eq folded into name", `<a =foo>`, nil, []string{`<a =foo="">`}},
		{"missing quote runs to eof", `<a t="x`, nil, []string{`<a t="x">`}},
		{"normalize", "<a t=' a \t b '>", func(o *Options) { o.NormalizeAttrs = true }, []string{`<a t="a b">`}},
		{"upper names", `<a href=x>`, func(o *Options) { o.ElemNames = sax.CaseUpper; o.AttrNames = sax.CaseUpper }, []string{`<A HREF="x">`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			got := scanEvents(t, tt.input, opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScannerAttributeErrors(t *testing.T) {
	log := &sax.ReportLog{}
	opts := DefaultOptions()
	opts.Reporter = log
	scanEvents(t, `<a b="1"c="2">`, opts)
	found := false
	for _, r := range log.Reports {
		if r.Key == sax.KeyMissingWhitespace {
			found = true
		}
	}
	assert.True(t, found, "missing whitespace between attributes must be reported")
}

func TestScannerPlainAttrValues(t *testing.T) {
	opts := DefaultOptions()
	opts.PlainAttrValues = true
	rec := &sax.Recorder{}
	s := NewScanner(NewSource(strings.NewReader(`<a t="1&amp;2">`), 0), rec, opts)
	_, err := s.Scan(true)
	require.NoError(t, err)
	var start *sax.Event
	for i := range rec.Events {
		if rec.Events[i].Type == sax.StartElement {
			start = &rec.Events[i]
		}
	}
	require.NotNil(t, start)
	require.Len(t, start.Attrs, 1)
	assert.Equal(t, "1&2", start.Attrs[0].Value)
	assert.Equal(t, "1&amp;2", start.Attrs[0].Raw)
	assert.Equal(t, byte('"'), start.Attrs[0].Quote)
}

func TestScannerSpecialElements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  func(*Options)
		want  []string
	}{
		{"title resolves entities", `<title>a&amp;b</title>`, nil,
			[]string{`<title>`, `"a&b"`, `</title>`}},
		{"style keeps entities", `<style>a&amp;b</style>`, nil,
			[]string{`<style>`, `"a&amp;b"`, `</style>`}},
		{"case-insensitive end", `<TEXTAREA>x</textArea>`, nil,
			[]string{`<TEXTAREA>`, `"x"`, `</textarea>`}},
		{"false terminator", `<style>a</styleX</style>`, nil,
			[]string{`<style>`, `"a</styleX"`, `</style>`}},
		{"markup is text", `<xmp><b>x</b></xmp>`, nil,
			[]string{`<xmp>`, `"<b>x</b>"`, `</xmp>`}},
		{"iframe raw", `<iframe><p>x</iframe>`, nil,
			[]string{`<iframe>`, `"<p>x"`, `</iframe>`}},
		{"noscript parsed by default", `<noscript><b>x</b></noscript>`, nil,
			[]string{`<noscript>`, `<b>`, `"x"`, `</b>`, `</noscript>`}},
		{"noscript raw when disabled", `<noscript><b>x</b></noscript>`,
			func(o *Options) { o.ParseNoscriptContent = false },
			[]string{`<noscript>`, `"<b>x</b>"`, `</noscript>`}},
		{"style strip comment delims", "<style><!-- a --></style>",
			func(o *Options) { o.StyleStripCommentDelims = true },
			[]string{`<style>`, `" a "`, `</style>`}},
		{"unterminated special", `<title>abc`, nil,
			[]string{`<title>`, `"abc"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			if tt.opts != nil {
				tt.opts(&opts)
			}
			got := scanEvents(t, tt.input, opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScannerScriptData(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"markup stays raw", `<script>a<b>c</script>`,
			[]string{`<script>`, `"a<b>c"`, `</script>`}},
		{"string with closer-ish text", `<script>x="</scrip"+"t>"</script>`,
			[]string{`<script>`, `"x=\"</scrip\"+\"t>\""`, `</script>`}},
		{"escaped nested script", `<script><!--<script>x</script>--></script>`,
			[]string{`<script>`, `"<!--<script>x</script>-->"`, `</script>`}},
		{"escape without nesting ends", `<script><!--x</script>`,
			[]string{`<script>`, `"<!--x"`, `</script>`}},
		{"escape closed then end", `<script><!--x--></script>`,
			[]string{`<script>`, `"<!--x-->"`, `</script>`}},
		{"unterminated", `<script>x`,
			[]string{`<script>`, `"x"`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scanEvents(t, tt.input, DefaultOptions())
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("events mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScannerScriptStripDelims(t *testing.T) {
	opts := DefaultOptions()
	opts.ScriptStripCommentDelims = true
	got := scanEvents(t, "<script><!--x--></script>", opts)
	assert.Equal(t, []string{`<script>`, `"x"`, `</script>`}, got)
}

func TestScannerPlainText(t *testing.T) {
	got := scanEvents(t, "<plaintext>a<b>&amp;\r\nend", DefaultOptions())
	assert.Equal(t, []string{`<plaintext>`, `"a<b>&amp;\nend"`}, got)
}

func TestScannerCDATAModes(t *testing.T) {
	opts := DefaultOptions()
	opts.CDATASections = true
	got := scanEvents(t, "<![CDATA[x]]>", opts)
	assert.Equal(t, []string{"<![CDATA[", `"x"`, "]]>"}, got)

	// Early closing: a plain '>' ends the section.
	got = scanEvents(t, "<![CDATA[a>b]]>", opts)
	assert.Equal(t, []string{"<![CDATA[", `"a"`, "]]>", `"b]]>"`}, got)

	opts.CDATAEarlyClosing = false
	got = scanEvents(t, "<![CDATA[a>b]]>", opts)
	assert.Equal(t, []string{"<![CDATA[", `"a>b"`, "]]>"}, got)
}

func TestScannerXMLDeclAndEncodingHook(t *testing.T) {
	var switched []string
	opts := DefaultOptions()
	opts.SwitchEncoding = func(label string) { switched = append(switched, label) }
	got := scanEvents(t, `<?xml version="1.0" encoding="UTF-8"?><p>x</p>`, opts)
	assert.Equal(t, []string{`<?xml version=1.0 encoding=UTF-8?>`, `<p>`, `"x"`, `</p>`}, got)
	assert.Equal(t, []string{"UTF-8"}, switched)
}

func TestScannerMetaCharsetHook(t *testing.T) {
	var switched []string
	opts := DefaultOptions()
	opts.SwitchEncoding = func(label string) { switched = append(switched, label) }
	scanEvents(t, `<meta http-equiv="Content-Type" content="text/html; charset=utf-8">`, opts)
	scanEvents(t, `<meta charset="koi8-r">`, opts)
	assert.Equal(t, []string{"utf-8", "koi8-r"}, switched)
}

func TestScannerDiscardPlaybackOnBody(t *testing.T) {
	discarded := 0
	opts := DefaultOptions()
	opts.DiscardPlayback = func() { discarded++ }
	scanEvents(t, `<html><head></head><body><p>x</p></body></html>`, opts)
	assert.GreaterOrEqual(t, discarded, 1)
}

func TestScannerPullMode(t *testing.T) {
	rec := &sax.Recorder{}
	s := NewScanner(NewSource(strings.NewReader("<p>x</p>"), 0), rec, DefaultOptions())
	steps := 0
	for {
		more, err := s.Scan(false)
		require.NoError(t, err)
		steps++
		if !more {
			break
		}
		require.Less(t, steps, 100)
	}
	assert.Equal(t, sax.EndDocument, rec.Events[len(rec.Events)-1].Type)
}

func TestScannerPushSource(t *testing.T) {
	rec := &sax.Recorder{}
	s := NewScanner(NewSource(strings.NewReader("<p>ab</p>"), 0), rec, DefaultOptions())
	// Scan the start tag, then inject characters to be read before "ab".
	_, err := s.Scan(false) // startDocument
	require.NoError(t, err)
	_, err = s.Scan(false) // <p>
	require.NoError(t, err)
	s.PushSource(NewSource(strings.NewReader("XY"), 0))
	_, err = s.Scan(true)
	require.NoError(t, err)
	var texts []string
	for _, ev := range rec.Events {
		if ev.Type == sax.Characters {
			texts = append(texts, ev.Text)
		}
	}
	assert.Equal(t, []string{"XYab"}, texts)
}
