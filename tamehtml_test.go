package tamehtml

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamehtml/tamehtml/sax"
)

func parseEvents(t *testing.T, cfg Config, input string) []sax.Event {
	t.Helper()
	rec := &sax.Recorder{}
	p := New(cfg)
	require.NoError(t, p.Parse(strings.NewReader(input), rec))
	return rec.Events
}

func names(events []sax.Event) []string {
	var out []string
	for _, ev := range events {
		switch ev.Type {
		case sax.StartElement:
			out = append(out, "<"+ev.Name+">")
		case sax.EmptyElement:
			out = append(out, "<"+ev.Name+"/>")
		case sax.EndElement:
			out = append(out, "</"+ev.Name+">")
		case sax.Characters:
			out = append(out, fmt.Sprintf("%q", ev.Text))
		case sax.StartDocument:
			out = append(out, "(doc")
		case sax.EndDocument:
			out = append(out, ")doc")
		case sax.DoctypeDecl:
			out = append(out, "<!DOCTYPE>")
		}
	}
	return out
}

func TestParseImpliedStructure(t *testing.T) {
	got := names(parseEvents(t, DefaultConfig(), "<p>hi</p>"))
	want := []string{
		"(doc", "<html>", "<head>", "</head>", "<body>",
		"<p>", `"hi"`, "</p>",
		"</body>", "</html>", ")doc",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestParseWindows1252Default(t *testing.T) {
	// 0x93/0x94 are curly quotes in Windows-1252, the default encoding.
	input := "<p>\x93hi\x94</p>"
	events := parseEvents(t, DefaultConfig(), input)
	var text string
	for _, ev := range events {
		if ev.Type == sax.Characters {
			text += ev.Text
		}
	}
	assert.Equal(t, "“hi”", text)
}

func TestParseMetaEncodingSwitch(t *testing.T) {
	// "é" in UTF-8 is 0xC3 0xA9; decoded as Windows-1252 it would come out
	// as two characters. The meta declaration replays the stream.
	input := "<html><head><meta charset=\"utf-8\"></head><body><p>\xc3\xa9</p></body></html>"
	events := parseEvents(t, DefaultConfig(), input)
	var text string
	starts := map[string]int{}
	for _, ev := range events {
		if ev.Type == sax.Characters {
			text += ev.Text
		}
		if ev.Type == sax.StartElement || ev.Type == sax.EmptyElement {
			starts[strings.ToLower(ev.Name)]++
		}
	}
	assert.Equal(t, "é", text)
	for name, n := range starts {
		assert.Equal(t, 1, n, "element <%s> must not be re-emitted after the switch", name)
	}
}

func TestParseEncodingSwitchIdempotent(t *testing.T) {
	withMeta := "<html><head><meta charset=\"windows-1252\"></head><body><p>x</p></body></html>"
	without := "<html><head><meta x=\"y\"></head><body><p>x</p></body></html>"
	a := names(parseEvents(t, DefaultConfig(), withMeta))
	b := names(parseEvents(t, DefaultConfig(), without))
	assert.Equal(t, len(b), len(a), "matching charset declaration must not re-emit events")
}

func TestParseUnknownEncodingReported(t *testing.T) {
	log := &sax.ReportLog{}
	cfg := DefaultConfig()
	cfg.ReportErrors = true
	cfg.ErrorReporter = log
	parseEvents(t, cfg, `<meta charset="no-such-charset-xyz"><p>x</p>`)
	found := false
	for _, r := range log.Reports {
		if r.Key == sax.KeyUnknownEncoding {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseIgnoreSpecifiedCharset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IgnoreSpecifiedCharset = true
	input := "<meta charset=\"utf-8\"><p>\xc3\xa9</p>"
	events := parseEvents(t, cfg, input)
	var text string
	for _, ev := range events {
		if ev.Type == sax.Characters {
			text += ev.Text
		}
	}
	// Decoded as Windows-1252: two characters, not "é".
	assert.Equal(t, "Ã©", text)
}

func TestParseRoundtrip(t *testing.T) {
	// Balanced input with no implicit rules triggered serializes back to
	// the same tags in the same order.
	input := `<html><head><title>t</title></head><body><p>a</p><div>b</div></body></html>`
	events := parseEvents(t, DefaultConfig(), input)
	var b strings.Builder
	for _, ev := range events {
		switch ev.Type {
		case sax.StartElement:
			b.WriteString("<" + ev.Name + ">")
		case sax.EndElement:
			b.WriteString("</" + ev.Name + ">")
		case sax.Characters:
			b.WriteString(ev.Text)
		}
	}
	assert.Equal(t, input, b.String())
}

func TestParseBalanceDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BalanceTags = false
	got := names(parseEvents(t, cfg, "<p>hi"))
	want := []string{"(doc", "<p>", `"hi"`, ")doc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("raw events mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFragment(t *testing.T) {
	rec := &sax.Recorder{}
	p := New(DefaultConfig())
	require.NoError(t, p.ParseFragment(strings.NewReader("<li>a<li>b"), []string{"html", "body", "ul"}, rec))
	got := names(rec.Events)
	want := []string{"(doc", "<li>", `"a"`, "</li>", "<li>", `"b"`, "</li>", ")doc"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("fragment events mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFragmentScriptContext(t *testing.T) {
	rec := &sax.Recorder{}
	p := New(DefaultConfig())
	require.NoError(t, p.ParseFragment(strings.NewReader("a<b>c"), []string{"html", "body", "script"}, rec))
	var text string
	for _, ev := range rec.Events {
		if ev.Type == sax.Characters {
			text += ev.Text
		}
		require.NotEqual(t, sax.StartElement, ev.Type, "script fragment content must stay raw")
	}
	assert.Equal(t, "a<b>c", text)
}

func TestParsePullMode(t *testing.T) {
	rec := &sax.Recorder{}
	p := New(DefaultConfig())
	require.NoError(t, p.SetInput(strings.NewReader("<p>a</p><p>b</p>"), rec))
	for {
		more, err := p.Scan(false)
		require.NoError(t, err)
		if !more {
			break
		}
	}
	assert.Equal(t, sax.EndDocument, rec.Events[len(rec.Events)-1].Type)
}

func TestParseCleanup(t *testing.T) {
	rec := &sax.Recorder{}
	p := New(DefaultConfig())
	require.NoError(t, p.SetInput(strings.NewReader("<p>a</p>"), rec))
	_, err := p.Scan(false)
	require.NoError(t, err)
	p.Cleanup(true)
	more, err := p.Scan(false)
	require.NoError(t, err)
	assert.False(t, more, "scan after cleanup(closeAll) reports end of document")
}

func TestEvaluateInputSource(t *testing.T) {
	var injected bool
	var texts []string
	p := New(DefaultConfig())
	h := sax.HandlerFunc(func(ev *sax.Event) error {
		if ev.Type == sax.Characters {
			texts = append(texts, ev.Text)
		}
		if ev.Type == sax.StartElement && ev.Name == "p" && !injected {
			injected = true
			return nil
		}
		return nil
	})
	require.NoError(t, p.SetInput(strings.NewReader("<p>tail"), h))
	// Scan up to the <p>, then inject content the way a script emulator
	// would.
	for !injected {
		more, err := p.Scan(false)
		require.NoError(t, err)
		require.True(t, more)
	}
	require.NoError(t, p.EvaluateInputSource(strings.NewReader("mid")))
	_, err := p.Scan(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"midtail"}, texts)
}

func TestConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.CDATAEarlyClosing)
	assert.True(t, cfg.ParseNoscriptContent)
	assert.True(t, cfg.BalanceTags)
	assert.False(t, cfg.Augmentations)
	assert.Equal(t, "windows-1252", cfg.DefaultEncoding)
	assert.Equal(t, sax.HTML401TransitionalPubID, cfg.DoctypePubID)
	assert.Equal(t, sax.HTML401TransitionalSysID, cfg.DoctypeSysID)
	assert.Equal(t, 616, cfg.ReaderBufferSize)
}

func TestAugmentations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Augmentations = true
	events := parseEvents(t, cfg, "<p>\nhi</p>")
	for _, ev := range events {
		if ev.Type == sax.Characters {
			require.NotNil(t, ev.Aug)
			assert.Equal(t, 1, ev.Aug.Begin.Line)
			assert.Equal(t, 4, ev.Aug.Begin.Column)
		}
		if ev.Type == sax.EndElement && ev.Name == "p" {
			require.NotNil(t, ev.Aug)
			assert.False(t, ev.Synthesized)
			assert.Equal(t, 2, ev.Aug.Begin.Line)
		}
		if ev.Type == sax.StartElement && ev.Name == "html" {
			assert.True(t, ev.Synthesized)
		}
	}
}
