// Package tamehtml is a permissive HTML parser: it accepts arbitrary,
// frequently malformed HTML byte streams and produces a well-formed stream
// of document events. Tokenization and tag balancing follow the intent of
// the WHATWG HTML standard without requiring strict conformance; the parser
// never fails on malformed markup, only on I/O errors.
//
// The pipeline per document is
//
//	bytes → decoder → scan.Scanner → balance.Balancer → sax.Handler
//
// A Parser instance is single-goroutine; separate instances may run
// concurrently. The element registry and entity tables are immutable
// package-level data shared by all instances.
package tamehtml

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/text/encoding"

	"github.com/tamehtml/tamehtml/balance"
	"github.com/tamehtml/tamehtml/elem"
	"github.com/tamehtml/tamehtml/sax"
	"github.com/tamehtml/tamehtml/scan"
)

// Config carries the feature flags and properties. Field comments note the
// defaults produced by DefaultConfig; the zero value of Config is usable
// but turns every optional behavior off.
type Config struct {
	// Augmentations attaches begin/end line/column/offset spans to events.
	Augmentations bool
	// ReportErrors routes recoverable problems to the ErrorReporter.
	ReportErrors bool
	// IgnoreSpecifiedCharset disables <meta> and <?xml?> encoding switches.
	IgnoreSpecifiedCharset bool

	CDATASections     bool
	CDATAEarlyClosing bool // default true

	ScriptStripCDATADelims   bool
	ScriptStripCommentDelims bool
	StyleStripCDATADelims    bool
	StyleStripCommentDelims  bool

	OverrideDoctype bool
	InsertDoctype   bool

	ParseNoscriptContent   bool // default true
	AllowSelfClosingIframe bool
	AllowSelfClosingScript bool
	AllowSelfClosingTags   bool

	NormalizeAttrs  bool
	PlainAttrValues bool

	// BalanceTags enables the tag balancer; default true. Without it the
	// raw scanner events reach the handler unfiltered.
	BalanceTags bool
	// DocumentFragment parses input as a fragment in the context given by
	// FragmentContextStack.
	DocumentFragment     bool
	IgnoreOutsideContent bool

	// ElemNames and AttrNames are "upper", "lower" or "default".
	ElemNames string
	AttrNames string

	// DefaultEncoding labels the decoder used until the document declares
	// otherwise. Default "windows-1252".
	DefaultEncoding string
	// EncodingTranslator overrides charset label resolution.
	EncodingTranslator EncodingTranslator

	ErrorReporter sax.ErrorReporter

	// DoctypePubID and DoctypeSysID are used by InsertDoctype and
	// OverrideDoctype. Defaults are the HTML 4.01 Transitional pair.
	DoctypePubID string
	DoctypeSysID string

	ReaderBufferSize int // default scan.DefaultBufferSize

	FragmentContextStack []string
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		CDATAEarlyClosing:    true,
		ParseNoscriptContent: true,
		BalanceTags:          true,
		ElemNames:            "default",
		AttrNames:            "default",
		DefaultEncoding:      "windows-1252",
		DoctypePubID:         sax.HTML401TransitionalPubID,
		DoctypeSysID:         sax.HTML401TransitionalSysID,
		ReaderBufferSize:     scan.DefaultBufferSize,
	}
}

// ErrNoInput is returned by Scan when no input has been set.
var ErrNoInput = errors.New("tamehtml: no input source set")

// Parser drives the scan/balance pipeline over one document at a time.
// A Parser must not be shared between goroutines while a parse is active;
// it may be reused for subsequent documents.
type Parser struct {
	cfg      Config
	reporter sax.ErrorReporter

	scanner  *scan.Scanner
	balancer *balance.Balancer
	playback *playbackReader

	curEncoding encoding.Encoding
	curLabel    string
}

// New returns a Parser for the given configuration.
func New(cfg Config) *Parser {
	p := &Parser{cfg: cfg}
	p.reporter = sax.NopReporter()
	if cfg.ReportErrors && cfg.ErrorReporter != nil {
		p.reporter = cfg.ErrorReporter
	}
	return p
}

// Parse runs a complete parse of r, delivering events to h. Malformed
// markup never fails the parse; only I/O errors and handler errors do.
func (p *Parser) Parse(r io.Reader, h sax.Handler) error {
	if err := p.SetInput(r, h); err != nil {
		return err
	}
	_, err := p.Scan(true)
	return err
}

// ParseFragment parses r as a document fragment inside the given context
// chain (outermost first), e.g. ["html", "body", "div"].
func (p *Parser) ParseFragment(r io.Reader, context []string, h sax.Handler) error {
	cfg := p.cfg
	cfg.DocumentFragment = true
	cfg.FragmentContextStack = context
	fp := New(cfg)
	fp.reporter = p.reporter
	return fp.Parse(r, h)
}

// SetInput prepares the pipeline for pull-mode scanning of r.
func (p *Parser) SetInput(r io.Reader, h sax.Handler) error {
	p.playback = newPlaybackReader(r)
	p.curEncoding, p.curLabel = defaultEncoding(p.cfg.EncodingTranslator, p.cfg.DefaultEncoding)

	sink := h
	if p.cfg.BalanceTags {
		p.balancer = balance.New(h, balance.Options{
			Reporter:             p.reporter,
			InsertDoctype:        p.cfg.InsertDoctype,
			OverrideDoctype:      p.cfg.OverrideDoctype,
			DoctypePubID:         p.cfg.DoctypePubID,
			DoctypeSysID:         p.cfg.DoctypeSysID,
			IgnoreOutsideContent: p.cfg.IgnoreOutsideContent,
			FragmentContext:      p.fragmentContext(),
			ElemNames:            sax.ParseNameCase(p.cfg.ElemNames),
		})
		sink = p.balancer
	}

	src := scan.NewSource(decodedReader(p.playback, p.curEncoding), p.cfg.ReaderBufferSize)
	src.Encoding = p.curLabel
	p.scanner = scan.NewScanner(src, sink, scan.Options{
		Reporter:                 p.reporter,
		Augmentations:            p.cfg.Augmentations,
		CDATASections:            p.cfg.CDATASections,
		CDATAEarlyClosing:        p.cfg.CDATAEarlyClosing,
		ScriptStripCommentDelims: p.cfg.ScriptStripCommentDelims,
		ScriptStripCDATADelims:   p.cfg.ScriptStripCDATADelims,
		StyleStripCommentDelims:  p.cfg.StyleStripCommentDelims,
		StyleStripCDATADelims:    p.cfg.StyleStripCDATADelims,
		ParseNoscriptContent:     p.cfg.ParseNoscriptContent,
		AllowSelfClosingIframe:   p.cfg.AllowSelfClosingIframe,
		AllowSelfClosingScript:   p.cfg.AllowSelfClosingScript,
		AllowSelfClosingTags:     p.cfg.AllowSelfClosingTags,
		NormalizeAttrs:           p.cfg.NormalizeAttrs,
		PlainAttrValues:          p.cfg.PlainAttrValues,
		IgnoreSpecifiedCharset:   p.cfg.IgnoreSpecifiedCharset,
		ElemNames:                sax.ParseNameCase(p.cfg.ElemNames),
		AttrNames:                sax.ParseNameCase(p.cfg.AttrNames),
		SwitchEncoding:           p.switchEncoding,
		DiscardPlayback:          p.discardPlayback,
	})

	if ctx := p.fragmentContext(); len(ctx) > 0 {
		last := ctx[len(ctx)-1]
		if elem.Lookup(last).IsSpecial() {
			p.scanner.EnterSpecial(last)
		}
	}
	return nil
}

func (p *Parser) fragmentContext() []string {
	if !p.cfg.DocumentFragment {
		return nil
	}
	return p.cfg.FragmentContextStack
}

// Scan advances the parse: to completion when complete is true, otherwise
// by one token. The result is false once the document has ended.
func (p *Parser) Scan(complete bool) (bool, error) {
	if p.scanner == nil {
		return false, ErrNoInput
	}
	return p.scanner.Scan(complete)
}

// PushInputSource injects an already-decoded character stream to be
// scanned before the current source resumes. Typically called from a
// handler, in the manner of a script emulator inserting document.write
// output.
func (p *Parser) PushInputSource(r io.Reader) {
	if p.scanner == nil {
		return
	}
	p.scanner.PushSource(scan.NewSource(r, p.cfg.ReaderBufferSize))
}

// EvaluateInputSource injects r and scans it to exhaustion before
// returning; the outer source then resumes at its saved position.
func (p *Parser) EvaluateInputSource(r io.Reader) error {
	if p.scanner == nil {
		return ErrNoInput
	}
	target := p.scanner.SourceStackDepth()
	p.PushInputSource(r)
	for p.scanner.SourceStackDepth() > target {
		more, err := p.scanner.Scan(false)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
	return nil
}

// Cleanup abandons the parse, popping any nested input sources. With
// closeAll, subsequent Scan calls report end of document.
func (p *Parser) Cleanup(closeAll bool) {
	if p.scanner != nil {
		p.scanner.Cleanup(closeAll)
	}
}

// switchEncoding implements the mid-parse charset switch with replay.
func (p *Parser) switchEncoding(label string) {
	if p.playback == nil || !p.playback.Recording() {
		return
	}
	enc, name := lookupEncoding(p.cfg.EncodingTranslator, label)
	if enc == nil {
		p.reporter.ReportError(sax.KeyUnknownEncoding, label)
		return
	}
	if strings.EqualFold(name, p.curLabel) {
		// Declared charset matches the current one; nothing to redo.
		return
	}
	if strings.EqualFold(label, ReplacementEncoding) {
		p.scanner.Source().SetReader(strings.NewReader("�"))
		p.playback.Discard()
		p.curEncoding, p.curLabel = enc, name
		p.scanner.RestartSkipping(0)
		return
	}
	if !compatibleEncodings(p.curEncoding, enc) {
		p.reporter.ReportError(sax.KeyIncompatibleEncoding, p.curLabel, name)
		return
	}
	// Replay the recorded bytes under the new decoder, suppressing events
	// for the elements already delivered.
	count := p.scanner.ElementCount()
	p.playback.Rewind()
	p.scanner.Source().SetReader(decodedReader(p.playback, enc))
	p.scanner.Source().Encoding = name
	p.curEncoding, p.curLabel = enc, name
	p.scanner.RestartSkipping(count)
}

func (p *Parser) discardPlayback() {
	if p.playback != nil {
		p.playback.Discard()
	}
}

