package scan

import (
	"io"
	"strings"

	"github.com/tamehtml/tamehtml/elem"
	"github.com/tamehtml/tamehtml/sax"
)

// Options configure a Scanner. The zero value matches the documented
// feature defaults except CDATAEarlyClosing and ParseNoscriptContent,
// which default to on; use DefaultOptions.
type Options struct {
	Reporter sax.ErrorReporter

	Augmentations bool

	CDATASections     bool
	CDATAEarlyClosing bool

	ScriptStripCommentDelims bool
	ScriptStripCDATADelims   bool
	StyleStripCommentDelims  bool
	StyleStripCDATADelims    bool

	ParseNoscriptContent   bool
	AllowSelfClosingIframe bool
	AllowSelfClosingScript bool
	AllowSelfClosingTags   bool

	NormalizeAttrs  bool
	PlainAttrValues bool

	IgnoreSpecifiedCharset bool

	ElemNames sax.NameCase
	AttrNames sax.NameCase

	// SwitchEncoding is invoked when a <meta> or <?xml?> declares a
	// charset. Nil disables the encoding switch.
	SwitchEncoding func(label string)
	// DiscardPlayback is invoked when <body> (or any element whose natural
	// parent is body) starts: no further encoding switch is possible.
	DiscardPlayback func()
}

// DefaultOptions returns the documented feature defaults.
func DefaultOptions() Options {
	return Options{
		CDATAEarlyClosing:    true,
		ParseNoscriptContent: true,
	}
}

type personality int

const (
	pContent personality = iota
	pSpecial
	pScript
	pPlainText
)

type scanState int

const (
	stStartDocument scanState = iota
	stContent
	stEndDocument
)

// Scanner is the tokenizer. It pulls characters from the current source,
// recognizes markup, and emits low-level events to its handler. A stack of
// suspended sources supports nested input injected by the host.
type Scanner struct {
	opts Options
	h    sax.Handler

	src      *Source
	srcStack []*Source

	personality personality
	specialName string // raw-text element being scanned
	specialElem *elem.Element
	state       scanState

	text      strings.Builder
	textBegin sax.Location

	scriptState scriptState

	// elementCount counts start elements scanned; after an encoding-switch
	// restart, events are suppressed until skipTarget start elements have
	// been re-scanned.
	elementCount int
	skipTarget   int
	skipSeen     int
	skipping     bool
}

// NewScanner returns a Scanner reading from src and delivering events to h.
func NewScanner(src *Source, h sax.Handler, opts Options) *Scanner {
	if opts.Reporter == nil {
		opts.Reporter = sax.NopReporter()
	}
	return &Scanner{opts: opts, h: h, src: src}
}

// Source returns the current character source.
func (s *Scanner) Source() *Source { return s.src }

// PushSource suspends the current source and scans from src until it is
// exhausted, then resumes the outer source at its saved position.
func (s *Scanner) PushSource(src *Source) {
	s.srcStack = append(s.srcStack, s.src)
	s.src = src
}

// Cleanup pops the entity stack. With closeAll the current source is
// dropped too and subsequent scans report end of document.
func (s *Scanner) Cleanup(closeAll bool) {
	s.srcStack = nil
	if closeAll {
		s.state = stEndDocument
	}
}

// ElementCount returns the number of start elements scanned so far.
func (s *Scanner) ElementCount() int { return s.elementCount }

// SourceStackDepth returns how many suspended sources are stacked under
// the current one.
func (s *Scanner) SourceStackDepth() int { return len(s.srcStack) }

// RestartSkipping arms event suppression for an encoding-switch restart:
// events are swallowed until n start elements have been re-scanned.
func (s *Scanner) RestartSkipping(n int) {
	s.skipTarget = n
	s.skipSeen = 0
	s.skipping = n > 0
	s.elementCount = 0
	s.personality = pContent
	s.state = stContent
	s.text.Reset()
}

// EnterSpecial puts the scanner directly into the raw-text state for the
// named element. Used for fragment parsing with a special context element.
func (s *Scanner) EnterSpecial(name string) {
	s.dispatchSpecial(name, elem.Lookup(name))
}

// Scan drives the tokenizer. With complete it runs to end of document;
// otherwise it returns after the next token boundary. The result is false
// once the document has ended.
func (s *Scanner) Scan(complete bool) (bool, error) {
	for {
		more, err := s.step()
		if err != nil {
			return false, err
		}
		if !more || !complete {
			return more, nil
		}
	}
}

func (s *Scanner) step() (bool, error) {
	switch s.state {
	case stStartDocument:
		begin := s.loc()
		if err := s.emit(&sax.Event{Type: sax.StartDocument}, begin, begin); err != nil {
			return false, err
		}
		s.state = stContent
		return true, nil
	case stEndDocument:
		return false, nil
	}
	switch s.personality {
	case pSpecial:
		return s.scanSpecial()
	case pScript:
		return s.scanScript()
	case pPlainText:
		return s.scanPlainText()
	}
	return s.stepContent()
}

// read pulls the next character, resuming the enclosing source when a
// nested one runs dry.
func (s *Scanner) read() (rune, error) {
	for {
		c, err := s.src.Read()
		if err == io.EOF && len(s.srcStack) > 0 {
			s.src = s.srcStack[len(s.srcStack)-1]
			s.srcStack = s.srcStack[:len(s.srcStack)-1]
			continue
		}
		return c, err
	}
}

func (s *Scanner) loc() sax.Location {
	return sax.Location{Line: s.src.Line(), Column: s.src.Column(), Offset: s.src.CharOffset()}
}

func (s *Scanner) emit(ev *sax.Event, begin, end sax.Location) error {
	if s.opts.Augmentations {
		ev.Aug = &sax.Augmentations{Begin: begin, End: end}
	}
	if s.skipping {
		switch ev.Type {
		case sax.StartElement, sax.EmptyElement:
			s.skipSeen++
			if s.skipSeen > s.skipTarget {
				s.skipping = false
				return s.h.HandleEvent(ev)
			}
		case sax.EndDocument:
			s.skipping = false
			return s.h.HandleEvent(ev)
		}
		return nil
	}
	return s.h.HandleEvent(ev)
}

func (s *Scanner) warn(key string, args ...any)  { s.opts.Reporter.ReportWarning(key, args...) }
func (s *Scanner) error(key string, args ...any) { s.opts.Reporter.ReportError(key, args...) }

func (s *Scanner) appendTextString(str string, begin sax.Location) {
	if s.text.Len() == 0 {
		s.textBegin = begin
	}
	s.text.WriteString(str)
}

// flushText emits pending character data, if any.
func (s *Scanner) flushText() error {
	if s.text.Len() == 0 {
		return nil
	}
	txt := s.text.String()
	s.text.Reset()
	return s.emit(&sax.Event{Type: sax.Characters, Text: txt}, s.textBegin, s.loc())
}

// stepContent scans one token in the normal content state: a run of
// character data, or one markup construct.
func (s *Scanner) stepContent() (bool, error) {
	for {
		pre := s.loc()
		c, err := s.read()
		if err == io.EOF {
			return false, s.endDocument()
		}
		if err != nil {
			return false, err
		}
		switch c {
		case '<':
			if s.text.Len() > 0 {
				d, err := s.src.Peek()
				if err != nil && err != io.EOF {
					return false, err
				}
				if err == io.EOF || !(d == '!' || d == '?' || d == '/' || IsAlpha(d)) {
					// A bracket that cannot open markup stays in the current run.
					s.appendTextString("<", pre)
					continue
				}
				s.src.Rewind(1)
				if err := s.flushText(); err != nil {
					return false, err
				}
				if _, err := s.read(); err != nil {
					return false, err
				}
			}
			if err := s.scanMarkup(); err != nil {
				return false, err
			}
			return true, nil
		case '&':
			txt, _, err := s.scanEntityRef(true)
			if err != nil {
				return false, err
			}
			s.appendTextString(txt, pre)
		case '\r', '\n':
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return false, err
			}
			s.appendTextString(strings.Repeat("\n", n), pre)
		default:
			s.appendTextString(string(c), pre)
		}
	}
}

func (s *Scanner) endDocument() error {
	if err := s.flushText(); err != nil {
		return err
	}
	s.state = stEndDocument
	loc := s.loc()
	return s.emit(&sax.Event{Type: sax.EndDocument}, loc, loc)
}

// scanMarkup handles everything after '<'. The begin location points at
// the bracket.
func (s *Scanner) scanMarkup() error {
	begin := s.loc()
	begin.Column--
	begin.Offset--
	c, err := s.read()
	if err == io.EOF {
		s.appendTextString("<", begin)
		return nil
	}
	if err != nil {
		return err
	}
	switch {
	case c == '!':
		return s.scanMarkupDecl(begin)
	case c == '?':
		return s.scanPI(begin)
	case c == '/':
		return s.scanEndTag(begin)
	case IsAlpha(c):
		s.src.Rewind(1)
		return s.scanStartTag(begin)
	default:
		// Not markup after all; the bracket is content.
		s.appendTextString("<", begin)
		s.src.Rewind(1)
		return nil
	}
}

// scanMarkupDecl handles "<!...". The probe order for degenerate comment
// openings matters: longer closers are tried first.
func (s *Scanner) scanMarkupDecl(begin sax.Location) error {
	for _, probe := range []string{"--->", "-->", "->", ">"} {
		ok, err := s.src.Skip(probe)
		if err != nil {
			return err
		}
		if ok {
			return s.emit(&sax.Event{Type: sax.Comment}, begin, s.loc())
		}
	}
	if ok, err := s.src.Skip("-!>"); err != nil {
		return err
	} else if ok {
		return s.emit(&sax.Event{Type: sax.Comment, Text: "-!"}, begin, s.loc())
	}
	if ok, err := s.src.Skip("--"); err != nil {
		return err
	} else if ok {
		return s.scanComment(begin)
	}
	if ok, err := s.src.Skip("[CDATA["); err != nil {
		return err
	} else if ok {
		return s.scanCDATA(begin)
	}
	if ok, err := s.src.Skip("DOCTYPE"); err != nil {
		return err
	} else if ok {
		return s.scanDoctype(begin)
	}
	_, err := s.src.SkipMarkup(true)
	return err
}

// scanComment consumes comment content until "-->" or "--!>". A bare "--"
// not followed by a closer contributes a single '-' and scanning resumes
// at the second dash.
func (s *Scanner) scanComment(begin sax.Location) error {
	var text strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnterminatedComment)
			return s.emit(&sax.Event{Type: sax.Comment, Text: text.String()}, begin, s.loc())
		}
		if err != nil {
			return err
		}
		switch c {
		case '-':
			d, err := s.src.Peek()
			if err == io.EOF {
				text.WriteByte('-')
				continue
			}
			if err != nil {
				return err
			}
			if d != '-' {
				text.WriteByte('-')
				continue
			}
			// "--" seen: a closer, or comment content.
			if ok, err := s.src.Skip("->"); err != nil {
				return err
			} else if ok {
				return s.emit(&sax.Event{Type: sax.Comment, Text: text.String()}, begin, s.loc())
			}
			if ok, err := s.src.Skip("-!>"); err != nil {
				return err
			} else if ok {
				return s.emit(&sax.Event{Type: sax.Comment, Text: text.String()}, begin, s.loc())
			}
			text.WriteByte('-')
		case '\r', '\n':
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return err
			}
			text.WriteString(strings.Repeat("\n", n))
		default:
			text.WriteRune(c)
		}
	}
}

// scanCDATA consumes a CDATA section. With the cdata-sections feature the
// content is delivered between startCDATA/endCDATA; otherwise the whole
// construct is reported as a comment wrapping the text, which is how HTML
// consumers expect it.
func (s *Scanner) scanCDATA(begin sax.Location) error {
	var text strings.Builder
	terminated := false
scanLoop:
	for {
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnterminatedCDATA)
			break
		}
		if err != nil {
			return err
		}
		switch c {
		case ']':
			if ok, err := s.src.Skip("]>"); err != nil {
				return err
			} else if ok {
				terminated = true
				break scanLoop
			}
			text.WriteByte(']')
		case '>':
			if s.opts.CDATAEarlyClosing {
				terminated = true
				break scanLoop
			}
			text.WriteByte('>')
		case '\r', '\n':
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return err
			}
			text.WriteString(strings.Repeat("\n", n))
		default:
			text.WriteRune(c)
		}
	}
	_ = terminated
	end := s.loc()
	if !s.opts.CDATASections {
		return s.emit(&sax.Event{Type: sax.Comment, Text: "[CDATA[" + text.String() + "]]"}, begin, end)
	}
	if err := s.emit(&sax.Event{Type: sax.StartCDATA}, begin, begin); err != nil {
		return err
	}
	if text.Len() > 0 {
		if err := s.emit(&sax.Event{Type: sax.Characters, Text: text.String()}, begin, end); err != nil {
			return err
		}
	}
	return s.emit(&sax.Event{Type: sax.EndCDATA}, end, end)
}

// scanDoctype scans "<!DOCTYPE ...>". Identifier parsing is permissive:
// a missing or unquoted identifier ends the scan of identifiers but the
// declaration itself is still reported.
func (s *Scanner) scanDoctype(begin sax.Location) error {
	if _, err := s.src.SkipSpaces(); err != nil {
		return err
	}
	var name strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnexpectedEOD, "DOCTYPE")
			break
		}
		if err != nil {
			return err
		}
		if IsSpace(c) || c == '>' {
			s.src.Rewind(1)
			break
		}
		name.WriteRune(c)
	}
	var rest strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if c == '>' {
			break
		}
		rest.WriteRune(c)
	}
	pub, sys := parseExternalID(rest.String())
	ev := &sax.Event{Type: sax.DoctypeDecl, Name: name.String(), PublicID: pub, SystemID: sys}
	return s.emit(ev, begin, s.loc())
}

// parseExternalID extracts the public and system identifiers following a
// doctype name.
func parseExternalID(s string) (pub, sys string) {
	s = strings.TrimLeft(s, whitespace)
	if len(s) < 6 {
		return "", ""
	}
	key := strings.ToLower(s[:6])
	s = s[6:]
	for key == "public" || key == "system" {
		s = strings.TrimLeft(s, whitespace)
		if s == "" {
			break
		}
		quote := s[0]
		if quote != '"' && quote != '\'' {
			break
		}
		s = s[1:]
		q := strings.IndexByte(s, quote)
		var id string
		if q == -1 {
			id = s
			s = ""
		} else {
			id = s[:q]
			s = s[q+1:]
		}
		if key == "public" {
			pub = id
			key = "system"
		} else {
			sys = id
			key = ""
		}
	}
	return pub, sys
}

const whitespace = " \t\r\n\f"

// scanPI scans a processing instruction. "<?xml ...?>" at the top of the
// document is the XML declaration and may trigger an encoding switch.
func (s *Scanner) scanPI(begin sax.Location) error {
	var target strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnterminatedPI)
			return nil
		}
		if err != nil {
			return err
		}
		if IsSpace(c) || c == '?' || c == '>' {
			s.src.Rewind(1)
			break
		}
		target.WriteRune(c)
	}
	if _, err := s.src.SkipSpaces(); err != nil {
		return err
	}
	var data strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnterminatedPI)
			break
		}
		if err != nil {
			return err
		}
		if c == '?' {
			if ok, err := s.src.Skip(">"); err != nil {
				return err
			} else if ok {
				break
			}
			data.WriteByte('?')
			continue
		}
		if c == '>' {
			break
		}
		if c == '\r' || c == '\n' {
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return err
			}
			data.WriteString(strings.Repeat("\n", n))
			continue
		}
		data.WriteRune(c)
	}
	end := s.loc()
	if strings.EqualFold(target.String(), "xml") && s.elementCount == 0 {
		version, encoding, standalone := parsePseudoAttrs(data.String())
		ev := &sax.Event{Type: sax.XMLDecl, Version: version, Encoding: encoding, Standalone: standalone}
		if err := s.emit(ev, begin, end); err != nil {
			return err
		}
		if encoding != "" && !s.opts.IgnoreSpecifiedCharset && s.opts.SwitchEncoding != nil {
			s.opts.SwitchEncoding(encoding)
		}
		return nil
	}
	ev := &sax.Event{Type: sax.ProcessingInstruction, Target: target.String(), Data: data.String()}
	return s.emit(ev, begin, end)
}

// parsePseudoAttrs pulls version/encoding/standalone out of an XML
// declaration body without insisting on well-formedness.
func parsePseudoAttrs(s string) (version, encoding, standalone string) {
	get := func(name string) string {
		i := strings.Index(strings.ToLower(s), name+"=")
		if i < 0 {
			return ""
		}
		v := s[i+len(name)+1:]
		if v == "" {
			return ""
		}
		if v[0] == '"' || v[0] == '\'' {
			q := v[0]
			v = v[1:]
			if j := strings.IndexByte(v, q); j >= 0 {
				return v[:j]
			}
			return v
		}
		if j := strings.IndexAny(v, whitespace+"?"); j >= 0 {
			return v[:j]
		}
		return v
	}
	return get("version"), get("encoding"), get("standalone")
}
