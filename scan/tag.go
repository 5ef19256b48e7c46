package scan

import (
	"io"
	"strings"

	"github.com/tamehtml/tamehtml/elem"
	"github.com/tamehtml/tamehtml/entity"
	"github.com/tamehtml/tamehtml/sax"
)

// scanEntityRef resolves a character reference; the '&' is already
// consumed. It returns the replacement text and the raw source text the
// replacement stands for. When nothing resolves, the replacement is the
// literal text read so far and the overread characters are pushed back.
// content distinguishes element content from attribute values: inside a
// value an unterminated legacy reference followed by '=' or an
// alphanumeric stays unresolved for compatibility with historic URLs like
// "?a=b&not=c".
func (s *Scanner) scanEntityRef(content bool) (resolved string, raw string, err error) {
	c, err := s.src.ReadPreserving()
	if err == io.EOF {
		return "&", "&", nil
	}
	if err != nil {
		return "", "", err
	}
	if c == '#' {
		return s.scanNumericRef()
	}
	s.src.Rewind(1)
	if !IsAlpha(c) {
		return "&", "&", nil
	}

	n := entity.Root()
	var last *entity.Node
	consumed := 0
	var fed []rune
	for {
		c, err := s.src.ReadPreserving()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", err
		}
		consumed++
		fed = append(fed, c)
		next := entity.Step(n, c)
		if next == n {
			break
		}
		n = next
		if n.IsMatch() {
			last = n
		}
		if n.IsEnd() {
			break
		}
	}
	if last == nil {
		s.src.Rewind(consumed)
		return "&", "&", nil
	}
	matchLen := len(last.Fragment())
	if !content && !last.EndsWithSemicolon() && consumed > matchLen {
		follow := fed[matchLen]
		if follow == '=' || IsAlnum(follow) {
			s.src.Rewind(consumed)
			return "&", "&", nil
		}
	}
	s.src.Rewind(consumed - matchLen)
	if !last.EndsWithSemicolon() {
		s.warn(sax.KeyMissingSemicolon, "&"+last.Fragment())
	}
	return last.Resolved(), "&" + last.Fragment(), nil
}

// scanNumericRef resolves "&#..." after the '#' is consumed.
func (s *Scanner) scanNumericRef() (resolved string, raw string, err error) {
	p := &entity.NumericParser{}
	consumed := 0
	var fed []rune
	done := false
	for !done {
		c, err := s.src.ReadPreserving()
		if err == io.EOF {
			p.Done()
			break
		}
		if err != nil {
			return "", "", err
		}
		consumed++
		fed = append(fed, c)
		if !p.Parse(c) {
			done = true
		}
	}
	s.src.Rewind(p.RewindCount)
	if p.Match == "" {
		return "&#", "&#", nil
	}
	if p.MissingSemicolon {
		s.warn(sax.KeyMissingSemicolon, "&#"+string(fed[:p.MatchLength]))
	}
	if p.BadCodePoint {
		s.error(sax.KeyInvalidCodePoint, "&#"+string(fed[:p.MatchLength]))
	}
	return p.Match, "&#" + string(fed[:p.MatchLength]), nil
}

// scanName reads an element or attribute-adjacent name permissively.
func (s *Scanner) scanName() (string, error) {
	var b strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return "", err
		}
		if IsSpace(c) || c == '/' || c == '>' || c == '<' {
			s.src.Rewind(1)
			return b.String(), nil
		}
		b.WriteRune(c)
	}
}

// scanStartTag scans a start tag; the '<' is consumed and the next
// character is known to be a letter.
func (s *Scanner) scanStartTag(begin sax.Location) error {
	rawName, err := s.scanName()
	if err != nil {
		return err
	}
	attrs, selfClosing, err := s.scanAttributes(rawName)
	if err != nil {
		return err
	}
	e := elem.Lookup(rawName)

	// Charset handling while the byte playback is still live: a suitable
	// <meta> switches encodings; reaching body content discards the
	// playback and pins the current encoding. When the switch restarts the
	// source, this <meta> is not emitted now; the replay delivers it.
	if e.Code == elem.Meta && s.opts.SwitchEncoding != nil && !s.opts.IgnoreSpecifiedCharset {
		if label := metaCharset(attrs); label != "" {
			s.opts.SwitchEncoding(label)
			if s.src.CharOffset() == 0 {
				return nil
			}
		}
	}
	if s.opts.DiscardPlayback != nil && (e.Code == elem.Body || (len(e.Parents) > 0 && e.Parents[0] == elem.Body)) {
		s.opts.DiscardPlayback()
	}

	s.elementCount++
	honored := selfClosing && (s.opts.AllowSelfClosingTags ||
		e.IsEmpty() ||
		(e.Code == elem.Script && s.opts.AllowSelfClosingScript) ||
		(e.Code == elem.Iframe && s.opts.AllowSelfClosingIframe))

	ev := &sax.Event{Type: sax.StartElement, Name: sax.ApplyCase(s.opts.ElemNames, rawName), Attrs: attrs}
	if honored {
		ev.Type = sax.EmptyElement
	}
	if err := s.emit(ev, begin, s.loc()); err != nil {
		return err
	}
	if honored {
		return nil
	}
	if e.IsSpecial() {
		if e.Code == elem.Noscript && s.opts.ParseNoscriptContent {
			return nil
		}
		s.dispatchSpecial(rawName, e)
	}
	return nil
}

// scanAttributes scans the attribute list of a start tag up to and
// including the closing '>'.
func (s *Scanner) scanAttributes(elemName string) ([]sax.Attribute, bool, error) {
	var attrs []sax.Attribute
	first := true
	for {
		skipped, err := s.src.SkipSpaces()
		if err != nil {
			return nil, false, err
		}
		c, err := s.read()
		if err == io.EOF {
			s.warn(sax.KeyUnexpectedEOD, "<"+elemName+">")
			return attrs, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		switch c {
		case '>':
			return attrs, false, nil
		case '/':
			if ok, err := s.src.Skip(">"); err != nil {
				return nil, false, err
			} else if ok {
				return attrs, true, nil
			}
			// A stray slash between attributes is skipped.
			continue
		}
		if skipped == 0 && !first {
			s.error(sax.KeyMissingWhitespace, elemName)
		}
		first = false
		s.src.Rewind(1)
		attr, err := s.scanAttribute(elemName)
		if err != nil {
			return nil, false, err
		}
		if attr.Name == "" {
			continue
		}
		if _, dup := findAttr(attrs, attr.Name); !dup {
			attrs = append(attrs, attr)
		}
	}
}

func findAttr(attrs []sax.Attribute, name string) (int, bool) {
	for i := range attrs {
		if strings.EqualFold(attrs[i].Name, name) {
			return i, true
		}
	}
	return -1, false
}

func (s *Scanner) scanAttribute(elemName string) (sax.Attribute, error) {
	var attr sax.Attribute
	var name strings.Builder

	c, err := s.read()
	if err != nil {
		return attr, err
	}
	if c == '=' {
		// A stray '=' before any name: fold it into the following name so
		// nothing is silently dropped.
		s.error(sax.KeyMissingAttrName, "=")
		name.WriteByte('=')
	} else {
		s.src.Rewind(1)
	}
	for {
		c, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return attr, err
		}
		if IsSpace(c) || c == '=' || c == '/' || c == '>' {
			s.src.Rewind(1)
			break
		}
		if c == '<' {
			s.error(sax.KeyStrayLessThan, elemName)
		}
		name.WriteRune(c)
	}
	attr.Name = sax.ApplyCase(s.opts.AttrNames, name.String())
	attr.Specified = true

	if _, err := s.src.SkipSpaces(); err != nil {
		return attr, err
	}
	eq, err := s.src.Skip("=")
	if err != nil {
		return attr, err
	}
	if !eq {
		return attr, nil
	}
	if _, err := s.src.SkipSpaces(); err != nil {
		return attr, err
	}
	value, raw, quote, err := s.scanAttrValue()
	if err != nil {
		return attr, err
	}
	if s.opts.NormalizeAttrs {
		value = normalizeSpace(value)
	}
	attr.Value = value
	attr.Quote = quote
	if s.opts.PlainAttrValues {
		attr.Raw = raw
	}
	return attr, nil
}

func (s *Scanner) scanAttrValue() (value, raw string, quote byte, err error) {
	c, err := s.src.Peek()
	if err == io.EOF {
		return "", "", 0, nil
	}
	if err != nil {
		return "", "", 0, err
	}
	var val, rawB strings.Builder
	if c == '"' || c == '\'' {
		quote = byte(c)
		if _, err := s.read(); err != nil {
			return "", "", 0, err
		}
		for {
			c, err := s.read()
			if err == io.EOF {
				s.warn(sax.KeyUnterminatedLiteral)
				break
			}
			if err != nil {
				return "", "", 0, err
			}
			if c == rune(quote) {
				break
			}
			switch c {
			case '&':
				res, rw, err := s.scanEntityRef(false)
				if err != nil {
					return "", "", 0, err
				}
				val.WriteString(res)
				rawB.WriteString(rw)
			case '\r', '\n':
				s.src.Rewind(1)
				n, err := s.src.SkipNewlines()
				if err != nil {
					return "", "", 0, err
				}
				val.WriteString(strings.Repeat("\n", n))
				rawB.WriteString(strings.Repeat("\n", n))
			default:
				val.WriteRune(c)
				rawB.WriteRune(c)
			}
		}
		return val.String(), rawB.String(), quote, nil
	}
	for {
		c, err := s.read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", "", 0, err
		}
		if IsSpace(c) || c == '>' {
			s.src.Rewind(1)
			break
		}
		if c == '&' {
			res, rw, err := s.scanEntityRef(false)
			if err != nil {
				return "", "", 0, err
			}
			val.WriteString(res)
			rawB.WriteString(rw)
			continue
		}
		val.WriteRune(c)
		rawB.WriteRune(c)
	}
	return val.String(), rawB.String(), 0, nil
}

// scanEndTag scans "</...>"; the "</" is consumed.
func (s *Scanner) scanEndTag(begin sax.Location) error {
	name, err := s.scanName()
	if err != nil {
		return err
	}
	if _, err := s.src.SkipMarkup(false); err != nil {
		return err
	}
	if name == "" {
		return nil
	}
	ev := &sax.Event{Type: sax.EndElement, Name: sax.ApplyCase(s.opts.ElemNames, name)}
	return s.emit(ev, begin, s.loc())
}

// normalizeSpace collapses runs of whitespace to single spaces and trims.
func normalizeSpace(s string) string {
	var b strings.Builder
	space := false
	for _, c := range s {
		if IsSpace(c) {
			space = true
			continue
		}
		if space && b.Len() > 0 {
			b.WriteByte(' ')
		}
		space = false
		b.WriteRune(c)
	}
	return b.String()
}

// metaCharset extracts a charset label from a <meta> element: either the
// charset attribute, or a content-type http-equiv with a charset parameter.
func metaCharset(attrs []sax.Attribute) string {
	var httpEquiv, content, charset string
	for _, a := range attrs {
		switch strings.ToLower(a.Name) {
		case "http-equiv":
			httpEquiv = a.Value
		case "content":
			content = a.Value
		case "charset":
			charset = a.Value
		}
	}
	if charset != "" {
		return strings.TrimSpace(charset)
	}
	if !strings.EqualFold(strings.TrimSpace(httpEquiv), "content-type") {
		return ""
	}
	lower := strings.ToLower(content)
	i := strings.Index(lower, "charset=")
	if i < 0 {
		return ""
	}
	label := content[i+len("charset="):]
	label = strings.Trim(label, " \t\r\n\f\"';")
	if j := strings.IndexAny(label, " \t\r\n\f;\"'"); j >= 0 {
		label = label[:j]
	}
	return label
}
