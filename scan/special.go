package scan

import (
	"io"
	"strings"

	"github.com/tamehtml/tamehtml/elem"
	"github.com/tamehtml/tamehtml/sax"
)

// dispatchSpecial switches the scanner to the raw-text personality for a
// just-opened special element.
func (s *Scanner) dispatchSpecial(name string, e *elem.Element) {
	s.specialName = name
	s.specialElem = e
	switch e.Code {
	case elem.Script:
		s.personality = pScript
		s.scriptState = scriptData
	case elem.Plaintext:
		s.personality = pPlainText
	default:
		s.personality = pSpecial
	}
}

// scanSpecial scans the content of a raw-text element (style, textarea,
// title, iframe, xmp, ...) until "</name" followed by whitespace or '>'.
// Entity references are resolved only inside textarea and title.
func (s *Scanner) scanSpecial() (bool, error) {
	name := s.specialName
	resolveEntities := s.specialElem.Code == elem.Textarea || s.specialElem.Code == elem.Title
	begin := s.loc()
	var text strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			if err := s.emitSpecialText(text.String(), begin); err != nil {
				return false, err
			}
			s.personality = pContent
			return false, s.endDocument()
		}
		if err != nil {
			return false, err
		}
		switch c {
		case '<':
			done, err := s.trySpecialEnd(name)
			if err != nil {
				return false, err
			}
			if done {
				endBegin := s.loc()
				if err := s.emitSpecialText(text.String(), begin); err != nil {
					return false, err
				}
				if _, err := s.src.SkipMarkup(false); err != nil {
					return false, err
				}
				s.personality = pContent
				ev := &sax.Event{Type: sax.EndElement, Name: sax.ApplyCase(s.opts.ElemNames, s.specialElem.Lowercase)}
				return true, s.emit(ev, endBegin, s.loc())
			}
			text.WriteByte('<')
		case '&':
			if resolveEntities {
				res, _, err := s.scanEntityRef(true)
				if err != nil {
					return false, err
				}
				text.WriteString(res)
			} else {
				text.WriteByte('&')
			}
		case '\r', '\n':
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return false, err
			}
			text.WriteString(strings.Repeat("\n", n))
		default:
			text.WriteRune(c)
		}
	}
}

// trySpecialEnd probes for "/name" right after a '<', requiring the next
// character to be whitespace, '>' or end of input. On a miss the probe is
// fully unwound.
func (s *Scanner) trySpecialEnd(name string) (bool, error) {
	ok, err := s.src.Skip("/" + name)
	if err != nil || !ok {
		return false, err
	}
	c, err := s.src.Peek()
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if IsSpace(c) || c == '>' {
		return true, nil
	}
	s.src.Rewind(1 + len(name))
	return false, nil
}

// emitSpecialText delivers accumulated raw-text content, applying the
// style delimiter-stripping features where they are enabled.
func (s *Scanner) emitSpecialText(text string, begin sax.Location) error {
	if s.specialElem.Code == elem.Style {
		if s.opts.StyleStripCommentDelims {
			text = stripDelims(text, "<!--", "-->")
		}
		if s.opts.StyleStripCDATADelims {
			text = stripDelims(text, "<![CDATA[", "]]>")
		}
	}
	if text == "" {
		return nil
	}
	return s.emit(&sax.Event{Type: sax.Characters, Text: text}, begin, s.loc())
}

// stripDelims removes a surrounding opener/closer delimiter pair.
func stripDelims(text, opener, closer string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, opener) && strings.HasSuffix(trimmed, closer) && len(trimmed) >= len(opener)+len(closer) {
		return trimmed[len(opener) : len(trimmed)-len(closer)]
	}
	return text
}

type scriptState int

const (
	scriptData scriptState = iota
	scriptEscaped
	scriptDoubleEscaped
)

// scanScript scans script content with the script-data escape rules:
// "<!--" opens an escaped region in which "<script>" nests, and a
// "</script" only ends the element in states that permit it.
func (s *Scanner) scanScript() (bool, error) {
	begin := s.loc()
	var text strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			if err := s.emitScriptText(text.String(), begin); err != nil {
				return false, err
			}
			s.personality = pContent
			return false, s.endDocument()
		}
		if err != nil {
			return false, err
		}
		switch c {
		case '<':
			done, err := s.trySpecialEnd("script")
			if err != nil {
				return false, err
			}
			if done {
				if s.scriptState == scriptDoubleEscaped {
					text.WriteString("</script")
					s.scriptState = scriptEscaped
					continue
				}
				endBegin := s.loc()
				if err := s.emitScriptText(text.String(), begin); err != nil {
					return false, err
				}
				if _, err := s.src.SkipMarkup(false); err != nil {
					return false, err
				}
				s.personality = pContent
				ev := &sax.Event{Type: sax.EndElement, Name: sax.ApplyCase(s.opts.ElemNames, "script")}
				return true, s.emit(ev, endBegin, s.loc())
			}
			if s.scriptState == scriptEscaped {
				if ok, err := s.src.Skip("script"); err != nil {
					return false, err
				} else if ok {
					text.WriteString("<script")
					s.scriptState = scriptDoubleEscaped
					continue
				}
			}
			if s.scriptState == scriptData {
				if ok, err := s.src.Skip("!--"); err != nil {
					return false, err
				} else if ok {
					text.WriteString("<!--")
					s.scriptState = scriptEscaped
					continue
				}
			}
			text.WriteByte('<')
		case '-':
			if s.scriptState != scriptData {
				if ok, err := s.src.Skip("->"); err != nil {
					return false, err
				} else if ok {
					text.WriteString("-->")
					s.scriptState = scriptData
					continue
				}
				if ok, err := s.src.Skip("-!>"); err != nil {
					return false, err
				} else if ok {
					text.WriteString("--!>")
					s.scriptState = scriptData
					continue
				}
			}
			text.WriteByte('-')
		case '\r', '\n':
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return false, err
			}
			text.WriteString(strings.Repeat("\n", n))
		default:
			text.WriteRune(c)
		}
	}
}

func (s *Scanner) emitScriptText(text string, begin sax.Location) error {
	if s.opts.ScriptStripCommentDelims {
		text = stripDelims(text, "<!--", "-->")
	}
	if s.opts.ScriptStripCDATADelims {
		text = stripDelims(text, "<![CDATA[", "]]>")
	}
	if text == "" {
		return nil
	}
	return s.emit(&sax.Event{Type: sax.Characters, Text: text}, begin, s.loc())
}

// scanPlainText consumes all remaining input verbatim: no tags, entities
// or comments are recognized after <plaintext>.
func (s *Scanner) scanPlainText() (bool, error) {
	begin := s.loc()
	var text strings.Builder
	for {
		c, err := s.read()
		if err == io.EOF {
			if text.Len() > 0 {
				if err := s.emit(&sax.Event{Type: sax.Characters, Text: text.String()}, begin, s.loc()); err != nil {
					return false, err
				}
			}
			return false, s.endDocument()
		}
		if err != nil {
			return false, err
		}
		if c == '\r' || c == '\n' {
			s.src.Rewind(1)
			n, err := s.src.SkipNewlines()
			if err != nil {
				return false, err
			}
			text.WriteString(strings.Repeat("\n", n))
			continue
		}
		text.WriteRune(c)
	}
}
