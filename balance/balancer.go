// Package balance turns the scanner's raw event stream into a well-formed
// one: it maintains the stack of open elements, synthesizes the implied
// html/head/body structure, closes elements with optional end tags,
// re-opens misnested inline elements, and enforces the containment rules
// of select, frameset, table and template.
//
// The balancer is a deterministic filter: given the same input events and
// options it always produces the same output sequence. Synthesized events
// are inserted at the point where recovery happens, never backfilled.
package balance

import (
	"strings"

	"github.com/tamehtml/tamehtml/elem"
	"github.com/tamehtml/tamehtml/sax"
)

// Options configure a Balancer.
type Options struct {
	Reporter sax.ErrorReporter

	// InsertDoctype emits a synthetic doctype when the document has none.
	InsertDoctype bool
	// OverrideDoctype replaces scanned doctype identifiers with the
	// configured ones.
	OverrideDoctype bool
	DoctypePubID    string
	DoctypeSysID    string

	// IgnoreOutsideContent discards content after </body>; when off, the
	// trailing end tags are deferred and replayed at end of document so
	// out-of-order content is recovered.
	IgnoreOutsideContent bool

	// FragmentContext pre-populates the element stack for fragment
	// parsing; those frames are never popped.
	FragmentContext []string

	ElemNames sax.NameCase
}

// entry is one frame of the open-element stack. Inline frames carry a copy
// of their attributes so they can be re-opened after a misnest; the
// scanner reuses its attribute storage, hence the copy.
type entry struct {
	e     *elem.Element
	name  string
	attrs []sax.Attribute
}

// Balancer filters events between the scanner and the host handler.
type Balancer struct {
	next sax.Handler
	opts Options

	stack         []entry
	inlineScratch []entry
	fragmentBound int

	seenAnything    bool
	seenDoctype     bool
	seenRootElement bool
	seenRootEnd     bool
	seenHead        bool
	seenBody        bool
	seenBodyEnd     bool
	seenFrameset    bool
	seenCharacters  bool

	openedForm       bool
	openedSvg        bool
	openedSelect     bool
	templateFragment bool

	// lostText buffers character data seen before <body> exists; it is
	// replayed, with its original augmentations, once body is opened.
	lostText []sax.Event

	// deferredEnd buffers </head>, </body> and </html> until end of
	// document (or until body content flushes the head entry).
	deferredEnd []sax.Event

	// discardedStart remembers names of rejected start tags so their end
	// tags are swallowed instead of closing an ancestor.
	discardedStart []string

	ignoreOutside bool
	draining      bool
}

// New returns a Balancer delivering well-formed events to next.
func New(next sax.Handler, opts Options) *Balancer {
	if opts.Reporter == nil {
		opts.Reporter = sax.NopReporter()
	}
	b := &Balancer{next: next, opts: opts, ignoreOutside: opts.IgnoreOutsideContent}
	b.Reset()
	return b
}

// Reset prepares the balancer for a new document.
func (b *Balancer) Reset() {
	b.stack = b.stack[:0]
	b.inlineScratch = b.inlineScratch[:0]
	b.seenAnything = false
	b.seenDoctype = false
	b.seenRootElement = false
	b.seenRootEnd = false
	b.seenHead = false
	b.seenBody = false
	b.seenBodyEnd = false
	b.seenFrameset = false
	b.seenCharacters = false
	b.openedForm = false
	b.openedSvg = false
	b.openedSelect = false
	b.templateFragment = false
	b.lostText = nil
	b.deferredEnd = nil
	b.discardedStart = nil
	b.ignoreOutside = b.opts.IgnoreOutsideContent
	b.draining = false
	b.fragmentBound = 0
	for _, name := range b.opts.FragmentContext {
		e := elem.Lookup(name)
		b.stack = append(b.stack, entry{e: e, name: name})
	}
	b.fragmentBound = len(b.stack)
	if b.fragmentBound > 0 {
		b.seenRootElement = true
		b.seenHead = true
		b.seenBody = true
	}
}

// HandleEvent implements sax.Handler.
func (b *Balancer) HandleEvent(ev *sax.Event) error {
	switch ev.Type {
	case sax.StartDocument:
		b.seenAnything = true
		return b.emit(ev)
	case sax.XMLDecl:
		return b.emit(ev)
	case sax.DoctypeDecl:
		return b.doctype(ev)
	case sax.Comment, sax.ProcessingInstruction:
		return b.emit(ev)
	case sax.StartCDATA, sax.EndCDATA:
		return b.emit(ev)
	case sax.StartElement:
		return b.startElement(ev, false)
	case sax.EmptyElement:
		return b.startElement(ev, true)
	case sax.EndElement:
		return b.endElement(ev)
	case sax.Characters:
		return b.characters(ev)
	case sax.EndDocument:
		return b.endDocument(ev)
	}
	return b.emit(ev)
}

func (b *Balancer) emit(ev *sax.Event) error { return b.next.HandleEvent(ev) }

func (b *Balancer) warn(key string, args ...any)  { b.opts.Reporter.ReportWarning(key, args...) }
func (b *Balancer) error(key string, args ...any) { b.opts.Reporter.ReportError(key, args...) }

// synthAug derives a zero-length span at the begin point of the event that
// triggered the synthesis.
func synthAug(ev *sax.Event) *sax.Augmentations {
	if ev == nil || ev.Aug == nil {
		return nil
	}
	return &sax.Augmentations{Begin: ev.Aug.Begin, End: ev.Aug.Begin}
}

func (b *Balancer) caseName(e *elem.Element, asWritten string) string {
	if e.Code == elem.Unknown {
		return sax.ApplyCase(b.opts.ElemNames, asWritten)
	}
	return sax.ApplyCase(b.opts.ElemNames, e.Lowercase)
}

func (b *Balancer) top() *entry {
	if len(b.stack) == 0 {
		return nil
	}
	return &b.stack[len(b.stack)-1]
}

// push records an open element. Inline frames clone their attributes.
func (b *Balancer) push(e *elem.Element, name string, attrs []sax.Attribute) {
	var saved []sax.Attribute
	if e.IsInline() && len(attrs) > 0 {
		saved = append([]sax.Attribute(nil), attrs...)
	}
	b.stack = append(b.stack, entry{e: e, name: name, attrs: saved})
	switch e.Code {
	case elem.Html:
		b.seenRootElement = true
	case elem.Head:
		b.seenHead = true
	case elem.Body:
		b.seenBody = true
	case elem.Frameset:
		b.seenFrameset = true
	case elem.Template:
		b.templateFragment = true
	case elem.Svg:
		b.openedSvg = true
	case elem.Select:
		if !b.templateFragment {
			b.openedSelect = true
		}
	case elem.Form:
		b.openedForm = true
	}
}

// pop closes the top frame, emitting an end event. aug carries the real
// augmentations for a scanned end tag; synthesized closes pass a derived
// zero-width span.
func (b *Balancer) pop(aug *sax.Augmentations, synthesized bool) error {
	top := b.top()
	if top == nil || len(b.stack) <= b.fragmentBound {
		return nil
	}
	fr := *top
	b.stack = b.stack[:len(b.stack)-1]
	switch fr.e.Code {
	case elem.Head:
		// A buffered </head> is moot once the head frame is gone.
		for i := 0; i < len(b.deferredEnd); i++ {
			if strings.EqualFold(b.deferredEnd[i].Name, "head") {
				b.deferredEnd = append(b.deferredEnd[:i], b.deferredEnd[i+1:]...)
				i--
			}
		}
	case elem.Select:
		b.openedSelect = false
	case elem.Svg:
		b.openedSvg = false
	case elem.Template:
		b.templateFragment = false
	case elem.Form:
		b.openedForm = false
	}
	ev := &sax.Event{Type: sax.EndElement, Name: fr.name, Aug: aug, Synthesized: synthesized}
	return b.emit(ev)
}

// popToIncluding closes every frame above and including index i.
func (b *Balancer) popToIncluding(i int, trigger *sax.Event) error {
	for len(b.stack) > i && len(b.stack) > b.fragmentBound {
		if err := b.pop(synthAug(trigger), true); err != nil {
			return err
		}
	}
	return nil
}

// indexOf returns the topmost stack index holding code, or -1.
func (b *Balancer) indexOf(code elem.Code) int {
	for i := len(b.stack) - 1; i >= b.fragmentBound; i-- {
		if b.stack[i].e.Code == code {
			return i
		}
	}
	return -1
}

func (b *Balancer) insideTemplate() bool {
	return b.indexOf(elem.Template) >= 0
}

// doctype processes a doctype declaration.
func (b *Balancer) doctype(ev *sax.Event) error {
	if b.seenDoctype || b.seenRootElement {
		return nil
	}
	b.seenDoctype = true
	b.seenAnything = true
	if b.opts.OverrideDoctype {
		ov := *ev
		ov.PublicID = b.opts.DoctypePubID
		ov.SystemID = b.opts.DoctypeSysID
		return b.emit(&ov)
	}
	return b.emit(ev)
}

// maybeInsertDoctype emits the configured synthetic doctype ahead of the
// first element when the document declared none.
func (b *Balancer) maybeInsertDoctype(trigger *sax.Event) error {
	if !b.opts.InsertDoctype || b.seenDoctype {
		return nil
	}
	b.seenDoctype = true
	ev := &sax.Event{
		Type:        sax.DoctypeDecl,
		Name:        sax.ApplyCase(b.opts.ElemNames, "html"),
		PublicID:    b.opts.DoctypePubID,
		SystemID:    b.opts.DoctypeSysID,
		Aug:         synthAug(trigger),
		Synthesized: true,
	}
	return b.emit(ev)
}

// startSynth opens an element that did not appear in the input.
func (b *Balancer) startSynth(code elem.Code, trigger *sax.Event) error {
	e := elem.Get(code)
	name := b.caseName(e, e.Lowercase)
	ev := &sax.Event{Type: sax.StartElement, Name: name, Aug: synthAug(trigger), Synthesized: true}
	if err := b.emit(ev); err != nil {
		return err
	}
	b.push(e, name, nil)
	return nil
}

// flushDeferredHead emits a buffered </head> once content is known to
// belong to body.
func (b *Balancer) flushDeferredHead() error {
	for i, ev := range b.deferredEnd {
		if !strings.EqualFold(ev.Name, "head") {
			continue
		}
		b.deferredEnd = append(b.deferredEnd[:i], b.deferredEnd[i+1:]...)
		if idx := b.indexOf(elem.Head); idx >= 0 {
			return b.popToIncluding(idx, &ev)
		}
		return nil
	}
	// No explicit </head> buffered; close an open head directly.
	if idx := b.indexOf(elem.Head); idx >= 0 {
		return b.popToIncluding(idx, nil)
	}
	return nil
}

// forceBody opens <body> (creating <html> and an empty head if needed) and
// replays any lost text inside it.
func (b *Balancer) forceBody(trigger *sax.Event) error {
	if err := b.maybeInsertDoctype(trigger); err != nil {
		return err
	}
	if !b.seenRootElement {
		if err := b.startSynth(elem.Html, trigger); err != nil {
			return err
		}
	}
	if !b.seenHead {
		if err := b.startSynth(elem.Head, trigger); err != nil {
			return err
		}
	}
	if err := b.flushDeferredHead(); err != nil {
		return err
	}
	b.seenBody = true
	if err := b.startSynth(elem.Body, trigger); err != nil {
		return err
	}
	lost := b.lostText
	b.lostText = nil
	for i := range lost {
		if err := b.emit(&lost[i]); err != nil {
			return err
		}
	}
	return nil
}

// hasParentWithinBounds reports whether one of d's preferred parents is on
// the stack, without climbing past d.Bounds.
func (b *Balancer) hasParentWithinBounds(d *elem.Element) bool {
	for i := len(b.stack) - 1; i >= 0; i-- {
		fr := b.stack[i].e
		if d.HasParent(fr.Code) {
			return true
		}
		if d.Bounds != 0 && fr.Code == d.Bounds {
			return false
		}
	}
	return false
}

// ensureParent synthesizes d's natural parent chain when none is open.
func (b *Balancer) ensureParent(d *elem.Element, trigger *sax.Event) error {
	if len(d.Parents) == 0 {
		return nil
	}
	if b.hasParentWithinBounds(d) {
		// The parent may be buried under an open head; body-parented
		// content still needs the head flushed.
		if d.HasParent(elem.Body) && b.seenBody {
			return nil
		}
		if !d.HasParent(elem.Body) {
			return nil
		}
	}
	parent := elem.Get(d.Parents[0])
	switch parent.Code {
	case elem.Body:
		if b.seenBody {
			return nil
		}
		b.warn(sax.KeyImplicitParent, parent.Lowercase, d.Lowercase)
		return b.forceBody(trigger)
	case elem.Html:
		if b.seenRootElement {
			return nil
		}
		b.warn(sax.KeyImplicitParent, parent.Lowercase, d.Lowercase)
		return b.startSynth(elem.Html, trigger)
	case elem.Head:
		if b.seenHead {
			return nil
		}
		if err := b.ensureParent(parent, trigger); err != nil {
			return err
		}
		b.warn(sax.KeyImplicitParent, parent.Lowercase, d.Lowercase)
		return b.startSynth(elem.Head, trigger)
	default:
		if err := b.ensureParent(parent, trigger); err != nil {
			return err
		}
		b.warn(sax.KeyImplicitParent, parent.Lowercase, d.Lowercase)
		return b.startSynth(parent.Code, trigger)
	}
}

// discard remembers a rejected start tag so its end tag is swallowed.
func (b *Balancer) discard(name string) {
	b.discardedStart = append(b.discardedStart, strings.ToLower(name))
}

// swallowDiscarded consumes a pending discarded name matching an end tag.
func (b *Balancer) swallowDiscarded(name string) bool {
	lower := strings.ToLower(name)
	for i, n := range b.discardedStart {
		if n == lower {
			b.discardedStart = append(b.discardedStart[:i], b.discardedStart[i+1:]...)
			return true
		}
	}
	return false
}

// startElement applies the open policy to a scanned start (or empty)
// element event.
func (b *Balancer) startElement(ev *sax.Event, empty bool) error {
	b.seenAnything = true
	d := elem.Lookup(ev.Name)

	// 1. Content after the document root is over.
	if b.seenRootEnd {
		b.warn(sax.KeyContentAfterRoot)
		b.discard(ev.Name)
		return nil
	}

	// 2. Containment rules.
	if b.openedSelect && !b.insideTemplate() {
		switch d.Code {
		case elem.Option, elem.Optgroup, elem.Script, elem.Hr:
			// allowed
		case elem.Select:
			// A nested select acts as a close of the outer one.
			if idx := b.indexOf(elem.Select); idx >= 0 {
				return b.popToIncluding(idx, ev)
			}
			return nil
		default:
			b.warn(sax.KeyDiscardedElement, d.Lowercase)
			b.discard(ev.Name)
			return nil
		}
	}
	if b.seenFrameset && b.indexOf(elem.Frameset) >= 0 {
		switch d.Code {
		case elem.Frame, elem.Frameset, elem.Noframes:
		default:
			b.warn(sax.KeyDiscardedElement, d.Lowercase)
			b.discard(ev.Name)
			return nil
		}
	}
	if !b.openedSvg {
		switch d.Code {
		case elem.Html:
			if b.seenRootElement {
				b.warn(sax.KeyExtraRootElement, d.Lowercase)
				b.discard(ev.Name)
				return nil
			}
		case elem.Head:
			if b.seenHead {
				b.warn(sax.KeyExtraRootElement, d.Lowercase)
				b.discard(ev.Name)
				return nil
			}
		case elem.Body:
			if b.seenBody {
				b.warn(sax.KeyExtraRootElement, d.Lowercase)
				b.discard(ev.Name)
				return nil
			}
		}
	}
	if d.Code == elem.Frame && b.seenHead && b.indexOf(elem.Frameset) < 0 {
		b.warn(sax.KeyFrameOutsideFrames)
		b.discard(ev.Name)
		return nil
	}

	// 3. Form bookkeeping: nested forms are dropped, and a form opened in
	// a table row context closes immediately so cells are not reparented.
	if d.Code == elem.Form {
		if b.openedForm {
			b.warn(sax.KeyFormAlreadyOpen)
			b.discard(ev.Name)
			return nil
		}
		if b.inTableRowContext() {
			if err := b.maybeInsertDoctype(ev); err != nil {
				return err
			}
			name := b.caseName(d, ev.Name)
			if err := b.emit(&sax.Event{Type: sax.StartElement, Name: name, Attrs: ev.Attrs, Aug: ev.Aug}); err != nil {
				return err
			}
			return b.emit(&sax.Event{Type: sax.EndElement, Name: name, Aug: synthAug(ev), Synthesized: true})
		}
	}

	// 4. A table opening inside a row context closes the outer table.
	if d.Code == elem.Table {
		if idx := b.tableInTableIndex(); idx >= 0 {
			if err := b.popToIncluding(idx, ev); err != nil {
				return err
			}
		}
	}

	if err := b.maybeInsertDoctype(ev); err != nil {
		return err
	}

	// An explicit <body> still owes the document its head: synthesize an
	// empty one (or flush a deferred </head>) before the body opens.
	if d.Code == elem.Body && b.fragmentBound == 0 {
		if !b.seenRootElement {
			if err := b.startSynth(elem.Html, ev); err != nil {
				return err
			}
		}
		if !b.seenHead {
			if err := b.startSynth(elem.Head, ev); err != nil {
				return err
			}
		}
		if err := b.flushDeferredHead(); err != nil {
			return err
		}
	}

	// 5. Synthesize the natural parent chain if it is missing.
	if err := b.ensureParent(d, ev); err != nil {
		return err
	}

	// 6. A block interrupts open inline elements; they are saved and
	// re-opened inside it.
	b.inlineScratch = b.inlineScratch[:0]
	if d.IsBlock() {
		for len(b.stack) > b.fragmentBound {
			top := b.top()
			if !top.e.IsInline() {
				break
			}
			b.inlineScratch = append(b.inlineScratch, *top)
			if err := b.pop(synthAug(ev), true); err != nil {
				return err
			}
		}
	}

	// 7. An unclosed script never stays open across another tag, except
	// while the head is being filled.
	if top := b.top(); top != nil && top.e.Code == elem.Script {
		inHead := len(b.stack) >= 2 && b.stack[len(b.stack)-2].e.Code == elem.Head
		if !inHead {
			if err := b.pop(synthAug(ev), true); err != nil {
				return err
			}
		}
	}

	// 8. Implicit closes: walk the stack closing elements this one ends,
	// stopping at a template, a block boundary, or the natural parent.
	if len(d.Closes) > 0 {
		i := len(b.stack) - 1
		for i >= b.fragmentBound {
			fr := b.stack[i]
			if fr.e.Code == elem.Template {
				break
			}
			if d.ClosesCode(fr.e.Code) {
				b.warn(sax.KeyImplicitClose, fr.e.Lowercase, d.Lowercase)
				if err := b.popToIncluding(i, ev); err != nil {
					return err
				}
				i--
				continue
			}
			if d.HasParent(fr.e.Code) {
				break
			}
			if fr.e.IsBlock() {
				break
			}
			i--
		}
	}

	// 9. Emit and push, then re-open any interrupted inline elements.
	name := b.caseName(d, ev.Name)
	out := &sax.Event{Type: sax.StartElement, Name: name, Attrs: ev.Attrs, Aug: ev.Aug}
	if empty || d.IsEmpty() {
		out.Type = sax.EmptyElement
		if err := b.emit(out); err != nil {
			return err
		}
	} else {
		if err := b.emit(out); err != nil {
			return err
		}
		b.push(d, name, ev.Attrs)
		if d.Code == elem.Body && len(b.lostText) > 0 {
			lost := b.lostText
			b.lostText = nil
			for i := range lost {
				if err := b.emit(&lost[i]); err != nil {
					return err
				}
			}
		}
	}

	for i := len(b.inlineScratch) - 1; i >= 0; i-- {
		saved := b.inlineScratch[i]
		reopen := &sax.Event{
			Type:        sax.StartElement,
			Name:        saved.name,
			Attrs:       saved.attrs,
			Aug:         synthAug(ev),
			Synthesized: true,
		}
		if err := b.emit(reopen); err != nil {
			return err
		}
		b.push(saved.e, saved.name, saved.attrs)
	}
	b.inlineScratch = b.inlineScratch[:0]
	return nil
}

// inTableRowContext reports whether the innermost table structure frame is
// a row or row group (not a cell or caption).
func (b *Balancer) inTableRowContext() bool {
	for i := len(b.stack) - 1; i >= b.fragmentBound; i-- {
		switch b.stack[i].e.Code {
		case elem.Tr, elem.Thead, elem.Tbody, elem.Tfoot:
			return true
		case elem.Td, elem.Th, elem.Caption, elem.Table:
			return false
		}
	}
	return false
}

// tableInTableIndex finds the table frame an incoming table must close
// first: a table, row or row-group ancestor not separated by a cell.
func (b *Balancer) tableInTableIndex() int {
	for i := len(b.stack) - 1; i >= b.fragmentBound; i-- {
		switch b.stack[i].e.Code {
		case elem.Td, elem.Th, elem.Caption:
			return -1
		case elem.Tr, elem.Thead, elem.Tbody, elem.Tfoot:
			// Close up to the owning table.
			for j := i; j >= b.fragmentBound; j-- {
				if b.stack[j].e.Code == elem.Table {
					return j
				}
			}
			return i
		case elem.Table:
			return i
		}
	}
	return -1
}

// endElement applies the close policy to a scanned end tag.
func (b *Balancer) endElement(ev *sax.Event) error {
	d := elem.Lookup(ev.Name)

	if b.seenRootEnd {
		return nil
	}
	if b.swallowDiscarded(ev.Name) {
		return nil
	}
	if b.seenBodyEnd && b.ignoreOutside && d.Code != elem.Html && d.Code != elem.Body {
		return nil
	}

	// select containment: an end tag for anything not allowed inside
	// select is dropped unless it is the select itself (or an option
	// structure).
	if b.openedSelect && !b.insideTemplate() {
		switch d.Code {
		case elem.Select, elem.Option, elem.Optgroup, elem.Script, elem.Hr:
		default:
			return nil
		}
	}

	// </head>, </body> and </html> are deferred so content arriving after
	// them can still be placed; they replay at end of document.
	if !b.ignoreOutside && !b.draining {
		switch d.Code {
		case elem.Body, elem.Html, elem.Head:
			if b.indexOf(d.Code) < 0 {
				break
			}
			for _, q := range b.deferredEnd {
				if strings.EqualFold(q.Name, ev.Name) {
					return nil
				}
			}
			cp := *ev
			b.deferredEnd = append(b.deferredEnd, cp)
			return nil
		}
	}

	// Locate the matching frame, honoring the block/table boundaries.
	depth := -1
	idx := -1
	for i := len(b.stack) - 1; i >= b.fragmentBound; i-- {
		fr := b.stack[i]
		matches := fr.e.Code == d.Code
		if d.Code == elem.Unknown {
			matches = fr.e.Code == elem.Unknown && strings.EqualFold(fr.name, ev.Name)
		}
		if matches {
			depth = len(b.stack) - i
			idx = i
			break
		}
		if fr.e.IsBlock() && !d.IsContainer() {
			break
		}
		if fr.e.Code == elem.Table && !canCloseTable(d) {
			break
		}
		if d.HasParent(fr.e.Code) {
			break
		}
	}

	if depth == -1 {
		// A stray </p> materializes an empty paragraph; a stray </br>
		// acts like <br>. Everything else is dropped.
		switch d.Code {
		case elem.P:
			if err := b.startElement(&sax.Event{Type: sax.StartElement, Name: ev.Name, Aug: synthAug(ev), Synthesized: true}, false); err != nil {
				return err
			}
			if idx := b.indexOf(elem.P); idx >= 0 {
				return b.popToIncluding(idx, ev)
			}
			return nil
		case elem.Br:
			return b.startElement(&sax.Event{Type: sax.StartElement, Name: ev.Name, Aug: synthAug(ev), Synthesized: true}, true)
		}
		b.warn(sax.KeyStrayEndTag, ev.Name)
		return nil
	}

	// Misnested inline elements above the match are saved and re-opened.
	b.inlineScratch = b.inlineScratch[:0]
	if depth > 1 && d.IsInline() {
		for i := len(b.stack) - 1; i > idx; i-- {
			fr := b.stack[i]
			if fr.e.IsInline() || fr.e.Code == elem.Font {
				b.warn(sax.KeyMisnestedInline, fr.e.Lowercase)
				b.inlineScratch = append(b.inlineScratch, fr)
			}
		}
	}

	// Close intervening frames, then the matched one with the real
	// augmentations.
	for len(b.stack) > idx+1 {
		if err := b.pop(synthAug(ev), true); err != nil {
			return err
		}
	}
	if err := b.pop(ev.Aug, false); err != nil {
		return err
	}
	if d.Code == elem.Html {
		b.seenRootEnd = true
	}
	if d.Code == elem.Body {
		b.seenBodyEnd = true
	}

	for i := 0; i < len(b.inlineScratch); i++ {
		saved := b.inlineScratch[i]
		reopen := &sax.Event{
			Type:        sax.StartElement,
			Name:        saved.name,
			Attrs:       saved.attrs,
			Aug:         synthAug(ev),
			Synthesized: true,
		}
		if err := b.emit(reopen); err != nil {
			return err
		}
		b.push(saved.e, saved.name, saved.attrs)
	}
	b.inlineScratch = b.inlineScratch[:0]
	return nil
}

// canCloseTable reports whether an end tag may reach through an open
// table.
func canCloseTable(d *elem.Element) bool {
	switch d.Code {
	case elem.Table, elem.Html, elem.Body:
		return true
	}
	return false
}

// characters applies the text placement policy.
func (b *Balancer) characters(ev *sax.Event) error {
	b.seenAnything = true
	if b.seenBodyEnd && b.ignoreOutside {
		return nil
	}
	ws := isWhitespace(ev.Text)
	if !b.seenRootElement && b.fragmentBound == 0 {
		if ws {
			cp := *ev
			cp.Attrs = nil
			b.lostText = append(b.lostText, cp)
			return nil
		}
		if err := b.forceBody(ev); err != nil {
			return err
		}
		b.seenCharacters = true
		return b.emit(ev)
	}
	// Directly inside html or head, whitespace vanishes and real text
	// forces the body open.
	if !b.seenBody && b.fragmentBound == 0 {
		if ws && b.shallowHeadContext() {
			return nil
		}
		if !b.insideHeadSpecial() {
			if err := b.forceBody(ev); err != nil {
				return err
			}
		}
	}
	b.seenCharacters = true
	return b.emit(ev)
}

// shallowHeadContext reports whether text would land directly inside html
// or head rather than inside a head element like title or script.
func (b *Balancer) shallowHeadContext() bool {
	if len(b.stack) > 2 {
		return false
	}
	for i := range b.stack {
		switch b.stack[i].e.Code {
		case elem.Html, elem.Head:
		default:
			return false
		}
	}
	return true
}

// insideHeadSpecial reports whether the open element accepts text while
// the head is still being filled (title, style, script, textarea...).
func (b *Balancer) insideHeadSpecial() bool {
	top := b.top()
	return top != nil && (top.e.IsSpecial() || top.e.Code == elem.Title)
}

// endDocument drains deferred end tags, closes everything still open and
// ends the document.
func (b *Balancer) endDocument(ev *sax.Event) error {
	b.ignoreOutside = true
	b.draining = true

	// An html document that never grew a body gets its implied structure
	// before the final closes, so consumers always see head and body.
	if b.seenRootElement && !b.seenBody && !b.seenFrameset && b.fragmentBound == 0 && b.indexOf(elem.Html) >= 0 {
		if err := b.forceBody(ev); err != nil {
			return err
		}
	}

	deferred := b.deferredEnd
	b.deferredEnd = nil
	for i := range deferred {
		if err := b.endElement(&deferred[i]); err != nil {
			return err
		}
	}
	for len(b.stack) > b.fragmentBound {
		if err := b.pop(synthAug(ev), true); err != nil {
			return err
		}
	}
	return b.emit(ev)
}

func isWhitespace(s string) bool {
	for _, c := range s {
		switch c {
		case ' ', '\t', '\n', '\r', '\f':
		default:
			return false
		}
	}
	return true
}
