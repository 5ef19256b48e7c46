package elem

// Element codes. The order is the registry order; codes are dense and
// stable within a build, but hosts must not persist them across versions.
const (
	A Code = iota
	Abbr
	Acronym
	Address
	Applet
	Area
	Article
	Aside
	Audio
	B
	Base
	Basefont
	Bdi
	Bdo
	Bgsound
	Big
	Blink
	Blockquote
	Body
	Br
	Button
	Canvas
	Caption
	Center
	Cite
	CodeElem
	Col
	Colgroup
	CommentElem
	Data
	Datalist
	Dd
	Del
	Details
	Dfn
	Dialog
	Dir
	Div
	Dl
	Dt
	Em
	Embed
	Fieldset
	Figcaption
	Figure
	Font
	Footer
	Form
	Frame
	Frameset
	H1
	H2
	H3
	H4
	H5
	H6
	Head
	Header
	Hr
	Html
	I
	Iframe
	Img
	Input
	Ins
	Isindex
	Kbd
	Keygen
	Label
	Layer
	Legend
	Li
	Link
	Listing
	Main
	Map
	Mark
	Marquee
	Math
	Menu
	Meta
	Meter
	Multicol
	Nav
	Nextid
	Nobr
	Noembed
	Noframes
	Nolayer
	Noscript
	Object
	Ol
	Optgroup
	Option
	Output
	P
	Param
	Picture
	Plaintext
	Pre
	Progress
	Q
	Rb
	Rp
	Rt
	Ruby
	S
	Samp
	Script
	Section
	Select
	Slot
	Small
	Source
	Spacer
	Span
	Strike
	Strong
	Style
	Sub
	Summary
	Sup
	Svg
	Table
	Tbody
	Td
	Template
	Textarea
	Tfoot
	Th
	Thead
	Time
	Title
	Tr
	Track
	Tt
	U
	Ul
	Var
	Video
	Wbr
	Xmp
	Unknown
)

// Shared parent chains. Parents[0] is the parent synthesized on demand.
var (
	inBody     = []Code{Body}
	inHead     = []Code{Head}
	inHeadBody = []Code{Head, Body}
	inHtml     = []Code{Html}
	inTable    = []Code{Table}
	rowGroups  = []Code{Tbody, Thead, Tfoot}
	inSelect   = []Code{Select, Datalist, Optgroup}

	closesP    = []Code{P}
	closesCell = []Code{Td, Th}
	closesRow  = []Code{Tr, Td, Th, Caption, Colgroup}
	closesRowG = []Code{Thead, Tbody, Tfoot, Tr, Td, Th, Caption, Colgroup}
	closesHead = []Code{H1, H2, H3, H4, H5, H6, P}
)

var table = []Element{
	{Code: A, Name: "a", Flags: Inline | Container, Parents: inBody, Closes: []Code{A}},
	{Code: Abbr, Name: "abbr", Flags: Inline, Parents: inBody},
	{Code: Acronym, Name: "acronym", Flags: Inline, Parents: inBody},
	{Code: Address, Name: "address", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Applet, Name: "applet", Flags: Container, Parents: inBody},
	{Code: Area, Name: "area", Flags: Empty, Parents: []Code{Map, Body}},
	{Code: Article, Name: "article", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Aside, Name: "aside", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Audio, Name: "audio", Flags: Inline, Parents: inBody},
	{Code: B, Name: "b", Flags: Inline, Parents: inBody},
	{Code: Base, Name: "base", Flags: Empty, Parents: inHead},
	{Code: Basefont, Name: "basefont", Flags: Inline | Empty, Parents: inBody},
	{Code: Bdi, Name: "bdi", Flags: Inline, Parents: inBody},
	{Code: Bdo, Name: "bdo", Flags: Inline, Parents: inBody},
	{Code: Bgsound, Name: "bgsound", Flags: Empty, Parents: inBody},
	{Code: Big, Name: "big", Flags: Inline, Parents: inBody},
	{Code: Blink, Name: "blink", Flags: Inline, Parents: inBody},
	{Code: Blockquote, Name: "blockquote", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Body, Name: "body", Flags: Container, Parents: inHtml, Closes: []Code{Head}},
	{Code: Br, Name: "br", Flags: Empty, Parents: inBody},
	{Code: Button, Name: "button", Flags: Inline | Container, Parents: inBody, Closes: []Code{Button}},
	{Code: Canvas, Name: "canvas", Flags: Inline, Parents: inBody},
	{Code: Caption, Name: "caption", Flags: Container, Parents: inTable, Bounds: Table},
	{Code: Center, Name: "center", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Cite, Name: "cite", Flags: Inline, Parents: inBody},
	{Code: CodeElem, Name: "code", Flags: Inline, Parents: inBody},
	{Code: Col, Name: "col", Flags: Empty, Parents: []Code{Colgroup, Table}, Bounds: Table},
	{Code: Colgroup, Name: "colgroup", Flags: Container, Parents: inTable, Bounds: Table},
	{Code: CommentElem, Name: "comment", Flags: Special, Parents: inBody},
	{Code: Data, Name: "data", Flags: Inline, Parents: inBody},
	{Code: Datalist, Name: "datalist", Flags: Inline | Container, Parents: inBody},
	{Code: Dd, Name: "dd", Flags: Block, Parents: []Code{Dl, Body}, Closes: []Code{Dd, Dt, P}},
	{Code: Del, Name: "del", Flags: Inline, Parents: inBody},
	{Code: Details, Name: "details", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Dfn, Name: "dfn", Flags: Inline, Parents: inBody},
	{Code: Dialog, Name: "dialog", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Dir, Name: "dir", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Div, Name: "div", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Dl, Name: "dl", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Dt, Name: "dt", Flags: Block, Parents: []Code{Dl, Body}, Closes: []Code{Dd, Dt, P}},
	{Code: Em, Name: "em", Flags: Inline, Parents: inBody},
	{Code: Embed, Name: "embed", Flags: Empty, Parents: inBody},
	{Code: Fieldset, Name: "fieldset", Flags: Block | Container, Parents: inBody, Closes: closesP},
	{Code: Figcaption, Name: "figcaption", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Figure, Name: "figure", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Font, Name: "font", Flags: Inline, Parents: inBody},
	{Code: Footer, Name: "footer", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Form, Name: "form", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Frame, Name: "frame", Flags: Empty, Parents: []Code{Frameset}},
	{Code: Frameset, Name: "frameset", Flags: Container, Parents: inHtml},
	{Code: H1, Name: "h1", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: H2, Name: "h2", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: H3, Name: "h3", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: H4, Name: "h4", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: H5, Name: "h5", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: H6, Name: "h6", Flags: Block, Parents: inBody, Closes: closesHead},
	{Code: Head, Name: "head", Flags: Container, Parents: inHtml},
	{Code: Header, Name: "header", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Hr, Name: "hr", Flags: Empty, Parents: inBody, Closes: closesP},
	{Code: Html, Name: "html", Flags: Container},
	{Code: I, Name: "i", Flags: Inline, Parents: inBody},
	{Code: Iframe, Name: "iframe", Flags: Special | Container, Parents: inBody},
	{Code: Img, Name: "img", Flags: Empty, Parents: inBody},
	{Code: Input, Name: "input", Flags: Empty, Parents: inBody},
	{Code: Ins, Name: "ins", Flags: Inline, Parents: inBody},
	{Code: Isindex, Name: "isindex", Flags: Empty, Parents: inHeadBody},
	{Code: Kbd, Name: "kbd", Flags: Inline, Parents: inBody},
	{Code: Keygen, Name: "keygen", Flags: Empty, Parents: inBody},
	{Code: Label, Name: "label", Flags: Inline, Parents: inBody},
	{Code: Layer, Name: "layer", Flags: Block, Parents: inBody},
	{Code: Legend, Name: "legend", Parents: []Code{Fieldset, Body}},
	{Code: Li, Name: "li", Flags: Block, Parents: []Code{Ul, Ol, Menu, Dir, Body}, Closes: []Code{Li, P}},
	{Code: Link, Name: "link", Flags: Empty, Parents: inHead},
	{Code: Listing, Name: "listing", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Main, Name: "main", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Map, Name: "map", Flags: Inline | Container, Parents: inBody},
	{Code: Mark, Name: "mark", Flags: Inline, Parents: inBody},
	{Code: Marquee, Name: "marquee", Flags: Inline | Container, Parents: inBody},
	{Code: Math, Name: "math", Flags: Container, Parents: inBody},
	{Code: Menu, Name: "menu", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Meta, Name: "meta", Flags: Empty, Parents: inHead},
	{Code: Meter, Name: "meter", Flags: Inline, Parents: inBody},
	{Code: Multicol, Name: "multicol", Flags: Block, Parents: inBody},
	{Code: Nav, Name: "nav", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Nextid, Name: "nextid", Flags: Empty, Parents: inBody},
	{Code: Nobr, Name: "nobr", Flags: Inline, Parents: inBody, Closes: []Code{Nobr}},
	{Code: Noembed, Name: "noembed", Flags: Special, Parents: inBody},
	{Code: Noframes, Name: "noframes", Flags: Special, Parents: inBody},
	{Code: Nolayer, Name: "nolayer", Parents: inBody},
	{Code: Noscript, Name: "noscript", Flags: Special, Parents: inBody},
	{Code: Object, Name: "object", Flags: Inline | Container, Parents: inBody},
	{Code: Ol, Name: "ol", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Optgroup, Name: "optgroup", Flags: Container, Parents: inSelect, Bounds: Select, Closes: []Code{Option, Optgroup}},
	{Code: Option, Name: "option", Parents: inSelect, Bounds: Select, Closes: []Code{Option}},
	{Code: Output, Name: "output", Flags: Inline, Parents: inBody},
	{Code: P, Name: "p", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Param, Name: "param", Flags: Empty, Parents: []Code{Object, Applet, Body}},
	{Code: Picture, Name: "picture", Flags: Inline, Parents: inBody},
	{Code: Plaintext, Name: "plaintext", Flags: Special, Parents: inBody},
	{Code: Pre, Name: "pre", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Progress, Name: "progress", Flags: Inline, Parents: inBody},
	{Code: Q, Name: "q", Flags: Inline, Parents: inBody},
	{Code: Rb, Name: "rb", Flags: Inline, Parents: []Code{Ruby, Body}},
	{Code: Rp, Name: "rp", Flags: Inline, Parents: []Code{Ruby, Body}},
	{Code: Rt, Name: "rt", Flags: Inline, Parents: []Code{Ruby, Body}},
	{Code: Ruby, Name: "ruby", Flags: Inline, Parents: inBody},
	{Code: S, Name: "s", Flags: Inline, Parents: inBody},
	{Code: Samp, Name: "samp", Flags: Inline, Parents: inBody},
	{Code: Script, Name: "script", Flags: Special | ScriptSupporting, Parents: inHeadBody},
	{Code: Section, Name: "section", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Select, Name: "select", Flags: Inline | Container, Parents: inBody},
	{Code: Slot, Name: "slot", Flags: Inline, Parents: inBody},
	{Code: Small, Name: "small", Flags: Inline, Parents: inBody},
	{Code: Source, Name: "source", Flags: Empty, Parents: inBody},
	{Code: Spacer, Name: "spacer", Flags: Empty, Parents: inBody},
	{Code: Span, Name: "span", Flags: Inline, Parents: inBody},
	{Code: Strike, Name: "strike", Flags: Inline, Parents: inBody},
	{Code: Strong, Name: "strong", Flags: Inline, Parents: inBody},
	{Code: Style, Name: "style", Flags: Special, Parents: inHeadBody},
	{Code: Sub, Name: "sub", Flags: Inline, Parents: inBody},
	{Code: Summary, Name: "summary", Flags: Block, Parents: []Code{Details, Body}, Closes: closesP},
	{Code: Sup, Name: "sup", Flags: Inline, Parents: inBody},
	{Code: Svg, Name: "svg", Flags: Container, Parents: inBody},
	{Code: Table, Name: "table", Flags: Block | Container, Parents: inBody, Closes: closesP},
	{Code: Tbody, Name: "tbody", Flags: Container, Parents: inTable, Bounds: Table, Closes: closesRowG},
	{Code: Td, Name: "td", Flags: Container, Parents: []Code{Tr}, Bounds: Table, Closes: closesCell},
	{Code: Template, Name: "template", Flags: Container | ScriptSupporting, Parents: inHeadBody},
	{Code: Textarea, Name: "textarea", Flags: Special | Inline, Parents: inBody},
	{Code: Tfoot, Name: "tfoot", Flags: Container, Parents: inTable, Bounds: Table, Closes: closesRowG},
	{Code: Th, Name: "th", Flags: Container, Parents: []Code{Tr}, Bounds: Table, Closes: closesCell},
	{Code: Thead, Name: "thead", Flags: Container, Parents: inTable, Bounds: Table, Closes: closesRowG},
	{Code: Time, Name: "time", Flags: Inline, Parents: inBody},
	{Code: Title, Name: "title", Flags: Special, Parents: inHead},
	{Code: Tr, Name: "tr", Flags: Container, Parents: rowGroups, Bounds: Table, Closes: closesRow},
	{Code: Track, Name: "track", Flags: Empty, Parents: inBody},
	{Code: Tt, Name: "tt", Flags: Inline, Parents: inBody},
	{Code: U, Name: "u", Flags: Inline, Parents: inBody},
	{Code: Ul, Name: "ul", Flags: Block, Parents: inBody, Closes: closesP},
	{Code: Var, Name: "var", Flags: Inline, Parents: inBody},
	{Code: Video, Name: "video", Flags: Inline, Parents: inBody},
	{Code: Wbr, Name: "wbr", Flags: Empty, Parents: inBody},
	{Code: Xmp, Name: "xmp", Flags: Special, Parents: inBody, Closes: closesP},
	{Code: Unknown, Name: "unknown", Parents: inBody},
}
